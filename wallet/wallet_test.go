package wallet

import (
	"context"
	"strings"
	"testing"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	helloworld "github.com/bitspv/helloworld-token"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := FromMnemonic(testMnemonic, helloworld.NetworkLocal)
	if err != nil {
		t.Fatalf("FromMnemonic: %v", err)
	}
	return w
}

func TestFromMnemonicRejectsGarbage(t *testing.T) {
	if _, err := FromMnemonic("definitely not a mnemonic", helloworld.NetworkLocal); err == nil {
		t.Fatal("expected error for invalid mnemonic")
	}
}

func TestFromMnemonicDeterministic(t *testing.T) {
	a := testWallet(t)
	b := testWallet(t)
	if a.Address().AddressString != b.Address().AddressString {
		t.Fatalf("addresses differ: %s vs %s", a.Address().AddressString, b.Address().AddressString)
	}
}

func TestProtocolKeysDiffer(t *testing.T) {
	w := testWallet(t)

	k1, err := w.PublicKey(helloworld.TokenProtocol, "1")
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	k2, err := w.PublicKey(helloworld.TokenProtocol, "2")
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if k1.ToDERHex() == k2.ToDERHex() {
		t.Fatal("distinct key IDs derived the same key")
	}

	again, err := w.PublicKey(helloworld.TokenProtocol, "1")
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if k1.ToDERHex() != again.ToDERHex() {
		t.Fatal("derivation not deterministic")
	}
}

func TestUnlockerEstimate(t *testing.T) {
	w := testWallet(t)
	u, err := w.Unlocker(helloworld.TokenProtocol, helloworld.TokenKeyID)
	if err != nil {
		t.Fatalf("Unlocker: %v", err)
	}
	if u.EstimateLength() != estimateUnlockLength {
		t.Fatalf("EstimateLength = %d", u.EstimateLength())
	}
}

func fundingUTXO(t *testing.T, w *Wallet, sats uint64) UTXO {
	t.Helper()
	lock, err := p2pkh.Lock(w.Address())
	if err != nil {
		t.Fatalf("p2pkh.Lock: %v", err)
	}
	return UTXO{
		Txid:          strings.Repeat("aa", 32),
		Vout:          0,
		Satoshis:      sats,
		LockingScript: lock.String(),
	}
}

func TestCreateActionFundsAndSigns(t *testing.T) {
	w := testWallet(t)
	w.AddUTXO(fundingUTXO(t, w, 5000))

	pub, err := w.PublicKey(helloworld.TokenProtocol, helloworld.TokenKeyID)
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	lock, err := helloworld.NewPushDropLock(pub, [][]byte{[]byte("hi")})
	if err != nil {
		t.Fatalf("NewPushDropLock: %v", err)
	}

	result, err := w.CreateAction(context.Background(), helloworld.CreateActionArgs{
		Description: "issue",
		Outputs: []helloworld.OutputSpec{{
			Satoshis:      helloworld.TokenSatoshis,
			LockingScript: lock,
			Description:   "token",
		}},
	})
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	if result.Status != helloworld.StatusCompleted || result.Tx == nil {
		t.Fatalf("result not completed: %+v", result)
	}

	tx := result.Tx
	if len(tx.Inputs) != 1 {
		t.Fatalf("inputs = %d", len(tx.Inputs))
	}
	if tx.Inputs[0].UnlockingScript == nil {
		t.Fatal("funding input not signed")
	}
	// Token output first, change second.
	if len(tx.Outputs) != 2 {
		t.Fatalf("outputs = %d", len(tx.Outputs))
	}
	if tx.Outputs[0].Satoshis != helloworld.TokenSatoshis {
		t.Fatalf("token output satoshis = %d", tx.Outputs[0].Satoshis)
	}
	if tx.Outputs[1].Satoshis >= 5000 {
		t.Fatalf("change %d did not pay the fee", tx.Outputs[1].Satoshis)
	}

	// The spent UTXO is gone; the change output is now spendable.
	spendable := w.Spendable()
	if len(spendable) != 1 {
		t.Fatalf("spendable = %d", len(spendable))
	}
	if spendable[0].Txid != tx.TxID().String() {
		t.Fatalf("change txid = %s", spendable[0].Txid)
	}
}

func TestCreateActionInputOnlySpendKeepsAnOutput(t *testing.T) {
	w := testWallet(t)
	w.AddUTXO(fundingUTXO(t, w, 5000))

	pub, err := w.PublicKey(helloworld.TokenProtocol, helloworld.TokenKeyID)
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	lock, err := helloworld.NewPushDropLock(pub, [][]byte{[]byte("bye")})
	if err != nil {
		t.Fatalf("NewPushDropLock: %v", err)
	}
	sourceTx := transaction.NewTransaction()
	sourceTx.AddOutput(&transaction.TransactionOutput{Satoshis: helloworld.TokenSatoshis, LockingScript: lock})
	beef, err := sourceTx.BEEF()
	if err != nil {
		t.Fatalf("BEEF: %v", err)
	}

	result, err := w.CreateAction(context.Background(), helloworld.CreateActionArgs{
		Description: "spend only",
		Inputs: []helloworld.InputSpec{{
			Outpoint:              transaction.Outpoint{Txid: *sourceTx.TxID(), Index: 0},
			UnlockingScriptLength: estimateUnlockLength,
		}},
		InputBeef: beef,
	})
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	if result.Status != helloworld.StatusSignable || result.Signable == nil {
		t.Fatalf("result not signable: %+v", result)
	}
	// Nothing was requested, so the remaining value must come back as a
	// change output rather than leaving the transaction outputless.
	if len(result.Signable.Tx.Outputs) == 0 {
		t.Fatal("no outputs on an input-only spend")
	}

	u, err := w.Unlocker(helloworld.TokenProtocol, helloworld.TokenKeyID)
	if err != nil {
		t.Fatalf("Unlocker: %v", err)
	}
	unlock, err := u.UnlockingScript(context.Background(), result.Signable.Tx, 0)
	if err != nil {
		t.Fatalf("UnlockingScript: %v", err)
	}
	final, err := w.SignAction(context.Background(), helloworld.SignActionArgs{
		Reference:        result.Signable.Reference,
		UnlockingScripts: map[uint32]*script.Script{0: unlock},
	})
	if err != nil {
		t.Fatalf("SignAction: %v", err)
	}
	if final.Status != helloworld.StatusCompleted || final.Tx == nil {
		t.Fatalf("result not completed: %+v", final)
	}
	if len(final.Tx.Outputs) == 0 {
		t.Fatal("final transaction has no outputs")
	}
}

func TestCreateActionInsufficientFunds(t *testing.T) {
	w := testWallet(t)

	pub, _ := w.PublicKey(helloworld.TokenProtocol, helloworld.TokenKeyID)
	lock, err := helloworld.NewPushDropLock(pub, [][]byte{[]byte("hi")})
	if err != nil {
		t.Fatalf("NewPushDropLock: %v", err)
	}

	_, err = w.CreateAction(context.Background(), helloworld.CreateActionArgs{
		Outputs: []helloworld.OutputSpec{{Satoshis: 1, LockingScript: lock}},
	})
	if err == nil {
		t.Fatal("expected funding failure")
	}
}

func TestCreateActionRejectsEmptySpec(t *testing.T) {
	w := testWallet(t)
	if _, err := w.CreateAction(context.Background(), helloworld.CreateActionArgs{}); err == nil {
		t.Fatal("expected error for empty action")
	}
}

func TestSignActionUnknownReference(t *testing.T) {
	w := testWallet(t)
	_, err := w.SignAction(context.Background(), helloworld.SignActionArgs{
		Reference: []byte{0x01},
	})
	if err == nil {
		t.Fatal("expected error for unknown reference")
	}
}

func TestNetwork(t *testing.T) {
	w := testWallet(t)
	network, err := w.Network(context.Background())
	if err != nil {
		t.Fatalf("Network: %v", err)
	}
	if network != helloworld.NetworkLocal {
		t.Fatalf("network = %s", network)
	}
}
