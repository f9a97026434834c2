package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	helloworld "github.com/bitspv/helloworld-token"
)

const (
	// feePerKB is the miner fee rate the wallet targets.
	feePerKB = 1

	// p2pkhInputSize is the serialized worst-case size of one funding input.
	p2pkhInputSize = 148

	// p2pkhOutputSize is the serialized size of the change output.
	p2pkhOutputSize = 34

	// maxSelectAttempts bounds the fee/selection fixpoint loop.
	maxSelectAttempts = 3
)

// pendingAction is a signable transaction held until SignAction.
type pendingAction struct {
	tx        *transaction.Transaction
	spentKeys []string
	change    *UTXO
}

// CreateAction builds a transaction for the given specs, funds it from the
// wallet's UTXO set and signs every input it holds a key for. When a
// caller-supplied input still needs an unlocking script the result is
// signable; otherwise it is completed.
func (w *Wallet) CreateAction(ctx context.Context, args helloworld.CreateActionArgs) (*helloworld.ActionResult, error) {
	if len(args.Outputs) == 0 && len(args.Inputs) == 0 {
		return nil, fmt.Errorf("create action: no inputs or outputs")
	}

	tx := transaction.NewTransaction()

	// Caller-supplied inputs are resolved against the supplied proof
	// bundle so their satoshis and locking scripts are known for signing
	// and fees.
	var inSum uint64
	var unlockEstimates uint64
	for _, in := range args.Inputs {
		sourceOut, err := resolveSourceOutput(args.InputBeef, in.Outpoint)
		if err != nil {
			return nil, fmt.Errorf("create action: %w", err)
		}
		err = tx.AddInputFrom(
			in.Outpoint.Txid.String(),
			in.Outpoint.Index,
			sourceOut.LockingScript.String(),
			sourceOut.Satoshis,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("create action: %w", err)
		}
		inSum += sourceOut.Satoshis
		unlockEstimates += uint64(in.UnlockingScriptLength)
	}

	// Requested outputs keep their order; output randomization is never
	// performed, so the disabled option is honored by construction.
	var outSum uint64
	for _, out := range args.Outputs {
		if out.LockingScript == nil {
			return nil, fmt.Errorf("create action: output without locking script")
		}
		tx.AddOutput(&transaction.TransactionOutput{
			Satoshis:      out.Satoshis,
			LockingScript: out.LockingScript,
		})
		outSum += out.Satoshis
	}

	// A transaction with no outputs is invalid, so a spend that requests
	// none must carry its remainder back as change.
	var minChange uint64
	if len(args.Outputs) == 0 {
		minChange = 1
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	estimate := func(fundingInputs int) uint64 {
		return uint64(len(tx.Bytes())) + unlockEstimates +
			uint64(fundingInputs)*p2pkhInputSize + p2pkhOutputSize
	}

	// Fee and funding chase each other: more funding inputs mean a bigger
	// transaction and a bigger fee. A few rounds settle it.
	var selection *CoinSelection
	fee := feeForSize(estimate(0))
	for attempt := 0; inSum < outSum+fee+minChange; attempt++ {
		if attempt >= maxSelectAttempts {
			return nil, fmt.Errorf("create action: %w", ErrInsufficientFunds)
		}
		sel, err := SelectCoins(w.spendableLocked(), outSum+fee+minChange-inSum)
		if err != nil {
			return nil, fmt.Errorf("create action: %w", err)
		}
		selection = sel
		fee = feeForSize(estimate(len(sel.Inputs)))
		if inSum+sel.Total >= outSum+fee+minChange {
			break
		}
	}

	unlock, err := p2pkh.Unlock(w.priv, nil)
	if err != nil {
		return nil, fmt.Errorf("create action: %w", err)
	}
	var spentKeys []string
	var fundingSum uint64
	if selection != nil {
		for _, u := range selection.Inputs {
			if err := tx.AddInputFrom(u.Txid, u.Vout, u.LockingScript, u.Satoshis, unlock); err != nil {
				return nil, fmt.Errorf("create action: %w", err)
			}
			spentKeys = append(spentKeys, u.key())
			fundingSum += u.Satoshis
		}
	}

	var change *UTXO
	if total := inSum + fundingSum; total > outSum+fee {
		changeScript, err := p2pkh.Lock(w.address)
		if err != nil {
			return nil, fmt.Errorf("create action: %w", err)
		}
		changeVout := uint32(len(tx.Outputs))
		changeSats := total - outSum - fee
		tx.AddOutput(&transaction.TransactionOutput{
			Satoshis:      changeSats,
			LockingScript: changeScript,
		})
		change = &UTXO{
			Vout:          changeVout,
			Satoshis:      changeSats,
			LockingScript: changeScript.String(),
		}
	}

	// Sign everything the wallet holds a template for. Caller inputs keep
	// a nil template and stay unsigned here.
	if err := signTemplatedInputs(tx); err != nil {
		return nil, fmt.Errorf("create action: %w", err)
	}

	if unsignedInputs(tx) > 0 {
		ref := newReference()
		w.pending[hex.EncodeToString(ref)] = &pendingAction{
			tx:        tx,
			spentKeys: spentKeys,
			change:    change,
		}
		return &helloworld.ActionResult{
			Status: helloworld.StatusSignable,
			Signable: &helloworld.SignableTransaction{
				Tx:        tx,
				Reference: ref,
			},
		}, nil
	}

	w.settleLocked(tx, spentKeys, change)
	return &helloworld.ActionResult{
		Status: helloworld.StatusCompleted,
		Tx:     tx,
	}, nil
}

// SignAction attaches the caller's unlocking scripts to a pending signable
// action and finalizes it.
func (w *Wallet) SignAction(ctx context.Context, args helloworld.SignActionArgs) (*helloworld.ActionResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := hex.EncodeToString(args.Reference)
	pending, ok := w.pending[key]
	if !ok {
		return nil, fmt.Errorf("sign action: unknown reference %s", key)
	}

	for vin, us := range args.UnlockingScripts {
		if int(vin) >= len(pending.tx.Inputs) {
			return nil, fmt.Errorf("sign action: input %d out of range", vin)
		}
		pending.tx.Inputs[vin].UnlockingScript = us
	}
	if n := unsignedInputs(pending.tx); n > 0 {
		return nil, fmt.Errorf("sign action: %d inputs still unsigned", n)
	}

	delete(w.pending, key)
	w.settleLocked(pending.tx, pending.spentKeys, pending.change)
	return &helloworld.ActionResult{
		Status: helloworld.StatusCompleted,
		Tx:     pending.tx,
	}, nil
}

// settleLocked updates the UTXO set once a transaction is final. Callers
// hold w.mu.
func (w *Wallet) settleLocked(tx *transaction.Transaction, spentKeys []string, change *UTXO) {
	for _, k := range spentKeys {
		delete(w.utxos, k)
	}
	if change != nil {
		change.Txid = tx.TxID().String()
		w.utxos[change.key()] = *change
	}
}

// spendableLocked lists funding outputs; callers hold w.mu.
func (w *Wallet) spendableLocked() []UTXO {
	out := make([]UTXO, 0, len(w.utxos))
	for _, u := range w.utxos {
		out = append(out, u)
	}
	return out
}

// resolveSourceOutput locates the output an input spec spends inside the
// caller's proof bundle.
func resolveSourceOutput(beef []byte, outpoint transaction.Outpoint) (*transaction.TransactionOutput, error) {
	if len(beef) == 0 {
		return nil, fmt.Errorf("input %s:%d has no proof bundle", outpoint.Txid.String(), outpoint.Index)
	}
	sourceTx, err := transaction.NewTransactionFromBEEF(beef)
	if err != nil {
		return nil, fmt.Errorf("bad proof bundle: %w", err)
	}
	if !sourceTx.TxID().IsEqual(&outpoint.Txid) {
		return nil, fmt.Errorf("proof bundle is for %s, not %s", sourceTx.TxID(), outpoint.Txid.String())
	}
	if int(outpoint.Index) >= len(sourceTx.Outputs) {
		return nil, fmt.Errorf("outpoint %s:%d out of range", outpoint.Txid.String(), outpoint.Index)
	}
	return sourceTx.Outputs[outpoint.Index], nil
}

func signTemplatedInputs(tx *transaction.Transaction) error {
	for vin, in := range tx.Inputs {
		if in.UnlockingScriptTemplate == nil || in.UnlockingScript != nil {
			continue
		}
		us, err := in.UnlockingScriptTemplate.Sign(tx, uint32(vin))
		if err != nil {
			return fmt.Errorf("sign input %d: %w", vin, err)
		}
		in.UnlockingScript = us
	}
	return nil
}

func unsignedInputs(tx *transaction.Transaction) int {
	var n int
	for _, in := range tx.Inputs {
		if in.UnlockingScript == nil {
			n++
		}
	}
	return n
}

func feeForSize(size uint64) uint64 {
	fee := (size + 999) / 1000 * feePerKB
	if fee == 0 {
		fee = 1
	}
	return fee
}

func newReference() []byte {
	ref := make([]byte, 12)
	rand.Read(ref)
	return ref
}
