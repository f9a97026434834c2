package wallet

import (
	"context"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"
)

// estimateUnlockLength covers a DER signature push with the sighash byte:
// 1 length prefix + up to 72 signature bytes + 1 flag byte.
const estimateUnlockLength = 74

// pushDropUnlocker signs push-drop token inputs. The lock is
// <pubkey> OP_CHECKSIG with the data fields dropped, so the unlocking
// script is a single signature push.
type pushDropUnlocker struct {
	priv *ec.PrivateKey
}

func (u *pushDropUnlocker) EstimateLength() uint32 { return estimateUnlockLength }

func (u *pushDropUnlocker) UnlockingScript(ctx context.Context, tx *transaction.Transaction, inputIndex uint32) (*script.Script, error) {
	if tx == nil || int(inputIndex) >= len(tx.Inputs) {
		return nil, fmt.Errorf("unlock: input %d out of range", inputIndex)
	}
	flag := sighash.AllForkID
	hash, err := tx.CalcInputSignatureHash(inputIndex, flag)
	if err != nil {
		return nil, fmt.Errorf("unlock: %w", err)
	}
	sig, err := u.priv.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("unlock: %w", err)
	}

	s := &script.Script{}
	if err := s.AppendPushData(append(sig.Serialize(), byte(flag))); err != nil {
		return nil, err
	}
	return s, nil
}
