package helloworld

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// Wallet is the transaction construction and signing capability. A concrete
// implementation lives in the wallet package; anything satisfying this
// interface (remote wallets included) can be injected instead.
type Wallet interface {
	// CreateAction builds a funded transaction from the given specs. The
	// result is either completed, or signable when an input needs an
	// unlocking script the wallet cannot produce itself.
	CreateAction(ctx context.Context, args CreateActionArgs) (*ActionResult, error)

	// SignAction attaches caller-produced unlocking scripts to a signable
	// action and finalizes it.
	SignAction(ctx context.Context, args SignActionArgs) (*ActionResult, error)

	// PublicKey returns the public key outputs are locked to under the
	// given protocol and key identifier.
	PublicKey(protocol ProtocolID, keyID string) (*ec.PublicKey, error)

	// Unlocker returns a script unlocker for outputs locked under the given
	// protocol and key with an "anyone" counterparty policy.
	Unlocker(protocol ProtocolID, keyID string) (Unlocker, error)

	// Network reports which chain the wallet operates on.
	Network(ctx context.Context) (Network, error)
}

// CreateActionArgs describes the transaction the wallet should build.
type CreateActionArgs struct {
	Description string
	Inputs      []InputSpec
	InputBeef   []byte
	Outputs     []OutputSpec
	Options     ActionOptions
}

// OutputSpec is one requested output.
type OutputSpec struct {
	Satoshis      uint64
	LockingScript *script.Script
	Description   string
}

// InputSpec is one caller-supplied input. UnlockingScriptLength is the fee
// estimate for the script the caller will provide at sign time.
type InputSpec struct {
	Outpoint              transaction.Outpoint
	UnlockingScriptLength uint32
	Description           string
}

// ActionOptions mirrors the wallet options this layer always pins down:
// no delayed broadcast (the overlay submit is ours to do) and no output
// shuffling (output 0 must stay the token output).
type ActionOptions struct {
	AcceptDelayedBroadcast bool
	RandomizeOutputs       bool
}

// ActionStatus is the explicit two-state signing protocol.
type ActionStatus int

const (
	// StatusCompleted: the wallet produced a fully signed transaction.
	StatusCompleted ActionStatus = iota + 1
	// StatusSignable: the wallet produced a partial transaction that still
	// needs unlocking scripts from the caller.
	StatusSignable
)

// ActionResult is the outcome of CreateAction or SignAction. Exactly one of
// Tx (StatusCompleted) or Signable (StatusSignable) is set.
type ActionResult struct {
	Status   ActionStatus
	Tx       *transaction.Transaction
	Signable *SignableTransaction
}

// SignableTransaction is a partial transaction held by the wallet under an
// opaque reference until SignAction completes it.
type SignableTransaction struct {
	Tx        *transaction.Transaction
	Reference []byte
}

// SignActionArgs finalizes a signable action.
type SignActionArgs struct {
	Reference        []byte
	UnlockingScripts map[uint32]*script.Script
}

// Unlocker produces unlocking scripts for token inputs.
type Unlocker interface {
	// UnlockingScript signs the given input of tx.
	UnlockingScript(ctx context.Context, tx *transaction.Transaction, inputIndex uint32) (*script.Script, error)

	// EstimateLength is the byte-size budget quoted to the wallet for fees.
	EstimateLength() uint32
}

// Broadcaster submits a finished transaction to one or more overlay topics.
// Submission rejection is a result value, not an error.
type Broadcaster interface {
	Broadcast(ctx context.Context, tx *transaction.Transaction) *BroadcastResult
}

// BroadcastResult is a discriminated success/failure value. Exactly one of
// Success or Failure is set.
type BroadcastResult struct {
	Success *BroadcastSuccess
	Failure *BroadcastFailure
}

// Ok reports whether the broadcast was accepted.
func (r *BroadcastResult) Ok() bool { return r != nil && r.Success != nil }

type BroadcastSuccess struct {
	Txid    string `json:"txid"`
	Message string `json:"message"`
}

type BroadcastFailure struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (f *BroadcastFailure) Error() string {
	return fmt.Sprintf("broadcast rejected (%s): %s", f.Code, f.Description)
}

// Resolver answers lookup questions against an overlay lookup service.
type Resolver interface {
	Query(ctx context.Context, question *LookupQuestion, timeout time.Duration) (*LookupAnswer, error)
}

// LookupQuestion targets a named lookup service with a service-defined
// query object.
type LookupQuestion struct {
	Service string          `json:"service"`
	Query   json.RawMessage `json:"query"`
}

// AnswerType discriminates lookup answers.
type AnswerType string

const (
	AnswerTypeOutputList AnswerType = "output-list"
	AnswerTypeFreeform   AnswerType = "freeform"
)

// LookupAnswer is what a lookup service returns. Only output-list answers
// carry token outputs; any other type is treated as no matches.
type LookupAnswer struct {
	Type    AnswerType        `json:"type"`
	Outputs []*OutputListItem `json:"outputs,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
}

// OutputListItem is one matched output: the proof bundle of its transaction
// and the index of the output within it.
type OutputListItem struct {
	Beef        ByteString `json:"beef"`
	OutputIndex uint32     `json:"outputIndex"`
}
