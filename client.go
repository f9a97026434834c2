package helloworld

import (
	"context"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// Client wires the three capabilities together. Construct one with
// NewClient, or fill the fields directly in tests.
type Client struct {
	Wallet      Wallet
	Broadcaster Broadcaster
	Resolver    Resolver
}

// NewClient builds a client from explicit capabilities. All three must be
// supplied; defaults live in the wallet and overlay packages so that
// construction stays visible at the call site.
func NewClient(w Wallet, b Broadcaster, r Resolver) (*Client, error) {
	if w == nil {
		return nil, fmt.Errorf("helloworld: nil wallet")
	}
	if b == nil {
		return nil, fmt.Errorf("helloworld: nil broadcaster")
	}
	if r == nil {
		return nil, fmt.Errorf("helloworld: nil resolver")
	}
	return &Client{Wallet: w, Broadcaster: b, Resolver: r}, nil
}

// Issue locks message into a new 1-satoshi push-drop output and submits the
// transaction to the token topic. The broadcast outcome is returned as a
// value; a wallet that cannot build the transaction is a ConstructionError.
func (c *Client) Issue(ctx context.Context, message string) (*BroadcastResult, error) {
	if message == "" {
		return nil, fmt.Errorf("issue: empty message")
	}
	lock, err := c.tokenLock(message)
	if err != nil {
		return nil, fmt.Errorf("issue: %w", err)
	}

	result, err := c.Wallet.CreateAction(ctx, CreateActionArgs{
		Description: "issue helloworld token",
		Outputs: []OutputSpec{{
			Satoshis:      TokenSatoshis,
			LockingScript: lock,
			Description:   "helloworld token output",
		}},
		Options: ActionOptions{
			AcceptDelayedBroadcast: false,
			RandomizeOutputs:       false,
		},
	})
	if err != nil {
		return nil, &ConstructionError{Err: err}
	}
	if result.Status != StatusCompleted || result.Tx == nil {
		return nil, &ConstructionError{Err: fmt.Errorf("wallet returned no final transaction")}
	}

	return c.Broadcaster.Broadcast(ctx, result.Tx), nil
}

// Update spends prior and creates a replacement token carrying newMessage.
// The prior token must carry its proof bundle.
func (c *Client) Update(ctx context.Context, prior *Token, newMessage string) (*BroadcastResult, error) {
	if newMessage == "" {
		return nil, fmt.Errorf("update: empty message")
	}
	lock, err := c.tokenLock(newMessage)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	tx, err := c.spend(ctx, "update", prior, lock)
	if err != nil {
		return nil, err
	}
	return c.Broadcaster.Broadcast(ctx, tx), nil
}

// Redeem spends prior with no replacement output; the token is terminal
// after this. The prior token must carry its proof bundle.
func (c *Client) Redeem(ctx context.Context, prior *Token) (*BroadcastResult, error) {
	tx, err := c.spend(ctx, "redeem", prior, nil)
	if err != nil {
		return nil, err
	}
	return c.Broadcaster.Broadcast(ctx, tx), nil
}

func (c *Client) tokenLock(message string) (*script.Script, error) {
	pubKey, err := c.Wallet.PublicKey(TokenProtocol, TokenKeyID)
	if err != nil {
		return nil, err
	}
	return NewPushDropLock(pubKey, [][]byte{[]byte(message)})
}

// spend consumes prior's output, optionally producing the replacement lock,
// and runs the two-phase signing protocol: if the wallet hands back a
// signable transaction, the token input's unlocking script is derived
// against it and fed into SignAction.
func (c *Client) spend(ctx context.Context, op string, prior *Token, replacement *script.Script) (*transaction.Transaction, error) {
	if prior == nil {
		return nil, fmt.Errorf("%s: nil token", op)
	}
	if !prior.HasProof() {
		return nil, &MissingProofError{Op: op}
	}

	unlocker, err := c.Wallet.Unlocker(TokenProtocol, TokenKeyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	args := CreateActionArgs{
		Description: fmt.Sprintf("%s helloworld token", op),
		Inputs: []InputSpec{{
			Outpoint:              prior.Outpoint,
			UnlockingScriptLength: unlocker.EstimateLength(),
			Description:           "spend prior token output",
		}},
		InputBeef: prior.Beef,
		Options: ActionOptions{
			AcceptDelayedBroadcast: false,
			RandomizeOutputs:       false,
		},
	}
	if replacement != nil {
		args.Outputs = []OutputSpec{{
			Satoshis:      TokenSatoshis,
			LockingScript: replacement,
			Description:   "replacement token output",
		}}
	}

	result, err := c.Wallet.CreateAction(ctx, args)
	if err != nil {
		return nil, &ConstructionError{Err: err}
	}

	if result.Status == StatusSignable && result.Signable != nil {
		unlock, err := unlocker.UnlockingScript(ctx, result.Signable.Tx, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result, err = c.Wallet.SignAction(ctx, SignActionArgs{
			Reference:        result.Signable.Reference,
			UnlockingScripts: map[uint32]*script.Script{0: unlock},
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if result == nil || result.Status != StatusCompleted || result.Tx == nil {
		return nil, &SigningError{Op: op}
	}
	return result.Tx, nil
}
