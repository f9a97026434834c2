// Package helloworld issues, updates, redeems and queries single-satoshi
// "hello world" tokens on BSV. A token is one unspent output whose locking
// script carries a UTF-8 message as the first push-drop field. All heavy
// lifting (funding, signing, broadcast consensus, lookup indexing) is
// delegated to the injected wallet, broadcaster and resolver capabilities.
package helloworld

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

const (
	// ProtocolName is the BRC-42 protocol under which token keys are derived.
	ProtocolName = "HelloWorld"

	// TokenKeyID is the key identifier used for every token lock.
	TokenKeyID = "1"

	// BroadcastTopic is the overlay topic token transactions are submitted to.
	BroadcastTopic = "tm_helloworld_bitspv"

	// LookupService is the overlay lookup service that indexes token outputs.
	LookupService = "ls_helloworld_bitspv"

	// TokenSatoshis is the value carried by every token output.
	TokenSatoshis = 1

	// DefaultLookupTimeout bounds a lookup round trip when the caller does
	// not supply a timeout.
	DefaultLookupTimeout = 10 * time.Second

	// DefaultFindLimit caps FindByMessage results.
	DefaultFindLimit = 100
)

// TokenProtocol identifies the push-drop key derivation protocol:
// security level 1, open to every app.
var TokenProtocol = ProtocolID{SecurityLevel: 1, Name: ProtocolName}

// ProtocolID names a key derivation protocol.
type ProtocolID struct {
	SecurityLevel int
	Name          string
}

// Network selects a chain preset for broadcast and lookup.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkLocal   Network = "local"
)

// Token is one unspent 1-satoshi output with an embedded message. Beef is
// the proof bundle for the transaction that created the output; it is nil
// unless the token was loaded with proofs, and it must be present before
// the token can be spent.
type Token struct {
	Message       string
	Outpoint      transaction.Outpoint
	LockingScript *script.Script
	Satoshis      uint64
	Beef          []byte
}

// HasProof reports whether the token carries the proof bundle required to
// spend it.
func (t *Token) HasProof() bool {
	return len(t.Beef) > 0
}

func (t *Token) String() string {
	return fmt.Sprintf("%s:%d %q", t.Outpoint.Txid.String(), t.Outpoint.Index, t.Message)
}

// MarshalJSON flattens the outpoint and hex-encodes binary fields.
func (t *Token) MarshalJSON() ([]byte, error) {
	var lock string
	if t.LockingScript != nil {
		lock = t.LockingScript.String()
	}
	return json.Marshal(&struct {
		Txid          string     `json:"txid"`
		Vout          uint32     `json:"outputIndex"`
		Message       string     `json:"message"`
		LockingScript string     `json:"lockingScript"`
		Satoshis      uint64     `json:"satoshis"`
		Beef          ByteString `json:"beef,omitempty"`
	}{
		Txid:          t.Outpoint.Txid.String(),
		Vout:          t.Outpoint.Index,
		Message:       t.Message,
		LockingScript: lock,
		Satoshis:      t.Satoshis,
		Beef:          ByteString(t.Beef),
	})
}

// ByteString is a byte array that serializes to hex
type ByteString []byte

// MarshalJSON serializes ByteString to hex
func (s ByteString) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(s))
}

// UnmarshalJSON deserializes ByteString from hex
func (s *ByteString) UnmarshalJSON(data []byte) error {
	var x string
	err := json.Unmarshal(data, &x)
	if err == nil {
		str, e := hex.DecodeString(x)
		*s = ByteString(str)
		err = e
	}
	return err
}
