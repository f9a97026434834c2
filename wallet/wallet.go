// Package wallet is the default local implementation of the helloworld
// Wallet capability: a single-identity wallet that funds actions from a
// caller-loaded UTXO set, pays change back to itself, and derives one
// signing key per protocol/key pair from its root key.
package wallet

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"sync"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	helloworld "github.com/bitspv/helloworld-token"
)

// Wallet implements helloworld.Wallet.
type Wallet struct {
	priv    *ec.PrivateKey
	address *script.Address
	network helloworld.Network

	mu      sync.Mutex
	utxos   map[string]UTXO
	pending map[string]*pendingAction
}

// New builds a wallet around an existing root key.
func New(priv *ec.PrivateKey, network helloworld.Network) (*Wallet, error) {
	if priv == nil {
		return nil, fmt.Errorf("wallet: nil private key")
	}
	address, err := script.NewAddressFromPublicKey(priv.PubKey(), network == helloworld.NetworkMainnet)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	return &Wallet{
		priv:    priv,
		address: address,
		network: network,
		utxos:   make(map[string]UTXO),
		pending: make(map[string]*pendingAction),
	}, nil
}

// FromMnemonic derives the wallet root key from a BIP-39 mnemonic: the
// first hardened child of the master key over the mnemonic's seed.
func FromMnemonic(mnemonic string, network helloworld.Network) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("wallet: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	child, err := master.NewChildKey(bip32.FirstHardenedChild)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	priv, _ := ec.PrivateKeyFromBytes(child.Key)
	return New(priv, network)
}

// Address is where change returns to.
func (w *Wallet) Address() *script.Address { return w.address }

// Network reports the chain preset the wallet was built for.
func (w *Wallet) Network(ctx context.Context) (helloworld.Network, error) {
	return w.network, nil
}

// AddUTXO makes an output spendable by this wallet.
func (w *Wallet) AddUTXO(u UTXO) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.utxos[u.key()] = u
}

// Spendable lists the wallet's current funding outputs.
func (w *Wallet) Spendable() []UTXO {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spendableLocked()
}

// protocolKey derives the deterministic signing key for a protocol/key
// pair: HMAC-SHA256 of the identifiers under the root key.
func (w *Wallet) protocolKey(protocol helloworld.ProtocolID, keyID string) *ec.PrivateKey {
	mac := hmac.New(sha256.New, w.priv.Serialize())
	fmt.Fprintf(mac, "%d:%s:%s", protocol.SecurityLevel, protocol.Name, keyID)
	priv, _ := ec.PrivateKeyFromBytes(mac.Sum(nil))
	return priv
}

// PublicKey returns the locking key for the given protocol and key ID.
func (w *Wallet) PublicKey(protocol helloworld.ProtocolID, keyID string) (*ec.PublicKey, error) {
	return w.protocolKey(protocol, keyID).PubKey(), nil
}

// Unlocker returns a push-drop unlocker bound to the protocol key.
func (w *Wallet) Unlocker(protocol helloworld.ProtocolID, keyID string) (helloworld.Unlocker, error) {
	return &pushDropUnlocker{priv: w.protocolKey(protocol, keyID)}, nil
}
