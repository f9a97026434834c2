package wallet

import (
	"encoding/json"
	"fmt"
	"os"
)

// UTXO is a spendable P2PKH output the wallet can fund actions with.
type UTXO struct {
	Txid          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Satoshis      uint64 `json:"satoshis"`
	LockingScript string `json:"lockingScript"` // hex
}

func (u UTXO) key() string {
	return fmt.Sprintf("%s:%d", u.Txid, u.Vout)
}

// LoadUTXOs reads a JSON array of UTXOs from path.
func LoadUTXOs(path string) ([]UTXO, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var utxos []UTXO
	if err := json.Unmarshal(raw, &utxos); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return utxos, nil
}
