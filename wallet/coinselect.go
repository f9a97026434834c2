package wallet

import (
	"errors"
	"fmt"
	"sort"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoUTXOs           = errors.New("no UTXOs available")
)

// CoinSelection holds the result of coin selection.
type CoinSelection struct {
	Inputs []UTXO // Selected UTXOs to spend.
	Total  uint64 // Sum of selected input values.
	Change uint64 // Change = Total - target.
}

// SelectCoins chooses UTXOs to fund a transaction of the given target
// amount. It tries two strategies:
//  1. Single UTXO: the smallest single UTXO that covers the target.
//  2. Largest-first accumulation: greedily adds the largest UTXOs until the
//     target is met.
//
// Returns the strategy that produces the least change.
func SelectCoins(utxos []UTXO, target uint64) (*CoinSelection, error) {
	if len(utxos) == 0 {
		return nil, ErrNoUTXOs
	}
	if target == 0 {
		return nil, fmt.Errorf("target must be positive")
	}

	candidates := make([]UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Satoshis > 0 {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoUTXOs
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Satoshis < candidates[j].Satoshis
	})

	// Strategy 1: smallest single UTXO covering the target.
	var single *CoinSelection
	for _, u := range candidates {
		if u.Satoshis >= target {
			single = &CoinSelection{
				Inputs: []UTXO{u},
				Total:  u.Satoshis,
				Change: u.Satoshis - target,
			}
			break // sorted ascending, first match is smallest
		}
	}

	// Strategy 2: largest-first accumulation.
	var accum *CoinSelection
	var selected []UTXO
	var total uint64
	for i := len(candidates) - 1; i >= 0; i-- {
		selected = append(selected, candidates[i])
		total += candidates[i].Satoshis
		if total >= target {
			accum = &CoinSelection{
				Inputs: selected,
				Total:  total,
				Change: total - target,
			}
			break
		}
	}

	switch {
	case single != nil && accum != nil:
		if single.Change <= accum.Change {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	default:
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, target)
	}
}
