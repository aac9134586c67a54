package wallet

import (
	"context"
	"fmt"
	"math"

	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// BalanceSnapshot is a classification of the wallet's UTXOs at one point in
// time. SpendableValue + TokenLockedValue == TotalValue.
type BalanceSnapshot struct {
	SpendableValue   uint64
	TotalValue       uint64
	TokenLockedValue uint64
	PureValueCount   int
	TokenUtxoCount   int

	PureValue    []types.Utxo
	TokenBearing []types.Utxo
}

// Balance fetches the wallet's UTXOs and classifies them.
func (w *Wallet) Balance(ctx context.Context) (*BalanceSnapshot, error) {
	utxos, err := w.indexer.ScriptUtxos(ctx, w.keys.Script())
	if err != nil {
		return nil, err
	}
	return classifyUtxos(utxos)
}

// classifyUtxos splits utxos into value-only and token-bearing lists,
// preserving order within each.
func classifyUtxos(utxos []types.Utxo) (*BalanceSnapshot, error) {
	s := &BalanceSnapshot{
		PureValue:    []types.Utxo{},
		TokenBearing: []types.Utxo{},
	}
	for _, u := range utxos {
		if s.TotalValue > math.MaxUint64-u.Value {
			return nil, fmt.Errorf("balance overflow")
		}
		s.TotalValue += u.Value
		if u.IsPureValue() {
			s.SpendableValue += u.Value
			s.PureValue = append(s.PureValue, u)
		} else {
			s.TokenLockedValue += u.Value
			s.TokenBearing = append(s.TokenBearing, u)
		}
	}
	s.PureValueCount = len(s.PureValue)
	s.TokenUtxoCount = len(s.TokenBearing)
	return s, nil
}

// MaxSendAmount returns the largest amount SendXec can be asked to send:
// value-only balance minus the flat fee estimate and the commission. It is
// zero when that is below the dust limit.
func (w *Wallet) MaxSendAmount(ctx context.Context) (uint64, error) {
	snap, err := w.Balance(ctx)
	if err != nil {
		return 0, err
	}
	return maxSendable(snap.SpendableValue), nil
}

func maxSendable(spendable uint64) uint64 {
	reserve := FlatFeeEstimate + CommissionValue
	if spendable < reserve+DustLimit {
		return 0
	}
	return spendable - reserve
}
