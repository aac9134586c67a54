package wallet

import (
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/coinset"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// CoinSelection holds the result of coin selection.
type CoinSelection struct {
	Inputs []types.Utxo // Selected UTXOs to spend, in indexer order.
	Total  uint64       // Sum of selected input values.
}

// coin adapts a UTXO to coinset.Coin.
type coin struct {
	utxo types.Utxo
}

func (c coin) Hash() *chainhash.Hash {
	h := c.utxo.Outpoint.TxID
	return &h
}
func (c coin) Index() uint32 { return c.utxo.Outpoint.Index }
func (c coin) Value() btcutil.Amount { return btcutil.Amount(c.utxo.Value) }
func (c coin) PkScript() []byte { return c.utxo.Script }
func (c coin) NumConfs() int64 { return 0 }
func (c coin) ValueAge() int64 { return 0 }

// SelectCoins picks UTXOs first-fit in the given order until their value
// reaches target. Order is preserved; no attempt is made to minimise change.
func SelectCoins(utxos []types.Utxo, target uint64) (*CoinSelection, error) {
	if len(utxos) == 0 {
		return nil, ErrNoUTXOs
	}
	if target > math.MaxInt64 {
		return nil, fmt.Errorf("%w: target %d", ErrInsufficientFunds, target)
	}

	coins := make([]coinset.Coin, len(utxos))
	var available uint64
	for i, u := range utxos {
		coins[i] = coin{utxo: u}
		available += u.Value
	}

	selector := coinset.MinIndexCoinSelector{MaxInputs: len(coins), MinChangeAmount: 0}
	set, err := selector.CoinSelect(btcutil.Amount(target), coins)
	if errors.Is(err, coinset.ErrCoinsNoSelectionAvailable) {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, available, target)
	}
	if err != nil {
		return nil, fmt.Errorf("select coins: %w", err)
	}

	sel := &CoinSelection{}
	for _, c := range set.Coins() {
		u := c.(coin).utxo
		sel.Inputs = append(sel.Inputs, u)
		sel.Total += u.Value
	}
	return sel, nil
}

// selectTokenInputs picks non-baton UTXOs of one token first-fit until their
// atoms reach target.
func selectTokenInputs(utxos []types.Utxo, tokenID chainhash.Hash, target uint64) ([]types.Utxo, uint64, error) {
	var selected []types.Utxo
	var atoms uint64
	for _, u := range utxos {
		if !u.HoldsToken(tokenID) {
			continue
		}
		if atoms > math.MaxUint64-u.Token.Atoms {
			return nil, 0, fmt.Errorf("%w: token atoms overflow", ErrInvalidAmount)
		}
		selected = append(selected, u)
		atoms += u.Token.Atoms
		if atoms >= target {
			return selected, atoms, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: have %d atoms, need %d", ErrInsufficientTokens, atoms, target)
}
