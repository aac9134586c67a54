package wallet

import (
	"context"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// TokenBalance is the wallet's holding of one token.
type TokenBalance struct {
	TokenID chainhash.Hash
	Atoms   uint64
	Utxos   []types.Utxo
}

// MintBaton is a UTXO granting mint authority over a token.
type MintBaton struct {
	TokenID chainhash.Hash
	Utxo    types.Utxo
}

// TokenHolding is one entry of ListTokens.
type TokenHolding struct {
	TokenID chainhash.Hash
	Atoms   uint64
}

// TokenBalance returns the wallet's non-baton atoms of tokenID.
func (w *Wallet) TokenBalance(ctx context.Context, tokenID chainhash.Hash) (*TokenBalance, error) {
	snap, err := w.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return tokenBalanceOf(snap.TokenBearing, tokenID)
}

func tokenBalanceOf(utxos []types.Utxo, tokenID chainhash.Hash) (*TokenBalance, error) {
	bal := &TokenBalance{TokenID: tokenID, Utxos: []types.Utxo{}}
	for _, u := range utxos {
		if !u.HoldsToken(tokenID) {
			continue
		}
		if bal.Atoms > math.MaxUint64-u.Token.Atoms {
			return nil, fmt.Errorf("token %s: balance overflow", tokenID)
		}
		bal.Atoms += u.Token.Atoms
		bal.Utxos = append(bal.Utxos, u)
	}
	return bal, nil
}

// MintBatons lists the wallet's mint batons, one per token.
func (w *Wallet) MintBatons(ctx context.Context) ([]MintBaton, error) {
	snap, err := w.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return mintBatonsOf(snap.TokenBearing), nil
}

func mintBatonsOf(utxos []types.Utxo) []MintBaton {
	batons := []MintBaton{}
	seen := make(map[chainhash.Hash]bool)
	for _, u := range utxos {
		if !u.IsMintBaton() || seen[u.Token.TokenID] {
			continue
		}
		seen[u.Token.TokenID] = true
		batons = append(batons, MintBaton{TokenID: u.Token.TokenID, Utxo: u})
	}
	return batons
}

// ListTokens returns the wallet's balance of every token it holds, in the
// order the tokens first appear in the UTXO set.
func (w *Wallet) ListTokens(ctx context.Context) ([]TokenHolding, error) {
	snap, err := w.Balance(ctx)
	if err != nil {
		return nil, err
	}
	holdings := []TokenHolding{}
	index := make(map[chainhash.Hash]int)
	for _, u := range snap.TokenBearing {
		if u.IsMintBaton() {
			continue
		}
		i, ok := index[u.Token.TokenID]
		if !ok {
			i = len(holdings)
			index[u.Token.TokenID] = i
			holdings = append(holdings, TokenHolding{TokenID: u.Token.TokenID})
		}
		if holdings[i].Atoms > math.MaxUint64-u.Token.Atoms {
			return nil, fmt.Errorf("token %s: balance overflow", u.Token.TokenID)
		}
		holdings[i].Atoms += u.Token.Atoms
	}
	return holdings, nil
}
