package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/sync/errgroup"

	"github.com/Klingon-tech/xecwallet/internal/token"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// TokenInfo describes a token: its genesis metadata, the atoms created at
// genesis and the atoms currently unspent.
type TokenInfo struct {
	TokenID           chainhash.Hash
	Protocol          types.TokenProtocol
	TokenType         uint32
	Ticker            string
	Name              string
	Decimals          uint32
	URL               string
	Hash              string
	TimeFirstSeen     int64
	GenesisSupply     uint64
	CirculatingSupply uint64
}

// TokenInfo fetches token metadata, genesis supply and circulating supply
// concurrently. Genesis data of confirmed tokens is served from the token
// cache when one is configured.
func (w *Wallet) TokenInfo(ctx context.Context, tokenID chainhash.Hash) (*TokenInfo, error) {
	if cached := w.cachedToken(tokenID); cached != nil {
		circulating, err := w.circulatingSupply(ctx, tokenID)
		if err != nil {
			return nil, err
		}
		return newTokenInfo(&cached.TokenMeta, *cached.GenesisSupply, circulating), nil
	}

	var (
		meta        *types.TokenMeta
		genesis     uint64
		circulating uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := w.indexer.Token(gctx, tokenID)
		if err != nil {
			return fmt.Errorf("token %s: %w", tokenID, err)
		}
		m.TokenID = tokenID
		meta = m
		return nil
	})
	g.Go(func() error {
		tx, err := w.indexer.Tx(gctx, tokenID)
		if err != nil {
			return fmt.Errorf("genesis tx %s: %w", tokenID, err)
		}
		genesis, err = genesisSupply(tx, tokenID)
		return err
	})
	g.Go(func() error {
		var err error
		circulating, err = w.circulatingSupply(gctx, tokenID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	w.cacheToken(meta, genesis)
	return newTokenInfo(meta, genesis, circulating), nil
}

// TokenInfoOrUnknown is TokenInfo for display paths: on failure it returns
// an "Unknown Token" placeholder and ok == false.
func (w *Wallet) TokenInfoOrUnknown(ctx context.Context, tokenID chainhash.Hash) (info *TokenInfo, ok bool) {
	info, err := w.TokenInfo(ctx, tokenID)
	if err != nil {
		w.logger.Debug().Err(err).Str("token", tokenID.String()).Msg("Token info unavailable")
		return &TokenInfo{TokenID: tokenID, Ticker: "UNKNOWN", Name: "Unknown Token"}, false
	}
	return info, true
}

func newTokenInfo(meta *types.TokenMeta, genesis, circulating uint64) *TokenInfo {
	return &TokenInfo{
		TokenID:           meta.TokenID,
		Protocol:          meta.Protocol,
		TokenType:         meta.TokenType,
		Ticker:            meta.Ticker,
		Name:              meta.Name,
		Decimals:          meta.Decimals,
		URL:               meta.URL,
		Hash:              meta.Hash,
		TimeFirstSeen:     meta.TimeFirstSeen,
		GenesisSupply:     genesis,
		CirculatingSupply: circulating,
	}
}

func (w *Wallet) circulatingSupply(ctx context.Context, tokenID chainhash.Hash) (uint64, error) {
	utxos, err := w.indexer.TokenUtxos(ctx, tokenID)
	if err != nil {
		return 0, fmt.Errorf("token utxos %s: %w", tokenID, err)
	}
	bal, err := tokenBalanceOf(utxos, tokenID)
	if err != nil {
		return 0, err
	}
	return bal.Atoms, nil
}

// genesisSupply sums the non-baton atoms created by the genesis outputs.
func genesisSupply(tx *types.Tx, tokenID chainhash.Hash) (uint64, error) {
	var supply uint64
	for _, out := range tx.Outputs {
		if out.Token == nil || out.Token.IsMintBaton || out.Token.TokenID != tokenID {
			continue
		}
		if supply > math.MaxUint64-out.Token.Atoms {
			return 0, fmt.Errorf("token %s: genesis supply overflow", tokenID)
		}
		supply += out.Token.Atoms
	}
	return supply, nil
}

// cachedToken returns cached genesis data, or nil.
func (w *Wallet) cachedToken(tokenID chainhash.Hash) *token.Metadata {
	if w.tokens == nil {
		return nil
	}
	meta, err := w.tokens.Get(tokenID)
	if err != nil {
		if !errors.Is(err, token.ErrNotCached) {
			w.logger.Warn().Err(err).Str("token", tokenID.String()).Msg("Token cache read failed")
		}
		return nil
	}
	if meta.GenesisSupply == nil {
		return nil
	}
	return meta
}

// cacheToken stores genesis data of confirmed tokens. A genesis still in the
// mempool can be dropped, so it is not cached.
func (w *Wallet) cacheToken(meta *types.TokenMeta, genesis uint64) {
	if w.tokens == nil || meta.BlockHeight < 0 {
		return
	}
	entry := &token.Metadata{TokenMeta: *meta, GenesisSupply: &genesis}
	if err := w.tokens.Put(entry); err != nil {
		w.logger.Warn().Err(err).Str("token", meta.TokenID.String()).Msg("Token cache write failed")
	}
}
