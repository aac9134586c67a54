package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/xecwallet/internal/log"
	"github.com/Klingon-tech/xecwallet/internal/token"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// Protocol constants.
const (
	DustLimit       uint64 = 546
	CommissionValue uint64 = 600
	FeePerKb        uint64 = 1200
	FlatFeeEstimate uint64 = 500
	MaxMessageSize         = 220

	// CommissionAddress receives CommissionValue on every native send.
	CommissionAddress = "ecash:qzrpf4j09vpa9hf9h4w209hvefex9ysng5yectwda9"
)

// Indexer is the chain indexer the wallet reads state from and broadcasts to.
// *chronik.Client implements it.
type Indexer interface {
	ScriptUtxos(ctx context.Context, script []byte) ([]types.Utxo, error)
	TokenUtxos(ctx context.Context, tokenID chainhash.Hash) ([]types.Utxo, error)
	Token(ctx context.Context, tokenID chainhash.Hash) (*types.TokenMeta, error)
	Tx(ctx context.Context, txid chainhash.Hash) (*types.Tx, error)
	Broadcast(ctx context.Context, rawTx []byte) (chainhash.Hash, error)
}

// Config holds optional wallet settings.
type Config struct {
	// Tokens caches immutable token genesis data. Nil disables caching.
	Tokens *token.Store
}

// Wallet assembles and broadcasts transactions for a single key.
//
// State-changing operations are serialised: two sends on the same Wallet
// never select the same UTXOs. Reads take no lock and always fetch a fresh
// snapshot from the indexer.
type Wallet struct {
	mu sync.Mutex

	keys       *KeyMaterial
	indexer    Indexer
	tokens     *token.Store
	commission types.Address
	logger     zerolog.Logger
}

// New creates a wallet for keys backed by indexer.
func New(keys *KeyMaterial, indexer Indexer, cfg Config) (*Wallet, error) {
	if keys == nil || indexer == nil {
		return nil, fmt.Errorf("wallet: keys and indexer are required")
	}
	pkh, err := commissionHash()
	if err != nil {
		return nil, err
	}

	initPrometheusMetrics()

	addr := keys.Address()
	return &Wallet{
		keys:       keys,
		indexer:    indexer,
		tokens:     cfg.Tokens,
		commission: types.NewP2PKHAddress(addr.Prefix, pkh),
		logger:     log.Wallet.With().Str("address", addr.String()).Logger(),
	}, nil
}

// commissionHash decodes CommissionAddress. The same hash is paid on every
// network; only the address prefix differs.
func commissionHash() ([20]byte, error) {
	a, err := types.ParseAddress(CommissionAddress, types.MainnetPrefix)
	if err != nil {
		return [20]byte{}, fmt.Errorf("commission address: %w", err)
	}
	return a.Hash, nil
}

// Address returns the wallet's receiving address.
func (w *Wallet) Address() types.Address {
	return w.keys.Address()
}

// Keys returns the wallet key material.
func (w *Wallet) Keys() *KeyMaterial {
	return w.keys
}

// parseAddress decodes a destination under the wallet's prefix.
func (w *Wallet) parseAddress(s string) (types.Address, error) {
	return types.ParseAddress(s, w.keys.Address().Prefix)
}
