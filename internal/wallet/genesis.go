package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/pkg/alp"
)

// MaxOpReturnSize is the largest OP_RETURN script relayed by default.
const MaxOpReturnSize = 223

// GenesisParams describes a new token.
type GenesisParams struct {
	Ticker   string
	Name     string
	URL      string
	Decimals uint32
	// Quantity is the initial supply in display units. It may be zero for
	// variable-supply tokens.
	Quantity string
	// FixedSupply omits the mint baton, so no more tokens can ever be minted.
	FixedSupply bool
}

// GenesisResult is returned by CreateToken. The token id is the genesis txid.
type GenesisResult struct {
	TokenID chainhash.Hash
	Ticker  string
}

// CreateToken issues a new ALP token. The initial supply and, for variable
// supply tokens, the mint baton are paid to the wallet.
func (w *Wallet) CreateToken(ctx context.Context, p GenesisParams) (*GenesisResult, error) {
	if p.Decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: decimals %d, max %d", ErrInvalidToken, p.Decimals, MaxDecimals)
	}
	qty := uint64(0)
	if p.Quantity != "" {
		var err error
		if qty, err = ParseAmount(p.Quantity, p.Decimals); err != nil {
			return nil, err
		}
	}
	if qty > alp.MaxAtoms {
		return nil, fmt.Errorf("%w: quantity %d exceeds %d", ErrInvalidAmount, qty, alp.MaxAtoms)
	}
	if qty == 0 && p.FixedSupply {
		return nil, fmt.Errorf("%w: fixed supply token needs a quantity", ErrInvalidToken)
	}

	info := alp.GenesisInfo{
		Ticker:   p.Ticker,
		Name:     p.Name,
		URL:      p.URL,
		Decimals: uint8(p.Decimals),
	}
	mint := alp.MintData{}
	if qty > 0 {
		mint.Atoms = []uint64{qty}
	}
	if !p.FixedSupply {
		info.AuthPubkey = w.keys.PublicKey()
		mint.NumBatons = 1
	}
	section, err := alp.Genesis(alp.StandardType, info, mint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	opReturn, err := alp.EmppScript(section)
	if err != nil {
		return nil, err
	}
	if len(opReturn) > MaxOpReturnSize {
		return nil, fmt.Errorf("%w: genesis script is %d bytes, max %d", ErrInvalidToken, len(opReturn), MaxOpReturnSize)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.Balance(ctx)
	if err != nil {
		return nil, err
	}

	d := &draft{op: "genesis", tokenScript: opReturn}
	d.addOutput(0, opReturn)
	if qty > 0 {
		d.addOutput(DustLimit, w.keys.Script())
	}
	if !p.FixedSupply {
		d.addOutput(DustLimit, w.keys.Script())
	}
	txid, err := w.fund(ctx, d, snap.PureValue)
	if err != nil {
		return nil, err
	}
	return &GenesisResult{TokenID: txid, Ticker: p.Ticker}, nil
}
