package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/pkg/alp"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// MintToken mints amount of a token the wallet holds the mint baton for.
// The minted atoms and a new baton are both paid to the wallet.
func (w *Wallet) MintToken(ctx context.Context, tokenID chainhash.Hash, amount string, decimals uint32) (chainhash.Hash, error) {
	var txid chainhash.Hash
	atoms, err := parseAtoms(amount, decimals)
	if err != nil {
		return txid, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.Balance(ctx)
	if err != nil {
		return txid, err
	}
	var baton *types.Utxo
	for _, b := range mintBatonsOf(snap.TokenBearing) {
		if b.TokenID == tokenID {
			u := b.Utxo
			baton = &u
			break
		}
	}
	if baton == nil {
		return txid, fmt.Errorf("%w: %s", ErrMissingMintAuthority, tokenID)
	}

	section, err := alp.Mint(tokenID, alp.StandardType, alp.MintData{Atoms: []uint64{atoms}, NumBatons: 1})
	if err != nil {
		return txid, err
	}
	opReturn, err := alp.EmppScript(section)
	if err != nil {
		return txid, err
	}

	d := &draft{op: "mint", leading: []types.Utxo{*baton}, tokenScript: opReturn}
	d.addOutput(0, opReturn)
	d.addOutput(DustLimit, w.keys.Script())
	d.addOutput(DustLimit, w.keys.Script())
	return w.fund(ctx, d, snap.PureValue)
}
