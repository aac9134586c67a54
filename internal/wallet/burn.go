package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/pkg/alp"
)

// BurnToken destroys amount of a token. Atoms of the spent inputs beyond
// amount are sent back to the wallet in the same transaction.
func (w *Wallet) BurnToken(ctx context.Context, tokenID chainhash.Hash, amount string, decimals uint32) (chainhash.Hash, error) {
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
	bal, err := tokenBalanceOf(snap.TokenBearing, tokenID)
	if err != nil {
		return txid, err
	}
	if bal.Atoms < atoms {
		return txid, fmt.Errorf("%w: have %d atoms, burn %d", ErrInsufficientTokens, bal.Atoms, atoms)
	}
	if len(snap.PureValue) == 0 {
		return txid, fmt.Errorf("%w: no XEC to pay the fee", ErrNoUTXOs)
	}
	inputs, inAtoms, err := selectTokenInputs(bal.Utxos, tokenID, atoms)
	if err != nil {
		return txid, err
	}
	change := inAtoms - atoms

	sections := make([][]byte, 0, 2)
	burn, err := alp.Burn(tokenID, alp.StandardType, atoms)
	if err != nil {
		return txid, err
	}
	sections = append(sections, burn)
	if change > 0 {
		send, err := alp.Send(tokenID, alp.StandardType, []uint64{change})
		if err != nil {
			return txid, err
		}
		sections = append(sections, send)
	}
	opReturn, err := alp.EmppScript(sections...)
	if err != nil {
		return txid, err
	}

	d := &draft{op: "burn", leading: inputs, tokenScript: opReturn}
	d.addOutput(0, opReturn)
	if change > 0 {
		d.addOutput(DustLimit, w.keys.Script())
	}
	return w.fund(ctx, d, snap.PureValue)
}
