package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SendXec sends amount (in XEC, e.g. "15.5") to the address to. A fixed
// commission output is added after the destination.
func (w *Wallet) SendXec(ctx context.Context, to, amount string) (chainhash.Hash, error) {
	var txid chainhash.Hash

	dest, err := w.parseAddress(to)
	if err != nil {
		return txid, err
	}
	sats, err := ParseAmount(amount, XECDecimals)
	if err != nil {
		return txid, err
	}
	if sats < DustLimit {
		return txid, fmt.Errorf("%w: %d sats, min %d", ErrAmountTooSmall, sats, DustLimit)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.Balance(ctx)
	if err != nil {
		return txid, err
	}

	d := &draft{op: "send"}
	d.addOutput(sats, dest.Script())
	d.addOutput(CommissionValue, w.commission.Script())
	return w.fund(ctx, d, snap.PureValue)
}

// SendMessage broadcasts a transaction carrying msg in an OP_RETURN output.
func (w *Wallet) SendMessage(ctx context.Context, msg string) (chainhash.Hash, error) {
	var txid chainhash.Hash
	if len(msg) == 0 {
		return txid, ErrEmptyMessage
	}
	if err := checkMessage(msg); err != nil {
		return txid, err
	}
	script, err := messageScript(msg)
	if err != nil {
		return txid, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.Balance(ctx)
	if err != nil {
		return txid, err
	}

	d := &draft{op: "message"}
	d.addOutput(0, script)
	return w.fund(ctx, d, snap.PureValue)
}
