package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/internal/token"
	"github.com/Klingon-tech/xecwallet/pkg/tx"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// output is a fixed-value transaction output.
type output struct {
	value  uint64
	script []byte
}

// draft is a transaction before its value-only inputs are chosen. Leading
// inputs are spent first, in order; outputs are followed by the leftover
// output paying back to the wallet.
type draft struct {
	op      string
	leading []types.Utxo
	outputs []output
	// tokenScript is the eMPP output carrying token sections, nil for
	// transactions that move no tokens.
	tokenScript []byte
}

func (d *draft) addOutput(value uint64, script []byte) {
	d.outputs = append(d.outputs, output{value: value, script: script})
}

// fund selects value-only inputs for d, signs, checks token conservation
// and broadcasts. The fee estimate starts at FlatFeeEstimate and is
// recomputed from the signed size of each candidate selection.
//
// Leading token and baton inputs never fund a transaction alone: when d has
// any, at least one value-only coin is spent and the leftover must reach
// DustLimit.
func (w *Wallet) fund(ctx context.Context, d *draft, pure []types.Utxo) (chainhash.Hash, error) {
	var txid chainhash.Hash

	var outTotal, leadTotal uint64
	for _, o := range d.outputs {
		if outTotal > math.MaxUint64-o.value {
			return txid, fmt.Errorf("%w: output total overflows", ErrInvalidAmount)
		}
		outTotal += o.value
	}
	for _, u := range d.leading {
		leadTotal += u.Value
	}
	var reserve uint64
	if len(d.leading) > 0 {
		reserve = DustLimit
	}

	scripts := make([][]byte, 0, len(d.outputs)+1)
	for _, o := range d.outputs {
		scripts = append(scripts, o.script)
	}
	scripts = append(scripts, w.keys.Script())

	fee := FlatFeeEstimate
	var inputs []types.Utxo
	for attempt := 0; ; attempt++ {
		need := outTotal + fee + reserve
		inputs = append([]types.Utxo(nil), d.leading...)
		selected := uint64(0)
		if need > leadTotal || reserve > 0 {
			target := uint64(1)
			if need > leadTotal {
				target = need - leadTotal
			}
			sel, err := SelectCoins(pure, target)
			if err != nil {
				return txid, err
			}
			inputs = append(inputs, sel.Inputs...)
			selected = sel.Total
		}

		exact := tx.EstimateTxFee(len(inputs), scripts, FeePerKb)
		if leadTotal+selected >= outTotal+exact+reserve {
			break
		}
		if attempt > len(pure) {
			return txid, fmt.Errorf("%w: fee estimate did not converge", ErrInsufficientFunds)
		}
		fee = exact
	}

	if err := token.ValidateScript(inputs, d.tokenScript); err != nil {
		return txid, fmt.Errorf("%s: %w", d.op, err)
	}

	b := tx.NewBuilder().AddInputs(inputs)
	for _, o := range d.outputs {
		b.AddOutput(o.value, o.script)
	}
	b.AddLeftover(w.keys.Script())

	signed, err := b.Sign(w.keys.Signer(), FeePerKb, DustLimit)
	if err != nil {
		return txid, fmt.Errorf("%s: sign: %w", d.op, err)
	}
	if err := tx.Validate(signed.Tx, DustLimit); err != nil {
		return txid, fmt.Errorf("%s: %w", d.op, err)
	}

	return w.broadcast(ctx, d.op, signed)
}

func (w *Wallet) broadcast(ctx context.Context, op string, signed *tx.SignedTx) (chainhash.Hash, error) {
	start := time.Now()
	txid, err := w.indexer.Broadcast(ctx, signed.Raw)
	if err != nil {
		prometheusBroadcastErrors.WithLabelValues(op).Inc()
		if errors.Is(err, ErrBroadcastRejected) {
			w.logger.Warn().Err(err).Str("op", op).Msg("Transaction rejected")
		}
		return txid, fmt.Errorf("%s: broadcast: %w", op, err)
	}
	prometheusBroadcasts.WithLabelValues(op).Inc()

	w.logger.Info().
		Str("op", op).
		Str("txid", txid.String()).
		Int("inputs", len(signed.Tx.TxIn)).
		Int("outputs", len(signed.Tx.TxOut)).
		Uint64("fee", signed.Fee).
		Dur("took", time.Since(start)).
		Msg("Transaction broadcast")
	return txid, nil
}

// checkMessage validates an optional OP_RETURN message. An empty message
// means no message output.
func checkMessage(msg string) error {
	if len(msg) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrMessageTooLarge, len(msg), MaxMessageSize)
	}
	return nil
}

// messageScript builds OP_RETURN <msg>.
func messageScript(msg string) ([]byte, error) {
	return tx.OpReturnScript([]byte(msg))
}
