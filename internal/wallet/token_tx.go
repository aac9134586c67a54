package wallet

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/pkg/alp"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// Recipient is one destination of SendTokenToMany. Amount is in display
// units of the token.
type Recipient struct {
	Address string
	Amount  string
}

// SendResult is returned by SendTokenToMany.
type SendResult struct {
	TxID            chainhash.Hash
	RecipientsCount int
}

type tokenPayee struct {
	addr  types.Address
	atoms uint64
}

// SendToken sends amount of a token to the address to. An optional message
// is attached as a separate OP_RETURN output.
func (w *Wallet) SendToken(ctx context.Context, tokenID chainhash.Hash, to, amount string, decimals uint32, message string) (chainhash.Hash, error) {
	res, err := w.SendTokenToMany(ctx, tokenID, []Recipient{{Address: to, Amount: amount}}, decimals, message)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return res.TxID, nil
}

// SendTokenToMany sends a token to several recipients in one transaction.
func (w *Wallet) SendTokenToMany(ctx context.Context, tokenID chainhash.Hash, recipients []Recipient, decimals uint32, message string) (*SendResult, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients", ErrInvalidAmount)
	}
	payees := make([]tokenPayee, 0, len(recipients))
	var total uint64
	for i, r := range recipients {
		addr, err := w.parseAddress(r.Address)
		if err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i, err)
		}
		atoms, err := parseAtoms(r.Amount, decimals)
		if err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i, err)
		}
		if total > math.MaxUint64-atoms {
			return nil, fmt.Errorf("%w: total overflows", ErrInvalidAmount)
		}
		total += atoms
		payees = append(payees, tokenPayee{addr: addr, atoms: atoms})
	}
	message = strings.TrimSpace(message)
	if err := checkMessage(message); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.Balance(ctx)
	if err != nil {
		return nil, err
	}
	bal, err := tokenBalanceOf(snap.TokenBearing, tokenID)
	if err != nil {
		return nil, err
	}
	if bal.Atoms < total {
		return nil, fmt.Errorf("%w: have %d atoms, need %d", ErrInsufficientTokens, bal.Atoms, total)
	}
	inputs, inAtoms, err := selectTokenInputs(bal.Utxos, tokenID, total)
	if err != nil {
		return nil, err
	}
	change := inAtoms - total

	// Send amounts map to outputs 1..n. A message output sits at index 1
	// and is assigned zero atoms.
	var sendAtoms []uint64
	if message != "" {
		sendAtoms = append(sendAtoms, 0)
	}
	for _, p := range payees {
		sendAtoms = append(sendAtoms, p.atoms)
	}
	if change > 0 {
		sendAtoms = append(sendAtoms, change)
	}
	section, err := alp.Send(tokenID, alp.StandardType, sendAtoms)
	if err != nil {
		return nil, err
	}
	opReturn, err := alp.EmppScript(section)
	if err != nil {
		return nil, err
	}

	d := &draft{op: "token-send", leading: inputs, tokenScript: opReturn}
	d.addOutput(0, opReturn)
	if message != "" {
		script, err := messageScript(message)
		if err != nil {
			return nil, err
		}
		d.addOutput(0, script)
	}
	for _, p := range payees {
		d.addOutput(DustLimit, p.addr.Script())
	}
	if change > 0 {
		d.addOutput(DustLimit, w.keys.Script())
	}

	txid, err := w.fund(ctx, d, snap.PureValue)
	if err != nil {
		return nil, err
	}
	return &SendResult{TxID: txid, RecipientsCount: len(payees)}, nil
}

// parseAtoms parses a positive token amount that fits in an ALP atoms field.
func parseAtoms(amount string, decimals uint32) (uint64, error) {
	atoms, err := ParseAmount(amount, decimals)
	if err != nil {
		return 0, err
	}
	if atoms == 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if atoms > alp.MaxAtoms {
		return 0, fmt.Errorf("%w: %d atoms exceeds %d", ErrInvalidAmount, atoms, alp.MaxAtoms)
	}
	return atoms, nil
}
