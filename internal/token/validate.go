package token

import (
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/pkg/alp"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// Token validation errors.
var (
	ErrTokenConservation   = errors.New("token conservation violated")
	ErrMissingBaton        = errors.New("mint without a mint baton input")
	ErrBatonBurned         = errors.New("mint baton spent without a mint section")
	ErrTokenAmountTooLarge = errors.New("token amount exceeds maximum")
)

// ValidateScript checks the token rules of a transaction whose token
// sections are carried by the eMPP script opReturn. A nil opReturn means
// the transaction carries no token sections.
func ValidateScript(inputs []types.Utxo, opReturn []byte) error {
	if opReturn == nil {
		return ValidateTokens(inputs, nil)
	}
	raw, err := alp.ParseEmpp(opReturn)
	if err != nil {
		return err
	}
	sections := make([]*alp.Section, 0, len(raw))
	for i, r := range raw {
		s, err := alp.ParseSection(r)
		if err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		sections = append(sections, s)
	}
	return ValidateTokens(inputs, sections)
}

// ValidateTokens checks that no tokens are destroyed by accident:
//   - for each token spent or sent: input atoms == sent atoms + intentionally burned atoms
//   - a MINT section spends a mint baton of the same token
//   - a mint baton is only spent by a MINT section
func ValidateTokens(inputs []types.Utxo, sections []*alp.Section) error {
	inputTotals := make(map[chainhash.Hash]uint64)
	batons := make(map[chainhash.Hash]bool)
	for _, in := range inputs {
		if in.Token == nil {
			continue
		}
		id := in.Token.TokenID
		if in.Token.IsMintBaton {
			batons[id] = true
			continue
		}
		current := inputTotals[id]
		if current > math.MaxUint64-in.Token.Atoms {
			return fmt.Errorf("token %s: %w: input overflow", id, ErrTokenAmountTooLarge)
		}
		inputTotals[id] = current + in.Token.Atoms
	}

	outputTotals := make(map[chainhash.Hash]uint64)
	minted := make(map[chainhash.Hash]bool)
	for _, s := range sections {
		switch s.TxType {
		case alp.TxTypeSend, alp.TxTypeBurn:
			for _, a := range s.Atoms {
				current := outputTotals[s.TokenID]
				if current > math.MaxUint64-a {
					return fmt.Errorf("token %s: %w: output overflow", s.TokenID, ErrTokenAmountTooLarge)
				}
				outputTotals[s.TokenID] = current + a
			}
		case alp.TxTypeMint:
			if !batons[s.TokenID] {
				return fmt.Errorf("token %s: %w", s.TokenID, ErrMissingBaton)
			}
			minted[s.TokenID] = true
		}
	}

	for id := range batons {
		if !minted[id] {
			return fmt.Errorf("token %s: %w", id, ErrBatonBurned)
		}
	}

	ids := make(map[chainhash.Hash]bool)
	for id := range inputTotals {
		ids[id] = true
	}
	for id := range outputTotals {
		ids[id] = true
	}
	for id := range ids {
		if inputTotals[id] != outputTotals[id] {
			return fmt.Errorf("token %s: %w: input=%d output+burn=%d",
				id, ErrTokenConservation, inputTotals[id], outputTotals[id])
		}
	}
	return nil
}
