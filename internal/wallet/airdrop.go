package wallet

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// AirdropMode selects how the pool is split between holders.
type AirdropMode int

const (
	// Proportional pays each holder floor(pool * atoms / totalSupply).
	Proportional AirdropMode = iota
	// Equal pays every holder floor(pool / holders).
	Equal
)

// String returns the mode name.
func (m AirdropMode) String() string {
	switch m {
	case Proportional:
		return "proportional"
	case Equal:
		return "equal"
	default:
		return "unknown"
	}
}

// ParseAirdropMode parses "proportional" or "equal".
func ParseAirdropMode(s string) (AirdropMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "proportional", "":
		return Proportional, nil
	case "equal":
		return Equal, nil
	default:
		return 0, fmt.Errorf("unknown airdrop mode %q", s)
	}
}

// Holder is a token holder and its non-baton atoms.
type Holder struct {
	Address types.Address
	Atoms   uint64
}

// HolderSet is the result of a holder scan.
type HolderSet struct {
	Holders []Holder
	// TotalSupply sums the atoms of every scanned holder, including a
	// creator that was excluded from Holders.
	TotalSupply uint64
}

// Payout is one airdrop output.
type Payout struct {
	Address types.Address
	Value   uint64
}

// AirdropPlan is a computed distribution. It is never persisted.
type AirdropPlan struct {
	Mode        AirdropMode
	Holders     []Holder
	TotalSupply uint64
	Pool        uint64
	Recipients  []Payout
	Distributed uint64
}

// AirdropRequest describes an airdrop to execute.
type AirdropRequest struct {
	TokenID chainhash.Hash
	// Pool is the amount of XEC to distribute, e.g. "1000".
	Pool          string
	Mode          AirdropMode
	IgnoreCreator bool
	// MinEligible is the minimum token balance, in display units, a holder
	// needs to receive anything. Empty means no minimum.
	MinEligible string
	Decimals    uint32
	Message     string
}

// AirdropResult summarises a broadcast airdrop.
type AirdropResult struct {
	TxID            chainhash.Hash
	HoldersCount    int
	RecipientsCount int
	Distributed     uint64
	Mode            AirdropMode
}

// CalculateAirdropHolders scans every UTXO of a token and returns the
// holders with at least minEligible tokens. It broadcasts nothing.
func (w *Wallet) CalculateAirdropHolders(ctx context.Context, tokenID chainhash.Hash, minEligible string, ignoreCreator bool, decimals uint32) (*HolderSet, error) {
	minAtoms, err := parseMinEligible(minEligible, decimals)
	if err != nil {
		return nil, err
	}
	utxos, err := w.indexer.TokenUtxos(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	var creator *types.Address
	if ignoreCreator {
		a := w.keys.Address()
		creator = &a
	}
	return scanHolders(utxos, tokenID, w.keys.Address().Prefix, creator, minAtoms)
}

func parseMinEligible(s string, decimals uint32) (uint64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParseAmount(s, decimals)
}

// scanHolders builds the holder list in first-seen order. Batons and
// outputs not paying to P2PKH are skipped. The creator, when given, still
// counts toward TotalSupply.
func scanHolders(utxos []types.Utxo, tokenID chainhash.Hash, prefix string, creator *types.Address, minAtoms uint64) (*HolderSet, error) {
	set := &HolderSet{Holders: []Holder{}}
	index := make(map[[20]byte]int)
	var holders []Holder
	for _, u := range utxos {
		if !u.HoldsToken(tokenID) {
			continue
		}
		pkh, ok := types.ExtractPKH(u.Script)
		if !ok {
			continue
		}
		if set.TotalSupply > math.MaxUint64-u.Token.Atoms {
			return nil, fmt.Errorf("token %s: supply overflow", tokenID)
		}
		set.TotalSupply += u.Token.Atoms

		i, seen := index[pkh]
		if !seen {
			i = len(holders)
			index[pkh] = i
			holders = append(holders, Holder{Address: types.NewP2PKHAddress(prefix, pkh)})
		}
		holders[i].Atoms += u.Token.Atoms
	}

	for _, h := range holders {
		if creator != nil && h.Address.Hash == creator.Hash {
			continue
		}
		if h.Atoms < minAtoms {
			continue
		}
		set.Holders = append(set.Holders, h)
	}
	return set, nil
}

// PlanAirdrop splits pool sats between holders. Proportional shares below
// the dust limit are dropped; an equal share below the dust limit fails the
// whole plan.
func PlanAirdrop(holders []Holder, totalSupply, pool uint64, mode AirdropMode) (*AirdropPlan, error) {
	if len(holders) == 0 {
		return nil, ErrNoHolders
	}
	plan := &AirdropPlan{
		Mode:        mode,
		Holders:     holders,
		TotalSupply: totalSupply,
		Pool:        pool,
		Recipients:  []Payout{},
	}

	switch mode {
	case Proportional:
		if totalSupply == 0 {
			return nil, fmt.Errorf("%w: zero total supply", ErrNoHolders)
		}
		p := new(big.Int).SetUint64(pool)
		s := new(big.Int).SetUint64(totalSupply)
		for _, h := range holders {
			share := new(big.Int).SetUint64(h.Atoms)
			share.Mul(share, p).Quo(share, s)
			if !share.IsUint64() || share.Uint64() < DustLimit {
				continue
			}
			plan.Recipients = append(plan.Recipients, Payout{Address: h.Address, Value: share.Uint64()})
			plan.Distributed += share.Uint64()
		}
		if len(plan.Recipients) == 0 {
			return nil, fmt.Errorf("%w: every proportional share is below %d sats", ErrAmountTooSmall, DustLimit)
		}
	case Equal:
		share := pool / uint64(len(holders))
		if share < DustLimit {
			return nil, fmt.Errorf("%w: %d sats per holder, need at least %d sats in the pool",
				ErrAmountTooSmall, share, DustLimit*uint64(len(holders)))
		}
		for _, h := range holders {
			plan.Recipients = append(plan.Recipients, Payout{Address: h.Address, Value: share})
		}
		plan.Distributed = share * uint64(len(holders))
	default:
		return nil, fmt.Errorf("unknown airdrop mode %d", mode)
	}
	return plan, nil
}

// Airdrop distributes XEC to the holders of a token in a single
// transaction. No commission is charged.
func (w *Wallet) Airdrop(ctx context.Context, req AirdropRequest) (*AirdropResult, error) {
	pool, err := ParseAmount(req.Pool, XECDecimals)
	if err != nil {
		return nil, err
	}
	message := strings.TrimSpace(req.Message)
	if err := checkMessage(message); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	set, err := w.CalculateAirdropHolders(ctx, req.TokenID, req.MinEligible, req.IgnoreCreator, req.Decimals)
	if err != nil {
		return nil, err
	}
	plan, err := PlanAirdrop(set.Holders, set.TotalSupply, pool, req.Mode)
	if err != nil {
		return nil, err
	}

	snap, err := w.Balance(ctx)
	if err != nil {
		return nil, err
	}

	d := &draft{op: "airdrop"}
	if message != "" {
		script, err := messageScript(message)
		if err != nil {
			return nil, err
		}
		d.addOutput(0, script)
	}
	for _, r := range plan.Recipients {
		d.addOutput(r.Value, r.Address.Script())
	}
	txid, err := w.fund(ctx, d, snap.PureValue)
	if err != nil {
		return nil, err
	}

	w.logger.Info().
		Str("token", req.TokenID.String()).
		Str("mode", plan.Mode.String()).
		Int("holders", len(plan.Holders)).
		Int("recipients", len(plan.Recipients)).
		Uint64("distributed", plan.Distributed).
		Msg("Airdrop sent")

	return &AirdropResult{
		TxID:            txid,
		HoldersCount:    len(plan.Holders),
		RecipientsCount: len(plan.Recipients),
		Distributed:     plan.Distributed,
		Mode:            plan.Mode,
	}, nil
}
