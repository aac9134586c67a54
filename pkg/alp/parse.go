package alp

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ErrNotALP is returned for sections without the ALP LOKAD prefix.
var ErrNotALP = errors.New("not an ALP section")

// Section is a decoded ALP section. Fields not used by TxType are zero.
type Section struct {
	TokenType byte
	TxType    string
	TokenID   chainhash.Hash
	Genesis   *GenesisInfo
	Mint      *MintData
	// Atoms holds SEND amounts, or a single BURN amount.
	Atoms []uint64
}

// ParseSection decodes a single ALP section.
func ParseSection(data []byte) (*Section, error) {
	if !bytes.HasPrefix(data, LokadID) {
		return nil, ErrNotALP
	}
	r := bytes.NewReader(data[len(LokadID):])

	tokenType, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("alp: token type: %w", err)
	}
	kind, err := wire.ReadVarBytes(r, 0, 16, "tx type")
	if err != nil {
		return nil, fmt.Errorf("alp: tx type: %w", err)
	}
	s := &Section{TokenType: tokenType, TxType: string(kind)}

	switch s.TxType {
	case TxTypeGenesis:
		info := &GenesisInfo{}
		fields := []*[]byte{new([]byte), new([]byte), new([]byte), &info.Data, &info.AuthPubkey}
		for _, f := range fields {
			b, err := wire.ReadVarBytes(r, 0, uint32(len(data)), "genesis field")
			if err != nil {
				return nil, fmt.Errorf("alp: genesis: %w", err)
			}
			*f = b
		}
		info.Ticker, info.Name, info.URL = string(*fields[0]), string(*fields[1]), string(*fields[2])
		if info.Decimals, err = r.ReadByte(); err != nil {
			return nil, fmt.Errorf("alp: decimals: %w", err)
		}
		s.Genesis = info
		if s.Mint, err = readMintData(r); err != nil {
			return nil, err
		}
	case TxTypeMint:
		if err := readTokenID(r, &s.TokenID); err != nil {
			return nil, err
		}
		if s.Mint, err = readMintData(r); err != nil {
			return nil, err
		}
	case TxTypeSend:
		if err := readTokenID(r, &s.TokenID); err != nil {
			return nil, err
		}
		if s.Atoms, err = readAtomsList(r); err != nil {
			return nil, err
		}
	case TxTypeBurn:
		if err := readTokenID(r, &s.TokenID); err != nil {
			return nil, err
		}
		a, err := readAtoms(r)
		if err != nil {
			return nil, err
		}
		s.Atoms = []uint64{a}
	default:
		return nil, fmt.Errorf("alp: unknown tx type %q", s.TxType)
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("alp: %d trailing bytes", r.Len())
	}
	return s, nil
}

func readTokenID(r io.Reader, id *chainhash.Hash) error {
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return fmt.Errorf("alp: token id: %w", err)
	}
	return nil
}

func readMintData(r *bytes.Reader) (*MintData, error) {
	atoms, err := readAtomsList(r)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("alp: num batons: %w", err)
	}
	return &MintData{Atoms: atoms, NumBatons: n}, nil
}

func readAtomsList(r io.Reader) ([]uint64, error) {
	n, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, fmt.Errorf("alp: atoms count: %w", err)
	}
	if n > 127 {
		return nil, fmt.Errorf("alp: too many amounts: %d", n)
	}
	atoms := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		a, err := readAtoms(r)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, a)
	}
	return atoms, nil
}

func readAtoms(r io.Reader) (uint64, error) {
	var b [atomsSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("alp: atoms: %w", err)
	}
	var v uint64
	for i := atomsSize - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}
