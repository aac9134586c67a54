// Package alp encodes and decodes ALP token sections and the eMPP
// OP_RETURN envelope that carries them.
package alp

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// LokadID prefixes every ALP section.
var LokadID = []byte("SLP2")

// StandardType is the ALP token type for standard fungible tokens.
const StandardType byte = 0

// MaxAtoms is the largest amount representable in a section (48 bits).
const MaxAtoms uint64 = 1<<48 - 1

// atomsSize is the width of an encoded amount.
const atomsSize = 6

// Section kinds.
const (
	TxTypeGenesis = "GENESIS"
	TxTypeMint    = "MINT"
	TxTypeSend    = "SEND"
	TxTypeBurn    = "BURN"
)

// ErrAtomsOutOfRange is returned for amounts above MaxAtoms.
var ErrAtomsOutOfRange = errors.New("atoms out of range")

// GenesisInfo is the metadata committed to by a GENESIS section.
type GenesisInfo struct {
	Ticker     string
	Name       string
	URL        string
	Data       []byte
	AuthPubkey []byte
	Decimals   uint8
}

// MintData lists the amounts minted to consecutive outputs starting at
// output 1, followed by NumBatons mint batons.
type MintData struct {
	Atoms     []uint64
	NumBatons uint8
}

// Genesis encodes a GENESIS section.
//
//	lokad | type | "GENESIS" | ticker | name | url | data | authPubkey | decimals | mintData
func Genesis(tokenType byte, info GenesisInfo, mint MintData) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, tokenType, TxTypeGenesis)
	for _, field := range [][]byte{
		[]byte(info.Ticker),
		[]byte(info.Name),
		[]byte(info.URL),
		info.Data,
		info.AuthPubkey,
	} {
		if err := wire.WriteVarBytes(&buf, 0, field); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(info.Decimals)
	if err := writeMintData(&buf, mint); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Mint encodes a MINT section.
//
//	lokad | type | "MINT" | tokenId | mintData
func Mint(tokenID chainhash.Hash, tokenType byte, mint MintData) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, tokenType, TxTypeMint)
	buf.Write(tokenID[:])
	if err := writeMintData(&buf, mint); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Send encodes a SEND section assigning atoms to outputs 1..len(atoms).
//
//	lokad | type | "SEND" | tokenId | count | atoms...
func Send(tokenID chainhash.Hash, tokenType byte, atoms []uint64) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, tokenType, TxTypeSend)
	buf.Write(tokenID[:])
	if err := writeAtomsList(&buf, atoms); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Burn encodes a BURN section for an intentional burn of atoms.
//
//	lokad | type | "BURN" | tokenId | atoms
func Burn(tokenID chainhash.Hash, tokenType byte, atoms uint64) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, tokenType, TxTypeBurn)
	buf.Write(tokenID[:])
	if err := writeAtoms(&buf, atoms); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, tokenType byte, txType string) {
	buf.Write(LokadID)
	buf.WriteByte(tokenType)
	// The kind is short, so WriteVarBytes cannot fail on a bytes.Buffer.
	_ = wire.WriteVarBytes(buf, 0, []byte(txType))
}

func writeMintData(buf *bytes.Buffer, mint MintData) error {
	if err := writeAtomsList(buf, mint.Atoms); err != nil {
		return err
	}
	buf.WriteByte(mint.NumBatons)
	return nil
}

func writeAtomsList(buf *bytes.Buffer, atoms []uint64) error {
	if err := wire.WriteVarInt(buf, 0, uint64(len(atoms))); err != nil {
		return err
	}
	for _, a := range atoms {
		if err := writeAtoms(buf, a); err != nil {
			return err
		}
	}
	return nil
}

func writeAtoms(buf *bytes.Buffer, atoms uint64) error {
	if atoms > MaxAtoms {
		return fmt.Errorf("%w: %d", ErrAtomsOutOfRange, atoms)
	}
	var b [atomsSize]byte
	for i := range b {
		b[i] = byte(atoms >> (8 * i))
	}
	buf.Write(b[:])
	return nil
}
