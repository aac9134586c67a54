package alp

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func testTokenID() chainhash.Hash {
	var id chainhash.Hash
	for i := range id {
		id[i] = 0x11
	}
	return id
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	return b
}

func TestSend_Encoding(t *testing.T) {
	got, err := Send(testTokenID(), StandardType, []uint64{1000, 5})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := mustHex(t, "534c503200"+"0453454e44"+
		"1111111111111111111111111111111111111111111111111111111111111111"+
		"02"+"e80300000000"+"050000000000")
	if !bytes.Equal(got, want) {
		t.Errorf("Send =\n%x\nwant\n%x", got, want)
	}
}

func TestBurn_Encoding(t *testing.T) {
	got, err := Burn(testTokenID(), StandardType, 0x010203)
	if err != nil {
		t.Fatalf("Burn: %v", err)
	}
	want := mustHex(t, "534c503200"+"044255524e"+
		"1111111111111111111111111111111111111111111111111111111111111111"+
		"030201000000")
	if !bytes.Equal(got, want) {
		t.Errorf("Burn =\n%x\nwant\n%x", got, want)
	}
}

func TestGenesis_Encoding(t *testing.T) {
	got, err := Genesis(StandardType, GenesisInfo{Ticker: "TST", Name: "Test", Decimals: 2},
		MintData{Atoms: []uint64{100}, NumBatons: 1})
	if err != nil {
		t.Fatalf("Genesis: %v", err)
	}
	want := mustHex(t, "534c503200"+"0747454e45534953"+
		"03545354"+"0454657374"+"00"+"00"+"00"+"02"+
		"01"+"640000000000"+"01")
	if !bytes.Equal(got, want) {
		t.Errorf("Genesis =\n%x\nwant\n%x", got, want)
	}
}

func TestMint_Roundtrip(t *testing.T) {
	data, err := Mint(testTokenID(), StandardType, MintData{Atoms: []uint64{42}, NumBatons: 1})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	s, err := ParseSection(data)
	if err != nil {
		t.Fatalf("ParseSection: %v", err)
	}
	if s.TxType != TxTypeMint || s.TokenID != testTokenID() {
		t.Errorf("section = %+v", s)
	}
	if s.Mint == nil || len(s.Mint.Atoms) != 1 || s.Mint.Atoms[0] != 42 || s.Mint.NumBatons != 1 {
		t.Errorf("mint data = %+v", s.Mint)
	}
}

func TestParseSection_Genesis(t *testing.T) {
	info := GenesisInfo{
		Ticker:     "XYZ",
		Name:       "Xyz Token",
		URL:        "https://example.com",
		AuthPubkey: bytes.Repeat([]byte{0x02}, 33),
		Decimals:   4,
	}
	data, err := Genesis(StandardType, info, MintData{Atoms: []uint64{MaxAtoms}, NumBatons: 0})
	if err != nil {
		t.Fatalf("Genesis: %v", err)
	}
	s, err := ParseSection(data)
	if err != nil {
		t.Fatalf("ParseSection: %v", err)
	}
	g := s.Genesis
	if g.Ticker != info.Ticker || g.Name != info.Name || g.URL != info.URL || g.Decimals != 4 {
		t.Errorf("genesis = %+v", g)
	}
	if !bytes.Equal(g.AuthPubkey, info.AuthPubkey) {
		t.Errorf("auth pubkey = %x", g.AuthPubkey)
	}
	if s.Mint.Atoms[0] != MaxAtoms || s.Mint.NumBatons != 0 {
		t.Errorf("mint = %+v", s.Mint)
	}
}

func TestAtomsOutOfRange(t *testing.T) {
	if _, err := Send(testTokenID(), StandardType, []uint64{MaxAtoms + 1}); !errors.Is(err, ErrAtomsOutOfRange) {
		t.Errorf("Send error = %v, want ErrAtomsOutOfRange", err)
	}
	if _, err := Burn(testTokenID(), StandardType, MaxAtoms+1); !errors.Is(err, ErrAtomsOutOfRange) {
		t.Errorf("Burn error = %v, want ErrAtomsOutOfRange", err)
	}
}

func TestParseSection_Invalid(t *testing.T) {
	send, _ := Send(testTokenID(), StandardType, []uint64{1})
	tests := []struct {
		name string
		data []byte
	}{
		{"no lokad", []byte("SLP1xxxx")},
		{"truncated", send[:len(send)-2]},
		{"trailing", append(append([]byte{}, send...), 0x00)},
		{"unknown type", append([]byte("SLP2\x00\x04"), []byte("NOPE")...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSection(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEmppScript(t *testing.T) {
	burn, _ := Burn(testTokenID(), StandardType, 7)
	send, _ := Send(testTokenID(), StandardType, []uint64{3})

	script, err := EmppScript(burn, send)
	if err != nil {
		t.Fatalf("EmppScript: %v", err)
	}
	if script[0] != 0x6a || script[1] != 0x50 {
		t.Fatalf("prefix = %x, want 6a50", script[:2])
	}
	// First push: direct length byte (section < 76 bytes).
	if int(script[2]) != len(burn) {
		t.Errorf("first push len = %d, want %d", script[2], len(burn))
	}

	sections, err := ParseEmpp(script)
	if err != nil {
		t.Fatalf("ParseEmpp: %v", err)
	}
	if len(sections) != 2 || !bytes.Equal(sections[0], burn) || !bytes.Equal(sections[1], send) {
		t.Errorf("sections = %x", sections)
	}

	if _, err := EmppScript(); err == nil {
		t.Error("EmppScript() with no sections should fail")
	}
	if _, err := ParseEmpp([]byte{0x6a, 0x04, 't', 'e', 's', 't'}); !errors.Is(err, ErrNotEmpp) {
		t.Errorf("ParseEmpp(plain op_return) error = %v", err)
	}
}

func TestEmppScript_LongSection(t *testing.T) {
	atoms := make([]uint64, 15)
	for i := range atoms {
		atoms[i] = uint64(i + 1)
	}
	send, err := Send(testTokenID(), StandardType, atoms)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	script, err := EmppScript(send)
	if err != nil {
		t.Fatalf("EmppScript: %v", err)
	}
	// 5 + 5 + 32 + 1 + 90 = 133 bytes needs OP_PUSHDATA1.
	if script[2] != 0x4c || int(script[3]) != len(send) {
		t.Errorf("push prefix = %x", script[2:4])
	}
	s, err := ParseSection(send)
	if err != nil {
		t.Fatalf("ParseSection: %v", err)
	}
	if len(s.Atoms) != 15 || s.Atoms[14] != 15 {
		t.Errorf("atoms = %v", s.Atoms)
	}
}
