package wallet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/pkg/alp"
	"github.com/Klingon-tech/xecwallet/pkg/tx"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

var testTokenID = chainhash.Hash{0xaa, 0x01}

// tokenWallet funds a wallet with two token UTXOs (100 and 50 atoms of
// testTokenID) followed by one value-only UTXO.
func tokenWallet(t *testing.T) (*Wallet, *fakeIndexer, []types.Utxo) {
	t.Helper()
	keys := testKeys(t)
	utxos := []types.Utxo{
		tokenUtxo(1, keys.Script(), testTokenID, 100, false),
		tokenUtxo(2, keys.Script(), testTokenID, 50, false),
	}
	utxos = append(utxos, walletUtxos(keys, 10000)...)
	idx := newFakeIndexer(utxos...)
	return newTestWallet(t, idx), idx, utxos
}

func parseSections(t *testing.T, script []byte) []*alp.Section {
	t.Helper()
	raw, err := alp.ParseEmpp(script)
	if err != nil {
		t.Fatalf("ParseEmpp: %v", err)
	}
	sections := make([]*alp.Section, len(raw))
	for i, r := range raw {
		if sections[i], err = alp.ParseSection(r); err != nil {
			t.Fatalf("ParseSection(%d): %v", i, err)
		}
	}
	return sections
}

func TestSendToken(t *testing.T) {
	w, idx, utxos := tokenWallet(t)
	dest := otherAddress(1)

	if _, err := w.SendToken(context.Background(), testTokenID, dest.String(), "30", 0, ""); err != nil {
		t.Fatalf("SendToken: %v", err)
	}
	msgTx := idx.lastTx(t)

	if msgTx.TxIn[0].PreviousOutPoint != *utxos[0].Outpoint.Wire() {
		t.Error("first input should be the token UTXO")
	}
	if len(msgTx.TxIn) != 2 {
		t.Fatalf("inputs = %d, want token UTXO plus one fee UTXO", len(msgTx.TxIn))
	}

	sections := parseSections(t, msgTx.TxOut[0].PkScript)
	if len(sections) != 1 || sections[0].TxType != alp.TxTypeSend {
		t.Fatalf("sections = %+v, want one SEND", sections)
	}
	if sections[0].TokenID != testTokenID {
		t.Errorf("token id = %s, want %s", sections[0].TokenID, testTokenID)
	}
	if got := fmt.Sprint(sections[0].Atoms); got != "[30 70]" {
		t.Errorf("atoms = %s, want [30 70]", got)
	}

	vals := outputValues(msgTx)
	if len(vals) != 4 || vals[0] != 0 || vals[1] != 546 || vals[2] != 546 {
		t.Fatalf("outputs = %v, want [0 546 546 change]", vals)
	}
	if !bytes.Equal(msgTx.TxOut[1].PkScript, dest.Script()) {
		t.Error("output 1 does not pay the recipient")
	}
	if !bytes.Equal(msgTx.TxOut[2].PkScript, w.Keys().Script()) {
		t.Error("output 2 does not return token change")
	}
	verifySigned(t, msgTx, utxos)
}

func TestSendToken_WithMessage(t *testing.T) {
	w, idx, _ := tokenWallet(t)

	if _, err := w.SendToken(context.Background(), testTokenID, otherAddress(1).String(), "30", 0, "  thanks  "); err != nil {
		t.Fatalf("SendToken: %v", err)
	}
	msgTx := idx.lastTx(t)

	sections := parseSections(t, msgTx.TxOut[0].PkScript)
	// The message output at index 1 is assigned zero atoms.
	if got := fmt.Sprint(sections[0].Atoms); got != "[0 30 70]" {
		t.Errorf("atoms = %s, want [0 30 70]", got)
	}
	want, _ := tx.OpReturnScript([]byte("thanks"))
	if msgTx.TxOut[1].Value != 0 || !bytes.Equal(msgTx.TxOut[1].PkScript, want) {
		t.Errorf("output 1 = %x, want message script %x", msgTx.TxOut[1].PkScript, want)
	}
	if msgTx.TxOut[2].Value != 546 || msgTx.TxOut[3].Value != 546 {
		t.Errorf("outputs = %v, want recipient and token change at 2 and 3", outputValues(msgTx))
	}
}

func TestSendToken_ExactAmountHasNoTokenChange(t *testing.T) {
	w, idx, _ := tokenWallet(t)

	if _, err := w.SendToken(context.Background(), testTokenID, otherAddress(1).String(), "150", 0, ""); err != nil {
		t.Fatalf("SendToken: %v", err)
	}
	msgTx := idx.lastTx(t)
	if len(msgTx.TxIn) != 3 {
		t.Errorf("inputs = %d, want both token UTXOs and one fee UTXO", len(msgTx.TxIn))
	}
	sections := parseSections(t, msgTx.TxOut[0].PkScript)
	if got := fmt.Sprint(sections[0].Atoms); got != "[150]" {
		t.Errorf("atoms = %s, want [150]", got)
	}
	if len(msgTx.TxOut) != 3 {
		t.Errorf("outputs = %v, want eMPP, recipient and XEC change", outputValues(msgTx))
	}
}

func TestSendToken_Decimals(t *testing.T) {
	w, idx, _ := tokenWallet(t)

	if _, err := w.SendToken(context.Background(), testTokenID, otherAddress(1).String(), "0.25", 2, ""); err != nil {
		t.Fatalf("SendToken: %v", err)
	}
	sections := parseSections(t, idx.lastTx(t).TxOut[0].PkScript)
	if got := fmt.Sprint(sections[0].Atoms); got != "[25 75]" {
		t.Errorf("atoms = %s, want [25 75]", got)
	}
}

func TestSendTokenToMany(t *testing.T) {
	w, idx, _ := tokenWallet(t)
	recipients := []Recipient{
		{Address: otherAddress(1).String(), Amount: "10"},
		{Address: otherAddress(2).String(), Amount: "20"},
		{Address: otherAddress(3).String(), Amount: "30"},
	}

	res, err := w.SendTokenToMany(context.Background(), testTokenID, recipients, 0, "")
	if err != nil {
		t.Fatalf("SendTokenToMany: %v", err)
	}
	if res.RecipientsCount != 3 {
		t.Errorf("RecipientsCount = %d, want 3", res.RecipientsCount)
	}
	msgTx := idx.lastTx(t)
	if res.TxID != msgTx.TxHash() {
		t.Errorf("TxID = %s, want %s", res.TxID, msgTx.TxHash())
	}
	sections := parseSections(t, msgTx.TxOut[0].PkScript)
	if got := fmt.Sprint(sections[0].Atoms); got != "[10 20 30 40]" {
		t.Errorf("atoms = %s, want [10 20 30 40]", got)
	}
	for i := 1; i <= 3; i++ {
		if !bytes.Equal(msgTx.TxOut[i].PkScript, otherAddress(byte(i)).Script()) {
			t.Errorf("output %d does not pay recipient %d", i, i)
		}
	}
}

func TestSendToken_Errors(t *testing.T) {
	tests := []struct {
		name    string
		to      string
		amount  string
		message string
		wantErr error
	}{
		{"insufficient", otherAddress(1).String(), "151", "", ErrInsufficientTokens},
		{"zero", otherAddress(1).String(), "0", "", ErrInvalidAmount},
		{"garbage amount", otherAddress(1).String(), "1x", "", ErrInvalidAmount},
		{"bad address", "ecash:qqqq", "10", "", ErrInvalidAddress},
		{"long message", otherAddress(1).String(), "10", strings.Repeat("m", MaxMessageSize+1), ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, idx, _ := tokenWallet(t)
			_, err := w.SendToken(context.Background(), testTokenID, tt.to, tt.amount, 0, tt.message)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if n := idx.broadcastCount(); n != 0 {
				t.Errorf("broadcast %d transactions on error", n)
			}
		})
	}
}

func TestSendToken_NoFeeUtxos(t *testing.T) {
	keys := testKeys(t)
	idx := newFakeIndexer(tokenUtxo(1, keys.Script(), testTokenID, 100, false))
	w := newTestWallet(t, idx)

	_, err := w.SendToken(context.Background(), testTokenID, otherAddress(1).String(), "10", 0, "")
	if !errors.Is(err, ErrNoUTXOs) {
		t.Fatalf("error = %v, want ErrNoUTXOs", err)
	}
}

func TestMintToken(t *testing.T) {
	keys := testKeys(t)
	baton := tokenUtxo(9, keys.Script(), testTokenID, 0, true)
	utxos := append([]types.Utxo{baton}, walletUtxos(keys, 10000)...)
	idx := newFakeIndexer(utxos...)
	w := newTestWallet(t, idx)

	if _, err := w.MintToken(context.Background(), testTokenID, "1000", 0); err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	msgTx := idx.lastTx(t)
	if msgTx.TxIn[0].PreviousOutPoint != *baton.Outpoint.Wire() {
		t.Error("first input should be the mint baton")
	}

	sections := parseSections(t, msgTx.TxOut[0].PkScript)
	if len(sections) != 1 || sections[0].TxType != alp.TxTypeMint {
		t.Fatalf("sections = %+v, want one MINT", sections)
	}
	mint := sections[0].Mint
	if fmt.Sprint(mint.Atoms) != "[1000]" || mint.NumBatons != 1 {
		t.Errorf("mint = %+v, want 1000 atoms and one baton", mint)
	}
	vals := outputValues(msgTx)
	if len(vals) < 3 || vals[1] != 546 || vals[2] != 546 {
		t.Fatalf("outputs = %v, want minted atoms and baton at 1 and 2", vals)
	}
	for i := 1; i <= 2; i++ {
		if !bytes.Equal(msgTx.TxOut[i].PkScript, keys.Script()) {
			t.Errorf("output %d does not pay the wallet", i)
		}
	}
	verifySigned(t, msgTx, utxos)
}

func TestMintToken_NoBaton(t *testing.T) {
	w, idx, _ := tokenWallet(t)

	_, err := w.MintToken(context.Background(), testTokenID, "1000", 0)
	if !errors.Is(err, ErrMissingMintAuthority) {
		t.Fatalf("error = %v, want ErrMissingMintAuthority", err)
	}
	if idx.broadcastCount() != 0 {
		t.Error("nothing should be broadcast")
	}
}

func TestMintToken_OtherTokensBaton(t *testing.T) {
	keys := testKeys(t)
	other := chainhash.Hash{0xbb}
	idx := newFakeIndexer(append([]types.Utxo{tokenUtxo(9, keys.Script(), other, 0, true)}, walletUtxos(keys, 10000)...)...)
	w := newTestWallet(t, idx)

	if _, err := w.MintToken(context.Background(), testTokenID, "1", 0); !errors.Is(err, ErrMissingMintAuthority) {
		t.Fatalf("error = %v, want ErrMissingMintAuthority", err)
	}
}

func TestBurnToken(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		wantTypes   []string
		wantChange  string
		wantOutputs int
	}{
		{"partial", "40", []string{alp.TxTypeBurn, alp.TxTypeSend}, "[60]", 3},
		{"whole utxo", "100", []string{alp.TxTypeBurn}, "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, idx, utxos := tokenWallet(t)

			if _, err := w.BurnToken(context.Background(), testTokenID, tt.amount, 0); err != nil {
				t.Fatalf("BurnToken: %v", err)
			}
			msgTx := idx.lastTx(t)
			sections := parseSections(t, msgTx.TxOut[0].PkScript)
			if len(sections) != len(tt.wantTypes) {
				t.Fatalf("sections = %d, want %d", len(sections), len(tt.wantTypes))
			}
			for i, s := range sections {
				if s.TxType != tt.wantTypes[i] {
					t.Errorf("section %d = %s, want %s", i, s.TxType, tt.wantTypes[i])
				}
			}
			if got := fmt.Sprint(sections[0].Atoms); got != "["+tt.amount+"]" {
				t.Errorf("burn atoms = %s, want [%s]", got, tt.amount)
			}
			if tt.wantChange != "" && fmt.Sprint(sections[1].Atoms) != tt.wantChange {
				t.Errorf("change atoms = %v, want %s", sections[1].Atoms, tt.wantChange)
			}
			if len(msgTx.TxOut) != tt.wantOutputs {
				t.Errorf("outputs = %v, want %d outputs", outputValues(msgTx), tt.wantOutputs)
			}
			verifySigned(t, msgTx, utxos)
		})
	}
}

func TestBurnToken_Errors(t *testing.T) {
	w, idx, _ := tokenWallet(t)
	if _, err := w.BurnToken(context.Background(), testTokenID, "151", 0); !errors.Is(err, ErrInsufficientTokens) {
		t.Errorf("error = %v, want ErrInsufficientTokens", err)
	}
	if idx.broadcastCount() != 0 {
		t.Error("nothing should be broadcast")
	}

	keys := testKeys(t)
	idx = newFakeIndexer(tokenUtxo(1, keys.Script(), testTokenID, 100, false))
	w = newTestWallet(t, idx)
	if _, err := w.BurnToken(context.Background(), testTokenID, "10", 0); !errors.Is(err, ErrNoUTXOs) {
		t.Errorf("error = %v, want ErrNoUTXOs", err)
	}
}

func TestTokenTx_FeePaidFromValueUtxos(t *testing.T) {
	tests := []struct {
		name string
		run  func(w *Wallet) error
	}{
		{"burn whole utxo", func(w *Wallet) error {
			_, err := w.BurnToken(context.Background(), testTokenID, "100", 0)
			return err
		}},
		{"send exact amount", func(w *Wallet) error {
			_, err := w.SendToken(context.Background(), testTokenID, otherAddress(1).String(), "150", 0, "")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, idx, utxos := tokenWallet(t)
			if err := tt.run(w); err != nil {
				t.Fatal(err)
			}
			msgTx := idx.lastTx(t)

			last := msgTx.TxIn[len(msgTx.TxIn)-1].PreviousOutPoint
			if last != *utxos[2].Outpoint.Wire() {
				t.Errorf("last input = %s, want the value-only UTXO", last)
			}
			change := msgTx.TxOut[len(msgTx.TxOut)-1]
			if !bytes.Equal(change.PkScript, w.Keys().Script()) || change.Value < int64(DustLimit) {
				t.Errorf("last output = %d sats, want XEC change to the wallet", change.Value)
			}

			// Low-S signatures run a few bytes under the 73-byte estimate.
			fee := txFee(msgTx, utxos)
			size := msgTx.SerializeSize()
			low := int64(tx.FeeForSize(size, FeePerKb))
			high := int64(tx.FeeForSize(size+4*len(msgTx.TxIn), FeePerKb))
			if fee < low || fee > high {
				t.Errorf("fee = %d for %d bytes, want %d..%d", fee, size, low, high)
			}
		})
	}
}

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name        string
		params      GenesisParams
		wantAtoms   string
		wantBatons  uint8
		wantOutputs []int64
	}{
		{
			name:        "variable supply",
			params:      GenesisParams{Ticker: "TST", Name: "Test Token", URL: "https://example.com", Decimals: 2, Quantity: "1000"},
			wantAtoms:   "[100000]",
			wantBatons:  1,
			wantOutputs: []int64{0, 546, 546},
		},
		{
			name:        "fixed supply",
			params:      GenesisParams{Ticker: "FIX", Name: "Fixed", Decimals: 0, Quantity: "21000000", FixedSupply: true},
			wantAtoms:   "[21000000]",
			wantBatons:  0,
			wantOutputs: []int64{0, 546},
		},
		{
			name:        "baton only",
			params:      GenesisParams{Ticker: "LATER", Name: "Mint Later", Decimals: 4},
			wantAtoms:   "[]",
			wantBatons:  1,
			wantOutputs: []int64{0, 546},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := testKeys(t)
			utxos := walletUtxos(keys, 10000)
			idx := newFakeIndexer(utxos...)
			w := newTestWallet(t, idx)

			res, err := w.CreateToken(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("CreateToken: %v", err)
			}
			msgTx := idx.lastTx(t)
			if res.TokenID != msgTx.TxHash() {
				t.Errorf("token id = %s, want genesis txid %s", res.TokenID, msgTx.TxHash())
			}
			if res.Ticker != tt.params.Ticker {
				t.Errorf("ticker = %q, want %q", res.Ticker, tt.params.Ticker)
			}

			sections := parseSections(t, msgTx.TxOut[0].PkScript)
			if len(sections) != 1 || sections[0].TxType != alp.TxTypeGenesis {
				t.Fatalf("sections = %+v, want one GENESIS", sections)
			}
			g := sections[0]
			if g.Genesis.Ticker != tt.params.Ticker || g.Genesis.Name != tt.params.Name || g.Genesis.URL != tt.params.URL {
				t.Errorf("genesis info = %+v", g.Genesis)
			}
			if uint32(g.Genesis.Decimals) != tt.params.Decimals {
				t.Errorf("decimals = %d, want %d", g.Genesis.Decimals, tt.params.Decimals)
			}
			atoms := "[]"
			if len(g.Mint.Atoms) > 0 {
				atoms = fmt.Sprint(g.Mint.Atoms)
			}
			if atoms != tt.wantAtoms || g.Mint.NumBatons != tt.wantBatons {
				t.Errorf("mint = %s/%d, want %s/%d", atoms, g.Mint.NumBatons, tt.wantAtoms, tt.wantBatons)
			}
			hasAuth := len(g.Genesis.AuthPubkey) > 0
			if hasAuth != (tt.wantBatons > 0) {
				t.Errorf("auth pubkey present = %v, want %v", hasAuth, tt.wantBatons > 0)
			}

			vals := outputValues(msgTx)
			if len(vals) != len(tt.wantOutputs)+1 {
				t.Fatalf("outputs = %v, want %v plus change", vals, tt.wantOutputs)
			}
			for i, v := range tt.wantOutputs {
				if vals[i] != v {
					t.Errorf("output %d = %d, want %d", i, vals[i], v)
				}
			}
			verifySigned(t, msgTx, utxos)
		})
	}
}

func TestCreateToken_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		params  GenesisParams
		wantErr error
	}{
		{"fixed without quantity", GenesisParams{Ticker: "X", FixedSupply: true}, ErrInvalidToken},
		{"too many decimals", GenesisParams{Ticker: "X", Decimals: 10, Quantity: "1"}, ErrInvalidToken},
		{"bad quantity", GenesisParams{Ticker: "X", Quantity: "lots"}, ErrInvalidAmount},
		{"oversized", GenesisParams{Ticker: "X", Name: strings.Repeat("n", 200), Quantity: "1"}, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := testKeys(t)
			idx := newFakeIndexer(walletUtxos(keys, 10000)...)
			w := newTestWallet(t, idx)

			if _, err := w.CreateToken(context.Background(), tt.params); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if idx.broadcastCount() != 0 {
				t.Error("nothing should be broadcast")
			}
		})
	}
}

// Token change must never be merged into value-only change.
func TestSendToken_ValueChangeHasNoToken(t *testing.T) {
	w, idx, _ := tokenWallet(t)
	if _, err := w.SendToken(context.Background(), testTokenID, otherAddress(1).String(), "30", 0, ""); err != nil {
		t.Fatalf("SendToken: %v", err)
	}
	msgTx := idx.lastTx(t)
	sections := parseSections(t, msgTx.TxOut[0].PkScript)
	last := len(msgTx.TxOut) - 1
	if len(sections[0].Atoms) >= last {
		t.Errorf("SEND assigns atoms to the XEC change output %d", last)
	}
}
