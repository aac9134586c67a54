package wallet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/wire"

	"github.com/Klingon-tech/xecwallet/internal/chronik"
	"github.com/Klingon-tech/xecwallet/pkg/tx"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

func commissionScript(t *testing.T) []byte {
	t.Helper()
	a, err := types.ParseAddress(CommissionAddress, types.MainnetPrefix)
	if err != nil {
		t.Fatalf("ParseAddress(commission): %v", err)
	}
	return a.Script()
}

func TestSendXec_ChangeBelowDustIsDropped(t *testing.T) {
	keys := testKeys(t)
	utxos := walletUtxos(keys, 1000, 2000)
	idx := newFakeIndexer(utxos...)
	w := newTestWallet(t, idx)
	dest := otherAddress(1)

	txid, err := w.SendXec(context.Background(), dest.String(), "15")
	if err != nil {
		t.Fatalf("SendXec: %v", err)
	}

	msgTx := idx.lastTx(t)
	if txid != msgTx.TxHash() {
		t.Errorf("txid = %s, want %s", txid, msgTx.TxHash())
	}
	if len(msgTx.TxIn) != 2 {
		t.Fatalf("inputs = %d, want 2", len(msgTx.TxIn))
	}
	// 3000 - 2100 - 492 leaves 408, below dust, so it goes to the fee.
	if got := outputValues(msgTx); len(got) != 2 || got[0] != 1500 || got[1] != 600 {
		t.Fatalf("outputs = %v, want [1500 600]", got)
	}
	if !bytes.Equal(msgTx.TxOut[0].PkScript, dest.Script()) {
		t.Error("output 0 does not pay the destination")
	}
	if !bytes.Equal(msgTx.TxOut[1].PkScript, commissionScript(t)) {
		t.Error("output 1 does not pay the commission address")
	}
	if fee := txFee(msgTx, utxos); fee != 900 {
		t.Errorf("fee = %d, want 900", fee)
	}
	verifySigned(t, msgTx, utxos)
}

func TestSendXec_WithChange(t *testing.T) {
	keys := testKeys(t)
	utxos := walletUtxos(keys, 1000, 3000)
	idx := newFakeIndexer(utxos...)
	w := newTestWallet(t, idx)

	if _, err := w.SendXec(context.Background(), otherAddress(1).String(), "15"); err != nil {
		t.Fatalf("SendXec: %v", err)
	}

	msgTx := idx.lastTx(t)
	want := []int64{1500, 600, 1408}
	got := outputValues(msgTx)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("outputs = %v, want %v", got, want)
	}
	if !bytes.Equal(msgTx.TxOut[2].PkScript, keys.Script()) {
		t.Error("change does not pay back to the wallet")
	}
	if fee := txFee(msgTx, utxos); fee != 492 {
		t.Errorf("fee = %d, want 492", fee)
	}
}

func TestSendXec_SingleInput(t *testing.T) {
	keys := testKeys(t)
	utxos := walletUtxos(keys, 5000, 7000)
	idx := newFakeIndexer(utxos...)
	w := newTestWallet(t, idx)

	if _, err := w.SendXec(context.Background(), otherAddress(1).String(), "10"); err != nil {
		t.Fatalf("SendXec: %v", err)
	}
	msgTx := idx.lastTx(t)
	if len(msgTx.TxIn) != 1 || msgTx.TxIn[0].PreviousOutPoint != *utxos[0].Outpoint.Wire() {
		t.Fatalf("expected only the first UTXO to be spent")
	}
	// 1 input, 3 P2PKH outputs: 261 bytes at 1.2 sat/byte.
	if fee := txFee(msgTx, utxos); fee != 314 {
		t.Errorf("fee = %d, want 314", fee)
	}
}

func TestSendXec_SkipsTokenUtxos(t *testing.T) {
	keys := testKeys(t)
	tok := tokenUtxo(1, keys.Script(), [32]byte{0xaa}, 100, false)
	pure := walletUtxos(keys, 5000)
	idx := newFakeIndexer(append([]types.Utxo{tok}, pure...)...)
	w := newTestWallet(t, idx)

	if _, err := w.SendXec(context.Background(), otherAddress(1).String(), "10"); err != nil {
		t.Fatalf("SendXec: %v", err)
	}
	for _, in := range idx.lastTx(t).TxIn {
		if in.PreviousOutPoint == *tok.Outpoint.Wire() {
			t.Fatal("token UTXO was spent by an XEC send")
		}
	}
}

func TestSendXec_Errors(t *testing.T) {
	tests := []struct {
		name    string
		values  []uint64
		to      string
		amount  string
		wantErr error
	}{
		{"dust", []uint64{10000}, otherAddress(1).String(), "5.45", ErrAmountTooSmall},
		{"invalid address", []uint64{10000}, "ecash:notanaddress", "10", ErrInvalidAddress},
		{"wrong network", []uint64{10000}, strings.Replace(otherAddress(1).String(), "ecash:", "ectest:", 1), "10", ErrInvalidAddress},
		{"invalid amount", []uint64{10000}, otherAddress(1).String(), "ten", ErrInvalidAmount},
		{"insufficient", []uint64{1000}, otherAddress(1).String(), "15", ErrInsufficientFunds},
		{"no utxos", nil, otherAddress(1).String(), "15", ErrNoUTXOs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := testKeys(t)
			idx := newFakeIndexer(walletUtxos(keys, tt.values...)...)
			w := newTestWallet(t, idx)

			_, err := w.SendXec(context.Background(), tt.to, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if n := idx.broadcastCount(); n != 0 {
				t.Errorf("broadcast %d transactions on error", n)
			}
		})
	}
}

func TestSendXec_DustBoundary(t *testing.T) {
	keys := testKeys(t)
	idx := newFakeIndexer(walletUtxos(keys, 10000)...)
	w := newTestWallet(t, idx)

	if _, err := w.SendXec(context.Background(), otherAddress(1).String(), "5.46"); err != nil {
		t.Fatalf("SendXec(5.46): %v", err)
	}
	if got := idx.lastTx(t).TxOut[0].Value; got != 546 {
		t.Errorf("output 0 = %d, want 546", got)
	}
}

func TestSendXec_IndexerErrors(t *testing.T) {
	keys := testKeys(t)

	idx := newFakeIndexer(walletUtxos(keys, 10000)...)
	idx.broadcastErr = &chronik.BroadcastError{Reason: "bad-txns-inputs-missingorspent"}
	w := newTestWallet(t, idx)
	if _, err := w.SendXec(context.Background(), otherAddress(1).String(), "10"); !errors.Is(err, ErrBroadcastRejected) {
		t.Errorf("error = %v, want ErrBroadcastRejected", err)
	}

	idx = newFakeIndexer()
	idx.utxoErr = fmt.Errorf("%w: connection refused", chronik.ErrUnavailable)
	w = newTestWallet(t, idx)
	if _, err := w.SendXec(context.Background(), otherAddress(1).String(), "10"); !errors.Is(err, ErrIndexerUnavailable) {
		t.Errorf("error = %v, want ErrIndexerUnavailable", err)
	}
}

func TestSendXec_ConcurrentSendsUseDistinctInputs(t *testing.T) {
	keys := testKeys(t)
	const n = 4
	idx := newFakeIndexer(walletUtxos(keys, 5000, 5000, 5000, 5000)...)
	w := newTestWallet(t, idx)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.SendXec(context.Background(), otherAddress(1).String(), "10"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("SendXec: %v", err)
	}

	if got := idx.broadcastCount(); got != n {
		t.Fatalf("broadcasts = %d, want %d", got, n)
	}
	seen := make(map[wire.OutPoint]bool)
	for _, msgTx := range idx.broadcasts {
		for _, in := range msgTx.TxIn {
			if seen[in.PreviousOutPoint] {
				t.Fatalf("outpoint %s spent twice", in.PreviousOutPoint)
			}
			seen[in.PreviousOutPoint] = true
		}
	}
}

func TestSendMessage(t *testing.T) {
	keys := testKeys(t)
	utxos := walletUtxos(keys, 5000)
	idx := newFakeIndexer(utxos...)
	w := newTestWallet(t, idx)

	if _, err := w.SendMessage(context.Background(), "hello ecash"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	msgTx := idx.lastTx(t)
	want, err := tx.OpReturnScript([]byte("hello ecash"))
	if err != nil {
		t.Fatalf("OpReturnScript: %v", err)
	}
	if len(msgTx.TxOut) != 2 {
		t.Fatalf("outputs = %d, want message and change", len(msgTx.TxOut))
	}
	if msgTx.TxOut[0].Value != 0 || !bytes.Equal(msgTx.TxOut[0].PkScript, want) {
		t.Errorf("output 0 = %d %x, want 0 %x", msgTx.TxOut[0].Value, msgTx.TxOut[0].PkScript, want)
	}
	if !bytes.Equal(msgTx.TxOut[1].PkScript, keys.Script()) {
		t.Error("output 1 is not change")
	}
	verifySigned(t, msgTx, utxos)
}

func TestSendMessage_Invalid(t *testing.T) {
	keys := testKeys(t)
	idx := newFakeIndexer(walletUtxos(keys, 5000)...)
	w := newTestWallet(t, idx)

	_, err := w.SendMessage(context.Background(), "")
	if !errors.Is(err, ErrEmptyMessage) || errors.Is(err, ErrInvalidAmount) {
		t.Errorf("empty message error = %v, want ErrEmptyMessage", err)
	}
	long := strings.Repeat("x", MaxMessageSize+1)
	if _, err := w.SendMessage(context.Background(), long); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("long message error = %v, want ErrMessageTooLarge", err)
	}
	if _, err := w.SendMessage(context.Background(), strings.Repeat("x", MaxMessageSize)); err != nil {
		t.Errorf("message of %d bytes: %v", MaxMessageSize, err)
	}
}
