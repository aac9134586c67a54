package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/Klingon-tech/xecwallet/internal/chronik"
	"github.com/Klingon-tech/xecwallet/internal/storage"
	"github.com/Klingon-tech/xecwallet/internal/token"
	"github.com/Klingon-tech/xecwallet/pkg/tx"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// fakeIndexer is an in-memory Indexer. Broadcasts spend their inputs, so a
// second transaction spending the same outpoint is rejected.
type fakeIndexer struct {
	mu sync.Mutex

	utxos      []types.Utxo
	tokenUtxos map[chainhash.Hash][]types.Utxo
	tokens     map[chainhash.Hash]*types.TokenMeta
	txs        map[chainhash.Hash]*types.Tx
	spent      map[wire.OutPoint]bool
	broadcasts []*wire.MsgTx

	utxoErr      error
	broadcastErr error
	tokenCalls   int
	txCalls      int
}

func newFakeIndexer(utxos ...types.Utxo) *fakeIndexer {
	return &fakeIndexer{
		utxos:      utxos,
		tokenUtxos: make(map[chainhash.Hash][]types.Utxo),
		tokens:     make(map[chainhash.Hash]*types.TokenMeta),
		txs:        make(map[chainhash.Hash]*types.Tx),
		spent:      make(map[wire.OutPoint]bool),
	}
}

func (f *fakeIndexer) ScriptUtxos(_ context.Context, script []byte) ([]types.Utxo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.utxoErr != nil {
		return nil, f.utxoErr
	}
	want := hex.EncodeToString(script)
	var out []types.Utxo
	for _, u := range f.utxos {
		if hex.EncodeToString(u.Script) != want || f.spent[*u.Outpoint.Wire()] {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeIndexer) TokenUtxos(_ context.Context, tokenID chainhash.Hash) ([]types.Utxo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Utxo(nil), f.tokenUtxos[tokenID]...), nil
}

func (f *fakeIndexer) Token(_ context.Context, tokenID chainhash.Hash) (*types.TokenMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	m, ok := f.tokens[tokenID]
	if !ok {
		return nil, &chronik.Error{Status: 404, Msg: "token not found"}
	}
	cp := *m
	return &cp, nil
}

func (f *fakeIndexer) Tx(_ context.Context, txid chainhash.Hash) (*types.Tx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCalls++
	t, ok := f.txs[txid]
	if !ok {
		return nil, &chronik.Error{Status: 404, Msg: "tx not found"}
	}
	return t, nil
}

func (f *fakeIndexer) Broadcast(_ context.Context, raw []byte) (chainhash.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broadcastErr != nil {
		return chainhash.Hash{}, f.broadcastErr
	}
	msgTx, err := tx.Deserialize(raw)
	if err != nil {
		return chainhash.Hash{}, &chronik.BroadcastError{Reason: err.Error()}
	}
	for _, in := range msgTx.TxIn {
		if f.spent[in.PreviousOutPoint] {
			return chainhash.Hash{}, &chronik.BroadcastError{Reason: "txn-mempool-conflict"}
		}
	}
	for _, in := range msgTx.TxIn {
		f.spent[in.PreviousOutPoint] = true
	}
	f.broadcasts = append(f.broadcasts, msgTx)
	return msgTx.TxHash(), nil
}

func (f *fakeIndexer) lastTx(t *testing.T) *wire.MsgTx {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.broadcasts) == 0 {
		t.Fatal("nothing was broadcast")
	}
	return f.broadcasts[len(f.broadcasts)-1]
}

func (f *fakeIndexer) broadcastCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.broadcasts)
}

func testKeys(t *testing.T) *KeyMaterial {
	t.Helper()
	keys, err := NewKeyMaterial(testMnemonic, types.MainnetPrefix)
	if err != nil {
		t.Fatalf("NewKeyMaterial: %v", err)
	}
	return keys
}

func newTestWallet(t *testing.T, idx *fakeIndexer) *Wallet {
	t.Helper()
	w, err := New(testKeys(t), idx, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func newCachedWallet(t *testing.T, idx *fakeIndexer) (*Wallet, *token.Store) {
	t.Helper()
	store := token.NewStore(storage.NewMemory())
	w, err := New(testKeys(t), idx, Config{Tokens: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, store
}

// walletUtxos returns value-only UTXOs paying to keys.
func walletUtxos(keys *KeyMaterial, values ...uint64) []types.Utxo {
	utxos := makeUTXOs(values...)
	for i := range utxos {
		utxos[i].Script = keys.Script()
	}
	return utxos
}

// tokenUtxo returns a 546-sat UTXO paying to script that carries atoms of id.
func tokenUtxo(seed byte, script []byte, id chainhash.Hash, atoms uint64, baton bool) types.Utxo {
	return types.Utxo{
		Outpoint:    types.Outpoint{TxID: chainhash.Hash{0xee, seed}, Index: 1},
		Value:       DustLimit,
		Script:      script,
		BlockHeight: 100,
		Token: &types.TokenData{
			TokenID:     id,
			Protocol:    types.ProtocolALP,
			TokenType:   types.ALPStandard,
			Atoms:       atoms,
			IsMintBaton: baton,
		},
	}
}

func otherAddress(seed byte) types.Address {
	var pkh [20]byte
	for i := range pkh {
		pkh[i] = seed + byte(i)
	}
	return types.NewP2PKHAddress(types.MainnetPrefix, pkh)
}

func outputValues(msgTx *wire.MsgTx) []int64 {
	vals := make([]int64, len(msgTx.TxOut))
	for i, out := range msgTx.TxOut {
		vals[i] = out.Value
	}
	return vals
}

// txFee returns inputs minus outputs of a broadcast transaction.
func txFee(msgTx *wire.MsgTx, spent []types.Utxo) int64 {
	values := make(map[wire.OutPoint]int64, len(spent))
	for _, u := range spent {
		values[*u.Outpoint.Wire()] = int64(u.Value)
	}
	var fee int64
	for _, in := range msgTx.TxIn {
		v, ok := values[in.PreviousOutPoint]
		if !ok {
			panic(fmt.Sprintf("unknown input %s", in.PreviousOutPoint))
		}
		fee += v
	}
	for _, out := range msgTx.TxOut {
		fee -= out.Value
	}
	return fee
}

// verifySigned checks every input signature against the UTXOs it spends.
func verifySigned(t *testing.T, msgTx *wire.MsgTx, spent []types.Utxo) {
	t.Helper()
	byOutpoint := make(map[wire.OutPoint]types.Utxo, len(spent))
	for _, u := range spent {
		byOutpoint[*u.Outpoint.Wire()] = u
	}
	prevOuts := make([]tx.PrevOut, len(msgTx.TxIn))
	for i, in := range msgTx.TxIn {
		u, ok := byOutpoint[in.PreviousOutPoint]
		if !ok {
			t.Fatalf("input %d spends unknown outpoint %s", i, in.PreviousOutPoint)
		}
		prevOuts[i] = tx.PrevOut{Value: u.Value, Script: u.Script}
	}
	if err := tx.VerifySignatures(msgTx, prevOuts); err != nil {
		t.Fatalf("VerifySignatures: %v", err)
	}
}
