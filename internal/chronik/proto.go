package chronik

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Klingon-tech/xecwallet/pkg/types"
)

// Chronik speaks protobuf. Only the fields the wallet reads are decoded;
// unknown fields are skipped, so newer servers stay compatible.

var errMalformed = errors.New("malformed protobuf")

// walk calls fn for every top-level field of a message. For varint fields
// data is nil; for length-delimited fields v is zero.
func walk(b []byte, fn func(num protowire.Number, v uint64, data []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", errMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			if err := fn(num, v, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			data, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", errMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			if err := fn(num, 0, data); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", errMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

// hashFromBytes reads a 32-byte hash sent in internal (little-endian) order.
func hashFromBytes(b []byte) (chainhash.Hash, error) {
	var h chainhash.Hash
	if len(b) != chainhash.HashSize {
		return h, fmt.Errorf("%w: hash length %d", errMalformed, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

// decodeOutpoint decodes OutPoint{txid=1, out_idx=2}.
func decodeOutpoint(b []byte) (types.Outpoint, error) {
	var op types.Outpoint
	err := walk(b, func(num protowire.Number, v uint64, data []byte) error {
		switch num {
		case 1:
			h, err := hashFromBytes(data)
			if err != nil {
				return err
			}
			op.TxID = h
		case 2:
			op.Index = uint32(v)
		}
		return nil
	})
	return op, err
}

// decodeTokenType decodes TokenType{oneof slp=1, alp=2}.
func decodeTokenType(b []byte) (types.TokenProtocol, uint32, error) {
	protocol := types.ProtocolUnknown
	var tokenType uint32
	err := walk(b, func(num protowire.Number, v uint64, _ []byte) error {
		switch num {
		case 1:
			protocol, tokenType = types.ProtocolSLP, uint32(v)
		case 2:
			protocol, tokenType = types.ProtocolALP, uint32(v)
		}
		return nil
	})
	return protocol, tokenType, err
}

// decodeToken decodes Token{token_id=1, token_type=2, atoms=4, is_mint_baton=5}.
// Older servers call atoms "amount"; the field number is the same.
func decodeToken(b []byte) (*types.TokenData, error) {
	tok := &types.TokenData{}
	err := walk(b, func(num protowire.Number, v uint64, data []byte) error {
		switch num {
		case 1:
			h, err := chainhash.NewHashFromStr(string(data))
			if err != nil || len(data) != 2*chainhash.HashSize {
				return fmt.Errorf("%w: token id %q", errMalformed, data)
			}
			tok.TokenID = *h
		case 2:
			p, t, err := decodeTokenType(data)
			if err != nil {
				return err
			}
			tok.Protocol, tok.TokenType = p, t
		case 4:
			tok.Atoms = v
		case 5:
			tok.IsMintBaton = v != 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// utxoFields lists the field numbers of the two Chronik UTXO messages,
// ScriptUtxo and Utxo, which differ in numbering.
type utxoFields struct {
	outpoint, height, coinbase, sats, script, token protowire.Number
}

var (
	scriptUtxoFields = utxoFields{outpoint: 1, height: 2, coinbase: 3, sats: 4, token: 11}
	tokenUtxoFields  = utxoFields{outpoint: 1, height: 2, coinbase: 3, sats: 4, script: 5, token: 7}
)

func decodeUtxo(b []byte, f utxoFields) (types.Utxo, error) {
	var u types.Utxo
	err := walk(b, func(num protowire.Number, v uint64, data []byte) error {
		var err error
		switch num {
		case f.outpoint:
			u.Outpoint, err = decodeOutpoint(data)
		case f.height:
			u.BlockHeight = int32(int64(v))
		case f.coinbase:
			u.IsCoinbase = v != 0
		case f.sats:
			u.Value = v
		case f.script:
			u.Script = cloneBytes(data)
		case f.token:
			u.Token, err = decodeToken(data)
		}
		return err
	})
	return u, err
}

// decodeScriptUtxos decodes ScriptUtxos{output_script=1, utxos=2}. The
// script is shared by all UTXOs and copied into each of them.
func decodeScriptUtxos(b []byte) ([]types.Utxo, error) {
	var script []byte
	utxos := []types.Utxo{}
	err := walk(b, func(num protowire.Number, _ uint64, data []byte) error {
		switch num {
		case 1:
			script = cloneBytes(data)
		case 2:
			u, err := decodeUtxo(data, scriptUtxoFields)
			if err != nil {
				return err
			}
			utxos = append(utxos, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range utxos {
		utxos[i].Script = script
	}
	return utxos, nil
}

// decodeTokenUtxos decodes TokenIdUtxos{token_id=1, utxos=2}.
func decodeTokenUtxos(b []byte) ([]types.Utxo, error) {
	utxos := []types.Utxo{}
	err := walk(b, func(num protowire.Number, _ uint64, data []byte) error {
		if num != 2 {
			return nil
		}
		u, err := decodeUtxo(data, tokenUtxoFields)
		if err != nil {
			return err
		}
		utxos = append(utxos, u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return utxos, nil
}

// decodeBlockHeight reads the height of BlockMetadata{height=1, hash=2}.
func decodeBlockHeight(b []byte) (int32, error) {
	var height int32
	err := walk(b, func(num protowire.Number, v uint64, _ []byte) error {
		if num == 1 {
			height = int32(int64(v))
		}
		return nil
	})
	return height, err
}

// decodeGenesisInfo decodes GenesisInfo into meta.
func decodeGenesisInfo(b []byte, meta *types.TokenMeta) error {
	return walk(b, func(num protowire.Number, v uint64, data []byte) error {
		switch num {
		case 1:
			meta.Ticker = string(data)
		case 2:
			meta.Name = string(data)
		case 3:
			meta.URL = string(data)
		case 4:
			meta.Hash = fmt.Sprintf("%x", data)
		case 6:
			meta.Data = cloneBytes(data)
		case 7:
			meta.AuthPubkey = cloneBytes(data)
		case 8:
			meta.Decimals = uint32(v)
		}
		return nil
	})
}

// decodeTokenInfo decodes TokenInfo{token_id=1, token_type=2,
// genesis_info=3, block=4, time_first_seen=5}.
func decodeTokenInfo(b []byte) (*types.TokenMeta, error) {
	meta := &types.TokenMeta{BlockHeight: -1}
	err := walk(b, func(num protowire.Number, v uint64, data []byte) error {
		switch num {
		case 1:
			h, err := chainhash.NewHashFromStr(string(data))
			if err != nil {
				return fmt.Errorf("%w: token id %q", errMalformed, data)
			}
			meta.TokenID = *h
		case 2:
			p, t, err := decodeTokenType(data)
			if err != nil {
				return err
			}
			meta.Protocol, meta.TokenType = p, t
		case 3:
			return decodeGenesisInfo(data, meta)
		case 4:
			h, err := decodeBlockHeight(data)
			if err != nil {
				return err
			}
			meta.BlockHeight = h
		case 5:
			meta.TimeFirstSeen = int64(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// decodeSpentBy decodes SpentBy{txid=1, input_idx=2}.
func decodeSpentBy(b []byte) (*types.Outpoint, error) {
	op, err := decodeOutpoint(b)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// decodeTxOutput decodes TxOutput{sats=1, output_script=2, spent_by=4, token=5}.
func decodeTxOutput(b []byte) (types.TxOutput, error) {
	var out types.TxOutput
	err := walk(b, func(num protowire.Number, v uint64, data []byte) error {
		var err error
		switch num {
		case 1:
			out.Value = v
		case 2:
			out.Script = cloneBytes(data)
		case 4:
			out.SpentBy, err = decodeSpentBy(data)
		case 5:
			out.Token, err = decodeToken(data)
		}
		return err
	})
	return out, err
}

// decodeTx decodes the subset of Tx the wallet uses.
func decodeTx(b []byte) (*types.Tx, error) {
	tx := &types.Tx{BlockHeight: -1}
	err := walk(b, func(num protowire.Number, v uint64, data []byte) error {
		switch num {
		case 1:
			h, err := hashFromBytes(data)
			if err != nil {
				return err
			}
			tx.TxID = h
		case 2:
			tx.Version = int32(int64(v))
		case 4:
			out, err := decodeTxOutput(data)
			if err != nil {
				return err
			}
			tx.Outputs = append(tx.Outputs, out)
		case 5:
			tx.LockTime = uint32(v)
		case 8:
			h, err := decodeBlockHeight(data)
			if err != nil {
				return err
			}
			tx.BlockHeight = h
		case 9:
			tx.TimeFirstSeen = int64(v)
		case 11:
			tx.Size = uint32(v)
		case 12:
			tx.IsCoinbase = v != 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// decodeBlockchainInfo decodes BlockchainInfo{tip_hash=1, tip_height=2}.
func decodeBlockchainInfo(b []byte) (*types.BlockchainInfo, error) {
	info := &types.BlockchainInfo{}
	err := walk(b, func(num protowire.Number, v uint64, data []byte) error {
		switch num {
		case 1:
			h, err := hashFromBytes(data)
			if err != nil {
				return err
			}
			info.TipHash = h
		case 2:
			info.TipHeight = int32(int64(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// decodeBroadcastResponse decodes BroadcastTxResponse{txid=1}.
func decodeBroadcastResponse(b []byte) (chainhash.Hash, error) {
	var txid chainhash.Hash
	found := false
	err := walk(b, func(num protowire.Number, _ uint64, data []byte) error {
		if num != 1 {
			return nil
		}
		h, err := hashFromBytes(data)
		if err != nil {
			return err
		}
		txid, found = h, true
		return nil
	})
	if err != nil {
		return txid, err
	}
	if !found {
		return txid, fmt.Errorf("%w: missing txid", errMalformed)
	}
	return txid, nil
}

// decodeErrorMsg extracts Error{msg=2}. Bodies that are not a valid Error
// message yield an empty string.
func decodeErrorMsg(b []byte) string {
	var msg string
	err := walk(b, func(num protowire.Number, _ uint64, data []byte) error {
		if num == 2 {
			msg = string(data)
		}
		return nil
	})
	if err != nil {
		return ""
	}
	return msg
}

// encodeBroadcastRequest encodes BroadcastTxRequest{raw_tx=1, skip_token_checks=2}.
func encodeBroadcastRequest(rawTx []byte, skipTokenChecks bool) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, rawTx)
	if skipTokenChecks {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	return b
}
