package types

// TokenProtocol is the token overlay a UTXO or token belongs to.
type TokenProtocol uint8

const (
	ProtocolUnknown TokenProtocol = iota
	ProtocolALP
	ProtocolSLP
)

// String returns a human-readable name for the protocol.
func (p TokenProtocol) String() string {
	switch p {
	case ProtocolALP:
		return "ALP"
	case ProtocolSLP:
		return "SLP"
	default:
		return "Unknown"
	}
}

// ALPStandard is the ALP token type for standard fungible tokens.
const ALPStandard uint32 = 0

// TokenData holds token information attached to a UTXO or output.
type TokenData struct {
	TokenID     TokenID       `json:"tokenId"`
	Protocol    TokenProtocol `json:"protocol"`
	TokenType   uint32        `json:"tokenType"`
	Atoms       uint64        `json:"atoms"`
	IsMintBaton bool          `json:"isMintBaton"`
}

// TokenMeta is the immutable genesis information of a token.
type TokenMeta struct {
	TokenID       TokenID       `json:"-"`
	Protocol      TokenProtocol `json:"protocol"`
	TokenType     uint32        `json:"tokenType"`
	Ticker        string        `json:"ticker"`
	Name          string        `json:"name"`
	URL           string        `json:"url"`
	Hash          string        `json:"hash,omitempty"`
	Data          []byte        `json:"data,omitempty"`
	AuthPubkey    []byte        `json:"authPubkey,omitempty"`
	Decimals      uint32        `json:"decimals"`
	TimeFirstSeen int64         `json:"timeFirstSeen"`
	BlockHeight   int32         `json:"blockHeight"`
}
