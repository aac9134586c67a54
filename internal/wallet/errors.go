package wallet

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/xecwallet/internal/chronik"
	"github.com/Klingon-tech/xecwallet/pkg/cashaddr"
	"github.com/Klingon-tech/xecwallet/pkg/tx"
)

// Wallet errors. Validation errors are always returned before anything is
// broadcast.
var (
	ErrInvalidSeedPhrase    = errors.New("invalid seed phrase")
	ErrInvalidAddress       = cashaddr.ErrInvalidAddress
	ErrInsufficientFunds    = tx.ErrInsufficientFunds
	ErrInsufficientTokens   = fmt.Errorf("token balance: %w", ErrInsufficientFunds)
	ErrAmountTooSmall       = errors.New("amount below dust limit")
	ErrMissingMintAuthority = errors.New("no mint baton for token")
	ErrMessageTooLarge      = errors.New("message too large")
	ErrEmptyMessage         = errors.New("empty message")
	ErrNoUTXOs              = errors.New("no UTXOs available")
	ErrBroadcastRejected    = chronik.ErrBroadcastRejected
	ErrIndexerUnavailable   = chronik.ErrUnavailable
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrNoHolders            = errors.New("no token holders")
	ErrInvalidToken         = errors.New("invalid token parameters")
)
