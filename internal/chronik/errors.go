package chronik

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrUnavailable is returned when no configured endpoint could serve a request.
	ErrUnavailable = errors.New("chronik unavailable")
	// ErrBroadcastRejected is matched by every *BroadcastError.
	ErrBroadcastRejected = errors.New("broadcast rejected")
	// ErrNotFound is matched by *Error values with HTTP status 404.
	ErrNotFound = errors.New("not found")
)

// Error is returned when an endpoint answers a request with a non-2xx status.
type Error struct {
	Status int
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("chronik error %d", e.Status)
	}
	return fmt.Sprintf("chronik error %d: %s", e.Status, e.Msg)
}

// Is reports 404 responses as ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// BroadcastError carries the indexer's reason for rejecting a transaction.
type BroadcastError struct {
	Reason string
}

func (e *BroadcastError) Error() string {
	return "broadcast rejected: " + e.Reason
}

// Is makes errors.Is(err, ErrBroadcastRejected) succeed.
func (e *BroadcastError) Is(target error) bool {
	return target == ErrBroadcastRejected
}
