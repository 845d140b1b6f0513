package htlc

import "errors"

// All transition failures are expected, caller-recoverable outcomes. The first
// failing precondition short-circuits the operation with zero side effects.
var (
	ErrNotFound            = errors.New("htlc: escrow not found")
	ErrDuplicateID         = errors.New("htlc: escrow id already exists")
	ErrNotAuthorized       = errors.New("htlc: unauthorized caller")
	ErrInvalidAmount       = errors.New("htlc: amount must be positive")
	ErrInvalidHeight       = errors.New("htlc: lookahead must be positive")
	ErrInvalidHash         = errors.New("htlc: secret hash must be 32 bytes")
	ErrInsufficientBalance = errors.New("htlc: insufficient balance")
	ErrHeightNotReached    = errors.New("htlc: unlock height not reached")
	ErrAlreadyExpired      = errors.New("htlc: unlock height already reached")
	ErrInvalidSecret       = errors.New("htlc: secret does not match hash lock")
	ErrAlreadyFinalized    = errors.New("htlc: escrow already finalized")
	ErrTransferFailed      = errors.New("htlc: value transfer failed")
)
