package htlc

import (
	"fmt"
	"math/big"
)

// Status represents the lifecycle states of a hash-and-time-locked escrow.
// Claimed and Refunded are terminal: a record reaches at most one of them,
// exactly once, and no mutating transition applies afterwards.
type Status uint8

const (
	StatusOpen Status = iota
	StatusClaimed
	StatusRefunded
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClaimed, StatusRefunded:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClaimed:
		return "claimed"
	case StatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Escrow captures one locked-value commitment: the depositor, the designated
// recipient, the hash commitment the claim preimage must match, and the block
// height at or after which claim and refund become legal. Identifiers are
// allocated monotonically starting at 1 and never reused; records are never
// deleted and act as an audit trail once finalized.
type Escrow struct {
	ID            uint64
	Sender        [20]byte
	Recipient     [20]byte
	Amount        *big.Int
	UnlockHeight  uint64
	SecretHash    [32]byte
	CreatedHeight uint64
	Status        Status
}

// Claimed reports whether the record reached the claimed terminal.
func (e *Escrow) Claimed() bool {
	return e != nil && e.Status == StatusClaimed
}

// Refunded reports whether the record reached the refunded terminal, whether
// via a post-deadline refund or a privileged pre-deadline cancellation.
func (e *Escrow) Refunded() bool {
	return e != nil && e.Status == StatusRefunded
}

// Clone returns a deep copy of the escrow so callers can safely mutate the
// copy without affecting the stored instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Amount != nil {
		clone.Amount = new(big.Int).Set(e.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// Sanitize validates the supplied escrow definition and returns a cloned
// instance with a non-nil amount field. The function does not mutate the
// original value.
func Sanitize(e *Escrow) (*Escrow, error) {
	if e == nil {
		return nil, fmt.Errorf("htlc: nil escrow")
	}
	clone := e.Clone()
	if clone.ID == 0 {
		return nil, fmt.Errorf("htlc: escrow id must be positive")
	}
	if clone.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("htlc: invalid escrow status: %d", clone.Status)
	}
	return clone, nil
}
