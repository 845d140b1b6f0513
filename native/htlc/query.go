package htlc

import (
	"errors"
	"math/big"
)

// StatusSummary is the read-only projection served for a single escrow.
// A non-existent id yields the zero projection with Exists=false and a
// zero amount, so callers can always destructure the result.
type StatusSummary struct {
	Exists        bool
	Claimed       bool
	Refunded      bool
	HeightReached bool
	Sender        [20]byte
	Recipient     [20]byte
	Amount        *big.Int
}

// Stats aggregates vault-wide figures: total records ever created, the
// current balance of the module holding account, and the external height.
type Stats struct {
	TotalEscrows   uint64
	HoldingBalance *big.Int
	CurrentHeight  uint64
	Owner          [20]byte
}

// Get returns a copy of the record. Absence reports ErrNotFound; any other
// error is a storage fault.
func (e *Engine) Get(id uint64) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotFound
	}
	esc, err := e.state.HTLCGet(id)
	if err != nil {
		return nil, err
	}
	return esc.Clone(), nil
}

// QueryCanClaim reports whether a claim is currently legal against the
// external height. Absence of the record yields false; storage faults are
// propagated.
func (e *Engine) QueryCanClaim(id uint64) (bool, error) {
	if e == nil || e.state == nil || e.heights == nil {
		return false, nil
	}
	esc, err := e.state.HTLCGet(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return CanClaim(esc, e.currentHeight()), nil
}

// QueryCanRefund reports whether a refund is currently legal against the
// external height. Absence of the record yields false; storage faults are
// propagated.
func (e *Engine) QueryCanRefund(id uint64) (bool, error) {
	if e == nil || e.state == nil || e.heights == nil {
		return false, nil
	}
	esc, err := e.state.HTLCGet(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return CanRefund(esc, e.currentHeight()), nil
}

// Status returns the summary projection for the id. A missing id is not an
// error; it projects the neutral summary.
func (e *Engine) Status(id uint64) (StatusSummary, error) {
	summary := StatusSummary{Amount: big.NewInt(0)}
	if e == nil || e.state == nil || e.heights == nil {
		return summary, nil
	}
	esc, err := e.state.HTLCGet(id)
	if errors.Is(err, ErrNotFound) {
		return summary, nil
	}
	if err != nil {
		return summary, err
	}
	summary.Exists = true
	summary.Claimed = esc.Claimed()
	summary.Refunded = esc.Refunded()
	summary.HeightReached = HeightReached(esc, e.currentHeight())
	summary.Sender = esc.Sender
	summary.Recipient = esc.Recipient
	summary.Amount = cloneBigInt(esc.Amount)
	return summary, nil
}

// VaultStats returns the aggregate projection. The holding balance is
// delegated to the ledger.
func (e *Engine) VaultStats() (*Stats, error) {
	if err := e.ensureConfigured(); err != nil {
		return nil, err
	}
	total, err := e.state.HTLCCount()
	if err != nil {
		return nil, err
	}
	balance, err := e.ledger.BalanceOf(e.state.HoldingAddress())
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalEscrows:   total,
		HoldingBalance: balance,
		CurrentHeight:  e.currentHeight(),
		Owner:          e.owner,
	}, nil
}
