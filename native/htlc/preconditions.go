package htlc

// Stateless predicates over (record, current height). The transition engine
// consults these before touching the ledger; the query layer reuses them so
// read-side answers and write-side gating can never drift apart.

// Finalized reports whether the record reached a terminal state.
func Finalized(e *Escrow) bool {
	return e.Claimed() || e.Refunded()
}

// HeightReached reports whether the unlock threshold has been met. The
// boundary is inclusive: claim and refund become legal exactly at the unlock
// height.
func HeightReached(e *Escrow, height uint64) bool {
	return e != nil && height >= e.UnlockHeight
}

// CanClaim reports whether a claim transition is currently legal, ignoring
// caller identity and the secret proof.
func CanClaim(e *Escrow, height uint64) bool {
	return e != nil && !Finalized(e) && HeightReached(e, height)
}

// CanRefund shares the claim height gate; refund differs only in who may call
// and in not requiring a preimage.
func CanRefund(e *Escrow, height uint64) bool {
	return e != nil && !Finalized(e) && HeightReached(e, height)
}

// CanCancel is the mutually-exclusive complement: before the unlock height
// only cancel is reachable, at or after it only claim/refund is.
func CanCancel(e *Escrow, height uint64) bool {
	return e != nil && !Finalized(e) && height < e.UnlockHeight
}
