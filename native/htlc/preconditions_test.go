package htlc

import (
	"math/big"
	"testing"
)

func openEscrow(unlock uint64) *Escrow {
	return &Escrow{
		ID:           1,
		Amount:       big.NewInt(1),
		UnlockHeight: unlock,
		Status:       StatusOpen,
	}
}

func TestHeightGateBoundaries(t *testing.T) {
	esc := openEscrow(110)

	cases := []struct {
		name      string
		height    uint64
		canClaim  bool
		canRefund bool
		canCancel bool
	}{
		{"one unit early", 109, false, false, true},
		{"exactly at unlock", 110, true, true, false},
		{"past unlock", 111, true, true, false},
		{"zero height", 0, false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanClaim(esc, tc.height); got != tc.canClaim {
				t.Fatalf("CanClaim(%d) = %v, want %v", tc.height, got, tc.canClaim)
			}
			if got := CanRefund(esc, tc.height); got != tc.canRefund {
				t.Fatalf("CanRefund(%d) = %v, want %v", tc.height, got, tc.canRefund)
			}
			if got := CanCancel(esc, tc.height); got != tc.canCancel {
				t.Fatalf("CanCancel(%d) = %v, want %v", tc.height, got, tc.canCancel)
			}
		})
	}
}

func TestFinalizedBlocksAllTransitions(t *testing.T) {
	for _, status := range []Status{StatusClaimed, StatusRefunded} {
		esc := openEscrow(110)
		esc.Status = status
		if !Finalized(esc) {
			t.Fatalf("status %s should be finalized", status)
		}
		for _, h := range []uint64{0, 109, 110, 200} {
			if CanClaim(esc, h) || CanRefund(esc, h) || CanCancel(esc, h) {
				t.Fatalf("finalized escrow must reject every transition at height %d", h)
			}
		}
	}
}

func TestClaimedAndRefundedAreMutuallyExclusive(t *testing.T) {
	esc := openEscrow(10)
	esc.Status = StatusClaimed
	if esc.Claimed() && esc.Refunded() {
		t.Fatal("a record can never be both claimed and refunded")
	}
	esc.Status = StatusRefunded
	if esc.Claimed() && esc.Refunded() {
		t.Fatal("a record can never be both claimed and refunded")
	}
}

func TestNilSafety(t *testing.T) {
	if CanClaim(nil, 5) || CanRefund(nil, 5) || CanCancel(nil, 5) || HeightReached(nil, 5) {
		t.Fatal("nil escrow must satisfy no predicate")
	}
}
