package height

import (
	"testing"
	"time"
)

func TestIntervalSourceDerivesHeightFromElapsedTime(t *testing.T) {
	genesis := time.Unix(1_700_000_000, 0)
	src := NewIntervalSource(genesis, 5*time.Second)

	now := genesis
	src.SetNowFunc(func() time.Time { return now })

	if got := src.CurrentHeight(); got != 0 {
		t.Fatalf("height at genesis: %d", got)
	}
	now = genesis.Add(4 * time.Second)
	if got := src.CurrentHeight(); got != 0 {
		t.Fatalf("height one interval short: %d", got)
	}
	now = genesis.Add(5 * time.Second)
	if got := src.CurrentHeight(); got != 1 {
		t.Fatalf("height at first interval: %d", got)
	}
	now = genesis.Add(52 * time.Second)
	if got := src.CurrentHeight(); got != 10 {
		t.Fatalf("height after 52s: %d", got)
	}
}

func TestIntervalSourceNeverGoesBackwards(t *testing.T) {
	genesis := time.Unix(1_700_000_000, 0)
	src := NewIntervalSource(genesis, time.Second)

	now := genesis.Add(30 * time.Second)
	src.SetNowFunc(func() time.Time { return now })
	if got := src.CurrentHeight(); got != 30 {
		t.Fatalf("height: %d", got)
	}

	// Clock skew moves wall time backwards; the reading must not follow.
	now = genesis.Add(10 * time.Second)
	if got := src.CurrentHeight(); got != 30 {
		t.Fatalf("height went backwards to %d", got)
	}
}

func TestManualSource(t *testing.T) {
	src := NewManualSource(100)
	if got := src.CurrentHeight(); got != 100 {
		t.Fatalf("height: %d", got)
	}
	src.Advance(5)
	if got := src.CurrentHeight(); got != 105 {
		t.Fatalf("height after advance: %d", got)
	}
	src.Set(90)
	if got := src.CurrentHeight(); got != 105 {
		t.Fatalf("manual source must ignore backwards sets, got %d", got)
	}
	src.Set(110)
	if got := src.CurrentHeight(); got != 110 {
		t.Fatalf("height after set: %d", got)
	}
}
