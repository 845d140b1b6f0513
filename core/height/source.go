package height

import (
	"sync"
	"time"
)

// Source exposes the external block height. Implementations must be
// monotonically non-decreasing; consumers can never set or predict readings.
type Source interface {
	CurrentHeight() uint64
}

// IntervalSource derives the height from wall-clock time: one height unit per
// block interval elapsed since genesis. Readings are clamped so the height
// never goes backwards even if the system clock does.
type IntervalSource struct {
	mu       sync.Mutex
	genesis  time.Time
	interval time.Duration
	last     uint64
	nowFn    func() time.Time
}

func NewIntervalSource(genesis time.Time, interval time.Duration) *IntervalSource {
	if interval <= 0 {
		interval = time.Second
	}
	return &IntervalSource{genesis: genesis, interval: interval, nowFn: time.Now}
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (s *IntervalSource) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	s.nowFn = now
}

func (s *IntervalSource) CurrentHeight() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := s.nowFn().Sub(s.genesis)
	if elapsed < 0 {
		return s.last
	}
	current := uint64(elapsed / s.interval)
	if current > s.last {
		s.last = current
	}
	return s.last
}

// ManualSource is a hand-driven height counter for tests and tooling.
type ManualSource struct {
	mu     sync.Mutex
	height uint64
}

func NewManualSource(height uint64) *ManualSource {
	return &ManualSource{height: height}
}

func (s *ManualSource) CurrentHeight() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// Set moves the height forward. Attempts to move it backwards are ignored to
// preserve monotonicity.
func (s *ManualSource) Set(height uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if height > s.height {
		s.height = height
	}
}

// Advance bumps the height by delta units.
func (s *ManualSource) Advance(delta uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height += delta
}
