package copier

import (
	"sync"
	"time"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

// Session tracks the running totals for one bot lifetime: trades copied
// today against the daily cap, the all-time counter, and the in-memory
// ledger of every attempt. The daily counter resets when the UTC date
// rolls over; a restart mid-day starts fresh unless SeedToday restores
// the count from a durable ledger.
type Session struct {
	mu          sync.Mutex
	startedAt   time.Time
	day         time.Time // UTC midnight of the current quota day
	tradesToday int
	totalCopied int
	ledger      []domain.CopiedTrade

	now func() time.Time
}

// NewSession starts an empty session.
func NewSession() *Session {
	s := &Session{now: time.Now}
	n := s.now().UTC()
	s.startedAt = n
	s.day = midnight(n)
	return s
}

// TradesToday returns the successful replications so far in the current
// UTC day, rolling the counter when the day changed.
func (s *Session) TradesToday() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollLocked()
	return s.tradesToday
}

// TotalCopied returns the all-time successful replication count.
func (s *Session) TotalCopied() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCopied
}

// Uptime reports how long the session has been running.
func (s *Session) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().UTC().Sub(s.startedAt)
}

// SeedToday primes the daily counter, so quota already spent before a
// restart stays spent. Counts recorded locally since startup are kept if
// they are higher.
func (s *Session) SeedToday(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollLocked()
	if n > s.tradesToday {
		s.tradesToday = n
	}
}

// Record appends a replication attempt to the ledger. Only successful
// attempts consume quota.
func (s *Session) Record(ct domain.CopiedTrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollLocked()
	s.ledger = append(s.ledger, ct)
	if ct.Success {
		s.tradesToday++
		s.totalCopied++
	}
}

// Ledger returns a copy of every recorded attempt, oldest first.
func (s *Session) Ledger() []domain.CopiedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CopiedTrade, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// Successes and Failures split the ledger for the session summary.
func (s *Session) Successes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ct := range s.ledger {
		if ct.Success {
			n++
		}
	}
	return n
}

func (s *Session) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ct := range s.ledger {
		if !ct.Success {
			n++
		}
	}
	return n
}

func (s *Session) rollLocked() {
	today := midnight(s.now().UTC())
	if today.After(s.day) {
		s.day = today
		s.tradesToday = 0
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
