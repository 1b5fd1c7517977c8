package copier

import (
	"testing"
	"time"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

func TestSessionDailyRollover(t *testing.T) {
	s := NewSession()
	now := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.day = midnight(now)

	trade := domain.WhaleTrade{AssetID: "0xTOK", Side: domain.SideBuy}
	s.Record(domain.NewCopiedTrade(trade, 10, true))
	s.Record(domain.NewCopiedTrade(trade, 10, true))
	if got := s.TradesToday(); got != 2 {
		t.Fatalf("TradesToday() = %d, want 2", got)
	}

	// Cross UTC midnight: the daily counter resets, the total survives.
	now = now.Add(15 * time.Minute)
	if got := s.TradesToday(); got != 0 {
		t.Errorf("TradesToday() after rollover = %d, want 0", got)
	}
	if got := s.TotalCopied(); got != 2 {
		t.Errorf("TotalCopied() = %d, want 2", got)
	}
}

func TestSessionSeedToday(t *testing.T) {
	s := NewSession()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.day = midnight(now)

	// A restart mid-day restores the quota spent before it.
	s.SeedToday(3)
	if got := s.TradesToday(); got != 3 {
		t.Fatalf("TradesToday() after seed = %d, want 3", got)
	}

	// Seeding never lowers a count already accumulated locally.
	trade := domain.WhaleTrade{AssetID: "0xTOK", Side: domain.SideBuy}
	s.Record(domain.NewCopiedTrade(trade, 10, true))
	s.SeedToday(2)
	if got := s.TradesToday(); got != 4 {
		t.Errorf("TradesToday() after lower seed = %d, want 4", got)
	}

	// The seeded count rolls over with the UTC date like any other.
	now = now.Add(13 * time.Hour)
	if got := s.TradesToday(); got != 0 {
		t.Errorf("TradesToday() after rollover = %d, want 0", got)
	}
}

func TestSessionFailuresDoNotCount(t *testing.T) {
	s := NewSession()
	trade := domain.WhaleTrade{AssetID: "0xTOK", Side: domain.SideBuy}

	s.Record(domain.NewCopiedTrade(trade, 10, false))
	s.Record(domain.NewCopiedTrade(trade, 10, true))

	if s.TradesToday() != 1 || s.TotalCopied() != 1 {
		t.Errorf("TradesToday = %d, TotalCopied = %d, want 1/1", s.TradesToday(), s.TotalCopied())
	}
	if s.Successes() != 1 || s.Failures() != 1 {
		t.Errorf("Successes = %d, Failures = %d, want 1/1", s.Successes(), s.Failures())
	}
	if len(s.Ledger()) != 2 {
		t.Errorf("Ledger() len = %d, want 2", len(s.Ledger()))
	}
}

func TestSessionLedgerIsACopy(t *testing.T) {
	s := NewSession()
	trade := domain.WhaleTrade{AssetID: "0xTOK", Side: domain.SideBuy}
	s.Record(domain.NewCopiedTrade(trade, 10, true))

	got := s.Ledger()
	got[0].Success = false
	if !s.Ledger()[0].Success {
		t.Error("mutating the returned ledger affected the session")
	}
}
