package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
	"github.com/alanyoungcy/whalecopybot/internal/feed"
)

type stubSource struct {
	name   string
	trades []domain.WhaleTrade
	err    error
	polls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Poll(ctx context.Context) ([]domain.WhaleTrade, error) {
	s.polls++
	return s.trades, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wt(source, id, asset string) domain.WhaleTrade {
	return domain.WhaleTrade{
		Source:        source,
		SourceTradeID: id,
		Timestamp:     "1714000000",
		Side:          domain.SideBuy,
		AmountUSD:     100,
		AssetID:       asset,
	}
}

func TestAggregatorScanMergesInFeedOrder(t *testing.T) {
	a1 := &stubSource{name: "a", trades: []domain.WhaleTrade{wt("a", "t1", "x"), wt("a", "t2", "y")}}
	b1 := &stubSource{name: "b", trades: []domain.WhaleTrade{wt("b", "t3", "z")}}
	agg := NewAggregator([]feed.Source{a1, b1}, NewMemoryRegistry(100), time.Hour, 0, discard())

	got, err := agg.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d trades, want 3", len(got))
	}
	if got[0].SourceTradeID != "t1" || got[2].SourceTradeID != "t3" {
		t.Errorf("order = %v", got)
	}
}

func TestAggregatorScanIsIdempotent(t *testing.T) {
	src := &stubSource{name: "a", trades: []domain.WhaleTrade{wt("a", "t1", "x")}}
	agg := NewAggregator([]feed.Source{src}, NewMemoryRegistry(100), time.Hour, 0, discard())
	ctx := context.Background()

	first, err := agg.Scan(ctx)
	if err != nil || len(first) != 1 {
		t.Fatalf("first Scan = %v, %v", first, err)
	}
	second, err := agg.Scan(ctx)
	if err != nil || len(second) != 0 {
		t.Fatalf("second Scan = %v, %v; want empty", second, err)
	}
}

func TestAggregatorCrossFeedDedup(t *testing.T) {
	// Two feeds report the same fill under the same ID; the first feed wins.
	shared := wt("a", "dup", "x")
	sharedB := shared
	sharedB.Source = "b"
	a1 := &stubSource{name: "a", trades: []domain.WhaleTrade{shared}}
	b1 := &stubSource{name: "b", trades: []domain.WhaleTrade{sharedB}}
	agg := NewAggregator([]feed.Source{a1, b1}, NewMemoryRegistry(100), time.Hour, 0, discard())

	got, err := agg.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d trades, want 1", len(got))
	}
	if got[0].Source != "a" {
		t.Errorf("winner = %q, want first feed", got[0].Source)
	}
}

func TestAggregatorToleratesPartialFailure(t *testing.T) {
	bad := &stubSource{name: "bad", err: errors.New("boom")}
	good := &stubSource{name: "good", trades: []domain.WhaleTrade{wt("good", "t1", "x")}}
	agg := NewAggregator([]feed.Source{bad, good}, NewMemoryRegistry(100), time.Hour, 0, discard())

	got, err := agg.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v, want nil on partial failure", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d trades, want 1 from surviving feed", len(got))
	}
}

func TestAggregatorFailsWhenAllFeedsFail(t *testing.T) {
	bad1 := &stubSource{name: "a", err: errors.New("boom-a")}
	bad2 := &stubSource{name: "b", err: errors.New("boom-b")}
	agg := NewAggregator([]feed.Source{bad1, bad2}, NewMemoryRegistry(100), time.Hour, 0, discard())

	if _, err := agg.Scan(context.Background()); err == nil {
		t.Fatal("Scan() = nil error when every feed failed")
	}
}

func TestAggregatorSourceNames(t *testing.T) {
	a1 := &stubSource{name: "a"}
	b1 := &stubSource{name: "b"}
	agg := NewAggregator([]feed.Source{a1, b1}, NewMemoryRegistry(10), time.Hour, 0, discard())

	names := agg.SourceNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("SourceNames() = %v", names)
	}
}
