package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
	"github.com/alanyoungcy/whalecopybot/internal/feed"
)

// Aggregator polls every configured feed in order and merges the results
// into one deduplicated stream. Feeds are polled sequentially with a pacing
// pause so one scan does not burst the upstream rate limits.
type Aggregator struct {
	sources  []feed.Source
	registry domain.SeenRegistry
	enricher *TitleEnricher // optional
	seenTTL  time.Duration
	pacing   time.Duration
	log      *slog.Logger
}

// NewAggregator wires the given sources to a seen-key registry. Sources are
// polled in the order given; earlier feeds win dedup ties.
func NewAggregator(sources []feed.Source, registry domain.SeenRegistry, seenTTL, pacing time.Duration, log *slog.Logger) *Aggregator {
	return &Aggregator{
		sources:  sources,
		registry: registry,
		seenTTL:  seenTTL,
		pacing:   pacing,
		log:      log.With("component", "tracker"),
	}
}

// WithEnricher attaches a title enricher applied to every admitted trade.
func (a *Aggregator) WithEnricher(e *TitleEnricher) *Aggregator {
	a.enricher = e
	return a
}

// Scan polls every source once and returns the trades not seen before, in
// feed order. A failing feed is logged and skipped; Scan only returns an
// error when every source failed, so one flaky endpoint cannot blind the
// others.
func (a *Aggregator) Scan(ctx context.Context) ([]domain.WhaleTrade, error) {
	var (
		out      []domain.WhaleTrade
		failures int
		lastErr  error
	)

	inBatch := make(map[string]struct{})

	for i, src := range a.sources {
		if i > 0 && a.pacing > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(a.pacing):
			}
		}

		trades, err := src.Poll(ctx)
		if err != nil {
			failures++
			lastErr = err
			a.log.Warn("feed poll failed", "feed", src.Name(), "error", err)
			continue
		}

		for _, t := range trades {
			key := t.Key()
			if _, dup := inBatch[key]; dup {
				continue
			}
			inBatch[key] = struct{}{}

			admitted, err := a.registry.Admit(ctx, key, a.seenTTL)
			if err != nil {
				return out, fmt.Errorf("tracker: admit %s: %w", key, err)
			}
			if !admitted {
				continue
			}
			out = append(out, t)
		}
	}

	if failures == len(a.sources) && failures > 0 {
		return nil, fmt.Errorf("tracker: all feeds failed: %w", lastErr)
	}

	if a.enricher != nil {
		a.enricher.Enrich(ctx, out)
	}
	return out, nil
}

// SourceNames lists the configured feeds in poll order.
func (a *Aggregator) SourceNames() []string {
	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		names = append(names, s.Name())
	}
	return names
}
