package tracker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
	"github.com/alanyoungcy/whalecopybot/internal/platform/polymarket"
)

// MarketResolver looks up market metadata by condition ID. Satisfied by
// polymarket.GammaClient.
type MarketResolver interface {
	GetMarket(ctx context.Context, conditionID string) (polymarket.MarketInfo, error)
}

// TitleEnricher fills in missing market titles from the Gamma API. Lookups
// are cached per condition ID for the life of the process; the feeds mostly
// repeat the same handful of markets.
type TitleEnricher struct {
	resolver MarketResolver
	log      *slog.Logger

	mu     sync.Mutex
	titles map[string]string
}

// NewTitleEnricher creates a TitleEnricher backed by the given resolver.
func NewTitleEnricher(resolver MarketResolver, log *slog.Logger) *TitleEnricher {
	return &TitleEnricher{
		resolver: resolver,
		log:      log.With("component", "enricher"),
		titles:   make(map[string]string),
	}
}

// Enrich replaces placeholder titles with the market question where a market
// ID is available. Enrichment is best effort: lookup failures leave the
// placeholder in place and are not cached.
func (e *TitleEnricher) Enrich(ctx context.Context, trades []domain.WhaleTrade) {
	for i := range trades {
		t := &trades[i]
		if t.MarketID == "" || (t.MarketTitle != "" && t.MarketTitle != "Unknown") {
			continue
		}
		if title, ok := e.lookup(ctx, t.MarketID); ok {
			t.MarketTitle = title
		}
	}
}

func (e *TitleEnricher) lookup(ctx context.Context, marketID string) (string, bool) {
	e.mu.Lock()
	title, ok := e.titles[marketID]
	e.mu.Unlock()
	if ok {
		return title, true
	}

	info, err := e.resolver.GetMarket(ctx, marketID)
	if err != nil {
		e.log.Debug("market lookup failed", "market_id", marketID, "error", err)
		return "", false
	}

	e.mu.Lock()
	e.titles[marketID] = info.Question
	e.mu.Unlock()
	return info.Question, true
}
