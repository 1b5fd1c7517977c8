package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

// SourceActivity identifies the data-api activity feed.
const SourceActivity = "activity"

// ActivityFeed polls the Polymarket data-api /activity endpoint for a
// wallet's recent on-chain activity. This is the richest of the feeds: it
// carries market titles and outcomes, but mixes trades with non-trade
// activity (splits, merges, redemptions) that has no usable side.
type ActivityFeed struct {
	baseURL     string
	wallet      string
	limit       int
	minTradeUSD float64
	httpClient  *http.Client
	seen        *seenSet
}

// NewActivityFeed creates an adapter for the data-api activity endpoint.
// baseURL is the data-api root, e.g. "https://data-api.polymarket.com".
func NewActivityFeed(baseURL, wallet string, limit int, minTradeUSD float64) *ActivityFeed {
	return &ActivityFeed{
		baseURL:     baseURL,
		wallet:      strings.ToLower(wallet),
		limit:       limit,
		minTradeUSD: minTradeUSD,
		httpClient:  newHTTPClient(),
		seen:        newSeenSet(),
	}
}

func (f *ActivityFeed) Name() string { return SourceActivity }

// Poll fetches the latest activity page and lowers each record into a
// WhaleTrade. Records without a resolvable side, below the size filter, or
// already yielded on an earlier poll are skipped silently.
func (f *ActivityFeed) Poll(ctx context.Context) ([]domain.WhaleTrade, error) {
	params := url.Values{}
	params.Set("address", f.wallet)
	params.Set("limit", strconv.Itoa(f.limit))

	body, err := doGet(ctx, f.httpClient, f.baseURL+"/activity?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("feed/activity: %w", err)
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, fmt.Errorf("feed/activity: %w", err)
	}

	trades := make([]domain.WhaleTrade, 0, len(items))
	for _, item := range items {
		t, ok := f.normalize(item)
		if !ok {
			continue
		}
		if !f.seen.admit(t.Key()) {
			continue
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func (f *ActivityFeed) normalize(item record) (domain.WhaleTrade, bool) {
	side, ok := resolveSide(item)
	if !ok {
		return domain.WhaleTrade{}, false
	}

	amount := item.firstNonZero("usdcSize", "value", "size")
	if amount < f.minTradeUSD {
		return domain.WhaleTrade{}, false
	}

	// The asset ID may legitimately be absent here; the decision engine
	// refuses to replicate such trades but they are still worth recording.
	assetID := item.str("asset", "assetId", "asset_id", "tokenId", "token_id", "outcomeTokenId")

	return domain.WhaleTrade{
		Source:        SourceActivity,
		SourceTradeID: item.str("id", "transactionHash"),
		Timestamp:     item.str("timestamp"),
		MarketID:      item.str("conditionId", "condition_id", "market"),
		MarketTitle:   item.strOr("Unknown", "title", "question", "marketTitle"),
		Side:          side,
		Outcome:       item.strOr("YES", "outcome", "outcomeName"),
		AmountUSD:     amount,
		Price:         item.numOr(0.5, "price"),
		AssetID:       assetID,
	}, true
}

// resolveSide extracts the trade direction: an explicit "side" field wins,
// otherwise the activity "type" is scanned for a BUY/SELL substring. Records
// with neither are non-trade activity.
func resolveSide(item record) (domain.TradeSide, bool) {
	switch strings.ToUpper(item.str("side")) {
	case "BUY":
		return domain.SideBuy, true
	case "SELL":
		return domain.SideSell, true
	}

	typ := strings.ToUpper(item.str("type"))
	switch {
	case strings.Contains(typ, "BUY"):
		return domain.SideBuy, true
	case strings.Contains(typ, "SELL"):
		return domain.SideSell, true
	}
	return "", false
}
