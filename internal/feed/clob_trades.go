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

// Source names for the two CLOB trade feeds.
const (
	SourceClobMaker = "clob-maker"
	SourceClobTaker = "clob-taker"
)

// ClobMakerFeed polls /trades filtered by maker address: fills where the
// whale's resting order was hit.
type ClobMakerFeed struct {
	baseURL     string
	wallet      string
	limit       int
	minTradeUSD float64
	httpClient  *http.Client
	seen        *seenSet
}

// NewClobMakerFeed creates an adapter for maker-side CLOB fills.
// baseURL is the CLOB root, e.g. "https://clob.polymarket.com".
func NewClobMakerFeed(baseURL, wallet string, limit int, minTradeUSD float64) *ClobMakerFeed {
	return &ClobMakerFeed{
		baseURL:     baseURL,
		wallet:      strings.ToLower(wallet),
		limit:       limit,
		minTradeUSD: minTradeUSD,
		httpClient:  newHTTPClient(),
		seen:        newSeenSet(),
	}
}

func (f *ClobMakerFeed) Name() string { return SourceClobMaker }

func (f *ClobMakerFeed) Poll(ctx context.Context) ([]domain.WhaleTrade, error) {
	params := url.Values{}
	params.Set("maker_address", f.wallet)
	params.Set("limit", strconv.Itoa(f.limit))

	body, err := doGet(ctx, f.httpClient, f.baseURL+"/trades?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("feed/clob-maker: %w", err)
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, fmt.Errorf("feed/clob-maker: %w", err)
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

func (f *ClobMakerFeed) normalize(item record) (domain.WhaleTrade, bool) {
	// The maker feed has no non-trade records: a missing side means the
	// counterparty took liquidity, and is_taker_buy tells the direction.
	var side domain.TradeSide
	switch strings.ToUpper(item.str("side")) {
	case "BUY":
		side = domain.SideBuy
	case "SELL":
		side = domain.SideSell
	default:
		if item.boolOr(true, "is_taker_buy") {
			side = domain.SideBuy
		} else {
			side = domain.SideSell
		}
	}

	size := item.firstNonZero("size", "amount")
	price := item.numOr(0.5, "price")
	amount := clobNotional(size, price)
	if amount < f.minTradeUSD {
		return domain.WhaleTrade{}, false
	}

	assetID := item.str("asset_id", "token_id", "market_id")
	if assetID == "" {
		return domain.WhaleTrade{}, false
	}

	return domain.WhaleTrade{
		Source:        SourceClobMaker,
		SourceTradeID: item.str("id", "trade_id"),
		Timestamp:     item.str("timestamp", "created_at"),
		MarketID:      item.str("condition_id", "market"),
		MarketTitle:   item.strOr("Unknown", "market_slug", "title"),
		Side:          side,
		Outcome:       outcomeFromIndex(item),
		AmountUSD:     amount,
		Price:         price,
		AssetID:       assetID,
	}, true
}

// ClobTakerFeed polls /trades filtered by taker address: fills where the
// whale crossed the spread.
type ClobTakerFeed struct {
	baseURL     string
	wallet      string
	limit       int
	minTradeUSD float64
	httpClient  *http.Client
	seen        *seenSet
}

// NewClobTakerFeed creates an adapter for taker-side CLOB fills.
func NewClobTakerFeed(baseURL, wallet string, limit int, minTradeUSD float64) *ClobTakerFeed {
	return &ClobTakerFeed{
		baseURL:     baseURL,
		wallet:      strings.ToLower(wallet),
		limit:       limit,
		minTradeUSD: minTradeUSD,
		httpClient:  newHTTPClient(),
		seen:        newSeenSet(),
	}
}

func (f *ClobTakerFeed) Name() string { return SourceClobTaker }

func (f *ClobTakerFeed) Poll(ctx context.Context) ([]domain.WhaleTrade, error) {
	params := url.Values{}
	params.Set("taker_address", f.wallet)
	params.Set("limit", strconv.Itoa(f.limit))

	body, err := doGet(ctx, f.httpClient, f.baseURL+"/trades?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("feed/clob-taker: %w", err)
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, fmt.Errorf("feed/clob-taker: %w", err)
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

func (f *ClobTakerFeed) normalize(item record) (domain.WhaleTrade, bool) {
	// Taker fills always carry an explicit side; anything else is a SELL.
	side := domain.SideSell
	if strings.ToUpper(item.str("side")) == "BUY" {
		side = domain.SideBuy
	}

	size := item.firstNonZero("size")
	price := item.numOr(0.5, "price")
	amount := clobNotional(size, price)
	if amount < f.minTradeUSD {
		return domain.WhaleTrade{}, false
	}

	assetID := item.str("asset_id", "token_id")
	if assetID == "" {
		return domain.WhaleTrade{}, false
	}

	// Taker keys get their own namespace so a taker fill never collapses
	// with the maker-side view of the same composite.
	id := item.str("id")
	if id == "" {
		id = fmt.Sprintf("taker_%s_%s", item.str("timestamp"), assetID)
	}

	return domain.WhaleTrade{
		Source:        SourceClobTaker,
		SourceTradeID: id,
		Timestamp:     item.str("timestamp"),
		MarketID:      item.str("condition_id"),
		MarketTitle:   item.strOr("Unknown", "market_slug"),
		Side:          side,
		Outcome:       outcomeFromIndex(item),
		AmountUSD:     amount,
		Price:         price,
		AssetID:       assetID,
	}, true
}

// clobNotional converts a CLOB fill to USD. The endpoint reports share
// counts for large fills and USD for small ones; sizes above 10 are treated
// as shares and priced out.
func clobNotional(size, price float64) float64 {
	if size > 10 {
		return size * price
	}
	return size
}

func outcomeFromIndex(item record) string {
	if item.numOr(0, "outcome_index") == 0 {
		return "YES"
	}
	return "NO"
}
