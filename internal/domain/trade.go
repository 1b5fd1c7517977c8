package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TradeSide is the direction of a whale trade.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// WhaleTrade is a normalized trade observed on one of the public feeds.
// Every adapter lowers its own wire shape into this form before anything
// downstream sees it.
type WhaleTrade struct {
	Source        string
	SourceTradeID string
	// Timestamp is kept as the raw feed value. The feeds disagree on
	// units (seconds vs milliseconds) and the pipeline only ever uses
	// it as an opaque key component.
	Timestamp   string
	MarketID    string
	MarketTitle string
	Side        TradeSide
	Outcome     string
	AmountUSD   float64
	Price       float64
	AssetID     string
}

// Key returns the cross-source identity used for deduplication. Feeds
// that report the same trade under the same ID collapse to one key; the
// composite fallback deliberately omits the source so that two feeds
// reporting the same timestamp and asset also collapse.
func (t WhaleTrade) Key() string {
	if t.SourceTradeID != "" {
		return t.SourceTradeID
	}
	return fmt.Sprintf("%s_%s", t.Timestamp, t.AssetID)
}

// Replicable reports whether the trade carries enough identity to be
// mirrored. A trade without an asset ID can be displayed but not traded.
func (t WhaleTrade) Replicable() bool {
	return t.AssetID != ""
}

// CopiedTrade is a ledger entry for one replication attempt, successful
// or not.
type CopiedTrade struct {
	ID        uuid.UUID
	Whale     WhaleTrade
	AmountUSD float64
	Success   bool
	Timestamp time.Time
}

// NewCopiedTrade records an attempt to mirror w with the given notional.
func NewCopiedTrade(w WhaleTrade, amountUSD float64, success bool) CopiedTrade {
	return CopiedTrade{
		ID:        uuid.New(),
		Whale:     w,
		AmountUSD: amountUSD,
		Success:   success,
		Timestamp: time.Now().UTC(),
	}
}
