// Package copier turns whale trades into mirrored orders: it decides which
// trades qualify, executes them at a fixed notional, and keeps the session
// ledger and daily quota.
package copier

import (
	"context"
	"log/slog"
)

// OrderGateway executes mirrored orders. The live implementation wraps the
// CLOB client; watch mode substitutes a gateway that only records.
type OrderGateway interface {
	// Initialize prepares the gateway for trading (credential derivation,
	// allowance checks). Called once before the first order.
	Initialize(ctx context.Context) error
	// Buy spends amountUSD on the given outcome token at market.
	Buy(ctx context.Context, tokenID string, amountUSD float64) error
	// Sell disposes of amountUSD worth of the given outcome token.
	Sell(ctx context.Context, tokenID string, amountUSD float64) error
	Close() error
}

// WatchGateway is an OrderGateway that never touches the exchange. Every
// order is acknowledged and logged, which makes it the default for new
// deployments until the operator flips the mode to live.
type WatchGateway struct {
	log *slog.Logger
}

// NewWatchGateway creates the no-op gateway.
func NewWatchGateway(log *slog.Logger) *WatchGateway {
	return &WatchGateway{log: log.With("component", "gateway", "mode", "watch")}
}

func (g *WatchGateway) Initialize(ctx context.Context) error { return nil }

func (g *WatchGateway) Buy(ctx context.Context, tokenID string, amountUSD float64) error {
	g.log.Info("would buy", "token_id", tokenID, "amount_usd", amountUSD)
	return nil
}

func (g *WatchGateway) Sell(ctx context.Context, tokenID string, amountUSD float64) error {
	g.log.Info("would sell", "token_id", tokenID, "amount_usd", amountUSD)
	return nil
}

func (g *WatchGateway) Close() error { return nil }
