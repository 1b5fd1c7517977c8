package copier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
	"github.com/alanyoungcy/whalecopybot/internal/notify"
)

// Skip reasons reported by Decide.
const (
	SkipDailyLimit      = "daily-limit"
	SkipMissingIdentity = "missing-identity"
	SkipUnknownSide     = "unknown-side"
)

// Decision is the engine's verdict on one whale trade.
type Decision struct {
	Replicate bool
	// Reason names why a trade was skipped; empty when Replicate is true.
	Reason string
}

// Engine applies the replication policy and executes qualifying trades at a
// fixed notional through the configured gateway.
type Engine struct {
	gateway  OrderGateway
	session  *Session
	store    domain.LedgerStore // optional durable ledger
	notifier *notify.Notifier   // optional

	amountUSD       float64
	maxTradesPerDay int

	log *slog.Logger
}

// NewEngine creates the decision engine. store and notifier may be nil; the
// in-memory session ledger is always kept.
func NewEngine(gateway OrderGateway, session *Session, store domain.LedgerStore, notifier *notify.Notifier, amountUSD float64, maxTradesPerDay int, log *slog.Logger) *Engine {
	return &Engine{
		gateway:         gateway,
		session:         session,
		store:           store,
		notifier:        notifier,
		amountUSD:       amountUSD,
		maxTradesPerDay: maxTradesPerDay,
		log:             log.With("component", "copier"),
	}
}

// Decide applies the policy checks in order: daily quota, tradeable
// identity, then a recognizable side. The first failing check names the
// skip reason.
func (e *Engine) Decide(t domain.WhaleTrade) Decision {
	if e.session.TradesToday() >= e.maxTradesPerDay {
		return Decision{Reason: SkipDailyLimit}
	}
	if !t.Replicable() {
		return Decision{Reason: SkipMissingIdentity}
	}
	if t.Side != domain.SideBuy && t.Side != domain.SideSell {
		return Decision{Reason: SkipUnknownSide}
	}
	return Decision{Replicate: true}
}

// Copy mirrors one whale trade. Skipped trades leave no ledger entry;
// executed trades are recorded whether or not the order succeeded, and only
// successes consume daily quota. The returned bool reports execution
// success; the error is reserved for ledger persistence failures.
func (e *Engine) Copy(ctx context.Context, t domain.WhaleTrade) (bool, error) {
	d := e.Decide(t)
	if !d.Replicate {
		e.log.Info("skipping whale trade",
			"reason", d.Reason,
			"market", t.MarketTitle,
			"side", string(t.Side),
			"amount_usd", t.AmountUSD,
		)
		if d.Reason == SkipDailyLimit {
			e.notify(ctx, notify.EventDailyLimit, "Daily limit reached",
				fmt.Sprintf("Skipped %s %s on %q: daily cap hit", t.Side, t.Outcome, t.MarketTitle))
		}
		return false, nil
	}

	e.log.Info("copying whale trade",
		"market", t.MarketTitle,
		"side", string(t.Side),
		"outcome", t.Outcome,
		"whale_amount_usd", t.AmountUSD,
		"our_amount_usd", e.amountUSD,
		"price", t.Price,
	)

	var execErr error
	switch t.Side {
	case domain.SideBuy:
		execErr = e.gateway.Buy(ctx, t.AssetID, e.amountUSD)
	case domain.SideSell:
		execErr = e.gateway.Sell(ctx, t.AssetID, e.amountUSD)
	}

	success := execErr == nil
	ct := domain.NewCopiedTrade(t, e.amountUSD, success)
	e.session.Record(ct)

	if e.store != nil {
		if err := e.store.Append(ctx, ct); err != nil {
			return success, fmt.Errorf("copier: persist ledger entry: %w", err)
		}
	}

	if success {
		e.log.Info("trade copied",
			"side", string(t.Side),
			"token_id", t.AssetID,
			"trades_today", e.session.TradesToday(),
		)
		e.notify(ctx, notify.EventTradeCopied, "Trade copied",
			fmt.Sprintf("%s %s $%.2f on %q (whale traded $%.2f)", t.Side, t.Outcome, e.amountUSD, t.MarketTitle, t.AmountUSD))
	} else {
		e.log.Error("trade copy failed",
			"side", string(t.Side),
			"token_id", t.AssetID,
			"error", execErr,
		)
		e.notify(ctx, notify.EventError, "Trade copy failed",
			fmt.Sprintf("%s on %q failed: %v", t.Side, t.MarketTitle, execErr))
	}

	return success, nil
}

func (e *Engine) notify(ctx context.Context, event, title, message string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, event, title, message); err != nil {
		e.log.Warn("notification failed", "event", event, "error", err)
	}
}
