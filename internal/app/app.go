// Package app provides the top-level application lifecycle for the whale
// copy bot. It wires together the trade feeds, dedup registry, ledger,
// gateway, and notifications, and runs the poll loop until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/whalecopybot/internal/config"
	"github.com/alanyoungcy/whalecopybot/internal/copier"
	"github.com/alanyoungcy/whalecopybot/internal/platform/polymarket"
	"github.com/alanyoungcy/whalecopybot/internal/tracker"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the copy
// loop and any background goroutines, and blocks until the context is
// cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("target_wallet", a.cfg.Copy.TargetWallet),
		slog.String("log_level", a.cfg.LogLevel),
	)
	defer a.Close()

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if len(deps.Sources) == 0 {
		return fmt.Errorf("app: no trade feeds enabled")
	}

	if err := deps.Gateway.Initialize(ctx); err != nil {
		return fmt.Errorf("app: initialize gateway: %w", err)
	}

	aggregator := tracker.NewAggregator(
		deps.Sources,
		deps.Registry,
		a.cfg.Copy.SeenTTL.Duration,
		a.cfg.Copy.FeedPacing.Duration,
		a.logger,
	)
	if a.cfg.Polymarket.GammaHost != "" {
		gamma := polymarket.NewGammaClient(a.cfg.Polymarket.GammaHost)
		aggregator.WithEnricher(tracker.NewTitleEnricher(gamma, a.logger))
	}
	session := copier.NewSession()
	if deps.Ledger != nil {
		// Restore today's spent quota so a restart cannot double the cap.
		now := time.Now().UTC()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		n, err := deps.Ledger.CountSince(ctx, dayStart, true)
		if err != nil {
			a.logger.WarnContext(ctx, "daily quota restore failed",
				slog.String("error", err.Error()),
			)
		} else {
			session.SeedToday(n)
		}
	}
	engine := copier.NewEngine(
		deps.Gateway,
		session,
		deps.Ledger,
		deps.Notifier,
		a.cfg.Copy.AmountUSD,
		a.cfg.Copy.MaxTradesPerDay,
		a.logger,
	)
	scheduler := copier.NewScheduler(
		aggregator,
		engine,
		session,
		a.cfg.Copy.PollInterval.Duration,
		a.cfg.Copy.ErrorBackoff.Duration,
		a.cfg.Copy.FeedPacing.Duration,
		a.cfg.Copy.StatusEvery,
		a.logger,
	)

	a.logger.InfoContext(ctx, "watching whale",
		slog.Any("feeds", aggregator.SourceNames()),
		slog.Float64("amount_usd", a.cfg.Copy.AmountUSD),
		slog.Int("max_trades_per_day", a.cfg.Copy.MaxTradesPerDay),
	)

	g, ctx := errgroup.WithContext(ctx)

	if deps.LiveFeed != nil {
		if err := deps.LiveFeed.Connect(ctx); err != nil {
			// The live stream is a supplement to the polled feeds; a failed
			// connection degrades coverage but does not stop the bot.
			a.logger.WarnContext(ctx, "live stream connect failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if deps.Archiver != nil {
		g.Go(func() error {
			if err := deps.Archiver.RunLoop(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := scheduler.RunLoop(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
