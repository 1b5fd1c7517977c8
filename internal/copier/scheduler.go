package copier

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/whalecopybot/internal/tracker"
)

// Scheduler drives the scan-and-copy loop: poll all feeds, mirror what is
// new, pause, repeat. Errors back the loop off without stopping it.
type Scheduler struct {
	aggregator *tracker.Aggregator
	engine     *Engine
	session    *Session

	pollInterval time.Duration
	errorBackoff time.Duration
	copyPacing   time.Duration
	statusEvery  int

	log *slog.Logger
}

// NewScheduler wires the aggregator and engine into the poll loop.
func NewScheduler(aggregator *tracker.Aggregator, engine *Engine, session *Session, pollInterval, errorBackoff, copyPacing time.Duration, statusEvery int, log *slog.Logger) *Scheduler {
	return &Scheduler{
		aggregator:   aggregator,
		engine:       engine,
		session:      session,
		pollInterval: pollInterval,
		errorBackoff: errorBackoff,
		copyPacing:   copyPacing,
		statusEvery:  statusEvery,
		log:          log.With("component", "scheduler"),
	}
}

// RunLoop runs scans until ctx is cancelled. The first scan happens
// immediately; a failed scan swaps the poll interval for the longer error
// backoff so a broken upstream is not hammered.
func (s *Scheduler) RunLoop(ctx context.Context) error {
	s.log.Info("scheduler started",
		"feeds", s.aggregator.SourceNames(),
		"poll_interval", s.pollInterval.String(),
	)

	scanCount := 0
	for {
		scanCount++

		wait := s.pollInterval
		if err := s.Scan(ctx); err != nil {
			if ctx.Err() != nil {
				s.log.Info("scheduler stopped")
				return ctx.Err()
			}
			s.log.Error("scan failed", "error", err.Error())
			wait = s.errorBackoff
		}

		if s.statusEvery > 0 && scanCount%s.statusEvery == 0 {
			s.logStatus()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Scan performs one poll-and-copy pass.
func (s *Scheduler) Scan(ctx context.Context) error {
	trades, err := s.aggregator.Scan(ctx)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}

	s.log.Info("new whale trades found", "count", len(trades))

	for i, t := range trades {
		if i > 0 && s.copyPacing > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.copyPacing):
			}
		}
		if _, err := s.engine.Copy(ctx, t); err != nil {
			s.log.Error("copy failed", "error", err.Error())
		}
	}
	return nil
}

func (s *Scheduler) logStatus() {
	s.log.Info("status",
		"uptime", s.session.Uptime().Round(time.Second).String(),
		"trades_today", s.session.TradesToday(),
		"total_copied", s.session.TotalCopied(),
		"failures", s.session.Failures(),
	)
}
