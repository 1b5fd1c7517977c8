package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

// LedgerArchiver uploads periodic snapshots of the copy ledger to an
// S3-compatible bucket as JSONL. Snapshots are append-only history: nothing
// is deleted from the primary store.
type LedgerArchiver struct {
	writer   domain.BlobWriter
	ledger   domain.LedgerStore
	interval time.Duration
	log      *slog.Logger
}

// NewLedgerArchiver creates a LedgerArchiver that snapshots every interval.
func NewLedgerArchiver(writer domain.BlobWriter, ledger domain.LedgerStore, interval time.Duration, log *slog.Logger) *LedgerArchiver {
	return &LedgerArchiver{
		writer:   writer,
		ledger:   ledger,
		interval: interval,
		log:      log.With("component", "archiver"),
	}
}

// Archive serializes the full copy ledger to JSONL and uploads it keyed by
// the snapshot time, e.g. ledger/2026/01/15/093000.jsonl.
func (a *LedgerArchiver) Archive(ctx context.Context, at time.Time) (int, error) {
	entries, err := a.ledger.Recent(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive ledger query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive ledger marshal: %w", err)
	}

	path := at.UTC().Format("ledger/2006/01/02/150405.jsonl")
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive ledger upload: %w", err)
	}

	a.log.Info("ledger snapshot uploaded", "path", path, "entries", len(entries))
	return len(entries), nil
}

// RunLoop snapshots on the configured interval until the context is
// cancelled. Upload failures are logged and retried on the next tick.
func (a *LedgerArchiver) RunLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			if _, err := a.Archive(ctx, t); err != nil {
				a.log.Error("ledger snapshot failed", "error", err)
			}
		}
	}
}

// marshalJSONL serializes a slice of records as newline-delimited JSON.
func marshalJSONL(entries []domain.CopiedTrade) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
