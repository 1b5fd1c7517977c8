package domain

import (
	"context"
	"io"
	"time"
)

// SeenRegistry remembers trade keys the pipeline has already admitted.
// Admit must be atomic: exactly one caller wins for a given key.
type SeenRegistry interface {
	// Admit records key and reports whether it was new. A false return
	// means some earlier poll already claimed it.
	Admit(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// LedgerStore persists replication attempts.
type LedgerStore interface {
	Append(ctx context.Context, ct CopiedTrade) error
	Recent(ctx context.Context, limit int) ([]CopiedTrade, error)
	CountSince(ctx context.Context, since time.Time, successOnly bool) (int, error)
}

// BlobWriter uploads a single object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
