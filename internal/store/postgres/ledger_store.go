package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

// LedgerStore persists copied trades so quota accounting and history survive
// restarts. Implements domain.LedgerStore.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a LedgerStore backed by the given client.
func NewLedgerStore(client *Client) *LedgerStore {
	return &LedgerStore{pool: client.Pool()}
}

const ledgerSelectCols = `
	id, source, source_trade_id, whale_timestamp,
	market_id, market_title, side, outcome, asset_id,
	whale_amount_usd, price, copy_amount_usd, success, copied_at`

// Append records one copied trade.
func (s *LedgerStore) Append(ctx context.Context, trade domain.CopiedTrade) error {
	const query = `
		INSERT INTO copied_trades (
			id, source, source_trade_id, whale_timestamp,
			market_id, market_title, side, outcome, asset_id,
			whale_amount_usd, price, copy_amount_usd, success, copied_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14
		) ON CONFLICT (id) DO NOTHING`

	w := trade.Whale
	_, err := s.pool.Exec(ctx, query,
		trade.ID, w.Source, w.SourceTradeID, w.Timestamp,
		w.MarketID, w.MarketTitle, string(w.Side), w.Outcome, w.AssetID,
		w.AmountUSD, w.Price, trade.AmountUSD, trade.Success, trade.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: append copied trade: %w", err)
	}
	return nil
}

// Recent returns the most recent copied trades, newest first.
func (s *LedgerStore) Recent(ctx context.Context, limit int) ([]domain.CopiedTrade, error) {
	query := `SELECT ` + ledgerSelectCols + ` FROM copied_trades ORDER BY copied_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent copied trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanLedgerRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan copied trades: %w", err)
	}
	return trades, nil
}

// CountSince returns the number of copied trades recorded at or after since.
// With successOnly set, failed executions are excluded, matching the daily
// quota rule that only successful copies consume it.
func (s *LedgerStore) CountSince(ctx context.Context, since time.Time, successOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM copied_trades WHERE copied_at >= $1`
	if successOnly {
		query += ` AND success`
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count copied trades: %w", err)
	}
	return count, nil
}

func scanLedgerRows(rows pgx.Rows) ([]domain.CopiedTrade, error) {
	var trades []domain.CopiedTrade
	for rows.Next() {
		var t domain.CopiedTrade
		var side string
		if err := rows.Scan(
			&t.ID, &t.Whale.Source, &t.Whale.SourceTradeID, &t.Whale.Timestamp,
			&t.Whale.MarketID, &t.Whale.MarketTitle, &side, &t.Whale.Outcome, &t.Whale.AssetID,
			&t.Whale.AmountUSD, &t.Whale.Price, &t.AmountUSD, &t.Success, &t.Timestamp,
		); err != nil {
			return nil, err
		}
		t.Whale.Side = domain.TradeSide(side)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
