// Package history records a summary of every run in Postgres so price trends
// can be followed across weeks.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharmasatrya/weekendfares/internal/aggregator"
	"github.com/dharmasatrya/weekendfares/internal/models"
)

// PgxIface is the subset of *pgxpool.Pool the store needs.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS flight_runs (
	run_id       TEXT PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	origin       TEXT NOT NULL,
	calls_used   INTEGER NOT NULL,
	quote_count  INTEGER NOT NULL,
	min_price    DOUBLE PRECISION,
	mean_price   DOUBLE PRECISION
);
CREATE TABLE IF NOT EXISTS flight_run_destinations (
	run_id      TEXT NOT NULL REFERENCES flight_runs(run_id) ON DELETE CASCADE,
	destination TEXT NOT NULL,
	quote_count INTEGER NOT NULL,
	min_price   DOUBLE PRECISION NOT NULL,
	mean_price  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, destination)
);`

const (
	insertRunSQL = `INSERT INTO flight_runs (run_id, generated_at, origin, calls_used, quote_count, min_price, mean_price)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertDestinationSQL = `INSERT INTO flight_run_destinations (run_id, destination, quote_count, min_price, mean_price)
VALUES ($1, $2, $3, $4, $5)`

	trendSQL = `SELECT r.generated_at, d.quote_count, d.min_price, d.mean_price
FROM flight_run_destinations d
JOIN flight_runs r ON r.run_id = d.run_id
WHERE d.destination = $1
ORDER BY r.generated_at DESC
LIMIT $2`
)

var ErrMissingRunID = errors.New("report has no run id")

// TrendPoint is one destination's prices in one past run.
type TrendPoint struct {
	GeneratedAt time.Time `json:"generated_at"`
	QuoteCount  int       `json:"quote_count"`
	MinPrice    float64   `json:"min_price"`
	MeanPrice   float64   `json:"mean_price"`
}

type Store struct {
	pool PgxIface
}

func New(pool PgxIface) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	return New(pool), nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Record stores the run summary and one row per destination with quotes.
func (s *Store) Record(ctx context.Context, report models.Report) error {
	if report.Metadata.RunID == "" {
		return ErrMissingRunID
	}

	var minPrice, meanPrice *float64
	if report.Statistics.HasData {
		minPrice = &report.Statistics.Overall.Min
		meanPrice = &report.Statistics.Overall.Mean
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}

	_, err = tx.Exec(ctx, insertRunSQL,
		report.Metadata.RunID,
		report.Metadata.GeneratedAt,
		report.Metadata.Origin,
		report.Diagnostics.CallsUsed,
		len(report.Quotes),
		minPrice,
		meanPrice,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("insert run: %w", err)
	}

	for _, key := range aggregator.DestinationOrder(report) {
		stats := report.Statistics.ByDestination[key]
		if _, err := tx.Exec(ctx, insertDestinationSQL, report.Metadata.RunID, key, stats.Count, stats.Min, stats.Mean); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("insert destination %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// Trend returns the most recent runs for a destination, newest first.
func (s *Store) Trend(ctx context.Context, destination string, limit int) ([]TrendPoint, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx, trendSQL, destination, limit)
	if err != nil {
		return nil, fmt.Errorf("query trend: %w", err)
	}
	defer rows.Close()

	points := make([]TrendPoint, 0, limit)
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.GeneratedAt, &p.QuoteCount, &p.MinPrice, &p.MeanPrice); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trend: %w", err)
	}
	return points, nil
}
