package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"dream-oracle/migrations"
)

// PostgresRecorder stores entries in dream_logs and per-keyword miss counts in keyword_misses.
type PostgresRecorder struct {
	pool    *pgxpool.Pool
	connStr string
}

func NewPostgresRecorder(ctx context.Context, connString string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresRecorder{pool: pool, connStr: connString}, nil
}

// Init runs the embedded migrations. Already-applied migrations are a no-op.
func (r *PostgresRecorder) Init(context.Context) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, r.connStr)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Append(ctx context.Context, e Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dream_logs (id, timestamp, requester_id, keyword, emotion, title, message, interpretation_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.Timestamp, e.RequesterID, e.Keyword, e.Emotion, e.Title, e.Message, e.InterpretationText)
	if err != nil {
		return fmt.Errorf("failed to insert dream log: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, timestamp, requester_id, keyword, emotion, title, message, interpretation_text
		FROM dream_logs ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dream logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.RequesterID, &e.Keyword, &e.Emotion, &e.Title, &e.Message, &e.InterpretationText); err != nil {
			return nil, fmt.Errorf("failed to scan dream log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// IncrementMiss bumps the miss counter of keyword.
func (r *PostgresRecorder) IncrementMiss(ctx context.Context, keyword string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO keyword_misses (keyword, count, last_seen_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (keyword) DO UPDATE
		SET count = keyword_misses.count + 1, last_seen_at = NOW()
	`, keyword)
	if err != nil {
		return fmt.Errorf("failed to increment keyword miss: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
