package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteRecorder keeps entries in a single dream_logs table.
type SQLiteRecorder struct {
	db   *sql.DB
	path string
}

func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	// WAL mode for concurrent readers during appends
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &SQLiteRecorder{db: db, path: path}, nil
}

func (r *SQLiteRecorder) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS dream_logs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			timestamp TEXT NOT NULL,
			requester_id TEXT NOT NULL DEFAULT '',
			keyword TEXT NOT NULL,
			emotion TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			interpretation_text TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating dream_logs table: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Append(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dream_logs (id, timestamp, requester_id, keyword, emotion, title, message, interpretation_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.RequesterID, e.Keyword, e.Emotion, e.Title, e.Message, e.InterpretationText)
	if err != nil {
		return fmt.Errorf("inserting dream log: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, requester_id, keyword, emotion, title, message, interpretation_text
		FROM dream_logs ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying dream logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.RequesterID, &e.Keyword, &e.Emotion, &e.Title, &e.Message, &e.InterpretationText); err != nil {
			return nil, fmt.Errorf("scanning dream log: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
