package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one completed oracle request. Entries are append-only.
type Entry struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	RequesterID        string    `json:"requester_id"`
	Keyword            string    `json:"keyword"`
	Emotion            string    `json:"emotion"`
	Title              string    `json:"title"`
	Message            string    `json:"message"`
	InterpretationText string    `json:"interpretation_text"`
}

// NewEntry stamps a fresh ID and the current time.
func NewEntry(requesterID, keyword, emotion, title, message, text string) Entry {
	return Entry{
		ID:                 uuid.NewString(),
		Timestamp:          time.Now().UTC(),
		RequesterID:        requesterID,
		Keyword:            keyword,
		Emotion:            emotion,
		Title:              title,
		Message:            message,
		InterpretationText: text,
	}
}

// Recorder persists entries.
// Init must be idempotent: calling it on an initialized store neither fails nor loses data.
// List returns entries in append order. Implementations must be safe for concurrent use.
type Recorder interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

const (
	KindCSV      = "csv"
	KindJSONL    = "jsonl"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// Open builds a recorder of the given kind and initializes it.
func Open(ctx context.Context, kind, path, databaseURL string) (Recorder, error) {
	var rec Recorder
	switch strings.ToLower(kind) {
	case KindCSV:
		rec = NewCSVRecorder(path)
	case KindJSONL:
		rec = NewFileRecorder(path)
	case KindSQLite:
		r, err := NewSQLiteRecorder(path)
		if err != nil {
			return nil, err
		}
		rec = r
	case KindPostgres:
		r, err := NewPostgresRecorder(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		rec = r
	default:
		return nil, fmt.Errorf("unknown recorder kind: %s", kind)
	}
	if err := rec.Init(ctx); err != nil {
		_ = rec.Close()
		return nil, fmt.Errorf("init %s recorder: %w", kind, err)
	}
	return rec, nil
}
