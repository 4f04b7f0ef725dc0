package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimestampLayout is the wall-clock format of the flat files.
const TimestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"timestamp", "requester_id", "keyword", "emotion", "title", "message", "dream_text"}

// CSVRecorder is the flat-file recorder. The header is written once, when the file is created.
type CSVRecorder struct {
	path string
	mu   sync.Mutex
}

func NewCSVRecorder(path string) *CSVRecorder {
	return &CSVRecorder{path: path}
}

func (r *CSVRecorder) Init(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", r.path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (r *CSVRecorder) Append(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{
		e.Timestamp.Local().Format(TimestampLayout),
		e.RequesterID,
		e.Keyword,
		e.Emotion,
		e.Title,
		e.Message,
		e.InterpretationText,
	}); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (r *CSVRecorder) List(context.Context) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer f.Close()
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	var entries []Entry
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < len(csvHeader) {
			continue
		}
		ts, _ := time.ParseInLocation(TimestampLayout, rec[0], time.Local)
		entries = append(entries, Entry{
			Timestamp:          ts,
			RequesterID:        rec[1],
			Keyword:            rec[2],
			Emotion:            rec[3],
			Title:              rec[4],
			Message:            rec[5],
			InterpretationText: rec[6],
		})
	}
	return entries, nil
}

func (r *CSVRecorder) Close() error { return nil }
