package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const anonymousRequester = "anonymous"

// Miss is one line of the missing-keyword log.
type Miss struct {
	Timestamp   time.Time
	RequesterID string
	Keyword     string
}

// MissCounter is implemented by stores that also aggregate misses per keyword.
type MissCounter interface {
	IncrementMiss(ctx context.Context, keyword string) error
}

// MissLog appends "YYYY-MM-DD HH:MM:SS | requester | keyword" lines to a text file.
type MissLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewMissLog(path string) *MissLog {
	return &MissLog{path: path, now: time.Now}
}

func (l *MissLog) Path() string { return l.path }

func (l *MissLog) Append(requesterID, keyword string) error {
	if requesterID == "" {
		requesterID = anonymousRequester
	}
	line := fmt.Sprintf("%s | %s | %s\n", l.now().Format(TimestampLayout), requesterID, keyword)

	l.mu.Lock()
	defer l.mu.Unlock()
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure dir: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open miss log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write miss log: %w", err)
	}
	return nil
}

// ReadAll returns the raw log text. A missing file reads as empty.
func (l *MissLog) ReadAll() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read miss log: %w", err)
	}
	return string(data), nil
}

// Entries parses the log. Malformed lines are skipped.
func (l *MissLog) Entries() ([]Miss, error) {
	raw, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []Miss
	s := bufio.NewScanner(strings.NewReader(raw))
	for s.Scan() {
		parts := strings.SplitN(s.Text(), " | ", 3)
		if len(parts) != 3 {
			continue
		}
		ts, err := time.ParseInLocation(TimestampLayout, parts[0], time.Local)
		if err != nil {
			continue
		}
		out = append(out, Miss{Timestamp: ts, RequesterID: parts[1], Keyword: parts[2]})
	}
	return out, s.Err()
}
