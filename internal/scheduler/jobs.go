package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dream-oracle/internal/analytics"
	"dream-oracle/internal/notify"
	"dream-oracle/internal/storage"
)

const (
	JobReload = "reload"
	JobDigest = "digest"
)

// Reloader rereads a file-backed table in place.
type Reloader interface {
	Reload() error
}

// ReloadJob rereads every table; one failure does not stop the others.
func ReloadJob(schedule string, tables ...Reloader) Job {
	return Job{
		Name:     JobReload,
		Schedule: schedule,
		Run: func(context.Context) error {
			var errs []error
			for _, t := range tables {
				if err := t.Reload(); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}
}

// DigestJob summarizes the current day and sends it through the notifier.
// Quiet days are skipped.
func DigestJob(schedule string, rec storage.Recorder, misses *storage.MissLog, n notify.Notifier, now func() time.Time) Job {
	if now == nil {
		now = time.Now
	}
	return Job{
		Name:     JobDigest,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			var entries []storage.Entry
			if rec != nil {
				var err error
				if entries, err = rec.List(ctx); err != nil {
					return fmt.Errorf("list entries: %w", err)
				}
			}
			var ms []storage.Miss
			if misses != nil {
				var err error
				if ms, err = misses.Entries(); err != nil {
					return fmt.Errorf("read misses: %w", err)
				}
			}
			stats := analytics.AnalyzeDaily(entries, ms, now())
			if stats.Empty() {
				return nil
			}
			return n.Notify(ctx, stats.Summary())
		},
	}
}
