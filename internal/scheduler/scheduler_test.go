package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dream-oracle/internal/storage"
)

type reloader struct {
	calls int
	err   error
}

func (r *reloader) Reload() error {
	r.calls++
	return r.err
}

type captureNotifier struct{ sent []string }

func (c *captureNotifier) Notify(_ context.Context, text string) error {
	c.sent = append(c.sent, text)
	return nil
}

func TestAdd_RejectsBadSchedule(t *testing.T) {
	s := New(time.UTC, nil)
	err := s.Add(Job{Name: "x", Schedule: "not a cron", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestAdd_EmptyScheduleDisables(t *testing.T) {
	s := New(time.UTC, nil)
	require.NoError(t, s.Add(Job{Name: "x", Run: func(context.Context) error { return nil }}))
	assert.False(t, s.IsRunning())
	assert.Error(t, s.RunNow("x"))
}

func TestReloadJob_RunsAllTables(t *testing.T) {
	a := &reloader{err: errors.New("bad json")}
	b := &reloader{}
	s := New(time.UTC, nil)
	require.NoError(t, s.Add(ReloadJob("@every 10m", a, b)))
	assert.True(t, s.IsRunning())

	err := s.RunNow(JobReload)

	assert.ErrorContains(t, err, "bad json")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestDigestJob(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	rec := storage.NewFileRecorder(filepath.Join(dir, "logs.jsonl"))
	require.NoError(t, rec.Init(ctx))
	require.NoError(t, rec.Append(ctx, storage.NewEntry("U1", "蛇", "恐懼", "勇氣", "點燈", "夢見蛇")))
	ml := storage.NewMissLog(filepath.Join(dir, "missing_keywords.log"))
	require.NoError(t, ml.Append("U2", "火鍋寶寶外星人"))

	n := &captureNotifier{}
	s := New(time.UTC, nil)
	require.NoError(t, s.Add(DigestJob("0 21 * * *", rec, ml, n, nil)))

	require.NoError(t, s.RunNow(JobDigest))
	require.Len(t, n.sent, 1)
	assert.True(t, strings.Contains(n.sent[0], "解夢次數：1"))
	assert.True(t, strings.Contains(n.sent[0], "火鍋寶寶外星人"))
}

func TestDigestJob_QuietDayIsSkipped(t *testing.T) {
	n := &captureNotifier{}
	job := DigestJob("0 21 * * *", nil, nil, n, func() time.Time { return time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC) })

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, n.sent)
}
