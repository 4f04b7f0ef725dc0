// Package scheduler runs the periodic index reload and the daily digest.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	jobs   []Job
	logger *zap.Logger
}

func New(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Add registers a job. An empty schedule disables it.
func (s *Scheduler) Add(j Job) error {
	if j.Schedule == "" || j.Run == nil {
		s.logger.Info("⏸️ job disabled", zap.String("job", j.Name))
		return nil
	}
	_, err := s.cron.AddFunc(j.Schedule, func() { s.run(j) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", j.Name, j.Schedule, err)
	}
	s.jobs = append(s.jobs, j)
	return nil
}

func (s *Scheduler) run(j Job) {
	start := time.Now()
	if err := j.Run(s.ctx); err != nil {
		s.logger.Error("❌ scheduled job failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	s.logger.Info("🕘 scheduled job done", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
}

// RunNow executes a registered job immediately, outside the cron loop.
func (s *Scheduler) RunNow(name string) error {
	for _, j := range s.jobs {
		if j.Name == name {
			return j.Run(s.ctx)
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) Start() {
	if len(s.jobs) == 0 {
		s.logger.Warn("⚠️ no jobs registered, scheduler idle")
	}
	s.cron.Start()
	s.logger.Info("📅 scheduler started", zap.Int("jobs", len(s.jobs)))
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("📅 scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
