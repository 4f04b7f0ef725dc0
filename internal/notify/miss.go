package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dream-oracle/internal/metrics"
	"dream-oracle/internal/storage"
)

const unknownRequester = "unknown"

// MissReporter records a missed keyword and tells the operator. It never fails the caller.
type MissReporter struct {
	log      *storage.MissLog
	counter  storage.MissCounter
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewMissReporter(log *storage.MissLog, notifier Notifier, logger *zap.Logger) *MissReporter {
	if notifier == nil {
		notifier = Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MissReporter{log: log, notifier: notifier, logger: logger}
}

// WithCounter also aggregates misses in a store that supports it.
func (r *MissReporter) WithCounter(c storage.MissCounter) *MissReporter {
	r.counter = c
	return r
}

func (r *MissReporter) WithMetrics(m *metrics.Metrics) *MissReporter {
	r.metrics = m
	return r
}

// Report appends to the miss log, then notifies best-effort. Every failure is logged locally.
func (r *MissReporter) Report(ctx context.Context, requesterID, keyword string, suggestions []string) {
	if r.log != nil {
		if err := r.log.Append(requesterID, keyword); err != nil {
			r.logger.Error("❌ failed to write miss log", zap.String("keyword", keyword), zap.Error(err))
		}
	}
	r.logger.Info("🕳️ keyword missed", zap.String("keyword", keyword), zap.String("requester", requesterID), zap.Strings("suggestions", suggestions))

	if r.counter != nil {
		if err := r.counter.IncrementMiss(ctx, keyword); err != nil {
			r.logger.Warn("⚠️ failed to count keyword miss", zap.String("keyword", keyword), zap.Error(err))
		}
	}

	err := r.notifier.Notify(ctx, MissMessage(requesterID, keyword, suggestions))
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConfigured):
		r.logger.Warn("⚠️ operator notifier not configured, skipping", zap.String("keyword", keyword))
	default:
		r.metrics.NotifyFailure()
		r.logger.Warn("⚠️ operator notification failed", zap.String("keyword", keyword), zap.Error(err))
	}
}

// MissMessage is the operator notification text.
func MissMessage(requesterID, keyword string, suggestions []string) string {
	if requesterID == "" {
		requesterID = unknownRequester
	}
	msg := fmt.Sprintf("🛑 使用者 %s 查詢「%s」，但查無解夢資料", requesterID, keyword)
	if len(suggestions) > 0 {
		msg += "\n🔎 相近關鍵字：" + strings.Join(suggestions, "、")
	}
	return msg
}
