// Package metrics exposes the oracle's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Lookup outcomes.
const (
	OutcomeResolved    = "resolved"
	OutcomeNotFound    = "not_found"
	OutcomeUnsupported = "unsupported"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	lookups       *prometheus.CounterVec
	emotions      *prometheus.CounterVec
	cards         *prometheus.CounterVec
	recordErrors  prometheus.Counter
	notifyErrors  prometheus.Counter
	replySegments prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dream_oracle_keyword_lookups_total",
			Help: "Total keyword lookup count by outcome",
		}, []string{"outcome"}),
		emotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dream_oracle_emotions_total",
			Help: "Classified emotion labels",
		}, []string{"label"}),
		cards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dream_oracle_card_draws_total",
			Help: "Card draws by how the card was obtained",
		}, []string{"kind"}),
		recordErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dream_oracle_record_failures_total",
			Help: "Result records that could not be persisted",
		}),
		notifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dream_oracle_notify_failures_total",
			Help: "Operator notifications that could not be delivered",
		}),
		replySegments: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dream_oracle_reply_segments",
			Help:    "Number of text segments per reply",
			Buckets: []float64{1, 2, 3, 5, 8},
		}),
	}
	reg.MustRegister(m.lookups, m.emotions, m.cards, m.recordErrors, m.notifyErrors, m.replySegments)
	return m
}

func (m *Metrics) Lookup(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Emotion(label string) {
	if m == nil {
		return
	}
	m.emotions.WithLabelValues(label).Inc()
}

// CardDraw kind is one of matched, substitute, repaired, miss.
func (m *Metrics) CardDraw(kind string) {
	if m == nil {
		return
	}
	m.cards.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordFailure() {
	if m == nil {
		return
	}
	m.recordErrors.Inc()
}

func (m *Metrics) NotifyFailure() {
	if m == nil {
		return
	}
	m.notifyErrors.Inc()
}

func (m *Metrics) ReplySegments(n int) {
	if m == nil {
		return
	}
	m.replySegments.Observe(float64(n))
}
