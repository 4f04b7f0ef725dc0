// Package oracle runs the dream pipeline: resolve, fetch, classify, draw, record.
package oracle

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"dream-oracle/internal/cards"
	"dream-oracle/internal/emotion"
	"dream-oracle/internal/interpret"
	"dream-oracle/internal/keywords"
	"dream-oracle/internal/metrics"
	"dream-oracle/internal/storage"
	"dream-oracle/internal/validation"
)

const (
	MissTitle   = "無法對應情緒"
	MissMessage = "目前僅支援特定情緒，將為你抽一張隨機命定卡。"
)

type Resolver interface {
	Resolve(keyword string) (string, error)
	SuggestKeywords(keyword string) []string
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) interpret.Interpretation
}

type CardSelector interface {
	Select(label emotion.Label) cards.Selection
	Random() (cards.Card, bool)
}

type MissReporter interface {
	Report(ctx context.Context, requesterID, keyword string, suggestions []string)
}

type Request struct {
	Keyword     string
	RequesterID string
}

// Result has every field set on every path; Summary and Suggestions may be empty.
type Result struct {
	Keyword     string   `json:"keyword"`
	Text        string   `json:"text"`
	Summary     string   `json:"summary"`
	Emotion     string   `json:"emotion"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Image       string   `json:"image"`
	Missed      bool     `json:"missed"`
	Suggestions []string `json:"suggestions"`
}

type Service struct {
	resolver   Resolver
	fetcher    Fetcher
	classifier emotion.Classifier
	deck       CardSelector
	recorder   storage.Recorder
	misses     MissReporter
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

type Deps struct {
	Resolver   Resolver
	Fetcher    Fetcher
	Classifier emotion.Classifier
	Deck       CardSelector
	// Recorder and Misses are optional.
	Recorder storage.Recorder
	Misses   MissReporter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{
		resolver:   d.Resolver,
		fetcher:    d.Fetcher,
		classifier: d.Classifier,
		deck:       d.Deck,
		recorder:   d.Recorder,
		misses:     d.Misses,
		metrics:    d.Metrics,
		logger:     d.Logger,
	}
}

// Interpret never fails. A keyword that cannot be resolved or fetched takes the miss path.
func (s *Service) Interpret(ctx context.Context, req Request) Result {
	keyword := validation.NormalizeKeyword(req.Keyword)
	log := s.logger.With(zap.String("keyword", keyword), zap.String("requester", req.RequesterID))

	url, err := s.resolver.Resolve(keyword)
	if err != nil {
		if !errors.Is(err, keywords.ErrNotFound) {
			log.Warn("⚠️ resolver failed, treating as miss", zap.Error(err))
		}
		s.metrics.Lookup(metrics.OutcomeNotFound)
		return s.miss(ctx, req.RequesterID, keyword, interpret.MsgNotSupported, s.resolver.SuggestKeywords(keyword))
	}

	interp := s.fetcher.Fetch(ctx, url)
	if !interp.Supported {
		s.metrics.Lookup(metrics.OutcomeUnsupported)
		return s.miss(ctx, req.RequesterID, keyword, interp.Text, nil)
	}
	s.metrics.Lookup(metrics.OutcomeResolved)

	cls := s.classifier.Classify(ctx, interp.Text)
	sel := s.deck.Select(cls.Label)
	s.metrics.Emotion(string(cls.Label))
	switch {
	case sel.Repaired:
		s.metrics.CardDraw("repaired")
	case sel.Substitute:
		s.metrics.CardDraw("substitute")
	default:
		s.metrics.CardDraw("matched")
	}

	res := Result{
		Keyword:     keyword,
		Text:        interp.Text,
		Summary:     cls.Summary,
		Emotion:     string(cls.Label),
		Title:       sel.Card.Title,
		Message:     sel.Card.Message,
		Image:       sel.Card.Image,
		Suggestions: []string{},
	}
	log.Info("🔮 dream interpreted", zap.String("emotion", res.Emotion), zap.String("card", res.Title))
	s.record(ctx, req.RequesterID, res)
	return res
}

func (s *Service) miss(ctx context.Context, requesterID, keyword, text string, suggestions []string) Result {
	if s.misses != nil {
		s.misses.Report(ctx, requesterID, keyword, suggestions)
	}
	s.metrics.Emotion(string(emotion.Unknown))
	s.metrics.CardDraw("miss")

	card, ok := s.deck.Random()
	if !ok || card.Image == "" {
		card = cards.DefaultCard
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	res := Result{
		Keyword:     keyword,
		Text:        text,
		Emotion:     string(emotion.Unknown),
		Title:       MissTitle,
		Message:     MissMessage,
		Image:       card.Image,
		Missed:      true,
		Suggestions: suggestions,
	}
	s.record(ctx, requesterID, res)
	return res
}

// record swallows persistence failures; the reply must not depend on them.
func (s *Service) record(ctx context.Context, requesterID string, res Result) {
	if s.recorder == nil {
		return
	}
	entry := storage.NewEntry(requesterID, res.Keyword, res.Emotion, res.Title, res.Message, res.Text)
	if err := s.recorder.Append(ctx, entry); err != nil {
		s.metrics.RecordFailure()
		s.logger.Error("❌ failed to record result", zap.String("keyword", res.Keyword), zap.Error(err))
	}
}
