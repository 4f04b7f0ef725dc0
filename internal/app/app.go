// Package app assembles the oracle pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"dream-oracle/internal/auth"
	"dream-oracle/internal/cards"
	"dream-oracle/internal/config"
	"dream-oracle/internal/emotion"
	"dream-oracle/internal/interpret"
	"dream-oracle/internal/keywords"
	"dream-oracle/internal/llm"
	"dream-oracle/internal/metrics"
	"dream-oracle/internal/notify"
	"dream-oracle/internal/oracle"
	"dream-oracle/internal/storage"
	"dream-oracle/internal/webpage"
)

// App holds every long-lived component. Transports are wired by the binaries.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Web        *webpage.Client
	Index      *keywords.Index
	Deck       *cards.Deck
	Classifier emotion.Classifier
	Fetcher    *interpret.Fetcher
	Recorder   storage.Recorder
	Misses     *storage.MissLog
	Reporter   *notify.MissReporter
	Auth       *auth.Service
	Service    *oracle.Service
	Handler    *oracle.Handler
}

// Build loads the data files and constructs the pipeline. Any error is a configuration error.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, notifier notify.Notifier) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	repo, err := keywords.NewFileRepository(cfg.KeywordsPath)
	if err != nil {
		return nil, fmt.Errorf("keyword index: %w", err)
	}
	a.Index, err = keywords.NewIndex(repo, keywords.WithSuggestions(cfg.SuggestLimit, cfg.SuggestCutoff))
	if err != nil {
		return nil, fmt.Errorf("keyword index %s: %w", cfg.KeywordsPath, err)
	}
	logger.Info("📚 keyword index loaded", zap.String("path", cfg.KeywordsPath), zap.Int("keywords", a.Index.Len()))

	a.Deck, err = cards.LoadDeck(cfg.CardsPath,
		cards.WithPolicy(cards.FallbackPolicy(cfg.CardFallback)),
		cards.WithSynonyms(cards.DefaultSynonyms()),
		cards.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("card deck %s: %w", cfg.CardsPath, err)
	}
	if a.Deck.Len() == 0 {
		logger.Warn("⚠️ card deck is empty, every draw uses the default card", zap.String("path", cfg.CardsPath))
	}
	logger.Info("🃏 card deck loaded", zap.Int("cards", a.Deck.Len()), zap.Strings("emotions", a.Deck.Emotions()))

	a.Classifier, err = newClassifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a.Web = webpage.New(cfg.FetchTimeout, cfg.FetchUserAgent)
	a.Fetcher = interpret.NewFetcher(a.Web, logger)

	a.Recorder, err = storage.Open(ctx, cfg.Recorder, cfg.RecordPath, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}

	a.Misses = storage.NewMissLog(cfg.MissingLogPath)
	a.Reporter = notify.NewMissReporter(a.Misses, notifier, logger).WithMetrics(a.Metrics)
	if counter, ok := a.Recorder.(storage.MissCounter); ok {
		a.Reporter.WithCounter(counter)
	}

	var adminRepo auth.Repository
	if cfg.AdminsPath != "" {
		r, err := auth.NewFileRepository(cfg.AdminsPath)
		if err != nil {
			logger.Warn("⚠️ admin file unavailable, using ADMIN_IDS only", zap.String("path", cfg.AdminsPath), zap.Error(err))
		} else {
			adminRepo = r
		}
	}
	a.Auth, err = auth.NewWithRepo(adminRepo, cfg.AdminIDs)
	if err != nil {
		return nil, fmt.Errorf("admins: %w", err)
	}
	if a.Auth.Open() {
		logger.Warn("⚠️ no administrators configured, anyone may add keywords")
	}

	a.Service = oracle.NewService(oracle.Deps{
		Resolver:   a.Index,
		Fetcher:    a.Fetcher,
		Classifier: a.Classifier,
		Deck:       a.Deck,
		Recorder:   a.Recorder,
		Misses:     a.Reporter,
		Metrics:    a.Metrics,
		Logger:     logger,
	})
	a.Handler = oracle.NewHandler(a.Service, a.Index, a.Auth, cfg.BaseURL, cfg.SegmentLimit, logger)
	return a, nil
}

func newClassifier(ctx context.Context, cfg *config.Config, logger *zap.Logger) (emotion.Classifier, error) {
	switch strings.ToLower(cfg.Classifier) {
	case "llm":
		client, err := llm.NewFactory(cfg).CreateClient(ctx, string(cfg.LLMProvider))
		if err != nil {
			return nil, fmt.Errorf("llm classifier: %w", err)
		}
		logger.Info("🤖 delegated emotion classifier", zap.String("provider", string(cfg.LLMProvider)))
		return emotion.NewDelegatedClassifier(emotion.NewLLMSummarizer(client), logger), nil
	case "rule", "":
		rules := emotion.DefaultRules()
		if cfg.RulesPath != "" {
			r, err := emotion.LoadRules(cfg.RulesPath)
			if err != nil {
				return nil, fmt.Errorf("emotion rules %s: %w", cfg.RulesPath, err)
			}
			rules = r
		}
		var tok emotion.Tokenizer
		if strings.EqualFold(cfg.Tokenizer, "gse") {
			t, err := emotion.NewGseTokenizer(rules.Keywords())
			if err != nil {
				return nil, fmt.Errorf("gse tokenizer: %w", err)
			}
			tok = t
		}
		logger.Info("📏 rule-based emotion classifier", zap.Int("rules", len(rules)), zap.String("tokenizer", cfg.Tokenizer))
		return emotion.NewRuleClassifier(rules, tok), nil
	default:
		return nil, fmt.Errorf("unknown classifier: %s", cfg.Classifier)
	}
}

// Reload rereads the keyword index and the card deck.
func (a *App) Reload() error {
	return errors.Join(a.Index.Reload(), a.Deck.Reload())
}

func (a *App) Close() error {
	if a.Recorder == nil {
		return nil
	}
	return a.Recorder.Close()
}
