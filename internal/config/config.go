package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
	ProviderGemini LLMProvider = "gemini"
)

// ErrMissing marks a required setting that is absent. The process must not start.
var ErrMissing = errors.New("required configuration missing")

type Config struct {
	// Server
	ServerAddr string `env:"SERVER_ADDR" envDefault:":5001"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:5001"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	DevMode    bool   `env:"DEV_MODE" envDefault:"false"`

	// LINE
	LineEnabled      bool   `env:"LINE_ENABLED" envDefault:"true"`
	LineSecret       string `env:"LINE_CHANNEL_SECRET"`
	LineAccessToken  string `env:"LINE_CHANNEL_ACCESS_TOKEN"`
	DeveloperLineID  string `env:"DEVELOPER_USER_ID"`
	LineReplyMaxMsgs int    `env:"LINE_REPLY_MAX_MESSAGES" envDefault:"5"`

	// Telegram
	TelegramEnabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	AdminUserID      int64  `env:"ADMIN_USER"`

	// Administrators allowed to run "add"
	AdminIDs   []string `env:"ADMIN_IDS" envSeparator:":"`
	AdminsPath string   `env:"ADMINS_PATH" envDefault:"data/admins.json"`

	// Data files
	KeywordsPath   string `env:"KEYWORDS_PATH" envDefault:"data/dream_links.json"`
	CardsPath      string `env:"CARDS_PATH" envDefault:"data/emotion_cards.csv"`
	CardsDir       string `env:"CARDS_DIR" envDefault:"Cards"`
	MissingLogPath string `env:"MISSING_LOG_PATH" envDefault:"missing_keywords.log"`
	RulesPath      string `env:"RULES_PATH"`

	// Recorder
	Recorder    string `env:"RECORDER" envDefault:"csv"`
	RecordPath  string `env:"RECORD_PATH" envDefault:"output/cardoutput.csv"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Pipeline tunables
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	FetchUserAgent string        `env:"FETCH_USER_AGENT" envDefault:"Mozilla/5.0"`
	SegmentLimit   int           `env:"SEGMENT_LIMIT" envDefault:"4900"`
	SuggestLimit   int           `env:"SUGGEST_LIMIT" envDefault:"3"`
	SuggestCutoff  float64       `env:"SUGGEST_CUTOFF" envDefault:"0.6"`
	CardFallback   string        `env:"CARD_FALLBACK" envDefault:"default"`
	Classifier     string        `env:"CLASSIFIER" envDefault:"rule"`
	Tokenizer      string        `env:"TOKENIZER" envDefault:"gse"`

	// Crawler
	DictionaryURL string `env:"DICTIONARY_URL" envDefault:"https://www.golla.tw"`

	// Scheduling
	ReloadSchedule string `env:"RELOAD_SCHEDULE" envDefault:"@every 10m"`
	DigestSchedule string `env:"DIGEST_SCHEDULE" envDefault:"0 21 * * *"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`
	GeminiAPIKey     string      `env:"GEMINI_API_KEY"`
	GeminiModel      string      `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`
}

// LoadDotEnv loads .env files if present. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// Load parses the environment into a Config. It does not validate.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate reports every missing credential or malformed URL at once.
func (c *Config) Validate() error {
	var errs []error
	missing := func(name string) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissing, name))
	}

	if c.LineEnabled {
		if c.LineSecret == "" {
			missing("LINE_CHANNEL_SECRET")
		}
		if c.LineAccessToken == "" {
			missing("LINE_CHANNEL_ACCESS_TOKEN")
		}
	}
	if c.TelegramEnabled && c.TelegramBotToken == "" {
		missing("TELEGRAM_BOT_TOKEN")
	}

	if strings.EqualFold(c.Classifier, "llm") {
		switch LLMProvider(strings.ToLower(string(c.LLMProvider))) {
		case ProviderOpenAI:
			if c.OpenAIAPIKey == "" {
				missing("OPENAI_API_KEY")
			}
		case ProviderYandex:
			if c.YandexOAuthToken == "" {
				missing("YANDEX_OAUTH_TOKEN")
			}
			if c.YandexFolderID == "" {
				missing("YANDEX_FOLDER_ID")
			}
		case ProviderGemini:
			if c.GeminiAPIKey == "" {
				missing("GEMINI_API_KEY")
			}
		default:
			errs = append(errs, fmt.Errorf("unknown llm provider: %s", c.LLMProvider))
		}
	}

	switch strings.ToLower(c.Recorder) {
	case "csv", "jsonl", "sqlite":
		if c.RecordPath == "" {
			missing("RECORD_PATH")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			missing("DATABASE_URL")
		}
	default:
		errs = append(errs, fmt.Errorf("unknown recorder: %s", c.Recorder))
	}

	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL))
	}
	if c.KeywordsPath == "" {
		missing("KEYWORDS_PATH")
	}
	if c.CardsPath == "" {
		missing("CARDS_PATH")
	}
	if c.SegmentLimit <= 0 {
		errs = append(errs, fmt.Errorf("SEGMENT_LIMIT must be positive, got %d", c.SegmentLimit))
	}
	switch c.CardFallback {
	case "default", "random":
	default:
		errs = append(errs, fmt.Errorf("CARD_FALLBACK must be default or random, got %q", c.CardFallback))
	}

	return errors.Join(errs...)
}

// New parses and validates, for binaries that treat any problem as fatal.
func New() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
