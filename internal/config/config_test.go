package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setLineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
}

func TestLoad_Defaults(t *testing.T) {
	setLineEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5001", cfg.ServerAddr)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "Mozilla/5.0", cfg.FetchUserAgent)
	assert.Equal(t, 4900, cfg.SegmentLimit)
	assert.Equal(t, 3, cfg.SuggestLimit)
	assert.InDelta(t, 0.6, cfg.SuggestCutoff, 1e-9)
	assert.Equal(t, "default", cfg.CardFallback)
	assert.Equal(t, "csv", cfg.Recorder)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingLineCredentialsIsFatal(t *testing.T) {
	t.Setenv("LINE_ENABLED", "true")
	t.Setenv("LINE_CHANNEL_SECRET", "")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "")
	_, err := New()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissing))
	assert.Contains(t, err.Error(), "LINE_CHANNEL_SECRET")
	assert.Contains(t, err.Error(), "LINE_CHANNEL_ACCESS_TOKEN")
}

func TestValidate_LineDisabledNeedsNoSecrets(t *testing.T) {
	t.Setenv("LINE_ENABLED", "false")
	cfg, err := New()
	require.NoError(t, err)
	assert.False(t, cfg.LineEnabled)
}

func TestValidate_LLMClassifierNeedsProviderCredentials(t *testing.T) {
	setLineEnv(t)
	t.Setenv("CLASSIFIER", "llm")
	t.Setenv("LLM_PROVIDER", "gemini")
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	t.Setenv("GEMINI_API_KEY", "k")
	_, err = New()
	assert.NoError(t, err)
}

func TestValidate_PostgresNeedsDatabaseURL(t *testing.T) {
	setLineEnv(t)
	t.Setenv("RECORDER", "postgres")
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_BadBaseURLAndFallback(t *testing.T) {
	setLineEnv(t)
	t.Setenv("BASE_URL", "ftp://example.com")
	t.Setenv("CARD_FALLBACK", "nearest")
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BASE_URL")
	assert.Contains(t, err.Error(), "CARD_FALLBACK")
}
