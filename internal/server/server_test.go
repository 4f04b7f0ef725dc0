package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dream-oracle/internal/metrics"
	"dream-oracle/internal/oracle"
	"dream-oracle/internal/storage"
)

type stubInterpreter struct{ got oracle.Request }

func (s *stubInterpreter) Interpret(_ context.Context, req oracle.Request) oracle.Result {
	s.got = req
	return oracle.Result{Keyword: req.Keyword, Text: "夢見蛇<b>", Emotion: "恐懼", Title: "勇氣", Message: "點燈", Image: "B1.jpg"}
}

type count int

func (c count) Len() int { return int(c) }

type fixture struct {
	srv      *Server
	recorder storage.Recorder
	misses   *storage.MissLog
	interp   *stubInterpreter
}

func newFixture(t *testing.T, deck int) fixture {
	t.Helper()
	dir := t.TempDir()
	cardsDir := filepath.Join(dir, "Cards")
	require.NoError(t, os.MkdirAll(cardsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cardsDir, "B1.jpg"), []byte("jpeg-bytes"), 0o644))

	rec := storage.NewFileRecorder(filepath.Join(dir, "logs.jsonl"))
	require.NoError(t, rec.Init(context.Background()))
	ml := storage.NewMissLog(filepath.Join(dir, "missing_keywords.log"))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Lookup(metrics.OutcomeResolved)

	interp := &stubInterpreter{}
	srv, err := New(Deps{
		CardsDir:    cardsDir,
		Interpreter: interp,
		Recorder:    rec,
		Misses:      ml,
		Index:       count(12),
		Deck:        count(deck),
		Gatherer:    reg,
	})
	require.NoError(t, err)
	return fixture{srv: srv, recorder: rec, misses: ml, interp: interp}
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestStatusAndCallbackUnconfigured(t *testing.T) {
	fx := newFixture(t, 3)

	code, body := do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusText, body)

	code, _ = do(t, fx.srv.App, httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader("{}")))
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMissing(t *testing.T) {
	fx := newFixture(t, 3)

	code, body := do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, NoMissesText, body)

	require.NoError(t, fx.misses.Append("U1", "火鍋寶寶外星人"))
	code, body = do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "| U1 | 火鍋寶寶外星人")
}

func TestLogsTable(t *testing.T) {
	fx := newFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, fx.recorder.Append(ctx, storage.NewEntry("U1", "蛇", "恐懼", "勇氣", "點燈", "夢見蛇")))
	require.NoError(t, fx.recorder.Append(ctx, storage.NewEntry("U2", "花", "快樂", "喜悅", "分享", "<script>x</script>")))

	code, body := do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/logs", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "共 2 筆")
	assert.Less(t, strings.Index(body, "U2"), strings.Index(body, "U1"))
	assert.NotContains(t, body, "<script>x</script>")

	code, body = do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/logs?limit=1", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "U2")
	assert.NotContains(t, body, ">U1<")

	code, _ = do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/logs?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDraw(t *testing.T) {
	fx := newFixture(t, 3)

	code, body := do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/draw", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `action="/draw"`)

	form := url.Values{"keyword": {"蛇"}}
	req := httptest.NewRequest(http.MethodPost, "/draw", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	code, body = do(t, fx.srv.App, req)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, oracle.Request{Keyword: "蛇", RequesterID: webRequester}, fx.interp.got)
	assert.Contains(t, body, `src="/Cards/B1.jpg"`)
	assert.Contains(t, body, "恐懼")
	assert.NotContains(t, body, "<b>")

	req = httptest.NewRequest(http.MethodPost, "/draw", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	code, _ = do(t, fx.srv.App, req)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCardsAreServed(t *testing.T) {
	fx := newFixture(t, 3)

	code, body := do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/Cards/B1.jpg", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "jpeg-bytes", body)

	code, _ = do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/Cards/nope.jpg", nil))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthzAndMetrics(t *testing.T) {
	fx := newFixture(t, 3)
	code, body := do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","keywords":12,"cards":3}`, body)

	code, body = do(t, fx.srv.App, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "dream_oracle_keyword_lookups_total")

	empty := newFixture(t, 0)
	code, body = do(t, empty.srv.App, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "card deck is empty")
}
