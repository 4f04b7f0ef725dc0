// Package server exposes the webhook, the diagnostic pages and the card images over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"slices"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/gofiber/template/html/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dream-oracle/internal/cards"
	"dream-oracle/internal/oracle"
	"dream-oracle/internal/storage"
)

//go:embed views
var viewsFS embed.FS

const (
	StatusText      = "🌙 Dream Oracle LINE BOT 正在運行中！"
	NoMissesText    = "目前沒有缺漏的關鍵字"
	DefaultLogLimit = 200
	webRequester    = "web"
)

type Interpreter interface {
	Interpret(ctx context.Context, req oracle.Request) oracle.Result
}

// Counter is satisfied by the keyword index and the card deck.
type Counter interface {
	Len() int
}

type Deps struct {
	CardsDir string
	// Callback handles POST /callback; nil answers 503.
	Callback    fiber.Handler
	Interpreter Interpreter
	Recorder    storage.Recorder
	Misses      *storage.MissLog
	Index       Counter
	Deck        Counter
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger
	// AccessLog enables the fiber request logger.
	AccessLog bool
}

// Server wraps the Fiber app.
type Server struct {
	App  *fiber.App
	deps Deps
}

func New(d Deps) (*Server, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")

	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layouts/main",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			} else {
				d.Logger.Error("❌ request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).SendString(message)
		},
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}

	s := &Server{App: app, deps: d}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.App.Get("/", s.status)
	s.App.Post("/callback", s.callback)
	s.App.Get("/missing", s.missing)
	s.App.Get("/logs", s.logs)
	s.App.Get("/draw", s.drawForm)
	s.App.Post("/draw", s.draw)
	s.App.Get("/healthz", s.healthz)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	if s.deps.CardsDir != "" {
		s.App.Get(oracle.CardsPath+"*", static.New(s.deps.CardsDir))
	}
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.deps.Logger.Info("🚀 http server listening", zap.String("addr", addr))
	return s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}

func (s *Server) status(c fiber.Ctx) error {
	return c.SendString(StatusText)
}

func (s *Server) callback(c fiber.Ctx) error {
	if s.deps.Callback == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "LINE channel not configured")
	}
	return s.deps.Callback(c)
}

// missing returns the miss log verbatim as plain text.
func (s *Server) missing(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	if s.deps.Misses == nil {
		return c.SendString(NoMissesText)
	}
	text, err := s.deps.Misses.ReadAll()
	if err != nil {
		return err
	}
	if text == "" {
		return c.SendString(NoMissesText)
	}
	return c.SendString(text)
}

// logs renders the newest entries first.
func (s *Server) logs(c fiber.Ctx) error {
	var entries []storage.Entry
	if s.deps.Recorder != nil {
		var err error
		entries, err = s.deps.Recorder.List(c.Context())
		if err != nil {
			return err
		}
	}
	limit := DefaultLogLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	total := len(entries)
	entries = slices.Clone(entries)
	slices.Reverse(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return c.Render("logs", fiber.Map{
		"Title":   "Dream Oracle 紀錄",
		"Entries": entries,
		"Total":   total,
	})
}

func (s *Server) drawForm(c fiber.Ctx) error {
	return c.Render("draw", fiber.Map{"Title": "🌙 Dream Oracle 解夢卡牌"})
}

func (s *Server) draw(c fiber.Ctx) error {
	keyword := c.FormValue("keyword")
	if keyword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "keyword is required")
	}
	if s.deps.Interpreter == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "oracle not configured")
	}
	res := s.deps.Interpreter.Interpret(c.Context(), oracle.Request{Keyword: keyword, RequesterID: webRequester})
	return c.Render("result", fiber.Map{
		"Title":    "Dream Oracle 結果",
		"Result":   res,
		"ImageURL": oracle.ImageURL("", res.Image),
	})
}

type health struct {
	Status   string `json:"status"`
	Keywords int    `json:"keywords"`
	Cards    int    `json:"cards"`
	Error    string `json:"error,omitempty"`
}

// healthz is unhealthy while the deck is empty: every draw would be the default card.
func (s *Server) healthz(c fiber.Ctx) error {
	h := health{Status: "ok"}
	if s.deps.Index != nil {
		h.Keywords = s.deps.Index.Len()
	}
	if s.deps.Deck != nil {
		h.Cards = s.deps.Deck.Len()
	}
	if h.Cards == 0 {
		h.Status = "degraded"
		h.Error = cards.ErrEmptyDeck.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(h)
	}
	return c.JSON(h)
}
