package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dream-oracle/internal/app"
	"dream-oracle/internal/config"
	"dream-oracle/internal/line"
	"dream-oracle/internal/logging"
	"dream-oracle/internal/notify"
	"dream-oracle/internal/scheduler"
	"dream-oracle/internal/server"
	"dream-oracle/internal/telegram"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("❌ configuration error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.DevMode)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("❌ dream oracle stopped", zap.Error(err))
	}
	logger.Info("👋 dream oracle stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var notifiers notify.Multi

	var webhook *line.Webhook
	lineAPI, err := newLineClient(cfg)
	if err != nil {
		return err
	}
	if lineAPI != nil && cfg.DeveloperLineID != "" {
		notifiers = append(notifiers, notify.NewLineNotifier(lineAPI, cfg.DeveloperLineID))
	}

	var bot *telegram.Bot
	tgAPI, err := newTelegramAPI(cfg)
	if err != nil {
		return err
	}
	if tgAPI != nil && cfg.AdminUserID != 0 {
		notifiers = append(notifiers, notify.NewTelegramNotifier(tgAPI, cfg.AdminUserID))
	}
	if len(notifiers) == 0 {
		logger.Warn("⚠️ no operator notifier configured, missed keywords are only logged")
	}

	a, err := app.Build(ctx, cfg, logger, notifiers)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("⚠️ failed to close recorder", zap.Error(err))
		}
	}()

	if lineAPI != nil {
		webhook = line.NewWebhook(cfg.LineSecret, lineAPI, a.Handler, cfg.LineReplyMaxMsgs, a.Metrics, logger)
	}
	if tgAPI != nil {
		bot = telegram.New(tgAPI, a.Handler, a.Auth, cfg.AdminUserID, logger)
	}

	deps := server.Deps{
		CardsDir:    cfg.CardsDir,
		Interpreter: a.Service,
		Recorder:    a.Recorder,
		Misses:      a.Misses,
		Index:       a.Index,
		Deck:        a.Deck,
		Gatherer:    a.Registry,
		Logger:      logger,
		AccessLog:   cfg.DevMode,
	}
	if webhook != nil {
		deps.Callback = webhook.Callback
	}
	srv, err := server.New(deps)
	if err != nil {
		return err
	}

	sched := scheduler.New(time.Local, logger)
	if err := sched.Add(scheduler.ReloadJob(cfg.ReloadSchedule, a.Index, a.Deck)); err != nil {
		return err
	}
	if len(notifiers) > 0 {
		if err := sched.Add(scheduler.DigestJob(cfg.DigestSchedule, a.Recorder, a.Misses, notifiers, nil)); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.ServerAddr)
	})
	if bot != nil {
		g.Go(func() error {
			bot.Start(gctx)
			return nil
		})
	}
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		sched.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 shutting down")
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
