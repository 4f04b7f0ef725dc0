// Command dream-mcp-server serves the oracle over MCP on stdin/stdout.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"dream-oracle/internal/app"
	"dream-oracle/internal/config"
	"dream-oracle/internal/logging"
	"dream-oracle/internal/notify"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ configuration error: %v", err)
	}
	// stdout carries the protocol; zap writes to stderr.
	logger, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, notify.Nop{})
	if err != nil {
		logger.Fatal("❌ configuration error", zap.Error(err))
	}
	defer a.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dream-oracle-mcp",
		Version: "1.0.0",
	}, nil)

	oracleServer := NewOracleMCPServer(a.Service, a.Index, cfg.BaseURL, logger)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "interpret_dream",
		Description: "Interprets a dream keyword: fetches the interpretation, classifies its emotion and draws an oracle card",
	}, oracleServer.InterpretDream)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_keyword",
		Description: "Resolves a dream keyword to its reference page, or lists similar keywords",
	}, oracleServer.LookupKeyword)

	logger.Info("🔗 starting MCP server on stdin/stdout", zap.Int("keywords", a.Index.Len()))
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		logger.Fatal("❌ server failed", zap.Error(err))
	}
}
