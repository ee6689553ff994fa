package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scriptura/bible-mcp-server/internal/bible"
	"github.com/scriptura/bible-mcp-server/internal/config"
	"github.com/scriptura/bible-mcp-server/internal/mcp"
	"github.com/scriptura/bible-mcp-server/internal/server"
	"github.com/scriptura/bible-mcp-server/internal/tools"
)

var version = "1.0.0"

var (
	addr        = flag.String("addr", "", "Listen address (overrides config)")
	configPath  = flag.String("config", "", "Path to YAML config file")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	showVersion = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("bible-mcp-server v%s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := setupLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("bible-mcp-server starting",
		zap.String("version", version),
		zap.String("addr", cfg.Addr),
		zap.String("bible_id", cfg.BibleID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := bible.NewClient(cfg.ProviderURL, cfg.APIKey, cfg.BibleID, cfg.RequestTimeout.Std(), logger.Named("bible"))
	registry := tools.NewRegistry(
		tools.NewContentToolset(client),
		tools.NewReferenceToolset(client),
	)
	handler := mcp.NewHandler(registry, mcp.ServerInfo{
		Name:    "bible-mcp-server",
		Version: version,
	}, logger.Named("mcp"))

	metrics := server.NewMetrics()
	go metrics.Report(ctx, logger.Named("metrics"), cfg.MetricsInterval.Std())

	srv := server.New(cfg.Addr, handler, metrics, logger.Named("server"))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("bible-mcp-server stopped")
}

func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}
