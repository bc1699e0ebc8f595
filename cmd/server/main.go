// Package main is the entry point for the movies API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/movies-api/internal/config"
	"github.com/vyrodovalexey/movies-api/internal/events"
	"github.com/vyrodovalexey/movies-api/internal/model"
	"github.com/vyrodovalexey/movies-api/internal/server"
	"github.com/vyrodovalexey/movies-api/internal/store"
)

const serviceName = "movies-api"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		// Use a basic logger for startup errors
		basicLogger, _ := zap.NewProduction()
		basicLogger.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		basicLogger, _ := zap.NewProduction()
		basicLogger.Error("failed to initialize logger", zap.Error(err))
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.Int("probe_port", cfg.ProbePort),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.Strings("cors_allowed_origins", cfg.CORSAllowedOrigins),
		zap.String("seed_file", cfg.SeedFile),
	)

	movieStore, err := newStore(context.Background(), cfg.SeedFile)
	if err != nil {
		logger.Error("failed to seed movie store", zap.Error(err))
		return 1
	}

	n, _ := movieStore.Len(context.Background())
	logger.Info("movie store ready", zap.Int("movies", n))

	srv := server.New(cfg, logger, movieStore, events.NewBroker())

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
		return 1
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// newStore builds the movie store from the seed file, or from the built-in
// catalogue when seedFile is empty.
func newStore(ctx context.Context, seedFile string) (*store.MemoryStore, error) {
	var (
		movies []model.Movie
		err    error
	)
	if seedFile == "" {
		movies, err = store.DefaultSeed()
	} else {
		movies, err = store.LoadSeedFile(seedFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}

	movieStore := store.NewMemoryStore()
	if err := movieStore.Load(ctx, movies); err != nil {
		return nil, fmt.Errorf("loading seed: %w", err)
	}

	return movieStore, nil
}

// initLogger initializes a JSON zap logger with the specified log level.
// Unknown levels fall back to info.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]any{"service": serviceName},
	}

	return zapConfig.Build()
}
