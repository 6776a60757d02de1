package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bgeval-api/internal/api"
	"bgeval-api/internal/config"
	"bgeval-api/internal/engine"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", os.Getenv("BGEVAL_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	if err := api.ValidateSpec(context.Background()); err != nil {
		return fmt.Errorf("validate openapi document: %w", err)
	}

	eng := engine.New(
		engine.WithCacheSize(cfg.Engine.CacheSize),
		engine.WithParallelism(cfg.Engine.Parallelism),
		engine.WithLogger(log),
	)

	pool := api.NewPool(cfg.Pool.Fast, cfg.Pool.Slow)
	h := api.NewHandler(eng, pool, log, cfg.Engine.DefaultPly)
	srv := api.NewServer(h, log, cfg.RequestTimeout)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting", zap.String("version", api.Version))
		if err := srv.Start(cfg.Addr()); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("stopped")
	return nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	zc := zap.NewProductionConfig()
	if !cfg.JSON {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
