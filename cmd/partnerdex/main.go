package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/partnerdex/internal/config"
	dbRedis "github.com/kailas-cloud/partnerdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/partnerdex/internal/logger"
	"github.com/kailas-cloud/partnerdex/internal/metrics"
	"github.com/kailas-cloud/partnerdex/internal/repository/fallback"
	partnerrepo "github.com/kailas-cloud/partnerdex/internal/repository/partner"
	chiTransport "github.com/kailas-cloud/partnerdex/internal/transport/chi"
	directoryuc "github.com/kailas-cloud/partnerdex/internal/usecase/directory"
	healthuc "github.com/kailas-cloud/partnerdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/partnerdex/internal/usecase/search"
	"github.com/kailas-cloud/partnerdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, env, logger); err != nil {
		logger.Fatal("partnerdex stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg config.Config, env string, logger *zap.Logger) error {
	logger.Info("Starting partnerdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// valkey and redis speak the same protocol; both go through rueidis.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	defer store.Close()

	// The fallback keeps the directory serving, so an unready database is not fatal.
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		logger.Warn("Database not ready, starting on fallback", zap.Error(err))
	} else {
		logger.Info("Connected to database")
	}

	// Register directory metrics explicitly (no init())
	metrics.RegisterDirectoryMetrics()

	var fb directoryuc.FallbackLoader
	if cfg.Directory.UseFallback() {
		loader, err := fallback.New(cfg.Directory.FallbackPath)
		if err != nil {
			return fmt.Errorf("load fallback directory: %w", err)
		}
		logger.Info("Fallback directory loaded",
			zap.String("origin", loader.Origin()),
			zap.Int("entities", loader.Len()),
		)
		fb = loader
	}

	partners := partnerrepo.New(store, cfg.Directory.KeyPrefix)

	directorySvc := directoryuc.New(partners, fb, logger.Named("directory"),
		directoryuc.WithFetchTimeout(cfg.Directory.FetchTimeout()),
		directoryuc.WithFallbackEnabled(cfg.Directory.UseFallback()),
	)
	searchSvc := searchuc.New(directorySvc)
	healthSvc := healthuc.New(store, directorySvc)

	server := chiTransport.NewServer(directorySvc, searchSvc, healthSvc, logger)

	handler := chiTransport.NewRouter(server, logger, chiTransport.AuthPolicy{
		APIKeys:     cfg.Auth.APIKeys,
		PublicReads: cfg.Auth.PublicReads,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := directorySvc.Run(gctx, cfg.Directory.RefreshInterval())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
