package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"skillswap/internal/config"
	"skillswap/internal/domain"
	"skillswap/internal/httpserver"
	"skillswap/internal/logger"
	"skillswap/internal/metrics"
	"skillswap/internal/security"
	"skillswap/internal/service"
	"skillswap/internal/store/memory"
	"skillswap/internal/store/postgres"
	"skillswap/internal/store/redis"
	"skillswap/internal/store/sqlite"
	"skillswap/internal/ws"
)

// @title           SkillSwap API
// @version         1.0
// @description     Backend API for the SkillSwap skill-exchange marketplace.

// @host            localhost:8000
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, "skillswap")

	// In-memory stores, reseeded on every start
	st := memory.NewStore()
	if err := st.Seed(ctx, time.Now()); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	cache, closeCache, err := openProfileCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	zlog.Info("profile cache ready", zap.String("driver", cfg.CacheDriver))

	tokenSvc := security.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL())
	hub := ws.NewHub(zlog.Named("ws"), m)

	opts := []service.Option{
		service.WithLogger(zlog.Named("service")),
		service.WithMetrics(m),
		service.WithEvents(hub),
		service.WithPresence(hub),
	}
	sessionOpts := append(append([]service.Option{}, opts...), service.WithLatency(cfg.SimulatedLatency))

	notifications := service.NewNotificationService(st.Notifications, opts...)
	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Log:           zlog.Named("http"),
		Metrics:       m,
		Gatherer:      reg,
		Tokens:        tokenSvc,
		Sessions:      httpserver.NewSessions(st.Users, cache, m, sessionOpts...),
		Hub:           hub,
		Notifications: notifications,
		Swaps:         service.NewSwapService(st.SwapRequests, st.Users, notifications, cfg.ValidateSwapSkills, opts...),
		Messages:      service.NewMessageService(st.Conversations, st.Messages, st.Users, opts...),
		Reviews:       service.NewReviewService(st.Reviews, st.SwapRequests, st.Users, notifications, opts...),
		Directory:     service.NewDirectoryService(st.Users),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		zlog.Info("starting SkillSwap server", zap.String("addr", cfg.HTTPAddr()), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	zlog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// openProfileCache connects the backend selected by CACHE_DRIVER. The
// returned func releases it.
func openProfileCache(ctx context.Context, cfg *config.Config) (domain.ProfileCache, func(), error) {
	switch cfg.CacheDriver {
	case config.CacheSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewProfileCache(db), func() { db.Close() }, nil

	case config.CachePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewProfileCache(db), func() { db.Close() }, nil

	case config.CacheRedis:
		client, err := redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return redis.NewProfileCache(client), func() { client.Close() }, nil

	default:
		return memory.NewProfileCache(), func() {}, nil
	}
}
