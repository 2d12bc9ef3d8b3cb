package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"veira/backend/internal/ai"
	"veira/backend/internal/cache"
	"veira/backend/internal/config"
	"veira/backend/internal/domain"
	"veira/backend/internal/httpapi"
	"veira/backend/internal/service"
	"veira/backend/internal/store"
	"veira/backend/internal/store/memory"
	pgstore "veira/backend/internal/store/postgres"
)

const snapshotInterval = 30 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	var memStore *memory.Store
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		memStore = loadMemoryStore(cfg.SnapshotPath, logger)
		repo = memStore
		logger.Info("repository: in-memory", zap.String("snapshot_path", cfg.SnapshotPath))
	}

	summaryCache := cache.SummaryCache(cache.NoopSummaryCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSummaryCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop cache", zap.Error(err))
		} else {
			summaryCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("cache: redis")
		}
	} else {
		logger.Info("cache: noop")
	}

	summarizer := ai.Summarizer(ai.TemplateSummarizer{})
	if cfg.GeminiAPIKey != "" {
		summarizer = ai.NewGeminiSummarizer(cfg.GeminiAPIKey)
		logger.Info("summarizer: gemini")
	} else {
		logger.Info("summarizer: template")
	}

	svc := service.New(repo, logger, summarizer, summaryCache, cfg.DefaultBranch, cfg.VATRate, time.Duration(cfg.SummaryCacheTTLMinutes)*time.Minute)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopSnapshots := make(chan struct{})
	if memStore != nil && cfg.SnapshotPath != "" {
		go snapshotLoop(memStore, cfg.SnapshotPath, stopSnapshots, logger)
	}

	go func() {
		logger.Info("POS backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}

	close(stopSnapshots)
	if memStore != nil && cfg.SnapshotPath != "" {
		if err := saveSnapshot(memStore, cfg.SnapshotPath); err != nil {
			logger.Warn("final snapshot save failed", zap.Error(err))
		}
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func validateSecurityConfig(cfg config.Config) error {
	if cfg.Production() && len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters in production")
	}
	return nil
}

// loadMemoryStore restores the in-memory repository from the snapshot
// file when one exists, otherwise starts with the demo seed data.
func loadMemoryStore(path string, logger *zap.Logger) *memory.Store {
	if path == "" {
		return memory.NewSeeded()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("snapshot unreadable, starting seeded", zap.Error(err))
		}
		return memory.NewSeeded()
	}
	var snap domain.StateSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		logger.Warn("snapshot corrupt, starting seeded", zap.Error(err))
		return memory.NewSeeded()
	}
	logger.Info("restored state from snapshot", zap.String("path", path))
	return memory.NewFromSnapshot(snap)
}

func snapshotLoop(s *memory.Store, path string, stop <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := saveSnapshot(s, path); err != nil {
				logger.Warn("snapshot save failed", zap.Error(err))
			}
		case <-stop:
			return
		}
	}
}

// saveSnapshot writes to a temp file and renames so a crash mid-write
// never leaves a truncated snapshot behind.
func saveSnapshot(s *memory.Store, path string) error {
	raw, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
