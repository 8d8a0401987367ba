package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/shore-hazard-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/shore-hazard-service/internal/adapter/kafka"
	"github.com/couchcryptid/shore-hazard-service/internal/adapter/mapbox"
	mongoadapter "github.com/couchcryptid/shore-hazard-service/internal/adapter/mongo"
	"github.com/couchcryptid/shore-hazard-service/internal/config"
	"github.com/couchcryptid/shore-hazard-service/internal/dashboard"
	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/observability"
	"github.com/couchcryptid/shore-hazard-service/internal/session"
	"github.com/couchcryptid/shore-hazard-service/internal/store"
	"github.com/couchcryptid/shore-hazard-service/internal/submit"
	"github.com/couchcryptid/shore-hazard-service/internal/wizard"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET not set, signing sessions with the development secret")
	}

	st, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	logger.Info("session store ready", "backend", cfg.StoreBackend)

	sink, err := openSink(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open submission sink", "sink", cfg.SubmitSink, "error", err)
		os.Exit(1)
	}
	logger.Info("submission sink ready", "sink", cfg.SubmitSink)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger).WithLanguage(cfg.MapboxLanguage)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled, addresses fall back to coordinates")
	}

	ledger := dashboard.NewLedger(cfg.LedgerSize, metrics)
	if cfg.LedgerSeedPath != "" {
		n, err := ledger.SeedFile(cfg.LedgerSeedPath)
		if err != nil {
			logger.Error("failed to seed dashboard ledger", "path", cfg.LedgerSeedPath, "error", err)
			os.Exit(1)
		}
		logger.Info("dashboard ledger seeded", "path", cfg.LedgerSeedPath, "receipts", n)
	}

	submitter := submit.New(sink, logger, metrics,
		submit.WithRecorder(ledger),
		submit.WithTimeout(cfg.SubmitTimeout),
		submit.WithMaxAttempts(cfg.SubmitMaxAttempts),
	)

	registry := wizard.NewRegistry(submitter, logger,
		wizard.RegistryConfig{
			MaxPerOwner: cfg.WizardMaxPerOwner,
			IdleTimeout: cfg.WizardIdleTimeout,
			Metrics:     metrics,
		},
		wizard.WithGeocoder(geocoder),
		wizard.WithMediaPolicy(wizard.MediaPolicy{Enabled: cfg.MediaPolicyEnabled, MaxBytes: cfg.MediaMaxBytes}),
		wizard.WithProgressInterval(cfg.ProgressInterval),
	)
	go registry.Run(ctx)

	sessions := session.NewManager(st, cfg.JWTSecret, logger,
		session.WithLoginDelay(cfg.LoginDelay),
		session.WithTokenTTL(cfg.SessionTTL),
		session.WithMetrics(metrics),
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Sessions:    sessions,
		Wizards:     registry,
		Ledger:      ledger,
		Social:      dashboard.NewMockSocialFeed(nil),
		Ready:       readiness{st, submitter},
		CORSOrigins: cfg.CORSOrigins,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	registry.CloseAll()
	if err := closeSink(shutdownCtx, sink); err != nil {
		logger.Error("submission sink close error", "error", err)
	}
	if c, ok := st.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreFile:
		return store.NewFile(cfg.StorePath)
	case config.StoreRedis:
		return store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	default:
		return store.NewMemory(), nil
	}
}

func openSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (submit.Sink, error) {
	switch cfg.SubmitSink {
	case config.SinkKafka:
		return kafkaadapter.NewWriter(cfg, logger), nil
	case config.SinkMongo:
		return mongoadapter.Connect(ctx, cfg, logger)
	default:
		return submit.NewSimulatedSink(cfg.SubmitSimulatedDelay, nil, logger), nil
	}
}

func closeSink(ctx context.Context, sink submit.Sink) error {
	switch s := sink.(type) {
	case *kafkaadapter.Writer:
		return s.Close()
	case *mongoadapter.Sink:
		return s.Close(ctx)
	default:
		return nil
	}
}

// readiness is ready when every component that can report health is ready.
type readiness []any

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		checker, ok := c.(sharedobs.ReadinessChecker)
		if !ok {
			continue
		}
		if err := checker.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("%T: %w", c, err)
		}
	}
	return nil
}
