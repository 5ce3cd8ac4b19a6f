package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ZackHiRo/revops-lead-router/internal/config"
	"github.com/ZackHiRo/revops-lead-router/internal/crm"
	"github.com/ZackHiRo/revops-lead-router/internal/enrichment"
	"github.com/ZackHiRo/revops-lead-router/internal/idempotency"
	"github.com/ZackHiRo/revops-lead-router/internal/llm"
	"github.com/ZackHiRo/revops-lead-router/internal/notify"
	"github.com/ZackHiRo/revops-lead-router/internal/pipeline"
	"github.com/ZackHiRo/revops-lead-router/internal/server"
	"github.com/ZackHiRo/revops-lead-router/internal/similarity"
	"github.com/ZackHiRo/revops-lead-router/internal/storage"
	"github.com/ZackHiRo/revops-lead-router/internal/telemetry"
	"github.com/ZackHiRo/revops-lead-router/internal/territory"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("revops-lead-router", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	territories, err := territory.Load(cfg.Territory.Path)
	if err != nil {
		log.Fatalf("Failed to load territory table: %v", err)
	}

	leads, closeStore, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open lead store: %v", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("failed to close lead store", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scorer, err := llm.New(ctx, llm.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	enrichOpts := []enrichment.ClientOption{
		enrichment.WithTimeout(cfg.Enrichment.Timeout),
		enrichment.WithRateLimit(cfg.Enrichment.RPS),
	}
	if cfg.Enrichment.BaseURL != "" {
		enrichOpts = append(enrichOpts, enrichment.WithBaseURL(cfg.Enrichment.BaseURL))
	}
	enricher := enrichment.NewClient(cfg.Enrichment.APIKey, enrichOpts...)

	crmOpts := []crm.ClientOption{crm.WithTimeout(cfg.CRM.Timeout)}
	if cfg.CRM.BaseURL != "" {
		crmOpts = append(crmOpts, crm.WithBaseURL(cfg.CRM.BaseURL))
	}
	crmClient := crm.NewClient(cfg.CRM.APIKey, crmOpts...)

	simOpts := []similarity.ClientOption{similarity.WithTimeout(cfg.Similarity.Timeout)}
	if cfg.Similarity.BaseURL != "" {
		simOpts = append(simOpts, similarity.WithBaseURL(cfg.Similarity.BaseURL))
	}
	simClient := similarity.NewClient(cfg.Similarity.APIKey, cfg.Similarity.Index, simOpts...)

	notifyOpts := []notify.ClientOption{notify.WithTimeout(cfg.Slack.Timeout)}
	if cfg.Slack.AlertsURL != "" {
		notifyOpts = append(notifyOpts, notify.WithAlertsURL(cfg.Slack.AlertsURL))
	}
	notifier := notify.NewClient(cfg.Slack.WebhookURL, cfg.Slack.Channel, notifyOpts...)

	orchestrator, err := pipeline.New(pipeline.Config{
		Guard:       idempotency.NewMemoryStore(),
		GuardTTL:    cfg.Idempotency.TTL,
		FailOpen:    cfg.Idempotency.FailOpen,
		Enricher:    enricher,
		Scorer:      scorer,
		CRM:         crmClient,
		Similarity:  simClient,
		Narrator:    scorer,
		Notifier:    notifier,
		Territories: territories,
		Leads:       leads,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	srv := server.New(cfg.Server.Port, logger)
	server.NewHandler(orchestrator, logger).Register(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("lead router started",
		slog.Int("port", cfg.Server.Port),
		slog.String("storage", cfg.Storage.Type),
		slog.String("model", cfg.Gemini.Model),
		slog.Int("territories", territories.Countries()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("lead router shutdown complete")
}
