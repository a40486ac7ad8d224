package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/draftforge/proposal-agent/internal/config"
	"github.com/draftforge/proposal-agent/internal/health"
	"github.com/draftforge/proposal-agent/internal/metrics"
	"github.com/draftforge/proposal-agent/internal/orchestrate"
	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/provider"
	"github.com/draftforge/proposal-agent/internal/research"
	"github.com/draftforge/proposal-agent/internal/store"
	"github.com/draftforge/proposal-agent/internal/strategy"
	"github.com/draftforge/proposal-agent/internal/telemetry"
	"github.com/draftforge/proposal-agent/internal/web"
	"github.com/draftforge/proposal-agent/internal/workflow"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Int("http_port", cfg.HTTPPort).
		Str("provider_a", cfg.ProviderA).
		Str("provider_b", cfg.ProviderB).
		Msg("starting proposal agent")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// SQLite store
	ds, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer ds.Close()

	projects := project.NewStore(ds, logger)
	healthTracker := telemetry.NewHealthTracker(ds, logger)
	usageTracker := telemetry.NewUsageTracker(ds, logger)
	if cfg.PricingFile != "" {
		if err := usageTracker.LoadPricing(cfg.PricingFile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.PricingFile).Msg("failed to load pricing override (non-fatal)")
		}
	}

	mx := metrics.New()

	// Provider registry: every adapter is wrapped so all calls record
	// health, usage and metrics, and non-streaming backends still
	// satisfy the stream contract.
	registry, err := provider.NewRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build providers")
	}
	for _, name := range registry.Names() {
		p, _ := registry.Get(name)
		registry.Register(provider.SynthesizeStream(provider.Track(p, healthTracker, usageTracker, mx, logger)))
	}

	// Research collaborator (optional)
	var researcher orchestrate.Researcher
	if cfg.ResearchEnabled() {
		researcher = research.NewClient(cfg.ResearchBaseURL, cfg.ResearchAPIKey, cfg.ResearchTimeout, logger)
		logger.Info().Msg("market research client initialized")
	} else {
		logger.Info().Msg("market research not configured — estimates use placeholder")
	}

	orch := orchestrate.New(registry, projects, researcher, cfg.ProviderA, cfg.ProviderB, cfg.ProviderTimeout, logger)

	chatStrategy := strategy.NewChat(orch, logger)
	estimateStrategy := strategy.NewEstimate(orch, projects, logger)
	executionStrategy := strategy.NewExecution(orch, logger)

	wf := workflow.New(projects, estimateStrategy, mx, logger)

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("database", health.DatabaseCheck(ds))
	checker.Register("providers", health.ProviderCheck(registry.Names))

	handlers := web.NewHandlers(projects, chatStrategy, executionStrategy, wf, healthTracker, usageTracker, logger)
	server := web.NewServer(fmt.Sprintf(":%d", cfg.HTTPPort), handlers, checker, mx, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server failure
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("http server error")
	}

	cancel()

	shutdownDone := make(chan struct{})
	go func() {
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("http server shutdown error")
		}
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("http server stopped")
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("proposal agent stopped")
}
