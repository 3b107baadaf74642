// Command orchestrator runs the multi-tenant AI task orchestrator's HTTP
// surface (SPEC_FULL.md §6): it wires the Session Manager, Budget Gate,
// Analyzer, Router, Agent Runtime, Result Aggregator, and Progress Channel
// into one Dispatcher behind POST /api/orchestrate, GET /api/sessions/{id},
// and GET /api/events. Bootstrap follows a config dir flag, .env loading,
// config.Initialize, database connection, then service wiring, generalized
// from gin+services to Echo v5+Dispatcher (see DESIGN.md's gin→Echo
// discrepancy note) and extended with the graceful-shutdown-on-signal loop
// SPEC_FULL.md §6's exit-code table requires.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/taskorbit/orchestrator/pkg/accountpool"
	"github.com/taskorbit/orchestrator/pkg/agent"
	"github.com/taskorbit/orchestrator/pkg/analyzer"
	"github.com/taskorbit/orchestrator/pkg/api"
	"github.com/taskorbit/orchestrator/pkg/budget"
	"github.com/taskorbit/orchestrator/pkg/cleanup"
	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/database"
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/dispatcher"
	"github.com/taskorbit/orchestrator/pkg/events"
	"github.com/taskorbit/orchestrator/pkg/llmclient"
	"github.com/taskorbit/orchestrator/pkg/masking"
	"github.com/taskorbit/orchestrator/pkg/pgnotify"
	"github.com/taskorbit/orchestrator/pkg/queue"
	"github.com/taskorbit/orchestrator/pkg/router"
	"github.com/taskorbit/orchestrator/pkg/session"
	"github.com/taskorbit/orchestrator/pkg/toolkit"
	"github.com/taskorbit/orchestrator/pkg/version"
)

// Exit codes per SPEC_FULL.md §6.
const (
	exitGraceful        = 0
	exitFatalInit        = 1
	exitConfigError      = 2
	exitTerminatedBySignal = 130
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	os.Exit(run())
}

func run() int {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	httpAddr := flag.String("http-addr", getEnv("HTTP_ADDR", ":8080"), "HTTP listen address")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("no .env file loaded, continuing with existing environment", "path", envPath, "error", err)
	}

	slog.Info("starting orchestrator", "version", version.Full(), "config_dir", *configDir, "http_addr", *httpAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("configuration error", "error", err)
		return exitConfigError
	}
	stats := cfg.Stats()
	slog.Info("configuration loaded", "categories", stats.Categories, "agents", stats.Agents, "tool_providers", stats.ToolProviders, "llm_providers", stats.LLMProviders)

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("database configuration error", "error", err)
		return exitConfigError
	}

	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return exitFatalInit
	}
	defer dbClient.Close()
	slog.Info("connected to postgres, schema migrated")

	store := db.New(dbClient.Pool())

	listener := pgnotify.New(dbCfg.ConnString())
	if err := listener.Start(ctx); err != nil {
		slog.Error("failed to start LISTEN/NOTIFY listener", "error", err)
		return exitFatalInit
	}
	defer listener.Stop(context.Background())

	sessions := session.NewManager(store)
	if err := sessions.EnableInvalidation(ctx, listener); err != nil {
		slog.Error("failed to enable session cache invalidation", "error", err)
		return exitFatalInit
	}

	hub := events.NewHub(store, listener)

	llm := llmclient.NewHTTPClient(llmRequestTimeout)
	pool := accountpool.New(store, cfg.AccountPool, nil)
	runtime := agent.NewRuntime(cfg.AgentRegistry, cfg.LLMProviderRegistry, llm, pool, toolkit.NewRegistry(), store)

	az := newAnalyzer(cfg, llm)
	rt := router.New(cfg.CategoryRegistry, cfg.AgentRegistry)
	gate := budget.New(store)

	masker := masking.NewService(getEnv("AUDIT_MASKING_GROUP", "secrets"))

	disp := dispatcher.New(sessions, gate, az, rt, runtime, cfg.CategoryRegistry, cfg.Timing, store, hub, cfg.Defaults.DefaultAgent, masker)

	janitor := cleanup.NewService(store, cfg.Retention)
	stopJanitor := janitor.Start(ctx)
	defer stopJanitor()

	sweeper := queue.NewSweeper(store, cfg.Queue)
	stopSweeper := sweeper.Start(ctx)
	defer stopSweeper()

	srv := api.NewServer(dbClient, store, sessions, disp, hub)

	serveErrCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", *httpAddr)
		if err := srv.Start(*httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
			return
		}
		serveErrCh <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during shutdown", "error", err)
			return exitFatalInit
		}
		return exitTerminatedBySignal
	case err := <-serveErrCh:
		if err != nil {
			slog.Error("http server failed", "error", err)
			return exitFatalInit
		}
		return exitGraceful
	}
}

const (
	llmRequestTimeout   = 90 * time.Second
	shutdownGracePeriod = 15 * time.Second
)

// newAnalyzer resolves the Analyzer's LLM path from the configured default
// provider. A missing provider or API key is not fatal — the Analyzer
// falls back to its keyword lexicon, per its own nil-safety contract — but
// it is logged loudly since it silently degrades classification quality.
func newAnalyzer(cfg *config.Config, llm llmclient.Client) *analyzer.Analyzer {
	providerName := cfg.Defaults.LLMProvider
	if providerName == "" {
		slog.Warn("no default LLM provider configured, analyzer runs in keyword-only mode")
		return analyzer.New(nil, nil, "")
	}
	provider, err := cfg.GetLLMProvider(providerName)
	if err != nil {
		slog.Warn("default LLM provider not found, analyzer runs in keyword-only mode", "provider", providerName, "error", err)
		return analyzer.New(nil, nil, "")
	}
	apiKey := os.Getenv(provider.APIKeyEnv)
	if apiKey == "" {
		slog.Warn("default LLM provider's API key env var is unset, analyzer runs in keyword-only mode", "provider", providerName, "env", provider.APIKeyEnv)
		return analyzer.New(nil, nil, "")
	}
	return analyzer.New(llm, provider, apiKey)
}
