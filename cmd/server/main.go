package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/FOLIOGEN/foliogen/internal/advisor"
	"github.com/FOLIOGEN/foliogen/internal/api"
	"github.com/FOLIOGEN/foliogen/internal/auth"
	"github.com/FOLIOGEN/foliogen/internal/cloudsql"
	"github.com/FOLIOGEN/foliogen/internal/config"
	"github.com/FOLIOGEN/foliogen/internal/database"
	"github.com/FOLIOGEN/foliogen/internal/logging"
	"github.com/FOLIOGEN/foliogen/internal/metrics"
	"github.com/FOLIOGEN/foliogen/internal/server"
	"github.com/FOLIOGEN/foliogen/internal/simulation"
	"github.com/FOLIOGEN/foliogen/internal/telemetry"
	_ "github.com/lib/pq"
	"log/slog"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting foliogen", "version", version)

	// Select the history store. With no database configured the service runs
	// on a bounded in-memory ring and stays fully functional.
	var history api.GenerationHistory
	var store telemetry.Store
	postgresBacked := false

	dbURL := cfg.History.DatabaseURL
	if dbURL == "" {
		// On Cloud Run the URL is assembled from the Cloud SQL socket vars.
		dbURL, err = cloudsql.BuildDatabaseURL()
		if err != nil {
			logger.Error("failed to build database URL", "error", err)
			os.Exit(1)
		}
	}

	if dbURL != "" {
		logger.Info("connecting to database", "config", cloudsql.ConnectionConfig(dbURL))
		db, err := database.Connect(context.Background(), database.DefaultConfig(dbURL))
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("database connected")

		// Run pending migrations (non-fatal to allow app to start even if migrations fail)
		if err := database.RunMigrations(db, "./migrations", logger); err != nil {
			logger.Warn("failed to run migrations, continuing anyway", "error", err)
		}

		repo := database.NewGenerationRepository(db)
		history = repo
		store = repo
		postgresBacked = true
	} else {
		memory := database.NewMemoryStore(cfg.History.MemoryCapacity)
		history = memory
		store = memory
		logger.Info("no database configured, keeping generation history in memory", "capacity", cfg.History.MemoryCapacity)
	}

	recorder := telemetry.NewRecorder(store, logger)

	// Select the advisor. The mock provider exercises the whole workflow
	// without network access or credentials.
	var adv advisor.Advisor
	if cfg.Advisor.Provider == advisor.ProviderMock {
		logger.Warn("using mock advisor, generated portfolios are canned")
		adv = advisor.NewMockAdvisor()
	} else {
		adv = advisor.NewClient(advisor.Config{
			DefaultProvider: cfg.Advisor.Provider,
			OpenAIModel:     cfg.Advisor.OpenAIModel,
			AnthropicModel:  cfg.Advisor.AnthropicModel,
			Timeout:         cfg.Advisor.Timeout,
		}, logger)
	}

	simulator := simulation.New()

	// Setup HTTP routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Service info endpoint
	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"service":          "foliogen",
			"version":          version,
			"status":           "ready",
			"default_provider": cfg.Advisor.Provider,
			"openai_model":     cfg.Advisor.OpenAIModel,
			"anthropic_model":  cfg.Advisor.AnthropicModel,
			"postgres_backed":  postgresBacked,
		})
	})

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	mux.Handle("/metrics", collector.Handler())

	// Load auth configuration
	authConfig, err := auth.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load auth config", "error", err)
		os.Exit(1)
	}
	logger.Info("auth configured",
		"admin_enabled", authConfig.Enabled,
		"jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	// Add REST API routes
	logger.Info("setting up REST API")
	api.SetupRoutes(mux, adv, simulator, recorder, history, collector, authConfig, cfg.Advisor.Provider, logger)

	// Wrap with SPA middleware to serve the page for non-API routes
	logger.Info("setting up static file server for web UI", "dir", cfg.Server.StaticDir)
	indexPath := filepath.Join(cfg.Server.StaticDir, "index.html")
	handler := server.SPAMiddleware(collector.InstrumentHandler(mux), cfg.Server.StaticDir, indexPath)

	// Start server
	srv := server.New(cfg.Server, logger, handler)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("foliogen started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
