package api

import (
	"net/http"

	"log/slog"

	"github.com/FOLIOGEN/foliogen/internal/advisor"
	"github.com/FOLIOGEN/foliogen/internal/auth"
	"github.com/FOLIOGEN/foliogen/internal/metrics"
	"github.com/FOLIOGEN/foliogen/internal/simulation"
	"github.com/FOLIOGEN/foliogen/internal/telemetry"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, adv advisor.Advisor, simulator *simulation.Generator, recorder *telemetry.Recorder, history GenerationHistory, collector *metrics.Collector, authConfig auth.Config, defaultProvider string, logger *slog.Logger) {
	portfolioHandler := NewPortfolioHandler(adv, simulator, recorder, collector, defaultProvider, logger)
	authHandler := NewAuthHandler(authConfig, logger)
	adminHandler := NewAdminHandler(history, logger)

	// Auth middleware
	authMiddleware := auth.AuthMiddleware(authConfig)

	// Generation route (public, CORS handled in the handler)
	mux.HandleFunc("/api/portfolio/generate", portfolioHandler.Generate)

	// Authentication routes. Login always answers; it reports 503 when the
	// admin surface is not configured.
	mux.HandleFunc("/api/auth/login", authHandler.Login)

	// Admin surface exists only when a password is configured.
	if authConfig.Enabled {
		mux.HandleFunc("/api/auth/validate", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.WriteHeader(http.StatusOK)
				return
			}
			authMiddleware(http.HandlerFunc(authHandler.ValidateToken)).ServeHTTP(w, r)
		})

		mux.HandleFunc("/api/admin/generations", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.WriteHeader(http.StatusOK)
				return
			}
			authMiddleware(http.HandlerFunc(adminHandler.ListGenerations)).ServeHTTP(w, r)
		})

		mux.HandleFunc("/api/admin/generations/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/admin/generations/" {
				http.NotFound(w, r)
				return
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.WriteHeader(http.StatusOK)
				return
			}
			authMiddleware(http.HandlerFunc(adminHandler.GetGeneration)).ServeHTTP(w, r)
		})

		mux.HandleFunc("/api/admin/stats", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.WriteHeader(http.StatusOK)
				return
			}
			authMiddleware(http.HandlerFunc(adminHandler.GetStats)).ServeHTTP(w, r)
		})
	}

	// CORS preflight
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	})
}
