package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"log/slog"

	"github.com/FOLIOGEN/foliogen/internal/advisor"
	"github.com/FOLIOGEN/foliogen/internal/metrics"
	"github.com/FOLIOGEN/foliogen/internal/models"
	"github.com/FOLIOGEN/foliogen/internal/simulation"
	"github.com/FOLIOGEN/foliogen/internal/telemetry"
)

// GenerateRequest is the body of POST /api/portfolio/generate. The API keys
// are opaque pass-through credentials and must never reach logs or telemetry.
type GenerateRequest struct {
	Thesis          string `json:"thesis"`
	LLMAPIKey       string `json:"llm_api_key"`
	FMPAPIKey       string `json:"fmp_api_key"`
	Timeframe       string `json:"timeframe"`
	CustomStartDate string `json:"custom_start_date,omitempty"`
	Provider        string `json:"provider,omitempty"`
	Model           string `json:"model,omitempty"`
}

// GenerateResponse is the success body of POST /api/portfolio/generate.
type GenerateResponse struct {
	ID                   string                   `json:"id"`
	Provider             string                   `json:"provider"`
	Model                string                   `json:"model"`
	Portfolio            []models.AssetAllocation `json:"portfolio"`
	OverallJustification string                   `json:"overallJustification"`
	NormalizationApplied bool                     `json:"normalization_applied"`
	RawAllocationTotal   float64                  `json:"raw_allocation_total"`
	Performance          simulation.Performance   `json:"performance"`
	Usage                advisor.Usage            `json:"usage"`
	Attempts             int                      `json:"attempts"`
	DurationMs           int64                    `json:"duration_ms"`
}

// ErrorBody is the envelope every failure response uses.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the failure kind, a human-readable message, and
// per-field messages for validation failures.
type ErrorDetail struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// PortfolioHandler runs the generation workflow: validate, resolve the
// timeframe, call the advisor, simulate performance, record telemetry.
type PortfolioHandler struct {
	advisor         advisor.Advisor
	simulator       *simulation.Generator
	recorder        *telemetry.Recorder
	collector       *metrics.Collector
	defaultProvider string
	logger          *slog.Logger
}

// NewPortfolioHandler creates the generation handler.
func NewPortfolioHandler(adv advisor.Advisor, simulator *simulation.Generator, recorder *telemetry.Recorder, collector *metrics.Collector, defaultProvider string, logger *slog.Logger) *PortfolioHandler {
	if defaultProvider == "" {
		defaultProvider = advisor.ProviderOpenAI
	}
	return &PortfolioHandler{
		advisor:         adv,
		simulator:       simulator,
		recorder:        recorder,
		collector:       collector,
		defaultProvider: defaultProvider,
		logger:          logger,
	}
}

// Generate handles POST /api/portfolio/generate
func (h *PortfolioHandler) Generate(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers for all responses
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	// Handle CORS preflight
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, advisor.KindMissingInput, "Invalid request body", nil)
		return
	}

	now := time.Now()
	validationErrs, customStart := ValidateGenerateRequest(&req, now)
	if len(validationErrs) > 0 {
		fields := make(map[string]string, len(validationErrs))
		for _, e := range validationErrs {
			fields[e.Field] = e.Message
		}
		h.writeError(w, http.StatusBadRequest, advisor.KindMissingInput, ValidationMessage(validationErrs), fields)
		return
	}

	timeframe := models.Timeframe(req.Timeframe)
	days := timeframe.Days(now, customStart)

	id := uuid.NewString()
	logger := h.logger.With("generation_id", id)
	logger.Info("generating portfolio",
		"provider", h.resolveProvider(req.Provider),
		"timeframe", req.Timeframe,
		"days", days,
		"thesis_chars", len(req.Thesis))

	started := time.Now()
	result, err := h.advisor.Generate(r.Context(), advisor.Request{
		Thesis:   req.Thesis,
		APIKey:   req.LLMAPIKey,
		Provider: req.Provider,
		Model:    req.Model,
	})
	if err != nil {
		h.failGeneration(w, logger, id, &req, timeframe, days, time.Since(started), err)
		return
	}

	performance := h.simulator.Simulate(timeframe, days, now)

	h.recorder.Success(id, result, string(timeframe), days)
	h.collector.ObserveGeneration(result.Provider, models.GenerationStatusSuccess, result.Normalization.Applied, result.Duration)

	logger.Info("portfolio generated",
		"provider", result.Provider,
		"model", result.Model,
		"assets", len(result.Portfolio.Portfolio),
		"attempts", result.Attempts,
		"duration_ms", result.Duration.Milliseconds(),
		"normalized", result.Normalization.Applied)

	response := GenerateResponse{
		ID:                   id,
		Provider:             result.Provider,
		Model:                result.Model,
		Portfolio:            result.Portfolio.Portfolio,
		OverallJustification: result.Portfolio.OverallJustification,
		NormalizationApplied: result.Normalization.Applied,
		RawAllocationTotal:   result.Normalization.RawTotal,
		Performance:          performance,
		Usage:                result.Usage,
		Attempts:             result.Attempts,
		DurationMs:           result.Duration.Milliseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// failGeneration converts an advisor error into the documented status code,
// records the failure, and writes the error body.
func (h *PortfolioHandler) failGeneration(w http.ResponseWriter, logger *slog.Logger, id string, req *GenerateRequest, timeframe models.Timeframe, days int, elapsed time.Duration, err error) {
	kind := advisor.KindTransportFailure
	status := http.StatusBadGateway
	provider := h.resolveProvider(req.Provider)
	attempts := 1

	var missingField *advisor.MissingFieldError
	var malformed *advisor.MalformedResponseError
	var transport *advisor.TransportError

	switch {
	case errors.As(err, &missingField):
		kind = advisor.KindMissingField
	case errors.As(err, &malformed):
		kind = advisor.KindMalformedResponse
	case errors.As(err, &transport):
		kind = advisor.KindTransportFailure
		provider = transport.Provider
		attempts = transport.Attempts
		if transport.Timeout {
			status = http.StatusGatewayTimeout
		}
	}

	logger.Error("portfolio generation failed",
		"kind", kind,
		"provider", provider,
		"attempts", attempts,
		"duration_ms", elapsed.Milliseconds(),
		"error", err)

	h.recorder.Failure(id, provider, req.Model, string(timeframe), days, kind, attempts, elapsed)
	h.collector.ObserveGeneration(provider, models.GenerationStatusError, false, elapsed)

	h.writeError(w, status, kind, err.Error(), nil)
}

func (h *PortfolioHandler) resolveProvider(requested string) string {
	if requested != "" {
		return requested
	}
	return h.defaultProvider
}

func (h *PortfolioHandler) writeError(w http.ResponseWriter, status int, kind, message string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := ErrorBody{Error: ErrorDetail{Kind: kind, Message: message, Fields: fields}}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
