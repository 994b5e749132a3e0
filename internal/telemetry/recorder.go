package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/FOLIOGEN/foliogen/internal/advisor"
	"github.com/FOLIOGEN/foliogen/internal/models"
)

// storeTimeout bounds the background write so a stalled store cannot
// accumulate goroutines.
const storeTimeout = 5 * time.Second

// Store persists generation records.
type Store interface {
	Insert(ctx context.Context, rec models.GenerationRecord) error
}

// Recorder writes generation telemetry without blocking request handling.
// Records carry metadata only: no thesis text, no API keys, no portfolio
// contents.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
	}
}

// Record persists one generation record asynchronously. Failures are
// logged and dropped; telemetry never affects the request outcome.
func (r *Recorder) Record(rec models.GenerationRecord) {
	if r == nil || r.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := r.store.Insert(ctx, rec); err != nil {
			r.logger.Error("failed to record generation", "id", rec.ID, "error", err)
		}
	}()
}

// Success records a completed generation.
func (r *Recorder) Success(id string, res *advisor.Result, timeframe string, days int) {
	if r == nil || res == nil {
		return
	}
	rawTotal := res.Normalization.RawTotal
	latencyMs := int(res.Duration.Milliseconds())
	promptTokens := res.Usage.PromptTokens
	completionTokens := res.Usage.CompletionTokens

	r.Record(models.GenerationRecord{
		ID:                   id,
		Provider:             res.Provider,
		Model:                res.Model,
		Timeframe:            timeframe,
		TimeframeDays:        days,
		Status:               models.GenerationStatusSuccess,
		NormalizationApplied: res.Normalization.Applied,
		RawAllocationTotal:   &rawTotal,
		AssetCount:           len(res.Portfolio.Portfolio),
		Attempts:             res.Attempts,
		LatencyMs:            &latencyMs,
		PromptTokens:         &promptTokens,
		CompletionTokens:     &completionTokens,
		CreatedAt:            time.Now().UTC(),
	})
}

// Failure records a failed generation. Only the error kind is stored;
// error messages can echo request contents and stay out of the log.
func (r *Recorder) Failure(id, provider, model, timeframe string, days int, kind string, attempts int, latency time.Duration) {
	if r == nil {
		return
	}
	latencyMs := int(latency.Milliseconds())

	r.Record(models.GenerationRecord{
		ID:            id,
		Provider:      provider,
		Model:         model,
		Timeframe:     timeframe,
		TimeframeDays: days,
		Status:        models.GenerationStatusError,
		ErrorKind:     &kind,
		Attempts:      attempts,
		LatencyMs:     &latencyMs,
		CreatedAt:     time.Now().UTC(),
	})
}
