package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FOLIOGEN/foliogen/internal/models"
)

// GenerationRepository persists generation telemetry in Postgres.
type GenerationRepository struct {
	db *sql.DB
}

// NewGenerationRepository creates a new repository.
func NewGenerationRepository(db *sql.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Insert records one generation outcome.
func (r *GenerationRepository) Insert(ctx context.Context, rec models.GenerationRecord) error {
	query := `
		INSERT INTO generation_log (
			id, provider, model, timeframe, timeframe_days, status, error_kind,
			normalization_applied, raw_allocation_total, asset_count, attempts,
			latency_ms, prompt_tokens, completion_tokens, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Provider,
		rec.Model,
		rec.Timeframe,
		rec.TimeframeDays,
		rec.Status,
		rec.ErrorKind,
		rec.NormalizationApplied,
		rec.RawAllocationTotal,
		rec.AssetCount,
		rec.Attempts,
		rec.LatencyMs,
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.CreatedAt,
	)

	return err
}

// List retrieves generation records, newest first, with optional filtering.
func (r *GenerationRepository) List(ctx context.Context, query models.GenerationQuery) ([]models.GenerationRecord, error) {
	sqlQuery := `
		SELECT id, provider, model, timeframe, timeframe_days, status, error_kind,
		       normalization_applied, raw_allocation_total, asset_count, attempts,
		       latency_ms, prompt_tokens, completion_tokens, created_at
		FROM generation_log
		WHERE 1=1
	`
	args := []interface{}{}
	argPos := 1

	if query.Provider != "" {
		sqlQuery += fmt.Sprintf(" AND provider = $%d", argPos)
		args = append(args, query.Provider)
		argPos++
	}

	if query.Status != "" {
		sqlQuery += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, query.Status)
		argPos++
	}

	sqlQuery += " ORDER BY created_at DESC"

	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, query.Limit)
		argPos++
	}

	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, query.Offset)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation log: %w", err)
	}
	defer rows.Close()

	var records []models.GenerationRecord
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Get retrieves a single generation record by id. A missing id yields
// (nil, nil).
func (r *GenerationRepository) Get(ctx context.Context, id string) (*models.GenerationRecord, error) {
	query := `
		SELECT id, provider, model, timeframe, timeframe_days, status, error_kind,
		       normalization_applied, raw_allocation_total, asset_count, attempts,
		       latency_ms, prompt_tokens, completion_tokens, created_at
		FROM generation_log
		WHERE id = $1
	`

	rec, err := scanGeneration(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Stats retrieves aggregated statistics across the recorded history.
func (r *GenerationRepository) Stats(ctx context.Context) (*models.GenerationStats, error) {
	query := `
		SELECT
			COUNT(*) as total_generations,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) as successful_generations,
			SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END) as failed_generations,
			SUM(CASE WHEN normalization_applied THEN 1 ELSE 0 END) as normalized_generations,
			COALESCE(AVG(latency_ms), 0) as avg_latency_ms,
			COALESCE(SUM(COALESCE(prompt_tokens, 0) + COALESCE(completion_tokens, 0)), 0) as total_tokens
		FROM generation_log
	`

	var stats models.GenerationStats
	var successful, failed, normalized sql.NullInt64
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalGenerations,
		&successful,
		&failed,
		&normalized,
		&stats.AvgLatencyMs,
		&stats.TotalTokens,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get generation stats: %w", err)
	}

	stats.SuccessfulGenerations = int(successful.Int64)
	stats.FailedGenerations = int(failed.Int64)
	stats.NormalizedGenerations = int(normalized.Int64)
	return &stats, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGeneration(row rowScanner) (models.GenerationRecord, error) {
	var rec models.GenerationRecord
	err := row.Scan(
		&rec.ID,
		&rec.Provider,
		&rec.Model,
		&rec.Timeframe,
		&rec.TimeframeDays,
		&rec.Status,
		&rec.ErrorKind,
		&rec.NormalizationApplied,
		&rec.RawAllocationTotal,
		&rec.AssetCount,
		&rec.Attempts,
		&rec.LatencyMs,
		&rec.PromptTokens,
		&rec.CompletionTokens,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan generation record: %w", err)
	}
	return rec, nil
}
