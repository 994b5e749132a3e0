package models

import "time"

// Generation outcome values.
const (
	GenerationStatusSuccess = "success"
	GenerationStatusError   = "error"
)

// GenerationRecord captures the outcome of one portfolio generation for the
// operator surface. It deliberately carries no thesis text, no symbols and
// no justifications; portfolio content is never stored.
type GenerationRecord struct {
	ID                   string    `json:"id"`
	Provider             string    `json:"provider"` // 'openai', 'anthropic', 'mock'
	Model                string    `json:"model"`
	Timeframe            string    `json:"timeframe"`
	TimeframeDays        int       `json:"timeframe_days"`
	Status               string    `json:"status"`     // 'success', 'error'
	ErrorKind            *string   `json:"error_kind"` // failure classification when status is 'error'
	NormalizationApplied bool      `json:"normalization_applied"`
	RawAllocationTotal   *float64  `json:"raw_allocation_total"` // allocation sum before rescaling
	AssetCount           int       `json:"asset_count"`
	Attempts             int       `json:"attempts"`
	LatencyMs            *int      `json:"latency_ms"` // provider round trip, including the retry
	PromptTokens         *int      `json:"prompt_tokens"`
	CompletionTokens     *int      `json:"completion_tokens"`
	CreatedAt            time.Time `json:"created_at"`
}

// GenerationStats aggregates recorded history for the admin dashboard.
type GenerationStats struct {
	TotalGenerations      int     `json:"total_generations"`
	SuccessfulGenerations int     `json:"successful_generations"`
	FailedGenerations     int     `json:"failed_generations"`
	NormalizedGenerations int     `json:"normalized_generations"`
	AvgLatencyMs          float64 `json:"avg_latency_ms"`
	TotalTokens           int64   `json:"total_tokens"`
}

// GenerationQuery filters history reads.
type GenerationQuery struct {
	Provider string
	Status   string
	Limit    int
	Offset   int
}
