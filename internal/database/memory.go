package database

import (
	"context"
	"sync"

	"github.com/FOLIOGEN/foliogen/internal/models"
)

// DefaultMemoryCapacity bounds the in-memory history when no capacity is
// configured.
const DefaultMemoryCapacity = 256

// MemoryStore keeps the most recent generation records in memory, newest
// first. It backs the history surface when no database is configured, so
// the service stays fully functional without Postgres.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	records  []models.GenerationRecord
}

// NewMemoryStore creates a bounded in-memory store.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		records:  make([]models.GenerationRecord, 0, capacity),
	}
}

// Insert records one generation outcome, evicting the oldest record once
// the store is full.
func (s *MemoryStore) Insert(ctx context.Context, rec models.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]models.GenerationRecord{rec}, s.records...)
	if len(s.records) > s.capacity {
		s.records = s.records[:s.capacity]
	}
	return nil
}

// List retrieves generation records, newest first, with optional filtering.
func (s *MemoryStore) List(ctx context.Context, query models.GenerationQuery) ([]models.GenerationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.GenerationRecord, 0, len(s.records))
	for _, rec := range s.records {
		if query.Provider != "" && rec.Provider != query.Provider {
			continue
		}
		if query.Status != "" && rec.Status != query.Status {
			continue
		}
		matched = append(matched, rec)
	}

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			return []models.GenerationRecord{}, nil
		}
		matched = matched[query.Offset:]
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return matched, nil
}

// Get retrieves a single generation record by id. A missing id yields
// (nil, nil).
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.GenerationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.ID == id {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

// Stats aggregates the retained records. Unlike the Postgres store the
// window is bounded by capacity, which is acceptable for a dashboard.
func (s *MemoryStore) Stats(ctx context.Context) (*models.GenerationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.GenerationStats{TotalGenerations: len(s.records)}
	var latencySum int64
	var latencyCount int
	for _, rec := range s.records {
		switch rec.Status {
		case models.GenerationStatusSuccess:
			stats.SuccessfulGenerations++
		case models.GenerationStatusError:
			stats.FailedGenerations++
		}
		if rec.NormalizationApplied {
			stats.NormalizedGenerations++
		}
		if rec.LatencyMs != nil {
			latencySum += int64(*rec.LatencyMs)
			latencyCount++
		}
		if rec.PromptTokens != nil {
			stats.TotalTokens += int64(*rec.PromptTokens)
		}
		if rec.CompletionTokens != nil {
			stats.TotalTokens += int64(*rec.CompletionTokens)
		}
	}
	if latencyCount > 0 {
		stats.AvgLatencyMs = float64(latencySum) / float64(latencyCount)
	}
	return &stats, nil
}
