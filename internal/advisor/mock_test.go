package advisor

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestMockAdvisor_Generate(t *testing.T) {
	mock := NewMockAdvisor()

	result, err := mock.Generate(context.Background(), Request{Thesis: "growth at a reasonable price"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Portfolio.Portfolio) != 12 {
		t.Errorf("Expected 12 assets, got %d", len(result.Portfolio.Portfolio))
	}
	if !result.Normalization.Applied {
		t.Error("Mock allocations sum to 104, so normalization should apply")
	}
	if result.Normalization.RawTotal != 104 {
		t.Errorf("RawTotal = %v, want 104", result.Normalization.RawTotal)
	}
	if total := result.Portfolio.TotalAllocation(); math.Abs(total-100) > 1e-6 {
		t.Errorf("Normalized total = %v, want 100 within 1e-6", total)
	}
	if result.Provider != ProviderMock {
		t.Errorf("Provider = %q, want %q", result.Provider, ProviderMock)
	}
	if result.Model != "mock-advisor" {
		t.Errorf("Model = %q, want mock-advisor", result.Model)
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
	if result.Usage.PromptTokens == 0 || result.Usage.CompletionTokens == 0 {
		t.Error("Mock usage should report nonzero token counts")
	}
	if result.Portfolio.OverallJustification == "" {
		t.Error("OverallJustification should be set")
	}
}

func TestMockAdvisor_Deterministic(t *testing.T) {
	mock := NewMockAdvisor()

	first, err := mock.Generate(context.Background(), Request{Thesis: "same thesis"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	second, err := mock.Generate(context.Background(), Request{Thesis: "same thesis"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(first.Portfolio.Portfolio) != len(second.Portfolio.Portfolio) {
		t.Fatal("Mock portfolios should be identical across calls")
	}
	for i := range first.Portfolio.Portfolio {
		if first.Portfolio.Portfolio[i] != second.Portfolio.Portfolio[i] {
			t.Errorf("Asset %d differs between calls", i)
		}
	}
}

func TestMockAdvisor_CanceledContext(t *testing.T) {
	mock := NewMockAdvisor()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Generate(ctx, Request{Thesis: "t"})
	if err == nil {
		t.Fatal("Expected an error for a canceled context")
	}
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("Expected TransportError, got %T: %v", err, err)
	}
}
