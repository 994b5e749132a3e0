package api

import (
	"testing"
	"time"
)

func fieldSet(errs []ValidationError) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		fields[e.Field] = e.Message
	}
	return fields
}

func TestValidateGenerateRequest(t *testing.T) {
	now := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		req        GenerateRequest
		wantFields []string
	}{
		{
			name:       "empty request",
			req:        GenerateRequest{},
			wantFields: []string{"thesis", "llm_api_key", "fmp_api_key", "timeframe"},
		},
		{
			name: "whitespace thesis",
			req: GenerateRequest{
				Thesis:    " \n\t ",
				LLMAPIKey: "key",
				FMPAPIKey: "key",
				Timeframe: "1Y",
			},
			wantFields: []string{"thesis"},
		},
		{
			name: "unknown timeframe",
			req: GenerateRequest{
				Thesis:    "tech growth",
				LLMAPIKey: "key",
				FMPAPIKey: "key",
				Timeframe: "2Y",
			},
			wantFields: []string{"timeframe"},
		},
		{
			name: "unknown provider",
			req: GenerateRequest{
				Thesis:    "tech growth",
				LLMAPIKey: "key",
				FMPAPIKey: "key",
				Timeframe: "1Y",
				Provider:  "gemini",
			},
			wantFields: []string{"provider"},
		},
		{
			name: "custom timeframe without date",
			req: GenerateRequest{
				Thesis:    "tech growth",
				LLMAPIKey: "key",
				FMPAPIKey: "key",
				Timeframe: "Since Custom Date",
			},
			wantFields: []string{"custom_start_date"},
		},
		{
			name: "custom date wrong format",
			req: GenerateRequest{
				Thesis:          "tech growth",
				LLMAPIKey:       "key",
				FMPAPIKey:       "key",
				Timeframe:       "Since Custom Date",
				CustomStartDate: "01/02/2026",
			},
			wantFields: []string{"custom_start_date"},
		},
		{
			name: "custom date in the future",
			req: GenerateRequest{
				Thesis:          "tech growth",
				LLMAPIKey:       "key",
				FMPAPIKey:       "key",
				Timeframe:       "Since Custom Date",
				CustomStartDate: "2026-09-01",
			},
			wantFields: []string{"custom_start_date"},
		},
		{
			name: "valid request",
			req: GenerateRequest{
				Thesis:    "tech growth",
				LLMAPIKey: "key",
				FMPAPIKey: "key",
				Timeframe: "YTD",
				Provider:  "anthropic",
			},
			wantFields: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, _ := ValidateGenerateRequest(&tt.req, now)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("Expected %d errors, got %d: %v", len(tt.wantFields), len(errs), errs)
			}
			fields := fieldSet(errs)
			for _, want := range tt.wantFields {
				if _, ok := fields[want]; !ok {
					t.Errorf("Expected an error for field %q, got %v", want, fields)
				}
			}
		})
	}
}

func TestValidateGenerateRequestParsesCustomDate(t *testing.T) {
	now := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)
	req := GenerateRequest{
		Thesis:          "tech growth",
		LLMAPIKey:       "key",
		FMPAPIKey:       "key",
		Timeframe:       "Since Custom Date",
		CustomStartDate: "2026-08-13",
	}

	errs, customStart := ValidateGenerateRequest(&req, now)
	if len(errs) != 0 {
		t.Fatalf("Expected no errors, got %v", errs)
	}
	if customStart == nil {
		t.Fatal("Expected a parsed custom start date")
	}
	if customStart.Format("2006-01-02") != "2026-08-13" {
		t.Errorf("customStart = %v", customStart)
	}
}

func TestValidateGenerateRequestAcceptsTodayAsCustomDate(t *testing.T) {
	now := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)
	req := GenerateRequest{
		Thesis:          "tech growth",
		LLMAPIKey:       "key",
		FMPAPIKey:       "key",
		Timeframe:       "Since Custom Date",
		CustomStartDate: "2026-08-23",
	}

	errs, customStart := ValidateGenerateRequest(&req, now)
	if len(errs) != 0 {
		t.Fatalf("Expected no errors for today's date, got %v", errs)
	}
	if customStart == nil {
		t.Fatal("Expected a parsed custom start date")
	}
}

func TestValidationMessage(t *testing.T) {
	required := []ValidationError{
		{Field: "thesis", Message: "Investment thesis is required"},
		{Field: "llm_api_key", Message: "LLM API key is required"},
	}
	if got := ValidationMessage(required); got != "Please provide all required fields." {
		t.Errorf("ValidationMessage = %q", got)
	}

	mixed := []ValidationError{
		{Field: "thesis", Message: "Investment thesis is required"},
		{Field: "timeframe", Message: "Invalid timeframe (must be one of: MTD, QTD, YTD, 1Y, 5Y, Since Custom Date)"},
	}
	if got := ValidationMessage(mixed); got != "Request validation failed" {
		t.Errorf("ValidationMessage = %q", got)
	}
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Field: "thesis", Message: "Investment thesis is required"}
	if err.Error() != "thesis: Investment thesis is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}
