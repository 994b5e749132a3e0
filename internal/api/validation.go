package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/FOLIOGEN/foliogen/internal/advisor"
	"github.com/FOLIOGEN/foliogen/internal/models"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// customDateLayout is the wire format for custom start dates.
const customDateLayout = "2006-01-02"

// ValidateGenerateRequest checks a generation request, collecting every
// field error so the page can flag all offending inputs at once. When the
// timeframe needs a custom start date, the parsed date is returned.
func ValidateGenerateRequest(req *GenerateRequest, now time.Time) ([]ValidationError, *time.Time) {
	var errs []ValidationError

	if strings.TrimSpace(req.Thesis) == "" {
		errs = append(errs, ValidationError{Field: "thesis", Message: "Investment thesis is required"})
	}

	if req.LLMAPIKey == "" {
		errs = append(errs, ValidationError{Field: "llm_api_key", Message: "LLM API key is required"})
	}

	if req.FMPAPIKey == "" {
		errs = append(errs, ValidationError{Field: "fmp_api_key", Message: "FMP API key is required"})
	}

	timeframe := models.Timeframe(req.Timeframe)
	if req.Timeframe == "" {
		errs = append(errs, ValidationError{Field: "timeframe", Message: "Timeframe is required"})
	} else if !timeframe.IsValid() {
		names := make([]string, len(models.ValidTimeframes()))
		for i, tf := range models.ValidTimeframes() {
			names[i] = string(tf)
		}
		errs = append(errs, ValidationError{
			Field:   "timeframe",
			Message: fmt.Sprintf("Invalid timeframe (must be one of: %s)", strings.Join(names, ", ")),
		})
	}

	if req.Provider != "" && req.Provider != advisor.ProviderOpenAI && req.Provider != advisor.ProviderAnthropic {
		errs = append(errs, ValidationError{
			Field:   "provider",
			Message: fmt.Sprintf("Invalid provider (must be %s or %s)", advisor.ProviderOpenAI, advisor.ProviderAnthropic),
		})
	}

	var customStart *time.Time
	if timeframe == models.TimeframeCustom {
		if req.CustomStartDate == "" {
			errs = append(errs, ValidationError{Field: "custom_start_date", Message: "Custom start date is required"})
		} else if parsed, err := time.Parse(customDateLayout, req.CustomStartDate); err != nil {
			errs = append(errs, ValidationError{Field: "custom_start_date", Message: "Invalid date format (must be YYYY-MM-DD)"})
		} else if parsed.After(now) {
			errs = append(errs, ValidationError{Field: "custom_start_date", Message: "Custom start date cannot be in the future"})
		} else {
			customStart = &parsed
		}
	}

	return errs, customStart
}

// ValidationMessage picks the top-level message for a rejected request. The
// classic prompt is kept whenever everything wrong is an absent field.
func ValidationMessage(errs []ValidationError) string {
	for _, e := range errs {
		if !strings.HasSuffix(e.Message, "is required") {
			return "Request validation failed"
		}
	}
	return "Please provide all required fields."
}
