package advisor

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/FOLIOGEN/foliogen/internal/models"
)

// allocationTolerance is the drift, in percentage points, the allocation sum
// may show before the portfolio is rescaled.
const allocationTolerance = 0.1

// fencedJSONPattern captures the body of a markdown code fence, with or
// without a json language tag.
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.+\\})\\s*```")

// Normalization describes what happened to a parsed portfolio's allocations.
// RawTotal is the allocation sum before any rescaling.
type Normalization struct {
	Applied  bool
	RawTotal float64
}

// ParsePortfolio validates completion text against the portfolio contract
// and rescales allocations to sum to 100 when they drift beyond the
// tolerance. It is a pure function of its input and never panics, whatever
// the model returned.
func ParsePortfolio(text string) (models.PortfolioResponse, Normalization, error) {
	extracted := extractJSON(text)
	if extracted == "" {
		return models.PortfolioResponse{}, Normalization{}, &MalformedResponseError{
			Reason: "no JSON object found in model response",
			Raw:    text,
		}
	}

	var raw struct {
		Portfolio []struct {
			Symbol        *string  `json:"symbol"`
			Name          *string  `json:"name"`
			Allocation    *float64 `json:"allocation"`
			Justification *string  `json:"justification"`
		} `json:"portfolio"`
		OverallJustification *string `json:"overallJustification"`
	}
	if err := json.Unmarshal([]byte(extracted), &raw); err != nil {
		return models.PortfolioResponse{}, Normalization{}, &MalformedResponseError{
			Reason:    fmt.Sprintf("failed to parse model response as JSON: %v", err),
			Raw:       text,
			Extracted: extracted,
		}
	}

	if raw.OverallJustification == nil || strings.TrimSpace(*raw.OverallJustification) == "" {
		return models.PortfolioResponse{}, Normalization{}, &MissingFieldError{Field: "overallJustification", Index: -1}
	}
	if raw.Portfolio == nil {
		return models.PortfolioResponse{}, Normalization{}, &MissingFieldError{Field: "portfolio", Index: -1}
	}
	if len(raw.Portfolio) == 0 {
		return models.PortfolioResponse{}, Normalization{}, &MalformedResponseError{
			Reason:    "portfolio array is empty",
			Raw:       text,
			Extracted: extracted,
		}
	}

	resp := models.PortfolioResponse{
		Portfolio:            make([]models.AssetAllocation, 0, len(raw.Portfolio)),
		OverallJustification: *raw.OverallJustification,
	}
	for i, entry := range raw.Portfolio {
		switch {
		case entry.Symbol == nil:
			return models.PortfolioResponse{}, Normalization{}, &MissingFieldError{Field: "symbol", Index: i}
		case entry.Name == nil:
			return models.PortfolioResponse{}, Normalization{}, &MissingFieldError{Field: "name", Index: i}
		case entry.Allocation == nil:
			return models.PortfolioResponse{}, Normalization{}, &MissingFieldError{Field: "allocation", Index: i}
		case entry.Justification == nil:
			return models.PortfolioResponse{}, Normalization{}, &MissingFieldError{Field: "justification", Index: i}
		}
		resp.Portfolio = append(resp.Portfolio, models.AssetAllocation{
			Symbol:        *entry.Symbol,
			Name:          *entry.Name,
			Allocation:    *entry.Allocation,
			Justification: *entry.Justification,
		})
	}

	norm, err := normalizeAllocations(&resp)
	if err != nil {
		return models.PortfolioResponse{}, Normalization{}, err
	}
	return resp, norm, nil
}

// normalizeAllocations rescales the allocations in place when their sum
// drifts from 100 by more than the tolerance. A sum that is already within
// tolerance is left untouched so valid data picks up no float drift.
func normalizeAllocations(resp *models.PortfolioResponse) (Normalization, error) {
	total := resp.TotalAllocation()
	if total <= 0 {
		return Normalization{}, &MalformedResponseError{
			Reason: fmt.Sprintf("allocation total %.2f%% is not positive", total),
		}
	}

	norm := Normalization{RawTotal: total}
	if math.Abs(total-100) > allocationTolerance {
		for i := range resp.Portfolio {
			resp.Portfolio[i].Allocation = resp.Portfolio[i].Allocation / total * 100
		}
		norm.Applied = true
	}
	return norm, nil
}

// extractJSON pulls the first JSON object out of completion text. Models
// wrap replies in markdown fences or prose despite the instructions, so a
// fenced block is preferred, then brace matching from the first '{'.
func extractJSON(text string) string {
	candidate := text
	if m := fencedJSONPattern.FindStringSubmatch(text); len(m) > 1 {
		candidate = m[1]
	}
	return firstJSONObject(candidate)
}

// firstJSONObject returns the first brace-balanced object in text, tracking
// strings and escapes so braces inside values do not confuse the count.
func firstJSONObject(text string) string {
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return ""
	}

	braceCount := 0
	inString := false
	escaped := false

	for i := startIdx; i < len(text); i++ {
		ch := text[i]

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if ch == '{' {
				braceCount++
			} else if ch == '}' {
				braceCount--
				if braceCount == 0 {
					return text[startIdx : i+1]
				}
			}
		}
	}

	return ""
}
