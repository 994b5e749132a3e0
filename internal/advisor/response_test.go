package advisor

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const validTwoAsset = `{
	"portfolio": [
		{"symbol": "VTI", "name": "Vanguard Total Stock Market ETF", "allocation": 60, "justification": "Core US equity exposure."},
		{"symbol": "BND", "name": "Vanguard Total Bond Market ETF", "allocation": 40, "justification": "Stability and income."}
	],
	"overallJustification": "Balanced two-fund portfolio."
}`

func TestParsePortfolio_ValidResponse(t *testing.T) {
	resp, norm, err := ParsePortfolio(validTwoAsset)
	if err != nil {
		t.Fatalf("ParsePortfolio failed: %v", err)
	}

	if len(resp.Portfolio) != 2 {
		t.Fatalf("Expected 2 assets, got %d", len(resp.Portfolio))
	}
	if resp.Portfolio[0].Symbol != "VTI" || resp.Portfolio[1].Symbol != "BND" {
		t.Errorf("Asset order not preserved: %v, %v", resp.Portfolio[0].Symbol, resp.Portfolio[1].Symbol)
	}
	if resp.Portfolio[0].Allocation != 60 || resp.Portfolio[1].Allocation != 40 {
		t.Errorf("Allocations changed on a valid response: %v, %v", resp.Portfolio[0].Allocation, resp.Portfolio[1].Allocation)
	}
	if resp.OverallJustification != "Balanced two-fund portfolio." {
		t.Errorf("OverallJustification = %q", resp.OverallJustification)
	}
	if norm.Applied {
		t.Error("Normalization should not apply to a total of exactly 100")
	}
	if norm.RawTotal != 100 {
		t.Errorf("RawTotal = %v, want 100", norm.RawTotal)
	}
}

func TestParsePortfolio_NormalizesDriftedTotal(t *testing.T) {
	text := `{"portfolio":[
		{"symbol":"AAA","name":"Asset A","allocation":60,"justification":"a"},
		{"symbol":"BBB","name":"Asset B","allocation":60,"justification":"b"}],
		"overallJustification":"Two equally overweighted assets."}`

	resp, norm, err := ParsePortfolio(text)
	if err != nil {
		t.Fatalf("ParsePortfolio failed: %v", err)
	}

	if !norm.Applied {
		t.Error("Normalization should apply to a total of 120")
	}
	if norm.RawTotal != 120 {
		t.Errorf("RawTotal = %v, want 120", norm.RawTotal)
	}
	if resp.Portfolio[0].Allocation != 50 || resp.Portfolio[1].Allocation != 50 {
		t.Errorf("Expected 50/50 after rescaling, got %v/%v", resp.Portfolio[0].Allocation, resp.Portfolio[1].Allocation)
	}
}

func TestParsePortfolio_ToleratesSmallDrift(t *testing.T) {
	text := `{"portfolio":[
		{"symbol":"AAA","name":"Asset A","allocation":50,"justification":"a"},
		{"symbol":"BBB","name":"Asset B","allocation":50.05,"justification":"b"}],
		"overallJustification":"Within tolerance."}`

	resp, norm, err := ParsePortfolio(text)
	if err != nil {
		t.Fatalf("ParsePortfolio failed: %v", err)
	}

	if norm.Applied {
		t.Error("A drift of 0.05 points is inside the tolerance and must not be rescaled")
	}
	if resp.Portfolio[0].Allocation != 50 {
		t.Errorf("Allocation[0] = %v, want exactly 50", resp.Portfolio[0].Allocation)
	}
	if resp.Portfolio[1].Allocation != 50.05 {
		t.Errorf("Allocation[1] = %v, want exactly 50.05", resp.Portfolio[1].Allocation)
	}
	if norm.RawTotal != 100.05 {
		t.Errorf("RawTotal = %v, want 100.05", norm.RawTotal)
	}
}

func TestParsePortfolio_RescalePreservesRatios(t *testing.T) {
	text := `{"portfolio":[
		{"symbol":"AAA","name":"Asset A","allocation":10,"justification":"a"},
		{"symbol":"BBB","name":"Asset B","allocation":30,"justification":"b"},
		{"symbol":"CCC","name":"Asset C","allocation":40,"justification":"c"}],
		"overallJustification":"Undersubscribed portfolio."}`

	resp, norm, err := ParsePortfolio(text)
	if err != nil {
		t.Fatalf("ParsePortfolio failed: %v", err)
	}

	if !norm.Applied {
		t.Fatal("Normalization should apply to a total of 80")
	}
	if total := resp.TotalAllocation(); math.Abs(total-100) > 1e-6 {
		t.Errorf("Post-normalization total = %v, want 100 within 1e-6", total)
	}

	gotRatio := resp.Portfolio[0].Allocation / resp.Portfolio[1].Allocation
	wantRatio := 10.0 / 30.0
	if math.Abs(gotRatio-wantRatio) > 1e-9 {
		t.Errorf("Pairwise ratio changed: got %v, want %v", gotRatio, wantRatio)
	}
	if resp.Portfolio[2].Allocation != 50 {
		t.Errorf("Allocation[2] = %v, want 50", resp.Portfolio[2].Allocation)
	}
}

func TestParsePortfolio_MalformedInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"Empty string", ""},
		{"Plain prose", "I'm sorry, I cannot generate a portfolio for that thesis."},
		{"Unclosed object", `{"portfolio": [`},
		{"Array of numbers", `[1, 2, 3]`},
		{"JSON null", "null"},
		{"Invalid JSON in braces", `{"portfolio": nope}`},
		{"HTML error page", "<html><body>502 Bad Gateway</body></html>"},
		{"Close before open", "} nonsense {"},
		{"Binary noise", "\x00\x01\x02{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParsePortfolio(tt.text)
			if err == nil {
				t.Fatal("Expected an error")
			}
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("Expected MalformedResponseError, got %T: %v", err, err)
			}
		})
	}
}

func TestParsePortfolio_MalformedErrorCarriesExcerpt(t *testing.T) {
	raw := "The portfolio is: {\"portfolio\": broken}"
	_, _, err := ParsePortfolio(raw)

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedResponseError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Raw response") {
		t.Errorf("Diagnostic should carry a raw excerpt: %v", err)
	}
}

func TestParsePortfolio_MissingFields(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantField string
		wantIndex int
	}{
		{
			name:      "Missing overallJustification",
			text:      `{"portfolio":[{"symbol":"VTI","name":"V","allocation":100,"justification":"j"}]}`,
			wantField: "overallJustification",
			wantIndex: -1,
		},
		{
			name:      "Null overallJustification",
			text:      `{"portfolio":[{"symbol":"VTI","name":"V","allocation":100,"justification":"j"}],"overallJustification":null}`,
			wantField: "overallJustification",
			wantIndex: -1,
		},
		{
			name:      "Blank overallJustification",
			text:      `{"portfolio":[{"symbol":"VTI","name":"V","allocation":100,"justification":"j"}],"overallJustification":"   "}`,
			wantField: "overallJustification",
			wantIndex: -1,
		},
		{
			name:      "Missing portfolio",
			text:      `{"overallJustification":"j"}`,
			wantField: "portfolio",
			wantIndex: -1,
		},
		{
			name:      "Null portfolio",
			text:      `{"portfolio":null,"overallJustification":"j"}`,
			wantField: "portfolio",
			wantIndex: -1,
		},
		{
			name:      "Entry missing symbol",
			text:      `{"portfolio":[{"name":"V","allocation":100,"justification":"j"}],"overallJustification":"j"}`,
			wantField: "symbol",
			wantIndex: 0,
		},
		{
			name:      "Entry missing name",
			text:      `{"portfolio":[{"symbol":"VTI","allocation":100,"justification":"j"}],"overallJustification":"j"}`,
			wantField: "name",
			wantIndex: 0,
		},
		{
			name:      "Second entry missing allocation",
			text:      `{"portfolio":[{"symbol":"VTI","name":"V","allocation":60,"justification":"j"},{"symbol":"BND","name":"B","justification":"j"}],"overallJustification":"j"}`,
			wantField: "allocation",
			wantIndex: 1,
		},
		{
			name:      "Null allocation",
			text:      `{"portfolio":[{"symbol":"VTI","name":"V","allocation":null,"justification":"j"}],"overallJustification":"j"}`,
			wantField: "allocation",
			wantIndex: 0,
		},
		{
			name:      "Entry missing justification",
			text:      `{"portfolio":[{"symbol":"VTI","name":"V","allocation":100}],"overallJustification":"j"}`,
			wantField: "justification",
			wantIndex: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParsePortfolio(tt.text)
			if err == nil {
				t.Fatal("Expected an error")
			}
			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("Expected MissingFieldError, got %T: %v", err, err)
			}
			if missing.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", missing.Field, tt.wantField)
			}
			if missing.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", missing.Index, tt.wantIndex)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("Error message should name the field: %v", err)
			}
		})
	}
}

func TestParsePortfolio_EmptyPortfolioArray(t *testing.T) {
	_, _, err := ParsePortfolio(`{"portfolio":[],"overallJustification":"j"}`)
	if err == nil {
		t.Fatal("Expected an error")
	}
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedResponseError, got %T: %v", err, err)
	}
}

func TestParsePortfolio_NonPositiveTotal(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "Zero total",
			text: `{"portfolio":[{"symbol":"A","name":"A","allocation":0,"justification":"j"},{"symbol":"B","name":"B","allocation":0,"justification":"j"}],"overallJustification":"j"}`,
		},
		{
			name: "Negative total",
			text: `{"portfolio":[{"symbol":"A","name":"A","allocation":-50,"justification":"j"},{"symbol":"B","name":"B","allocation":30,"justification":"j"}],"overallJustification":"j"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParsePortfolio(tt.text)
			if err == nil {
				t.Fatal("Expected an error, not a division by the total")
			}
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("Expected MalformedResponseError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), "not positive") {
				t.Errorf("Error should name the degenerate total: %v", err)
			}
		})
	}
}

func TestParsePortfolio_ExtractionVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "Fenced with json tag",
			text: "Here is your portfolio:\n```json\n" + validTwoAsset + "\n```\nLet me know if you want adjustments.",
		},
		{
			name: "Fenced without tag",
			text: "```\n" + validTwoAsset + "\n```",
		},
		{
			name: "Prose wrapped",
			text: "Sure! Based on your thesis: " + validTwoAsset + " Hope this helps.",
		},
		{
			name: "Trailing garbage",
			text: validTwoAsset + "}}}",
		},
		{
			name: "Second object ignored",
			text: validTwoAsset + ` {"overallJustification":"second","portfolio":[]}`,
		},
		{
			name: "Braces inside strings",
			text: `{"portfolio":[{"symbol":"VTI","name":"Fund {A}","allocation":60,"justification":"Uses a {hedged} approach."},{"symbol":"BND","name":"Fund B","allocation":40,"justification":"j"}],"overallJustification":"Braces {inside} values."}`,
		},
		{
			name: "Escaped quotes inside strings",
			text: `{"portfolio":[{"symbol":"VTI","name":"The \"Total\" Fund","allocation":60,"justification":"j"},{"symbol":"BND","name":"B","allocation":40,"justification":"j"}],"overallJustification":"Quoted \"names\" survive."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _, err := ParsePortfolio(tt.text)
			if err != nil {
				t.Fatalf("ParsePortfolio failed: %v", err)
			}
			if len(resp.Portfolio) != 2 {
				t.Errorf("Expected 2 assets, got %d", len(resp.Portfolio))
			}
			if resp.Portfolio[0].Allocation != 60 {
				t.Errorf("Allocation[0] = %v, want 60", resp.Portfolio[0].Allocation)
			}
		})
	}
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"Bare object", `{"a":1}`, `{"a":1}`},
		{"Leading prose", `result: {"a":1}`, `{"a":1}`},
		{"Nested objects", `{"a":{"b":2}} tail`, `{"a":{"b":2}}`},
		{"First of two", `{"a":1} {"b":2}`, `{"a":1}`},
		{"Brace in string", `{"a":"{"} rest`, `{"a":"{"}`},
		{"Escaped quote", `{"a":"say \"hi\""}`, `{"a":"say \"hi\""}`},
		{"No object", "nothing here", ""},
		{"Unbalanced", `{"a":1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstJSONObject(tt.text); got != tt.expected {
				t.Errorf("firstJSONObject() = %q, want %q", got, tt.expected)
			}
		})
	}
}
