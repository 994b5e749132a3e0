package advisor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/FOLIOGEN/foliogen/internal/models"
)

// MockAdvisor produces a fixed portfolio without any provider access, for
// development and tests. Its allocations deliberately sum to 104 so the
// normalization path runs end to end.
type MockAdvisor struct{}

// NewMockAdvisor creates a mock advisor.
func NewMockAdvisor() *MockAdvisor {
	return &MockAdvisor{}
}

// Generate returns the canned portfolio. The thesis only influences the
// overall justification text so responses remain recognizable in the UI.
func (m *MockAdvisor) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{
			Provider: ProviderMock,
			Attempts: 1,
			Timeout:  errors.Is(err, context.DeadlineExceeded),
			Err:      err,
		}
	}

	start := time.Now()

	justification := "A diversified core-and-satellite mix: broad equity and bond ETFs anchor roughly seventy percent of the capital, with the remainder in large-cap stocks."
	if thesis := strings.TrimSpace(req.Thesis); thesis != "" {
		excerpt := thesis
		if len(excerpt) > 80 {
			excerpt = excerpt[:80] + "..."
		}
		justification += " Tilted toward the stated thesis: " + excerpt
	}

	resp := models.PortfolioResponse{
		OverallJustification: justification,
		Portfolio: []models.AssetAllocation{
			{Symbol: "VTI", Name: "Vanguard Total Stock Market ETF", Allocation: 18, Justification: "Broad US equity core holding."},
			{Symbol: "VXUS", Name: "Vanguard Total International Stock ETF", Allocation: 12, Justification: "International diversification."},
			{Symbol: "BND", Name: "Vanguard Total Bond Market ETF", Allocation: 10, Justification: "Fixed income ballast."},
			{Symbol: "QQQ", Name: "Invesco QQQ Trust", Allocation: 8, Justification: "Large-cap growth exposure."},
			{Symbol: "SCHD", Name: "Schwab US Dividend Equity ETF", Allocation: 8, Justification: "Quality dividend payers."},
			{Symbol: "VNQ", Name: "Vanguard Real Estate ETF", Allocation: 8, Justification: "Real asset diversification."},
			{Symbol: "VGT", Name: "Vanguard Information Technology ETF", Allocation: 6, Justification: "Sector tilt toward technology."},
			{Symbol: "IWM", Name: "iShares Russell 2000 ETF", Allocation: 4, Justification: "Small-cap exposure."},
			{Symbol: "AAPL", Name: "Apple Inc.", Allocation: 8, Justification: "Cash-generative mega cap."},
			{Symbol: "MSFT", Name: "Microsoft Corporation", Allocation: 8, Justification: "Enterprise software compounder."},
			{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Allocation: 8, Justification: "Financials anchor."},
			{Symbol: "JNJ", Name: "Johnson & Johnson", Allocation: 6, Justification: "Defensive healthcare holding."},
		},
	}

	norm, err := normalizeAllocations(&resp)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = "mock-advisor"
	}

	return &Result{
		Portfolio:     resp,
		Normalization: norm,
		Provider:      ProviderMock,
		Model:         model,
		Usage: Usage{
			PromptTokens:     250 + len(req.Thesis)/4,
			CompletionTokens: 320,
		},
		Attempts: 1,
		Duration: time.Since(start),
	}, nil
}
