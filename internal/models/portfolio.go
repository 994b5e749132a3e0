package models

// AssetAllocation is one line of a generated portfolio. The wire keys match
// the completion contract, so the same struct decodes the model's reply and
// encodes the API response.
type AssetAllocation struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Allocation    float64 `json:"allocation"` // percent of the portfolio
	Justification string  `json:"justification"`
}

// PortfolioResponse is the validated result of one completion: the ordered
// asset list plus the model's overall strategy justification. The camelCase
// key is the model-side contract and is reused unchanged in the API response.
type PortfolioResponse struct {
	Portfolio            []AssetAllocation `json:"portfolio"`
	OverallJustification string            `json:"overallJustification"`
}

// TotalAllocation sums the allocation percentages across all assets.
func (p PortfolioResponse) TotalAllocation() float64 {
	var total float64
	for _, a := range p.Portfolio {
		total += a.Allocation
	}
	return total
}
