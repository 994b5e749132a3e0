package advisor

import "strings"

// PromptTemplates holds the prompt text used for portfolio generation.
// Templates use {{.Variable}} placeholders substituted at build time.
type PromptTemplates struct {
	// PortfolioPrompt instructs the model to produce the portfolio JSON
	// contract from an investment thesis.
	PortfolioPrompt string

	// JSONOnlySystem is the system line for providers that take one. It
	// repeats the raw-JSON demand because models drift into prose without it.
	JSONOnlySystem string
}

// DefaultPromptTemplates returns the standard prompt templates.
func DefaultPromptTemplates() PromptTemplates {
	return PromptTemplates{
		PortfolioPrompt: `Please respond with a json object only. Do not include any introductory or concluding text, just the raw json. You are a financial advisor. Based on the following investment thesis, generate a diversified investment portfolio suitable for a starting capital of $10,000.
The portfolio should consist of 10-15 assets, with approximately 70% allocation to ETFs and 30% to individual stocks or bonds.
For each asset, provide its ticker symbol, a proposed percentage allocation (summing to 100%), and a brief justification for its inclusion based on the investment thesis.
Additionally, provide an overall justification for the portfolio strategy.
The json object should have two top-level keys: 'portfolio' (an array of asset objects) and 'overallJustification' (a string).
Each asset object in the 'portfolio' array should have 'symbol' (string), 'name' (string), 'allocation' (number), and 'justification' (string).

Investment Thesis: "{{.Thesis}}"`,

		JSONOnlySystem: `You respond with a single raw JSON object only. No introductory text, no concluding text, no markdown fences.`,
	}
}

// BuildPortfolioPrompt embeds the thesis verbatim into the portfolio prompt.
func (pt PromptTemplates) BuildPortfolioPrompt(thesis string) string {
	return strings.ReplaceAll(pt.PortfolioPrompt, "{{.Thesis}}", thesis)
}
