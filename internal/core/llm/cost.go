package llm

// Pricing holds per-1M-token prices used to estimate a request's cost.
type Pricing struct {
	PromptPer1M     float64
	CompletionPer1M float64
}

// Estimate returns the cost of a request from its token counts.
func (p Pricing) Estimate(promptTokens, completionTokens int) float64 {
	promptCost := float64(promptTokens) * p.PromptPer1M / tokensPerMillion
	completionCost := float64(completionTokens) * p.CompletionPer1M / tokensPerMillion

	return promptCost + completionCost
}
