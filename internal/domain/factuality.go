package domain

// Support verdicts for individual claims.
const (
	SupportSupported    = "Supported"
	SupportNotSupported = "Not Supported"
	SupportUnclear      = "Unclear"
)

// ClaimJudgement records the verdict for a single claim checked against
// the transcript.
type ClaimJudgement struct {
	Claim       string `json:"claim"`
	Support     string `json:"support"`
	Explanation string `json:"explanation,omitempty"`
}

// FactualityResult holds the note-vs-transcript consistency assessment.
type FactualityResult struct {
	ConsistencyScore     float64          `json:"consistency_score"`
	ClaimsChecked        int              `json:"claims_checked"`
	Summary              string           `json:"summary,omitempty"`
	Claims               []ClaimJudgement `json:"claims,omitempty"`
	ConsistencyNarrative string           `json:"consistency_narrative,omitempty"`
}

// Validate checks the consistency score range and claim count.
func (f FactualityResult) Validate() error {
	if f.ConsistencyScore < 1 || f.ConsistencyScore > 5 {
		return validationErr("factuality", "consistency_score out of 1-5 range: %g", f.ConsistencyScore)
	}
	if f.ClaimsChecked < 0 {
		return validationErr("factuality", "claims_checked negative: %d", f.ClaimsChecked)
	}
	return nil
}

// NeutralFactuality is the documented default when no transcript is
// available: a neutral score with nothing checked, not an error.
func NeutralFactuality(summary string) FactualityResult {
	return FactualityResult{ConsistencyScore: 3.0, ClaimsChecked: 0, Summary: summary}
}

// AsMap returns the canonical nested-mapping form.
func (f FactualityResult) AsMap() map[string]any {
	claims := make([]map[string]any, 0, len(f.Claims))
	for _, c := range f.Claims {
		claims = append(claims, map[string]any{
			"claim":       c.Claim,
			"support":     c.Support,
			"explanation": c.Explanation,
		})
	}
	m := map[string]any{
		"consistency_score": f.ConsistencyScore,
		"claims_checked":    f.ClaimsChecked,
		"summary":           f.Summary,
		"claims":            claims,
	}
	if f.ConsistencyNarrative != "" {
		m["consistency_narrative"] = f.ConsistencyNarrative
	}
	return m
}
