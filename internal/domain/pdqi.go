package domain

// PDQI-9 rubric dimensions, each scored 1-5.
const (
	DimUpToDate   = "up_to_date"
	DimAccurate   = "accurate"
	DimThorough   = "thorough"
	DimUseful     = "useful"
	DimOrganized  = "organized"
	DimConcise    = "concise"
	DimConsistent = "consistent"
	DimComplete   = "complete"
	DimActionable = "actionable"
)

// PDQIDimensions lists the nine rubric dimensions in rubric order.
var PDQIDimensions = []string{
	DimUpToDate, DimAccurate, DimThorough, DimUseful, DimOrganized,
	DimConcise, DimConsistent, DimComplete, DimActionable,
}

// DimensionExplanation carries the per-dimension narrative returned by the
// rubric model.
type DimensionExplanation struct {
	Dimension   string   `json:"dimension"`
	Score       float64  `json:"score"`
	Narrative   string   `json:"narrative"`
	Evidence    []string `json:"evidence_excerpts,omitempty"`
	Suggestions []string `json:"improvement_suggestions,omitempty"`
}

// PDQIScore holds the nine rubric dimension scores plus commentary.
type PDQIScore struct {
	Scores       map[string]float64     `json:"scores"`
	Summary      string                 `json:"summary,omitempty"`
	Rationale    string                 `json:"rationale,omitempty"`
	Provenance   string                 `json:"model_provenance"`
	Explanations []DimensionExplanation `json:"dimension_explanations,omitempty"`
}

// NewPDQIScore validates that every dimension is present with a score in
// [1,5] and, if explanations are supplied, that they cover exactly the nine
// dimensions once each.
func NewPDQIScore(scores map[string]float64, summary, rationale, provenance string, explanations []DimensionExplanation) (PDQIScore, error) {
	for _, dim := range PDQIDimensions {
		v, ok := scores[dim]
		if !ok {
			return PDQIScore{}, validationErr("pdqi", "missing dimension %q", dim)
		}
		if v < 1 || v > 5 {
			return PDQIScore{}, validationErr("pdqi", "score for %q out of 1-5 range: %g", dim, v)
		}
	}
	if len(explanations) > 0 {
		if len(explanations) != len(PDQIDimensions) {
			return PDQIScore{}, validationErr("pdqi", "expected %d dimension explanations, got %d", len(PDQIDimensions), len(explanations))
		}
		seen := make(map[string]bool, len(explanations))
		for _, exp := range explanations {
			if seen[exp.Dimension] {
				return PDQIScore{}, validationErr("pdqi", "duplicate explanation for %q", exp.Dimension)
			}
			seen[exp.Dimension] = true
		}
		for _, dim := range PDQIDimensions {
			if !seen[dim] {
				return PDQIScore{}, validationErr("pdqi", "explanations missing dimension %q", dim)
			}
		}
	}
	own := make(map[string]float64, len(PDQIDimensions))
	for _, dim := range PDQIDimensions {
		own[dim] = scores[dim]
	}
	return PDQIScore{
		Scores:       own,
		Summary:      summary,
		Rationale:    rationale,
		Provenance:   provenance,
		Explanations: explanations,
	}, nil
}

// Total returns the summed score on the 9-45 scale. This, not a 1-5
// average, is the scale the aggregator normalizes from.
func (p PDQIScore) Total() float64 {
	var sum float64
	for _, dim := range PDQIDimensions {
		sum += p.Scores[dim]
	}
	return sum
}

// AsMap returns the canonical nested-mapping form for JSON encoding.
func (p PDQIScore) AsMap() map[string]any {
	m := make(map[string]any, len(p.Scores)+4)
	for dim, v := range p.Scores {
		m[dim] = v
	}
	m["summary"] = p.Summary
	if p.Rationale != "" {
		m["rationale"] = p.Rationale
	}
	m["model_provenance"] = p.Provenance
	if len(p.Explanations) > 0 {
		exps := make([]map[string]any, 0, len(p.Explanations))
		for _, e := range p.Explanations {
			exps = append(exps, map[string]any{
				"dimension":               e.Dimension,
				"score":                   e.Score,
				"narrative":               e.Narrative,
				"evidence_excerpts":       e.Evidence,
				"improvement_suggestions": e.Suggestions,
			})
		}
		m["dimension_explanations"] = exps
	}
	return m
}
