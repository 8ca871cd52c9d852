package domain

// Weights holds the component weights used for score fusion. They are
// expected to sum to 1.0; Validate enforces a small tolerance.
type Weights struct {
	PDQI       float64 `json:"pdqi_weight" yaml:"pdqi"`
	Heuristic  float64 `json:"heuristic_weight" yaml:"heuristic"`
	Factuality float64 `json:"factuality_weight" yaml:"factuality"`
}

// DefaultWeights is the standard 0.7/0.2/0.1 fusion.
func DefaultWeights() Weights {
	return Weights{PDQI: 0.7, Heuristic: 0.2, Factuality: 0.1}
}

// Validate checks the weights sum to 1.0 within tolerance.
func (w Weights) Validate() error {
	sum := w.PDQI + w.Heuristic + w.Factuality
	if sum < 0.999 || sum > 1.001 {
		return validationErr("weights", "must sum to 1.0, got %g", sum)
	}
	return nil
}

// GradeFor maps a hybrid score to its letter grade.
func GradeFor(score float64) string {
	switch {
	case score >= 4.5:
		return "A"
	case score >= 3.5:
		return "B"
	case score >= 2.5:
		return "C"
	case score >= 1.5:
		return "D"
	default:
		return "F"
	}
}

// HybridResult is the terminal artifact for one grading request. It is
// constructed once per request and never mutated afterwards; persistence,
// if any, is the caller's concern.
type HybridResult struct {
	PDQI           PDQIScore           `json:"pdqi"`
	Heuristic      HeuristicResult     `json:"heuristic"`
	Factuality     FactualityResult    `json:"factuality"`
	HybridScore    float64             `json:"hybrid_score"`
	OverallGrade   string              `json:"overall_grade"`
	Weights        Weights             `json:"weights_used"`
	ChainOfThought string              `json:"chain_of_thought,omitempty"`
	AnalysisLog    string              `json:"analysis_log,omitempty"`
	Discrepancy    DiscrepancyAnalysis `json:"discrepancy_analysis"`
}

// AsMap returns the canonical nested-mapping form for JSON encoding.
func (r HybridResult) AsMap() map[string]any {
	m := map[string]any{
		"pdqi_scores":         r.PDQI.AsMap(),
		"pdqi_total":          r.PDQI.Total(),
		"heuristic_analysis":  r.Heuristic.AsMap(),
		"factuality_analysis": r.Factuality.AsMap(),
		"hybrid_score":        r.HybridScore,
		"overall_grade":       r.OverallGrade,
		"weights_used": map[string]any{
			"pdqi_weight":       r.Weights.PDQI,
			"heuristic_weight":  r.Weights.Heuristic,
			"factuality_weight": r.Weights.Factuality,
		},
		"chain_of_thought":     r.ChainOfThought,
		"discrepancy_analysis": r.Discrepancy.AsMap(),
	}
	if r.AnalysisLog != "" {
		m["analysis_log"] = r.AnalysisLog
	}
	return m
}
