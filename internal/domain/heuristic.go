package domain

const maxNarrativeLen = 500

// HeuristicResult holds the rule-based quality sub-scores for a note.
type HeuristicResult struct {
	LengthScore         float64 `json:"length_score"`
	RedundancyScore     float64 `json:"redundancy_score"`
	StructureScore      float64 `json:"structure_score"`
	CompositeScore      float64 `json:"composite_score"`
	WordCount           int     `json:"word_count"`
	CharacterCount      int     `json:"character_count"`
	LengthNarrative     string  `json:"length_narrative,omitempty"`
	RedundancyNarrative string  `json:"redundancy_narrative,omitempty"`
	StructureNarrative  string  `json:"structure_narrative,omitempty"`
	CompositeNarrative  string  `json:"composite_narrative,omitempty"`
}

// Validate checks narrative length bounds and score ranges.
func (h HeuristicResult) Validate() error {
	for _, s := range []struct {
		name string
		v    float64
	}{
		{"length_score", h.LengthScore},
		{"redundancy_score", h.RedundancyScore},
		{"structure_score", h.StructureScore},
		{"composite_score", h.CompositeScore},
	} {
		if s.v < 1 || s.v > 5 {
			return validationErr("heuristic", "%s out of 1-5 range: %g", s.name, s.v)
		}
	}
	for _, n := range []struct {
		name string
		v    string
	}{
		{"length_narrative", h.LengthNarrative},
		{"redundancy_narrative", h.RedundancyNarrative},
		{"structure_narrative", h.StructureNarrative},
		{"composite_narrative", h.CompositeNarrative},
	} {
		if len(n.v) > maxNarrativeLen {
			return validationErr("heuristic", "%s exceeds %d characters", n.name, maxNarrativeLen)
		}
	}
	return nil
}

// AsMap returns the canonical nested-mapping form. Empty narratives are
// omitted.
func (h HeuristicResult) AsMap() map[string]any {
	m := map[string]any{
		"length_score":     h.LengthScore,
		"redundancy_score": h.RedundancyScore,
		"structure_score":  h.StructureScore,
		"composite_score":  h.CompositeScore,
		"word_count":       h.WordCount,
		"character_count":  h.CharacterCount,
	}
	if h.LengthNarrative != "" {
		m["length_narrative"] = h.LengthNarrative
	}
	if h.RedundancyNarrative != "" {
		m["redundancy_narrative"] = h.RedundancyNarrative
	}
	if h.StructureNarrative != "" {
		m["structure_narrative"] = h.StructureNarrative
	}
	if h.CompositeNarrative != "" {
		m["composite_narrative"] = h.CompositeNarrative
	}
	return m
}
