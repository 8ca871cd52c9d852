package domain

// Contradiction pairs a note statement with a topically related but
// factually conflicting transcript statement.
type Contradiction struct {
	NoteStatement       string            `json:"note_statement"`
	TranscriptStatement string            `json:"transcript_statement"`
	Type                ContradictionType `json:"contradiction_type"`
	Severity            float64           `json:"severity"`
	Category            MedicalCategory   `json:"medical_category"`
	Explanation         string            `json:"explanation"`
	Confidence          float64           `json:"confidence"`
}

// NewContradiction validates the statement texts and score bounds.
func NewContradiction(noteStmt, transcriptStmt string, typ ContradictionType, severity float64, category MedicalCategory, explanation string, confidence float64) (Contradiction, error) {
	if noteStmt == "" {
		return Contradiction{}, validationErr("contradiction", "note statement empty")
	}
	if transcriptStmt == "" {
		return Contradiction{}, validationErr("contradiction", "transcript statement empty")
	}
	if !inUnit(severity) {
		return Contradiction{}, validationErr("contradiction", "severity out of [0,1]: %g", severity)
	}
	if !inUnit(confidence) {
		return Contradiction{}, validationErr("contradiction", "confidence out of [0,1]: %g", confidence)
	}
	return Contradiction{
		NoteStatement:       noteStmt,
		TranscriptStatement: transcriptStmt,
		Type:                typ,
		Severity:            severity,
		Category:            category,
		Explanation:         explanation,
		Confidence:          confidence,
	}, nil
}

// IsHighSeverity reports whether the contradiction crosses the clinical
// attention threshold.
func (c Contradiction) IsHighSeverity() bool { return c.Severity > 0.8 }

// AsMap returns the canonical nested-mapping form.
func (c Contradiction) AsMap() map[string]any {
	return map[string]any{
		"note_statement":       c.NoteStatement,
		"transcript_statement": c.TranscriptStatement,
		"contradiction_type":   string(c.Type),
		"severity":             c.Severity,
		"medical_category":     string(c.Category),
		"explanation":          c.Explanation,
		"confidence":           c.Confidence,
		"is_high_severity":     c.IsHighSeverity(),
	}
}

// ContradictionResult aggregates one contradiction analysis run.
type ContradictionResult struct {
	Contradictions   []Contradiction `json:"contradictions"`
	ProcessingTimeMS float64         `json:"processing_time_ms"`
}

// Count returns the total number of contradictions found.
func (r ContradictionResult) Count() int { return len(r.Contradictions) }

// HighSeverityCount returns how many contradictions exceed severity 0.8.
func (r ContradictionResult) HighSeverityCount() int {
	n := 0
	for _, c := range r.Contradictions {
		if c.IsHighSeverity() {
			n++
		}
	}
	return n
}

// ByType groups the contradictions by detection type.
func (r ContradictionResult) ByType() map[ContradictionType][]Contradiction {
	out := make(map[ContradictionType][]Contradiction)
	for _, c := range r.Contradictions {
		out[c.Type] = append(out[c.Type], c)
	}
	return out
}

// AsMap returns the canonical nested-mapping form.
func (r ContradictionResult) AsMap() map[string]any {
	items := make([]map[string]any, 0, len(r.Contradictions))
	for _, c := range r.Contradictions {
		items = append(items, c.AsMap())
	}
	byType := make(map[string][]map[string]any)
	for typ, cs := range r.ByType() {
		group := make([]map[string]any, 0, len(cs))
		for _, c := range cs {
			group = append(group, c.AsMap())
		}
		byType[string(typ)] = group
	}
	return map[string]any{
		"total_contradictions_found": r.Count(),
		"high_severity_count":        r.HighSeverityCount(),
		"processing_time_ms":         r.ProcessingTimeMS,
		"contradictions":             items,
		"contradictions_by_type":     byType,
	}
}

// Hallucination is a note claim without corroborating transcript evidence.
type Hallucination struct {
	Claim             string          `json:"claim"`
	RiskLevel         RiskLevel       `json:"risk_level"`
	Category          MedicalCategory `json:"medical_category"`
	Confidence        float64         `json:"confidence"`
	Recommendation    string          `json:"recommendation"`
	ContextSimilarity float64         `json:"context_similarity"`
}

// NewHallucination validates required text fields and score bounds.
func NewHallucination(claim string, risk RiskLevel, category MedicalCategory, confidence float64, recommendation string, contextSimilarity float64) (Hallucination, error) {
	if claim == "" {
		return Hallucination{}, validationErr("hallucination", "claim empty")
	}
	if recommendation == "" {
		return Hallucination{}, validationErr("hallucination", "recommendation empty")
	}
	if !inUnit(confidence) {
		return Hallucination{}, validationErr("hallucination", "confidence out of [0,1]: %g", confidence)
	}
	if !inUnit(contextSimilarity) {
		return Hallucination{}, validationErr("hallucination", "context_similarity out of [0,1]: %g", contextSimilarity)
	}
	return Hallucination{
		Claim:             claim,
		RiskLevel:         risk,
		Category:          category,
		Confidence:        confidence,
		Recommendation:    recommendation,
		ContextSimilarity: contextSimilarity,
	}, nil
}

// IsHighRisk reports whether the finding sits in the high risk tier.
func (h Hallucination) IsHighRisk() bool { return h.RiskLevel == RiskHigh }

// AsMap returns the canonical nested-mapping form.
func (h Hallucination) AsMap() map[string]any {
	return map[string]any{
		"claim":              h.Claim,
		"risk_level":         string(h.RiskLevel),
		"medical_category":   string(h.Category),
		"confidence":         h.Confidence,
		"recommendation":     h.Recommendation,
		"context_similarity": h.ContextSimilarity,
		"is_high_risk":       h.IsHighRisk(),
	}
}

// HallucinationResult aggregates one hallucination analysis run.
type HallucinationResult struct {
	Hallucinations   []Hallucination `json:"hallucinations"`
	ProcessingTimeMS float64         `json:"processing_time_ms"`
}

// Count returns the total number of hallucinations found.
func (r HallucinationResult) Count() int { return len(r.Hallucinations) }

// HighRiskCount returns how many findings are high risk.
func (r HallucinationResult) HighRiskCount() int {
	n := 0
	for _, h := range r.Hallucinations {
		if h.IsHighRisk() {
			n++
		}
	}
	return n
}

// ByRisk groups hallucinations by risk level.
func (r HallucinationResult) ByRisk() map[RiskLevel][]Hallucination {
	out := make(map[RiskLevel][]Hallucination)
	for _, h := range r.Hallucinations {
		out[h.RiskLevel] = append(out[h.RiskLevel], h)
	}
	return out
}

// AsMap returns the canonical nested-mapping form.
func (r HallucinationResult) AsMap() map[string]any {
	items := make([]map[string]any, 0, len(r.Hallucinations))
	for _, h := range r.Hallucinations {
		items = append(items, h.AsMap())
	}
	byRisk := make(map[string][]map[string]any)
	for risk, hs := range r.ByRisk() {
		group := make([]map[string]any, 0, len(hs))
		for _, h := range hs {
			group = append(group, h.AsMap())
		}
		byRisk[string(risk)] = group
	}
	return map[string]any{
		"total_hallucinations_found": r.Count(),
		"high_risk_count":            r.HighRiskCount(),
		"processing_time_ms":         r.ProcessingTimeMS,
		"hallucinations":             items,
		"hallucinations_by_risk":     byRisk,
	}
}

// SemanticGap is medically important transcript content missing from the
// note.
type SemanticGap struct {
	TranscriptContent string          `json:"transcript_content"`
	ImportanceScore   float64         `json:"importance_score"`
	Category          MedicalCategory `json:"medical_category"`
	SuggestedSection  string          `json:"suggested_section"`
	Confidence        float64         `json:"confidence"`
}

// NewSemanticGap validates the gap content and score bounds.
func NewSemanticGap(content string, importance float64, category MedicalCategory, section string, confidence float64) (SemanticGap, error) {
	if content == "" {
		return SemanticGap{}, validationErr("gap", "transcript content empty")
	}
	if section == "" {
		return SemanticGap{}, validationErr("gap", "suggested section empty")
	}
	if !inUnit(importance) {
		return SemanticGap{}, validationErr("gap", "importance out of [0,1]: %g", importance)
	}
	if !inUnit(confidence) {
		return SemanticGap{}, validationErr("gap", "confidence out of [0,1]: %g", confidence)
	}
	return SemanticGap{
		TranscriptContent: content,
		ImportanceScore:   importance,
		Category:          category,
		SuggestedSection:  section,
		Confidence:        confidence,
	}, nil
}

// IsCritical reports whether the gap is critical missing documentation.
func (g SemanticGap) IsCritical() bool { return g.ImportanceScore >= 0.8 }

// AsMap returns the canonical nested-mapping form.
func (g SemanticGap) AsMap() map[string]any {
	return map[string]any{
		"transcript_content": g.TranscriptContent,
		"importance_score":   g.ImportanceScore,
		"medical_category":   string(g.Category),
		"suggested_section":  g.SuggestedSection,
		"confidence":         g.Confidence,
	}
}

// SemanticGapResult aggregates one gap detection run.
type SemanticGapResult struct {
	Gaps             []SemanticGap `json:"gaps"`
	SemanticCoverage float64       `json:"semantic_coverage"`
	ProcessingTimeMS float64       `json:"processing_time_ms"`
}

// CriticalCount returns the number of critical gaps.
func (r SemanticGapResult) CriticalCount() int {
	n := 0
	for _, g := range r.Gaps {
		if g.IsCritical() {
			n++
		}
	}
	return n
}

// AsMap returns the canonical nested-mapping form.
func (r SemanticGapResult) AsMap() map[string]any {
	items := make([]map[string]any, 0, len(r.Gaps))
	for _, g := range r.Gaps {
		items = append(items, g.AsMap())
	}
	return map[string]any{
		"gaps":                items,
		"total_gaps_found":    len(r.Gaps),
		"critical_gaps_count": r.CriticalCount(),
		"semantic_coverage":   r.SemanticCoverage,
		"processing_time_ms":  r.ProcessingTimeMS,
	}
}

// DiscrepancyAnalysis is the combined embedding-based payload attached to
// a HybridResult. It is always present; with no transcript all three
// members are empty, never omitted.
type DiscrepancyAnalysis struct {
	Gaps           SemanticGapResult   `json:"gap_result"`
	Contradictions ContradictionResult `json:"contradiction_result"`
	Hallucinations HallucinationResult `json:"hallucination_result"`
}

// HasCriticalIssues reports whether any layer found something requiring
// clinical attention.
func (d DiscrepancyAnalysis) HasCriticalIssues() bool {
	return d.Gaps.CriticalCount() > 0 ||
		d.Contradictions.HighSeverityCount() > 0 ||
		d.Hallucinations.HighRiskCount() > 0
}

// AsMap returns the canonical nested-mapping form.
func (d DiscrepancyAnalysis) AsMap() map[string]any {
	return map[string]any{
		"gap_result":           d.Gaps.AsMap(),
		"contradiction_result": d.Contradictions.AsMap(),
		"hallucination_result": d.Hallucinations.AsMap(),
		"has_critical_issues":  d.HasCriticalIssues(),
	}
}
