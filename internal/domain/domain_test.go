package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullScores(v float64) map[string]float64 {
	m := make(map[string]float64, len(PDQIDimensions))
	for _, dim := range PDQIDimensions {
		m[dim] = v
	}
	return m
}

func TestPDQIScore_TotalIsSum(t *testing.T) {
	p, err := NewPDQIScore(fullScores(5), "", "", "o3", nil)
	require.NoError(t, err)
	assert.Equal(t, 45.0, p.Total())

	p, err = NewPDQIScore(fullScores(1), "", "", "o3", nil)
	require.NoError(t, err)
	assert.Equal(t, 9.0, p.Total())
}

func TestPDQIScore_MissingDimensionFails(t *testing.T) {
	scores := fullScores(3)
	delete(scores, DimConcise)
	_, err := NewPDQIScore(scores, "", "", "o3", nil)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestPDQIScore_OutOfRangeFails(t *testing.T) {
	scores := fullScores(3)
	scores[DimAccurate] = 6
	_, err := NewPDQIScore(scores, "", "", "o3", nil)
	assert.Error(t, err)

	scores[DimAccurate] = 0
	_, err = NewPDQIScore(scores, "", "", "o3", nil)
	assert.Error(t, err)
}

func TestPDQIScore_ExplanationsMustCoverAllDimensions(t *testing.T) {
	exps := []DimensionExplanation{{Dimension: DimAccurate, Score: 3, Narrative: "ok"}}
	_, err := NewPDQIScore(fullScores(3), "", "", "o3", exps)
	assert.Error(t, err)

	exps = nil
	for _, dim := range PDQIDimensions {
		exps = append(exps, DimensionExplanation{Dimension: dim, Score: 3, Narrative: "ok"})
	}
	_, err = NewPDQIScore(fullScores(3), "", "", "o3", exps)
	assert.NoError(t, err)
}

func TestContradiction_Validation(t *testing.T) {
	_, err := NewContradiction("", "transcript says", ContradictionNumerical, 0.5, CategoryMedication, "x", 0.5)
	assert.Error(t, err)

	_, err = NewContradiction("note says", "", ContradictionNumerical, 0.5, CategoryMedication, "x", 0.5)
	assert.Error(t, err)

	_, err = NewContradiction("note says", "transcript says", ContradictionNumerical, 1.2, CategoryMedication, "x", 0.5)
	assert.Error(t, err)

	c, err := NewContradiction("note says", "transcript says", ContradictionNumerical, 0.9, CategoryMedication, "x", 0.5)
	require.NoError(t, err)
	assert.True(t, c.IsHighSeverity())
}

func TestHallucination_Validation(t *testing.T) {
	_, err := NewHallucination("", RiskHigh, CategoryMedication, 0.8, "check it", 0)
	assert.Error(t, err)

	_, err = NewHallucination("claim", RiskHigh, CategoryMedication, 0.8, "", 0)
	assert.Error(t, err)

	_, err = NewHallucination("claim", RiskHigh, CategoryMedication, -0.1, "check it", 0)
	assert.Error(t, err)

	h, err := NewHallucination("claim", RiskHigh, CategoryMedication, 0.8, "check it", 0.3)
	require.NoError(t, err)
	assert.True(t, h.IsHighRisk())
}

func TestResultCountsAndGroupings(t *testing.T) {
	c1, _ := NewContradiction("a statement", "b statement", ContradictionNumerical, 0.9, CategoryMedication, "x", 0.4)
	c2, _ := NewContradiction("c statement", "d statement", ContradictionTemporal, 0.4, CategoryFollowUp, "y", 0.3)
	r := ContradictionResult{Contradictions: []Contradiction{c1, c2}, ProcessingTimeMS: 12}

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, 1, r.HighSeverityCount())
	assert.Len(t, r.ByType()[ContradictionNumerical], 1)

	h1, _ := NewHallucination("claim one", RiskHigh, CategoryAllergy, 0.9, "verify", 0.1)
	h2, _ := NewHallucination("claim two", RiskLow, CategorySymptom, 0.3, "verify", 0.5)
	hr := HallucinationResult{Hallucinations: []Hallucination{h1, h2}}
	assert.Equal(t, 1, hr.HighRiskCount())
	assert.Len(t, hr.ByRisk()[RiskLow], 1)
}

func TestSeverityWeights(t *testing.T) {
	assert.Equal(t, 0.95, CategoryMedication.SeverityWeight())
	assert.Equal(t, 0.95, CategoryAllergy.SeverityWeight())
	assert.Equal(t, 0.45, CategoryFamilyHistory.SeverityWeight())
	assert.Equal(t, 0.5, MedicalCategory("unknown").SeverityWeight())
	assert.True(t, CategoryLabResult.IsHighRisk())
	assert.False(t, CategorySocialHistory.IsHighRisk())
}

func TestGradeFor(t *testing.T) {
	assert.Equal(t, "A", GradeFor(4.5))
	assert.Equal(t, "B", GradeFor(4.0))
	assert.Equal(t, "C", GradeFor(2.5))
	assert.Equal(t, "D", GradeFor(1.5))
	assert.Equal(t, "F", GradeFor(1.0))
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.Error(t, Weights{PDQI: 0.5, Heuristic: 0.2, Factuality: 0.1}.Validate())
}

func TestHybridResultAsMapRoundTrip(t *testing.T) {
	p, _ := NewPDQIScore(fullScores(4), "solid note", "", "o3", nil)
	res := HybridResult{
		PDQI:         p,
		Heuristic:    HeuristicResult{LengthScore: 4, RedundancyScore: 4, StructureScore: 4, CompositeScore: 4},
		Factuality:   NeutralFactuality("no transcript"),
		HybridScore:  3.9,
		OverallGrade: GradeFor(3.9),
		Weights:      DefaultWeights(),
	}
	m := res.AsMap()
	assert.Equal(t, 36.0, m["pdqi_total"])
	assert.Equal(t, 3.9, m["hybrid_score"])
	assert.Equal(t, "B", m["overall_grade"])

	weights := m["weights_used"].(map[string]any)
	assert.Equal(t, 0.7, weights["pdqi_weight"])

	disc := m["discrepancy_analysis"].(map[string]any)
	contra := disc["contradiction_result"].(map[string]any)
	assert.Equal(t, 0, contra["total_contradictions_found"])
}
