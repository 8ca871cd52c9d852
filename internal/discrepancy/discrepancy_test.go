package discrepancy

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
)

// fakeEmbedder returns canned unit vectors per text so tests can pin
// exact cosine similarities.
type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float64{0, 1}
		}
		out[i] = v
	}
	return out, nil
}

// unitVec returns a 2-d unit vector whose cosine against {1,0} is sim.
func unitVec(sim float64) []float64 {
	return []float64{sim, math.Sqrt(1 - sim*sim)}
}

func TestDetectContradictionsNumerical(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"Patient takes 10mg lisinopril daily": {1, 0},
		"Patient takes 20mg lisinopril daily": unitVec(0.75),
	}}
	a := NewAnalyzer(embedder, Config{})

	result := a.DetectContradictions(context.Background(),
		"Patient takes 10mg lisinopril daily.",
		"Patient takes 20mg lisinopril daily.")

	require.Equal(t, 1, result.Count())
	c := result.Contradictions[0]
	assert.Equal(t, domain.ContradictionNumerical, c.Type)
	assert.Contains(t, c.Explanation, "10mg")
	assert.Contains(t, c.Explanation, "20mg")
	assert.Equal(t, domain.CategoryMedication, c.Category)
	assert.InDelta(t, 0.25, c.Confidence, 1e-9)
	// severity = 0.95 (medication) * 1.0 (numerical) * 0.25
	assert.InDelta(t, 0.2375, c.Severity, 1e-9)
	assert.GreaterOrEqual(t, result.ProcessingTimeMS, 0.0)
}

func TestDetectContradictionsNegation(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"No history of diabetes":              {1, 0},
		"Patient reports history of diabetes": unitVec(0.75),
	}}
	a := NewAnalyzer(embedder, Config{})

	result := a.DetectContradictions(context.Background(),
		"No history of diabetes.",
		"Patient reports history of diabetes.")

	require.Equal(t, 1, result.Count())
	assert.Equal(t, domain.ContradictionNegation, result.Contradictions[0].Type)
}

func TestDetectContradictionsEmptyTranscript(t *testing.T) {
	a := NewAnalyzer(&fakeEmbedder{}, Config{})
	result := a.DetectContradictions(context.Background(), "Patient takes 10mg lisinopril daily.", "  ")
	assert.Zero(t, result.Count())
	assert.GreaterOrEqual(t, result.ProcessingTimeMS, 0.0)
}

func TestDetectContradictionsOutsideZone(t *testing.T) {
	// Similarity 0.95 means the statements agree; 0.30 means unrelated.
	for _, sim := range []float64{0.95, 0.30} {
		embedder := &fakeEmbedder{vectors: map[string][]float64{
			"Patient takes 10mg lisinopril daily": {1, 0},
			"Patient takes 20mg lisinopril daily": unitVec(sim),
		}}
		a := NewAnalyzer(embedder, Config{})
		result := a.DetectContradictions(context.Background(),
			"Patient takes 10mg lisinopril daily.",
			"Patient takes 20mg lisinopril daily.")
		assert.Zero(t, result.Count(), "similarity %v", sim)
	}
}

func TestDetectContradictionsEmbeddingFailureDegrades(t *testing.T) {
	a := NewAnalyzer(&fakeEmbedder{err: errors.New("timeout")}, Config{})
	result := a.DetectContradictions(context.Background(),
		"Patient takes 10mg lisinopril daily.",
		"Patient takes 20mg lisinopril daily.")
	assert.Zero(t, result.Count())
}

func TestDetectHallucinationsNoEvidenceTranscript(t *testing.T) {
	a := NewAnalyzer(&fakeEmbedder{}, Config{})

	note := "Patient's blood pressure was 180/110, extremely elevated, requiring immediate intervention per cardiology consult."
	transcript := "We chatted about the weather. Everything else was small talk."
	result := a.DetectHallucinations(context.Background(), note, transcript)

	require.Equal(t, 1, result.Count())
	h := result.Hallucinations[0]
	assert.Equal(t, 0.8, h.Confidence)
	assert.Equal(t, 0.0, h.ContextSimilarity)
	assert.Equal(t, "No supporting evidence found in transcript", h.Recommendation)
}

func TestDetectHallucinationsEmptyTranscript(t *testing.T) {
	a := NewAnalyzer(&fakeEmbedder{}, Config{})
	result := a.DetectHallucinations(context.Background(), "Patient takes 10mg lisinopril daily.", "")
	assert.Zero(t, result.Count())
	assert.GreaterOrEqual(t, result.ProcessingTimeMS, 0.0)
}

func TestDetectHallucinationsSupportedClaimNotFlagged(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"Patient takes 10mg lisinopril daily": {1, 0},
		"I take 10mg of lisinopril every day": unitVec(0.9),
	}}
	a := NewAnalyzer(embedder, Config{})

	result := a.DetectHallucinations(context.Background(),
		"Patient takes 10mg lisinopril daily.",
		"I take 10mg of lisinopril every day.")
	assert.Zero(t, result.Count())
}

func TestDetectHallucinationsWeakSupportFlagged(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"Patient was prescribed warfarin 5 mg": {1, 0},
		"We discussed the blood pressure plan": unitVec(0.30),
	}}
	a := NewAnalyzer(embedder, Config{})

	result := a.DetectHallucinations(context.Background(),
		"Patient was prescribed warfarin 5 mg.",
		"We discussed the blood pressure plan.")

	require.Equal(t, 1, result.Count())
	h := result.Hallucinations[0]
	assert.Equal(t, domain.CategoryMedication, h.Category)
	// base = 1 - 0.30/0.60 = 0.5, multiplier = 1 + (0.95-0.5) = 1.45
	assert.InDelta(t, 0.725, h.Confidence, 1e-9)
	assert.Equal(t, domain.RiskHigh, h.RiskLevel)
	assert.InDelta(t, 0.30, h.ContextSimilarity, 1e-9)
}

func TestDetectHallucinationsProbabilityFloor(t *testing.T) {
	// Similarity 0.78 sits near the high-support threshold: base decays
	// to 0.05, far below the emit floor even after category scaling.
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"Patient was prescribed warfarin 5 mg":        {1, 0},
		"The warfarin medication was discussed today": unitVec(0.78),
	}}
	a := NewAnalyzer(embedder, Config{})

	result := a.DetectHallucinations(context.Background(),
		"Patient was prescribed warfarin 5 mg.",
		"The warfarin medication was discussed today.")
	assert.Zero(t, result.Count())
}

func TestDetectGapsFindsMissingAllergy(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"Patient seen for 2 week follow up visit":                    {1, 0},
		"Patient is allergic to penicillin and had a rash reaction":  unitVec(0.2),
		"Patient will return for follow up visit in two weeks again": unitVec(0.97),
	}}
	a := NewAnalyzer(embedder, Config{})

	note := "Patient seen for 2 week follow up visit."
	transcript := "Patient is allergic to penicillin and had a rash reaction. Patient will return for follow up visit in two weeks again."
	result := a.DetectGaps(context.Background(), note, transcript)

	require.Len(t, result.Gaps, 1)
	g := result.Gaps[0]
	assert.Equal(t, domain.CategoryAllergy, g.Category)
	assert.Equal(t, 0.95, g.ImportanceScore)
	assert.Equal(t, "Allergies", g.SuggestedSection)
	assert.True(t, g.IsCritical())
	assert.InDelta(t, 0.5, result.SemanticCoverage, 1e-9)
}

func TestDetectGapsEmptyTranscript(t *testing.T) {
	a := NewAnalyzer(&fakeEmbedder{}, Config{})
	result := a.DetectGaps(context.Background(), "some note text here", "")
	assert.Empty(t, result.Gaps)
	assert.Equal(t, 1.0, result.SemanticCoverage)
}

func TestDetectGapsEmptyNote(t *testing.T) {
	a := NewAnalyzer(&fakeEmbedder{}, Config{})
	result := a.DetectGaps(context.Background(), "",
		"Patient is allergic to penicillin and had a rash reaction.")
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, 0.95, result.Gaps[0].Confidence)
	assert.Equal(t, 0.0, result.SemanticCoverage)
}

func TestAnalyzeContradictionTakesPrecedence(t *testing.T) {
	// Similarity 0.70 is both in the contradiction zone and below the
	// hallucination high-support threshold; the merged analysis must
	// report the statement once, as a contradiction.
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"Patient takes 10mg lisinopril daily": {1, 0},
		"Patient takes 20mg lisinopril daily": unitVec(0.70),
	}}
	a := NewAnalyzer(embedder, Config{})

	analysis := a.Analyze(context.Background(),
		"Patient takes 10mg lisinopril daily.",
		"Patient takes 20mg lisinopril daily.")

	assert.Equal(t, 1, analysis.Contradictions.Count())
	assert.Zero(t, analysis.Hallucinations.Count())
}

func TestAnalyzeEmptyTranscriptAllEmpty(t *testing.T) {
	a := NewAnalyzer(&fakeEmbedder{}, Config{})
	analysis := a.Analyze(context.Background(), "Patient takes 10mg lisinopril daily.", "")

	assert.Zero(t, analysis.Contradictions.Count())
	assert.Zero(t, analysis.Hallucinations.Count())
	assert.Empty(t, analysis.Gaps.Gaps)
	assert.False(t, analysis.HasCriticalIssues())
}

func TestConfigDefaults(t *testing.T) {
	a := NewAnalyzer(&fakeEmbedder{}, Config{})
	assert.Equal(t, DefaultConfig(), a.cfg)
}
