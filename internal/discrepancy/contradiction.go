package discrepancy

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
	"github.com/Churchillbones/clinical-note-quality/internal/textanalysis"
)

// DetectContradictions finds semantically related but factually
// conflicting statement pairs. An embedding failure returns an empty
// result and is logged; it never aborts the rest of the pipeline.
func (a *Analyzer) DetectContradictions(ctx context.Context, note, transcript string) domain.ContradictionResult {
	start := time.Now()
	result := func(cs []domain.Contradiction) domain.ContradictionResult {
		return domain.ContradictionResult{
			Contradictions:   cs,
			ProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000,
		}
	}

	if strings.TrimSpace(transcript) == "" {
		return result(nil)
	}

	noteStmts := textanalysis.FactualStatements(note, textanalysis.DefaultMinSentenceLen, textanalysis.DefaultMinSentenceLen)
	transcriptStmts := textanalysis.FactualStatements(transcript, textanalysis.DefaultMinSentenceLen, textanalysis.DefaultMinSentenceLen)
	if len(noteStmts) == 0 || len(transcriptStmts) == 0 {
		return result(nil)
	}

	// One batched embedding call for both statement sets.
	all := append(append([]string{}, noteStmts...), transcriptStmts...)
	embeddings, err := a.embedder.Embed(ctx, all)
	if err != nil {
		log.Printf("discrepancy: contradiction embeddings failed: %v", err)
		return result(nil)
	}
	noteVecs := embeddings[:len(noteStmts)]
	transcriptVecs := embeddings[len(noteStmts):]

	var found []domain.Contradiction
	for i, noteStmt := range noteStmts {
		for j, transcriptStmt := range transcriptStmts {
			sim := llm.Cosine(noteVecs[i], transcriptVecs[j])
			if sim < a.cfg.ContradictionZoneLow || sim > a.cfg.ContradictionZoneHigh {
				continue
			}
			if c, ok := a.analyzePair(noteStmt, transcriptStmt, sim); ok {
				found = append(found, c)
			}
		}
	}
	return result(found)
}

// analyzePair runs the ordered contradiction checks and stops at the
// first that fires.
func (a *Analyzer) analyzePair(noteStmt, transcriptStmt string, similarity float64) (domain.Contradiction, bool) {
	if explanation, ok := numericalConflict(noteStmt, transcriptStmt); ok {
		return a.buildContradiction(noteStmt, transcriptStmt, domain.ContradictionNumerical, explanation, similarity)
	}
	if negationConflict(noteStmt, transcriptStmt) {
		return a.buildContradiction(noteStmt, transcriptStmt, domain.ContradictionNegation,
			"Conflicting presence/absence of condition", similarity)
	}
	if temporalConflict(noteStmt, transcriptStmt) {
		return a.buildContradiction(noteStmt, transcriptStmt, domain.ContradictionTemporal,
			"Conflicting timing information", similarity)
	}
	if factualConflict(noteStmt, transcriptStmt) {
		return a.buildContradiction(noteStmt, transcriptStmt, domain.ContradictionFactual,
			"Conflicting factual information", similarity)
	}
	return domain.Contradiction{}, false
}

func (a *Analyzer) buildContradiction(noteStmt, transcriptStmt string, typ domain.ContradictionType, explanation string, similarity float64) (domain.Contradiction, bool) {
	category := textanalysis.Categorize(noteStmt)
	confidence := clamp01(1 - similarity)
	severity := clamp01(category.SeverityWeight() * typ.Multiplier() * confidence)

	c, err := domain.NewContradiction(noteStmt, transcriptStmt, typ, severity, category, explanation, confidence)
	if err != nil {
		log.Printf("discrepancy: dropping invalid contradiction: %v", err)
		return domain.Contradiction{}, false
	}
	return c, true
}

// numericalConflict reports same-unit values that disagree, including the
// blood pressure composite form.
func numericalConflict(stmt1, stmt2 string) (string, bool) {
	values1 := textanalysis.ExtractNumericValues(stmt1)
	values2 := textanalysis.ExtractNumericValues(stmt2)
	for _, v1 := range values1 {
		for _, v2 := range values2 {
			if v1.Unit == v2.Unit && v1.Unit != "none" && v1.Number != v2.Number {
				return fmt.Sprintf("Different %s: %s vs %s", v1.Unit, v1.FullMatch, v2.FullMatch), true
			}
		}
	}

	bp1 := textanalysis.ExtractBloodPressure(stmt1)
	bp2 := textanalysis.ExtractBloodPressure(stmt2)
	if len(bp1) > 0 && len(bp2) > 0 && bp1[0] != bp2[0] {
		return fmt.Sprintf("Different blood pressure: %s vs %s", bp1[0], bp2[0]), true
	}
	return "", false
}

// negationConflict fires when one statement denies what the other
// affirms.
func negationConflict(stmt1, stmt2 string) bool {
	neg1, neg2 := textanalysis.HasNegation(stmt1), textanalysis.HasNegation(stmt2)
	pos1, pos2 := textanalysis.HasAffirmation(stmt1), textanalysis.HasAffirmation(stmt2)
	return (neg1 && pos2) || (pos1 && neg2)
}

func temporalConflict(stmt1, stmt2 string) bool {
	t1 := textanalysis.ExtractTemporalIndicators(stmt1)
	t2 := textanalysis.ExtractTemporalIndicators(stmt2)
	return textanalysis.HasTemporalConflict(t1, t2)
}

// factualConflict is the fallback check: shared medical context with
// several differing specific terms.
func factualConflict(stmt1, stmt2 string) bool {
	terms1 := textanalysis.MedicalTerms(stmt1)
	terms2 := textanalysis.MedicalTerms(stmt2)

	shared, different := 0, 0
	for t := range terms1 {
		if terms2[t] {
			shared++
		} else {
			different++
		}
	}
	for t := range terms2 {
		if !terms1[t] {
			different++
		}
	}
	return shared > 0 && different > 2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
