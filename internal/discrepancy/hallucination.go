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

// noEvidenceConfidence is the fixed confidence assigned when the
// transcript contains no evidence-bearing sentences at all: nothing can
// be verified, so every verifiable claim is flagged.
const noEvidenceConfidence = 0.8

// minEmitProbability is the floor below which a weakly supported claim
// is not reported.
const minEmitProbability = 0.3

// DetectHallucinations flags verifiable note claims lacking supporting
// transcript evidence. Same failure semantics as DetectContradictions:
// embedding failure yields an empty, logged result.
func (a *Analyzer) DetectHallucinations(ctx context.Context, note, transcript string) domain.HallucinationResult {
	start := time.Now()
	result := func(hs []domain.Hallucination) domain.HallucinationResult {
		return domain.HallucinationResult{
			Hallucinations:   hs,
			ProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000,
		}
	}

	if strings.TrimSpace(transcript) == "" {
		return result(nil)
	}

	claims := textanalysis.FactualStatements(note, textanalysis.DefaultMinClaimLen, textanalysis.DefaultMinClaimLen)
	if len(claims) == 0 {
		return result(nil)
	}

	evidence := textanalysis.EvidenceSentences(transcript)
	if len(evidence) == 0 {
		return result(a.unsupportedClaims(claims))
	}

	all := append(append([]string{}, claims...), evidence...)
	embeddings, err := a.embedder.Embed(ctx, all)
	if err != nil {
		log.Printf("discrepancy: hallucination embeddings failed: %v", err)
		return result(nil)
	}
	claimVecs := embeddings[:len(claims)]
	evidenceVecs := embeddings[len(claims):]

	var found []domain.Hallucination
	for i, claim := range claims {
		maxSim, bestIdx := 0.0, -1
		for j, ev := range evidenceVecs {
			if sim := llm.Cosine(claimVecs[i], ev); sim > maxSim {
				maxSim, bestIdx = sim, j
			}
		}
		if maxSim >= a.cfg.HighSupportThreshold {
			continue
		}

		category := textanalysis.Categorize(claim)
		prob := a.hallucinationProbability(maxSim, category)
		if prob < minEmitProbability {
			continue
		}

		var bestEvidence string
		if bestIdx >= 0 {
			bestEvidence = evidence[bestIdx]
		}
		h, err := domain.NewHallucination(
			claim,
			riskLevel(category, prob),
			category,
			prob,
			a.explainHallucination(maxSim, bestEvidence),
			clamp01(maxSim),
		)
		if err != nil {
			log.Printf("discrepancy: dropping invalid hallucination: %v", err)
			continue
		}
		found = append(found, h)
	}
	return result(found)
}

// unsupportedClaims handles the no-evidence transcript: every verifiable
// claim is emitted with risk derived from category alone.
func (a *Analyzer) unsupportedClaims(claims []string) []domain.Hallucination {
	out := make([]domain.Hallucination, 0, len(claims))
	for _, claim := range claims {
		category := textanalysis.Categorize(claim)
		h, err := domain.NewHallucination(
			claim,
			riskLevel(category, 0),
			category,
			noEvidenceConfidence,
			"No supporting evidence found in transcript",
			0,
		)
		if err != nil {
			log.Printf("discrepancy: dropping invalid hallucination: %v", err)
			continue
		}
		out = append(out, h)
	}
	return out
}

// hallucinationProbability maps support similarity onto a probability:
// below the low threshold it rises linearly toward 1 at similarity 0;
// between the thresholds it decays linearly from 0.5 to 0. The result is
// scaled by the category's clinical severity.
func (a *Analyzer) hallucinationProbability(maxSim float64, category domain.MedicalCategory) float64 {
	var base float64
	if maxSim <= a.cfg.LowSupportThreshold {
		base = 1 - maxSim/a.cfg.LowSupportThreshold
	} else {
		span := a.cfg.HighSupportThreshold - a.cfg.LowSupportThreshold
		base = 0.5 * (1 - (maxSim-a.cfg.LowSupportThreshold)/span)
	}

	multiplier := 1 + (category.SeverityWeight() - 0.5)
	return clamp01(base * multiplier)
}

// riskLevel tiers the probability with lower cutoffs for clinically
// high-risk categories.
func riskLevel(category domain.MedicalCategory, prob float64) domain.RiskLevel {
	high, medium := 0.70, 0.50
	if category.IsHighRisk() {
		high, medium = 0.60, 0.40
	}
	switch {
	case prob >= high:
		return domain.RiskHigh
	case prob >= medium:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func (a *Analyzer) explainHallucination(maxSim float64, bestEvidence string) string {
	if maxSim < a.cfg.LowSupportThreshold {
		if bestEvidence != "" {
			if len(bestEvidence) > 100 {
				bestEvidence = bestEvidence[:100]
			}
			return fmt.Sprintf("Statement lacks sufficient supporting evidence in transcript. Best match: '%s...' (similarity: %.2f)", bestEvidence, maxSim)
		}
		return "Statement has no supporting evidence in transcript"
	}
	return fmt.Sprintf("Statement may be partially supported but lacks complete verification (similarity: %.2f)", maxSim)
}
