package factuality

import (
	"fmt"
	"strings"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/textanalysis"
)

// VerifyHighRisk cross-checks high-risk hallucination findings against
// the transcript with a lightweight keyword and numeric overlap test, no
// model call. Verified claims are merged into the result's claims list,
// and when more than half of the high-risk claims fail verification the
// consistency score is penalized by up to a full point.
func VerifyHighRisk(result domain.FactualityResult, hallucinations []domain.Hallucination, transcript string) domain.FactualityResult {
	var highRisk []domain.Hallucination
	for _, h := range hallucinations {
		if h.IsHighRisk() {
			highRisk = append(highRisk, h)
		}
	}
	if len(highRisk) == 0 {
		return result
	}

	transcriptLower := strings.ToLower(transcript)
	transcriptTerms := textanalysis.MedicalTerms(transcript)

	failed := 0
	for _, h := range highRisk {
		if claimVerified(h.Claim, transcriptLower, transcriptTerms) {
			result.Claims = append(result.Claims, domain.ClaimJudgement{
				Claim:       h.Claim,
				Support:     domain.SupportSupported,
				Explanation: "High-risk finding verified by keyword and numeric overlap with the transcript.",
			})
		} else {
			failed++
			result.Claims = append(result.Claims, domain.ClaimJudgement{
				Claim:       h.Claim,
				Support:     domain.SupportNotSupported,
				Explanation: "High-risk finding has no keyword or numeric support in the transcript.",
			})
		}
	}
	result.ClaimsChecked += len(highRisk)

	failRatio := float64(failed) / float64(len(highRisk))
	if failRatio > 0.5 {
		penalty := failRatio
		if penalty > 1 {
			penalty = 1
		}
		result.ConsistencyScore = domain.ClampScore(result.ConsistencyScore - penalty)
		result.Summary = strings.TrimSpace(result.Summary + " " + fmt.Sprintf(
			"%d of %d high-risk findings failed transcript verification; consistency score penalized.",
			failed, len(highRisk)))
	}
	return result
}

// claimVerified applies the overlap test: every numeric value in the
// claim must appear in the transcript, and at least half of the claim's
// medical terms must be present.
func claimVerified(claim, transcriptLower string, transcriptTerms map[string]bool) bool {
	for _, nv := range textanalysis.ExtractNumericValues(claim) {
		if !strings.Contains(transcriptLower, nv.Number) {
			return false
		}
	}

	terms := textanalysis.MedicalTerms(claim)
	if len(terms) == 0 {
		// Nothing medical to match on; fall back to raw word overlap.
		words := strings.Fields(strings.ToLower(claim))
		if len(words) == 0 {
			return false
		}
		hits := 0
		for _, w := range words {
			if strings.Contains(transcriptLower, w) {
				hits++
			}
		}
		return float64(hits)/float64(len(words)) >= 0.5
	}

	hits := 0
	for term := range terms {
		if transcriptTerms[term] || strings.Contains(transcriptLower, term) {
			hits++
		}
	}
	return float64(hits)/float64(len(terms)) >= 0.5
}
