package discrepancy

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
	"github.com/Churchillbones/clinical-note-quality/internal/textanalysis"
)

const (
	// maxReportedGaps bounds the result so a sparse note does not bury
	// the reviewer in findings.
	maxReportedGaps = 10
	// maxEmptyNoteGaps bounds the findings for a completely empty note.
	maxEmptyNoteGaps = 5
)

// gapImportance gives the per-category importance used for gap scoring.
// Allergies outrank medications here: an undocumented allergy is the
// most dangerous omission a note can have.
var gapImportance = map[domain.MedicalCategory]float64{
	domain.CategoryAllergy:       0.95,
	domain.CategoryMedication:    0.90,
	domain.CategoryDiagnosis:     0.85,
	domain.CategoryProcedure:     0.80,
	domain.CategoryVitalSigns:    0.75,
	domain.CategoryLabResult:     0.70,
	domain.CategorySymptom:       0.65,
	domain.CategoryFollowUp:      0.60,
	domain.CategorySocialHistory: 0.50,
	domain.CategoryFamilyHistory: 0.45,
}

var sectionForCategory = map[domain.MedicalCategory]string{
	domain.CategoryMedication:    "Current Medications",
	domain.CategoryAllergy:       "Allergies",
	domain.CategoryDiagnosis:     "Assessment/Diagnosis",
	domain.CategoryProcedure:     "Procedures/Plan",
	domain.CategoryVitalSigns:    "Vital Signs",
	domain.CategorySymptom:       "Chief Complaint",
	domain.CategoryLabResult:     "Laboratory Results",
	domain.CategoryFollowUp:      "Plan/Follow-up",
	domain.CategorySocialHistory: "Social History",
	domain.CategoryFamilyHistory: "Family History",
}

var significancePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+\s*(mg|ml|mcg)\b`),
	regexp.MustCompile(`\ballerg\w*\b`),
	regexp.MustCompile(`\b(medication|drug|prescri\w*)\b`),
	regexp.MustCompile(`\bdiagnos\w*\b`),
	regexp.MustCompile(`\b(blood pressure|heart rate|temperature)\b`),
	regexp.MustCompile(`\b(pain|symptom|aches?)\b`),
	regexp.MustCompile(`\b(lab\w*|test\w*|result\w*)\b`),
	regexp.MustCompile(`\b(follow.up|return|visit)\b`),
}

// DetectGaps finds medically significant transcript content with no
// semantic counterpart in the note. Embedding failure yields an empty
// result with neutral coverage, logged.
func (a *Analyzer) DetectGaps(ctx context.Context, note, transcript string) domain.SemanticGapResult {
	start := time.Now()
	elapsed := func() float64 { return float64(time.Since(start).Microseconds()) / 1000 }

	if strings.TrimSpace(transcript) == "" {
		// Nothing to compare against: coverage is trivially complete.
		return domain.SemanticGapResult{SemanticCoverage: 1.0, ProcessingTimeMS: elapsed()}
	}

	transcriptChunks := significantChunks(transcript)
	if strings.TrimSpace(note) == "" {
		var gaps []domain.SemanticGap
		for _, chunk := range transcriptChunks {
			if len(gaps) == maxEmptyNoteGaps {
				break
			}
			if g, ok := buildGap(chunk, 0.95); ok {
				gaps = append(gaps, g)
			}
		}
		return domain.SemanticGapResult{Gaps: gaps, SemanticCoverage: 0, ProcessingTimeMS: elapsed()}
	}

	noteChunks := significantChunks(note)
	if len(transcriptChunks) == 0 {
		return domain.SemanticGapResult{SemanticCoverage: 1.0, ProcessingTimeMS: elapsed()}
	}

	all := append(append([]string{}, noteChunks...), transcriptChunks...)
	embeddings, err := a.embedder.Embed(ctx, all)
	if err != nil {
		log.Printf("discrepancy: gap embeddings failed: %v", err)
		return domain.SemanticGapResult{SemanticCoverage: 0.5, ProcessingTimeMS: elapsed()}
	}
	noteVecs := embeddings[:len(noteChunks)]
	transcriptVecs := embeddings[len(noteChunks):]

	var gaps []domain.SemanticGap
	for i, chunk := range transcriptChunks {
		maxSim := 0.0
		for _, nv := range noteVecs {
			if sim := llm.Cosine(transcriptVecs[i], nv); sim > maxSim {
				maxSim = sim
			}
		}
		if maxSim >= a.cfg.GapThreshold {
			continue
		}
		if g, ok := buildGap(chunk, clamp01(1-maxSim)); ok {
			gaps = append(gaps, g)
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].ImportanceScore > gaps[j].ImportanceScore
	})
	if len(gaps) > maxReportedGaps {
		gaps = gaps[:maxReportedGaps]
	}

	coverage := 1.0
	if len(transcriptChunks) > 0 {
		coverage = clamp01(float64(len(transcriptChunks)-len(gaps)) / float64(len(transcriptChunks)))
	}
	return domain.SemanticGapResult{Gaps: gaps, SemanticCoverage: coverage, ProcessingTimeMS: elapsed()}
}

func buildGap(chunk string, confidence float64) (domain.SemanticGap, bool) {
	category := textanalysis.Categorize(chunk)
	g, err := domain.NewSemanticGap(chunk, gapImportanceFor(chunk, category), category, sectionFor(category), confidence)
	if err != nil {
		log.Printf("discrepancy: dropping invalid gap: %v", err)
		return domain.SemanticGap{}, false
	}
	return g, true
}

// gapImportanceFor combines the category base with keyword boosts for
// allergies and dosage detail.
func gapImportanceFor(chunk string, category domain.MedicalCategory) float64 {
	importance := 0.3
	if base, ok := gapImportance[category]; ok && base > importance {
		importance = base
	}

	lower := strings.ToLower(chunk)
	boost := func(v float64, terms ...string) {
		for _, t := range terms {
			if strings.Contains(lower, t) {
				if v > importance {
					importance = v
				}
				return
			}
		}
	}
	boost(0.95, "allergic", "allergy")
	boost(0.85, "mg", "ml", "mcg", "units", "dose")
	boost(0.80, "prescription", "prescribed", "medication")

	return clamp01(importance)
}

func sectionFor(category domain.MedicalCategory) string {
	if s, ok := sectionForCategory[category]; ok {
		return s
	}
	return "Clinical Notes"
}

// significantChunks returns the transcript/note sentences that carry
// medical significance.
func significantChunks(text string) []string {
	var chunks []string
	for _, s := range textanalysis.ExtractSentences(text, textanalysis.DefaultMinSentenceLen) {
		if isMedicallySignificant(s) {
			chunks = append(chunks, s)
		}
	}
	return chunks
}

func isMedicallySignificant(text string) bool {
	lower := strings.ToLower(text)
	for _, re := range significancePatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
