package textanalysis

import (
	"regexp"
	"strings"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
)

// categoryPatterns scores a statement against each medical category. The
// lexicons are deliberately small; they only need to separate categories,
// not exhaustively recognize terminology.
var categoryPatterns = map[domain.MedicalCategory][]*regexp.Regexp{
	domain.CategoryMedication: {
		regexp.MustCompile(`\b\d+\s*(mg|ml|mcg|units|g|tablet|capsule|pill)\b`),
		regexp.MustCompile(`\b(prescribed|administered|given|medication|drug|pill|dose)\b`),
		regexp.MustCompile(`\b\w*(cillin|azole|pril|statin|zole)\b`),
	},
	domain.CategoryAllergy: {
		regexp.MustCompile(`\b(allergic|allergy|reaction|anaphylaxis)\b`),
		regexp.MustCompile(`\b(rash|hives|swelling|itching)\b`),
	},
	domain.CategoryDiagnosis: {
		regexp.MustCompile(`\b(diagnosed|diagnosis|condition|disease|disorder)\b`),
		regexp.MustCompile(`\b(diabetes|hypertension|asthma|copd|pneumonia)\b`),
	},
	domain.CategoryProcedure: {
		regexp.MustCompile(`\b(procedure|surgery|performed|operation|surgical)\b`),
		regexp.MustCompile(`\b(x-ray|mri|ct|scan|ultrasound|biopsy)\b`),
	},
	domain.CategoryVitalSigns: {
		regexp.MustCompile(`\b(blood pressure|bp)\s*\d+/\d+\b`),
		regexp.MustCompile(`\b(heart rate|hr|pulse)\s*\d+\b`),
		regexp.MustCompile(`\b(temperature|temp)\s*\d+\b`),
		regexp.MustCompile(`\b(respiratory rate|rr)\s*\d+\b`),
		regexp.MustCompile(`\b(oxygen saturation|o2 sat)\s*\d+\b`),
	},
	domain.CategorySymptom: {
		regexp.MustCompile(`\b(pain|symptom|complaint|discomfort)\b`),
		regexp.MustCompile(`\b(reports|denies|admits|states|mentions)\b`),
		regexp.MustCompile(`\b(nausea|fever|headache|fatigue|weakness)\b`),
	},
	domain.CategoryLabResult: {
		regexp.MustCompile(`\b(lab|laboratory|test|blood work|result)\b`),
		regexp.MustCompile(`\b(glucose|cholesterol|hemoglobin|creatinine)\b`),
		regexp.MustCompile(`\b(positive|negative|elevated|decreased|normal)\b`),
	},
	domain.CategoryFollowUp: {
		regexp.MustCompile(`\b(follow|return|appointment|visit|recheck)\b`),
		regexp.MustCompile(`\b(weeks?|months?|days?)\b`),
	},
	domain.CategorySocialHistory: {
		regexp.MustCompile(`\b(smoking|alcohol|drinks|tobacco|social)\b`),
		regexp.MustCompile(`\b(drinks per|packs per|cigarettes|beer|wine)\b`),
	},
	domain.CategoryFamilyHistory: {
		regexp.MustCompile(`\b(family|father|mother|parent|sibling|history)\b`),
		regexp.MustCompile(`\b(hereditary|genetic|familial)\b`),
	},
}

// Categorize assigns a statement the medical category with the most
// pattern matches. Ties go to the earlier category in canonical order;
// zero matches default to diagnosis.
func Categorize(text string) domain.MedicalCategory {
	lower := strings.ToLower(text)

	best := domain.CategoryDiagnosis
	bestScore := 0
	for _, category := range domain.MedicalCategories {
		score := 0
		for _, re := range categoryPatterns[category] {
			score += len(re.FindAllString(lower, -1))
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}

var medicalTermPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\w*azole\b`),
	regexp.MustCompile(`\b\w*cillin\b`),
	regexp.MustCompile(`\b\w*pril\b`),
	regexp.MustCompile(`\b\w*statin\b`),
	regexp.MustCompile(`\b\w*zole\b`),
	regexp.MustCompile(`\bdiabetes\b`),
	regexp.MustCompile(`\bhypertension\b`),
	regexp.MustCompile(`\ballergy\b`),
	regexp.MustCompile(`\bpain\b`),
	regexp.MustCompile(`\bfever\b`),
	regexp.MustCompile(`\bnausea\b`),
	regexp.MustCompile(`\bheadache\b`),
}

// MedicalTerms extracts the bag of recognizable domain terms from text.
func MedicalTerms(text string) map[string]bool {
	lower := strings.ToLower(text)
	terms := make(map[string]bool)
	for _, re := range medicalTermPatterns {
		for _, m := range re.FindAllString(lower, -1) {
			terms[m] = true
		}
	}
	return terms
}
