// Package domain holds the value objects produced by the grading pipeline.
// Objects validate their invariants at construction time so that invalid
// states cannot be serialized later.
package domain

// MedicalCategory classifies a statement by the kind of clinical
// information it carries.
type MedicalCategory string

const (
	CategoryMedication    MedicalCategory = "medication"
	CategoryAllergy       MedicalCategory = "allergy"
	CategoryDiagnosis     MedicalCategory = "diagnosis"
	CategoryProcedure     MedicalCategory = "procedure"
	CategoryVitalSigns    MedicalCategory = "vital_signs"
	CategorySymptom       MedicalCategory = "symptom"
	CategoryLabResult     MedicalCategory = "lab_result"
	CategoryFollowUp      MedicalCategory = "follow_up"
	CategorySocialHistory MedicalCategory = "social_history"
	CategoryFamilyHistory MedicalCategory = "family_history"
)

// MedicalCategories lists every category in canonical order. The order is
// load-bearing: the categorizer breaks score ties by taking the first match.
var MedicalCategories = []MedicalCategory{
	CategoryMedication,
	CategoryAllergy,
	CategoryDiagnosis,
	CategoryProcedure,
	CategoryVitalSigns,
	CategorySymptom,
	CategoryLabResult,
	CategoryFollowUp,
	CategorySocialHistory,
	CategoryFamilyHistory,
}

// categorySeverity holds the base severity weight per category, used by
// both contradiction severity and hallucination probability scoring.
// Dosage and allergy errors are the most dangerous documentation failures.
var categorySeverity = map[MedicalCategory]float64{
	CategoryMedication:    0.95,
	CategoryAllergy:       0.95,
	CategoryDiagnosis:     0.90,
	CategoryProcedure:     0.85,
	CategoryVitalSigns:    0.80,
	CategoryLabResult:     0.75,
	CategorySymptom:       0.70,
	CategoryFollowUp:      0.60,
	CategorySocialHistory: 0.50,
	CategoryFamilyHistory: 0.45,
}

// SeverityWeight returns the base severity weight for the category.
// Unknown categories get a neutral 0.5.
func (c MedicalCategory) SeverityWeight() float64 {
	if w, ok := categorySeverity[c]; ok {
		return w
	}
	return 0.5
}

// highRiskCategories are the categories whose hallucinations get lower
// risk-tier thresholds.
var highRiskCategories = map[MedicalCategory]bool{
	CategoryMedication: true,
	CategoryAllergy:    true,
	CategoryDiagnosis:  true,
	CategoryLabResult:  true,
	CategoryVitalSigns: true,
	CategoryProcedure:  true,
}

// IsHighRisk reports whether the category is clinically high risk for
// hallucination purposes.
func (c MedicalCategory) IsHighRisk() bool {
	return highRiskCategories[c]
}

// ContradictionType identifies which check confirmed a contradiction.
type ContradictionType string

const (
	ContradictionNumerical ContradictionType = "numerical"
	ContradictionTemporal  ContradictionType = "temporal"
	ContradictionNegation  ContradictionType = "negation"
	ContradictionFactual   ContradictionType = "factual"
)

// Multiplier returns the severity multiplier for the contradiction type.
// Numerical conflicts are the most serious, timing issues the least.
func (t ContradictionType) Multiplier() float64 {
	switch t {
	case ContradictionNumerical:
		return 1.0
	case ContradictionNegation:
		return 0.9
	case ContradictionFactual:
		return 0.8
	case ContradictionTemporal:
		return 0.7
	default:
		return 0.8
	}
}

// RiskLevel grades hallucination findings.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)
