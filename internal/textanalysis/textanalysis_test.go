package textanalysis

import (
	"testing"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSentences_SplitsOnTerminators(t *testing.T) {
	got := ExtractSentences("Patient reports chest pain. Denies shortness of breath! Any allergies?", 10)
	require.Len(t, got, 3)
	assert.Equal(t, "Patient reports chest pain", got[0])
	assert.Equal(t, "Denies shortness of breath", got[1])
}

func TestExtractSentences_KeepsDecimals(t *testing.T) {
	got := ExtractSentences("Prescribed 2.5 mg lisinopril daily. Follow up in two weeks.", 10)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "2.5 mg")
}

func TestExtractSentences_DropsShortFragments(t *testing.T) {
	got := ExtractSentences("Ok. Patient denies any history of chest pain.", 10)
	require.Len(t, got, 1)
}

func TestIsFactualClaim(t *testing.T) {
	assert.True(t, IsFactualClaim("Patient was prescribed 20mg atorvastatin", DefaultMinClaimLen))
	assert.True(t, IsFactualClaim("Patient diagnosed with hypertension last year", DefaultMinClaimLen))
	// Hedged statements are not claims.
	assert.False(t, IsFactualClaim("Patient probably was prescribed 20mg atorvastatin", DefaultMinClaimLen))
	assert.False(t, IsFactualClaim("Will consider ordering an MRI", DefaultMinClaimLen))
	// No factual indicator at all.
	assert.False(t, IsFactualClaim("The weather was nice during the visit today", DefaultMinClaimLen))
	// Too short.
	assert.False(t, IsFactualClaim("5mg dose", DefaultMinClaimLen))
}

func TestIsSupportingEvidence(t *testing.T) {
	assert.True(t, IsSupportingEvidence("Patient says the pain started yesterday"))
	assert.True(t, IsSupportingEvidence("Currently taking 10mg lisinopril"))
	assert.False(t, IsSupportingEvidence("Okay, sounds good, see you then"))
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, domain.CategoryMedication, Categorize("Prescribed 10mg lisinopril daily dose"))
	assert.Equal(t, domain.CategoryAllergy, Categorize("Allergic reaction with hives and swelling"))
	assert.Equal(t, domain.CategoryVitalSigns, Categorize("Blood pressure 140/90 recorded"))
	// No matches falls back to diagnosis.
	assert.Equal(t, domain.CategoryDiagnosis, Categorize("zzz qqq"))
}

func TestExtractNumericValues(t *testing.T) {
	vals := ExtractNumericValues("Given 10mg lisinopril and 500 ml saline")
	require.Len(t, vals, 2)
	assert.Equal(t, "10", vals[0].Number)
	assert.Equal(t, "mg", vals[0].Unit)
	assert.Equal(t, "10mg", vals[0].FullMatch)
	assert.Equal(t, "ml", vals[1].Unit)
}

func TestExtractNumericValues_NoUnit(t *testing.T) {
	vals := ExtractNumericValues("Seen 3 times this month")
	require.NotEmpty(t, vals)
	assert.Equal(t, "none", vals[0].Unit)
}

func TestExtractBloodPressure(t *testing.T) {
	got := ExtractBloodPressure("BP was 180/110 mmHg at triage")
	require.Len(t, got, 1)
	assert.Equal(t, "180/110", got[0])
}

func TestNegationAndAffirmation(t *testing.T) {
	assert.True(t, HasNegation("No history of diabetes"))
	assert.True(t, HasNegation("Patient denies chest pain"))
	assert.False(t, HasNegation("Patient confirms chest pain"))

	assert.True(t, HasAffirmation("Patient reports history of diabetes"))
	assert.True(t, HasAffirmation("Positive for influenza"))
	assert.False(t, HasAffirmation("Unremarkable exam"))
}

func TestTemporalIndicators(t *testing.T) {
	set := ExtractTemporalIndicators("Take twice daily in the morning")
	assert.True(t, set[TemporalBID])
	assert.True(t, set[TemporalMorning])
	// "twice daily" also matches the daily pattern's "daily" token.
	assert.True(t, set[TemporalDaily])
}

func TestHasTemporalConflict(t *testing.T) {
	bid := map[string]bool{TemporalBID: true}
	tid := map[string]bool{TemporalTID: true}
	morning := map[string]bool{TemporalMorning: true}
	evening := map[string]bool{TemporalEvening: true}

	assert.True(t, HasTemporalConflict(bid, tid))
	assert.True(t, HasTemporalConflict(morning, evening))
	assert.False(t, HasTemporalConflict(morning, map[string]bool{TemporalDaily: true}))
	assert.False(t, HasTemporalConflict(nil, nil))
}

func TestMedicalTerms(t *testing.T) {
	terms := MedicalTerms("Started amoxicillin for infection, history of diabetes and hypertension")
	assert.True(t, terms["amoxicillin"])
	assert.True(t, terms["diabetes"])
	assert.True(t, terms["hypertension"])
}
