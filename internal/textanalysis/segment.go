// Package textanalysis provides the lexical layer of the grading
// pipeline: sentence segmentation, factual-claim filtering, medical
// categorization, and the extractors (numbers, negation, temporal
// markers) the discrepancy analyzers build on. Everything here is a pure
// function of its input.
package textanalysis

import (
	"regexp"
	"strings"
)

// DefaultMinSentenceLen is the minimum length for a segment to count as a
// sentence worth analyzing.
const DefaultMinSentenceLen = 10

// DefaultMinClaimLen is the minimum length for a factual claim; slightly
// higher than the sentence minimum so fragments don't get flagged.
const DefaultMinClaimLen = 15

// ExtractSentences splits text into candidate statement units on
// period/question/exclamation boundaries, discarding units shorter than
// minLen. A period directly introducing a digit (as in "2.5 mg") does not
// end a sentence.
func ExtractSentences(text string, minLen int) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)

	flush := func() {
		s := strings.TrimSpace(b.String())
		if len(s) >= minLen {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	for i, r := range runes {
		switch r {
		case '!', '?':
			flush()
		case '.':
			if nextNonSpaceIsDigit(runes, i+1) {
				b.WriteRune(r)
			} else {
				flush()
			}
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return sentences
}

func nextNonSpaceIsDigit(runes []rune, from int) bool {
	for i := from; i < len(runes); i++ {
		switch {
		case runes[i] == ' ' || runes[i] == '\t':
			continue
		case runes[i] >= '0' && runes[i] <= '9':
			return true
		default:
			return false
		}
	}
	return false
}

var factualIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\d+\s*(mg|ml|mcg|units|g|kg|lbs|°f|°c|mmhg|bpm)`),
	regexp.MustCompile(`\b(prescribed|administered|given|ordered|performed)\b`),
	regexp.MustCompile(`\b(diagnosed with|allergy to|history of)\b`),
	regexp.MustCompile(`\bpatient (reports|states|denies|admits)\b`),
	regexp.MustCompile(`\bblood pressure.*\d+/\d+\b`),
}

var vaguenessIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\b(seems|appears|might|possibly|maybe|probably)\b`),
	regexp.MustCompile(`\b(somewhat|rather|quite|very)\b`),
	regexp.MustCompile(`\b(will consider|plan to|thinking about)\b`),
}

// IsFactualClaim reports whether a sentence contains a specific,
// verifiable factual claim: at least one factual indicator and no
// vagueness hedging.
func IsFactualClaim(text string, minLen int) bool {
	if len(strings.TrimSpace(text)) < minLen {
		return false
	}
	lower := strings.ToLower(text)
	found := false
	for _, re := range factualIndicators {
		if re.MatchString(lower) {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, re := range vaguenessIndicators {
		if re.MatchString(lower) {
			return false
		}
	}
	return true
}

// FactualStatements extracts the sentences of text that pass the factual
// claim filter.
func FactualStatements(text string, minSentenceLen, minClaimLen int) []string {
	var out []string
	for _, s := range ExtractSentences(text, minSentenceLen) {
		if IsFactualClaim(s, minClaimLen) {
			out = append(out, s)
		}
	}
	return out
}

var evidencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`patient (says|tells|reports|mentions|states)`),
	regexp.MustCompile(`patient (has|denies|admits)`),
	regexp.MustCompile(`(doctor|provider|physician) (observes|notes|finds)`),
	regexp.MustCompile(`(examination|exam) (shows|reveals)`),
	regexp.MustCompile(`"[^"]*"`),
	regexp.MustCompile(`\d+\s*(mg|ml|mcg|units)`),
	regexp.MustCompile(`blood pressure|temperature|weight`),
	regexp.MustCompile(`allergic|allergy|reaction`),
	regexp.MustCompile(`pain|symptom|complaint`),
	regexp.MustCompile(`medication|prescription|drug`),
	regexp.MustCompile(`diagnosis|condition|disease`),
	regexp.MustCompile(`procedure|surgery|treatment`),
	regexp.MustCompile(`test|lab|result|finding`),
	regexp.MustCompile(`history|previous|past|before`),
}

// IsSupportingEvidence reports whether a transcript sentence could
// corroborate a note claim: patient statements, exam findings, dosages,
// or historical facts.
func IsSupportingEvidence(text string) bool {
	if len(strings.TrimSpace(text)) < DefaultMinSentenceLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, re := range evidencePatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// EvidenceSentences extracts the transcript sentences that pass the
// supporting-evidence filter.
func EvidenceSentences(transcript string) []string {
	var out []string
	for _, s := range ExtractSentences(transcript, DefaultMinSentenceLen) {
		if IsSupportingEvidence(s) {
			out = append(out, s)
		}
	}
	return out
}
