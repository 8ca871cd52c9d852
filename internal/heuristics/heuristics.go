// Package heuristics computes rule-based quality metrics for a clinical
// note: length appropriateness, redundancy, and structural formatting.
// The scores are deterministic and require no model calls.
package heuristics

import (
	"math"
	"regexp"
	"strings"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
)

// Analyze scores note on the three rule-based axes and their composite.
func Analyze(note string) domain.HeuristicResult {
	length := lengthScore(note)
	redundancy := redundancyScore(note)
	structure := structureScore(note)
	composite := (length + redundancy + structure) / 3

	return domain.HeuristicResult{
		LengthScore:         round2(length),
		RedundancyScore:     round2(redundancy),
		StructureScore:      round2(structure),
		CompositeScore:      round2(composite),
		WordCount:           len(strings.Fields(note)),
		CharacterCount:      len(note),
		LengthNarrative:     lengthNarrative(len(note)),
		RedundancyNarrative: redundancyNarrative(redundancy),
		StructureNarrative:  structureNarrative(structure),
	}
}

// lengthScore rates character count against the 4600-5000 character range
// observed as typical for comprehensive clinical notes in large EHR
// corpora. Both extremes score poorly.
func lengthScore(note string) float64 {
	n := len(note)
	switch {
	case n < 2000:
		return 1
	case n < 3000:
		return 2
	case n < 4600:
		return 3
	case n <= 5000:
		return 5
	case n <= 6500:
		return 4
	case n <= 8000:
		return 3
	default:
		return 1
	}
}

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// redundancyScore rates the share of repeated word trigrams. Notes under
// ten words are too short to measure and score a 5.
func redundancyScore(note string) float64 {
	normalized := nonWordPattern.ReplaceAllString(strings.ToLower(note), "")
	words := strings.Fields(normalized)
	if len(words) < 10 {
		return 5
	}

	counts := make(map[string]int, len(words))
	total := len(words) - 2
	for i := 0; i < total; i++ {
		counts[strings.Join(words[i:i+3], " ")]++
	}

	repeated := 0
	for _, c := range counts {
		if c > 1 {
			repeated += c - 1
		}
	}

	ratio := float64(repeated) / float64(total)
	switch {
	case ratio < 0.05:
		return 5
	case ratio < 0.10:
		return 4
	case ratio < 0.20:
		return 3
	case ratio < 0.30:
		return 2
	default:
		return 1
	}
}

var listItemPattern = regexp.MustCompile(`^\s*(?:[-*•]\s+|\d+\.)`)

// structureScore starts from a neutral base and rewards section headers,
// list formatting, and multi-line layout, capping at 5.
func structureScore(note string) float64 {
	var nonEmpty []string
	for _, line := range strings.Split(strings.TrimSpace(note), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			nonEmpty = append(nonEmpty, trimmed)
		}
	}

	headers := 0
	listItems := 0
	for _, line := range nonEmpty {
		if strings.Contains(line, ":") || (len(line) > 3 && isAllUpper(line)) {
			headers++
		}
		if listItemPattern.MatchString(line) {
			listItems++
		}
	}

	score := 3.0
	if headers >= 2 {
		score++
	}
	if listItems >= 2 {
		score += 0.5
	}
	if len(nonEmpty) > 1 {
		score += 0.5
	}
	return math.Min(5, score)
}

// isAllUpper reports whether s contains at least one letter and no
// lowercase letters, matching the header convention "ASSESSMENT".
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func lengthNarrative(chars int) string {
	switch {
	case chars < 2000:
		return "Note is very short and likely omits clinical detail."
	case chars < 4600:
		return "Note is below the typical length for comprehensive documentation."
	case chars <= 5000:
		return "Note length falls in the optimal range for comprehensive documentation."
	case chars <= 8000:
		return "Note is longer than typical and may contain redundant content."
	default:
		return "Note is far longer than typical and likely contains excessive redundancy."
	}
}

func redundancyNarrative(score float64) string {
	switch {
	case score >= 4:
		return "Little repeated phrasing detected."
	case score >= 3:
		return "Moderate repetition of phrases detected."
	default:
		return "Substantial repeated phrasing suggests copy-forward content."
	}
}

func structureNarrative(score float64) string {
	switch {
	case score >= 4.5:
		return "Well structured with clear sections and lists."
	case score >= 3.5:
		return "Some structural formatting present."
	default:
		return "Minimal structural formatting such as headers or lists."
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
