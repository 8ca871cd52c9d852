package pdqi

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
)

// neutralScore fills dimensions the model omitted when falling back to
// regex extraction.
const neutralScore = 3

// ParseError indicates the model response could not be turned into a
// rubric score by any recovery tier.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable rubric response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type rubricPayload struct {
	Summary   string `json:"summary"`
	Rationale string `json:"rationale"`
}

// ParseResponse recovers a PDQI score from a model response. Models wrap
// JSON in prose or code fences often enough that parsing is tiered: a
// strict parse of the whole body, then a parse of the substring up to the
// last closing brace, then per-dimension regex extraction with neutral
// fill for anything missing. Only when all three fail is an error
// returned.
func ParseResponse(raw string) (domain.PDQIScore, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if score, ok := parseStrict(trimmed); ok {
		return score, nil
	}

	if idx := strings.LastIndex(trimmed, "}"); idx >= 0 {
		if score, ok := parseStrict(trimmed[:idx+1]); ok {
			return score, nil
		}
		if start := strings.Index(trimmed, "{"); start >= 0 && start < idx {
			if score, ok := parseStrict(trimmed[start : idx+1]); ok {
				return score, nil
			}
		}
	}

	if score, ok := parseLoose(trimmed); ok {
		return score, nil
	}

	return domain.PDQIScore{}, &ParseError{Raw: raw, Err: fmt.Errorf("no rubric dimensions found")}
}

func parseStrict(candidate string) (domain.PDQIScore, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return domain.PDQIScore{}, false
	}

	dims := make(map[string]float64, len(domain.PDQIDimensions))
	for _, dim := range domain.PDQIDimensions {
		raw, ok := fields[dim]
		if !ok {
			return domain.PDQIScore{}, false
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return domain.PDQIScore{}, false
		}
		dims[dim] = clampDimension(v)
	}

	var payload rubricPayload
	_ = json.Unmarshal([]byte(candidate), &payload)

	score, err := domain.NewPDQIScore(dims, payload.Summary, payload.Rationale, "", nil)
	if err != nil {
		return domain.PDQIScore{}, false
	}
	return score, true
}

// parseLoose scans for "dimension: N" fragments and fills anything
// missing with the neutral score, provided at least one dimension was
// actually found.
func parseLoose(raw string) (domain.PDQIScore, bool) {
	dims := make(map[string]float64, len(domain.PDQIDimensions))
	found := 0
	for _, dim := range domain.PDQIDimensions {
		re := regexp.MustCompile(`"?` + regexp.QuoteMeta(dim) + `"?\s*:\s*([1-5](?:\.\d+)?)`)
		m := re.FindStringSubmatch(raw)
		if m == nil {
			dims[dim] = neutralScore
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			dims[dim] = neutralScore
			continue
		}
		dims[dim] = clampDimension(v)
		found++
	}
	if found == 0 {
		return domain.PDQIScore{}, false
	}

	score, err := domain.NewPDQIScore(dims, "", "", "", nil)
	if err != nil {
		return domain.PDQIScore{}, false
	}
	return score, true
}

func clampDimension(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
