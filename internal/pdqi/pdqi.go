// Package pdqi scores clinical notes against the nine-dimension PDQI-9
// documentation quality rubric using a chat completion model.
package pdqi

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

const systemPrompt = `You are a physician-quality-improvement expert. Evaluate the clinical note using the PDQI-9 rubric. Score each dimension with an integer from 1 (worst) to 5 (best).

Dimensions: up_to_date, accurate, thorough, useful, organized, concise, consistent, complete, actionable.

Return ONLY a JSON object of the form:
{
  "up_to_date": <1-5>,
  "accurate": <1-5>,
  "thorough": <1-5>,
  "useful": <1-5>,
  "organized": <1-5>,
  "concise": <1-5>,
  "consistent": <1-5>,
  "complete": <1-5>,
  "actionable": <1-5>,
  "summary": "<one or two sentence overall narrative>",
  "rationale": "<brief scoring rationale>"
}`

// Config maps precision tiers onto model deployments.
type Config struct {
	LowDeployment    string
	MediumDeployment string
	HighDeployment   string
	MaxTokens        int
}

// Deployment returns the deployment name for p, defaulting to medium.
func (c Config) Deployment(p domain.Precision) string {
	switch p {
	case domain.PrecisionLow:
		if c.LowDeployment != "" {
			return c.LowDeployment
		}
	case domain.PrecisionHigh:
		if c.HighDeployment != "" {
			return c.HighDeployment
		}
	}
	return c.MediumDeployment
}

// Scorer runs PDQI-9 rubric scoring through a completion model.
type Scorer struct {
	completer llm.Completer
	cfg       Config
}

// NewScorer returns a Scorer backed by completer.
func NewScorer(completer llm.Completer, cfg Config) *Scorer {
	return &Scorer{completer: completer, cfg: cfg}
}

// Score evaluates note against the PDQI-9 rubric. If an encounter
// transcript is available it is included for the model to cross-check
// accuracy and completeness.
func (s *Scorer) Score(ctx context.Context, note, transcript string, precision domain.Precision) (domain.PDQIScore, error) {
	if strings.TrimSpace(note) == "" {
		return domain.PDQIScore{}, fmt.Errorf("pdqi scoring: %w", &domain.ValidationError{Field: "note", Reason: "must not be empty"})
	}

	var prompt strings.Builder
	prompt.WriteString("Clinical note to evaluate:\n\n")
	prompt.WriteString(note)
	if strings.TrimSpace(transcript) != "" {
		prompt.WriteString("\n\nEncounter transcript for reference:\n\n")
		prompt.WriteString(transcript)
	}

	deployment := s.cfg.Deployment(precision)
	raw, err := s.completer.Complete(ctx, llm.CompletionRequest{
		System:     systemPrompt,
		User:       prompt.String(),
		Deployment: deployment,
		MaxTokens:  s.cfg.MaxTokens,
	})
	if err != nil {
		return domain.PDQIScore{}, fmt.Errorf("pdqi scoring with %s: %w", deployment, err)
	}

	score, err := ParseResponse(raw)
	if err != nil {
		return domain.PDQIScore{}, fmt.Errorf("pdqi scoring: %w", err)
	}
	score.Provenance = deployment
	log.Printf("pdqi: scored note with %s, total=%g", deployment, score.Total())
	return score, nil
}
