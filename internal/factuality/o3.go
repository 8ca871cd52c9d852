package factuality

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

const factualityPrompt = `You are a clinical documentation auditor. Compare the clinical note against the encounter transcript and judge whether the note's factual claims are supported.

Return ONLY a JSON object:
{
  "consistency_score": <1-5, 5 = fully consistent>,
  "claims_checked": <number of claims reviewed>,
  "summary": "<one or two sentence overall assessment>",
  "claims": [{"claim": "<text>", "support": "Supported|Not Supported|Unclear", "explanation": "<brief>"}]
}`

const hybridFactualityPrompt = factualityPrompt + `

A preliminary semantic screen has already flagged specific sentences as potentially unsupported. Focus your review on those sentences, but still report any other inconsistency you notice.`

// O3Assessor reviews note-vs-transcript consistency with a reasoning
// model. Provider and parse failures propagate; the consistency score is
// a primary grading signal and cannot be silently neutralized.
type O3Assessor struct {
	completer llm.Completer
	cfg       Config
}

// Config maps precision tiers onto reasoning model deployments.
type Config struct {
	LowDeployment    string
	MediumDeployment string
	HighDeployment   string
	MaxTokens        int
}

func (c Config) deployment(p domain.Precision) string {
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

// NewO3Assessor returns an Assessor backed by completer.
func NewO3Assessor(completer llm.Completer, cfg Config) *O3Assessor {
	return &O3Assessor{completer: completer, cfg: cfg}
}

// Assess runs a full-note consistency review.
func (a *O3Assessor) Assess(ctx context.Context, note, transcript string, precision domain.Precision) (domain.FactualityResult, error) {
	return a.assess(ctx, note, transcript, precision, nil)
}

func (a *O3Assessor) assess(ctx context.Context, note, transcript string, precision domain.Precision, flagged []string) (domain.FactualityResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return domain.NeutralFactuality("No transcript provided for factuality analysis."), nil
	}

	system := factualityPrompt
	var user strings.Builder
	fmt.Fprintf(&user, "Clinical Note:\n\n%s\n\nEncounter Transcript:\n\n%s", note, transcript)
	if len(flagged) > 0 {
		system = hybridFactualityPrompt
		user.WriteString("\n\nSentences flagged by the preliminary analysis:\n")
		for _, s := range flagged {
			fmt.Fprintf(&user, "- %s\n", s)
		}
	}

	raw, err := a.completer.Complete(ctx, llm.CompletionRequest{
		System:     system,
		User:       user.String(),
		Deployment: a.cfg.deployment(precision),
		MaxTokens:  a.cfg.MaxTokens,
	})
	if err != nil {
		return domain.FactualityResult{}, fmt.Errorf("factuality review: %w", err)
	}

	result, err := parseFactualityResponse(raw)
	if err != nil {
		return domain.FactualityResult{}, fmt.Errorf("parsing factuality response: %w", err)
	}
	return result, nil
}

type factualityPayload struct {
	ConsistencyScore     float64                 `json:"consistency_score"`
	ClaimsChecked        int                     `json:"claims_checked"`
	Summary              string                  `json:"summary"`
	Claims               []domain.ClaimJudgement `json:"claims"`
	ConsistencyNarrative string                  `json:"consistency_narrative"`
}

func parseFactualityResponse(raw string) (domain.FactualityResult, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var payload factualityPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		if idx := strings.LastIndex(trimmed, "}"); idx >= 0 {
			if err2 := json.Unmarshal([]byte(trimmed[:idx+1]), &payload); err2 != nil {
				return domain.FactualityResult{}, err
			}
		} else {
			return domain.FactualityResult{}, err
		}
	}

	result := domain.FactualityResult{
		ConsistencyScore:     domain.ClampScore(payload.ConsistencyScore),
		ClaimsChecked:        payload.ClaimsChecked,
		Summary:              payload.Summary,
		Claims:               payload.Claims,
		ConsistencyNarrative: payload.ConsistencyNarrative,
	}
	if result.ClaimsChecked < 0 {
		result.ClaimsChecked = 0
	}
	if result.ClaimsChecked == 0 {
		result.ClaimsChecked = len(result.Claims)
	}
	return result, result.Validate()
}
