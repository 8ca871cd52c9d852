package factuality

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
	"github.com/Churchillbones/clinical-note-quality/internal/textanalysis"
)

// DefaultSupportThreshold is the cosine similarity above which a note
// sentence counts as supported by a transcript sentence.
const DefaultSupportThreshold = 0.75

// EmbeddingAssessor screens note sentences against transcript sentences
// with embedding similarity. It is cheap enough to run on every request
// and makes exactly one embedding call per assessment.
type EmbeddingAssessor struct {
	embedder  llm.Embedder
	threshold float64
}

// NewEmbeddingAssessor returns an Assessor using embedder. A non-positive
// threshold selects the default.
func NewEmbeddingAssessor(embedder llm.Embedder, threshold float64) *EmbeddingAssessor {
	if threshold <= 0 {
		threshold = DefaultSupportThreshold
	}
	return &EmbeddingAssessor{embedder: embedder, threshold: threshold}
}

// Assess scores the fraction of note sentences semantically supported by
// the transcript, mapped onto the 1-5 consistency scale.
func (a *EmbeddingAssessor) Assess(ctx context.Context, note, transcript string, _ domain.Precision) (domain.FactualityResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return domain.NeutralFactuality("No transcript provided for embedding-based factuality analysis."), nil
	}

	noteSentences := textanalysis.ExtractSentences(note, 1)
	transcriptSentences := textanalysis.ExtractSentences(transcript, 1)

	if len(noteSentences) == 0 {
		return domain.FactualityResult{
			ConsistencyScore: 5.0,
			Summary:          "Note was empty, no claims to check.",
		}, nil
	}
	if len(transcriptSentences) == 0 {
		claims := make([]domain.ClaimJudgement, 0, len(noteSentences))
		for _, s := range noteSentences {
			claims = append(claims, domain.ClaimJudgement{
				Claim:       s,
				Support:     domain.SupportNotSupported,
				Explanation: "Transcript is empty.",
			})
		}
		return domain.FactualityResult{
			ConsistencyScore: 1.0,
			ClaimsChecked:    len(noteSentences),
			Summary:          "Transcript was empty, all claims are unsupported.",
			Claims:           claims,
		}, nil
	}

	// One batched call for all sentences from both texts.
	all := append(append([]string{}, noteSentences...), transcriptSentences...)
	embeddings, err := a.embedder.Embed(ctx, all)
	if err != nil {
		return domain.FactualityResult{}, fmt.Errorf("embedding factuality screen: %w", err)
	}
	noteVecs := embeddings[:len(noteSentences)]
	transcriptVecs := embeddings[len(noteSentences):]

	supported := 0
	var unsupported []string
	for i, sent := range noteSentences {
		best := 0.0
		for _, tv := range transcriptVecs {
			if sim := llm.Cosine(noteVecs[i], tv); sim > best {
				best = sim
			}
		}
		if best >= a.threshold {
			supported++
		} else {
			unsupported = append(unsupported, sent)
		}
	}

	total := len(noteSentences)
	ratio := float64(supported) / float64(total)
	score := math.Round((1+ratio*4)*100) / 100

	claims := make([]domain.ClaimJudgement, 0, len(unsupported))
	for _, s := range unsupported {
		claims = append(claims, domain.ClaimJudgement{
			Claim:       s,
			Support:     domain.SupportNotSupported,
			Explanation: fmt.Sprintf("This statement could not be semantically matched to any part of the transcript (max similarity < %.2f).", a.threshold),
		})
	}

	return domain.FactualityResult{
		ConsistencyScore: score,
		ClaimsChecked:    total,
		Summary:          fmt.Sprintf("%d of %d sentences in the note were found to be supported by the transcript.", supported, total),
		Claims:           claims,
	}, nil
}
