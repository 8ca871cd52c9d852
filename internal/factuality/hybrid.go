package factuality

import (
	"context"
	"log"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
)

// HybridAssessor chains the embedding screen and the model review: the
// screen flags candidate-unsupported sentences, and the model reviews
// specifically those. When the screen finds nothing unsupported the
// model call is skipped entirely.
type HybridAssessor struct {
	embedding *EmbeddingAssessor
	model     *O3Assessor
}

// NewHybridAssessor returns an Assessor combining both passes.
func NewHybridAssessor(embedding *EmbeddingAssessor, model *O3Assessor) *HybridAssessor {
	return &HybridAssessor{embedding: embedding, model: model}
}

// Assess runs the two-pass review. The second pass strictly depends on
// the first pass's flagged sentences.
func (a *HybridAssessor) Assess(ctx context.Context, note, transcript string, precision domain.Precision) (domain.FactualityResult, error) {
	screen, err := a.embedding.Assess(ctx, note, transcript, precision)
	if err != nil {
		return domain.FactualityResult{}, err
	}

	flagged := make([]string, 0, len(screen.Claims))
	for _, c := range screen.Claims {
		if c.Support == domain.SupportNotSupported {
			flagged = append(flagged, c.Claim)
		}
	}
	if len(flagged) == 0 {
		return screen, nil
	}

	log.Printf("factuality: embedding screen flagged %d sentences, running focused model review", len(flagged))
	return a.model.assess(ctx, note, transcript, precision, flagged)
}
