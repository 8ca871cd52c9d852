// Package factuality assesses how well a clinical note's claims are
// supported by the encounter transcript. Three assessors are available:
// a model-based reviewer, a fast embedding-similarity screen, and a
// hybrid that uses the embedding screen to focus the model review.
package factuality

import (
	"context"
	"log"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

// Assessor checks a note's factual consistency against a transcript.
type Assessor interface {
	Assess(ctx context.Context, note, transcript string, precision domain.Precision) (domain.FactualityResult, error)
}

// Provider names for configuration.
const (
	ProviderO3        = "o3"
	ProviderEmbedding = "embedding"
	ProviderHybrid    = "hybrid"
)

// New returns the assessor for the configured provider name. Unknown
// names fall back to the model-based assessor.
func New(provider string, client llm.Client, cfg Config, supportThreshold float64) Assessor {
	switch provider {
	case ProviderEmbedding:
		return NewEmbeddingAssessor(client, supportThreshold)
	case ProviderHybrid:
		return NewHybridAssessor(NewEmbeddingAssessor(client, supportThreshold), NewO3Assessor(client, cfg))
	case ProviderO3:
		return NewO3Assessor(client, cfg)
	default:
		log.Printf("factuality: unknown provider %q, defaulting to %s", provider, ProviderO3)
		return NewO3Assessor(client, cfg)
	}
}
