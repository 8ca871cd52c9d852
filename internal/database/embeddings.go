package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

// textHash keys the cache on statement content, not the raw text, so
// long statements stay within index limits.
func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// GetCachedEmbedding returns the stored vector for a statement, or ok
// false when the cache has no entry.
func (db *DB) GetCachedEmbedding(ctx context.Context, model, text string) ([]float64, bool, error) {
	var vec pgvector.Vector
	err := db.pool.QueryRow(ctx,
		`SELECT embedding FROM embedding_cache WHERE model = $1 AND text_hash = $2`,
		model, textHash(text),
	).Scan(&vec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return toFloat64(vec.Slice()), true, nil
}

// PutCachedEmbedding stores a vector for a statement, replacing any
// previous entry for the same model and text.
func (db *DB) PutCachedEmbedding(ctx context.Context, model, text string, embedding []float64) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO embedding_cache (model, text_hash, embedding)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (model, text_hash) DO UPDATE SET embedding = EXCLUDED.embedding`,
		model, textHash(text), pgvector.NewVector(toFloat32(embedding)),
	)
	return err
}

// CachedEmbedder wraps an Embedder with the database cache. Texts seen
// before skip the provider call; misses are fetched in one batch and
// stored. Cache failures fall through to the provider.
type CachedEmbedder struct {
	db    *DB
	next  llm.Embedder
	model string
}

// NewCachedEmbedder wires the cache in front of next. The model name
// partitions the cache between embedding deployments.
func NewCachedEmbedder(db *DB, next llm.Embedder, model string) *CachedEmbedder {
	return &CachedEmbedder{db: db, next: next, model: model}
}

// Embed returns one vector per input text in input order.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	var missing []int

	for i, text := range texts {
		vec, ok, err := e.db.GetCachedEmbedding(ctx, e.model, text)
		if err != nil {
			log.Printf("embedding cache: lookup failed, falling through: %v", err)
			missing = append(missing, i)
			continue
		}
		if !ok {
			missing = append(missing, i)
			continue
		}
		vectors[i] = vec
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	fetched, err := e.next.Embed(ctx, batch)
	if err != nil {
		return nil, err
	}

	for j, i := range missing {
		vectors[i] = fetched[j]
		if err := e.db.PutCachedEmbedding(ctx, e.model, texts[i], fetched[j]); err != nil {
			log.Printf("embedding cache: store failed: %v", err)
		}
	}
	return vectors, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
