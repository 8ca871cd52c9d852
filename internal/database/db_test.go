package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
)

// testDB returns a connected DB or skips if DATABASE_URL is not set.
func testDB(t *testing.T) *DB {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMigrations(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	// Just test that migrations can run (idempotent)
	err := Migrate(dbURL)
	require.NoError(t, err)
}

func sampleResult(score float64, grade string) domain.HybridResult {
	scores := make(map[string]float64, len(domain.PDQIDimensions))
	for _, dim := range domain.PDQIDimensions {
		scores[dim] = 4
	}
	return domain.HybridResult{
		PDQI:         domain.PDQIScore{Scores: scores, Provenance: "gpt-test"},
		Heuristic:    domain.HeuristicResult{LengthScore: 3, RedundancyScore: 5, StructureScore: 3, CompositeScore: 3.67},
		Factuality:   domain.FactualityResult{ConsistencyScore: 4},
		HybridScore:  score,
		OverallGrade: grade,
		Weights:      domain.DefaultWeights(),
	}
}

func TestGradeCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	created, err := db.CreateGrade(ctx, CreateGradeParams{
		NoteLength:    1200,
		HasTranscript: true,
		Precision:     "medium",
		Result:        sampleResult(4.2, "B"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 1200, created.NoteLength)
	assert.True(t, created.HasTranscript)
	assert.Equal(t, 4.2, created.HybridScore)
	assert.Equal(t, "B", created.OverallGrade)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Minute)

	found, err := db.GetGradeByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "gpt-test", found.Result.PDQI.Provenance)
	assert.Equal(t, 4.0, found.Result.Factuality.ConsistencyScore)

	missing, err := db.GetGradeByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = db.DeleteGrade(ctx, created.ID)
	require.NoError(t, err)
	found, err = db.GetGradeByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestListGrades(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a, err := db.CreateGrade(ctx, CreateGradeParams{NoteLength: 100, Precision: "low", Result: sampleResult(4.8, "A")})
	require.NoError(t, err)
	c, err := db.CreateGrade(ctx, CreateGradeParams{NoteLength: 200, Precision: "low", Result: sampleResult(2.7, "C")})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.DeleteGrade(ctx, a.ID)
		_ = db.DeleteGrade(ctx, c.ID)
	})

	grades, err := db.ListGrades(ctx, ListGradesParams{Limit: 10})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(grades), 2)

	minGrade := "B"
	filtered, err := db.ListGrades(ctx, ListGradesParams{Limit: 100, MinimumGrade: &minGrade})
	require.NoError(t, err)
	for _, g := range filtered {
		assert.LessOrEqual(t, g.OverallGrade, "B")
	}

	count, err := db.CountGrades(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2)
}

func TestEmbeddingCacheRoundtrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	text := "Patient takes lisinopril 10 mg daily " + uuid.New().String()
	vec := []float64{0.1, 0.2, 0.3}

	_, ok, err := db.GetCachedEmbedding(ctx, "test-model", text)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.PutCachedEmbedding(ctx, "test-model", text, vec))

	got, ok, err := db.GetCachedEmbedding(ctx, "test-model", text)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.InDelta(t, 0.1, got[0], 1e-6)
	assert.InDelta(t, 0.3, got[2], 1e-6)

	// Upsert replaces the previous entry.
	require.NoError(t, db.PutCachedEmbedding(ctx, "test-model", text, []float64{0.9, 0.9, 0.9}))
	got, ok, err = db.GetCachedEmbedding(ctx, "test-model", text)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.9, got[0], 1e-6)
}

type countingEmbedder struct {
	calls   int
	batches [][]string
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.calls++
	e.batches = append(e.batches, texts)
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(len(texts[i])), 1, 0}
	}
	return out, nil
}

func TestCachedEmbedder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	next := &countingEmbedder{}
	model := fmt.Sprintf("test-model-%s", uuid.New().String()[:8])
	embedder := NewCachedEmbedder(db, next, model)

	texts := []string{"Blood pressure was 140/90", "Patient denies chest pain"}
	first, err := embedder.Embed(ctx, texts)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, next.calls)

	// Second call is served entirely from the cache.
	second, err := embedder.Embed(ctx, texts)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.InDelta(t, first[0][0], second[0][0], 1e-6)

	// A mixed batch only fetches the unseen text.
	mixed, err := embedder.Embed(ctx, []string{texts[0], "Started metformin 500 mg"})
	require.NoError(t, err)
	require.Len(t, mixed, 2)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, []string{"Started metformin 500 mg"}, next.batches[1])
}
