package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

type fakeGrader struct {
	result        domain.HybridResult
	err           error
	lastNote      string
	lastPrecision domain.Precision
}

func (f *fakeGrader) Grade(_ context.Context, note, _ string, precision domain.Precision) (domain.HybridResult, error) {
	f.lastNote = note
	f.lastPrecision = precision
	return f.result, f.err
}

// testServer creates a test API server without auth middleware or
// persistence. Tests exercise handlers directly through the mux.
func testServer(t *testing.T, grader Grader) *Server {
	t.Helper()

	server := &Server{
		grader: grader,
		mux:    http.NewServeMux(),
	}
	server.mux.HandleFunc("GET /health", server.handleHealth)
	server.mux.HandleFunc("POST /api/grade", server.handleGrade)
	server.mux.HandleFunc("GET /api/grades", server.handleListGrades)
	server.mux.HandleFunc("GET /api/grades/{gradeID}", server.handleGetGrade)

	return server
}

func postGrade(t *testing.T, server *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/grade", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server := testServer(t, &fakeGrader{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGradeEndpoint(t *testing.T) {
	grader := &fakeGrader{result: domain.HybridResult{
		HybridScore:  4.2,
		OverallGrade: "B",
		Weights:      domain.DefaultWeights(),
	}}
	server := testServer(t, grader)

	rec := postGrade(t, server, map[string]string{
		"clinical_note":        "Patient presents with chest pain.",
		"encounter_transcript": "Transcript text.",
		"model_precision":      "high",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Patient presents with chest pain.", grader.lastNote)
	assert.Equal(t, domain.PrecisionHigh, grader.lastPrecision)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4.2, resp["hybrid_score"])
	assert.Equal(t, "B", resp["overall_grade"])
	assert.Contains(t, resp, "weights_used")
	assert.Contains(t, resp, "discrepancy_analysis")
}

func TestGradeEndpointDefaultsPrecision(t *testing.T) {
	grader := &fakeGrader{result: domain.HybridResult{HybridScore: 3.0, OverallGrade: "C"}}
	server := testServer(t, grader)

	rec := postGrade(t, server, map[string]string{"clinical_note": "Brief note."})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PrecisionMedium, grader.lastPrecision)
}

func TestGradeEndpointMissingNote(t *testing.T) {
	server := testServer(t, &fakeGrader{})

	rec := postGrade(t, server, map[string]string{"encounter_transcript": "Only transcript."})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "clinical_note is required", resp["error"])
}

func TestGradeEndpointInvalidJSON(t *testing.T) {
	server := testServer(t, &fakeGrader{})

	req := httptest.NewRequest(http.MethodPost, "/api/grade", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGradeEndpointValidationError(t *testing.T) {
	grader := &fakeGrader{err: &domain.ValidationError{Field: "note", Reason: "too short"}}
	server := testServer(t, grader)

	rec := postGrade(t, server, map[string]string{"clinical_note": "x"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGradeEndpointProviderError(t *testing.T) {
	grader := &fakeGrader{err: &llm.ProviderError{Kind: llm.KindAuth, StatusCode: 401, Message: "bad key"}}
	server := testServer(t, grader)

	rec := postGrade(t, server, map[string]string{"clinical_note": "Patient presents with chest pain."})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the scoring provider is unavailable", resp["error"])
}

func TestListGradesWithoutPersistence(t *testing.T) {
	server := testServer(t, &fakeGrader{})

	req := httptest.NewRequest(http.MethodGet, "/api/grades", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetGradeWithoutPersistence(t *testing.T) {
	server := testServer(t, &fakeGrader{})

	req := httptest.NewRequest(http.MethodGet, "/api/grades/3f1e9f9a-9f9a-4d2c-9f3e-0a1b2c3d4e5f", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 50, 0},
		{"explicit", "limit=10&offset=20", 10, 20},
		{"limit capped", "limit=500", 50, 0},
		{"negative offset ignored", "offset=-5", 50, 0},
		{"non-numeric ignored", "limit=abc&offset=xyz", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/grades?"+tt.query, nil)
			limit, offset := parsePagination(req)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	server := NewServer(Config{Grader: &fakeGrader{}})

	req := httptest.NewRequest(http.MethodOptions, "/api/grade", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
