package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Churchillbones/clinical-note-quality/internal/database"
	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

// gradeRequest is the /api/grade request body.
type gradeRequest struct {
	ClinicalNote        string `json:"clinical_note"`
	EncounterTranscript string `json:"encounter_transcript"`
	ModelPrecision      string `json:"model_precision"`
}

// handleGrade runs the grading pipeline and, when persistence is
// configured, stores the result.
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ClinicalNote) == "" {
		writeError(w, http.StatusBadRequest, "clinical_note is required")
		return
	}
	precision := domain.ParsePrecision(req.ModelPrecision)

	result, err := s.grader.Grade(r.Context(), req.ClinicalNote, req.EncounterTranscript, precision)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		var pe *llm.ProviderError
		if errors.As(err, &pe) {
			log.Printf("api: grading failed with provider error: %v", pe)
			writeError(w, http.StatusBadGateway, "the scoring provider is unavailable")
			return
		}
		log.Printf("api: grading failed: %v", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred during grading")
		return
	}

	payload := result.AsMap()
	if s.db != nil {
		record, err := s.db.CreateGrade(r.Context(), database.CreateGradeParams{
			NoteLength:    len(req.ClinicalNote),
			HasTranscript: strings.TrimSpace(req.EncounterTranscript) != "",
			Precision:     string(precision),
			Result:        result,
		})
		if err != nil {
			log.Printf("api: failed to persist grade: %v", err)
		} else {
			payload["id"] = record.ID
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleListGrades returns stored grading results, newest first.
func (s *Server) handleListGrades(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	limit, offset := parsePagination(r)
	var minGrade *string
	if g := r.URL.Query().Get("min_grade"); g != "" {
		upper := strings.ToUpper(g)
		if len(upper) != 1 || upper < "A" || upper > "F" {
			writeError(w, http.StatusBadRequest, "min_grade must be a letter grade A-F")
			return
		}
		minGrade = &upper
	}

	grades, err := s.db.ListGrades(r.Context(), database.ListGradesParams{
		Limit:        limit,
		Offset:       offset,
		MinimumGrade: minGrade,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list grades")
		return
	}

	total, err := s.db.CountGrades(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count grades")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"grades": grades,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleGetGrade returns a single stored grading result.
func (s *Server) handleGetGrade(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	gradeID, err := uuid.Parse(r.PathValue("gradeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid grade ID")
		return
	}

	record, err := s.db.GetGradeByID(r.Context(), gradeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "grade not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"grade": record})
}

// parsePagination extracts limit and offset from query parameters with defaults.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}
