package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
)

// GradeRecord is a stored grading result.
type GradeRecord struct {
	ID            uuid.UUID
	NoteLength    int
	HasTranscript bool
	Precision     string
	HybridScore   float64
	OverallGrade  string
	Result        domain.HybridResult
	CreatedAt     time.Time
}

// CreateGradeParams contains parameters for storing a grading result.
type CreateGradeParams struct {
	NoteLength    int
	HasTranscript bool
	Precision     string
	Result        domain.HybridResult
}

// gradeColumns is the standard column list for grade queries.
const gradeColumns = `id, note_length, has_transcript, precision, hybrid_score, overall_grade, result, created_at`

// scanGrade scans a row into a GradeRecord and unmarshals the result JSON.
func scanGrade(row pgx.Row) (*GradeRecord, error) {
	var g GradeRecord
	var resultJSON []byte
	err := row.Scan(
		&g.ID, &g.NoteLength, &g.HasTranscript, &g.Precision,
		&g.HybridScore, &g.OverallGrade, &resultJSON, &g.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultJSON, &g.Result); err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGrade stores a new grading result.
func (db *DB) CreateGrade(ctx context.Context, params CreateGradeParams) (*GradeRecord, error) {
	resultJSON, err := json.Marshal(params.Result)
	if err != nil {
		return nil, err
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO grades (note_length, has_transcript, precision, hybrid_score, overall_grade, result)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+gradeColumns,
		params.NoteLength, params.HasTranscript, params.Precision,
		params.Result.HybridScore, params.Result.OverallGrade, resultJSON,
	)
	return scanGrade(row)
}

// GetGradeByID retrieves a grading result by ID.
func (db *DB) GetGradeByID(ctx context.Context, id uuid.UUID) (*GradeRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+gradeColumns+` FROM grades WHERE id = $1`,
		id,
	)
	return scanGrade(row)
}

// ListGradesParams contains parameters for listing grading results.
type ListGradesParams struct {
	Limit        int
	Offset       int
	MinimumGrade *string
}

// ListGrades returns stored grades ordered by creation date descending.
// MinimumGrade, when set, filters to results at or above that letter
// grade.
func (db *DB) ListGrades(ctx context.Context, params ListGradesParams) ([]GradeRecord, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}

	var rows pgx.Rows
	var err error

	if params.MinimumGrade != nil {
		rows, err = db.pool.Query(ctx,
			`SELECT `+gradeColumns+` FROM grades
			 WHERE overall_grade <= $1
			 ORDER BY created_at DESC
			 LIMIT $2 OFFSET $3`,
			*params.MinimumGrade, params.Limit, params.Offset,
		)
	} else {
		rows, err = db.pool.Query(ctx,
			`SELECT `+gradeColumns+` FROM grades
			 ORDER BY created_at DESC
			 LIMIT $1 OFFSET $2`,
			params.Limit, params.Offset,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grades []GradeRecord
	for rows.Next() {
		var g GradeRecord
		var resultJSON []byte
		if err := rows.Scan(
			&g.ID, &g.NoteLength, &g.HasTranscript, &g.Precision,
			&g.HybridScore, &g.OverallGrade, &resultJSON, &g.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(resultJSON, &g.Result); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// CountGrades returns the total number of stored grades.
func (db *DB) CountGrades(ctx context.Context) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM grades`).Scan(&count)
	return count, err
}

// DeleteGrade deletes a grading result by ID.
func (db *DB) DeleteGrade(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM grades WHERE id = $1`,
		id,
	)
	return err
}

// DeleteOldGrades deletes grades older than the given time.
func (db *DB) DeleteOldGrades(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM grades WHERE created_at < $1`,
		olderThan,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
