package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/iyhunko/academy-backend/internal/model"
)

// CourseRepository stores courses and updates their student set in place.
type CourseRepository struct {
	*documentRepository[*model.Course]
}

// AddStudent appends userID to the course's students unless it is already there.
// The membership check and the write happen in one statement.
func (r *CourseRepository) AddStudent(ctx context.Context, courseID, userID string) (bool, error) {
	query := `UPDATE courses
	          SET doc = jsonb_set(jsonb_set(doc, '{students}', COALESCE(doc->'students', '[]'::jsonb) || to_jsonb($2::text)), '{updatedAt}', to_jsonb($3::timestamptz)),
	              updated_at = $3
	          WHERE id = $1 AND NOT COALESCE(doc->'students', '[]'::jsonb) ? $2`
	return r.execStudents(ctx, query, courseID, userID)
}

// RemoveStudent removes userID from the course's students if present.
func (r *CourseRepository) RemoveStudent(ctx context.Context, courseID, userID string) (bool, error) {
	query := `UPDATE courses
	          SET doc = jsonb_set(jsonb_set(doc, '{students}', doc->'students' - $2::text), '{updatedAt}', to_jsonb($3::timestamptz)),
	              updated_at = $3
	          WHERE id = $1 AND COALESCE(doc->'students', '[]'::jsonb) ? $2`
	return r.execStudents(ctx, query, courseID, userID)
}

func (r *CourseRepository) execStudents(ctx context.Context, query, courseID, userID string) (bool, error) {
	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, courseID, userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to update course students: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
