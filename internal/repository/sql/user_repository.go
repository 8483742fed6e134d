package sql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/iyhunko/academy-backend/internal/model"
)

// UserRepository maintains the enrollment view of users.
type UserRepository struct {
	exec statementPreparer
}

// AddEnrolledCourse adds courseID to the user's enrolled courses, inserting the user row on first use.
func (r *UserRepository) AddEnrolledCourse(ctx context.Context, userID, courseID string) error {
	query := `INSERT INTO users (id, doc, updated_at)
	          VALUES ($1, jsonb_build_object('_id', $1::text, 'username', '', 'email', '', 'enrolledCourses', jsonb_build_array($2::text), 'createdAt', to_jsonb($3::timestamptz), 'updatedAt', to_jsonb($3::timestamptz)), $3)
	          ON CONFLICT (id) DO UPDATE
	          SET doc = jsonb_set(jsonb_set(users.doc, '{enrolledCourses}', COALESCE(users.doc->'enrolledCourses', '[]'::jsonb) || to_jsonb($2::text)), '{updatedAt}', to_jsonb($3::timestamptz)),
	              updated_at = $3
	          WHERE NOT COALESCE(users.doc->'enrolledCourses', '[]'::jsonb) ? $2`

	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, userID, courseID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add enrolled course: %w", err)
	}
	return nil
}

// RemoveEnrolledCourse removes courseID from the user's enrolled courses. A missing user is not an error.
func (r *UserRepository) RemoveEnrolledCourse(ctx context.Context, userID, courseID string) error {
	query := `UPDATE users
	          SET doc = jsonb_set(jsonb_set(doc, '{enrolledCourses}', COALESCE(doc->'enrolledCourses', '[]'::jsonb) - $2::text), '{updatedAt}', to_jsonb($3::timestamptz)),
	              updated_at = $3
	          WHERE id = $1`

	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, userID, courseID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to remove enrolled course: %w", err)
	}
	return nil
}

// FindByIDs returns the users that exist among ids, in no particular order.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	users := make([]*model.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	stmt, err := r.exec.PrepareContext(ctx, `SELECT doc FROM users WHERE id = ANY($1::text[])`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		var user model.User
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, &user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return users, nil
}
