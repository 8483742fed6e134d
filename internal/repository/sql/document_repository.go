package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iyhunko/academy-backend/internal/repository"
)

// documentRepository stores resources of one type as JSONB documents in a single table.
// Keys listed in managed are never overwritten by Update.
type documentRepository[T repository.Resource] struct {
	exec    statementPreparer
	table   string
	newDoc  func() T
	managed []string
}

func newDocumentRepository[T repository.Resource](exec statementPreparer, table string, newDoc func() T, managed ...string) *documentRepository[T] {
	return &documentRepository[T]{exec: exec, table: table, newDoc: newDoc, managed: managed}
}

// Create inserts a new document.
func (r *documentRepository[T]) Create(ctx context.Context, resource T) (T, error) {
	var zero T
	resource.InitMeta()

	doc, err := json.Marshal(resource)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal %s document: %w", r.table, err)
	}

	stmt, err := r.exec.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, r.table))
	if err != nil {
		return zero, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.ExecContext(ctx, resource.GetID(), doc); err != nil {
		if isUniqueViolation(err) {
			return zero, &repository.UniqueConstraintError{Detail: fmt.Sprintf("%s id %s", r.table, resource.GetID())}
		}
		return zero, fmt.Errorf("failed to insert into %s: %w", r.table, err)
	}

	return resource, nil
}

// List returns documents matching every query value, oldest first.
func (r *documentRepository[T]) List(ctx context.Context, query repository.Query) ([]T, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT doc FROM %s`, r.table)

	var args []any
	for i, field := range query.Fields() {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, query.Values[field])
		if field.IsArray() {
			fmt.Fprintf(&sb, `doc->'%s' ? $%d`, field, len(args))
		} else {
			fmt.Fprintf(&sb, `doc->>'%s' = $%d`, field, len(args))
		}
	}
	sb.WriteString(" ORDER BY created_at ASC")
	if query.Limit > 0 {
		args = append(args, query.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	stmt, err := r.exec.PrepareContext(ctx, sb.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.table, err)
		}
		doc := r.newDoc()
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", r.table, err)
		}
		result = append(result, doc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// FindByID retrieves a single document by id.
func (r *documentRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	return r.findByID(ctx, id, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, r.table))
}

// findForUpdate reads a document and row-locks it until the transaction ends.
func (r *documentRepository[T]) findForUpdate(ctx context.Context, id string) (T, error) {
	return r.findByID(ctx, id, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1 FOR UPDATE`, r.table))
}

func (r *documentRepository[T]) findByID(ctx context.Context, id, query string) (T, error) {
	var zero T

	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return zero, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var raw []byte
	if err = stmt.QueryRowContext(ctx, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, repository.ErrNotFound
		}
		return zero, fmt.Errorf("failed to query %s: %w", r.table, err)
	}

	doc := r.newDoc()
	if err := json.Unmarshal(raw, doc); err != nil {
		return zero, fmt.Errorf("failed to decode %s document: %w", r.table, err)
	}
	return doc, nil
}

// Update replaces the stored document. Managed keys keep their stored values.
func (r *documentRepository[T]) Update(ctx context.Context, resource T) error {
	resource.Touch()

	doc, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", r.table, err)
	}

	stmt, err := r.exec.PrepareContext(ctx, fmt.Sprintf(`UPDATE %s SET doc = %s, updated_at = now() WHERE id = $1`, r.table, r.mergedDoc()))
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, resource.GetID(), doc)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.table, err)
	}
	return requireAffected(result)
}

// mergedDoc is the SET expression of Update: the new document ($2) with the
// managed keys copied over from the stored one.
func (r *documentRepository[T]) mergedDoc() string {
	if len(r.managed) == 0 {
		return "$2::jsonb"
	}
	pairs := make([]string, 0, len(r.managed))
	for _, key := range r.managed {
		pairs = append(pairs, fmt.Sprintf("'%s', doc->'%s'", key, key))
	}
	return fmt.Sprintf("$2::jsonb || jsonb_strip_nulls(jsonb_build_object(%s))", strings.Join(pairs, ", "))
}

// patch merges fields into the stored document without touching any other key.
func (r *documentRepository[T]) patch(ctx context.Context, id string, fields map[string]any) error {
	fields["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal %s patch: %w", r.table, err)
	}

	stmt, err := r.exec.PrepareContext(ctx, fmt.Sprintf(`UPDATE %s SET doc = doc || $2::jsonb, updated_at = now() WHERE id = $1`, r.table))
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id, raw)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.table, err)
	}
	return requireAffected(result)
}

// DeleteByID deletes a document by id.
func (r *documentRepository[T]) DeleteByID(ctx context.Context, id string) error {
	stmt, err := r.exec.PrepareContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table))
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", r.table, err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pqUniqueViolationErrCode
}
