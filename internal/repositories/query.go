package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"abetcrm/internal/apperr"
	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// tableSpec describes how one soft-deletable entity table is listed.
type tableSpec struct {
	table      string
	columns    string
	search     []string
	filters    map[string]bool
	dateColumn string
	orderBy    string
}

// where builds the shared WHERE clause; placeholders start at $1.
func (s tableSpec) where(q models.ListQuery) (string, []any) {
	clauses := []string{"deleted_at IS NULL"}
	args := []any{}
	i := 1

	if q.VisibleTo != "" {
		clauses = append(clauses, fmt.Sprintf("(owner_id = $%d OR assigned_to = $%d)", i, i))
		args = append(args, q.VisibleTo)
		i++
	}
	for _, c := range q.Conditions {
		if !s.filters[c.Column] {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Column, i))
		args = append(args, c.Value)
		i++
	}
	if q.From != nil && s.dateColumn != "" {
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", s.dateColumn, i))
		args = append(args, *q.From)
		i++
	}
	if q.To != nil && s.dateColumn != "" {
		clauses = append(clauses, fmt.Sprintf("%s <= $%d", s.dateColumn, i))
		args = append(args, *q.To)
		i++
	}
	if term := strings.TrimSpace(q.Search); term != "" && len(s.search) > 0 {
		ors := make([]string, len(s.search))
		for k, col := range s.search {
			ors[k] = fmt.Sprintf("%s ILIKE $%d", col, i)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		args = append(args, "%"+escapeLike(term)+"%")
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// list runs the page query and its COUNT twin.
func list[T any](ctx context.Context, db database.DBTX, s tableSpec, q models.ListQuery, scan func(rowScanner) (T, error)) ([]T, int, error) {
	where, args := s.where(q)

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table+where, args...).Scan(&total); err != nil {
		return nil, 0, mapPgError(fmt.Errorf("count %s: %w", s.table, err))
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		s.columns, s.table, where, s.orderBy, n+1, n+2)
	rows, err := db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, mapPgError(fmt.Errorf("list %s: %w", s.table, err))
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", s.table, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// getByID returns (nil, nil) when the row is absent or soft-deleted.
func getByID[T any](ctx context.Context, db database.DBTX, s tableSpec, id string, scan func(rowScanner) (T, error)) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL", s.columns, s.table)
	item, err := scan(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(fmt.Errorf("get %s: %w", s.table, err))
	}
	return &item, nil
}

// update applies changes plus a shallow custom_fields merge and returns the
// stored row, or nil when nothing was supplied or the row is gone.
func update[T any](ctx context.Context, db database.DBTX, s tableSpec, id string, changes []models.Change, custom customfields.Values, now time.Time, scan func(rowScanner) (T, error)) (*T, error) {
	if len(changes) == 0 && len(custom) == 0 {
		return nil, nil
	}
	sets := make([]string, 0, len(changes)+2)
	args := make([]any, 0, len(changes)+3)
	i := 1
	for _, c := range changes {
		sets = append(sets, fmt.Sprintf("%s = $%d", c.Column, i))
		args = append(args, c.Value)
		i++
	}
	if len(custom) > 0 {
		sets = append(sets, fmt.Sprintf("custom_fields = COALESCE(custom_fields, '{}'::jsonb) || $%d::jsonb", i))
		args = append(args, custom)
		i++
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, now)
	i++

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d AND deleted_at IS NULL RETURNING %s",
		s.table, strings.Join(sets, ", "), i, s.columns)
	args = append(args, id)

	item, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(fmt.Errorf("update %s: %w", s.table, err))
	}
	return &item, nil
}

// softDelete reports whether a live row was marked deleted.
func softDelete(ctx context.Context, db database.DBTX, table, id string, now time.Time) (bool, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE "+table+" SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL", now, id)
	if err != nil {
		return false, mapPgError(fmt.Errorf("delete %s: %w", table, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// mapPgError turns constraint violations into domain errors.
func mapPgError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", apperr.ErrConflict, pqErr.Constraint)
	case "23503":
		return &apperr.ValidationError{Errors: []string{"referenced record does not exist (" + pqErr.Constraint + ")"}}
	case "22P02":
		return &apperr.ValidationError{Errors: []string{"malformed identifier"}}
	}
	return err
}

// noRows maps sql.ErrNoRows to apperr.ErrNotFound for single-row writes.
func noRows(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return mapPgError(fmt.Errorf("%s: %w", op, err))
}

func columnSet(params map[string]string) map[string]bool {
	out := make(map[string]bool, len(params))
	for _, col := range params {
		out[col] = true
	}
	return out
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
