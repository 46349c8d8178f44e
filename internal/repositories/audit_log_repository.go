package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"abetcrm/internal/audit"
	"abetcrm/internal/database"
)

// AuditLogRepository is append-only: there is no update or delete.
type AuditLogRepository struct {
	db database.DBTX
}

func NewAuditLogRepository(db database.DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Insert writes through q when given so the entry shares the caller's
// transaction.
func (r *AuditLogRepository) Insert(ctx context.Context, q database.DBTX, e *audit.Entry) error {
	if q == nil {
		q = r.db
	}
	const stmt = `
		INSERT INTO audit_logs (id, user_id, action, entity, entity_id, old_value, new_value, ip_address, user_agent, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err := q.ExecContext(ctx, stmt,
		e.ID, e.UserID, string(e.Action), string(e.Entity), e.EntityID,
		jsonOrNull(e.OldValue), jsonOrNull(e.NewValue), e.IPAddress, e.UserAgent, e.Timestamp)
	if err != nil {
		return mapPgError(fmt.Errorf("insert audit log: %w", err))
	}
	return nil
}

// List returns entries newest first with the total of the filter.
func (r *AuditLogRepository) List(ctx context.Context, f audit.Query) ([]audit.Entry, int, error) {
	clauses := []string{}
	args := []any{}
	i := 1
	if f.UserID != "" {
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", i))
		args = append(args, f.UserID)
		i++
	}
	if f.Entity != "" {
		clauses = append(clauses, fmt.Sprintf("entity = $%d", i))
		args = append(args, string(f.Entity))
		i++
	}
	if f.EntityID != "" {
		clauses = append(clauses, fmt.Sprintf("entity_id = $%d", i))
		args = append(args, f.EntityID)
		i++
	}
	if f.Action != "" {
		clauses = append(clauses, fmt.Sprintf("action = $%d", i))
		args = append(args, string(f.Action))
		i++
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, mapPgError(fmt.Errorf("count audit logs: %w", err))
	}

	offset := 0
	if f.Page > 1 {
		offset = (f.Page - 1) * f.Limit
	}
	q := fmt.Sprintf(`SELECT id, user_id, action, entity, entity_id, old_value, new_value, ip_address, user_agent, timestamp
		FROM audit_logs%s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`, where, i, i+1)
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, offset)...)
	if err != nil {
		return nil, 0, mapPgError(fmt.Errorf("list audit logs: %w", err))
	}
	defer rows.Close()

	out := []audit.Entry{}
	for rows.Next() {
		var (
			e              audit.Entry
			userID, entID  sql.NullString
			oldVal, newVal []byte
		)
		if err := rows.Scan(&e.ID, &userID, &e.Action, &e.Entity, &entID, &oldVal, &newVal,
			&e.IPAddress, &e.UserAgent, &e.Timestamp); err != nil {
			return nil, 0, err
		}
		if userID.Valid {
			s := userID.String
			e.UserID = &s
		}
		if entID.Valid {
			s := entID.String
			e.EntityID = &s
		}
		e.OldValue, e.NewValue = oldVal, newVal
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func jsonOrNull(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
