package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

const roleColumns = `id, name, description, permissions, is_active, created_at, updated_at`

type RoleRepository struct {
	db database.DBTX
}

func NewRoleRepository(db database.DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

func scanRole(row rowScanner) (models.Role, error) {
	var r models.Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, pq.Array(&r.Permissions), &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if r.Permissions == nil {
		r.Permissions = []string{}
	}
	return r, err
}

func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	const q = `
		INSERT INTO roles (id, name, description, permissions, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	_, err := r.db.ExecContext(ctx, q,
		role.ID, role.Name, role.Description, pq.Array(role.Permissions), role.IsActive, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		return mapPgError(fmt.Errorf("insert role: %w", err))
	}
	return nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (*models.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(fmt.Errorf("get role: %w", err))
	}
	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	out := []models.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *RoleRepository) Update(ctx context.Context, id string, changes []models.Change, now time.Time) (*models.Role, error) {
	if len(changes) == 0 {
		return nil, nil
	}
	sets := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+2)
	i := 1
	for _, c := range changes {
		v := c.Value
		if perms, ok := v.([]string); ok {
			v = pq.Array(perms)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", c.Column, i))
		args = append(args, v)
		i++
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, now, id)
	q := fmt.Sprintf("UPDATE roles SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), i+1, roleColumns)

	role, err := scanRole(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(fmt.Errorf("update role: %w", err))
	}
	return &role, nil
}

func (r *RoleRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete role: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
