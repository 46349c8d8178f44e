package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

type UserRepository interface {
	WithTx(tx database.DBTX) UserRepository

	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, q models.ListQuery) ([]models.User, int, error)
	Update(ctx context.Context, id string, changes []models.Change, custom customfields.Values, now time.Time) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hash string, now time.Time) error
	Delete(ctx context.Context, id string, now time.Time) (bool, error)

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID, token string, expiresAt time.Time) error
	RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(ctx context.Context, userID string) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
}

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active,
	custom_fields, created_at, updated_at, deleted_at, refresh_token, refresh_expires_at`

var UserFilters = map[string]string{
	"role":     "role",
	"isActive": "is_active",
}

var userTable = tableSpec{
	table:      "users",
	columns:    userColumns,
	search:     []string{"email", "first_name", "last_name"},
	filters:    columnSet(UserFilters),
	dateColumn: "created_at",
	orderBy:    "created_at DESC",
}

type userRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx database.DBTX) UserRepository {
	return &userRepository{db: tx}
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		u   models.User
		rt  sql.NullString
		rte sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.IsActive,
		&u.CustomFields, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt, &rt, &rte,
	)
	if err != nil {
		return u, err
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u *models.User) error {
	const q = `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, role, is_active,
			custom_fields, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.IsActive,
		u.CustomFields, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return mapPgError(fmt.Errorf("insert user: %w", err))
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return getByID(ctx, r.db, userTable, id, scanUser)
}

// GetByEmail matches case-insensitively; returns (nil, nil) when absent.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`
	return r.one(ctx, "get user by email", q, email)
}

func (r *userRepository) List(ctx context.Context, q models.ListQuery) ([]models.User, int, error) {
	return list(ctx, r.db, userTable, q, scanUser)
}

func (r *userRepository) Update(ctx context.Context, id string, changes []models.Change, custom customfields.Values, now time.Time) (*models.User, error) {
	return update(ctx, r.db, userTable, id, changes, custom, now, scanUser)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, hash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash=$1, updated_at=$2 WHERE id=$3 AND deleted_at IS NULL`, hash, now, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string, now time.Time) (bool, error) {
	return softDelete(ctx, r.db, "users", id, now)
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2
		WHERE id=$3
	`
	_, err := r.db.ExecContext(ctx, q, token, expiresAt, userID)
	return err
}

// RotateRefresh swaps a still-valid token for a new one in one statement.
func (r *userRepository) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2
		WHERE refresh_token=$3 AND refresh_expires_at > NOW() AND deleted_at IS NULL
		RETURNING ` + userColumns
	return r.one(ctx, "rotate refresh", q, newToken, newExpiresAt, oldToken)
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL
		WHERE id=$1
	`, userID)
	return err
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1 AND deleted_at IS NULL`
	return r.one(ctx, "get user by refresh token", q, token)
}

func (r *userRepository) one(ctx context.Context, op, q string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}
