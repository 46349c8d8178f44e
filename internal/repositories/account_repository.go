package repositories

import (
	"context"
	"fmt"
	"time"

	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

const accountColumns = `id, name, description, industry, website, phone, email,
	address, city, state, zip_code, country, size, annual_revenue,
	owner_id, assigned_to, status, custom_fields, created_at, updated_at, deleted_at`

var AccountFilters = map[string]string{
	"status":     "status",
	"industry":   "industry",
	"ownerId":    "owner_id",
	"assignedTo": "assigned_to",
}

var accountTable = tableSpec{
	table:      "accounts",
	columns:    accountColumns,
	search:     []string{"name", "description", "industry", "website"},
	filters:    columnSet(AccountFilters),
	dateColumn: "created_at",
	orderBy:    "created_at DESC",
}

type AccountRepository struct {
	db database.DBTX
}

func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) WithTx(tx database.DBTX) *AccountRepository {
	return &AccountRepository{db: tx}
}

func scanAccount(row rowScanner) (models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.Description, &a.Industry, &a.Website, &a.Phone, &a.Email,
		&a.Address, &a.City, &a.State, &a.ZipCode, &a.Country, &a.Size, &a.AnnualRevenue,
		&a.OwnerID, &a.AssignedTo, &a.Status, &a.CustomFields, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	return a, err
}

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	const q = `
		INSERT INTO accounts (
			id, name, description, industry, website, phone, email,
			address, city, state, zip_code, country, size, annual_revenue,
			owner_id, assigned_to, status, custom_fields, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.Name, a.Description, a.Industry, a.Website, a.Phone, a.Email,
		a.Address, a.City, a.State, a.ZipCode, a.Country, a.Size, a.AnnualRevenue,
		a.OwnerID, a.AssignedTo, a.Status, a.CustomFields, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return mapPgError(fmt.Errorf("insert account: %w", err))
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return getByID(ctx, r.db, accountTable, id, scanAccount)
}

func (r *AccountRepository) List(ctx context.Context, q models.ListQuery) ([]models.Account, int, error) {
	return list(ctx, r.db, accountTable, q, scanAccount)
}

func (r *AccountRepository) Update(ctx context.Context, id string, changes []models.Change, custom customfields.Values, now time.Time) (*models.Account, error) {
	return update(ctx, r.db, accountTable, id, changes, custom, now, scanAccount)
}

func (r *AccountRepository) Delete(ctx context.Context, id string, now time.Time) (bool, error) {
	return softDelete(ctx, r.db, "accounts", id, now)
}
