package repositories

import (
	"context"
	"fmt"
	"time"

	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

const contactColumns = `id, first_name, last_name, email, phone, job_title, department, account_id,
	owner_id, assigned_to, status, lead_source, description, address, city, state, zip_code, country,
	custom_fields, created_at, updated_at, deleted_at`

var ContactFilters = map[string]string{
	"accountId":  "account_id",
	"status":     "status",
	"ownerId":    "owner_id",
	"assignedTo": "assigned_to",
}

var contactTable = tableSpec{
	table:      "contacts",
	columns:    contactColumns,
	search:     []string{"first_name", "last_name", "email", "job_title", "description"},
	filters:    columnSet(ContactFilters),
	dateColumn: "created_at",
	orderBy:    "created_at DESC",
}

type ContactRepository struct {
	db database.DBTX
}

func NewContactRepository(db database.DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) WithTx(tx database.DBTX) *ContactRepository {
	return &ContactRepository{db: tx}
}

func scanContact(row rowScanner) (models.Contact, error) {
	var c models.Contact
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.JobTitle, &c.Department, &c.AccountID,
		&c.OwnerID, &c.AssignedTo, &c.Status, &c.LeadSource, &c.Description, &c.Address, &c.City, &c.State, &c.ZipCode, &c.Country,
		&c.CustomFields, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	return c, err
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	const q = `
		INSERT INTO contacts (
			id, first_name, last_name, email, phone, job_title, department, account_id,
			owner_id, assigned_to, status, lead_source, description, address, city, state, zip_code, country,
			custom_fields, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.JobTitle, c.Department, nullable(c.AccountID),
		c.OwnerID, c.AssignedTo, c.Status, c.LeadSource, c.Description, c.Address, c.City, c.State, c.ZipCode, c.Country,
		c.CustomFields, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapPgError(fmt.Errorf("insert contact: %w", err))
	}
	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	return getByID(ctx, r.db, contactTable, id, scanContact)
}

func (r *ContactRepository) List(ctx context.Context, q models.ListQuery) ([]models.Contact, int, error) {
	return list(ctx, r.db, contactTable, q, scanContact)
}

func (r *ContactRepository) Update(ctx context.Context, id string, changes []models.Change, custom customfields.Values, now time.Time) (*models.Contact, error) {
	return update(ctx, r.db, contactTable, id, changes, custom, now, scanContact)
}

func (r *ContactRepository) Delete(ctx context.Context, id string, now time.Time) (bool, error) {
	return softDelete(ctx, r.db, "contacts", id, now)
}
