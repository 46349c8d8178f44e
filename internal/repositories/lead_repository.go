package repositories

import (
	"context"
	"fmt"
	"time"

	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

const leadColumns = `id, first_name, last_name, company, email, phone, job_title, lead_source, status, lead_score,
	owner_id, assigned_to, description, address, city, state, zip_code, country,
	converted_to_contact, converted_to_contact_id, converted_to_account, converted_to_account_id, converted_date,
	custom_fields, created_at, updated_at, deleted_at`

// LeadFilters maps list query parameters to filterable columns.
var LeadFilters = map[string]string{
	"status":     "status",
	"ownerId":    "owner_id",
	"assignedTo": "assigned_to",
	"leadSource": "lead_source",
}

var leadTable = tableSpec{
	table:      "leads",
	columns:    leadColumns,
	search:     []string{"first_name", "last_name", "company", "email", "phone"},
	filters:    columnSet(LeadFilters),
	dateColumn: "created_at",
	orderBy:    "created_at DESC",
}

type LeadRepository struct {
	db database.DBTX
}

func NewLeadRepository(db database.DBTX) *LeadRepository {
	return &LeadRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *LeadRepository) WithTx(tx database.DBTX) *LeadRepository {
	return &LeadRepository{db: tx}
}

func scanLead(row rowScanner) (models.Lead, error) {
	var l models.Lead
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Company, &l.Email, &l.Phone, &l.JobTitle, &l.LeadSource, &l.Status, &l.LeadScore,
		&l.OwnerID, &l.AssignedTo, &l.Description, &l.Address, &l.City, &l.State, &l.ZipCode, &l.Country,
		&l.ConvertedToContact, &l.ConvertedToContactID, &l.ConvertedToAccount, &l.ConvertedToAccountID, &l.ConvertedDate,
		&l.CustomFields, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	return l, err
}

func (r *LeadRepository) Create(ctx context.Context, l *models.Lead) error {
	const q = `
		INSERT INTO leads (
			id, first_name, last_name, company, email, phone, job_title, lead_source, status, lead_score,
			owner_id, assigned_to, description, address, city, state, zip_code, country,
			custom_fields, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.FirstName, l.LastName, l.Company, l.Email, l.Phone, l.JobTitle, l.LeadSource, l.Status, l.LeadScore,
		l.OwnerID, l.AssignedTo, l.Description, l.Address, l.City, l.State, l.ZipCode, l.Country,
		l.CustomFields, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return mapPgError(fmt.Errorf("insert lead: %w", err))
	}
	return nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	return getByID(ctx, r.db, leadTable, id, scanLead)
}

// EmailTaken reports whether a live lead already uses email.
func (r *LeadRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lead email: %w", err)
	}
	return exists, nil
}

// GetForUpdate locks the row for the rest of the transaction.
func (r *LeadRepository) GetForUpdate(ctx context.Context, id string) (*models.Lead, error) {
	const q = `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	l, err := scanLead(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, noRows(err, "lock lead")
	}
	return &l, nil
}

func (r *LeadRepository) List(ctx context.Context, q models.ListQuery) ([]models.Lead, int, error) {
	return list(ctx, r.db, leadTable, q, scanLead)
}

func (r *LeadRepository) Update(ctx context.Context, id string, changes []models.Change, custom customfields.Values, now time.Time) (*models.Lead, error) {
	return update(ctx, r.db, leadTable, id, changes, custom, now, scanLead)
}

func (r *LeadRepository) Delete(ctx context.Context, id string, now time.Time) (bool, error) {
	return softDelete(ctx, r.db, "leads", id, now)
}

// MarkConverted sets the conversion markers and status. Repeated calls
// overwrite the pointers.
func (r *LeadRepository) MarkConverted(ctx context.Context, id, contactID, accountID string, at time.Time) (*models.Lead, error) {
	const q = `
		UPDATE leads
		SET converted_to_contact = TRUE, converted_to_contact_id = $1,
			converted_to_account = TRUE, converted_to_account_id = $2,
			converted_date = $3, status = $4, updated_at = $3
		WHERE id = $5 AND deleted_at IS NULL
		RETURNING ` + leadColumns
	l, err := scanLead(r.db.QueryRowContext(ctx, q, contactID, accountID, at, models.LeadStatusConverted, id))
	if err != nil {
		return nil, noRows(err, "mark lead converted")
	}
	return &l, nil
}

// Stats counts visible leads by status and by source.
func (r *LeadRepository) Stats(ctx context.Context, visibleTo string) (*models.LeadStats, error) {
	where, args := leadTable.where(models.ListQuery{VisibleTo: visibleTo})
	stats := &models.LeadStats{ByStatus: map[string]int{}, BySource: map[string]int{}}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads"+where, args...).Scan(&stats.Total); err != nil {
		return nil, mapPgError(fmt.Errorf("count leads: %w", err))
	}
	groups := []struct {
		expr string
		dst  map[string]int
	}{
		{"status", stats.ByStatus},
		{"COALESCE(NULLIF(lead_source, ''), 'Unknown')", stats.BySource},
	}
	for _, g := range groups {
		expr, dst := g.expr, g.dst
		rows, err := r.db.QueryContext(ctx, "SELECT "+expr+", COUNT(*) FROM leads"+where+" GROUP BY 1", args...)
		if err != nil {
			return nil, fmt.Errorf("group leads by %s: %w", expr, err)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, err
			}
			dst[key] = n
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}
