package repositories

import (
	"context"
	"fmt"
	"time"

	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

const activityColumns = `id, subject, type, description, status, priority, start_date, end_date, duration,
	owner_id, assigned_to, account_id, contact_id, opportunity_id, related_to_type, related_to_id,
	is_all_day, location, reminder, custom_fields, created_at, updated_at, deleted_at`

var ActivityFilters = map[string]string{
	"type":          "type",
	"status":        "status",
	"accountId":     "account_id",
	"contactId":     "contact_id",
	"opportunityId": "opportunity_id",
	"relatedToType": "related_to_type",
	"relatedToId":   "related_to_id",
	"ownerId":       "owner_id",
	"assignedTo":    "assigned_to",
}

var activityTable = tableSpec{
	table:      "activities",
	columns:    activityColumns,
	search:     []string{"subject", "description", "type"},
	filters:    columnSet(ActivityFilters),
	dateColumn: "start_date",
	orderBy:    "start_date DESC NULLS LAST, created_at DESC",
}

type ActivityRepository struct {
	db database.DBTX
}

func NewActivityRepository(db database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) WithTx(tx database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: tx}
}

func scanActivity(row rowScanner) (models.Activity, error) {
	var a models.Activity
	err := row.Scan(
		&a.ID, &a.Subject, &a.Type, &a.Description, &a.Status, &a.Priority, &a.StartDate, &a.EndDate, &a.Duration,
		&a.OwnerID, &a.AssignedTo, &a.AccountID, &a.ContactID, &a.OpportunityID, &a.RelatedToType, &a.RelatedToID,
		&a.IsAllDay, &a.Location, &a.Reminder, &a.CustomFields, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	return a, err
}

func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) error {
	const q = `
		INSERT INTO activities (
			id, subject, type, description, status, priority, start_date, end_date, duration,
			owner_id, assigned_to, account_id, contact_id, opportunity_id, related_to_type, related_to_id,
			is_all_day, location, reminder, custom_fields, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
	`
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.Subject, a.Type, a.Description, a.Status, a.Priority, a.StartDate, a.EndDate, a.Duration,
		a.OwnerID, a.AssignedTo, nullable(a.AccountID), nullable(a.ContactID), nullable(a.OpportunityID), a.RelatedToType, nullable(a.RelatedToID),
		a.IsAllDay, a.Location, a.Reminder, a.CustomFields, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return mapPgError(fmt.Errorf("insert activity: %w", err))
	}
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	return getByID(ctx, r.db, activityTable, id, scanActivity)
}

func (r *ActivityRepository) List(ctx context.Context, q models.ListQuery) ([]models.Activity, int, error) {
	return list(ctx, r.db, activityTable, q, scanActivity)
}

func (r *ActivityRepository) Update(ctx context.Context, id string, changes []models.Change, custom customfields.Values, now time.Time) (*models.Activity, error) {
	return update(ctx, r.db, activityTable, id, changes, custom, now, scanActivity)
}

func (r *ActivityRepository) Delete(ctx context.Context, id string, now time.Time) (bool, error) {
	return softDelete(ctx, r.db, "activities", id, now)
}
