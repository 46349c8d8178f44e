package repositories

import (
	"context"
	"fmt"
	"time"

	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

const opportunityColumns = `id, name, description, account_id, contact_id, stage, probability, amount, currency, close_date,
	owner_id, assigned_to, lead_source, type, priority, forecast_category, next_step, status,
	custom_fields, created_at, updated_at, deleted_at`

var OpportunityFilters = map[string]string{
	"stage":      "stage",
	"accountId":  "account_id",
	"contactId":  "contact_id",
	"status":     "status",
	"ownerId":    "owner_id",
	"assignedTo": "assigned_to",
}

var opportunityTable = tableSpec{
	table:      "opportunities",
	columns:    opportunityColumns,
	search:     []string{"name", "description", "type"},
	filters:    columnSet(OpportunityFilters),
	dateColumn: "close_date",
	orderBy:    "created_at DESC",
}

type OpportunityRepository struct {
	db database.DBTX
}

func NewOpportunityRepository(db database.DBTX) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

func (r *OpportunityRepository) WithTx(tx database.DBTX) *OpportunityRepository {
	return &OpportunityRepository{db: tx}
}

func scanOpportunity(row rowScanner) (models.Opportunity, error) {
	var o models.Opportunity
	err := row.Scan(
		&o.ID, &o.Name, &o.Description, &o.AccountID, &o.ContactID, &o.Stage, &o.Probability, &o.Amount, &o.Currency, &o.CloseDate,
		&o.OwnerID, &o.AssignedTo, &o.LeadSource, &o.Type, &o.Priority, &o.ForecastCategory, &o.NextStep, &o.Status,
		&o.CustomFields, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt,
	)
	return o, err
}

func (r *OpportunityRepository) Create(ctx context.Context, o *models.Opportunity) error {
	const q = `
		INSERT INTO opportunities (
			id, name, description, account_id, contact_id, stage, probability, amount, currency, close_date,
			owner_id, assigned_to, lead_source, type, priority, forecast_category, next_step, status,
			custom_fields, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`
	_, err := r.db.ExecContext(ctx, q,
		o.ID, o.Name, o.Description, nullable(o.AccountID), nullable(o.ContactID), o.Stage, o.Probability, o.Amount, o.Currency, o.CloseDate,
		o.OwnerID, o.AssignedTo, o.LeadSource, o.Type, o.Priority, o.ForecastCategory, o.NextStep, o.Status,
		o.CustomFields, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return mapPgError(fmt.Errorf("insert opportunity: %w", err))
	}
	return nil
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	return getByID(ctx, r.db, opportunityTable, id, scanOpportunity)
}

func (r *OpportunityRepository) List(ctx context.Context, q models.ListQuery) ([]models.Opportunity, int, error) {
	return list(ctx, r.db, opportunityTable, q, scanOpportunity)
}

func (r *OpportunityRepository) Update(ctx context.Context, id string, changes []models.Change, custom customfields.Values, now time.Time) (*models.Opportunity, error) {
	return update(ctx, r.db, opportunityTable, id, changes, custom, now, scanOpportunity)
}

func (r *OpportunityRepository) Delete(ctx context.Context, id string, now time.Time) (bool, error) {
	return softDelete(ctx, r.db, "opportunities", id, now)
}

// Pipeline groups live opportunities by stage.
func (r *OpportunityRepository) Pipeline(ctx context.Context, visibleTo string) ([]models.StageSummary, error) {
	where, args := opportunityTable.where(models.ListQuery{VisibleTo: visibleTo})
	q := `SELECT stage, COUNT(*), COALESCE(SUM(amount), 0) FROM opportunities` + where + ` GROUP BY stage ORDER BY stage`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapPgError(fmt.Errorf("pipeline: %w", err))
	}
	defer rows.Close()

	out := []models.StageSummary{}
	for rows.Next() {
		var s models.StageSummary
		if err := rows.Scan(&s.Stage, &s.Count, &s.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Forecast sums amount*probability/100 per close month for opportunities
// closing between today and today+months, both ends inclusive.
func (r *OpportunityRepository) Forecast(ctx context.Context, months int, visibleTo string) ([]models.ForecastMonth, error) {
	where, args := opportunityTable.where(models.ListQuery{VisibleTo: visibleTo})
	n := len(args) + 1
	q := fmt.Sprintf(`
		SELECT TO_CHAR(close_date, 'YYYY-MM') AS month,
			COALESCE(SUM(amount * probability / 100.0), 0),
			COUNT(*)
		FROM opportunities%s
			AND close_date >= CURRENT_DATE
			AND close_date <= CURRENT_DATE + make_interval(months => $%d)
			AND probability > 0
		GROUP BY month
		ORDER BY month`, where, n)
	rows, err := r.db.QueryContext(ctx, q, append(args, months)...)
	if err != nil {
		return nil, mapPgError(fmt.Errorf("forecast: %w", err))
	}
	defer rows.Close()

	out := []models.ForecastMonth{}
	for rows.Next() {
		var m models.ForecastMonth
		if err := rows.Scan(&m.Month, &m.WeightedAmount, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
