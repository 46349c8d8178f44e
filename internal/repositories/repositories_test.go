package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"abetcrm/internal/apperr"
	"abetcrm/internal/audit"
	"abetcrm/internal/customfields"
	"abetcrm/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestLeadListScopesToVisibleUserAndSearch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLeadRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM leads WHERE deleted_at IS NULL AND (owner_id = $1 OR assigned_to = $1) AND status = $2 AND (first_name ILIKE $3`)).
		WithArgs("u-1", "new", `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(23))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC LIMIT $4 OFFSET $5`)).
		WithArgs("u-1", "new", `%50\%%`, 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, total, err := repo.List(context.Background(), models.ListQuery{
		Page: 3, Limit: 10, Search: " 50% ", VisibleTo: "u-1",
		Conditions: []models.Condition{{Column: "status", Value: "new"}},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 23 || len(items) != 0 || items == nil {
		t.Fatalf("unexpected result: %v %d", items, total)
	}
}

func TestListIgnoresUnknownColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContactRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM contacts WHERE deleted_at IS NULL`) + `$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM contacts WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2`)).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, _, err := repo.List(context.Background(), models.ListQuery{
		Page: 1, Limit: 10,
		Conditions: []models.Condition{{Column: "password_hash; DROP TABLE users", Value: "x"}},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
}

func TestUpdateWithoutChangesTouchesNothing(t *testing.T) {
	db, _ := newMock(t)
	got, err := NewAccountRepository(db).Update(context.Background(), "a-1", nil, nil, time.Now())
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestUpdateMergesCustomFields(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE opportunities SET stage = $1, custom_fields = COALESCE(custom_fields, '{}'::jsonb) || $2::jsonb, updated_at = $3 WHERE id = $4 AND deleted_at IS NULL RETURNING`)).
		WithArgs("won", `{"region":"EU"}`, now, "o-1").
		WillReturnError(sql.ErrNoRows)

	got, err := NewOpportunityRepository(db).Update(context.Background(), "o-1",
		[]models.Change{{Column: "stage", Value: "won"}},
		customfields.Values{"region": customfields.Text("EU")}, now)
	if err != nil || got != nil {
		t.Fatalf("missing row should yield (nil, nil), got (%v, %v)", got, err)
	}
}

func TestSoftDeleteReportsMissingRow(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE leads SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`)).
		WithArgs(now, "l-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewLeadRepository(db).Delete(context.Background(), "l-1", now)
	if err != nil || ok {
		t.Fatalf("expected not deleted, got %v %v", ok, err)
	}
}

func TestGetByIDExcludesDeleted(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM activities WHERE id = $1 AND deleted_at IS NULL`)).
		WithArgs("x").
		WillReturnError(sql.ErrNoRows)

	got, err := NewActivityRepository(db).GetByID(context.Background(), "x")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestForecastPlacesMonthsAfterVisibility(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`close_date <= CURRENT_DATE \+ make_interval\(months => \$2\)`).
		WithArgs("u-1", 6).
		WillReturnRows(sqlmock.NewRows([]string{"month", "weighted", "count"}).
			AddRow("2024-07", 1500.0, 2))

	got, err := NewOpportunityRepository(db).Forecast(context.Background(), 6, "u-1")
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(got) != 1 || got[0].Month != "2024-07" || got[0].WeightedAmount != 1500 || got[0].Count != 2 {
		t.Fatalf("unexpected forecast: %+v", got)
	}
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO custom_field_definitions`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "custom_field_definitions_entity_field_name_key"})

	d := &customfields.Definition{ID: "d-1", Entity: "lead", FieldName: "region", FieldType: customfields.FieldText, DisplayName: "Region"}
	err := NewCustomFieldRepository(db).Create(context.Background(), d)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestForeignKeyViolationIsValidation(t *testing.T) {
	err := mapPgError(&pq.Error{Code: "23503", Constraint: "contacts_account_id_fkey"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAuditListFiltersAndPages(t *testing.T) {
	db, mock := newMock(t)
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM audit_logs WHERE entity = $1 AND entity_id = $2`)).
		WithArgs("lead", "l-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY timestamp DESC LIMIT $3 OFFSET $4`)).
		WithArgs("lead", "l-1", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "action", "entity", "entity_id", "old_value", "new_value", "ip_address", "user_agent", "timestamp"}).
			AddRow("e-1", nil, "CONVERT", "lead", "l-1", nil, []byte(`{"status":"converted"}`), "", "", ts))

	got, total, err := NewAuditLogRepository(db).List(context.Background(),
		audit.Query{Entity: audit.EntityLead, EntityID: "l-1", Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].Action != audit.ActionConvert || got[0].UserID != nil {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestRoleUpdateWrapsPermissions(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE roles SET permissions = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs(sqlmock.AnyArg(), now, "r-1").
		WillReturnError(sql.ErrNoRows)

	got, err := NewRoleRepository(db).Update(context.Background(), "r-1",
		[]models.Change{{Column: "permissions", Value: []string{"leads:read"}}}, now)
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestMalformedFilterIdIsValidation(t *testing.T) {
	db, mock := newMock(t)
	badUUID := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "x"`}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM leads WHERE deleted_at IS NULL AND owner_id = $1`)).
		WithArgs("x").
		WillReturnError(badUUID)
	_, _, err := NewLeadRepository(db).List(context.Background(), models.ListQuery{
		Page: 1, Limit: 20, Conditions: []models.Condition{{Column: "owner_id", Value: "x"}},
	})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("lead list: expected invalid input, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM audit_logs WHERE user_id = $1`)).
		WithArgs("x").
		WillReturnError(badUUID)
	_, _, err = NewAuditLogRepository(db).List(context.Background(), audit.Query{UserID: "x", Page: 1, Limit: 20})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("audit list: expected invalid input, got %v", err)
	}
}
