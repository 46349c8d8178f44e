package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"abetcrm/internal/apperr"
	"abetcrm/internal/audit"
	"abetcrm/internal/authz"
	"abetcrm/internal/customfields"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
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

type staticDefs map[string][]customfields.Definition

func (s staticDefs) ListByEntity(_ context.Context, entity string) ([]customfields.Definition, error) {
	return s[entity], nil
}

var leadCols = []string{
	"id", "first_name", "last_name", "company", "email", "phone", "job_title", "lead_source", "status", "lead_score",
	"owner_id", "assigned_to", "description", "address", "city", "state", "zip_code", "country",
	"converted_to_contact", "converted_to_contact_id", "converted_to_account", "converted_to_account_id", "converted_date",
	"custom_fields", "created_at", "updated_at", "deleted_at",
}

func leadRows(id, status string, contactID, accountID any) *sqlmock.Rows {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	converted := contactID != nil
	return sqlmock.NewRows(leadCols).AddRow(
		id, "Ada", "Lovelace", "Analytical Engines", "ada@example.com", "+1", "CTO", "web", status, 40,
		"owner-1", "rep-1", "met at expo", "1 Main St", "London", "", "N1", "UK",
		converted, contactID, converted, accountID, nil,
		[]byte(`{"tier":"gold"}`), now, now, nil,
	)
}

const leadID = "11111111-1111-1111-1111-111111111111"

func newLeadService(db *sql.DB) *LeadService {
	return NewLeadService(db, customfields.NewValidator(staticDefs{}), audit.NewRecorder(repositories.NewAuditLogRepository(db)))
}

// capturedID records the string argument it is matched against.
type capturedID struct{ value string }

func (c *capturedID) Match(v driver.Value) bool {
	s, ok := v.(string)
	c.value = s
	return ok && s != ""
}

// expectConversion returns the ids the lead was repointed to.
func expectConversion(mock sqlmock.Sqlmock) (contactID, accountID *capturedID) {
	contactID, accountID = &capturedID{}, &capturedID{}
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1 AND deleted_at IS NULL FOR UPDATE")).
		WithArgs(leadID).
		WillReturnRows(leadRows(leadID, "qualified", nil, nil))
	mock.ExpectExec("INSERT INTO contacts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE leads").
		WithArgs(contactID, accountID, sqlmock.AnyArg(), models.LeadStatusConverted, leadID).
		WillReturnRows(leadRows(leadID, models.LeadStatusConverted, "c-1", "a-1"))
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	return contactID, accountID
}

func TestConvertLeadCreatesContactAndAccount(t *testing.T) {
	db, mock := newMock(t)
	svc := newLeadService(db)
	contactID, accountID := expectConversion(mock)

	res, err := svc.Convert(context.Background(), authz.Principal{UserID: "rep-1", Role: authz.RoleUser}, leadID)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	c, a := res.Contact, res.Account
	if c.FirstName != "Ada" || c.Email != "ada@example.com" || c.Status != "active" {
		t.Fatalf("unexpected contact: %+v", c)
	}
	if c.OwnerID != "owner-1" || c.AssignedTo != "rep-1" || c.AccountID != nil {
		t.Fatalf("contact ownership/link wrong: %+v", c)
	}
	if a.Name != "Analytical Engines" || a.Status != "active" || a.City != "London" {
		t.Fatalf("unexpected account: %+v", a)
	}
	if a.CustomFields["tier"].Text() != "gold" || c.CustomFields["tier"].Text() != "gold" {
		t.Fatalf("custom fields not carried over: %v / %v", c.CustomFields, a.CustomFields)
	}
	if contactID.value != c.ID || accountID.value != a.ID {
		t.Fatalf("lead repointed to %s/%s, want %s/%s", contactID.value, accountID.value, c.ID, a.ID)
	}
}

func TestConvertLeadTwiceCreatesDistinctPairs(t *testing.T) {
	db, mock := newMock(t)
	svc := newLeadService(db)
	p := authz.Principal{UserID: "owner-1", Role: authz.RoleUser}

	firstContact, firstAccount := expectConversion(mock)
	secondContact, secondAccount := expectConversion(mock)
	first, err := svc.Convert(context.Background(), p, leadID)
	if err != nil {
		t.Fatalf("first Convert: %v", err)
	}
	second, err := svc.Convert(context.Background(), p, leadID)
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}
	if first.Contact.ID == second.Contact.ID || first.Account.ID == second.Account.ID {
		t.Fatalf("expected new records on re-conversion")
	}
	if firstContact.value != first.Contact.ID || firstAccount.value != first.Account.ID {
		t.Fatalf("first conversion pointed at %s/%s", firstContact.value, firstAccount.value)
	}
	if secondContact.value != second.Contact.ID || secondAccount.value != second.Account.ID {
		t.Fatalf("second conversion pointed at %s/%s, want %s/%s",
			secondContact.value, secondAccount.value, second.Contact.ID, second.Account.ID)
	}
}

func TestConvertLeadRollsBackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	svc := newLeadService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(leadID).
		WillReturnRows(leadRows(leadID, "qualified", nil, nil))
	mock.ExpectExec("INSERT INTO contacts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO accounts").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if _, err := svc.Convert(context.Background(), authz.Principal{UserID: "u-admin", Role: authz.RoleAdmin}, leadID); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConvertLeadMissing(t *testing.T) {
	db, mock := newMock(t)
	svc := newLeadService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(leadID).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Convert(context.Background(), authz.Principal{UserID: "u-admin", Role: authz.RoleAdmin}, leadID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConvertLeadForbiddenForStranger(t *testing.T) {
	db, mock := newMock(t)
	svc := newLeadService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(leadID).
		WillReturnRows(leadRows(leadID, "new", nil, nil))
	mock.ExpectRollback()

	_, err := svc.Convert(context.Background(), authz.Principal{UserID: "someone", Role: authz.RoleUser}, leadID)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAssigneeCannotTransferLeadOwnership(t *testing.T) {
	db, mock := newMock(t)
	svc := newLeadService(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(leadID).
		WillReturnRows(leadRows(leadID, "new", nil, nil))

	newOwner := "rep-1"
	_, err := svc.Update(context.Background(), authz.Principal{UserID: "rep-1", Role: authz.RoleUser}, leadID,
		models.LeadPatch{OwnershipPatch: models.OwnershipPatch{OwnerID: &newOwner}})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAssigneeCannotDeleteLead(t *testing.T) {
	db, mock := newMock(t)
	svc := newLeadService(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(leadID).
		WillReturnRows(leadRows(leadID, "new", nil, nil))

	err := svc.Delete(context.Background(), authz.Principal{UserID: "rep-1", Role: authz.RoleUser}, leadID)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestEmptyPatchIsRejected(t *testing.T) {
	db, mock := newMock(t)
	svc := newLeadService(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(leadID).
		WillReturnRows(leadRows(leadID, "new", nil, nil))

	_, err := svc.Update(context.Background(), authz.Principal{UserID: "owner-1", Role: authz.RoleUser}, leadID, models.LeadPatch{})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestListForcesVisibilityForNonAdmins(t *testing.T) {
	db, mock := newMock(t)
	svc := newLeadService(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leads WHERE deleted_at IS NULL AND (owner_id = $1 OR assigned_to = $1)")).
		WithArgs("rep-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs("rep-1", models.DefaultLimit, 0).
		WillReturnRows(leadRows(leadID, "new", nil, nil))

	page, err := svc.List(context.Background(), authz.Principal{UserID: "rep-1", Role: authz.RoleUser}, models.ListQuery{Limit: 500})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Page != 1 || page.Limit != models.DefaultLimit || page.TotalPages != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestCreateRejectsInvalidCustomFieldsWithoutWriting(t *testing.T) {
	db, _ := newMock(t)
	defs := staticDefs{"contact": {{
		ID: "d1", Entity: "contact", FieldName: "employees", FieldType: customfields.FieldNumber, DisplayName: "Employees",
	}}}
	svc := NewContactService(db, customfields.NewValidator(defs), audit.NewRecorder(repositories.NewAuditLogRepository(db)))

	_, err := svc.Create(context.Background(), authz.Principal{UserID: "u-1", Role: authz.RoleUser}, models.Contact{
		FirstName:    "Grace",
		LastName:     "Hopper",
		CustomFields: customfields.Values{"employees": customfields.Text("many")},
	})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpportunityProbabilityBounds(t *testing.T) {
	db, _ := newMock(t)
	svc := NewOpportunityService(db, customfields.NewValidator(staticDefs{}), audit.NewRecorder(repositories.NewAuditLogRepository(db)))
	p := 120
	_, err := svc.Create(context.Background(), authz.Principal{UserID: "u-1", Role: authz.RoleUser},
		models.Opportunity{Name: "Big deal", Probability: p})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUpdateValidatesOnlyPatchedCustomFields(t *testing.T) {
	db, mock := newMock(t)
	defs := staticDefs{"lead": {{
		ID: "d1", Entity: "lead", FieldName: "budget", FieldType: customfields.FieldNumber, DisplayName: "Budget",
	}}}
	svc := NewLeadService(db, customfields.NewValidator(defs), audit.NewRecorder(repositories.NewAuditLogRepository(db)))

	// stored row carries "tier", which the lead registry does not define
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(leadID).
		WillReturnRows(leadRows(leadID, "new", nil, nil))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("custom_fields = COALESCE(custom_fields, '{}'::jsonb) || $1::jsonb")).
		WithArgs(`{"budget":5}`, sqlmock.AnyArg(), leadID).
		WillReturnRows(leadRows(leadID, "new", nil, nil))
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Update(context.Background(), authz.Principal{UserID: "owner-1", Role: authz.RoleUser}, leadID,
		models.LeadPatch{CustomFields: customfields.Values{"budget": customfields.Number(5)}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}
