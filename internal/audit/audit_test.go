package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"abetcrm/internal/apperr"
	"abetcrm/internal/database"
)

type memStore struct {
	entries []*Entry
	err     error
}

func (m *memStore) Insert(_ context.Context, _ database.DBTX, e *Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestRecordCapturesActorAndSnapshots(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store)
	r.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	ctx := WithActor(context.Background(), Actor{UserID: "user-1", IPAddress: "10.0.0.1", UserAgent: "curl"})
	before := map[string]any{"status": "new"}
	after := map[string]any{"status": "converted"}

	e, err := r.Record(ctx, nil, ActionConvert, EntityLead, "lead-1", before, after)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected one stored entry")
	}
	if e.UserID == nil || *e.UserID != "user-1" || e.IPAddress != "10.0.0.1" || e.UserAgent != "curl" {
		t.Fatalf("actor not captured: %+v", e)
	}
	if string(e.OldValue) != `{"status":"new"}` || string(e.NewValue) != `{"status":"converted"}` {
		t.Fatalf("unexpected snapshots: %s / %s", e.OldValue, e.NewValue)
	}
	if e.EntityID == nil || *e.EntityID != "lead-1" || e.ID == "" {
		t.Fatalf("unexpected ids: %+v", e)
	}
}

func TestRecordRejectsUnknownValues(t *testing.T) {
	r := NewRecorder(&memStore{})
	if _, err := r.Record(context.Background(), nil, Action("CREAT"), EntityLead, "x", nil, nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid action error, got %v", err)
	}
	if _, err := r.Record(context.Background(), nil, ActionCreate, Entity("deal"), "x", nil, nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid entity error, got %v", err)
	}
}

func TestRecordPropagatesStoreFailure(t *testing.T) {
	r := NewRecorder(&memStore{err: errors.New("insert failed")})
	if _, err := r.Record(context.Background(), nil, ActionDelete, EntityAccount, "a", nil, nil); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestQueryCheck(t *testing.T) {
	if err := (Query{EntityID: "x"}).Check(); err == nil {
		t.Fatalf("entityId without entity must fail")
	}
	if err := (Query{Action: ParseAction("login")}).Check(); err != nil {
		t.Fatalf("lower-case action should parse: %v", err)
	}
	if err := (Query{Entity: "lead", EntityID: "1"}).Check(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
