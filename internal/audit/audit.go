package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"abetcrm/internal/apperr"
	"abetcrm/internal/database"
)

type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionConvert Action = "CONVERT"
	ActionLogin   Action = "LOGIN"
	ActionLogout  Action = "LOGOUT"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionConvert, ActionLogin, ActionLogout:
		return true
	}
	return false
}

type Entity string

const (
	EntityUser        Entity = "user"
	EntityAccount     Entity = "account"
	EntityContact     Entity = "contact"
	EntityLead        Entity = "lead"
	EntityOpportunity Entity = "opportunity"
	EntityActivity    Entity = "activity"
)

func (e Entity) Valid() bool {
	switch e {
	case EntityUser, EntityAccount, EntityContact, EntityLead, EntityOpportunity, EntityActivity:
		return true
	}
	return false
}

// Entry is an immutable audit record. Old and new values are full
// snapshots, not diffs.
type Entry struct {
	ID        string          `json:"id"`
	UserID    *string         `json:"userId"`
	Action    Action          `json:"action"`
	Entity    Entity          `json:"entity"`
	EntityID  *string         `json:"entityId"`
	OldValue  json.RawMessage `json:"oldValue"`
	NewValue  json.RawMessage `json:"newValue"`
	IPAddress string          `json:"ipAddress"`
	UserAgent string          `json:"userAgent"`
	Timestamp time.Time       `json:"timestamp"`
}

// Actor identifies who performs a request.
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
}

type ctxKey string

const actorKey ctxKey = "audit_actor"

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

func ActorFrom(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	a, _ := ctx.Value(actorKey).(Actor)
	return a
}

// Store persists entries through whatever handle the caller is writing with.
type Store interface {
	Insert(ctx context.Context, q database.DBTX, e *Entry) error
}

type Recorder struct {
	store Store
	now   func() time.Time
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record appends one entry using q, which should be the transaction of the
// write being described so that both commit or neither does.
func (r *Recorder) Record(ctx context.Context, q database.DBTX, action Action, entity Entity, entityID string, oldValue, newValue any) (*Entry, error) {
	if !action.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("unknown audit action %q", action))
	}
	if !entity.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("unknown audit entity %q", entity))
	}
	oldJSON, err := snapshot(oldValue)
	if err != nil {
		return nil, fmt.Errorf("audit old value: %w", err)
	}
	newJSON, err := snapshot(newValue)
	if err != nil {
		return nil, fmt.Errorf("audit new value: %w", err)
	}

	actor := ActorFrom(ctx)
	e := &Entry{
		ID:        uuid.NewString(),
		UserID:    optional(actor.UserID),
		Action:    action,
		Entity:    entity,
		EntityID:  optional(entityID),
		OldValue:  oldJSON,
		NewValue:  newJSON,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		Timestamp: r.now().UTC(),
	}
	if err := r.store.Insert(ctx, q, e); err != nil {
		return nil, fmt.Errorf("record audit %s %s: %w", action, entity, err)
	}
	return e, nil
}

// Query selects entries by user, by entity (+id), by action, or none.
type Query struct {
	UserID   string
	Entity   Entity
	EntityID string
	Action   Action
	Page     int
	Limit    int
}

func (q Query) Check() error {
	if q.Action != "" && !q.Action.Valid() {
		return apperr.Invalid(fmt.Sprintf("unknown audit action %q", q.Action))
	}
	if q.Entity != "" && !q.Entity.Valid() {
		return apperr.Invalid(fmt.Sprintf("unknown audit entity %q", q.Entity))
	}
	if q.EntityID != "" && q.Entity == "" {
		return apperr.Invalid("entityId requires entity")
	}
	return nil
}

// ParseAction accepts any letter case.
func ParseAction(s string) Action {
	return Action(strings.ToUpper(strings.TrimSpace(s)))
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
