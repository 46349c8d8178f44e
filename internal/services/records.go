package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"abetcrm/internal/apperr"
	"abetcrm/internal/audit"
	"abetcrm/internal/authz"
	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

type record interface {
	Owner() string
	Assignee() string
	CustomValues() customfields.Values
}

// recordRepo is the storage contract shared by the owned entities.
type recordRepo[T record] interface {
	Create(ctx context.Context, item *T) error
	GetByID(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, q models.ListQuery) ([]T, int, error)
	Update(ctx context.Context, id string, changes []models.Change, custom customfields.Values, now time.Time) (*T, error)
	Delete(ctx context.Context, id string, now time.Time) (bool, error)
}

// Patch is the partial update of an owned entity.
type Patch interface {
	Changes() []models.Change
	Ownership() models.OwnershipPatch
	Custom() customfields.Values
}

// Records implements read/update/delete with ownership checks, custom
// field validation and audit entries for one entity type.
type Records[T record] struct {
	db        *sql.DB
	bind      func(database.DBTX) recordRepo[T]
	validator *customfields.Validator
	recorder  *audit.Recorder
	entity    audit.Entity
	// assignee may hand the record to someone else
	assigneeReassigns bool
	now               func() time.Time
}

func newRecords[T record](db *sql.DB, bind func(database.DBTX) recordRepo[T], v *customfields.Validator, rec *audit.Recorder, entity audit.Entity) *Records[T] {
	return &Records[T]{db: db, bind: bind, validator: v, recorder: rec, entity: entity, now: time.Now}
}

func (r *Records[T]) notFound() error {
	return apperr.NotFound(string(r.entity) + " not found")
}

// Get returns a live record the principal may read.
func (r *Records[T]) Get(ctx context.Context, p authz.Principal, id string) (*T, error) {
	item, err := r.bind(r.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, r.notFound()
	}
	if !authz.CanRead(p, *item) {
		return nil, apperr.ErrForbidden
	}
	return item, nil
}

// List pages through live records; non-admins only see what they own or
// are assigned to.
func (r *Records[T]) List(ctx context.Context, p authz.Principal, q models.ListQuery) (models.Page[T], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > models.MaxLimit {
		q.Limit = models.DefaultLimit
	}
	q.VisibleTo = p.VisibleTo()
	items, total, err := r.bind(r.db).List(ctx, q)
	if err != nil {
		return models.Page[T]{}, err
	}
	return models.NewPage(items, total, q), nil
}

// validateNew checks the custom fields of a record about to be created.
func (r *Records[T]) validateNew(ctx context.Context, values customfields.Values) (customfields.Values, error) {
	normalized, err := r.validator.Validate(ctx, string(r.entity), values.Raw())
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		normalized = customfields.Values{}
	}
	return normalized, nil
}

// insert stores item and its CREATE entry atomically.
func (r *Records[T]) insert(ctx context.Context, id string, item *T) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.bind(tx).Create(ctx, item); err != nil {
			return err
		}
		_, err := r.recorder.Record(ctx, tx, audit.ActionCreate, r.entity, id, nil, item)
		return err
	})
}

// Update applies patch after the ownership rules. Only the custom fields in
// the patch are validated; they are merged into the stored map.
func (r *Records[T]) Update(ctx context.Context, p authz.Principal, id string, patch Patch) (*T, error) {
	current, err := r.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	own := patch.Ownership()
	if own.OwnerID != nil && *own.OwnerID != "" && *own.OwnerID != (*current).Owner() && !authz.CanManage(p, *current) {
		return nil, apperr.Forbidden("Only owner or admin can change ownership")
	}
	if own.AssignedTo != nil && *own.AssignedTo != "" && *own.AssignedTo != (*current).Assignee() &&
		!r.assigneeReassigns && !authz.CanManage(p, *current) {
		return nil, apperr.Forbidden("Only owner or admin can change ownership")
	}

	changes := patch.Changes()
	custom, err := r.mergeCustom(ctx, (*current).CustomValues(), patch.Custom())
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 && len(custom) == 0 {
		return nil, apperr.Invalid("no fields to update")
	}

	var updated *T
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		updated, err = r.bind(tx).Update(ctx, id, changes, custom, r.now().UTC())
		if err != nil {
			return err
		}
		if updated == nil {
			return r.notFound()
		}
		_, err = r.recorder.Record(ctx, tx, audit.ActionUpdate, r.entity, id, current, updated)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", r.entity, err)
	}
	return updated, nil
}

func (r *Records[T]) mergeCustom(ctx context.Context, stored, patch customfields.Values) (customfields.Values, error) {
	if len(patch) == 0 {
		return nil, nil
	}
	return r.validator.ValidatePatch(ctx, string(r.entity), stored.Raw(), patch.Raw())
}

// Delete soft-deletes a record; only the owner or an admin may.
func (r *Records[T]) Delete(ctx context.Context, p authz.Principal, id string) error {
	current, err := r.bind(r.db).GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return r.notFound()
	}
	if !authz.CanManage(p, *current) {
		return apperr.Forbidden("Only owner or admin can delete")
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := r.bind(tx).Delete(ctx, id, r.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return r.notFound()
		}
		_, err = r.recorder.Record(ctx, tx, audit.ActionDelete, r.entity, id, current, nil)
		return err
	})
}

// ownerFor picks the owner of a new record: admins may create on behalf
// of someone else.
func ownerFor(p authz.Principal, requested string) string {
	if p.IsAdmin() && requested != "" {
		return requested
	}
	return p.UserID
}
