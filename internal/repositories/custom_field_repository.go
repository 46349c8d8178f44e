package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
)

const customFieldColumns = `id, entity, field_name, field_type, display_name, required, default_value, options, created_at, updated_at`

// CustomFieldRepository stores definitions; it is the validator's
// DefinitionSource.
type CustomFieldRepository struct {
	db database.DBTX
}

func NewCustomFieldRepository(db database.DBTX) *CustomFieldRepository {
	return &CustomFieldRepository{db: db}
}

func scanDefinition(row rowScanner) (customfields.Definition, error) {
	var (
		d        customfields.Definition
		defValue []byte
		options  []byte
	)
	if err := row.Scan(&d.ID, &d.Entity, &d.FieldName, &d.FieldType, &d.DisplayName, &d.Required,
		&defValue, &options, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return d, err
	}
	if len(defValue) > 0 {
		if err := json.Unmarshal(defValue, &d.DefaultValue); err != nil {
			return d, fmt.Errorf("decode default value: %w", err)
		}
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &d.Options); err != nil {
			return d, fmt.Errorf("decode options: %w", err)
		}
	}
	return d, nil
}

// encodeDefinition returns the jsonb payloads of default value and options.
func encodeDefinition(d *customfields.Definition) (any, any, error) {
	var defValue any
	if !d.DefaultValue.IsNull() {
		b, err := json.Marshal(d.DefaultValue)
		if err != nil {
			return nil, nil, err
		}
		defValue = string(b)
	}
	var options any
	if d.Options != nil {
		b, err := json.Marshal(d.Options)
		if err != nil {
			return nil, nil, err
		}
		options = string(b)
	}
	return defValue, options, nil
}

// ListByEntity returns the definitions of one entity, newest first.
func (r *CustomFieldRepository) ListByEntity(ctx context.Context, entity string) ([]customfields.Definition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customFieldColumns+` FROM custom_field_definitions WHERE entity = $1 ORDER BY created_at DESC`, entity)
	if err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	defer rows.Close()

	out := []customfields.Definition{}
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *CustomFieldRepository) GetByID(ctx context.Context, id string) (*customfields.Definition, error) {
	d, err := scanDefinition(r.db.QueryRowContext(ctx,
		`SELECT `+customFieldColumns+` FROM custom_field_definitions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(fmt.Errorf("get custom field: %w", err))
	}
	return &d, nil
}

func (r *CustomFieldRepository) Create(ctx context.Context, d *customfields.Definition) error {
	defValue, options, err := encodeDefinition(d)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO custom_field_definitions (
			id, entity, field_name, field_type, display_name, required, default_value, options, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err = r.db.ExecContext(ctx, q,
		d.ID, d.Entity, d.FieldName, d.FieldType, d.DisplayName, d.Required, defValue, options, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return mapPgError(fmt.Errorf("insert custom field: %w", err))
	}
	return nil
}

// Update rewrites the mutable attributes of d.
func (r *CustomFieldRepository) Update(ctx context.Context, d *customfields.Definition) error {
	defValue, options, err := encodeDefinition(d)
	if err != nil {
		return err
	}
	const q = `
		UPDATE custom_field_definitions
		SET field_type=$1, display_name=$2, required=$3, default_value=$4, options=$5, updated_at=$6
		WHERE id=$7
	`
	res, err := r.db.ExecContext(ctx, q, d.FieldType, d.DisplayName, d.Required, defValue, options, d.UpdatedAt, d.ID)
	if err != nil {
		return mapPgError(fmt.Errorf("update custom field: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *CustomFieldRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_field_definitions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete custom field: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
