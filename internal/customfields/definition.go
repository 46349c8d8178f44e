package customfields

import (
	"fmt"
	"strings"
	"time"

	"abetcrm/internal/apperr"
)

type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldDate        FieldType = "date"
	FieldBoolean     FieldType = "boolean"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
)

var (
	Entities   = []string{"lead", "contact", "account", "opportunity", "activity", "user"}
	FieldTypes = []FieldType{FieldText, FieldNumber, FieldDate, FieldBoolean, FieldSelect, FieldMultiselect}
)

func ValidEntity(entity string) bool {
	for _, e := range Entities {
		if e == entity {
			return true
		}
	}
	return false
}

func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

func (t FieldType) NeedsOptions() bool {
	return t == FieldSelect || t == FieldMultiselect
}

// Definition describes one administrator-defined field of an entity type.
type Definition struct {
	ID           string    `json:"id"`
	Entity       string    `json:"entity"`
	FieldName    string    `json:"fieldName"`
	FieldType    FieldType `json:"fieldType"`
	DisplayName  string    `json:"displayName"`
	Required     bool      `json:"required"`
	DefaultValue Value     `json:"defaultValue"`
	Options      []string  `json:"options"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Check enforces the registry rules on a definition about to be stored.
func (d *Definition) Check() error {
	var errs []string
	if !ValidEntity(d.Entity) {
		errs = append(errs, fmt.Sprintf("Invalid entity type: %s. Valid types are: %s", d.Entity, strings.Join(Entities, ", ")))
	}
	if !d.FieldType.Valid() {
		names := make([]string, len(FieldTypes))
		for i, ft := range FieldTypes {
			names[i] = string(ft)
		}
		errs = append(errs, fmt.Sprintf("Invalid field type: %s. Valid types are: %s", d.FieldType, strings.Join(names, ", ")))
	}
	if strings.TrimSpace(d.FieldName) == "" {
		errs = append(errs, "fieldName is required")
	}
	if strings.TrimSpace(d.DisplayName) == "" {
		errs = append(errs, "displayName is required")
	}
	if d.FieldType.NeedsOptions() && len(d.Options) == 0 {
		errs = append(errs, "Options are required for select and multiselect field types")
	}
	if len(errs) > 0 {
		return &apperr.ValidationError{Errors: errs}
	}
	return nil
}

// DefinitionPatch carries the mutable attributes of a definition.
// Entity and field name are immutable and have no slot here.
type DefinitionPatch struct {
	DisplayName  *string    `json:"displayName"`
	FieldType    *FieldType `json:"fieldType"`
	Required     *bool      `json:"required"`
	DefaultValue *Value     `json:"defaultValue"`
	Options      *[]string  `json:"options"`
}

func (p DefinitionPatch) Empty() bool {
	return p.DisplayName == nil && p.FieldType == nil && p.Required == nil &&
		p.DefaultValue == nil && p.Options == nil
}

// Apply returns d with the patch applied.
func (p DefinitionPatch) Apply(d Definition) Definition {
	if p.DisplayName != nil {
		d.DisplayName = *p.DisplayName
	}
	if p.FieldType != nil {
		d.FieldType = *p.FieldType
	}
	if p.Required != nil {
		d.Required = *p.Required
	}
	if p.DefaultValue != nil {
		d.DefaultValue = *p.DefaultValue
	}
	if p.Options != nil {
		d.Options = append([]string(nil), (*p.Options)...)
	}
	return d
}
