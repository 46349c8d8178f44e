package customfields

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"abetcrm/internal/apperr"
)

// DefinitionSource lists the definitions of one entity type, newest first.
type DefinitionSource interface {
	ListByEntity(ctx context.Context, entity string) ([]Definition, error)
}

type Validator struct {
	defs DefinitionSource
}

func NewValidator(defs DefinitionSource) *Validator {
	return &Validator{defs: defs}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC1123,
	time.RFC1123Z,
}

// Validate checks raw against the registry of entity and returns the values
// normalized to their declared kinds. Any violation rejects the whole map;
// the returned *apperr.ValidationError lists every violation, candidate
// fields first (sorted by name) and then missing required definitions.
// An empty map is valid without a registry lookup.
func (v *Validator) Validate(ctx context.Context, entity string, raw map[string]any) (Values, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	defs, err := v.defs.ListByEntity(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("load custom field definitions: %w", err)
	}
	return validate(defs, entity, raw, raw)
}

// ValidatePatch checks only the keys in patch. Keys already stored are
// trusted as they are, but the required check runs on the merged map so a
// patch cannot blank out a required field. Returns the normalized patch.
func (v *Validator) ValidatePatch(ctx context.Context, entity string, stored, patch map[string]any) (Values, error) {
	if len(patch) == 0 {
		return nil, nil
	}
	defs, err := v.defs.ListByEntity(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("load custom field definitions: %w", err)
	}
	merged := make(map[string]any, len(stored)+len(patch))
	for k, val := range stored {
		merged[k] = val
	}
	for k, val := range patch {
		merged[k] = val
	}
	return validate(defs, entity, patch, merged)
}

func validate(defs []Definition, entity string, candidates, effective map[string]any) (Values, error) {
	byName := make(map[string]*Definition, len(defs))
	for i := range defs {
		if _, dup := byName[defs[i].FieldName]; !dup {
			byName[defs[i].FieldName] = &defs[i]
		}
	}

	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []string
	out := make(Values, len(candidates))
	for _, name := range names {
		value := candidates[name]
		def, ok := byName[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("Custom field %q is not defined for entity %q", name, entity))
			continue
		}
		if isEmpty(value) {
			if def.Required {
				errs = append(errs, fmt.Sprintf("Required custom field %q is missing or empty", name))
				continue
			}
			out[name] = Null()
			continue
		}
		normalized, msgs := check(def, value)
		if len(msgs) > 0 {
			errs = append(errs, msgs...)
			continue
		}
		out[name] = normalized
	}

	for _, def := range defs {
		if def.Required && isEmpty(effective[def.FieldName]) {
			errs = append(errs, fmt.Sprintf("Required custom field %q is missing", def.FieldName))
		}
	}

	if len(errs) > 0 {
		return nil, &apperr.ValidationError{Errors: errs}
	}
	return out, nil
}

func check(def *Definition, value any) (Value, []string) {
	name := def.FieldName
	switch def.FieldType {
	case FieldNumber:
		f, ok := toNumber(value)
		if !ok {
			return Value{}, []string{fmt.Sprintf("Custom field %q must be a number", name)}
		}
		return Number(f), nil
	case FieldBoolean:
		b, ok := toBool(value)
		if !ok {
			return Value{}, []string{fmt.Sprintf("Custom field %q must be a boolean", name)}
		}
		return Bool(b), nil
	case FieldDate:
		t, ok := toDate(value)
		if !ok {
			return Value{}, []string{fmt.Sprintf("Custom field %q must be a valid date", name)}
		}
		return Date(t), nil
	case FieldSelect:
		s := scalarString(value)
		if !contains(def.Options, s) {
			return Value{}, []string{optionError(s, def)}
		}
		return Text(s), nil
	case FieldMultiselect:
		items, ok := toList(value)
		if !ok {
			return Value{}, []string{fmt.Sprintf("Custom field %q must be an array", name)}
		}
		var msgs []string
		for _, item := range items {
			if !contains(def.Options, item) {
				msgs = append(msgs, optionError(item, def))
			}
		}
		if len(msgs) > 0 {
			return Value{}, msgs
		}
		return List(items), nil
	}
	// text and anything stored before a type change
	v, err := FromAny(value)
	if err != nil {
		return Value{}, []string{fmt.Sprintf("Custom field %q has an unsupported value", name)}
	}
	return v, nil
}

func optionError(value string, def *Definition) string {
	return fmt.Sprintf("Value %q is not valid for custom field %q. Valid options: %s",
		value, def.FieldName, strings.Join(def.Options, ", "))
}

func isEmpty(value any) bool {
	switch t := value.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case Value:
		return t.IsNull() || (t.Kind() == KindText && t.Text() == "")
	}
	return false
}

func toNumber(value any) (float64, bool) {
	switch t := value.(type) {
	case float64:
		return t, finite(t)
	case float32:
		return float64(t), finite(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && finite(f)
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		// decimal only: no hex floats, digit separators or Inf spellings
		if strings.ContainsAny(s, "xX_pP") {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// maxEpochMillis bounds epoch dates to 100,000,000 days either side of 1970.
const maxEpochMillis = 8.64e15

func toBool(value any) (bool, bool) {
	switch t := value.(type) {
	case bool:
		return t, true
	case string:
		switch t {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func toDate(value any) (time.Time, bool) {
	switch t := value.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	}
	// epoch milliseconds
	if f, ok := toNumber(value); ok {
		if _, isBool := value.(bool); isBool {
			return time.Time{}, false
		}
		if f < -maxEpochMillis || f > maxEpochMillis {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}

func toList(value any) ([]string, bool) {
	switch t := value.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, scalarString(e))
		}
		return out, true
	}
	return nil, false
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
