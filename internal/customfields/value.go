package customfields

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindDate
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	}
	return "null"
}

// Value is one custom-field value. The zero Value is null.
type Value struct {
	kind Kind
	text string
	num  float64
	date time.Time
	b    bool
	list []string
}

func Null() Value { return Value{} }
func Text(s string) Value { return Value{kind: KindText, text: s} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func List(items []string) Value { return Value{kind: KindList, list: append([]string(nil), items...)} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) Text() string { return v.text }
func (v Value) Number() float64 { return v.num }
func (v Value) Date() time.Time { return v.date }
func (v Value) Bool() bool { return v.b }
func (v Value) List() []string { return append([]string(nil), v.list...) }

// Interface converts back to the plain JSON-shaped representation.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindDate:
		return formatDate(v.date)
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, s := range v.list {
			out[i] = s
		}
		return out
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindNull:
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON infers the kind from the JSON type. Dates arrive as text;
// only the validator knows a field is a date.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts a decoded JSON value without consulting any definition.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return Text(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case time.Time:
		return Date(t), nil
	case []string:
		return List(t), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, e := range t {
			items = append(items, scalarString(e))
		}
		return List(items), nil
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return Value{}, err
		}
		return Text(string(b)), nil
	}
	return Value{}, fmt.Errorf("unsupported custom field value of type %T", raw)
}

// Values is the customFields map of one record, stored as JSONB.
type Values map[string]Value

// Raw converts to a plain map, as needed to validate a merged update.
func (vs Values) Raw() map[string]any {
	out := make(map[string]any, len(vs))
	for k, v := range vs {
		out[k] = v.Interface()
	}
	return out
}

// Merge returns a copy of vs overlaid with patch (shallow, patch wins).
func (vs Values) Merge(patch Values) Values {
	out := make(Values, len(vs)+len(patch))
	for k, v := range vs {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func (vs Values) Value() (driver.Value, error) {
	if vs == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]Value(vs))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (vs *Values) Scan(src any) error {
	var data []byte
	switch t := src.(type) {
	case nil:
		*vs = Values{}
		return nil
	case []byte:
		data = t
	case string:
		data = []byte(t)
	default:
		return errors.New("custom_fields: unsupported scan type")
	}
	m := map[string]Value{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("custom_fields: %w", err)
		}
	}
	*vs = Values(m)
	return nil
}

func scalarString(e any) string {
	switch t := e.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	return fmt.Sprint(e)
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
