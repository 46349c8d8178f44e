package customfields

import (
	"context"
	"errors"
	"strings"
	"testing"

	"abetcrm/internal/apperr"
)

type stubSource struct {
	defs  []Definition
	calls int
	err   error
}

func (s *stubSource) ListByEntity(_ context.Context, _ string) ([]Definition, error) {
	s.calls++
	return s.defs, s.err
}

func messages(t *testing.T, err error) []string {
	t.Helper()
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *apperr.ValidationError, got %T (%v)", err, err)
	}
	return ve.Errors
}

func TestValidateEmptyMapSkipsRegistry(t *testing.T) {
	src := &stubSource{err: errors.New("registry must not be called")}
	v := NewValidator(src)

	for _, raw := range []map[string]any{nil, {}} {
		out, err := v.Validate(context.Background(), "lead", raw)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if len(out) != 0 {
			t.Fatalf("expected no values, got %v", out)
		}
	}
	if src.calls != 0 {
		t.Fatalf("registry consulted %d times", src.calls)
	}
}

func TestValidateRequiredFieldMissing(t *testing.T) {
	src := &stubSource{defs: []Definition{
		{FieldName: "region", FieldType: FieldText, Required: true},
		{FieldName: "budget", FieldType: FieldNumber},
	}}
	v := NewValidator(src)

	_, err := v.Validate(context.Background(), "lead", map[string]any{"budget": 10})
	msgs := messages(t, err)
	if len(msgs) != 1 || !strings.Contains(msgs[0], `"region"`) || !strings.Contains(msgs[0], "missing") {
		t.Fatalf("unexpected errors: %v", msgs)
	}
}

func TestValidateRequiredFieldEmptyReportsTwice(t *testing.T) {
	src := &stubSource{defs: []Definition{{FieldName: "region", FieldType: FieldText, Required: true}}}
	v := NewValidator(src)

	_, err := v.Validate(context.Background(), "lead", map[string]any{"region": ""})
	msgs := messages(t, err)
	want := []string{
		`Required custom field "region" is missing or empty`,
		`Required custom field "region" is missing`,
	}
	if len(msgs) != len(want) {
		t.Fatalf("unexpected errors: %v", msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Fatalf("error %d = %q, want %q", i, msgs[i], want[i])
		}
	}
}

func TestValidateSelectMembership(t *testing.T) {
	src := &stubSource{defs: []Definition{
		{FieldName: "tier", FieldType: FieldSelect, Options: []string{"A", "B"}},
		{FieldName: "tags", FieldType: FieldMultiselect, Options: []string{"A", "B"}},
	}}
	v := NewValidator(src)
	ctx := context.Background()

	for _, ok := range []string{"A", "B"} {
		out, err := v.Validate(ctx, "account", map[string]any{"tier": ok})
		if err != nil {
			t.Fatalf("tier=%s: %v", ok, err)
		}
		if out["tier"].Text() != ok {
			t.Fatalf("unexpected normalized value %v", out["tier"])
		}
	}
	_, err := v.Validate(ctx, "account", map[string]any{"tier": "C"})
	msgs := messages(t, err)
	if msgs[0] != `Value "C" is not valid for custom field "tier". Valid options: A, B` {
		t.Fatalf("unexpected message: %q", msgs[0])
	}

	out, err := v.Validate(ctx, "account", map[string]any{"tags": []any{"A", "B"}})
	if err != nil {
		t.Fatalf("multiselect valid: %v", err)
	}
	if got := out["tags"].List(); len(got) != 2 {
		t.Fatalf("unexpected list: %v", got)
	}
	if _, err := v.Validate(ctx, "account", map[string]any{"tags": []any{"A", "C"}}); err == nil {
		t.Fatalf("expected multiselect with unknown element to fail")
	}
	if _, err := v.Validate(ctx, "account", map[string]any{"tags": "A"}); err == nil {
		t.Fatalf("expected non-array multiselect to fail")
	}
}

func TestValidateSelectWithoutOptionsRejectsEverything(t *testing.T) {
	src := &stubSource{defs: []Definition{{FieldName: "tier", FieldType: FieldSelect}}}
	v := NewValidator(src)
	if _, err := v.Validate(context.Background(), "lead", map[string]any{"tier": "anything"}); err == nil {
		t.Fatalf("expected failure for select without options")
	}
}

func TestValidateLenientTypes(t *testing.T) {
	src := &stubSource{defs: []Definition{
		{FieldName: "score", FieldType: FieldNumber},
		{FieldName: "vip", FieldType: FieldBoolean},
		{FieldName: "since", FieldType: FieldDate},
	}}
	v := NewValidator(src)

	out, err := v.Validate(context.Background(), "contact", map[string]any{
		"score": "42.5",
		"vip":   "true",
		"since": "2024-03-01",
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if out["score"].Kind() != KindNumber || out["score"].Number() != 42.5 {
		t.Fatalf("score not normalized: %v", out["score"])
	}
	if out["vip"].Kind() != KindBool || !out["vip"].Bool() {
		t.Fatalf("vip not normalized: %v", out["vip"])
	}
	if out["since"].Kind() != KindDate || out["since"].Date().Month() != 3 {
		t.Fatalf("since not normalized: %v", out["since"])
	}
}

func TestValidateAccumulatesInOrder(t *testing.T) {
	src := &stubSource{defs: []Definition{
		{FieldName: "score", FieldType: FieldNumber},
		{FieldName: "vip", FieldType: FieldBoolean},
		{FieldName: "since", FieldType: FieldDate},
	}}
	v := NewValidator(src)

	_, err := v.Validate(context.Background(), "contact", map[string]any{
		"vip":     "yes",
		"score":   "lots",
		"since":   "not a date",
		"unknown": 1,
	})
	msgs := messages(t, err)
	want := []string{
		`Custom field "score" must be a number`,
		`Custom field "since" must be a valid date`,
		`Custom field "unknown" is not defined for entity "contact"`,
		`Custom field "vip" must be a boolean`,
	}
	if strings.Join(msgs, "|") != strings.Join(want, "|") {
		t.Fatalf("errors = %v, want %v", msgs, want)
	}
	if err.Error() != strings.Join(want, ", ") {
		t.Fatalf("unexpected joined message: %q", err.Error())
	}
}

func TestValidateRegistryFailure(t *testing.T) {
	v := NewValidator(&stubSource{err: errors.New("db down")})
	_, err := v.Validate(context.Background(), "lead", map[string]any{"x": 1})
	if err == nil || errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestValidatePatchChecksOnlySuppliedKeys(t *testing.T) {
	src := &stubSource{defs: []Definition{
		{FieldName: "budget", FieldType: FieldNumber},
		{FieldName: "region", FieldType: FieldText, Required: true},
	}}
	v := NewValidator(src)
	stored := map[string]any{"tier": "gold", "region": "EMEA"}

	out, err := v.ValidatePatch(context.Background(), "lead", stored, map[string]any{"budget": "5"})
	if err != nil {
		t.Fatalf("ValidatePatch: %v", err)
	}
	if len(out) != 1 || out["budget"].Kind() != KindNumber {
		t.Fatalf("expected only the normalized patch, got %v", out)
	}

	_, err = v.ValidatePatch(context.Background(), "lead", stored, map[string]any{"region": ""})
	if msgs := messages(t, err); len(msgs) == 0 || !strings.Contains(msgs[0], `"region"`) {
		t.Fatalf("unexpected errors: %v", msgs)
	}

	_, err = v.ValidatePatch(context.Background(), "lead", map[string]any{"tier": "gold"}, map[string]any{"budget": 1})
	if msgs := messages(t, err); len(msgs) != 1 || !strings.Contains(msgs[0], `"region" is missing`) {
		t.Fatalf("required check should run on the merged map: %v", msgs)
	}
}

func TestValidateRejectsNonFiniteNumbers(t *testing.T) {
	src := &stubSource{defs: []Definition{{FieldName: "n", FieldType: FieldNumber}}}
	v := NewValidator(src)

	for _, raw := range []any{"Inf", "+Infinity", "-inf", "NaN", "0x1p-2", "1_000", "1e400"} {
		if _, err := v.Validate(context.Background(), "lead", map[string]any{"n": raw}); err == nil {
			t.Fatalf("%q should be rejected", raw)
		}
	}
	out, err := v.Validate(context.Background(), "lead", map[string]any{"n": "-1.5e3"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := out.Value(); err != nil {
		t.Fatalf("normalized values must serialize: %v", err)
	}
}

func TestValidateRejectsOutOfRangeEpochDates(t *testing.T) {
	src := &stubSource{defs: []Definition{{FieldName: "due", FieldType: FieldDate}}}
	v := NewValidator(src)

	for _, raw := range []any{1e300, -8.64e15 - 1} {
		if _, err := v.Validate(context.Background(), "lead", map[string]any{"due": raw}); err == nil {
			t.Fatalf("%v should be rejected", raw)
		}
	}
	if _, err := v.Validate(context.Background(), "lead", map[string]any{"due": 8.64e15}); err != nil {
		t.Fatalf("boundary date rejected: %v", err)
	}
}
