package customfields

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValuesJSONRoundTrip(t *testing.T) {
	in := Values{
		"referralSource": Text("Web"),
		"score":          Number(7),
		"vip":            Bool(true),
		"since":          Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		"tags":           List([]string{"a", "b"}),
		"empty":          Null(),
	}
	raw, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out Values
	if err := out.Scan(raw); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out["referralSource"].Text() != "Web" {
		t.Fatalf("text lost: %v", out["referralSource"])
	}
	if out["score"].Number() != 7 {
		t.Fatalf("number lost: %v", out["score"])
	}
	if !out["vip"].Bool() {
		t.Fatalf("bool lost")
	}
	if out["since"].Text() != "2024-03-01" {
		t.Fatalf("date should come back as its text form, got %v", out["since"].Interface())
	}
	if len(out["tags"].List()) != 2 {
		t.Fatalf("list lost: %v", out["tags"])
	}
	if !out["empty"].IsNull() {
		t.Fatalf("null lost")
	}
}

func TestValuesScanNil(t *testing.T) {
	var vs Values
	if err := vs.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if vs == nil || len(vs) != 0 {
		t.Fatalf("expected empty map, got %v", vs)
	}
}

func TestValuesMergeIsShallow(t *testing.T) {
	base := Values{"y": Number(2), "z": Text("keep")}
	merged := base.Merge(Values{"x": Number(1), "z": Text("new")})
	if len(merged) != 3 || merged["y"].Number() != 2 || merged["x"].Number() != 1 || merged["z"].Text() != "new" {
		t.Fatalf("unexpected merge: %v", merged.Raw())
	}
	if base["z"].Text() != "keep" {
		t.Fatalf("merge mutated receiver")
	}
}

func TestDefinitionPatchNullIsUnset(t *testing.T) {
	var p DefinitionPatch
	if err := json.Unmarshal([]byte(`{"displayName":"Region","options":null}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Options != nil {
		t.Fatalf("null options should be unset")
	}
	d := p.Apply(Definition{FieldName: "region", DisplayName: "old", Options: []string{"EU"}})
	if d.DisplayName != "Region" || len(d.Options) != 1 {
		t.Fatalf("unexpected result: %+v", d)
	}
}

func TestDefinitionCheck(t *testing.T) {
	cases := []struct {
		name string
		def  Definition
		ok   bool
	}{
		{"text", Definition{Entity: "lead", FieldName: "a", DisplayName: "A", FieldType: FieldText}, true},
		{"bad entity", Definition{Entity: "deal", FieldName: "a", DisplayName: "A", FieldType: FieldText}, false},
		{"bad type", Definition{Entity: "lead", FieldName: "a", DisplayName: "A", FieldType: "json"}, false},
		{"select without options", Definition{Entity: "lead", FieldName: "a", DisplayName: "A", FieldType: FieldSelect}, false},
		{"select with options", Definition{Entity: "lead", FieldName: "a", DisplayName: "A", FieldType: FieldSelect, Options: []string{"x"}}, true},
	}
	for _, tc := range cases {
		err := tc.def.Check()
		if (err == nil) != tc.ok {
			t.Fatalf("%s: err=%v ok=%v", tc.name, err, tc.ok)
		}
	}
}
