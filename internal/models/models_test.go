package models

import (
	"encoding/json"
	"testing"
)

func TestLeadPatchOnlySuppliedKeys(t *testing.T) {
	var p LeadPatch
	body := `{"status":"qualified","phone":"","company":null,"assignedTo":"u-2","customFields":{"x":1}}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := p.Changes()
	want := []Change{{"phone", ""}, {"status", "qualified"}, {"assigned_to", "u-2"}}
	if len(got) != len(want) {
		t.Fatalf("changes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("change %d = %v, want %v", i, got[i], want[i])
		}
	}
	if p.Custom()["x"].Number() != 1 {
		t.Fatalf("custom fields not decoded: %v", p.CustomFields)
	}
}

func TestEmptyPatchHasNoChanges(t *testing.T) {
	var p AccountPatch
	if err := json.Unmarshal([]byte(`{"id":"ignored","createdAt":"2020-01-01T00:00:00Z"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(p.Changes()) != 0 {
		t.Fatalf("expected no changes, got %v", p.Changes())
	}
}

func TestContactPatchClearsAccount(t *testing.T) {
	var p ContactPatch
	if err := json.Unmarshal([]byte(`{"accountId":""}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := p.Changes()
	if len(got) != 1 || got[0].Column != "account_id" || got[0].Value != nil {
		t.Fatalf("expected account_id cleared, got %v", got)
	}
}

func TestNewPage(t *testing.T) {
	q := ListQuery{Page: 2, Limit: 10}
	if q.Offset() != 10 {
		t.Fatalf("offset = %d", q.Offset())
	}
	p := NewPage[Lead](nil, 21, q)
	if p.TotalPages != 3 || p.Items == nil {
		t.Fatalf("unexpected page: %+v", p)
	}
}
