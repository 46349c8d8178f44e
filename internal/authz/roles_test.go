package authz

import "testing"

type rec struct{ owner, assignee string }

func (r rec) Owner() string    { return r.owner }
func (r rec) Assignee() string { return r.assignee }

func TestPolicy(t *testing.T) {
	r := rec{owner: "o", assignee: "a"}
	cases := []struct {
		name         string
		p            Principal
		read, manage bool
	}{
		{"owner", Principal{UserID: "o", Role: RoleUser}, true, true},
		{"assignee", Principal{UserID: "a", Role: RoleUser}, true, false},
		{"stranger", Principal{UserID: "x", Role: RoleUser}, false, false},
		{"admin", Principal{UserID: "x", Role: RoleAdmin}, true, true},
		{"anonymous", Principal{}, false, false},
	}
	for _, tc := range cases {
		if got := CanRead(tc.p, r); got != tc.read {
			t.Fatalf("%s: CanRead = %v", tc.name, got)
		}
		if got := CanUpdate(tc.p, r); got != tc.read {
			t.Fatalf("%s: CanUpdate = %v", tc.name, got)
		}
		if got := CanManage(tc.p, r); got != tc.manage {
			t.Fatalf("%s: CanManage = %v", tc.name, got)
		}
	}
}

func TestVisibleTo(t *testing.T) {
	if (Principal{UserID: "u", Role: RoleAdmin}).VisibleTo() != "" {
		t.Fatalf("admin sees everything")
	}
	if (Principal{UserID: "u", Role: RoleUser}).VisibleTo() != "u" {
		t.Fatalf("user sees own rows")
	}
}
