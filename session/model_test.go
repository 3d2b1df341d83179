package session

import (
	"encoding/json"
	"testing"
)

func TestRoleNormalize(t *testing.T) {
	cases := map[Role]Role{
		RoleClient:    RoleCorporate,
		RoleCorporate: RoleCorporate,
		RoleAdmin:     RoleAdmin,
		"":            "",
	}
	for in, want := range cases {
		if got := in.Normalize(); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
	if Role("auditor").Known() {
		t.Fatal("unexpected known role")
	}
}

func TestUserJSONPreservesUnknownFields(t *testing.T) {
	in := `{"id":"u-9","email":"bob@example.com","role":"client","company":"Acme","credits":12}`

	var u User
	if err := json.Unmarshal([]byte(in), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.ID != "u-9" || u.Role != RoleClient {
		t.Fatalf("typed fields not decoded: %+v", u)
	}

	var company string
	ok, err := u.Attribute("company", &company)
	if err != nil || !ok || company != "Acme" {
		t.Fatalf("attribute company = %q ok=%v err=%v", company, ok, err)
	}

	out, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var roundTrip map[string]any
	if err := json.Unmarshal(out, &roundTrip); err != nil {
		t.Fatalf("unmarshal round trip: %v", err)
	}
	if roundTrip["company"] != "Acme" || roundTrip["credits"] != float64(12) {
		t.Fatalf("unknown fields lost: %v", roundTrip)
	}
	if _, present := roundTrip["mustChangePassword"]; present {
		t.Fatal("false mustChangePassword should be omitted")
	}
}

func TestUserMergeIsShallow(t *testing.T) {
	u := &User{ID: "u-1", Email: "alice@example.com", Name: "Alice", Role: RoleStudent}

	merged, err := u.Merge(map[string]any{"name": "New Name", "university": "MIT"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Name != "New Name" {
		t.Fatalf("name = %q", merged.Name)
	}
	if merged.Email != u.Email || merged.Role != u.Role || merged.ID != u.ID {
		t.Fatalf("untouched fields changed: %+v", merged)
	}
	var uni string
	if ok, _ := merged.Attribute("university", &uni); !ok || uni != "MIT" {
		t.Fatalf("university = %q ok=%v", uni, ok)
	}
	if u.Name != "Alice" {
		t.Fatal("merge mutated receiver")
	}
}

func TestUserMergeClearsPasswordFlag(t *testing.T) {
	u := &User{ID: "u-1", Role: RoleStudent, MustChangePassword: true}
	merged, err := u.Merge(map[string]any{"mustChangePassword": false})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.MustChangePassword {
		t.Fatal("expected flag cleared")
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := testSession()
	s.User.Attributes = map[string]json.RawMessage{"k": json.RawMessage(`"v"`)}
	c := s.Clone()
	c.User.Name = "Changed"
	c.User.Attributes["k"][1] = 'X'
	if s.User.Name != "Alice" || string(s.User.Attributes["k"]) != `"v"` {
		t.Fatal("clone shares state with original")
	}
}
