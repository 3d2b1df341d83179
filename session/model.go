package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Role identifies the dashboard family a user belongs to.
type Role string

const (
	RoleStudent   Role = "student"
	RolePentester Role = "pentester"
	RoleAdmin     Role = "admin"
	RoleCorporate Role = "corporate"
	// RoleClient is the legacy spelling of RoleCorporate still issued by older accounts.
	RoleClient Role = "client"
)

// Normalize maps legacy aliases onto their canonical role.
func (r Role) Normalize() Role {
	if r == RoleClient {
		return RoleCorporate
	}
	return r
}

// Known reports whether r is one of the roles the portal understands.
func (r Role) Known() bool {
	switch r {
	case RoleStudent, RolePentester, RoleAdmin, RoleCorporate, RoleClient:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

const (
	fieldID                 = "id"
	fieldEmail              = "email"
	fieldName               = "name"
	fieldRole               = "role"
	fieldMustChangePassword = "mustChangePassword"
)

// User is the authenticated principal's profile as returned by the backend.
//
// Fields the subsystem relies on are decoded into typed members. Every other
// profile field is preserved verbatim in Attributes so that merges and
// round-trips never lose data the backend sent.
type User struct {
	ID                 string
	Email              string
	Name               string
	Role               Role
	MustChangePassword bool

	Attributes map[string]json.RawMessage
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Attributes != nil {
		out.Attributes = make(map[string]json.RawMessage, len(u.Attributes))
		for k, v := range u.Attributes {
			out.Attributes[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &out
}

// Attribute decodes the opaque profile field key into dst. It reports false
// when the field is absent.
func (u *User) Attribute(key string, dst any) (bool, error) {
	if u == nil {
		return false, nil
	}
	raw, ok := u.Attributes[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("session: attribute %q: %w", key, err)
	}
	return true, nil
}

// Merge returns a copy of u with patch shallow-merged on top. Keys in patch
// replace the corresponding top-level profile fields; all other fields are
// left untouched.
func (u *User) Merge(patch map[string]any) (*User, error) {
	if u == nil {
		return nil, ErrSessionIncomplete
	}
	fields, err := u.fields()
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("session: merge field %q: %w", k, err)
		}
		fields[k] = raw
	}

	out := &User{}
	if err := out.fromFields(fields); err != nil {
		return nil, err
	}
	return out, nil
}

// MarshalJSON writes the typed members alongside the preserved attributes
// as one flat object.
func (u User) MarshalJSON() ([]byte, error) {
	fields, err := u.fields()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON splits a flat profile object into typed members and
// attributes.
func (u *User) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("session: user must be a JSON object")
	}
	return u.fromFields(fields)
}

func (u *User) fields() (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(u.Attributes)+5)
	for k, v := range u.Attributes {
		fields[k] = v
	}

	set := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fields[key] = raw
		return nil
	}
	if u.ID != "" {
		if err := set(fieldID, u.ID); err != nil {
			return nil, err
		}
	}
	if u.Email != "" {
		if err := set(fieldEmail, u.Email); err != nil {
			return nil, err
		}
	}
	if u.Name != "" {
		if err := set(fieldName, u.Name); err != nil {
			return nil, err
		}
	}
	if u.Role != "" {
		if err := set(fieldRole, u.Role); err != nil {
			return nil, err
		}
	}
	if u.MustChangePassword {
		if err := set(fieldMustChangePassword, true); err != nil {
			return nil, err
		}
	} else {
		delete(fields, fieldMustChangePassword)
	}
	return fields, nil
}

func (u *User) fromFields(fields map[string]json.RawMessage) error {
	*u = User{}

	take := func(key string, dst any) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		delete(fields, key)
		if string(raw) == "null" {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("session: user field %q: %w", key, err)
		}
		return nil
	}

	if err := take(fieldID, &u.ID); err != nil {
		return err
	}
	if err := take(fieldEmail, &u.Email); err != nil {
		return err
	}
	if err := take(fieldName, &u.Name); err != nil {
		return err
	}
	if err := take(fieldRole, &u.Role); err != nil {
		return err
	}
	if err := take(fieldMustChangePassword, &u.MustChangePassword); err != nil {
		return err
	}

	if len(fields) > 0 {
		u.Attributes = fields
	}
	return nil
}

// Session is the persisted authentication record.
type Session struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	// Timestamp is the creation time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Complete reports whether s carries both a user and a bearer token.
func (s *Session) Complete() bool {
	return s != nil && s.User != nil && s.Token != ""
}

// Quarantined reports whether the user must change their password before
// reaching any role-gated route.
func (s *Session) Quarantined() bool {
	return s != nil && s.User != nil && s.User.MustChangePassword
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.User = s.User.Clone()
	return &out
}

// Patch is a partial session update. Nil members are left untouched.
type Patch struct {
	User         *User
	Token        *string
	RefreshToken *string
}

func (p Patch) apply(s *Session) {
	if p.User != nil {
		s.User = p.User.Clone()
	}
	if p.Token != nil {
		s.Token = *p.Token
	}
	if p.RefreshToken != nil {
		s.RefreshToken = *p.RefreshToken
	}
}
