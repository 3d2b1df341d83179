package access

import (
	"strings"

	"github.com/MrEthical07/goAuthClient/session"
)

// RoleSet is a bitmask of roles allowed on a route.
type RoleSet uint8

var roleBits = map[session.Role]RoleSet{
	session.RoleStudent:   1 << 0,
	session.RolePentester: 1 << 1,
	session.RoleAdmin:     1 << 2,
	session.RoleCorporate: 1 << 3,
	session.RoleClient:    1 << 4,
}

var roleOrder = []session.Role{
	session.RoleStudent,
	session.RolePentester,
	session.RoleAdmin,
	session.RoleCorporate,
	session.RoleClient,
}

// NewRoleSet builds a set from roles. Unknown roles are ignored.
func NewRoleSet(roles ...session.Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.With(r)
	}
	return s
}

// ParseRoleSet builds a set from a comma-separated list such as
// "admin,corporate".
func ParseRoleSet(list string) RoleSet {
	var s RoleSet
	for _, part := range strings.Split(list, ",") {
		s = s.With(session.Role(strings.ToLower(strings.TrimSpace(part))))
	}
	return s
}

// With returns s plus r.
func (s RoleSet) With(r session.Role) RoleSet {
	return s | roleBits[r]
}

// Has reports whether r is in s.
func (s RoleSet) Has(r session.Role) bool {
	bit, ok := roleBits[r]
	return ok && s&bit != 0
}

// Empty reports whether s allows no role.
func (s RoleSet) Empty() bool { return s == 0 }

// Roles lists the members of s in a stable order.
func (s RoleSet) Roles() []session.Role {
	out := make([]session.Role, 0, len(roleOrder))
	for _, r := range roleOrder {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	roles := s.Roles()
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
