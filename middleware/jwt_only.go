package middleware

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/goAuthClient/access"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/session"
)

// BearerSource builds the subject from the role claim of the request's
// bearer token. A missing, malformed or expired token reads as signed out.
// Tokens are verified when the inspector is configured to.
type BearerSource struct {
	Inspector *jwt.Inspector
}

func (s BearerSource) Subject(r *http.Request) access.Subject {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok || s.Inspector == nil {
		return access.Subject{Phase: access.PhaseUnauthenticated}
	}
	claims, err := s.Inspector.Validate(token)
	if err != nil {
		return access.Subject{Phase: access.PhaseUnauthenticated}
	}
	return access.Subject{Phase: access.PhaseAuthenticated, Role: session.Role(claims.Role)}
}

// RequireBearer guards an API route by the bearer token's role claim. No
// session store is read.
func RequireBearer(inspector *jwt.Inspector, policy access.Policy, roles ...session.Role) func(http.Handler) http.Handler {
	return RequireRoles(BearerSource{Inspector: inspector}, policy, roles...)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
