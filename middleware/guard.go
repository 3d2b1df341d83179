package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/goAuthClient/access"
	"github.com/MrEthical07/goAuthClient/session"
)

// SubjectSource snapshots the viewer of a request.
type SubjectSource interface {
	Subject(r *http.Request) access.Subject
}

// SubjectFunc adapts a function to SubjectSource.
type SubjectFunc func(r *http.Request) access.Subject

func (f SubjectFunc) Subject(r *http.Request) access.Subject { return f(r) }

// Options replaces the default loading and blocked responses.
type Options struct {
	// Loading answers while the session is still being restored.
	Loading http.Handler
	// Blocked answers when the viewer's role may not see the route.
	Blocked http.Handler
}

type decisionContextKey struct{}

// DecisionFromContext returns the guard decision that let the request
// through.
func DecisionFromContext(ctx context.Context) (access.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(access.Decision)
	return d, ok
}

// SubjectFromContext returns the subject the guard evaluated.
func SubjectFromContext(ctx context.Context) (access.Subject, bool) {
	s, ok := ctx.Value(subjectContextKey{}).(access.Subject)
	return s, ok
}

type subjectContextKey struct{}

// RequireRoles guards a route open to roles.
func RequireRoles(src SubjectSource, policy access.Policy, roles ...session.Role) func(http.Handler) http.Handler {
	return RequireRolesWith(src, policy, Options{}, roles...)
}

// RequireRolesWith is RequireRoles with custom responses.
func RequireRolesWith(src SubjectSource, policy access.Policy, opts Options, roles ...session.Role) func(http.Handler) http.Handler {
	allowed := access.NewRoleSet(roles...)
	return guard(src, opts, func(sub access.Subject) access.Decision {
		return policy.Authorize(sub, allowed)
	})
}

// PublicOnly guards a route only signed-out viewers may see.
func PublicOnly(src SubjectSource, policy access.Policy) func(http.Handler) http.Handler {
	return PublicOnlyWith(src, policy, Options{})
}

// PublicOnlyWith is PublicOnly with custom responses.
func PublicOnlyWith(src SubjectSource, policy access.Policy, opts Options) func(http.Handler) http.Handler {
	return guard(src, opts, policy.PublicOnly)
}

func guard(src SubjectSource, opts Options, decide func(access.Subject) access.Decision) func(http.Handler) http.Handler {
	loading := opts.Loading
	if loading == nil {
		loading = http.HandlerFunc(defaultLoading)
	}
	blocked := opts.Blocked
	if blocked == nil {
		blocked = http.HandlerFunc(defaultBlocked)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if src == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sub := src.Subject(r)
			d := decide(sub)
			switch d.Kind {
			case access.DecisionRender:
				ctx := context.WithValue(r.Context(), decisionContextKey{}, d)
				ctx = context.WithValue(ctx, subjectContextKey{}, sub)
				next.ServeHTTP(w, r.WithContext(ctx))
			case access.DecisionLoading:
				loading.ServeHTTP(w, r)
			case access.DecisionBlocked:
				blocked.ServeHTTP(w, r)
			case access.DecisionRedirect:
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}

func defaultLoading(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Retry-After", "1")
	http.Error(w, "session loading", http.StatusServiceUnavailable)
}

func defaultBlocked(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "this area is not available for your account type", http.StatusForbidden)
}
