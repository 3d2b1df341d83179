package access

import (
	"github.com/MrEthical07/goAuthClient/session"
)

// Phase is the authentication phase a Subject is in.
type Phase uint8

const (
	PhaseInitializing Phase = iota
	PhaseUnauthenticated
	PhaseAuthenticated
	PhaseQuarantined
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseQuarantined:
		return "quarantined"
	default:
		return "unknown"
	}
}

// Subject is a snapshot of the viewer taken at navigation time.
type Subject struct {
	Phase Phase
	// Role is the raw role from the profile. Empty while the profile is
	// still loading.
	Role session.Role
}

// DecisionKind is what the route should do.
type DecisionKind uint8

const (
	DecisionRender DecisionKind = iota
	DecisionLoading
	DecisionBlocked
	DecisionRedirect
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionRender:
		return "render"
	case DecisionLoading:
		return "loading"
	case DecisionBlocked:
		return "blocked"
	case DecisionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict. Location is set for redirects.
type Decision struct {
	Kind     DecisionKind
	Location string
}

func render() Decision            { return Decision{Kind: DecisionRender} }
func loading() Decision           { return Decision{Kind: DecisionLoading} }
func blocked() Decision           { return Decision{Kind: DecisionBlocked} }
func redirect(to string) Decision { return Decision{Kind: DecisionRedirect, Location: to} }

// Routes names the locations the guard redirects to.
type Routes struct {
	Login          string
	PasswordChange string
	AdminHome      string
	PentesterHome  string
	StudentHome    string
	CorporateHome  string
}

// DefaultRoutes returns the portal's standard locations.
func DefaultRoutes() Routes {
	return Routes{
		Login:          "/login",
		PasswordChange: "/change-password",
		AdminHome:      "/admin",
		PentesterHome:  "/pentester",
		StudentHome:    "/student/dashboard",
		CorporateHome:  "/dashboard",
	}
}

// Home returns the landing route for role after normalization. Unknown
// roles land on the corporate dashboard.
func (r Routes) Home(role session.Role) string {
	switch role.Normalize() {
	case session.RoleAdmin:
		return r.AdminHome
	case session.RolePentester:
		return r.PentesterHome
	case session.RoleStudent:
		return r.StudentHome
	default:
		return r.CorporateHome
	}
}

// Policy evaluates route access.
type Policy struct {
	Routes Routes
	// CorporateCrossAccess lets pentester and legacy client accounts render
	// routes that allow corporate.
	CorporateCrossAccess bool
}

// DefaultPolicy returns DefaultRoutes with corporate cross access enabled.
func DefaultPolicy() Policy {
	return Policy{Routes: DefaultRoutes(), CorporateCrossAccess: true}
}

// Authorize decides a role-gated route.
func (p Policy) Authorize(sub Subject, allowed RoleSet) Decision {
	switch sub.Phase {
	case PhaseInitializing:
		return loading()
	case PhaseUnauthenticated:
		return redirect(p.Routes.Login)
	case PhaseQuarantined:
		return redirect(p.Routes.PasswordChange)
	case PhaseAuthenticated:
	default:
		return redirect(p.Routes.Login)
	}

	role := sub.Role.Normalize()
	if role == "" {
		return loading()
	}
	if allowed.Has(role) || allowed.Has(sub.Role) {
		return render()
	}

	switch {
	case p.CorporateCrossAccess && allowed.Has(session.RoleCorporate) &&
		(sub.Role == session.RolePentester || sub.Role == session.RoleClient):
		return render()
	case role == session.RoleStudent:
		return blocked()
	case role == session.RoleAdmin:
		return redirect(p.Routes.AdminHome)
	case role == session.RolePentester:
		return redirect(p.Routes.PentesterHome)
	default:
		return redirect(p.Routes.Home(role))
	}
}

// PublicOnly decides a route that only signed-out viewers may see, such as
// the login page.
func (p Policy) PublicOnly(sub Subject) Decision {
	switch sub.Phase {
	case PhaseInitializing:
		return loading()
	case PhaseAuthenticated:
		if sub.Role == "" {
			return loading()
		}
		return redirect(p.Routes.Home(sub.Role))
	case PhaseQuarantined:
		return redirect(p.Routes.PasswordChange)
	default:
		return render()
	}
}
