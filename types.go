package goAuthClient

import (
	"errors"
	"time"

	"github.com/MrEthical07/goAuthClient/access"
	"github.com/MrEthical07/goAuthClient/internal/stores"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/transport"
)

// State is the engine's position in the session lifecycle.
type State uint8

const (
	StateUninitialized State = iota
	StateInitializing
	StateUnauthenticated
	StateAuthenticated
	// StateQuarantined is an authenticated session whose user must change
	// their password before reaching role-gated routes.
	StateQuarantined
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateQuarantined:
		return "quarantined"
	default:
		return "uninitialized"
	}
}

// Phase maps s onto the guard's view. An engine that has not finished Init
// reads as initializing so the guard never redirects while indeterminate.
func (s State) Phase() access.Phase {
	switch s {
	case StateUnauthenticated:
		return access.PhaseUnauthenticated
	case StateAuthenticated:
		return access.PhaseAuthenticated
	case StateQuarantined:
		return access.PhaseQuarantined
	default:
		return access.PhaseInitializing
	}
}

// NavKind is the kind of navigation the host UI should perform.
type NavKind uint8

const (
	NavNone NavKind = iota
	NavToLogin
	NavToRoleHome
	NavToPasswordChange
)

func (k NavKind) String() string {
	switch k {
	case NavToLogin:
		return "to_login"
	case NavToRoleHome:
		return "to_role_home"
	case NavToPasswordChange:
		return "to_password_change"
	default:
		return "none"
	}
}

// Navigation is a redirect the engine asks the host to perform. The engine
// never navigates on its own.
type Navigation struct {
	Kind NavKind
	Path string
}

// IsZero reports whether n asks for no navigation.
func (n Navigation) IsZero() bool { return n.Kind == NavNone }

// Navigator receives every non-empty Navigation the engine produces.
type Navigator func(Navigation)

// LoginOutcome tells the caller which step comes next after a credential
// submission.
type LoginOutcome uint8

const (
	OutcomeRejected LoginOutcome = iota
	OutcomeAuthenticated
	OutcomeTwoFactorRequired
	OutcomePasswordChangeRequired
)

func (o LoginOutcome) String() string {
	switch o {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeTwoFactorRequired:
		return "two_factor_required"
	case OutcomePasswordChangeRequired:
		return "password_change_required"
	default:
		return "rejected"
	}
}

// LoginResult is returned by every credential flow. Failures are values:
// Success is false, Message is suitable for display and Err supports
// errors.Is against the package sentinels.
//
// Success is true only for OutcomeAuthenticated. The 2FA and password
// change branches carry the token needed for the next step and the partial
// user the service returned.
type LoginResult struct {
	Success             bool
	Outcome             LoginOutcome
	Message             string
	User                *session.User
	TwoFactorToken      string
	PasswordChangeToken string
	Navigation          Navigation
	Err                 error
}

// AsError folds the result into a single error: nil on success, the branch
// markers for the challenge outcomes and Err otherwise.
func (r LoginResult) AsError() error {
	switch r.Outcome {
	case OutcomeAuthenticated:
		return nil
	case OutcomeTwoFactorRequired:
		return ErrTwoFactorRequired
	case OutcomePasswordChangeRequired:
		return ErrPasswordChangeRequired
	}
	if r.Err != nil {
		return r.Err
	}
	if r.Message != "" {
		return errors.Join(ErrServerRejected, errors.New(r.Message))
	}
	return ErrServerRejected
}

// LogoutResult reports a logout. Logout always completes; the error fields
// are informational.
type LogoutResult struct {
	Navigation Navigation
	// Held is false when no session was held, making the call a no-op
	// apart from clearing the store.
	Held      bool
	Notified  bool
	NotifyErr error
	StoreErr  error
}

// RefreshResult reports a token refresh. A failed refresh (other than a
// missing refresh token) has already logged the user out when it returns.
type RefreshResult struct {
	Success    bool
	Message    string
	Navigation Navigation
	Err        error
}

// ProfileResult reports a server-side profile update.
type ProfileResult struct {
	Success bool
	Message string
	User    *session.User
	Err     error
}

// RegisterRequest is the registration payload.
type RegisterRequest = transport.RegisterRequest

// ChallengeKind names a pending multi-step login challenge.
type ChallengeKind = stores.ChallengeKind

const (
	ChallengeTwoFactor      = stores.ChallengeTwoFactor
	ChallengePasswordChange = stores.ChallengePasswordChange
)

// Challenge is a pending 2FA or password change step.
type Challenge struct {
	Kind      ChallengeKind
	Token     string
	User      *session.User
	ExpiresAt time.Time
}
