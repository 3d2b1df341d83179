package goAuthClient

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/MrEthical07/goAuthClient/access"
	"github.com/MrEthical07/goAuthClient/idle"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/internal/rate"
	"github.com/MrEthical07/goAuthClient/internal/stores"
	"github.com/MrEthical07/goAuthClient/internal/telemetry"
	"github.com/MrEthical07/goAuthClient/password"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/transport"
)

// API is the authentication service as the engine sees it.
// *transport.Client implements it.
type API interface {
	Login(ctx context.Context, req transport.LoginRequest) (*transport.AuthResponse, error)
	VerifyTwoFactor(ctx context.Context, req transport.VerifyTwoFactorRequest) (*transport.AuthResponse, error)
	ChangePasswordRequired(ctx context.Context, req transport.ChangePasswordRequest) (*transport.AuthResponse, error)
	Refresh(ctx context.Context, req transport.RefreshRequest) (*transport.AuthResponse, error)
	Register(ctx context.Context, req transport.RegisterRequest) (*transport.AuthResponse, error)
	UpdateProfile(ctx context.Context, token string, patch map[string]any) (*transport.AuthResponse, error)
	Logout(ctx context.Context, token string) error
}

const (
	opLogin           = "login"
	opVerifyTwoFactor = "verify_two_factor"
	opChangePassword  = "change_password"
	opRegister        = "register"
	opRefresh         = "refresh"
	opProfile         = "profile"
)

// ReasonPasswordRequired is the login query reason used when a stored
// session is discarded because its user must change their password.
const ReasonPasswordRequired = "password_required"

// Engine is the session and access-control state machine. Build one with
// [Builder.Build], call Init once, and share it; all methods are safe for
// concurrent use.
//
// Only the engine writes the session store. Network calls never run under
// its locks.
type Engine struct {
	config     Config
	store      *session.Store
	api        API
	policy     access.Policy
	passwords  password.Policy
	gate       *rate.Gate
	throttle   *rate.Throttle
	challenges *stores.ChallengeStore
	monitor    idle.Slot
	bus        *idle.Bus
	activity   idle.Source
	clock      clock.Clock
	telemetry  *telemetry.Dispatcher
	metrics    *Metrics
	logger     *slog.Logger
	navigator  Navigator
	onWarning  func(idle.Warning)
	flows      flows.Deps
	stopWatch  context.CancelFunc
	watchDone  chan struct{}

	// txMu serializes transitions that write the store, so a logout can
	// never interleave with a refresh or login write.
	txMu sync.Mutex

	mu       sync.RWMutex
	state    State
	current  *session.Session
	epoch    uint64
	deviceID string
	closed   bool

	// loggingOut counts logouts between detach and clearStore. While it is
	// non-zero the store still holds the record being torn down and Sync
	// must not adopt it.
	loggingOut int
}

// Init describes the init operation and its observable behavior.
//
// Init reads the persisted session once. A valid session is restored and the
// inactivity monitor armed. A valid session whose user must change their
// password is cleared and Init asks for the login route with
// reason=password_required. Anything else (absent, partial, corrupt or
// expired) is cleared locally without contacting the service.
// Init does not mutate shared global state; calling it again is a no-op.
func (e *Engine) Init(ctx context.Context) Navigation {
	e.mu.Lock()
	if e.state != StateUninitialized || e.closed {
		e.mu.Unlock()
		return Navigation{}
	}
	e.state = StateInitializing
	e.mu.Unlock()

	e.startWatch()

	e.txMu.Lock()
	defer e.txMu.Unlock()

	sess, err := e.store.Get(ctx)
	if err != nil {
		e.logger.Warn("stored session unreadable", "error", err)
	}
	if err == nil && sess != nil {
		err = e.store.Check(sess)
		if err != nil {
			e.logger.Info("stored session invalid", "error", err)
		}
	}
	if err == nil && sess != nil {
		if sess.Quarantined() {
			e.discardStoredLocked(ctx)
			e.metrics.Inc(MetricSessionQuarantined)
			e.logger.Info("stored session requires password change; cleared")
			return e.navigate(Navigation{
				Kind: NavToLogin,
				Path: e.config.Routes.Login + "?reason=" + ReasonPasswordRequired,
			})
		}
		e.adoptLocked(sess)
		e.metrics.Inc(MetricSessionRestored)
		e.logger.Debug("session restored", "role", sess.User.Role)
		return Navigation{}
	}

	e.discardStoredLocked(ctx)
	return Navigation{}
}

// discardStoredLocked clears the store and leaves the engine unauthenticated.
// Callers hold txMu.
func (e *Engine) discardStoredLocked(ctx context.Context) {
	if err := e.store.Clear(ctx); err != nil {
		e.logger.Warn("session store clear failed", "error", err)
	}
	e.metrics.Inc(MetricSessionDiscarded)
	e.mu.Lock()
	e.current = nil
	e.epoch++
	e.state = StateUnauthenticated
	e.mu.Unlock()
}

// adoptLocked makes sess the in-memory session and arms the monitor.
// Callers hold txMu.
func (e *Engine) adoptLocked(sess *session.Session) {
	e.mu.Lock()
	e.current = sess.Clone()
	e.epoch++
	epoch := e.epoch
	e.state = stateFor(sess)
	e.mu.Unlock()
	e.armMonitor(epoch)
}

func stateFor(sess *session.Session) State {
	if sess.Quarantined() {
		return StateQuarantined
	}
	return StateAuthenticated
}

// EstablishSession describes the establishsession operation and its observable behavior.
//
// EstablishSession persists a session for user, marks the engine
// authenticated (or quarantined when the user must change their password),
// arms the inactivity monitor and emits a login_success event.
// EstablishSession may return ErrInvalidCredentials when user or token is
// missing, or a store error when persisting fails.
func (e *Engine) EstablishSession(ctx context.Context, user *session.User, token, refreshToken string) error {
	if user == nil || token == "" {
		return ErrInvalidCredentials
	}
	if err := e.ready(); err != nil {
		return err
	}

	sess := &session.Session{
		User:         user.Clone(),
		Token:        token,
		RefreshToken: refreshToken,
		Timestamp:    e.clock.Now().UnixMilli(),
	}

	e.txMu.Lock()
	if err := e.store.Set(ctx, sess); err != nil {
		e.txMu.Unlock()
		e.logger.Error("session persist failed", "error", err)
		return err
	}
	e.challenges.Clear()
	e.adoptLocked(sess)
	e.txMu.Unlock()

	e.metrics.Inc(MetricSessionEstablished)
	e.logger.Info("session established", "role", user.Role, "quarantined", sess.Quarantined())
	e.emitAuth(ctx, "login_success", map[string]string{"role": string(user.Role.Normalize())})
	return nil
}

// UpdateUser shallow-merges patch into the held user, persists it and
// recomputes quarantine. It is a no-op without a session and never contacts
// the service.
func (e *Engine) UpdateUser(ctx context.Context, patch map[string]any) error {
	e.txMu.Lock()
	defer e.txMu.Unlock()

	e.mu.RLock()
	current := e.current
	e.mu.RUnlock()
	if current == nil || len(patch) == 0 {
		return nil
	}

	merged, err := current.User.Merge(patch)
	if err != nil {
		return err
	}
	updated, err := e.store.Update(ctx, session.Patch{User: merged})
	if err != nil {
		e.logger.Warn("profile merge not persisted", "error", err)
		return err
	}

	e.mu.Lock()
	e.current = updated
	e.state = stateFor(updated)
	e.mu.Unlock()
	return nil
}

// Sync re-reads the store after another process changed it. A session
// written elsewhere is adopted; a session removed elsewhere ends this one
// locally. Store writes are last-writer-wins. Nothing is adopted while a
// logout is still clearing the store.
func (e *Engine) Sync(ctx context.Context) Navigation {
	if e.ready() != nil {
		return Navigation{}
	}

	e.txMu.Lock()
	e.mu.RLock()
	current := e.current
	state := e.state
	loggingOut := e.loggingOut > 0
	e.mu.RUnlock()
	if state == StateUninitialized || state == StateInitializing {
		e.txMu.Unlock()
		return Navigation{}
	}

	stored, err := e.store.Get(ctx)
	if err != nil {
		e.txMu.Unlock()
		e.logger.Warn("session sync read failed", "error", err)
		return Navigation{}
	}
	if stored != nil && e.store.Check(stored) != nil {
		stored = nil
	}

	switch {
	case stored == nil && current == nil:
		e.txMu.Unlock()
		return Navigation{}
	case stored == nil:
		e.monitor.Disarm()
		e.challenges.Clear()
		e.mu.Lock()
		e.current = nil
		e.epoch++
		e.state = StateUnauthenticated
		e.mu.Unlock()
		e.txMu.Unlock()
		e.logger.Info("session ended by another process")
		return e.navigate(Navigation{Kind: NavToLogin, Path: e.config.Routes.Login})
	case current != nil && current.Token == stored.Token && current.RefreshToken == stored.RefreshToken:
		e.mu.Lock()
		e.current = stored
		e.state = stateFor(stored)
		e.mu.Unlock()
		e.txMu.Unlock()
		return Navigation{}
	case loggingOut:
		e.txMu.Unlock()
		e.logger.Debug("session sync skipped during logout")
		return Navigation{}
	default:
		e.adoptLocked(stored)
		e.txMu.Unlock()
		e.logger.Info("session adopted from another process", "role", stored.User.Role)
		return e.navigate(e.homeNavigation(stored))
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// IsAuthenticated reports whether a session is held and unexpired.
// Quarantined sessions count as authenticated.
func (e *Engine) IsAuthenticated() bool {
	e.mu.RLock()
	current := e.current
	e.mu.RUnlock()
	return current != nil && e.store.Check(current) == nil
}

// User returns a copy of the held user, or nil.
func (e *Engine) User() *session.User {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil
	}
	return e.current.User.Clone()
}

// Session returns a copy of the held session, or nil.
func (e *Engine) Session() *session.Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current.Clone()
}

// HasRole reports whether the viewer is authenticated with exactly role.
// Legacy aliases are not normalized.
func (e *Engine) HasRole(role session.Role) bool {
	user, ok := e.authenticatedUser()
	return ok && user.Role == role
}

// HasAnyRole reports whether the viewer is authenticated with one of roles.
func (e *Engine) HasAnyRole(roles ...session.Role) bool {
	user, ok := e.authenticatedUser()
	if !ok {
		return false
	}
	for _, r := range roles {
		if user.Role == r {
			return true
		}
	}
	return false
}

func (e *Engine) authenticatedUser() (*session.User, bool) {
	e.mu.RLock()
	current := e.current
	e.mu.RUnlock()
	if current == nil || e.store.Check(current) != nil {
		return nil, false
	}
	return current.User, true
}

// Subject snapshots the viewer for the route guard. An expired session
// reads as unauthenticated.
func (e *Engine) Subject() access.Subject {
	e.mu.RLock()
	state := e.state
	current := e.current
	e.mu.RUnlock()

	sub := access.Subject{Phase: state.Phase()}
	if current == nil {
		if sub.Phase != access.PhaseInitializing {
			sub.Phase = access.PhaseUnauthenticated
		}
		return sub
	}
	if e.store.Check(current) != nil {
		sub.Phase = access.PhaseUnauthenticated
		return sub
	}
	sub.Role = current.User.Role
	return sub
}

// Authorize runs the route guard for a route open to allowed.
func (e *Engine) Authorize(allowed ...session.Role) access.Decision {
	d := e.policy.Authorize(e.Subject(), access.NewRoleSet(allowed...))
	e.countDecision(d)
	return d
}

// AuthorizePublic runs the guard for a signed-out-only route such as login.
func (e *Engine) AuthorizePublic() access.Decision {
	d := e.policy.PublicOnly(e.Subject())
	e.countDecision(d)
	return d
}

// Policy returns the guard policy the engine applies.
func (e *Engine) Policy() access.Policy { return e.policy }

func (e *Engine) countDecision(d access.Decision) {
	switch d.Kind {
	case access.DecisionRender:
		e.metrics.Inc(MetricGuardRender)
	case access.DecisionRedirect:
		e.metrics.Inc(MetricGuardRedirect)
	case access.DecisionBlocked:
		e.metrics.Inc(MetricGuardBlocked)
	}
}

// PendingChallenge returns the unexpired 2FA or password change challenge
// issued by the last credential submission.
func (e *Engine) PendingChallenge() (Challenge, bool) {
	c, ok := e.challenges.Peek()
	if !ok {
		return Challenge{}, false
	}
	return Challenge{Kind: c.Kind, Token: c.Token, User: c.User, ExpiresAt: c.ExpiresAt}, true
}

// ConsumeLogoutReason returns and forgets why the previous session ended,
// for display on the next login screen.
func (e *Engine) ConsumeLogoutReason(ctx context.Context) string {
	reason, err := e.store.ConsumeLogoutReason(ctx)
	if err != nil {
		e.logger.Warn("logout reason unreadable", "error", err)
		return ""
	}
	return reason
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// TelemetryDropped reports how many events the dispatcher dropped.
func (e *Engine) TelemetryDropped() uint64 {
	return e.telemetry.Dropped()
}

// Close disarms the monitor, stops the store watcher and flushes telemetry.
// The persisted session is kept. Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	stop, done := e.stopWatch, e.watchDone
	e.mu.Unlock()

	e.monitor.Disarm()
	if stop != nil {
		stop()
		<-done
	}
	e.telemetry.Close()
}

func (e *Engine) ready() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) startWatch() {
	w, ok := e.store.Backend().(session.Watcher)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.mu.Lock()
	e.stopWatch = cancel
	e.watchDone = done
	e.mu.Unlock()
	key := e.store.SessionKey()
	go func() {
		defer close(done)
		err := w.Watch(ctx, func(changed string) {
			if changed == key {
				e.Sync(ctx)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warn("session watcher stopped", "error", err)
		}
	}()
}

func (e *Engine) homeNavigation(sess *session.Session) Navigation {
	if sess.Quarantined() {
		return Navigation{Kind: NavToPasswordChange, Path: e.config.Routes.PasswordChange}
	}
	return Navigation{Kind: NavToRoleHome, Path: e.policy.Routes.Home(sess.User.Role)}
}

func (e *Engine) navigate(n Navigation) Navigation {
	if !n.IsZero() && e.navigator != nil {
		e.navigator(n)
	}
	return n
}
