package goAuthClient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/transport"
)

// fakeAPI answers with the configured functions; unset calls fail as
// unreachable.
type fakeAPI struct {
	login          func(transport.LoginRequest) (*transport.AuthResponse, error)
	verify         func(transport.VerifyTwoFactorRequest) (*transport.AuthResponse, error)
	changePassword func(transport.ChangePasswordRequest) (*transport.AuthResponse, error)
	refresh        func(context.Context, transport.RefreshRequest) (*transport.AuthResponse, error)
	register       func(transport.RegisterRequest) (*transport.AuthResponse, error)
	profile        func(string, map[string]any) (*transport.AuthResponse, error)
	logout         func(context.Context, string) error

	mu           sync.Mutex
	logoutTokens []string
	loginCalls   atomic.Int32
	verifyCalls  atomic.Int32
	refreshCalls atomic.Int32
}

var errUnreachable = errors.Join(transport.ErrUnavailable, errors.New("dial tcp: connection refused"))

func (f *fakeAPI) Login(_ context.Context, req transport.LoginRequest) (*transport.AuthResponse, error) {
	f.loginCalls.Add(1)
	if f.login == nil {
		return nil, errUnreachable
	}
	return f.login(req)
}

func (f *fakeAPI) VerifyTwoFactor(_ context.Context, req transport.VerifyTwoFactorRequest) (*transport.AuthResponse, error) {
	f.verifyCalls.Add(1)
	if f.verify == nil {
		return nil, errUnreachable
	}
	return f.verify(req)
}

func (f *fakeAPI) ChangePasswordRequired(_ context.Context, req transport.ChangePasswordRequest) (*transport.AuthResponse, error) {
	if f.changePassword == nil {
		return nil, errUnreachable
	}
	return f.changePassword(req)
}

func (f *fakeAPI) Refresh(ctx context.Context, req transport.RefreshRequest) (*transport.AuthResponse, error) {
	f.refreshCalls.Add(1)
	if f.refresh == nil {
		return nil, errUnreachable
	}
	return f.refresh(ctx, req)
}

func (f *fakeAPI) Register(_ context.Context, req transport.RegisterRequest) (*transport.AuthResponse, error) {
	if f.register == nil {
		return nil, errUnreachable
	}
	return f.register(req)
}

func (f *fakeAPI) UpdateProfile(_ context.Context, token string, patch map[string]any) (*transport.AuthResponse, error) {
	if f.profile == nil {
		return nil, errUnreachable
	}
	return f.profile(token, patch)
}

func (f *fakeAPI) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	f.logoutTokens = append(f.logoutTokens, token)
	f.mu.Unlock()
	if f.logout == nil {
		return nil
	}
	return f.logout(ctx, token)
}

func (f *fakeAPI) notifiedTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.logoutTokens...)
}

type testEngine struct {
	*Engine
	api     *fakeAPI
	backend *session.MemoryBackend
	store   *session.Store
	clock   *clock.Mock
	sink    *ChannelSink

	navMu sync.Mutex
	navs  []Navigation
}

func (te *testEngine) navigations() []Navigation {
	te.navMu.Lock()
	defer te.navMu.Unlock()
	return append([]Navigation(nil), te.navs...)
}

type engineOption func(*Config, *Builder)

func withConfig(fn func(*Config)) engineOption {
	return func(c *Config, _ *Builder) { fn(c) }
}

// newTestEngine builds an engine on a memory backend, a mock clock and a
// channel telemetry sink. It is not initialized.
func newTestEngine(t *testing.T, api *fakeAPI, opts ...engineOption) *testEngine {
	t.Helper()
	if api == nil {
		api = &fakeAPI{}
	}
	te := &testEngine{
		api:     api,
		backend: session.NewMemoryBackend(),
		clock:   clock.NewMock(),
		sink:    NewChannelSink(64),
	}
	te.clock.Set(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	cfg := DefaultConfig()
	cfg.Security.SubmitPerMinute = 0
	cfg.Security.SubmitBurst = 0
	b := New()
	for _, opt := range opts {
		opt(&cfg, b)
	}
	engine, err := b.
		WithConfig(cfg).
		WithAPI(api).
		WithBackend(te.backend).
		WithClock(te.clock).
		WithTelemetrySink(te.sink).
		WithNavigator(func(n Navigation) {
			te.navMu.Lock()
			te.navs = append(te.navs, n)
			te.navMu.Unlock()
		}).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	te.Engine = engine
	te.store = session.NewStore(te.backend, session.StoreOptions{Namespace: cfg.Session.Namespace})
	return te
}

// persist writes sess straight into the backend, as a previous run would have.
func (te *testEngine) persist(t *testing.T, sess *session.Session) {
	t.Helper()
	require.NoError(t, te.store.Set(context.Background(), sess))
}

func (te *testEngine) stored(t *testing.T) *session.Session {
	t.Helper()
	sess, err := te.store.Get(context.Background())
	require.NoError(t, err)
	return sess
}

// events drains the telemetry actions emitted so far, waiting up to wait
// for at least want of them.
func (te *testEngine) actions(t *testing.T, want int, wait time.Duration) []string {
	t.Helper()
	var out []string
	deadline := time.After(wait)
	for {
		select {
		case ev := <-te.sink.Events():
			out = append(out, ev.Action)
			continue
		default:
		}
		if len(out) >= want {
			return out
		}
		select {
		case ev := <-te.sink.Events():
			out = append(out, ev.Action)
		case <-deadline:
			return out
		}
	}
}

func testUser(role session.Role) *session.User {
	return &session.User{
		ID:    "u-42",
		Email: "a@b.com",
		Name:  "Ada",
		Role:  role,
	}
}

func testSession(role session.Role) *session.Session {
	return &session.Session{
		User:         testUser(role),
		Token:        "tok-1",
		RefreshToken: "rt1",
	}
}

func successResponse(user *session.User, token, refreshToken string) *transport.AuthResponse {
	return &transport.AuthResponse{
		Success:      true,
		Message:      "Login successful",
		User:         user,
		Token:        token,
		RefreshToken: refreshToken,
	}
}
