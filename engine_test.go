package goAuthClient

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goAuthClient/access"
	"github.com/MrEthical07/goAuthClient/session"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"sub": "u-42",
		"exp": exp.Unix(),
	}).SignedString([]byte("unverified-in-tests-unverified-in-tests"))
	require.NoError(t, err)
	return token
}

func TestInitWithoutSession(t *testing.T) {
	te := newTestEngine(t, nil)
	assert.Equal(t, StateUninitialized, te.State())
	assert.Equal(t, access.DecisionLoading, te.Authorize(session.RoleAdmin).Kind)

	nav := te.Init(context.Background())
	assert.True(t, nav.IsZero())
	assert.Equal(t, StateUnauthenticated, te.State())
	assert.False(t, te.IsAuthenticated())
	assert.False(t, te.InactivityArmed())
}

func TestInitRestoresValidSession(t *testing.T) {
	te := newTestEngine(t, nil)
	te.persist(t, testSession(session.RolePentester))

	nav := te.Init(context.Background())
	assert.True(t, nav.IsZero())
	assert.Equal(t, StateAuthenticated, te.State())
	assert.True(t, te.IsAuthenticated())
	assert.True(t, te.InactivityArmed())
	assert.Equal(t, "Ada", te.User().Name)
	assert.Equal(t, uint64(1), te.MetricsSnapshot().Counters[MetricSessionRestored])
}

func TestInitIsOnce(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	te.Init(ctx)

	te.persist(t, testSession(session.RoleAdmin))
	assert.True(t, te.Init(ctx).IsZero())
	assert.Equal(t, StateUnauthenticated, te.State())
}

func TestInitQuarantinedSessionIsCleared(t *testing.T) {
	te := newTestEngine(t, nil)
	sess := testSession(session.RoleCorporate)
	sess.User.MustChangePassword = true
	te.persist(t, sess)

	nav := te.Init(context.Background())
	assert.Equal(t, Navigation{Kind: NavToLogin, Path: "/login?reason=password_required"}, nav)
	assert.Equal(t, StateUnauthenticated, te.State())
	assert.Nil(t, te.stored(t))
	assert.Contains(t, te.navigations(), nav)

	d := te.Authorize(session.RoleCorporate)
	assert.Equal(t, access.DecisionRedirect, d.Kind)
	assert.Equal(t, "/login", d.Location)
}

func TestInitDiscardsExpiredSession(t *testing.T) {
	te := newTestEngine(t, nil)
	sess := testSession(session.RoleStudent)
	sess.Token = signedToken(t, te.clock.Now().Add(-time.Hour))
	te.persist(t, sess)

	te.Init(context.Background())
	assert.Equal(t, StateUnauthenticated, te.State())
	assert.Nil(t, te.stored(t))
	assert.Empty(t, te.api.notifiedTokens(), "a cold start never contacts the service")
}

func TestInitDiscardsCorruptRecord(t *testing.T) {
	te := newTestEngine(t, nil)
	require.NoError(t, te.backend.Save(context.Background(), te.store.SessionKey(), []byte("{not json")))

	te.Init(context.Background())
	assert.Equal(t, StateUnauthenticated, te.State())
	_, err := te.backend.Load(context.Background(), te.store.SessionKey())
	assert.ErrorIs(t, err, session.ErrKeyNotFound)
}

func TestInitDiscardsPartialRecord(t *testing.T) {
	te := newTestEngine(t, nil)
	require.NoError(t, te.backend.Save(context.Background(), te.store.SessionKey(), []byte(`{"token":"tok-1"}`)))

	te.Init(context.Background())
	assert.Equal(t, StateUnauthenticated, te.State())
	assert.False(t, te.IsAuthenticated())
}

func TestInitVerifiesTokenSignature(t *testing.T) {
	const key = "portal-verification-key-0123456789"
	verified := func(t *testing.T) *testEngine {
		return newTestEngine(t, nil, withConfig(func(c *Config) {
			c.Session.SigningMethod = "hs256"
			c.Session.VerificationKey = key
		}))
	}
	ctx := context.Background()

	genuine, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{"sub": "u-42"}).SignedString([]byte(key))
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		ok    bool
	}{
		{"signed with the configured key", genuine, true},
		{"signed with another key", signedToken(t, time.Now().Add(time.Hour)), false},
		{"opaque", "tok-1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			te := verified(t)
			sess := testSession(session.RoleAdmin)
			sess.Token = tc.token
			te.persist(t, sess)

			te.Init(ctx)
			assert.Equal(t, tc.ok, te.IsAuthenticated())
			if tc.ok {
				assert.Equal(t, StateAuthenticated, te.State())
				assert.Equal(t, access.DecisionRender, te.Authorize(session.RoleAdmin).Kind)
				return
			}
			assert.Equal(t, StateUnauthenticated, te.State())
			assert.Nil(t, te.stored(t))
			assert.Equal(t, access.DecisionRedirect, te.Authorize(session.RoleAdmin).Kind)
		})
	}
}

func TestIsAuthenticatedTracksTokenExpiry(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	te.Init(ctx)

	token := signedToken(t, te.clock.Now().Add(10*time.Minute))
	require.NoError(t, te.EstablishSession(ctx, testUser(session.RoleAdmin), token, ""))
	assert.True(t, te.IsAuthenticated())
	assert.True(t, te.HasRole(session.RoleAdmin))

	te.clock.Add(11 * time.Minute)
	assert.False(t, te.IsAuthenticated())
	assert.False(t, te.HasRole(session.RoleAdmin))
	assert.Equal(t, access.PhaseUnauthenticated, te.Subject().Phase)
}

func TestHasRoleComparesRawRoles(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	te.Init(ctx)

	assert.False(t, te.HasRole(session.RoleClient))
	assert.False(t, te.HasAnyRole(session.RoleClient, session.RoleCorporate))

	require.NoError(t, te.EstablishSession(ctx, testUser(session.RoleClient), "tok-1", ""))
	assert.True(t, te.HasRole(session.RoleClient))
	assert.False(t, te.HasRole(session.RoleCorporate))
	assert.True(t, te.HasAnyRole(session.RoleAdmin, session.RoleClient))
	assert.False(t, te.HasAnyRole())
}

func TestAuthorizeRoleFallbacks(t *testing.T) {
	tests := []struct {
		role     session.Role
		wantKind access.DecisionKind
		wantLoc  string
	}{
		{session.RoleCorporate, access.DecisionRender, ""},
		{session.RolePentester, access.DecisionRender, ""},
		{session.RoleClient, access.DecisionRender, ""},
		{session.RoleStudent, access.DecisionBlocked, ""},
		{session.RoleAdmin, access.DecisionRedirect, "/admin"},
	}
	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			te := newTestEngine(t, nil)
			ctx := context.Background()
			te.Init(ctx)
			require.NoError(t, te.EstablishSession(ctx, testUser(tc.role), "tok-1", ""))

			d := te.Authorize(session.RoleCorporate)
			assert.Equal(t, tc.wantKind, d.Kind)
			assert.Equal(t, tc.wantLoc, d.Location)
		})
	}
}

func TestAuthorizeWithoutCrossAccess(t *testing.T) {
	te := newTestEngine(t, nil, withConfig(func(c *Config) {
		c.Routes.CorporateCrossAccess = false
	}))
	ctx := context.Background()
	te.Init(ctx)
	require.NoError(t, te.EstablishSession(ctx, testUser(session.RolePentester), "tok-1", ""))

	d := te.Authorize(session.RoleCorporate)
	assert.Equal(t, access.DecisionRedirect, d.Kind)
	assert.Equal(t, "/pentester", d.Location)
}

func TestAuthorizePublic(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	assert.Equal(t, access.DecisionLoading, te.AuthorizePublic().Kind)

	te.Init(ctx)
	assert.Equal(t, access.DecisionRender, te.AuthorizePublic().Kind)

	require.NoError(t, te.EstablishSession(ctx, testUser(session.RoleStudent), "tok-1", ""))
	d := te.AuthorizePublic()
	assert.Equal(t, access.DecisionRedirect, d.Kind)
	assert.Equal(t, "/student/dashboard", d.Location)

	snap := te.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[MetricGuardRender])
	assert.Equal(t, uint64(1), snap.Counters[MetricGuardRedirect])
}

func TestUpdateUserRoundTrip(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	te.Init(ctx)

	user := testUser(session.RoleCorporate)
	user.Attributes = map[string]json.RawMessage{"company": json.RawMessage(`"Acme"`)}
	require.NoError(t, te.EstablishSession(ctx, user, "tok-1", "rt1"))

	require.NoError(t, te.UpdateUser(ctx, map[string]any{"name": "New Name"}))

	got := te.Session()
	require.NotNil(t, got)
	assert.Equal(t, "New Name", got.User.Name)
	assert.Equal(t, "u-42", got.User.ID)
	assert.Equal(t, "a@b.com", got.User.Email)
	assert.Equal(t, session.RoleCorporate, got.User.Role)
	var company string
	ok, err := got.User.Attribute("company", &company)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Acme", company)
	assert.Equal(t, "tok-1", got.Token)

	stored := te.stored(t)
	assert.Equal(t, "New Name", stored.User.Name)
	assert.Equal(t, "rt1", stored.RefreshToken)
}

func TestUpdateUserRecomputesQuarantine(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	te.Init(ctx)

	user := testUser(session.RoleAdmin)
	user.MustChangePassword = true
	require.NoError(t, te.EstablishSession(ctx, user, "tok-1", ""))
	require.Equal(t, StateQuarantined, te.State())

	require.NoError(t, te.UpdateUser(ctx, map[string]any{"mustChangePassword": false}))
	assert.Equal(t, StateAuthenticated, te.State())
}

func TestUpdateUserWithoutSessionIsNoop(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	te.Init(ctx)

	require.NoError(t, te.UpdateUser(ctx, map[string]any{"name": "Ghost"}))
	assert.Nil(t, te.User())
	assert.Nil(t, te.stored(t))
}

func TestSyncAdoptsAndEndsExternalSessions(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	te.Init(ctx)

	te.persist(t, testSession(session.RoleAdmin))
	nav := te.Sync(ctx)
	assert.Equal(t, Navigation{Kind: NavToRoleHome, Path: "/admin"}, nav)
	assert.True(t, te.IsAuthenticated())
	assert.True(t, te.InactivityArmed())

	assert.True(t, te.Sync(ctx).IsZero(), "unchanged store is a no-op")

	require.NoError(t, te.store.Clear(ctx))
	nav = te.Sync(ctx)
	assert.Equal(t, NavToLogin, nav.Kind)
	assert.False(t, te.IsAuthenticated())
	assert.False(t, te.InactivityArmed())
}

func TestConsumeLogoutReasonIsOneShot(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	te.Init(ctx)
	require.NoError(t, te.EstablishSession(ctx, testUser(session.RoleAdmin), "tok-1", ""))

	te.Logout(ctx, true)
	assert.Equal(t, "inactivity", te.ConsumeLogoutReason(ctx))
	assert.Equal(t, "", te.ConsumeLogoutReason(ctx))
}

func TestDeviceIDIsStable(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	id := te.DeviceID(ctx)
	require.NotEmpty(t, id)
	assert.Equal(t, id, te.DeviceID(ctx))

	other, err := te.store.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, other)
}

func TestClosedEngineRejectsWork(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	te.Init(ctx)
	te.Close()
	te.Close()

	res := te.Login(ctx, "a@b.com", "Password1!")
	assert.ErrorIs(t, res.Err, ErrEngineNotReady)
	assert.ErrorIs(t, te.EstablishSession(ctx, testUser(session.RoleAdmin), "tok", ""), ErrEngineNotReady)
}

func TestBuildRequiresTransport(t *testing.T) {
	_, err := New().Build()
	require.Error(t, err)

	b := New().WithConfig(DefaultConfig())
	b.config.Transport.BaseURL = "https://portal.example/api"
	_, err = b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	require.Error(t, err, "a builder is single use")
}
