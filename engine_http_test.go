package goAuthClient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type portalServer struct {
	mu        sync.Mutex
	events    []map[string]any
	loggedOut []string
}

func (p *portalServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "Password1!" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":           true,
			"twoFactorRequired": true,
			"twoFactorToken":    "tok123",
			"user":              map[string]any{"email": body["email"]},
		})
	})
	mux.HandleFunc("POST /auth/2fa/verify", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["twoFactorToken"] != "tok123" || body["code"] != "424242" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid verification code"})
			return
		}
		// Some routes wrap the payload in a data envelope.
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"token":        "access-1",
				"refreshToken": "rt1",
				"user": map[string]any{
					"id":      "u-7",
					"email":   "a@b.com",
					"name":    "Ada",
					"role":    "client",
					"company": "Acme",
				},
			},
		})
	})
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Refresh token revoked"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.loggedOut = append(p.loggedOut, r.Header.Get("Authorization"))
		p.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /security/events", func(w http.ResponseWriter, r *http.Request) {
		var ev map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		p.mu.Lock()
		p.events = append(p.events, ev)
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (p *portalServer) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		action, _ := ev["action"].(string)
		out = append(out, action)
	}
	return out
}

func TestEngineAgainstHTTPService(t *testing.T) {
	portal := &portalServer{}
	srv := httptest.NewServer(portal.handler(t))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Transport.BaseURL = srv.URL
	cfg.Metrics.EnableLatencyHistograms = true
	engine, err := New().WithConfig(cfg).Build()
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	engine.Init(ctx)

	bad := engine.Login(ctx, "a@b.com", "wrong")
	assert.Equal(t, "Invalid email or password", bad.Message)
	assert.ErrorIs(t, bad.Err, ErrServerRejected)

	challenge := engine.Login(ctx, "a@b.com", "Password1!")
	require.Equal(t, OutcomeTwoFactorRequired, challenge.Outcome)
	assert.Equal(t, "tok123", challenge.TwoFactorToken)
	assert.False(t, engine.IsAuthenticated())

	res := engine.VerifyTwoFactor(ctx, challenge.TwoFactorToken, "424242")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "/dashboard", res.Navigation.Path, "client lands on the corporate dashboard")
	assert.True(t, engine.HasRole("client"))

	var company string
	ok, err := engine.User().Attribute("company", &company)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Acme", company)

	refresh := engine.RefreshToken(ctx)
	assert.False(t, refresh.Success)
	assert.Equal(t, "Refresh token revoked", refresh.Message)
	assert.False(t, engine.IsAuthenticated())

	portal.mu.Lock()
	assert.Equal(t, []string{"Bearer access-1"}, portal.loggedOut)
	portal.mu.Unlock()

	require.Eventually(t, func() bool {
		return len(portal.actions()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"login_success", "logout_manual"}, portal.actions())

	snap := engine.MetricsSnapshot()
	var observed uint64
	for _, n := range snap.Histograms[MetricRequestLatency] {
		observed += n
	}
	assert.GreaterOrEqual(t, observed, uint64(5))
}
