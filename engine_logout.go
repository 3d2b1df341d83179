package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/internal/flows"
)

// ReasonRefreshFailed is the telemetry reason attached when a failed refresh
// ends the session.
const ReasonRefreshFailed = "refresh_failed"

// Logout describes the logout operation and its observable behavior.
//
// Logout disarms the inactivity monitor, drops the in-memory session, tells
// the service (best effort, bounded by Security.LogoutTimeout), clears the
// store and, when auto is true, records the inactivity reason for the next
// login screen. It always asks for the login route.
// Logout does not fail: calling it twice, or without a session, leaves the
// engine unauthenticated and emits no telemetry for the empty call.
func (e *Engine) Logout(ctx context.Context, auto bool) LogoutResult {
	return e.logout(ctx, auto, nil)
}

func (e *Engine) logout(ctx context.Context, auto bool, metadata map[string]string) LogoutResult {
	res := flows.RunLogout(ctx, auto, metadata, e.flows.Logout)

	if res.Held {
		if auto {
			e.metrics.Inc(MetricLogoutInactivity)
		} else {
			e.metrics.Inc(MetricLogout)
		}
		e.logger.Info("session ended", "auto", auto, "notified", res.Notified)
	}
	if res.NotifyErr != nil {
		e.metrics.Inc(MetricLogoutNotifyFailure)
	}

	return LogoutResult{
		Navigation: e.navigate(Navigation{Kind: NavToLogin, Path: e.config.Routes.Login}),
		Held:       res.Held,
		Notified:   res.Notified,
		NotifyErr:  res.NotifyErr,
		StoreErr:   res.StoreErr,
	}
}

// detach drops the in-memory session and bumps the epoch so in-flight
// refreshes are discarded. The matching clearStore call ends the logout.
func (e *Engine) detach() (string, bool) {
	e.txMu.Lock()
	defer e.txMu.Unlock()

	e.monitor.Disarm()
	e.challenges.Clear()

	e.mu.Lock()
	defer e.mu.Unlock()
	held := e.current != nil
	token := ""
	if held {
		token = e.current.Token
	}
	e.current = nil
	e.epoch++
	e.state = StateUnauthenticated
	e.loggingOut++
	return token, held
}

func (e *Engine) clearStore(ctx context.Context) error {
	e.txMu.Lock()
	defer e.txMu.Unlock()

	// A session established after detach belongs to a newer login.
	e.mu.Lock()
	held := e.current != nil
	if e.loggingOut > 0 {
		e.loggingOut--
	}
	e.mu.Unlock()
	if held {
		return nil
	}
	return e.store.Clear(ctx)
}
