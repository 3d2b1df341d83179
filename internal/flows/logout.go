package flows

import (
	"context"
	"time"
)

// ReasonInactivity is recorded when the inactivity monitor ended the session.
const ReasonInactivity = "inactivity"

// Telemetry actions emitted by logout.
const (
	ActionLogoutManual     = "logout_manual"
	ActionLogoutInactivity = "logout_inactivity"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	// Disarm stops the inactivity monitor.
	Disarm func()
	// Detach clears in-memory auth state and reports the token that was
	// held, if any.
	Detach func() (token string, held bool)
	// Notify tells the service. Nil skips notification.
	Notify        func(ctx context.Context, token string) error
	NotifyTimeout time.Duration
	ClearStore    func(ctx context.Context) error
	RecordReason  func(ctx context.Context, reason string) error
	Emit          func(ctx context.Context, action string, metadata map[string]string)
	Warn          func(msg string, args ...any)
}

// LogoutResult reports what logout did. Errors are informational; logout
// itself always completes.
type LogoutResult struct {
	Held      bool
	Notified  bool
	NotifyErr error
	StoreErr  error
}

// RunLogout tears the session down. The monitor is disarmed before anything
// else so no timeout fires mid-logout, and server notification failures
// never block local cleanup.
func RunLogout(ctx context.Context, auto bool, metadata map[string]string, deps LogoutDeps) LogoutResult {
	if deps.Disarm != nil {
		deps.Disarm()
	}
	token, held := deps.Detach()
	res := LogoutResult{Held: held}

	if held && token != "" && deps.Notify != nil {
		nctx := ctx
		if deps.NotifyTimeout > 0 {
			var cancel context.CancelFunc
			nctx, cancel = context.WithTimeout(ctx, deps.NotifyTimeout)
			defer cancel()
		}
		if err := deps.Notify(nctx, token); err != nil {
			res.NotifyErr = err
			warn(deps, "logout notification failed", "error", err)
		} else {
			res.Notified = true
		}
	}

	if err := deps.ClearStore(ctx); err != nil {
		res.StoreErr = err
		warn(deps, "session store clear failed", "error", err)
	}

	if auto && deps.RecordReason != nil {
		if err := deps.RecordReason(ctx, ReasonInactivity); err != nil {
			warn(deps, "logout reason not recorded", "error", err)
		}
	}

	if held && deps.Emit != nil {
		action := ActionLogoutManual
		if auto {
			action = ActionLogoutInactivity
		}
		deps.Emit(ctx, action, metadata)
	}
	return res
}

func warn(deps LogoutDeps, msg string, args ...any) {
	if deps.Warn != nil {
		deps.Warn(msg, args...)
	}
}
