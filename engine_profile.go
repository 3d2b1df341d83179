package goAuthClient

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/transport"
)

// UpdateProfile sends patch to the service and merges the result into the
// held user through UpdateUser. The service's returned user wins over
// patch when present.
func (e *Engine) UpdateProfile(ctx context.Context, patch map[string]any) ProfileResult {
	if err := e.ready(); err != nil {
		return ProfileResult{Err: err, Message: err.Error()}
	}
	e.mu.RLock()
	token := ""
	if e.current != nil {
		token = e.current.Token
	}
	e.mu.RUnlock()
	if token == "" {
		return ProfileResult{Err: ErrNotAuthenticated, Message: "Please sign in again"}
	}
	if len(patch) == 0 {
		return ProfileResult{Success: true, User: e.User()}
	}

	release, err := e.gate.Enter(opProfile)
	if err != nil {
		e.metrics.Inc(MetricOperationInProgress)
		return ProfileResult{Err: errors.Join(ErrOperationInProgress, err), Message: "Please wait for the current request to finish"}
	}
	defer release()

	resp, err := e.api.UpdateProfile(ctx, token, patch)
	if err != nil {
		e.metrics.Inc(MetricProfileUpdateFailure)
		if errors.Is(err, transport.ErrRejected) {
			msg := transport.Message(err)
			if msg == "" {
				msg = "Profile update failed"
			}
			return ProfileResult{Err: errors.Join(ErrServerRejected, err), Message: msg}
		}
		e.logger.Warn("profile update unreachable", "error", err)
		return ProfileResult{Err: errors.Join(ErrTransport, err), Message: flows.MessageUnavailable}
	}
	if !resp.Success {
		e.metrics.Inc(MetricProfileUpdateFailure)
		msg := resp.Message
		if msg == "" {
			msg = "Profile update failed"
		}
		return ProfileResult{Err: ErrServerRejected, Message: msg}
	}

	merge := patch
	if resp.User != nil {
		if merge, err = userFields(resp.User); err != nil {
			return ProfileResult{Err: err, Message: "Profile update could not be applied"}
		}
	}
	if err := e.UpdateUser(ctx, merge); err != nil {
		e.metrics.Inc(MetricProfileUpdateFailure)
		return ProfileResult{Err: err, Message: "Profile saved but not stored locally"}
	}
	e.metrics.Inc(MetricProfileUpdateSuccess)
	return ProfileResult{Success: true, Message: resp.Message, User: e.User()}
}

func userFields(u *session.User) (map[string]any, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
