package goAuthClient

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/transport"
)

// RefreshToken describes the refreshtoken operation and its observable behavior.
//
// RefreshToken exchanges the held refresh token and merges the new token
// pair into the session; the user is left untouched. Without a refresh token
// it returns ErrRefreshTokenMissing and changes nothing. Any service failure
// is terminal: the engine logs out before RefreshToken returns.
// A result that arrives after a logout or a newer login is discarded.
func (e *Engine) RefreshToken(ctx context.Context) RefreshResult {
	if err := e.ready(); err != nil {
		return RefreshResult{Err: err, Message: err.Error()}
	}

	e.mu.RLock()
	epoch := e.epoch
	refreshToken := ""
	if e.current != nil {
		refreshToken = e.current.RefreshToken
	}
	e.mu.RUnlock()

	release, err := e.gate.Enter(opRefresh)
	if err != nil {
		e.metrics.Inc(MetricOperationInProgress)
		return RefreshResult{Err: errors.Join(ErrOperationInProgress, err), Message: "Refresh already in progress"}
	}
	defer release()

	res := flows.RunRefresh(ctx, refreshToken, e.flows.Refresh)
	if errors.Is(res.Err, ErrRefreshTokenMissing) {
		return RefreshResult{Err: res.Err, Message: res.Message}
	}

	if res.Err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		if !e.epochIs(epoch) {
			e.logger.Debug("stale refresh failure discarded")
			return RefreshResult{Err: res.Err, Message: res.Message}
		}
		e.logger.Warn("token refresh failed; ending session", "error", res.Err)
		out := e.logout(ctx, false, map[string]string{"reason": ReasonRefreshFailed})
		return RefreshResult{Err: res.Err, Message: res.Message, Navigation: out.Navigation}
	}

	if err := e.applyRefresh(ctx, epoch, res.Token, res.RefreshToken); err != nil {
		return RefreshResult{Err: err, Message: err.Error()}
	}
	e.metrics.Inc(MetricRefreshSuccess)
	e.logger.Debug("token refreshed")
	return RefreshResult{Success: true, Message: res.Message}
}

func (e *Engine) applyRefresh(ctx context.Context, epoch uint64, token, refreshToken string) error {
	e.txMu.Lock()
	defer e.txMu.Unlock()

	if !e.epochIs(epoch) {
		e.logger.Debug("stale refresh result discarded")
		return ErrNotAuthenticated
	}
	updated, err := e.store.Update(ctx, session.Patch{Token: &token, RefreshToken: &refreshToken})
	if err != nil {
		e.logger.Error("refreshed token not persisted", "error", err)
		return err
	}

	e.mu.Lock()
	e.current = updated
	e.state = stateFor(updated)
	e.mu.Unlock()
	return nil
}

func (e *Engine) epochIs(epoch uint64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.epoch == epoch && e.current != nil
}

func (e *Engine) callRefresh(ctx context.Context, refreshToken string) (*transport.AuthResponse, error) {
	return e.api.Refresh(ctx, transport.RefreshRequest{RefreshToken: refreshToken})
}
