package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAuthClient/transport"
)

// RefreshDeps captures token refresh dependencies.
type RefreshDeps struct {
	Call func(ctx context.Context, refreshToken string) (*transport.AuthResponse, error)
	// Missing is returned when no refresh token is held.
	Missing error
	// Failed wraps every service-side failure.
	Failed error
}

// RefreshResult carries the rotated token pair or the failure.
type RefreshResult struct {
	Token        string
	RefreshToken string
	Message      string
	Err          error
}

// RunRefresh exchanges refreshToken. A response without a new refresh token
// keeps the current one.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Err: deps.Missing, Message: errMessage(deps.Missing)}
	}

	resp, err := deps.Call(ctx, refreshToken)
	if err != nil {
		msg := transport.Message(err)
		if msg == "" {
			msg = errMessage(deps.Failed)
		}
		return RefreshResult{Err: errors.Join(deps.Failed, err), Message: msg}
	}
	if !resp.Success || resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = errMessage(deps.Failed)
		}
		return RefreshResult{Err: deps.Failed, Message: msg}
	}

	next := resp.RefreshToken
	if next == "" {
		next = refreshToken
	}
	return RefreshResult{Token: resp.Token, RefreshToken: next, Message: resp.Message}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
