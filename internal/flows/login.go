package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/transport"
)

// Branch is the path a credential response takes.
type Branch int

const (
	BranchRejected Branch = iota
	BranchTwoFactor
	BranchPasswordChange
	BranchEstablish
)

func (b Branch) String() string {
	switch b {
	case BranchTwoFactor:
		return "two_factor"
	case BranchPasswordChange:
		return "password_change"
	case BranchEstablish:
		return "establish"
	default:
		return "rejected"
	}
}

const (
	// MessageUnavailable is shown when the service cannot be reached.
	MessageUnavailable = "Unable to reach the authentication service"
	// MessageRejected is the fallback when the service gives no reason.
	MessageRejected = "Login failed"
)

// Classify picks the branch for resp. The checks run in priority order:
// a 2FA challenge wins over a forced password change, which wins over an
// ordinary success.
func Classify(resp *transport.AuthResponse) Branch {
	if resp == nil {
		return BranchRejected
	}
	if resp.TwoFactorRequired {
		return BranchTwoFactor
	}
	if resp.MustChangePassword && resp.PasswordChangeToken != "" {
		return BranchPasswordChange
	}
	if resp.Success && resp.Token != "" && resp.User != nil {
		return BranchEstablish
	}
	return BranchRejected
}

// EstablishFunc persists a session and marks the engine authenticated.
type EstablishFunc func(ctx context.Context, user *session.User, token, refreshToken string) error

// CredentialDeps captures one credential-submitting flow.
type CredentialDeps struct {
	// Submit performs the service call.
	Submit func(ctx context.Context) (*transport.AuthResponse, error)
	// Establish runs for BranchEstablish.
	Establish EstablishFunc
	// Rejected wraps server and classification rejections.
	Rejected error
	// Unavailable wraps transport failures.
	Unavailable error
}

// CredentialResult is the classified outcome of a credential flow.
type CredentialResult struct {
	Branch   Branch
	Response *transport.AuthResponse
	Message  string
	Err      error
}

// RunCredential submits, classifies and, on the establish branch, creates
// the session.
func RunCredential(ctx context.Context, deps CredentialDeps) CredentialResult {
	resp, err := deps.Submit(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrRejected) {
			msg := transport.Message(err)
			if msg == "" {
				msg = MessageRejected
			}
			return CredentialResult{Branch: BranchRejected, Message: msg, Err: errors.Join(deps.Rejected, err)}
		}
		return CredentialResult{Branch: BranchRejected, Message: MessageUnavailable, Err: errors.Join(deps.Unavailable, err)}
	}

	branch := Classify(resp)
	result := CredentialResult{Branch: branch, Response: resp, Message: resp.Message}
	switch branch {
	case BranchTwoFactor, BranchPasswordChange:
		return result
	case BranchEstablish:
		if err := deps.Establish(ctx, resp.User, resp.Token, resp.RefreshToken); err != nil {
			result.Branch = BranchRejected
			result.Err = err
			if result.Message == "" {
				result.Message = err.Error()
			}
		}
		return result
	default:
		if result.Message == "" {
			result.Message = MessageRejected
		}
		result.Err = deps.Rejected
		return result
	}
}
