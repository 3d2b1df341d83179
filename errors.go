package goAuthClient

import "errors"

// Capitalised messages are shown to end users verbatim.
var (
	// ErrInvalidCredentials is returned when a session is established without a user or token.
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	// ErrTwoFactorRequired marks the 2FA branch of a login. It is only produced by LoginResult.AsError.
	ErrTwoFactorRequired = errors.New("two-factor verification required")
	// ErrPasswordChangeRequired marks the forced password change branch. It is only produced by LoginResult.AsError.
	ErrPasswordChangeRequired = errors.New("password change required")
	// ErrRefreshTokenMissing is returned by RefreshToken when no refresh token is held.
	ErrRefreshTokenMissing = errors.New("Refresh token is required")
	// ErrRefreshFailed is returned when the service refuses a refresh. The session is gone afterwards.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrServerRejected wraps a rejection reported by the authentication service.
	ErrServerRejected = errors.New("request rejected by server")
	// ErrTransport wraps network and decoding failures.
	ErrTransport = errors.New("authentication service unavailable")
	// ErrTwoFactorInput is returned when the 2FA token or code is empty.
	ErrTwoFactorInput = errors.New("two-factor token and code are required")
	// ErrPasswordChangeInput is returned when the password change token or new password is empty.
	ErrPasswordChangeInput = errors.New("password change token and new password are required")
	// ErrPasswordPolicy is returned when a new password fails the configured policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrOperationInProgress is returned for a second concurrent submission of the same operation.
	ErrOperationInProgress = errors.New("operation already in progress")
	// ErrSubmitRateLimited is returned when credential submissions exceed the configured rate.
	ErrSubmitRateLimited = errors.New("too many attempts")
	// ErrEngineNotReady is returned by operations called after Close.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrChallengeExpired is returned when the pending 2FA or password change challenge has expired.
	ErrChallengeExpired = errors.New("challenge expired")
)
