package goAuthClient

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/internal/stores"
	"github.com/MrEthical07/goAuthClient/password"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/transport"
)

type outcomeMetrics struct {
	success MetricID
	failure MetricID
}

var credentialMetrics = map[string]outcomeMetrics{
	opLogin:           {MetricLoginSuccess, MetricLoginFailure},
	opVerifyTwoFactor: {MetricTwoFactorSuccess, MetricTwoFactorFailure},
	opChangePassword:  {MetricPasswordChangeSuccess, MetricPasswordChangeFailure},
	opRegister:        {MetricRegisterSuccess, MetricRegisterFailure},
}

// Login describes the login operation and its observable behavior.
//
// Login submits credentials and classifies the response in priority order:
// a 2FA challenge, then a forced password change, then an ordinary success
// which establishes the session. Neither challenge branch persists anything.
// Login never panics or returns an error; every failure is a LoginResult
// with Success false.
func (e *Engine) Login(ctx context.Context, email, pass string) LoginResult {
	email = strings.TrimSpace(email)
	if email == "" || pass == "" {
		return rejected(ErrInvalidCredentials, "Email and password are required")
	}
	return e.submitCredential(ctx, opLogin, func(ctx context.Context) (*transport.AuthResponse, error) {
		return e.api.Login(ctx, transport.LoginRequest{Email: email, Password: pass})
	})
}

// VerifyTwoFactor completes a 2FA challenge. Both arguments are required and
// are checked before any network call.
func (e *Engine) VerifyTwoFactor(ctx context.Context, twoFactorToken, code string) LoginResult {
	twoFactorToken = strings.TrimSpace(twoFactorToken)
	code = strings.TrimSpace(code)
	if twoFactorToken == "" || code == "" {
		return rejected(ErrTwoFactorInput, "Verification code is required")
	}
	if res, expired := e.checkChallenge(stores.ChallengeTwoFactor, twoFactorToken); expired {
		return res
	}
	return e.submitCredential(ctx, opVerifyTwoFactor, func(ctx context.Context) (*transport.AuthResponse, error) {
		return e.api.VerifyTwoFactor(ctx, transport.VerifyTwoFactorRequest{
			TwoFactorToken: twoFactorToken,
			Code:           code,
		})
	})
}

// ChangePasswordWithToken completes a forced password change. newPassword
// must satisfy the password policy before it is sent.
func (e *Engine) ChangePasswordWithToken(ctx context.Context, passwordChangeToken, newPassword string) LoginResult {
	passwordChangeToken = strings.TrimSpace(passwordChangeToken)
	if passwordChangeToken == "" || newPassword == "" {
		return rejected(ErrPasswordChangeInput, "A new password is required")
	}
	if res, failed := e.checkPassword(newPassword); failed {
		return res
	}
	if res, expired := e.checkChallenge(stores.ChallengePasswordChange, passwordChangeToken); expired {
		return res
	}
	return e.submitCredential(ctx, opChangePassword, func(ctx context.Context) (*transport.AuthResponse, error) {
		return e.api.ChangePasswordRequired(ctx, transport.ChangePasswordRequest{
			PasswordChangeToken: passwordChangeToken,
			NewPassword:         newPassword,
		})
	})
}

// Register creates an account. A successful registration is classified
// exactly like a login response.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) LoginResult {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return rejected(ErrInvalidCredentials, "Name, email and password are required")
	}
	if req.Role != "" && !req.Role.Known() {
		return rejected(ErrInvalidCredentials, "Unknown account type")
	}
	if res, failed := e.checkPassword(req.Password); failed {
		return res
	}
	return e.submitCredential(ctx, opRegister, func(ctx context.Context) (*transport.AuthResponse, error) {
		return e.api.Register(ctx, req)
	})
}

func (e *Engine) checkPassword(candidate string) (LoginResult, bool) {
	err := e.passwords.Check(candidate)
	if err == nil {
		return LoginResult{}, false
	}
	msg := "Password does not meet the requirements"
	var perr *password.PolicyError
	if errors.As(err, &perr) {
		msg = perr.Error()
	}
	return rejected(errors.Join(ErrPasswordPolicy, err), msg), true
}

// checkChallenge fails fast only when the local record of the challenge has
// expired. A token unknown to this process is passed to the service.
func (e *Engine) checkChallenge(kind stores.ChallengeKind, token string) (LoginResult, bool) {
	if err := e.challenges.Check(kind, token); errors.Is(err, stores.ErrChallengeExpired) {
		return rejected(ErrChallengeExpired, "Verification expired, please sign in again"), true
	}
	return LoginResult{}, false
}

func (e *Engine) submitCredential(ctx context.Context, op string, submit func(context.Context) (*transport.AuthResponse, error)) LoginResult {
	if err := e.ready(); err != nil {
		return rejected(err, "Authentication is not available")
	}
	m := credentialMetrics[op]

	// A double submit bounced by the gate must not spend throttle budget.
	release, err := e.gate.Enter(op)
	if err != nil {
		e.metrics.Inc(MetricOperationInProgress)
		return rejected(errors.Join(ErrOperationInProgress, err), "Please wait for the current request to finish")
	}
	defer release()

	if err := e.throttle.Allow(e.clock.Now()); err != nil {
		e.metrics.Inc(MetricSubmitRateLimited)
		e.logger.Warn("credential submission throttled", "op", op, "retry_after", e.throttle.RetryAfter(e.clock.Now()))
		return rejected(errors.Join(ErrSubmitRateLimited, err), "Too many attempts, please wait and try again")
	}

	res := flows.RunCredential(ctx, flows.CredentialDeps{
		Submit:      submit,
		Establish:   e.flows.Establish,
		Rejected:    ErrServerRejected,
		Unavailable: ErrTransport,
	})

	switch res.Branch {
	case flows.BranchTwoFactor:
		e.challenges.Put(stores.ChallengeTwoFactor, res.Response.TwoFactorToken, res.Response.User)
		e.metrics.Inc(MetricTwoFactorRequired)
		e.logger.Info("two-factor verification required", "op", op)
		return LoginResult{
			Outcome:        OutcomeTwoFactorRequired,
			Message:        res.Message,
			User:           res.Response.User.Clone(),
			TwoFactorToken: res.Response.TwoFactorToken,
		}
	case flows.BranchPasswordChange:
		e.challenges.Put(stores.ChallengePasswordChange, res.Response.PasswordChangeToken, res.Response.User)
		e.metrics.Inc(MetricPasswordChangeRequired)
		e.logger.Info("password change required", "op", op)
		return LoginResult{
			Outcome:             OutcomePasswordChangeRequired,
			Message:             res.Message,
			User:                res.Response.User.Clone(),
			PasswordChangeToken: res.Response.PasswordChangeToken,
		}
	case flows.BranchEstablish:
		e.metrics.Inc(m.success)
		sess := &session.Session{User: res.Response.User, Token: res.Response.Token}
		return LoginResult{
			Success:    true,
			Outcome:    OutcomeAuthenticated,
			Message:    res.Message,
			User:       res.Response.User.Clone(),
			Navigation: e.navigate(e.homeNavigation(sess)),
		}
	default:
		e.metrics.Inc(m.failure)
		if errors.Is(res.Err, ErrTransport) {
			e.logger.Warn("authentication service unreachable", "op", op, "error", res.Err)
		} else {
			e.logger.Info("credential submission rejected", "op", op, "message", res.Message)
		}
		return rejected(res.Err, res.Message)
	}
}

func rejected(err error, msg string) LoginResult {
	return LoginResult{Outcome: OutcomeRejected, Message: msg, Err: err}
}
