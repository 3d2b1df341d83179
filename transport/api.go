package transport

import (
	"encoding/json"

	"github.com/MrEthical07/goAuthClient/session"
)

// LoginRequest is the body of the login call.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyTwoFactorRequest is the body of the 2FA verification call.
type VerifyTwoFactorRequest struct {
	TwoFactorToken string `json:"twoFactorToken"`
	Code           string `json:"code"`
}

// ChangePasswordRequest is the body of the forced password change call.
type ChangePasswordRequest struct {
	PasswordChangeToken string `json:"passwordChangeToken"`
	NewPassword         string `json:"newPassword"`
}

// RefreshRequest is the body of the token refresh call.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RegisterRequest is the body of the registration call.
type RegisterRequest struct {
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Role     session.Role `json:"role,omitempty"`
	Company  string       `json:"company,omitempty"`
}

// AuthResponse is the union of every authentication response shape. Which
// members are set depends on the call and on the branch the service chose.
type AuthResponse struct {
	Success             bool          `json:"success"`
	Message             string        `json:"message,omitempty"`
	User                *session.User `json:"user,omitempty"`
	Token               string        `json:"token,omitempty"`
	RefreshToken        string        `json:"refreshToken,omitempty"`
	TwoFactorRequired   bool          `json:"twoFactorRequired,omitempty"`
	TwoFactorToken      string        `json:"twoFactorToken,omitempty"`
	MustChangePassword  bool          `json:"mustChangePassword,omitempty"`
	PasswordChangeToken string        `json:"passwordChangeToken,omitempty"`
}

type authFields AuthResponse

// UnmarshalJSON accepts both the flat shape and the {success, data: {...}}
// envelope some service routes use. Members found in data fill the ones
// left empty at the top level.
func (r *AuthResponse) UnmarshalJSON(b []byte) error {
	var wire struct {
		authFields
		Data *authFields `json:"data"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	*r = AuthResponse(wire.authFields)
	if d := wire.Data; d != nil {
		if r.User == nil {
			r.User = d.User
		}
		if r.Token == "" {
			r.Token = d.Token
		}
		if r.RefreshToken == "" {
			r.RefreshToken = d.RefreshToken
		}
		if !r.TwoFactorRequired {
			r.TwoFactorRequired = d.TwoFactorRequired
		}
		if r.TwoFactorToken == "" {
			r.TwoFactorToken = d.TwoFactorToken
		}
		if !r.MustChangePassword {
			r.MustChangePassword = d.MustChangePassword
		}
		if r.PasswordChangeToken == "" {
			r.PasswordChangeToken = d.PasswordChangeToken
		}
		if r.Message == "" {
			r.Message = d.Message
		}
	}
	return nil
}
