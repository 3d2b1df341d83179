package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/urfave/cli/v2"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/access"
)

var errNotSignedIn = errors.New("not signed in")

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in, completing 2FA or a forced password change when asked",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
			&cli.StringFlag{Name: "password", Usage: "prompted when empty", EnvVars: []string{"GOAUTHCLIENT_PASSWORD"}},
			&cli.StringFlag{Name: "code", Usage: "2FA code"},
			&cli.StringFlag{Name: "totp-secret", Usage: "base32 TOTP secret used to generate the 2FA code", EnvVars: []string{"GOAUTHCLIENT_TOTP_SECRET"}},
			&cli.StringFlag{Name: "new-password", Usage: "used when the service requires a password change"},
		},
		Action: func(c *cli.Context) error {
			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			p := newPrompter(c)

			pass := c.String("password")
			if pass == "" {
				if pass, err = p.secret("Password: "); err != nil {
					return err
				}
			}

			res := engine.Login(c.Context, c.String("email"), pass)
			for res.Outcome == goAuthClient.OutcomeTwoFactorRequired || res.Outcome == goAuthClient.OutcomePasswordChangeRequired {
				switch res.Outcome {
				case goAuthClient.OutcomeTwoFactorRequired:
					code, err := twoFactorCode(c, p)
					if err != nil {
						return err
					}
					res = engine.VerifyTwoFactor(c.Context, res.TwoFactorToken, code)
				case goAuthClient.OutcomePasswordChangeRequired:
					next := c.String("new-password")
					if next == "" {
						if next, err = p.secret("New password: "); err != nil {
							return err
						}
					}
					res = engine.ChangePasswordWithToken(c.Context, res.PasswordChangeToken, next)
				}
				// Flags are single-use; a repeated challenge falls back to prompting.
				_ = c.Set("code", "")
				_ = c.Set("totp-secret", "")
				_ = c.Set("new-password", "")
			}

			if !res.Success {
				return fmt.Errorf("login failed: %s", res.Message)
			}
			fmt.Fprintf(c.App.Writer, "signed in as %s (%s)\n", res.User.Email, res.User.Role)
			if !res.Navigation.IsZero() {
				fmt.Fprintf(c.App.Writer, "home: %s\n", res.Navigation.Path)
			}
			return nil
		},
	}
}

func twoFactorCode(c *cli.Context, p *prompter) (string, error) {
	if code := c.String("code"); code != "" {
		return code, nil
	}
	if secret := c.String("totp-secret"); secret != "" {
		code, err := totp.GenerateCode(secret, time.Now())
		if err != nil {
			return "", fmt.Errorf("generate 2FA code: %w", err)
		}
		return code, nil
	}
	return p.line("Verification code: ")
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "end the session",
		Action: func(c *cli.Context) error {
			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			res := engine.Logout(c.Context, false)
			if !res.Held {
				fmt.Fprintln(c.App.Writer, "no session")
				return nil
			}
			if res.NotifyErr != nil {
				fmt.Fprintf(c.App.ErrWriter, "warning: service not notified: %v\n", res.NotifyErr)
			}
			fmt.Fprintln(c.App.Writer, "signed out")
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "print the signed-in user",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the full user record"},
		},
		Action: func(c *cli.Context) error {
			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			user := engine.User()
			if user == nil || !engine.IsAuthenticated() {
				return errNotSignedIn
			}
			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(user)
			}
			fmt.Fprintf(c.App.Writer, "%s <%s> role=%s state=%s\n", user.Name, user.Email, user.Role, engine.State())
			return nil
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "exchange the refresh token for a new access token",
		Action: func(c *cli.Context) error {
			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			if !engine.IsAuthenticated() {
				return errNotSignedIn
			}
			res := engine.RefreshToken(c.Context)
			if !res.Success {
				return fmt.Errorf("refresh failed: %s", res.Message)
			}
			fmt.Fprintln(c.App.Writer, "token refreshed")
			return nil
		},
	}
}

func authorizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "authorize",
		Usage: "show the guard decision for a role-restricted view",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "roles", Usage: "comma separated allowed roles; empty checks a public-only view"},
		},
		Action: func(c *cli.Context) error {
			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			var d access.Decision
			if list := strings.TrimSpace(c.String("roles")); list != "" {
				d = engine.Authorize(access.ParseRoleSet(list).Roles()...)
			} else {
				d = engine.AuthorizePublic()
			}
			if d.Location != "" {
				fmt.Fprintf(c.App.Writer, "%s %s\n", d.Kind, d.Location)
				return nil
			}
			fmt.Fprintln(c.App.Writer, d.Kind)
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "print the effective configuration and its lint warnings",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.Session.VerificationKey != "" {
				cfg.Session.VerificationKey = "***"
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(c.App.Writer, "invalid: %v\n", err)
			}
			for _, w := range cfg.Lint() {
				fmt.Fprintf(c.App.Writer, "%s %s: %s\n", w.Severity, w.Code, w.Message)
			}
			return nil
		},
	}
}
