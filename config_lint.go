package goAuthClient

import (
	"net/url"
	"strings"
	"time"
)

// LintSeverity ranks a lint finding.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintWarn:
		return "warn"
	case LintHigh:
		return "high"
	default:
		return "info"
	}
}

// LintWarning is a configuration that is valid but probably unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// AtLeast returns the warnings at or above min.
func (ws LintWarnings) AtLeast(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint inspects a configuration that already passes Validate and reports
// settings that weaken the session lifecycle.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if !c.Inactivity.Enabled {
		add("inactivity_disabled", LintHigh, "sessions never end on inactivity")
	} else {
		if c.Inactivity.Timeout > time.Hour {
			add("inactivity_timeout_long", LintWarn, "inactivity timeout exceeds one hour")
		}
		if c.Inactivity.WarningLead >= c.Inactivity.Timeout {
			add("warning_lead_ignored", LintInfo, "warning lead is not shorter than the timeout; no warning will fire")
		}
	}

	if c.Session.SigningMethod == "" {
		add("token_signature_unverified", LintInfo, "token expiry is read without signature verification")
	}
	if c.Session.MaxAge == 0 {
		add("session_max_age_unbounded", LintInfo, "session age is bounded only by token expiry")
	}

	if c.Transport.BaseURL != "" {
		if u, err := url.Parse(c.Transport.BaseURL); err == nil && u.Scheme == "http" && !loopbackHost(u.Hostname()) {
			add("insecure_base_url", LintHigh, "credentials are sent over plain http")
		}
	}

	if c.Security.SubmitPerMinute == 0 {
		add("submit_throttle_disabled", LintWarn, "credential submissions are not throttled")
	}
	if !c.Security.NotifyLogout {
		add("logout_not_notified", LintWarn, "server-side sessions outlive local logout")
	}

	if c.Challenge.TTL > 15*time.Minute {
		add("challenge_ttl_long", LintWarn, "pending challenges are kept longer than 15 minutes")
	}
	if c.Routes.CorporateCrossAccess {
		add("corporate_cross_access", LintInfo, "pentester and client accounts may render corporate routes")
	}
	if c.Password.MinLength < 10 {
		add("password_min_length_low", LintInfo, "password policy accepts fewer than 10 characters")
	}
	if c.Telemetry.Enabled && !c.Telemetry.DropIfFull {
		add("telemetry_blocking", LintWarn, "a slow collector can stall auth flows")
	}
	return ws
}

func loopbackHost(host string) bool {
	return host == "localhost" || host == "::1" || strings.HasPrefix(host, "127.")
}
