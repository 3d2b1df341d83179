package goAuthClient

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goAuthClient/access"
	"github.com/MrEthical07/goAuthClient/idle"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/password"
	"github.com/MrEthical07/goAuthClient/transport"
)

// Config is the full engine configuration. Start from DefaultConfig and
// override what you need; Build validates the result.
type Config struct {
	Session    SessionConfig
	Inactivity InactivityConfig
	Telemetry  TelemetryConfig
	Transport  TransportConfig
	Routes     RoutesConfig
	Password   PasswordConfig
	Challenge  ChallengeConfig
	Security   SecurityConfig
	Metrics    MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls persistence and token expiry checks.
type SessionConfig struct {
	// Namespace prefixes every persisted key.
	Namespace string
	// MaxAge bounds a session's age regardless of token expiry. Zero
	// disables it.
	MaxAge time.Duration
	// TokenLeeway is added to the token's exp claim.
	TokenLeeway time.Duration
	// SigningMethod is "" (claims read without verification), "ed25519"
	// or "hs256".
	SigningMethod string
	// VerificationKey is the hs256 secret, or the standard base64 encoding
	// of the ed25519 public key.
	VerificationKey string
}

/*
====================================
INACTIVITY CONFIG
====================================
*/

// InactivityConfig configures the idle logout monitor.
type InactivityConfig struct {
	Enabled     bool
	Timeout     time.Duration
	WarningLead time.Duration
	// Events lists the activity kinds that count as interaction. Empty
	// means the idle package defaults.
	Events []string
}

/*
====================================
TELEMETRY CONFIG
====================================
*/

// TelemetryConfig configures security event reporting.
type TelemetryConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// SendTimeout bounds each collector POST.
	SendTimeout     time.Duration
	TrackNavigation bool
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig configures the HTTP client for the authentication
// service.
type TransportConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Paths     transport.Paths
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig names the UI locations used for redirects.
type RoutesConfig struct {
	Login          string
	PasswordChange string
	AdminHome      string
	PentesterHome  string
	StudentHome    string
	CorporateHome  string
	// CorporateCrossAccess lets pentester and legacy client accounts render
	// routes restricted to corporate.
	CorporateCrossAccess bool
}

// PasswordConfig is the policy new passwords must satisfy.
type PasswordConfig struct {
	MinLength       int
	MaxLength       int
	RequireUpper    bool
	RequireLower    bool
	RequireDigit    bool
	RequireSymbol   bool
	AllowWhitespace bool
}

// ChallengeConfig controls pending 2FA and password change challenges.
type ChallengeConfig struct {
	TTL time.Duration
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig groups hardening knobs.
type SecurityConfig struct {
	ProductionMode bool
	// NotifyLogout sends the logout call to the service.
	NotifyLogout  bool
	LogoutTimeout time.Duration
	// SubmitPerMinute throttles credential submissions. Zero disables it.
	SubmitPerMinute float64
	SubmitBurst     int
}

// MetricsConfig toggles in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the portal ships with.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	routes := access.DefaultRoutes()
	pw := password.DefaultPolicy()
	return Config{
		Session: SessionConfig{
			Namespace:   "goauth",
			TokenLeeway: 30 * time.Second,
		},
		Inactivity: InactivityConfig{
			Enabled:     true,
			Timeout:     idle.DefaultTimeout,
			WarningLead: idle.DefaultWarningLead,
		},
		Telemetry: TelemetryConfig{
			Enabled:         true,
			BufferSize:      256,
			DropIfFull:      true,
			SendTimeout:     5 * time.Second,
			TrackNavigation: true,
		},
		Transport: TransportConfig{
			Timeout:   15 * time.Second,
			UserAgent: "goAuthClient",
			Paths:     transport.DefaultPaths(),
		},
		Routes: RoutesConfig{
			Login:                routes.Login,
			PasswordChange:       routes.PasswordChange,
			AdminHome:            routes.AdminHome,
			PentesterHome:        routes.PentesterHome,
			StudentHome:          routes.StudentHome,
			CorporateHome:        routes.CorporateHome,
			CorporateCrossAccess: true,
		},
		Password: PasswordConfig{
			MinLength:       pw.MinLength,
			MaxLength:       pw.MaxLength,
			RequireUpper:    pw.RequireUpper,
			RequireLower:    pw.RequireLower,
			RequireDigit:    pw.RequireDigit,
			RequireSymbol:   pw.RequireSymbol,
			AllowWhitespace: pw.AllowWhitespace,
		},
		Challenge: ChallengeConfig{
			TTL: 5 * time.Minute,
		},
		Security: SecurityConfig{
			NotifyLogout:    true,
			LogoutTimeout:   5 * time.Second,
			SubmitPerMinute: 10,
			SubmitBurst:     5,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Inactivity.Events != nil {
		out.Inactivity.Events = append([]string(nil), cfg.Inactivity.Events...)
	}
	return out
}

// Policy returns the guard policy described by the routes section.
func (c RoutesConfig) Policy() access.Policy {
	return access.Policy{
		Routes: access.Routes{
			Login:          c.Login,
			PasswordChange: c.PasswordChange,
			AdminHome:      c.AdminHome,
			PentesterHome:  c.PentesterHome,
			StudentHome:    c.StudentHome,
			CorporateHome:  c.CorporateHome,
		},
		CorporateCrossAccess: c.CorporateCrossAccess,
	}
}

// Policy returns the password policy.
func (c PasswordConfig) Policy() password.Policy {
	return password.Policy{
		MinLength:       c.MinLength,
		MaxLength:       c.MaxLength,
		RequireUpper:    c.RequireUpper,
		RequireLower:    c.RequireLower,
		RequireDigit:    c.RequireDigit,
		RequireSymbol:   c.RequireSymbol,
		AllowWhitespace: c.AllowWhitespace,
	}
}

func (c SessionConfig) inspectorConfig() (jwt.Config, error) {
	cfg := jwt.Config{
		Leeway: c.TokenLeeway,
		Method: jwt.SigningMethod(strings.ToLower(c.SigningMethod)),
	}
	switch cfg.Method {
	case jwt.MethodHS256:
		cfg.Secret = []byte(c.VerificationKey)
	case jwt.MethodEd25519:
		key, err := base64.StdEncoding.DecodeString(c.VerificationKey)
		if err != nil {
			return jwt.Config{}, fmt.Errorf("Session VerificationKey is not valid base64: %w", err)
		}
		cfg.PublicKey = key
	}
	return cfg, nil
}

func (c InactivityConfig) events() []idle.EventKind {
	if len(c.Events) == 0 {
		return idle.DefaultEvents()
	}
	out := make([]idle.EventKind, 0, len(c.Events))
	for _, ev := range c.Events {
		out = append(out, idle.EventKind(strings.ToLower(strings.TrimSpace(ev))))
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first structural problem in c.
func (c *Config) Validate() error {
	// Session
	if strings.TrimSpace(c.Session.Namespace) == "" {
		return errors.New("Session Namespace must not be empty")
	}
	if strings.ContainsAny(c.Session.Namespace, `~/\`) {
		return errors.New("Session Namespace must not contain path separators")
	}
	if c.Session.MaxAge < 0 {
		return errors.New("Session MaxAge must be >= 0")
	}
	jcfg, err := c.Session.inspectorConfig()
	if err != nil {
		return err
	}
	if _, err := jwt.NewInspector(jcfg); err != nil {
		return fmt.Errorf("Session token verification: %w", err)
	}

	// Inactivity
	if c.Inactivity.Enabled && c.Inactivity.Timeout <= 0 {
		return errors.New("Inactivity Timeout must be > 0 when enabled")
	}
	known := make(map[idle.EventKind]struct{})
	for _, ev := range idle.DefaultEvents() {
		known[ev] = struct{}{}
	}
	for _, ev := range c.Inactivity.events() {
		if _, ok := known[ev]; !ok {
			return fmt.Errorf("Inactivity Events contains unknown event %q", ev)
		}
	}

	// Telemetry
	if c.Telemetry.Enabled && c.Telemetry.BufferSize <= 0 {
		return errors.New("Telemetry BufferSize must be > 0 when enabled")
	}
	if c.Telemetry.SendTimeout < 0 {
		return errors.New("Telemetry SendTimeout must be >= 0")
	}

	// Transport
	if c.Transport.Timeout <= 0 {
		return errors.New("Transport Timeout must be > 0")
	}
	if c.Transport.BaseURL != "" {
		u, err := url.Parse(c.Transport.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New("Transport BaseURL must be an absolute http(s) URL")
		}
		if c.Security.ProductionMode && u.Scheme != "https" {
			return errors.New("Transport BaseURL must use https in ProductionMode")
		}
	}

	// Routes
	for name, route := range map[string]string{
		"Login":          c.Routes.Login,
		"PasswordChange": c.Routes.PasswordChange,
		"AdminHome":      c.Routes.AdminHome,
		"PentesterHome":  c.Routes.PentesterHome,
		"StudentHome":    c.Routes.StudentHome,
		"CorporateHome":  c.Routes.CorporateHome,
	} {
		if !strings.HasPrefix(route, "/") {
			return fmt.Errorf("Routes %s must be an absolute path", name)
		}
	}

	// Password
	if err := c.Password.Policy().Validate(); err != nil {
		return err
	}

	// Challenge
	if c.Challenge.TTL <= 0 {
		return errors.New("Challenge TTL must be > 0")
	}

	// Security
	if c.Security.LogoutTimeout < 0 {
		return errors.New("Security LogoutTimeout must be >= 0")
	}
	if c.Security.SubmitPerMinute < 0 {
		return errors.New("Security SubmitPerMinute must be >= 0")
	}
	if c.Security.SubmitPerMinute > 0 && c.Security.SubmitBurst <= 0 {
		return errors.New("Security SubmitBurst must be > 0 when SubmitPerMinute is set")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
