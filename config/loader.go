package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/transport"
)

// DefaultEnvPrefix is the environment variable prefix.
const DefaultEnvPrefix = "GOAUTHCLIENT_"

// Loader collects configuration sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	dotEnv    string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile reads a YAML file. The file must exist.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithDotEnv reads a .env file before the environment. A missing file is
// ignored.
func WithDotEnv(path string) Option {
	return func(l *Loader) {
		l.dotEnv = path
	}
}

// NewLoader returns a Loader with the given options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load is NewLoader(opts...).Load().
func Load(opts ...Option) (goAuthClient.Config, error) {
	return NewLoader(opts...).Load()
}

// Load applies every source over DefaultConfig.
func (l *Loader) Load() (goAuthClient.Config, error) {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return goAuthClient.Config{}, fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	if l.dotEnv != "" {
		if err := godotenv.Load(l.dotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return goAuthClient.Config{}, fmt.Errorf("load %s: %w", l.dotEnv, err)
		}
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return goAuthClient.Config{}, fmt.Errorf("load env: %w", err)
	}

	fc := fromConfig(goAuthClient.DefaultConfig())
	if err := l.k.Unmarshal("", &fc); err != nil {
		return goAuthClient.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return fc.toConfig(), nil
}

// Keys lists every key loaded so far.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

// envKey maps GOAUTHCLIENT_SESSION_TOKEN_LEEWAY to session.token_leeway.
// Only the first underscore separates the section.
func (l *Loader) envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	section, rest, ok := strings.Cut(s, "_")
	if !ok {
		return section
	}
	if section == "transport" && strings.HasPrefix(rest, "paths_") {
		return "transport.paths." + strings.TrimPrefix(rest, "paths_")
	}
	return section + "." + rest
}

/*
====================================
FILE SHAPE
====================================
*/

type fileConfig struct {
	Session    sessionSection    `koanf:"session"`
	Inactivity inactivitySection `koanf:"inactivity"`
	Telemetry  telemetrySection  `koanf:"telemetry"`
	Transport  transportSection  `koanf:"transport"`
	Routes     routesSection     `koanf:"routes"`
	Password   passwordSection   `koanf:"password"`
	Challenge  challengeSection  `koanf:"challenge"`
	Security   securitySection   `koanf:"security"`
	Metrics    metricsSection    `koanf:"metrics"`
}

type sessionSection struct {
	Namespace       string        `koanf:"namespace"`
	MaxAge          time.Duration `koanf:"max_age"`
	TokenLeeway     time.Duration `koanf:"token_leeway"`
	SigningMethod   string        `koanf:"signing_method"`
	VerificationKey string        `koanf:"verification_key"`
}

type inactivitySection struct {
	Enabled     bool          `koanf:"enabled"`
	Timeout     time.Duration `koanf:"timeout"`
	WarningLead time.Duration `koanf:"warning_lead"`
	Events      []string      `koanf:"events"`
}

type telemetrySection struct {
	Enabled         bool          `koanf:"enabled"`
	BufferSize      int           `koanf:"buffer_size"`
	DropIfFull      bool          `koanf:"drop_if_full"`
	SendTimeout     time.Duration `koanf:"send_timeout"`
	TrackNavigation bool          `koanf:"track_navigation"`
}

type transportSection struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent"`
	Paths     pathsSection  `koanf:"paths"`
}

type pathsSection struct {
	Login                  string `koanf:"login"`
	VerifyTwoFactor        string `koanf:"verify_two_factor"`
	ChangePasswordRequired string `koanf:"change_password_required"`
	Logout                 string `koanf:"logout"`
	Refresh                string `koanf:"refresh"`
	Register               string `koanf:"register"`
	Profile                string `koanf:"profile"`
	Events                 string `koanf:"events"`
}

type routesSection struct {
	Login                string `koanf:"login"`
	PasswordChange       string `koanf:"password_change"`
	AdminHome            string `koanf:"admin_home"`
	PentesterHome        string `koanf:"pentester_home"`
	StudentHome          string `koanf:"student_home"`
	CorporateHome        string `koanf:"corporate_home"`
	CorporateCrossAccess bool   `koanf:"corporate_cross_access"`
}

type passwordSection struct {
	MinLength       int  `koanf:"min_length"`
	MaxLength       int  `koanf:"max_length"`
	RequireUpper    bool `koanf:"require_upper"`
	RequireLower    bool `koanf:"require_lower"`
	RequireDigit    bool `koanf:"require_digit"`
	RequireSymbol   bool `koanf:"require_symbol"`
	AllowWhitespace bool `koanf:"allow_whitespace"`
}

type challengeSection struct {
	TTL time.Duration `koanf:"ttl"`
}

type securitySection struct {
	ProductionMode  bool          `koanf:"production_mode"`
	NotifyLogout    bool          `koanf:"notify_logout"`
	LogoutTimeout   time.Duration `koanf:"logout_timeout"`
	SubmitPerMinute float64       `koanf:"submit_per_minute"`
	SubmitBurst     int           `koanf:"submit_burst"`
}

type metricsSection struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

func fromConfig(c goAuthClient.Config) fileConfig {
	return fileConfig{
		Session: sessionSection{
			Namespace:       c.Session.Namespace,
			MaxAge:          c.Session.MaxAge,
			TokenLeeway:     c.Session.TokenLeeway,
			SigningMethod:   c.Session.SigningMethod,
			VerificationKey: c.Session.VerificationKey,
		},
		Inactivity: inactivitySection{
			Enabled:     c.Inactivity.Enabled,
			Timeout:     c.Inactivity.Timeout,
			WarningLead: c.Inactivity.WarningLead,
			Events:      append([]string(nil), c.Inactivity.Events...),
		},
		Telemetry: telemetrySection{
			Enabled:         c.Telemetry.Enabled,
			BufferSize:      c.Telemetry.BufferSize,
			DropIfFull:      c.Telemetry.DropIfFull,
			SendTimeout:     c.Telemetry.SendTimeout,
			TrackNavigation: c.Telemetry.TrackNavigation,
		},
		Transport: transportSection{
			BaseURL:   c.Transport.BaseURL,
			Timeout:   c.Transport.Timeout,
			UserAgent: c.Transport.UserAgent,
			Paths:     pathsSection(c.Transport.Paths),
		},
		Routes:   routesSection(c.Routes),
		Password: passwordSection(c.Password),
		Challenge: challengeSection{
			TTL: c.Challenge.TTL,
		},
		Security: securitySection(c.Security),
		Metrics:  metricsSection(c.Metrics),
	}
}

func (f fileConfig) toConfig() goAuthClient.Config {
	return goAuthClient.Config{
		Session: goAuthClient.SessionConfig{
			Namespace:       f.Session.Namespace,
			MaxAge:          f.Session.MaxAge,
			TokenLeeway:     f.Session.TokenLeeway,
			SigningMethod:   f.Session.SigningMethod,
			VerificationKey: f.Session.VerificationKey,
		},
		Inactivity: goAuthClient.InactivityConfig{
			Enabled:     f.Inactivity.Enabled,
			Timeout:     f.Inactivity.Timeout,
			WarningLead: f.Inactivity.WarningLead,
			Events:      trimEvents(f.Inactivity.Events),
		},
		Telemetry: goAuthClient.TelemetryConfig{
			Enabled:         f.Telemetry.Enabled,
			BufferSize:      f.Telemetry.BufferSize,
			DropIfFull:      f.Telemetry.DropIfFull,
			SendTimeout:     f.Telemetry.SendTimeout,
			TrackNavigation: f.Telemetry.TrackNavigation,
		},
		Transport: goAuthClient.TransportConfig{
			BaseURL:   f.Transport.BaseURL,
			Timeout:   f.Transport.Timeout,
			UserAgent: f.Transport.UserAgent,
			Paths:     transport.Paths(f.Transport.Paths),
		},
		Routes:   goAuthClient.RoutesConfig(f.Routes),
		Password: goAuthClient.PasswordConfig(f.Password),
		Challenge: goAuthClient.ChallengeConfig{
			TTL: f.Challenge.TTL,
		},
		Security: goAuthClient.SecurityConfig(f.Security),
		Metrics:  goAuthClient.MetricsConfig(f.Metrics),
	}
}

func trimEvents(events []string) []string {
	if len(events) == 0 {
		return nil
	}
	out := make([]string, 0, len(events))
	for _, ev := range events {
		if ev = strings.TrimSpace(ev); ev != "" {
			out = append(out, ev)
		}
	}
	return out
}
