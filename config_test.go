package goAuthClient

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "blank namespace invalid",
			mutate: func(c *Config) {
				c.Session.Namespace = "  "
			},
			wantValid: false,
		},
		{
			name: "namespace with separator invalid",
			mutate: func(c *Config) {
				c.Session.Namespace = "portal/session"
			},
			wantValid: false,
		},
		{
			name: "leeway over five minutes invalid",
			mutate: func(c *Config) {
				c.Session.TokenLeeway = 6 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "hs256 short secret invalid",
			mutate: func(c *Config) {
				c.Session.SigningMethod = "hs256"
				c.Session.VerificationKey = "short"
			},
			wantValid: false,
		},
		{
			name: "hs256 long secret valid",
			mutate: func(c *Config) {
				c.Session.SigningMethod = "HS256"
				c.Session.VerificationKey = strings.Repeat("k", 32)
			},
			wantValid: true,
		},
		{
			name: "ed25519 key valid",
			mutate: func(c *Config) {
				c.Session.SigningMethod = "ed25519"
				c.Session.VerificationKey = base64.StdEncoding.EncodeToString(make([]byte, 32))
			},
			wantValid: true,
		},
		{
			name: "ed25519 key not base64 invalid",
			mutate: func(c *Config) {
				c.Session.SigningMethod = "ed25519"
				c.Session.VerificationKey = "%%%"
			},
			wantValid: false,
		},
		{
			name: "unknown signing method invalid",
			mutate: func(c *Config) {
				c.Session.SigningMethod = "rs256"
			},
			wantValid: false,
		},
		{
			name: "inactivity zero timeout invalid",
			mutate: func(c *Config) {
				c.Inactivity.Timeout = 0
			},
			wantValid: false,
		},
		{
			name: "inactivity disabled zero timeout valid",
			mutate: func(c *Config) {
				c.Inactivity.Enabled = false
				c.Inactivity.Timeout = 0
			},
			wantValid: true,
		},
		{
			name: "unknown inactivity event invalid",
			mutate: func(c *Config) {
				c.Inactivity.Events = []string{"keydown", "blink"}
			},
			wantValid: false,
		},
		{
			name: "inactivity events case folded",
			mutate: func(c *Config) {
				c.Inactivity.Events = []string{" KeyDown ", "click"}
			},
			wantValid: true,
		},
		{
			name: "telemetry zero buffer invalid",
			mutate: func(c *Config) {
				c.Telemetry.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "relative base url invalid",
			mutate: func(c *Config) {
				c.Transport.BaseURL = "/api"
			},
			wantValid: false,
		},
		{
			name: "plain http rejected in production",
			mutate: func(c *Config) {
				c.Transport.BaseURL = "http://portal.example"
				c.Security.ProductionMode = true
			},
			wantValid: false,
		},
		{
			name: "https accepted in production",
			mutate: func(c *Config) {
				c.Transport.BaseURL = "https://portal.example/api"
				c.Security.ProductionMode = true
			},
			wantValid: true,
		},
		{
			name: "relative route invalid",
			mutate: func(c *Config) {
				c.Routes.AdminHome = "admin"
			},
			wantValid: false,
		},
		{
			name: "password min above max invalid",
			mutate: func(c *Config) {
				c.Password.MinLength = 20
				c.Password.MaxLength = 10
			},
			wantValid: false,
		},
		{
			name: "challenge ttl zero invalid",
			mutate: func(c *Config) {
				c.Challenge.TTL = 0
			},
			wantValid: false,
		},
		{
			name: "throttle without burst invalid",
			mutate: func(c *Config) {
				c.Security.SubmitBurst = 0
			},
			wantValid: false,
		},
		{
			name: "throttle disabled without burst valid",
			mutate: func(c *Config) {
				c.Security.SubmitPerMinute = 0
				c.Security.SubmitBurst = 0
			},
			wantValid: true,
		},
		{
			name: "histograms without metrics invalid",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigDetachesSlices(t *testing.T) {
	cfg := defaultConfig()
	cfg.Inactivity.Events = []string{"keydown"}

	cloned := cloneConfig(cfg)
	cloned.Inactivity.Events[0] = "click"

	if cfg.Inactivity.Events[0] != "keydown" {
		t.Fatal("clone shares the events slice")
	}
}

func TestRoutesConfigPolicy(t *testing.T) {
	cfg := defaultConfig()
	cfg.Routes.AdminHome = "/ops"
	cfg.Routes.CorporateCrossAccess = false

	p := cfg.Routes.Policy()
	if p.Routes.AdminHome != "/ops" {
		t.Fatalf("expected admin home /ops, got %q", p.Routes.AdminHome)
	}
	if p.CorporateCrossAccess {
		t.Fatal("expected corporate cross access disabled")
	}
}
