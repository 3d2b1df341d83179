package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "goauth-client/1.0"
	maxErrorBody     = 64 << 10
)

// Paths are the service routes relative to the base URL.
type Paths struct {
	Login                  string
	VerifyTwoFactor        string
	ChangePasswordRequired string
	Logout                 string
	Refresh                string
	Register               string
	Profile                string
	Events                 string
}

// DefaultPaths returns the portal service's routes.
func DefaultPaths() Paths {
	return Paths{
		Login:                  "/auth/login",
		VerifyTwoFactor:        "/auth/2fa/verify",
		ChangePasswordRequired: "/auth/password/change-required",
		Logout:                 "/auth/logout",
		Refresh:                "/auth/refresh-token",
		Register:               "/auth/register",
		Profile:                "/users/profile",
		Events:                 "/security/events",
	}
}

// Observer is told about every completed call. op is the Paths member name
// in lower case, err the call's outcome.
type Observer func(op string, elapsed time.Duration, err error)

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Paths     Paths
	// HTTPClient overrides the default client. Its Timeout is left alone.
	HTTPClient *http.Client
	Observer   Observer
}

// Client talks to the authentication service.
type Client struct {
	baseURL   string
	client    *http.Client
	userAgent string
	paths     Paths
	observer  Observer
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("transport: base URL is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	paths := cfg.Paths
	if paths == (Paths{}) {
		paths = DefaultPaths()
	}

	return &Client{
		baseURL:   base,
		client:    client,
		userAgent: ua,
		paths:     paths,
		observer:  cfg.Observer,
	}, nil
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string { return c.baseURL }

// Login submits credentials.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	return c.auth(ctx, "login", http.MethodPost, c.paths.Login, "", req)
}

// VerifyTwoFactor completes a 2FA challenge.
func (c *Client) VerifyTwoFactor(ctx context.Context, req VerifyTwoFactorRequest) (*AuthResponse, error) {
	return c.auth(ctx, "verify_two_factor", http.MethodPost, c.paths.VerifyTwoFactor, "", req)
}

// ChangePasswordRequired completes a forced password change.
func (c *Client) ChangePasswordRequired(ctx context.Context, req ChangePasswordRequest) (*AuthResponse, error) {
	return c.auth(ctx, "change_password", http.MethodPost, c.paths.ChangePasswordRequired, "", req)
}

// Refresh exchanges a refresh token for new tokens.
func (c *Client) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	return c.auth(ctx, "refresh", http.MethodPost, c.paths.Refresh, "", req)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return c.auth(ctx, "register", http.MethodPost, c.paths.Register, "", req)
}

// UpdateProfile sends a partial profile for the bearer's account.
func (c *Client) UpdateProfile(ctx context.Context, token string, patch map[string]any) (*AuthResponse, error) {
	return c.auth(ctx, "profile", http.MethodPut, c.paths.Profile, token, patch)
}

// Logout tells the service the bearer's session ended.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.auth(ctx, "logout", http.MethodPost, c.paths.Logout, token, struct{}{})
	return err
}

// SendEvent posts one telemetry event.
func (c *Client) SendEvent(ctx context.Context, body any) error {
	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, c.paths.Events, "", body)
	if err == nil {
		err = parseResponse(resp, nil)
	}
	c.observe("events", start, err)
	return err
}

func (c *Client) auth(ctx context.Context, op, method, path, token string, body any) (*AuthResponse, error) {
	start := time.Now()
	out := &AuthResponse{}
	resp, err := c.do(ctx, method, path, token, body)
	if err == nil {
		err = parseResponse(resp, out)
	}
	c.observe(op, start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.observer != nil {
		c.observer(op, time.Since(start), err)
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		se := &ServerError{Status: resp.StatusCode}
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&errResp); err == nil {
			se.Code = errResp.Code
			se.Message = errResp.Message
			if se.Message == "" {
				se.Message = errResp.Error
			}
		}
		return se
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: parse response: %v", ErrUnavailable, err)
	}
	return nil
}
