package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects how token signatures are verified.
type SigningMethod string

const (
	// MethodNone reads claims without verifying the signature.
	MethodNone SigningMethod = ""
	// MethodEd25519 verifies EdDSA signatures with Config.PublicKey.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 verifies HMAC-SHA256 signatures with Config.Secret.
	MethodHS256 SigningMethod = "hs256"
)

var (
	// ErrMalformedToken is returned when a token is not a parsable JWT.
	ErrMalformedToken = errors.New("malformed token")
	// ErrTokenExpired is returned by Validate for tokens past exp plus leeway.
	ErrTokenExpired = errors.New("token expired")
	// ErrSignatureInvalid is returned when verification is enabled and fails.
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Config configures an Inspector.
type Config struct {
	Leeway    time.Duration
	Method    SigningMethod
	PublicKey []byte
	Secret    []byte
}

// Claims are the token claims the portal reads.
type Claims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Inspector reads bearer tokens.
type Inspector struct {
	config Config
	now    func() time.Time
}

// NewInspector validates cfg and returns an Inspector.
func NewInspector(cfg Config) (*Inspector, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 5*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.Method {
	case MethodNone:
	case MethodEd25519:
		if len(cfg.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.New("ed25519 public key must be 32 bytes")
		}
	case MethodHS256:
		if len(cfg.Secret) < 32 {
			return nil, errors.New("hs256 secret must be at least 32 bytes")
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.Method)
	}
	return &Inspector{config: cfg, now: time.Now}, nil
}

// Inspect parses token and returns its claims. Expiry is not enforced here.
func (i *Inspector) Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	if i.config.Method == MethodNone {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return claims, nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{i.algorithm()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		if i.config.Method == MethodEd25519 {
			return ed25519.PublicKey(i.config.PublicKey), nil
		}
		return i.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return claims, nil
}

// Expiry returns the token's exp claim widened by the leeway. ok is false
// for opaque tokens or tokens without exp.
func (i *Inspector) Expiry(token string) (time.Time, bool) {
	claims, err := i.Inspect(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Add(i.config.Leeway), true
}

// Verify checks the signature of token. With MethodNone every token passes,
// opaque ones included; otherwise a token that is not a JWT signed with the
// configured key fails with ErrMalformedToken or ErrSignatureInvalid.
func (i *Inspector) Verify(token string) error {
	if i.config.Method == MethodNone {
		return nil
	}
	_, err := i.Inspect(token)
	return err
}

// Validate parses token and rejects it once exp plus leeway has passed.
func (i *Inspector) Validate(token string) (*Claims, error) {
	claims, err := i.Inspect(token)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt != nil && !i.now().Before(claims.ExpiresAt.Add(i.config.Leeway)) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// Remaining returns how long token stays valid, or zero when it is expired
// or carries no expiry.
func (i *Inspector) Remaining(token string) time.Duration {
	exp, ok := i.Expiry(token)
	if !ok {
		return 0
	}
	d := exp.Sub(i.now())
	if d < 0 {
		return 0
	}
	return d
}

func (i *Inspector) algorithm() string {
	if i.config.Method == MethodEd25519 {
		return jwt.SigningMethodEdDSA.Alg()
	}
	return jwt.SigningMethodHS256.Alg()
}
