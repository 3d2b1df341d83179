package stores

import (
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goAuthClient/session"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeExpired  = errors.New("challenge expired")
	ErrChallengeMismatch = errors.New("challenge token mismatch")
)

// ChallengeKind names the step a challenge drives.
type ChallengeKind uint8

const (
	ChallengeTwoFactor ChallengeKind = iota + 1
	ChallengePasswordChange
)

func (k ChallengeKind) String() string {
	switch k {
	case ChallengeTwoFactor:
		return "two_factor"
	case ChallengePasswordChange:
		return "password_change"
	default:
		return "unknown"
	}
}

// Challenge is a pending step issued by the service.
type Challenge struct {
	Kind      ChallengeKind
	Token     string
	User      *session.User
	ExpiresAt time.Time
}

// ChallengeStore holds at most one pending challenge.
type ChallengeStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	current *Challenge
}

// NewChallengeStore creates a store whose challenges live for ttl. A nil now
// uses time.Now.
func NewChallengeStore(ttl time.Duration, now func() time.Time) *ChallengeStore {
	if now == nil {
		now = time.Now
	}
	return &ChallengeStore{ttl: ttl, now: now}
}

// Put replaces the pending challenge.
func (s *ChallengeStore) Put(kind ChallengeKind, token string, user *session.User) Challenge {
	c := Challenge{
		Kind:      kind,
		Token:     token,
		User:      user.Clone(),
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.mu.Lock()
	s.current = &c
	s.mu.Unlock()
	return c
}

// Peek returns the pending challenge if it has not expired.
func (s *ChallengeStore) Peek() (Challenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Challenge{}, false
	}
	if s.ttl > 0 && !s.now().Before(s.current.ExpiresAt) {
		s.current = nil
		return Challenge{}, false
	}
	c := *s.current
	c.User = c.User.Clone()
	return c, true
}

// Check verifies token against the pending challenge of kind without
// consuming it.
func (s *ChallengeStore) Check(kind ChallengeKind, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Kind != kind {
		return ErrChallengeNotFound
	}
	if s.ttl > 0 && !s.now().Before(s.current.ExpiresAt) {
		s.current = nil
		return ErrChallengeExpired
	}
	if subtle.ConstantTimeCompare([]byte(s.current.Token), []byte(token)) != 1 {
		return ErrChallengeMismatch
	}
	return nil
}

// Clear drops the pending challenge.
func (s *ChallengeStore) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
