package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned by Update when no session is persisted.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionIncomplete marks a session record that lacks a user or a token.
var ErrSessionIncomplete = errors.New("session incomplete")

// ErrSessionCorrupt marks a persisted record that cannot be decoded.
var ErrSessionCorrupt = errors.New("session corrupt")

// ErrSessionExpired is returned by Check when the bearer token or the
// session age has run out.
var ErrSessionExpired = errors.New("session expired")

// ErrSessionInvalid is returned by Check when the bearer token fails
// signature verification.
var ErrSessionInvalid = errors.New("session invalid")

// ErrBackendUnavailable wraps failures of the underlying persistence medium.
var ErrBackendUnavailable = errors.New("session backend unavailable")

// ExpiryFunc extracts the expiry instant of a bearer token. ok is false when
// the token carries no readable expiry, in which case the token alone never
// invalidates the session.
type ExpiryFunc func(token string) (exp time.Time, ok bool)

// VerifyFunc checks the bearer token signature.
type VerifyFunc func(token string) error

// StoreOptions tunes a Store.
type StoreOptions struct {
	// Namespace prefixes every backend key.
	Namespace string
	// MaxAge bounds the session age measured from Timestamp. Zero disables
	// the age check.
	MaxAge time.Duration
	// Expiry reads token expiry. Nil disables token-based expiry.
	Expiry ExpiryFunc
	// Verify rejects tokens with a bad signature. Nil accepts every token.
	Verify VerifyFunc
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Store is the single read/write authority over the persisted session, the
// device identifier and the one-shot logout reason.
type Store struct {
	backend Backend
	opts    StoreOptions
}

// NewStore creates a Store on top of backend.
func NewStore(backend Backend, opts StoreOptions) *Store {
	if opts.Namespace == "" {
		opts.Namespace = "goauth"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{backend: backend, opts: opts}
}

func (s *Store) sessionKey() string { return s.opts.Namespace + ":session" }
func (s *Store) deviceKey() string  { return s.opts.Namespace + ":device" }
func (s *Store) reasonKey() string  { return s.opts.Namespace + ":logout_reason" }

// SessionKey is the backend key holding the session record. Watchers use it
// to filter change notifications.
func (s *Store) SessionKey() string { return s.sessionKey() }

// Backend exposes the underlying medium.
func (s *Store) Backend() Backend { return s.backend }

// Get returns the persisted session, or nil when none exists.
//
// An incomplete record is reported as absent. A corrupt record returns an
// error wrapping ErrSessionCorrupt so the caller can clear it.
func (s *Store) Get(ctx context.Context) (*Session, error) {
	data, err := s.backend.Load(ctx, s.sessionKey())
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		if errors.Is(err, ErrSessionIncomplete) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// Set replaces the persisted session wholesale.
func (s *Store) Set(ctx context.Context, sess *Session) error {
	if !sess.Complete() {
		return ErrSessionIncomplete
	}
	sess = sess.Clone()
	if sess.Timestamp == 0 {
		sess.Timestamp = s.opts.Now().UnixMilli()
	}
	return s.write(ctx, sess)
}

// Update shallow-merges patch into the persisted session.
func (s *Store) Update(ctx context.Context, patch Patch) (*Session, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrSessionNotFound
	}
	patch.apply(current)
	if !current.Complete() {
		return nil, ErrSessionIncomplete
	}
	if err := s.write(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Clear removes the persisted session. Clearing an empty store succeeds.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.sessionKey()); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Valid reports whether a complete, verified, unexpired session is
// persisted.
func (s *Store) Valid(ctx context.Context) bool {
	sess, err := s.Get(ctx)
	if err != nil {
		return false
	}
	return s.Check(sess) == nil
}

// Check validates sess without touching the backend.
func (s *Store) Check(sess *Session) error {
	if !sess.Complete() {
		return ErrSessionIncomplete
	}
	if s.opts.Verify != nil {
		if err := s.opts.Verify(sess.Token); err != nil {
			return fmt.Errorf("%w: %v", ErrSessionInvalid, err)
		}
	}
	now := s.opts.Now()
	if s.opts.Expiry != nil {
		if exp, ok := s.opts.Expiry(sess.Token); ok && !now.Before(exp) {
			return ErrSessionExpired
		}
	}
	if s.opts.MaxAge > 0 && sess.Timestamp > 0 {
		created := time.UnixMilli(sess.Timestamp)
		if now.Sub(created) >= s.opts.MaxAge {
			return ErrSessionExpired
		}
	}
	return nil
}

// DeviceID returns the persistent device identifier, generating and storing
// one on first use.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	data, err := s.backend.Load(ctx, s.deviceKey())
	if err == nil {
		if id, perr := uuid.ParseBytes(data); perr == nil {
			return id.String(), nil
		}
	} else if !errors.Is(err, ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	id := uuid.NewString()
	if err := s.backend.Save(ctx, s.deviceKey(), []byte(id)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return id, nil
}

// SetLogoutReason records why the last session ended so that the next login
// screen can explain it.
func (s *Store) SetLogoutReason(ctx context.Context, reason string) error {
	if reason == "" {
		return nil
	}
	if err := s.backend.Save(ctx, s.reasonKey(), []byte(reason)); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// ConsumeLogoutReason returns the recorded reason and deletes it. An empty
// string means no reason was recorded.
func (s *Store) ConsumeLogoutReason(ctx context.Context) (string, error) {
	data, err := s.backend.Load(ctx, s.reasonKey())
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := s.backend.Delete(ctx, s.reasonKey()); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return string(data), nil
}

func (s *Store) write(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.backend.Save(ctx, s.sessionKey(), data); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
