package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestStoreSetGetClear(t *testing.T) {
	store, _, done := newRedisStoreTest(t, StoreOptions{Namespace: "portal"})
	defer done()
	ctx := context.Background()

	got, err := store.Get(ctx)
	if err != nil || got != nil {
		t.Fatalf("empty store Get = %v, %v", got, err)
	}

	if err := store.Set(ctx, testSession()); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Token != "tok-1" || got.User.Name != "Alice" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if !store.Valid(ctx) {
		t.Fatal("expected stored session to be valid")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if store.Valid(ctx) {
		t.Fatal("expected cleared store to be invalid")
	}
}

func TestStoreSetRejectsIncomplete(t *testing.T) {
	store := NewStore(NewMemoryBackend(), StoreOptions{})
	err := store.Set(context.Background(), &Session{User: &User{ID: "u"}})
	if !errors.Is(err, ErrSessionIncomplete) {
		t.Fatalf("expected ErrSessionIncomplete, got %v", err)
	}
}

func TestStoreSetStampsTimestamp(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	store := NewStore(NewMemoryBackend(), StoreOptions{Now: func() time.Time { return now }})
	sess := testSession()
	sess.Timestamp = 0
	if err := store.Set(context.Background(), sess); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := store.Get(context.Background())
	if got.Timestamp != now.UnixMilli() {
		t.Fatalf("timestamp = %d", got.Timestamp)
	}
	if sess.Timestamp != 0 {
		t.Fatal("Set mutated caller's session")
	}
}

func TestStoreUpdateMergesTokens(t *testing.T) {
	store := NewStore(NewMemoryBackend(), StoreOptions{})
	ctx := context.Background()

	tok := "tok-2"
	if _, err := store.Update(ctx, Patch{Token: &tok}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if err := store.Set(ctx, testSession()); err != nil {
		t.Fatalf("set: %v", err)
	}
	updated, err := store.Update(ctx, Patch{Token: &tok})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Token != "tok-2" || updated.RefreshToken != "ref-1" || updated.User.Email != "alice@example.com" {
		t.Fatalf("unexpected merge: %+v", updated)
	}

	empty := ""
	if _, err := store.Update(ctx, Patch{Token: &empty}); !errors.Is(err, ErrSessionIncomplete) {
		t.Fatalf("expected ErrSessionIncomplete, got %v", err)
	}
}

func TestStoreGetTreatsPartialRecordAsAbsent(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend, StoreOptions{Namespace: "p"})
	ctx := context.Background()

	_ = backend.Save(ctx, store.SessionKey(), []byte(`{"v":1,"session":{"token":"only"}}`))
	got, err := store.Get(ctx)
	if err != nil || got != nil {
		t.Fatalf("partial record Get = %v, %v", got, err)
	}

	_ = backend.Save(ctx, store.SessionKey(), []byte(`garbage`))
	if _, err := store.Get(ctx); !errors.Is(err, ErrSessionCorrupt) {
		t.Fatalf("expected ErrSessionCorrupt, got %v", err)
	}
}

func TestStoreCheckExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	exp := now.Add(time.Minute)
	store := NewStore(NewMemoryBackend(), StoreOptions{
		MaxAge: time.Hour,
		Now:    func() time.Time { return now },
		Expiry: func(token string) (time.Time, bool) {
			if token == "opaque" {
				return time.Time{}, false
			}
			return exp, true
		},
	})

	sess := testSession()
	sess.Timestamp = now.Add(-time.Minute).UnixMilli()
	if err := store.Check(sess); err != nil {
		t.Fatalf("fresh session rejected: %v", err)
	}

	exp = now.Add(-time.Second)
	if err := store.Check(sess); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected token expiry, got %v", err)
	}

	sess.Token = "opaque"
	if err := store.Check(sess); err != nil {
		t.Fatalf("opaque token should not expire on its own: %v", err)
	}

	sess.Timestamp = now.Add(-2 * time.Hour).UnixMilli()
	if err := store.Check(sess); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected max age expiry, got %v", err)
	}

	if err := store.Check(nil); !errors.Is(err, ErrSessionIncomplete) {
		t.Fatalf("expected ErrSessionIncomplete for nil, got %v", err)
	}
}

func TestStoreCheckVerifiesToken(t *testing.T) {
	badSignature := errors.New("bad signature")
	store := NewStore(NewMemoryBackend(), StoreOptions{
		Verify: func(token string) error {
			if token != "tok-1" {
				return badSignature
			}
			return nil
		},
	})

	sess := testSession()
	if err := store.Check(sess); err != nil {
		t.Fatalf("verified session rejected: %v", err)
	}

	sess.Token = "forged"
	err := store.Check(sess)
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}

	ctx := context.Background()
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Valid(ctx) {
		t.Fatal("session with a forged token reported valid")
	}
}

func TestStoreDeviceIDIsStable(t *testing.T) {
	store, _, done := newRedisStoreTest(t, StoreOptions{})
	defer done()
	ctx := context.Background()

	first, err := store.DeviceID(ctx)
	if err != nil || first == "" {
		t.Fatalf("device id: %q %v", first, err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	second, err := store.DeviceID(ctx)
	if err != nil {
		t.Fatalf("device id: %v", err)
	}
	if first != second {
		t.Fatalf("device id changed across session clear: %s vs %s", first, second)
	}
}

func TestStoreLogoutReasonIsOneShot(t *testing.T) {
	store := NewStore(NewMemoryBackend(), StoreOptions{})
	ctx := context.Background()

	if err := store.SetLogoutReason(ctx, "inactivity"); err != nil {
		t.Fatalf("set reason: %v", err)
	}
	reason, err := store.ConsumeLogoutReason(ctx)
	if err != nil || reason != "inactivity" {
		t.Fatalf("reason = %q, %v", reason, err)
	}
	reason, err = store.ConsumeLogoutReason(ctx)
	if err != nil || reason != "" {
		t.Fatalf("second consume = %q, %v", reason, err)
	}
}

func TestStoreRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	store := NewStore(NewRedisBackend(rdb, 0), StoreOptions{})
	mr.Close()

	if _, err := store.Get(context.Background()); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if store.Valid(context.Background()) {
		t.Fatal("unavailable backend must not report a valid session")
	}
}
