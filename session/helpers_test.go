package session

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T, opts StoreOptions) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(NewRedisBackend(rdb, time.Hour), opts)
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func testSession() *Session {
	return &Session{
		User: &User{
			ID:    "u-1",
			Email: "alice@example.com",
			Name:  "Alice",
			Role:  RoleCorporate,
		},
		Token:        "tok-1",
		RefreshToken: "ref-1",
		Timestamp:    time.Now().UnixMilli(),
	}
}
