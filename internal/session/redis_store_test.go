package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLookup(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	data := Data{UserID: "user-1", Email: "admin@dataroom.app", Role: "admin"}
	if err := store.Save(ctx, "hash-1", data, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Lookup(ctx, "hash-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.UserID != "user-1" || got.Email != "admin@dataroom.app" || got.Role != "admin" {
		t.Fatalf("unexpected session data: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be stamped")
	}
}

func TestLookupUnknownToken(t *testing.T) {
	store := setupTestRedis(t)

	if _, err := store.Lookup(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	data := Data{UserID: "user-1", Email: "investor@dataroom.app", Role: "investor"}
	if err := store.Save(ctx, "hash-1", data, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Revoke(ctx, "hash-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := store.Lookup(ctx, "hash-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after revoke, got %v", err)
	}

	// Revoking again is a no-op.
	if err := store.Revoke(ctx, "hash-1"); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
}

func TestSaveRejectsExpiredSession(t *testing.T) {
	store := setupTestRedis(t)

	data := Data{UserID: "user-1", Email: "investor@dataroom.app", Role: "investor"}
	if err := store.Save(context.Background(), "hash-1", data, time.Now().Add(-time.Minute)); err == nil {
		t.Fatalf("expected error for already expired session")
	}
}
