package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLockAcquireRelease(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	lock := NewRedisLock(client, "optimize:test-shop", time.Minute)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	// A second holder must be rejected while the lock is held.
	other := NewRedisLock(client, "optimize:test-shop", time.Minute)
	ok, err = other.Acquire(ctx)
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire to be rejected")
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	ok, err = other.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	if !ok {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestRedisLockReleaseDoesNotStealOwnership(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	first := NewRedisLock(client, "optimize:shop-a", time.Minute)
	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatal("expected acquire to succeed")
	}

	// Releasing from a lock that never acquired must not free the key.
	impostor := NewRedisLock(client, "optimize:shop-a", time.Minute)
	if err := impostor.Release(ctx); err != nil {
		t.Fatalf("impostor Release errored: %v", err)
	}

	second := NewRedisLock(client, "optimize:shop-a", time.Minute)
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("lock was stolen by a non-owner release")
	}
}
