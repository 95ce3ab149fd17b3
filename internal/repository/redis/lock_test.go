package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"docforge/internal/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestDocumentLock_OwnerID_Unique(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewDocumentLock(client)
	lock2 := NewDocumentLock(client)

	if lock1.OwnerID() == lock2.OwnerID() {
		t.Errorf("expected unique owner IDs, got same: %s", lock1.OwnerID())
	}
}

func TestDocumentLock_Acquire_Success(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewDocumentLock(client)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if release == nil {
		t.Fatal("expected release function")
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
}

func TestDocumentLock_TryAcquire_AlreadyHeld(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewDocumentLock(client)
	lock2 := NewDocumentLock(client)
	ctx := context.Background()

	release, err := lock1.TryAcquire(ctx, "doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer release(ctx)

	_, err = lock2.TryAcquire(ctx, "doc-1", 10*time.Second)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestDocumentLock_Acquire_BlocksUntilReleased(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewDocumentLock(client)
	lock2 := NewDocumentLock(client)
	ctx := context.Background()

	release, err := lock1.Acquire(ctx, "doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		release2, err := lock2.Acquire(waitCtx, "doc-1", 10*time.Second)
		if err == nil {
			release2(ctx)
		}
		done <- err
	}()

	// Holder releases shortly after; the waiter should then get through
	time.Sleep(50 * time.Millisecond)
	if err := release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("second acquire should succeed after release: %v", err)
	}
}

func TestDocumentLock_Acquire_ContextDeadline(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewDocumentLock(client)
	lock2 := NewDocumentLock(client)
	ctx := context.Background()

	release, err := lock1.Acquire(ctx, "doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer release(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	_, err = lock2.Acquire(waitCtx, "doc-1", 10*time.Second)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestDocumentLock_Release_NotOwner(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewDocumentLock(client)
	lock2 := NewDocumentLock(client)
	ctx := context.Background()

	release1, err := lock1.TryAcquire(ctx, "doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	// A different owner's stale release must not free lock1's hold
	if err := lock2.release(ctx, lockPrefix+"doc-1"); err != nil {
		t.Fatalf("release by non-owner errored: %v", err)
	}

	_, err = lock2.TryAcquire(ctx, "doc-1", 10*time.Second)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("lock should still be held after non-owner release, got %v", err)
	}

	_ = release1(ctx)
}
