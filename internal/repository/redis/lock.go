package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"docforge/internal/domain"
)

const lockPrefix = "docforge:lock:doc:"

// acquireRetryInterval is how often a blocked writer re-attempts SETNX
// while waiting for the current holder to finish.
const acquireRetryInterval = 25 * time.Millisecond

// DocumentLock serializes section updates per document across all server
// instances using Redis SETNX with TTL. A unique owner ID prevents one
// instance from releasing a lock held by another.
type DocumentLock struct {
	client  *redis.Client
	ownerID string
}

// NewDocumentLock creates a Redis-backed per-document lock.
// The owner ID is automatically generated to uniquely identify this instance.
func NewDocumentLock(client *redis.Client) *DocumentLock {
	return &DocumentLock{
		client:  client,
		ownerID: generateOwnerID(),
	}
}

// generateOwnerID creates a unique identifier for this lock holder.
// Format: hostname:pid:random
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

// Acquire blocks until the document lock is held or the context expires.
// The TTL bounds how long a crashed holder can stall other writers.
// The returned release function is safe to call after TTL expiry.
func (l *DocumentLock) Acquire(ctx context.Context, documentID string, ttl time.Duration) (func(ctx context.Context) error, error) {
	key := lockPrefix + documentID

	for {
		acquired, err := l.client.SetNX(ctx, key, l.ownerID, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", documentID, err)
		}
		if acquired {
			release := func(ctx context.Context) error {
				return l.release(ctx, key)
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", documentID, ctx.Err())
		case <-time.After(acquireRetryInterval):
		}
	}
}

// TryAcquire attempts a single non-blocking acquisition. Returns
// domain.ErrConflict when the lock is held elsewhere.
func (l *DocumentLock) TryAcquire(ctx context.Context, documentID string, ttl time.Duration) (func(ctx context.Context) error, error) {
	key := lockPrefix + documentID

	acquired, err := l.client.SetNX(ctx, key, l.ownerID, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", documentID, err)
	}
	if !acquired {
		return nil, fmt.Errorf("document %s is being edited: %w", documentID, domain.ErrConflict)
	}

	return func(ctx context.Context) error {
		return l.release(ctx, key)
	}, nil
}

// releaseScript only deletes the lock if the current owner matches,
// preventing accidental release of locks held by other instances.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// release atomically checks ownership and deletes. Safe to call even if
// the lock has already expired and been re-acquired elsewhere.
func (l *DocumentLock) release(ctx context.Context, key string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{key}, l.ownerID).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (l *DocumentLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID returns the unique identifier for this lock instance.
func (l *DocumentLock) OwnerID() string {
	return l.ownerID
}
