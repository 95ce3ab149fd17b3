package services

import (
	"context"
	"time"
)

// Authorizer answers whether a user may act on a team's resources.
type Authorizer interface {
	MayAct(ctx context.Context, userID, teamID string, roles ...string) error
}

// DocumentLocker serializes writers on a single document across processes.
// Acquire blocks (with retry) up to the context deadline; Release is a
// no-op when the lock is already held by someone else.
type DocumentLocker interface {
	Acquire(ctx context.Context, documentID string, ttl time.Duration) (release func(ctx context.Context) error, err error)
}

// Broadcaster fans an event out to every connection in a document's room.
type Broadcaster interface {
	Broadcast(documentID, event string, payload any)
}

// Notifier delivers best-effort notifications. Failures are logged by the
// implementation and never surfaced to the caller's request path.
type Notifier interface {
	NotifyIngested(ctx context.Context, teamID, documentID, title, url string)
}
