package store

import (
	"context"

	"summitgo/pkg/model"
)

// SubmissionStore handles durable persistence of the pending-submission queue.
type SubmissionStore interface {
	// SaveSubmission inserts or replaces a submission row.
	SaveSubmission(ctx context.Context, sub *model.PendingSubmission) error
	// DeleteSubmission is a no-op for unknown ids.
	DeleteSubmission(ctx context.Context, id string) error
	// ListSubmissions returns all rows in insertion order.
	ListSubmissions(ctx context.Context) ([]*model.PendingSubmission, error)
}

// CacheStore handles generic key-value caching of read views.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
	DeleteCache(ctx context.Context, key string) error
	DeleteCachePrefix(ctx context.Context, prefix string) error
	ListCacheKeys(ctx context.Context, prefix string) ([]string, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	SubmissionStore
	CacheStore
	StateStore

	// Close closes the store connection.
	Close() error
}
