package ratelimiter

import (
	"context"
	"time"
)

// Entry is the persisted form of a tracker. Timestamp is the Unix time in
// milliseconds of the last failed attempt.
type Entry struct {
	Attempts  int   `json:"attempts"`
	Timestamp int64 `json:"timestamp"`
}

// Time returns the timestamp as time.Time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Store defines the interface for rate limit storage backends.
type Store interface {
	// Load returns ErrEntryNotFound when the key has no entry.
	Load(ctx context.Context, key string) (Entry, error)
	Save(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
}

type prefixed struct {
	prefix string
	store  Store
}

// WithPrefix scopes every key of store under prefix. Shared stores use it to
// keep the entries of different clients apart.
func WithPrefix(store Store, prefix string) Store {
	return prefixed{prefix: prefix + ":", store: store}
}

func (p prefixed) Load(ctx context.Context, key string) (Entry, error) {
	return p.store.Load(ctx, p.prefix+key)
}

func (p prefixed) Save(ctx context.Context, key string, entry Entry) error {
	return p.store.Save(ctx, p.prefix+key, entry)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	return p.store.Delete(ctx, p.prefix+key)
}
