package domain

import "context"

// KeyValueStore is the persistent per-origin store the client caches into.
// A Set for a key fully replaces the key's value.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	IsAvailable(ctx context.Context) bool
}
