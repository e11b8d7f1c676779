package storage

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chaitanya-699/url-shortener/internal/domain"
)

const keyField = "key"

// Adapter wraps a key/value store with JSON serialization and swallow-and-log
// error handling. Callers treat a false return as non-fatal: in-memory state
// stays authoritative for the session, the value just was not persisted.
type Adapter struct {
	store  domain.KeyValueStore
	logger *zap.Logger
}

func NewAdapter(store domain.KeyValueStore, logger *zap.Logger) *Adapter {
	return &Adapter{
		store:  store,
		logger: logger,
	}
}

// Read unmarshals the value stored under key into out. When the key is absent
// or the read fails, out is left untouched so the caller's default survives.
func (a *Adapter) Read(ctx context.Context, key string, out any) bool {
	data, err := a.store.Get(ctx, key)

	if errors.Is(err, domain.ErrKeyNotFound) {
		return false
	}

	if err != nil {
		a.logger.Warn("reading from storage", zap.String(keyField, key), zap.Error(err))
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		a.logger.Warn("decoding stored value", zap.String(keyField, key), zap.Error(err))
		return false
	}

	return true
}

// Write stores value under key, fully replacing any previous value.
func (a *Adapter) Write(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)

	if err != nil {
		a.logger.Warn("encoding value for storage", zap.String(keyField, key), zap.Error(err))
		return false
	}

	if err := a.store.Set(ctx, key, data); err != nil {
		a.logger.Warn("writing to storage", zap.String(keyField, key), zap.Error(err))
		return false
	}

	return true
}

// Remove deletes the key. Removing an absent key succeeds.
func (a *Adapter) Remove(ctx context.Context, key string) bool {
	if err := a.store.Delete(ctx, key); err != nil {
		a.logger.Warn("removing from storage", zap.String(keyField, key), zap.Error(err))
		return false
	}

	return true
}

func (a *Adapter) IsAvailable(ctx context.Context) bool {
	return a.store.IsAvailable(ctx)
}
