package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chaitanya-699/url-shortener/internal/storage/inmemory"
)

type failingStore struct {
	err error
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, s.err
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	return s.err
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	return s.err
}

func (s *failingStore) IsAvailable(ctx context.Context) bool {
	return false
}

func TestAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("write and read round trip", func(t *testing.T) {
		sut := NewAdapter(inmemory.New(), zap.NewNop())
		want := []string{"a", "b"}

		ok := sut.Write(ctx, "key", want)

		require.True(t, ok)

		var got []string
		ok = sut.Read(ctx, "key", &got)

		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("read missing key leaves default", func(t *testing.T) {
		sut := NewAdapter(inmemory.New(), zap.NewNop())
		got := "default"

		ok := sut.Read(ctx, "missing", &got)

		assert.False(t, ok)
		assert.Equal(t, "default", got)
	})

	t.Run("read corrupt value leaves default", func(t *testing.T) {
		store := inmemory.New()
		require.NoError(t, store.Set(ctx, "key", []byte("{not json")))
		sut := NewAdapter(store, zap.NewNop())
		var got []string

		ok := sut.Read(ctx, "key", &got)

		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("write unmarshalable value does not panic", func(t *testing.T) {
		sut := NewAdapter(inmemory.New(), zap.NewNop())

		ok := sut.Write(ctx, "key", func() {})

		assert.False(t, ok)
	})

	t.Run("backend failures are swallowed", func(t *testing.T) {
		sut := NewAdapter(&failingStore{err: assert.AnError}, zap.NewNop())
		var out string

		assert.False(t, sut.Read(ctx, "key", &out))
		assert.False(t, sut.Write(ctx, "key", "value"))
		assert.False(t, sut.Remove(ctx, "key"))
		assert.False(t, sut.IsAvailable(ctx))
	})

	t.Run("remove deletes key", func(t *testing.T) {
		sut := NewAdapter(inmemory.New(), zap.NewNop())
		require.True(t, sut.Write(ctx, "key", "value"))

		ok := sut.Remove(ctx, "key")

		require.True(t, ok)

		var got string
		assert.False(t, sut.Read(ctx, "key", &got))
	})
}
