package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// KeyValueStoreContract is the behavior every store implementation must satisfy.
type KeyValueStoreContract struct {
	NewStore func() (KeyValueStore, func())
}

func (c KeyValueStoreContract) Test(t *testing.T) {
	t.Run("set and get value", func(t *testing.T) {
		const key = "guestUrls_guest_a1B2c3D4"
		value := []byte(`[{"id":"1"}]`)
		sut, tearDown := c.NewStore()
		t.Cleanup(tearDown)

		err := sut.Set(context.Background(), key, value)

		require.NoError(t, err)

		got, err := sut.Get(context.Background(), key)

		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("get missing key", func(t *testing.T) {
		sut, tearDown := c.NewStore()
		t.Cleanup(tearDown)

		_, err := sut.Get(context.Background(), "missing")

		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("set replaces previous value", func(t *testing.T) {
		const key = "urlShortener_guestId"
		sut, tearDown := c.NewStore()
		t.Cleanup(tearDown)

		require.NoError(t, sut.Set(context.Background(), key, []byte("guest_11111111")))
		require.NoError(t, sut.Set(context.Background(), key, []byte("guest_22222222")))

		got, err := sut.Get(context.Background(), key)

		require.NoError(t, err)
		assert.Equal(t, []byte("guest_22222222"), got)
	})

	t.Run("delete removes key", func(t *testing.T) {
		const key = "urlShortener_guestId"
		sut, tearDown := c.NewStore()
		t.Cleanup(tearDown)

		require.NoError(t, sut.Set(context.Background(), key, []byte("guest_a1B2c3D4")))
		require.NoError(t, sut.Delete(context.Background(), key))

		_, err := sut.Get(context.Background(), key)

		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("delete missing key is not an error", func(t *testing.T) {
		sut, tearDown := c.NewStore()
		t.Cleanup(tearDown)

		err := sut.Delete(context.Background(), "missing")

		assert.NoError(t, err)
	})

	t.Run("store is available", func(t *testing.T) {
		sut, tearDown := c.NewStore()
		t.Cleanup(tearDown)

		assert.True(t, sut.IsAvailable(context.Background()))
	})
}
