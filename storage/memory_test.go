package storage_test

import (
	"context"
	"testing"

	"github.com/corretorsys/bankcore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "k", []byte(`{"a":1}`)))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	require.NoError(t, kv.Set(ctx, "k", []byte("abc")))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'x'

	again, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
