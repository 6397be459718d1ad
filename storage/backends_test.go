package storage_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/corretorsys/bankcore/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// runKVContract exercises the behavior every backend must share: round
// trips, overwrite on Set, ErrNotFound for missing keys and idempotent
// Delete. Values are compared as JSON because the postgres backend stores
// jsonb, which normalizes formatting.
func runKVContract(t *testing.T, kv storage.KV) {
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "contract", []byte(`{"n":1}`)))

	got, err := kv.Get(ctx, "contract")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(got))

	require.NoError(t, kv.Set(ctx, "contract", []byte(`{"n":2}`)))

	got, err = kv.Get(ctx, "contract")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(got))

	require.NoError(t, kv.Delete(ctx, "contract"))
	_, err = kv.Get(ctx, "contract")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Delete(ctx, "contract"))
}

func TestMemory_KVContract(t *testing.T) {
	runKVContract(t, storage.NewMemory())
}

func TestPostgres_KVContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(context.Background())) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%d/testdb?sslmode=disable", host, port.Int())

	kv, err := storage.ConnectPostgres(ctx, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(kv.Close)

	runKVContract(t, kv)
}

func TestRedis_KVContract(t *testing.T) {
	rdb := setupRedis(t)

	runKVContract(t, storage.NewRedis(rdb))
}

func TestRedis_PrefixesIsolateKeys(t *testing.T) {
	ctx := context.Background()
	rdb := setupRedis(t)

	first := storage.NewRedis(rdb, storage.WithRedisPrefix("corretor-a"))
	second := storage.NewRedis(rdb, storage.WithRedisPrefix("corretor-b"))

	require.NoError(t, first.Set(ctx, "errorLog", []byte(`{"owner":"a"}`)))

	_, err := second.Get(ctx, "errorLog")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := first.Get(ctx, "errorLog")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"a"}`, string(got))
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(context.Background())) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", host, port.Int())})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}
