package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/config"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage"
)

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		assert.True(t, bt.IsValid(), bt.String())
	}
	assert.False(t, BackendType("sheets").IsValid())
	assert.Equal(t, []string{"memory", "sqlite", "redis"}, GetBackendTypeStrings())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "redis", RedisAddr: "r:6379", RedisPrefix: "shop"})
	require.NoError(t, err)
	assert.Equal(t, RedisBackend, cfg.Type)
	assert.Equal(t, "shop", cfg.RedisPrefix)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: RedisBackend}.Validate())
	assert.Error(t, Config{Type: MemoryBackend, AMQPURL: "amqp://x"}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
}

func roundTrip(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Save(ctx, storage.KeySales, []byte(`[]`)))
	got, err := b.Load(ctx, storage.KeySales)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
		require.NoError(t, err)
		assert.Nil(t, res.Publisher)
		roundTrip(t, res.Backend)
		assert.NoError(t, res.Cleanup())
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "pos.db")})
		require.NoError(t, err)
		roundTrip(t, res.Backend)
		assert.NoError(t, res.Cleanup())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		res, err := f.CreateBackend(ctx, Config{Type: RedisBackend, RedisAddr: mr.Addr(), RedisPrefix: "test"})
		require.NoError(t, err)
		roundTrip(t, res.Backend)
		assert.True(t, mr.Exists("test:snapshot:sales"))
		assert.NoError(t, res.Cleanup())
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := f.CreateBackend(ctx, Config{Type: RedisBackend, RedisAddr: addr})
		assert.Error(t, err)
	})
}
