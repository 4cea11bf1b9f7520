package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/livechat/internal/config"
)

func TestDSN(t *testing.T) {
	t.Run("explicit url wins", func(t *testing.T) {
		assert.Equal(t, "postgres://x", DSN(config.DatabaseConfig{URL: "postgres://x", Host: "ignored"}))
	})

	t.Run("built from parts with escaping", func(t *testing.T) {
		dsn := DSN(config.DatabaseConfig{
			Host: "db", Port: "5432", Name: "livechat",
			User: "chat", Password: "p@ss/word", SSLMode: "disable",
		})
		assert.Equal(t, "postgres://chat:p%40ss%2Fword@db:5432/livechat?sslmode=disable", dsn)
	})
}

func TestRunMigrations_SkippedForMemoryBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Migrations.Enabled = true
	cfg.Storage.Backend = config.StorageMemory
	require.NoError(t, RunMigrations(cfg, nil))
}
