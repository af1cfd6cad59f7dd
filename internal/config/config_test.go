package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidal-go/dblist/persist"
)

var envVars = []string{
	"DBLIST_BACKEND", "DBLIST_FILE", "DBLIST_ENCRYPTED_FILE",
	"DBLIST_ENCRYPT", "DBLIST_DECRYPT",
	"DBLIST_SECRET_KEY", "DBLIST_SECRET_PWD",
	"DBLIST_PATH", "DBLIST_ADDR", "DBLIST_DATABASE", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, persist.DefaultBackend, cfg.Backend)
	assert.Equal(t, DefaultFile, cfg.File)
	assert.Empty(t, cfg.EncryptedFile)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)

	opts := cfg.PersistOptions()
	assert.Nil(t, opts.Secret)
	assert.Equal(t, DefaultFile, opts.FileName)
}

func TestLoadSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DBLIST_SECRET_PWD", "pwd")
	t.Setenv("DBLIST_ENCRYPT", "true")
	t.Setenv("DBLIST_FILE", "list.json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	opts := cfg.PersistOptions()
	assert.True(t, opts.Encrypt)
	assert.Equal(t, "list.json", opts.FileName)
	assert.Empty(t, opts.EncryptedFileName)
	require.NotNil(t, opts.Secret)
	assert.Equal(t, "pwd", opts.Secret.Pwd)

	t.Setenv("DBLIST_FILE", "")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultEncryptedFile, cfg.EncryptedFile)
}

func TestLoadKV(t *testing.T) {
	clearEnv(t)
	t.Setenv("DBLIST_BACKEND", "kv.bbolt")
	t.Setenv("DBLIST_PATH", "/var/lib/dblist")

	cfg, err := Load()
	require.NoError(t, err)
	opts := cfg.PersistOptions()
	assert.Equal(t, "kv.bbolt", opts.Backend)
	assert.Equal(t, "/var/lib/dblist", opts.Path)
	assert.Empty(t, opts.FileName)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"DBLIST_ENCRYPT": "maybe",
		"DBLIST_DECRYPT": "2",
		"LOG_LEVEL":      "verbose",
	}
	for name, val := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(name, val)
			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), name)
		})
	}

	t.Run("both", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DBLIST_ENCRYPT", "1")
		t.Setenv("DBLIST_DECRYPT", "1")
		_, err := Load()
		require.Error(t, err)
	})
}
