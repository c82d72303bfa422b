package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/esmanager/highlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Lint.CheckDisallowed)

	hl, err := cfg.Highlight()
	require.NoError(t, err)
	assert.Equal(t, highlight.Config{Register: highlight.RegisterNone, CheckDisallowed: true}, hl)
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithDataDir("/tmp/es"),
		WithBackend("SQLite"),
		WithLogLevel("DEBUG"),
		WithRegister(highlight.RegisterKeigo),
		WithDisallowedCheck(false),
	)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)

	hl, err := cfg.Highlight()
	require.NoError(t, err)
	assert.Equal(t, highlight.Config{Register: highlight.RegisterKeigo}, hl)

	path, err := cfg.StorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/es", "esmanager.db"), path)

	cfg.Backend = BackendBadger
	path, err = cfg.StorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/es", "badger"), path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		wantErr bool
	}{
		{"defaults", nil, false},
		{"blank fields take defaults", []ConfigOption{WithBackend(" "), WithLogLevel(""), WithDataDir("")}, false},
		{"unknown backend", []ConfigOption{WithBackend("postgres")}, true},
		{"bad log level", []ConfigOption{WithLogLevel("verbose")}, true},
		{"bad register", []ConfigOption{WithRegister("formal")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data"), got)

	got, err = ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)

	got, err = ExpandPath("~user/x")
	require.NoError(t, err)
	assert.Equal(t, "~user/x", got)
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("round trip", func(t *testing.T) {
		want := NewConfig(WithDataDir("/srv/es"), WithBackend(BackendSQLite), WithRegister(highlight.RegisterJoutai))
		require.NoError(t, Save(context.Background(), path, want))

		got, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("backend: sqlite\n"), 0o644))
		got, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, BackendSQLite, got.Backend)
		assert.True(t, got.Lint.CheckDisallowed)
		assert.Equal(t, "info", got.LogLevel)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("backend: [\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("backend: mongo\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("save rejects invalid config", func(t *testing.T) {
		err := Save(context.Background(), path, NewConfig(WithLogLevel("loud")))
		assert.Error(t, err)
	})
}
