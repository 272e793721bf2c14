package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIProvider_Load(t *testing.T) {
	t.Run("Should map CLI flags to configuration paths", func(t *testing.T) {
		src := NewCLIProvider(map[string]any{
			"port":      9090,
			"db-host":   "db.internal",
			"log-level": "debug",
			"unknown":   "ignored",
		})
		data, err := src.Load()
		require.NoError(t, err)
		assert.Equal(t, 9090, data["server"].(map[string]any)["port"])
		assert.Equal(t, "db.internal", data["database"].(map[string]any)["host"])
		assert.Equal(t, "debug", data["runtime"].(map[string]any)["log_level"])
		assert.NotContains(t, data, "unknown")
		assert.Equal(t, SourceCLI, src.Type())
	})

	t.Run("Should handle nil flags gracefully", func(t *testing.T) {
		data, err := NewCLIProvider(nil).Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})
}

func TestSetNested(t *testing.T) {
	t.Run("Should set value in nested map structure", func(t *testing.T) {
		m := make(map[string]any)
		require.NoError(t, setNested(m, "billing.key_id", "rzp_test"))
		assert.Equal(t, "rzp_test", m["billing"].(map[string]any)["key_id"])
	})

	t.Run("Should return error on structure conflicts", func(t *testing.T) {
		m := map[string]any{"billing": "flat"}
		err := setNested(m, "billing.key_id", "rzp_test")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration conflict")
	})
}

func TestYAMLProvider_Load(t *testing.T) {
	t.Run("Should load configuration from YAML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lendflow.yaml")
		content := "server:\n  port: 6000\n  host:\nbilling:\n  base_url: http://localhost:9000\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		data, err := NewYAMLProvider(path).Load()
		require.NoError(t, err)
		server := data["server"].(map[string]any)
		assert.Equal(t, 6000, server["port"])
		assert.NotContains(t, server, "host")
		assert.Equal(t, "http://localhost:9000", data["billing"].(map[string]any)["base_url"])
	})

	t.Run("Should return empty config for non-existent file", func(t *testing.T) {
		data, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("Should return error for invalid YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
		_, err := NewYAMLProvider(path).Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML file")
	})
}

func TestDefaultProvider(t *testing.T) {
	t.Run("Should expand the registry into nested defaults", func(t *testing.T) {
		data, err := NewDefaultProvider().Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, data["server"].(map[string]any)["port"])
		rates := data["ratelimit"].(map[string]any)["global_rate"].(map[string]any)
		assert.Equal(t, int64(100), rates["limit"])
	})
}

func TestManager(t *testing.T) {
	t.Run("Should load, expose and reload configuration", func(t *testing.T) {
		ctx := context.Background()
		src := &mockSource{
			data:       map[string]any{"server": map[string]any{"port": 9100}},
			sourceType: SourceYAML,
		}
		m := NewManager(nil)
		var seen []int
		m.OnChange(func(c *Config) { seen = append(seen, c.Server.Port) })

		cfg, err := m.Load(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Server.Port)
		assert.Same(t, cfg, m.Get())

		src.data = map[string]any{"server": map[string]any{"port": 9200}}
		require.NoError(t, m.Reload(ctx))
		assert.Equal(t, 9200, m.Get().Server.Port)
		assert.Equal(t, []int{9100, 9200}, seen)
		require.NoError(t, m.Close(ctx))
	})

	t.Run("Should keep the previous config when reload fails", func(t *testing.T) {
		ctx := context.Background()
		src := &mockSource{sourceType: SourceYAML, data: map[string]any{}}
		m := NewManager(NewService())
		_, err := m.Load(ctx, src)
		require.NoError(t, err)
		src.loadErr = assert.AnError
		require.Error(t, m.Reload(ctx))
		assert.Equal(t, 8080, m.Get().Server.Port)
	})

	t.Run("Should resolve the manager from context", func(t *testing.T) {
		m := NewManager(nil)
		_, err := m.Load(context.Background())
		require.NoError(t, err)
		ctx := ContextWithManager(context.Background(), m)
		assert.Same(t, m, ManagerFromContext(ctx))
		assert.Same(t, m.Get(), FromContext(ctx))
	})
}
