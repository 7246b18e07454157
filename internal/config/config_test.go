package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutDatabase(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.ErrorIs(t, err, ErrNoDatabase)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.InDelta(t, 0.7, cfg.Search.SimilarityThreshold, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, 20*time.Second, cfg.Assist.Timeout)
	assert.Equal(t, 5, cfg.Questions.LoopWindow)
	assert.Equal(t, 2, cfg.Questions.LoopThreshold)
	assert.False(t, cfg.Flow.ScanEmbeddedCA)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
listen_addr: ":9090"
registry:
  timeout: 3s
search:
  similarity_threshold: 0.8
questions:
  loop_window: 6
  loop_threshold: 3
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://localhost/precificador")
	t.Setenv("LISTEN_ADDR", ":7070")
	t.Setenv("SCAN_EMBEDDED_CA", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr, "env wins over file")
	assert.Equal(t, 3*time.Second, cfg.Registry.Timeout)
	assert.InDelta(t, 0.8, cfg.Search.SimilarityThreshold, 1e-9)
	assert.Equal(t, 6, cfg.Questions.LoopWindow)
	assert.Equal(t, 3, cfg.Questions.LoopThreshold)
	assert.True(t, cfg.Flow.ScanEmbeddedCA)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"threshold zero", func(c *Config) { c.Search.SimilarityThreshold = 0 }, false},
		{"threshold above one", func(c *Config) { c.Search.SimilarityThreshold = 1.2 }, false},
		{"no registry timeout", func(c *Config) { c.Registry.Timeout = 0 }, false},
		{"loop threshold above window", func(c *Config) { c.Questions.LoopThreshold = 9 }, false},
		{"negative workers", func(c *Config) { c.AnalysisWorkers = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
