package bfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DecodesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bfs.toml")
	contents := "num_cpus = 4\nrr_interval_ms = 8\nsched_iso_cpu = 30\nos_thread_affinity = true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.NumCPUs)
	assert.Equal(t, 8, cfg.RRIntervalMS)
	assert.Equal(t, 30, cfg.ISOCPUPercent)
	assert.True(t, cfg.OSThreadAffinity)
}

func TestFileConfig_OptionsSkipsZeroFields(t *testing.T) {
	cfg := &FileConfig{NumCPUs: 2}
	opts := cfg.Options()
	require.Len(t, opts, 1)

	resolved, err := resolveOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, 2, resolved.numCPUs)
	assert.Equal(t, defaultRRIntervalMS, resolved.rrIntervalMS)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
