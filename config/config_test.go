package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, uint32(4), cfg.Trace.SamplesPerBatch)
	assert.Equal(t, "random", cfg.Trace.HitGroupPolicy)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[window]
width = 1920
height = 1080

[trace]
samples_per_batch = 16
hit_group_policy = "first"
hit_group_seed = 7

[shaders]
hit = ["a.spv", "b.spv"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, uint32(16), cfg.Trace.SamplesPerBatch)
	assert.Equal(t, "first", cfg.Trace.HitGroupPolicy)
	assert.Equal(t, int64(7), cfg.Trace.HitGroupSeed)
	assert.Equal(t, []string{"a.spv", "b.spv"}, cfg.Shaders.Hit)

	// Untouched sections keep their defaults.
	assert.Equal(t, "prism", cfg.Window.Title)
	assert.True(t, cfg.Vulkan.Validation)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("window = {"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
