package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsAreValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("PROGDEX_CONFIG", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progdex.yaml")
	data := `
quantize:
  window_width: 4
  overlap_threshold: 0.5
key:
  profile: temperley
log:
  level: debug
`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(4.0, cfg.Quantize.WindowWidth)
	assert.Equal(0.5, cfg.Quantize.OverlapThreshold)
	assert.Equal(0.5, cfg.Quantize.OnsetMargin)
	assert.Equal(16.0, cfg.Key.WindowSize)
	assert.Equal("temperley", cfg.Key.Profile)
	assert.Equal("debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for _, data := range []string{
		"quantize:\n  window_width: 0\n",
		"quantize:\n  max_windows: 0\n",
	} {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		assert.NoError(t, os.WriteFile(path, []byte(data), 0644))

		_, err := Load(path)
		assert.Error(t, err, data)
	}
}
