package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pianoroll/roll"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, roll.DefaultLayout(), cfg.Layout())
	assert.Equal(t, roll.Sixteenth, cfg.Subdivision())
	assert.Equal(t, 4.0, cfg.PlaybackTempo().SecondsPerMeasure())
	assert.Equal(t, Duration(3*time.Second), cfg.Synth.ActivateTimeout)
}

func TestLoadFromTOMLKeepsUnsetDefaults(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "go-pianoroll")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	content := []byte(`
[grid]
end_octave = 5
subdivisions = 8

[synth]
port = "FluidSynth"
activate_timeout = "750ms"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), content, 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Grid.EndOctave)
	assert.Equal(t, 2, cfg.Grid.StartOctave)
	assert.Equal(t, 37, cfg.Layout().TotalKeys())
	assert.Equal(t, roll.Eighth, cfg.Subdivision())
	assert.Equal(t, "FluidSynth", cfg.Synth.Port)
	assert.Equal(t, 1, cfg.Synth.Channel)
	assert.Equal(t, Duration(750*time.Millisecond), cfg.Synth.ActivateTimeout)
}

func TestLoadRejectsInvalidSubdivision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[grid]\nsubdivisions = 3\n"), 0o600))

	_, err := LoadFrom(path)
	assert.ErrorIs(t, err, ErrInvalidSubdivision)
}

func TestLoadRejectsBadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[grid]\nstart_octave = 6\nend_octave = 3\n"), 0o600))

	_, err := LoadFrom(path)
	assert.ErrorIs(t, err, roll.ErrInvalidLayout)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[grid\n"), 0o600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Synth.Channel = 17
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Synth.Velocity = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Tempo.BPM = 0
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Grid.Subdivisions = 4
	cfg.Synth.Port = "Midi Through"
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
