package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"go-pianoroll/playback"
	"go-pianoroll/roll"
)

var ErrInvalidSubdivision = errors.New("invalid grid subdivision")

// GridConfig is the editing surface geometry
type GridConfig struct {
	StartOctave  int     `toml:"start_octave"`
	EndOctave    int     `toml:"end_octave"`
	MeasureWidth float64 `toml:"measure_width"`
	Measures     int     `toml:"measures"`
	RowHeight    float64 `toml:"row_height"`
	Subdivisions int     `toml:"subdivisions"`
}

// TempoConfig is fixed for the whole session
type TempoConfig struct {
	BPM             float64 `toml:"bpm"`
	BeatsPerMeasure int     `toml:"beats_per_measure"`
}

// SynthConfig defines the MIDI output used for playback
type SynthConfig struct {
	Port            string   `toml:"port"`
	Channel         int      `toml:"channel"`
	Velocity        int      `toml:"velocity"`
	ActivateTimeout Duration `toml:"activate_timeout"`
}

// LoggingConfig controls the debug log
type LoggingConfig struct {
	Level string `toml:"level"`
	Debug bool   `toml:"debug"`
}

// Config is the main configuration structure
type Config struct {
	Grid    GridConfig    `toml:"grid"`
	Tempo   TempoConfig   `toml:"tempo"`
	Synth   SynthConfig   `toml:"synth"`
	Logging LoggingConfig `toml:"logging"`
}

// Duration reads "3s"-style strings
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	l := roll.DefaultLayout()
	t := playback.DefaultTempo()
	return &Config{
		Grid: GridConfig{
			StartOctave:  l.StartOctave,
			EndOctave:    l.EndOctave,
			MeasureWidth: l.MeasureWidth,
			Measures:     l.Measures,
			RowHeight:    l.RowHeight,
			Subdivisions: int(roll.Sixteenth),
		},
		Tempo: TempoConfig{
			BPM:             t.BPM,
			BeatsPerMeasure: t.BeatsPerMeasure,
		},
		Synth: SynthConfig{
			Channel:         1,
			Velocity:        100,
			ActivateTimeout: Duration(3 * time.Second),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-pianoroll"), nil
}

// ConfigPath returns the full path to config.toml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file. Keys missing from the file keep their
// defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating the directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := c.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Encode renders the config as TOML
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate rejects values the editor cannot work with
func (c *Config) Validate() error {
	if err := c.Layout().Validate(); err != nil {
		return err
	}
	if !roll.Subdivision(c.Grid.Subdivisions).Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSubdivision, c.Grid.Subdivisions)
	}
	if c.Tempo.BPM <= 0 || c.Tempo.BeatsPerMeasure <= 0 {
		return fmt.Errorf("invalid tempo %g bpm, %d beats per measure", c.Tempo.BPM, c.Tempo.BeatsPerMeasure)
	}
	if c.Synth.Channel < 1 || c.Synth.Channel > 16 {
		return fmt.Errorf("synth channel %d outside 1-16", c.Synth.Channel)
	}
	if c.Synth.Velocity < 1 || c.Synth.Velocity > 127 {
		return fmt.Errorf("synth velocity %d outside 1-127", c.Synth.Velocity)
	}
	return nil
}

// Layout converts the grid section
func (c *Config) Layout() roll.Layout {
	return roll.Layout{
		StartOctave:  c.Grid.StartOctave,
		EndOctave:    c.Grid.EndOctave,
		MeasureWidth: c.Grid.MeasureWidth,
		Measures:     c.Grid.Measures,
		RowHeight:    c.Grid.RowHeight,
	}
}

func (c *Config) Subdivision() roll.Subdivision {
	return roll.Subdivision(c.Grid.Subdivisions)
}

func (c *Config) PlaybackTempo() playback.Tempo {
	return playback.Tempo{BPM: c.Tempo.BPM, BeatsPerMeasure: c.Tempo.BeatsPerMeasure}
}
