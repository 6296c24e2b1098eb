package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"flipdot/internal/flipdot"
	appLog "flipdot/internal/log"
)

// NOTE: Load creates the file with defaults on first run; Save writes
// atomically with 0600 permissions.

// Pin describes one GPIO line. Line is the BCM number for the periph
// backend and the line offset on Backend.Chip for gpiocdev.
type Pin struct {
	Line     int  `yaml:"line"`
	Inverted bool `yaml:"inverted,omitempty"`
}

// DecoderPins wires a 74HC4514. A3 is omitted on the 8-output row decoder.
type DecoderPins struct {
	A0 Pin  `yaml:"a0"`
	A1 Pin  `yaml:"a1"`
	A2 Pin  `yaml:"a2"`
	A3 *Pin `yaml:"a3,omitempty"`
}

// EnablePins wires the 74HC139.
type EnablePins struct {
	G1A0 Pin `yaml:"1a0"`
	G1A1 Pin `yaml:"1a1"`
	G2A0 Pin `yaml:"2a0"`
	G2A1 Pin `yaml:"2a1"`
	E1   Pin `yaml:"1e"`
	E2   Pin `yaml:"2e"`
}

// Pins is the full wiring of the driver board.
type Pins struct {
	Row    DecoderPins `yaml:"row"`
	Col    DecoderPins `yaml:"col"`
	Enable EnablePins  `yaml:"enable"`
}

// Display holds panel geometry and flip timing.
type Display struct {
	Height int `yaml:"height"`
	Width  int `yaml:"width"`

	// FlipPulseUs is the enable pulse width in microseconds. 2000-3000 is
	// the working range of the reference coils.
	FlipPulseUs int `yaml:"flip_pulse_us"`
	// RecoveryMs is the pause after every pulse.
	RecoveryMs int `yaml:"recovery_ms"`
	// SettleMs is the pause after power-on configuration of the decoders.
	SettleMs int `yaml:"settle_ms"`

	// Sweep is one of "row", "column", "random", "diagonal".
	Sweep string `yaml:"sweep"`
	// Polarity is "on-low" (outputs 1-7 turn a dot on) or "on-high".
	Polarity string `yaml:"polarity"`

	ClearOnInit bool `yaml:"clear_on_init"`

	// RandomSeed seeds the random sweep. Zero means time-based.
	RandomSeed int64 `yaml:"random_seed,omitempty"`
}

// Backend selects how GPIO lines are opened.
//   - "periph"   periph.io host drivers, lines by BCM name
//   - "gpiocdev" Linux GPIO character device
//   - "sim"      in-memory lines, nothing touches hardware
type Backend struct {
	Driver string `yaml:"driver"`
	Chip   string `yaml:"chip,omitempty"`
}

// Demo controls the built-in pattern playlist.
type Demo struct {
	Playlist []string `yaml:"playlist"`
	// Schedule is a cron expression; each tick advances the playlist.
	Schedule string `yaml:"schedule"`
	// FrameMs is the delay between frames of animated patterns.
	FrameMs int `yaml:"frame_ms"`
	// Text is shown by the "text" pattern.
	Text string `yaml:"text"`
	// IconPath is an SVG file shown by the "icon" pattern. Empty uses the
	// built-in icon.
	IconPath string `yaml:"icon_path,omitempty"`
}

// Battery configures the I2C battery monitor.
type Battery struct {
	Enabled  bool   `yaml:"enabled"`
	Bus      string `yaml:"bus,omitempty"`
	Addr     uint16 `yaml:"addr"`
	Schedule string `yaml:"schedule"`
	EmptyMv  int    `yaml:"empty_mv"`
	FullMv   int    `yaml:"full_mv"`
}

// Config is the top-level application configuration.
type Config struct {
	LogLevel string  `yaml:"log_level"`
	Display  Display `yaml:"display"`
	Backend  Backend `yaml:"backend"`
	Pins     Pins    `yaml:"pins"`
	Demo     Demo    `yaml:"demo"`
	Battery  Battery `yaml:"battery"`
}

// DefaultPins is the reference wiring on a Raspberry Pi header (BCM
// numbering). The column A3 and pulse lines pass through inverting
// buffers on the driver board.
func DefaultPins() Pins {
	return Pins{
		Row: DecoderPins{
			A0: Pin{Line: 5},
			A1: Pin{Line: 6},
			A2: Pin{Line: 13},
		},
		Col: DecoderPins{
			A0: Pin{Line: 19},
			A1: Pin{Line: 26},
			A2: Pin{Line: 16},
			A3: &Pin{Line: 20, Inverted: true},
		},
		Enable: EnablePins{
			G1A0: Pin{Line: 17},
			G1A1: Pin{Line: 27},
			G2A0: Pin{Line: 22},
			G2A1: Pin{Line: 23},
			E1:   Pin{Line: 24},
			E2:   Pin{Line: 25, Inverted: true},
		},
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Display: Display{
			Height:      flipdot.DefaultHeight,
			Width:       flipdot.DefaultWidth,
			FlipPulseUs: 2500,
			RecoveryMs:  5,
			SettleMs:    200,
			Sweep:       "row",
			Polarity:    "on-low",
			ClearOnInit: true,
		},
		Backend: Backend{
			Driver: "periph",
			Chip:   "gpiochip0",
		},
		Pins: DefaultPins(),
		Demo: Demo{
			Playlist: []string{"border", "checkerboard", "text", "rings", "icon", "wipe", "noise", "clear"},
			Schedule: "@every 1m",
			FrameMs:  120,
			Text:     "HELLO FLIPDOT",
		},
		Battery: Battery{
			Enabled:  false,
			Addr:     0x40,
			Schedule: "@every 5m",
			EmptyMv:  3300,
			FullMv:   4200,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Display.Height <= 0 {
		c.Display.Height = def.Display.Height
	}
	if c.Display.Width <= 0 {
		c.Display.Width = def.Display.Width
	}
	if c.Display.FlipPulseUs <= 0 {
		c.Display.FlipPulseUs = def.Display.FlipPulseUs
	}
	if c.Display.RecoveryMs <= 0 {
		c.Display.RecoveryMs = def.Display.RecoveryMs
	}
	if c.Display.SettleMs < 0 {
		c.Display.SettleMs = def.Display.SettleMs
	}
	if c.Display.Sweep == "" {
		c.Display.Sweep = def.Display.Sweep
	}
	if c.Display.Polarity == "" {
		c.Display.Polarity = def.Display.Polarity
	}
	if c.Backend.Driver == "" {
		c.Backend.Driver = def.Backend.Driver
	}
	if c.Backend.Chip == "" {
		c.Backend.Chip = def.Backend.Chip
	}
	if c.Demo.Playlist == nil {
		c.Demo.Playlist = def.Demo.Playlist
	}
	if c.Demo.Schedule == "" {
		c.Demo.Schedule = def.Demo.Schedule
	}
	if c.Demo.FrameMs <= 0 {
		c.Demo.FrameMs = def.Demo.FrameMs
	}
	if c.Demo.Text == "" {
		c.Demo.Text = def.Demo.Text
	}
	if c.Battery.Addr == 0 {
		c.Battery.Addr = def.Battery.Addr
	}
	if c.Battery.Schedule == "" {
		c.Battery.Schedule = def.Battery.Schedule
	}
	if c.Battery.EmptyMv <= 0 {
		c.Battery.EmptyMv = def.Battery.EmptyMv
	}
	if c.Battery.FullMv <= c.Battery.EmptyMv {
		c.Battery.FullMv = def.Battery.FullMv
	}
}

// Validate reports values that Normalize cannot repair.
func (c *Config) Validate() error {
	var errs []error

	if _, err := appLog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if _, err := flipdot.ParseSweepMode(c.Display.Sweep); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if _, err := flipdot.ParsePolarity(c.Display.Polarity); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	switch c.Backend.Driver {
	case "periph", "gpiocdev", "sim":
	default:
		errs = append(errs, fmt.Errorf("config: unknown backend driver %q", c.Backend.Driver))
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Demo.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("config: demo schedule %q: %w", c.Demo.Schedule, err))
	}
	if c.Battery.Enabled {
		if _, err := parser.Parse(c.Battery.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("config: battery schedule %q: %w", c.Battery.Schedule, err))
		}
	}

	seen := map[int]string{}
	for name, p := range c.Pins.All() {
		if p.Line < 0 {
			errs = append(errs, fmt.Errorf("config: pin %s has negative line %d", name, p.Line))
			continue
		}
		if other, dup := seen[p.Line]; dup {
			errs = append(errs, fmt.Errorf("config: pins %s and %s share line %d", other, name, p.Line))
			continue
		}
		seen[p.Line] = name
	}

	return errors.Join(errs...)
}

// All returns every configured pin keyed by its dotted name. An omitted A3
// is left out.
func (p *Pins) All() map[string]Pin {
	out := map[string]Pin{
		"row.a0":     p.Row.A0,
		"row.a1":     p.Row.A1,
		"row.a2":     p.Row.A2,
		"col.a0":     p.Col.A0,
		"col.a1":     p.Col.A1,
		"col.a2":     p.Col.A2,
		"enable.1a0": p.Enable.G1A0,
		"enable.1a1": p.Enable.G1A1,
		"enable.2a0": p.Enable.G2A0,
		"enable.2a1": p.Enable.G2A1,
		"enable.1e":  p.Enable.E1,
		"enable.2e":  p.Enable.E2,
	}
	if p.Row.A3 != nil {
		out["row.a3"] = *p.Row.A3
	}
	if p.Col.A3 != nil {
		out["col.a3"] = *p.Col.A3
	}
	return out
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Keys missing from the file keep their default values.
	cfg := *DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".flipdot-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
