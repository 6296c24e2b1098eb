package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Display.Height != 13 || cfg.Display.Width != 28 {
		t.Errorf("default size = %dx%d, want 13x28", cfg.Display.Height, cfg.Display.Width)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if again.Pins.Col.A3 == nil || !again.Pins.Col.A3.Inverted {
		t.Error("column A3 wiring lost on round trip")
	}
	if again.Pins.Row.A3 != nil {
		t.Error("row A3 should stay unused")
	}
	if !again.Display.ClearOnInit {
		t.Error("clear_on_init lost on round trip")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
display:
  flip_pulse_us: 3000
  sweep: random
  polarity: on-high
backend:
  driver: sim
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Display.FlipPulseUs != 3000 {
		t.Errorf("FlipPulseUs = %d, want 3000", cfg.Display.FlipPulseUs)
	}
	if cfg.Display.Sweep != "random" || cfg.Display.Polarity != "on-high" {
		t.Errorf("sweep/polarity = %q/%q", cfg.Display.Sweep, cfg.Display.Polarity)
	}
	if cfg.Display.RecoveryMs != 5 || !cfg.Display.ClearOnInit {
		t.Errorf("defaults not kept: recovery=%d clear=%v", cfg.Display.RecoveryMs, cfg.Display.ClearOnInit)
	}
	if cfg.Pins.Enable.E2.Line != 25 || !cfg.Pins.Enable.E2.Inverted {
		t.Errorf("default pulse pin = %+v", cfg.Pins.Enable.E2)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad sweep", "display:\n  sweep: spiral\n", "sweep"},
		{"bad polarity", "display:\n  polarity: both\n", "polarity"},
		{"bad driver", "backend:\n  driver: serial\n", "backend"},
		{"bad schedule", "demo:\n  schedule: \"every now and then\"\n", "demo schedule"},
		{"bad level", "log_level: loud\n", "level"},
		{"shared line", "pins:\n  row:\n    a0: {line: 6}\n", "share line"},
		{"not yaml", "display: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	var cfg Config
	cfg.Normalize()
	def := DefaultConfig()
	if cfg.Display.FlipPulseUs != def.Display.FlipPulseUs {
		t.Errorf("FlipPulseUs = %d", cfg.Display.FlipPulseUs)
	}
	if cfg.Backend.Driver != "periph" || cfg.Backend.Chip != "gpiochip0" {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if len(cfg.Demo.Playlist) == 0 {
		t.Error("empty playlist after Normalize")
	}
	if cfg.Battery.FullMv <= cfg.Battery.EmptyMv {
		t.Errorf("battery range %d..%d", cfg.Battery.EmptyMv, cfg.Battery.FullMv)
	}
}

func TestSaveRejectsEmptyInput(t *testing.T) {
	if err := Save("", DefaultConfig()); err == nil {
		t.Error("Save with empty path succeeded")
	}
	if err := Save(filepath.Join(t.TempDir(), "c.yaml"), nil); err == nil {
		t.Error("Save with nil config succeeded")
	}
}
