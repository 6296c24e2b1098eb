package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	Debug("debug line")
	Info("info line")
	Warn("warn line", "k", 1)
	Error("error line", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("lines below WARN were written:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] warn line k=1") {
		t.Errorf("missing warn line:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] error line err=boom") {
		t.Errorf("missing error line:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatKVsIgnoresOddAndNonStringKeys(t *testing.T) {
	got := formatKVs("a", 1, 2, "skipped", "b", "x", "dangling")
	if got != " a=1 b=x" {
		t.Errorf("formatKVs() = %q", got)
	}
}
