package logging

import (
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range cases {
		logger := New(tc.level)
		if logger == nil {
			t.Fatalf("New(%q) returned nil", tc.level)
		}
		if !logger.Enabled(nil, tc.want) {
			t.Errorf("New(%q): expected level %v to be enabled", tc.level, tc.want)
		}
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default() returned nil")
	}
	if logger.Enabled(nil, slog.LevelDebug) {
		t.Error("default logger should not enable debug")
	}
}

func TestComponent(t *testing.T) {
	logger := Default().Component("booking")
	if logger == nil {
		t.Fatal("Component() returned nil")
	}
	if logger.Logger == Default().Logger {
		t.Error("Component should return a child logger")
	}
}
