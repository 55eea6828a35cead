package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/bdia-labs/gaia-bench/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{in: "debug", want: zapcore.DebugLevel},
		{in: "  INFO ", want: zapcore.InfoLevel},
		{in: "warn", want: zapcore.WarnLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "", want: zapcore.InfoLevel},
		{in: "nonsense", want: zapcore.InfoLevel},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Fatalf("ParseLevel(%q): got %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "bench.log")

	log := New(config.LoggingConfig{Level: "debug", File: file})
	log.Info("hello", zapcore.Field{Key: "k", Type: zapcore.StringType, String: "v"})
	if err := log.Sync(); err != nil {
		// Syncing stderr fails on some platforms; the file core is what
		// matters here.
		t.Logf("sync: %v", err)
	}

	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), `"hello"`) {
		t.Fatalf("log file missing entry: %s", b)
	}
	if !strings.Contains(string(b), `"k":"v"`) {
		t.Fatalf("log file missing field: %s", b)
	}
}

func TestNewConsoleOnly(t *testing.T) {
	t.Parallel()

	log := New(config.LoggingConfig{})
	if log == nil {
		t.Fatal("New returned nil")
	}
	log.Debug("filtered at info level")
}
