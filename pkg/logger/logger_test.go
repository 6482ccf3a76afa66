package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"info":    InfoLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestLevelString(t *testing.T) {
	for _, l := range []Level{DebugLevel, InfoLevel, WarnLevel, ErrorLevel} {
		if ParseLevel(l.String()) != l {
			t.Errorf("level %d does not round-trip through String", l)
		}
	}
}

func TestLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sidechain.log")
	log := New(&Config{Level: InfoLevel, Format: "json", Output: path})

	log.Info("selection complete", "profile_id", "p1")
	if err := log.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), "selection complete") {
		t.Errorf("log file missing message: %s", data)
	}
	if !strings.Contains(string(data), `"profile_id":"p1"`) {
		t.Errorf("log file missing attribute: %s", data)
	}
}

func TestLogger_LevelFilteringAndTracking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sidechain.log")
	log := New(&Config{Level: ErrorLevel, Format: "json", Output: path})

	log.Info("should be filtered")
	log.Error("should appear")

	sl, ok := log.(*SlogLogger)
	if !ok {
		t.Fatal("expected *SlogLogger")
	}
	if sl.Level() != ErrorLevel {
		t.Errorf("expected ErrorLevel, got %s", sl.Level())
	}

	sl.SetLevel(DebugLevel)
	if sl.Level() != DebugLevel {
		t.Errorf("SetLevel not tracked, got %s", sl.Level())
	}
	log.Debug("now visible")
	_ = log.Close()

	data, _ := os.ReadFile(path)
	text := string(data)
	if strings.Contains(text, "should be filtered") {
		t.Error("info line must be filtered at error level")
	}
	if !strings.Contains(text, "should appear") {
		t.Error("error line missing")
	}
	if !strings.Contains(text, "now visible") {
		t.Error("debug line missing after SetLevel")
	}
}

func TestLogger_WithSharesLevelNotCloser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sidechain.log")
	log := New(&Config{Level: InfoLevel, Format: "json", Output: path})
	derived := log.With("component", "memory")

	if err := derived.Close(); err != nil {
		t.Fatalf("derived close must be a no-op, got %v", err)
	}
	derived.Info("from derived")
	if err := log.Close(); err != nil {
		t.Fatalf("owner close failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"component":"memory"`) {
		t.Errorf("derived attributes missing: %s", data)
	}
}
