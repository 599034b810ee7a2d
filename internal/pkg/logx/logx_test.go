package logx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitGlobalLogger_LevelOverride(t *testing.T) {
	InitGlobalLogger(Options{Development: false, Level: "warn"})

	if got := Logger().GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("level = %v, want %v", got, zerolog.WarnLevel)
	}
}

func TestInitGlobalLogger_BadLevelKeepsDefault(t *testing.T) {
	InitGlobalLogger(Options{Development: true, Level: "loud"})

	if got := Logger().GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("level = %v, want %v", got, zerolog.DebugLevel)
	}
}

func TestInitGlobalLogger_WritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	InitGlobalLogger(Options{Dir: dir})
	t.Cleanup(func() { InitGlobalLogger(Options{}) })

	Info("file sink check", "k", "v")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestCheckFields_OddCountDropped(t *testing.T) {
	if got := checkFields("Info", []any{"only-key"}); got != nil {
		t.Errorf("checkFields odd = %v, want nil", got)
	}
	if got := checkFields("Info", []any{"k", 1}); len(got) != 2 {
		t.Errorf("checkFields even len = %d, want 2", len(got))
	}
}
