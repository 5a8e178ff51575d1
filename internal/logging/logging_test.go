package logging

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestBackendLoggerStampsSubsystem(t *testing.T) {
	var buf bytes.Buffer
	b := &Backend{levels: map[string]zerolog.Level{SubsystemMiner: zerolog.InfoLevel}, writer: &buf}
	log := b.Logger(SubsystemMiner)
	log.Info().Msg("found block")

	if !bytes.Contains(buf.Bytes(), []byte(`"subsystem":"MINR"`)) {
		t.Fatalf("expected subsystem tag in output, got %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"message":"found block"`)) {
		t.Fatalf("expected message in output, got %s", buf.String())
	}
}

func TestBackendLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	b := &Backend{levels: map[string]zerolog.Level{SubsystemPeer: zerolog.WarnLevel}, writer: &buf}
	log := b.Logger(SubsystemPeer)
	log.Debug().Msg("should be suppressed")
	log.Info().Msg("should also be suppressed")

	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn level, got %s", buf.String())
	}

	log.Warn().Msg("should appear")
	if !bytes.Contains(buf.Bytes(), []byte("should appear")) {
		t.Fatal("expected warn-level message to be written")
	}
}

func TestSetLevelIgnoresUnknownSubsystem(t *testing.T) {
	b := &Backend{levels: map[string]zerolog.Level{SubsystemRPC: zerolog.InfoLevel}}
	b.SetLevel("NOPE", "debug")
	if _, ok := b.levels["NOPE"]; ok {
		t.Fatal("expected unknown subsystem to be ignored, not created")
	}
}

func TestSetLevelDefaultsToInfoOnInvalidLevelString(t *testing.T) {
	b := &Backend{levels: map[string]zerolog.Level{SubsystemSync: zerolog.ErrorLevel}}
	b.SetLevel(SubsystemSync, "not-a-level")
	if b.levels[SubsystemSync] != zerolog.InfoLevel {
		t.Fatalf("expected fallback to info level, got %v", b.levels[SubsystemSync])
	}
}

func TestSetLevelsAppliesToEverySubsystem(t *testing.T) {
	levels := make(map[string]zerolog.Level, len(allSubsystems))
	for _, tag := range allSubsystems {
		levels[tag] = zerolog.InfoLevel
	}
	b := &Backend{levels: levels}
	b.SetLevels("error")

	for _, tag := range allSubsystems {
		if b.levels[tag] != zerolog.ErrorLevel {
			t.Fatalf("subsystem %s not updated, got %v", tag, b.levels[tag])
		}
	}
}

func TestNewRotatingFileCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "nested", "supernovad.log")
	r, err := NewRotatingFile(logFile, 1024, 3)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer r.Close()
}
