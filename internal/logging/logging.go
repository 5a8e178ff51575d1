// Package logging wires a per-subsystem structured logging backend in
// front of a rotating log file, the same shape daglabs-btcd's logger
// package uses (SubsystemTags, InitLogRotators, SetLogLevel(s)), but
// backed by github.com/rs/zerolog instead of an in-house leveled-logger
// package, and github.com/jrick/logrotate/rotator for file rotation.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrick/logrotate/rotator"
	"github.com/rs/zerolog"
)

// Subsystem tags, mirroring daglabs-btcd's four-letter SubsystemTags
// convention, narrowed to this repo's components.
const (
	SubsystemChainState = "CHST"
	SubsystemValidate   = "VLDT"
	SubsystemMempool    = "MMPL"
	SubsystemMiner      = "MINR"
	SubsystemPeer       = "PEER"
	SubsystemSync       = "SYNC"
	SubsystemHTLC       = "HTLC"
	SubsystemRPC        = "RPCS"
	SubsystemStorage    = "STOR"
)

var allSubsystems = []string{
	SubsystemChainState, SubsystemValidate, SubsystemMempool, SubsystemMiner,
	SubsystemPeer, SubsystemSync, SubsystemHTLC, SubsystemRPC, SubsystemStorage,
}

// Backend owns the rotating log file and hands out per-subsystem loggers
// that all write to it, with an independent level per subsystem.
type Backend struct {
	rotator *rotator.Rotator
	levels  map[string]zerolog.Level
	writer  io.Writer
}

// NewRotatingFile opens (creating if necessary) a rotator.Rotator over
// logFile, keeping up to maxRolls rolled files of maxSizeBytes each,
// mirroring daglabs-btcd's initLogRotator(logFile) call with its fixed
// 10KiB/3-roll defaults exposed here as parameters instead.
func NewRotatingFile(logFile string, maxSizeBytes int64, maxRolls int) (*rotator.Rotator, error) {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return nil, err
		}
	}
	return rotator.New(logFile, maxSizeBytes, false, maxRolls)
}

// NewBackend constructs a Backend that fans every subsystem logger out to
// both stdout and r, defaulting every subsystem to info level.
func NewBackend(r *rotator.Rotator) *Backend {
	levels := make(map[string]zerolog.Level, len(allSubsystems))
	for _, tag := range allSubsystems {
		levels[tag] = zerolog.InfoLevel
	}
	return &Backend{
		rotator: r,
		levels:  levels,
		writer:  io.MultiWriter(os.Stdout, r),
	}
}

// Logger returns the logger for subsystem tag, stamped with a "subsystem"
// field and filtered to that subsystem's currently configured level.
func (b *Backend) Logger(tag string) zerolog.Logger {
	level := b.levels[tag]
	return zerolog.New(b.writer).Level(level).With().Timestamp().Str("subsystem", tag).Logger()
}

// SetLevel sets the logging level for one subsystem. Unknown subsystem
// tags are ignored; an invalid level string sets the subsystem to info,
// mirroring daglabs-btcd's SetLogLevel's "ignore invalid subsystems,
// default to info" behavior.
func (b *Backend) SetLevel(tag, levelStr string) {
	if _, ok := b.levels[tag]; !ok {
		return
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		level = zerolog.InfoLevel
	}
	b.levels[tag] = level
}

// SetLevels sets every subsystem's level at once. A subsystem with no
// entry in the level map is skipped, not created.
func (b *Backend) SetLevels(levelStr string) {
	for _, tag := range allSubsystems {
		b.SetLevel(tag, levelStr)
	}
}

// Close flushes and closes the underlying rotator.
func (b *Backend) Close() error {
	return b.rotator.Close()
}
