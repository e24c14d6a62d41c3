package parzip

import (
	"io/fs"
	"log/slog"
	"time"
)

// archiveConfig holds configuration for the builder.
type archiveConfig struct {
	level      int
	levelSet   bool
	maxPending int
	logger     *slog.Logger
	progress   ProgressFunc
	comment    string
}

// Option configures the archive builder.
type Option func(*archiveConfig)

// WithLevel sets the flate compression level for Deflate entries, from -2
// (Huffman only) through 9 (best compression). The default is 9. New rejects
// levels outside the flate range.
func WithLevel(level int) Option {
	return func(cfg *archiveConfig) {
		cfg.level = level
		cfg.levelSet = true
	}
}

// WithMaxPending bounds how many entries may be submitted for compression
// but not yet serialized, which caps peak buffered memory. Zero uses the
// default of 64; negative removes the bound.
func WithMaxPending(n int) Option {
	return func(cfg *archiveConfig) {
		cfg.maxPending = n
	}
}

// WithLogger sets the logger for debug events. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *archiveConfig) {
		cfg.logger = logger
	}
}

// WithProgress sets a callback invoked as entries are serialized.
func WithProgress(fn ProgressFunc) Option {
	return func(cfg *archiveConfig) {
		cfg.progress = fn
	}
}

// WithComment sets the archive comment recorded in the end-of-central-
// directory record. Limited to 65535 bytes; New rejects longer comments.
func WithComment(comment string) Option {
	return func(cfg *archiveConfig) {
		cfg.comment = comment
	}
}

// entryConfig holds per-entry metadata overrides.
type entryConfig struct {
	modTime    time.Time
	modTimeSet bool
	mode       fs.FileMode
	modeSet    bool
	method     Method
	methodSet  bool
}

// EntryOption configures a single entry at registration.
type EntryOption func(*entryConfig)

// WithModTime sets the modification time recorded for the entry. Without
// it, filesystem entries record the file's own mtime and other entries
// record no timestamp.
func WithModTime(t time.Time) EntryOption {
	return func(cfg *entryConfig) {
		cfg.modTime = t
		cfg.modTimeSet = true
	}
}

// WithMode sets the Unix permission bits recorded for the entry. Without
// it, filesystem entries record the file's own mode and other entries fall
// back to 0o644 (files) or 0o755 (directories).
func WithMode(mode fs.FileMode) EntryOption {
	return func(cfg *entryConfig) {
		cfg.mode = mode
		cfg.modeSet = true
	}
}

// WithMethod overrides the compression method for a file entry, e.g. Store
// for already-compressed payloads. Directories are always Store; AddDir
// ignores this option.
func WithMethod(m Method) EntryOption {
	return func(cfg *entryConfig) {
		cfg.method = m
		cfg.methodSet = true
	}
}
