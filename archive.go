package parzip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/meigma/parzip/internal/sched"
	"github.com/meigma/parzip/internal/sizing"
	"github.com/meigma/parzip/internal/zipfmt"
	"github.com/meigma/parzip/internal/ziptype"
)

// DefaultLevel is the flate compression level used when no WithLevel option
// is set.
const DefaultLevel = flate.BestCompression

// maxEntries is the largest entry count the 16-bit end-of-central-directory
// count field can record.
const maxEntries = math.MaxUint16

// Archive builds a zip archive whose entries are compressed in parallel on
// a caller-supplied executor. Entries are registered one at a time, then
// Finalize compresses them concurrently and writes the archive; the output
// bytes are identical regardless of worker count or completion order.
//
// An Archive is a single-threaded builder: registration calls must not race
// with each other or with Finalize. Finalize consumes the builder.
type Archive struct {
	exec      Executor
	cfg       archiveConfig
	entries   []ziptype.Entry
	paths     map[string]struct{}
	finalized bool
}

// New creates an archive builder submitting compression work to exec.
// The executor is the builder's only external dependency; it is borrowed,
// never owned, so one pool can back several builders.
func New(exec Executor, opts ...Option) (*Archive, error) {
	if exec == nil {
		return nil, errors.New("parzip: nil executor")
	}
	cfg := archiveConfig{level: DefaultLevel}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.levelSet && (cfg.level < flate.HuffmanOnly || cfg.level > flate.BestCompression) {
		return nil, fmt.Errorf("parzip: invalid compression level %d", cfg.level)
	}
	if _, err := sizing.ToUint16(len(cfg.comment), ErrLimitExceeded); err != nil {
		return nil, fmt.Errorf("comment length: %w", err)
	}
	return &Archive{
		exec:  exec,
		cfg:   cfg,
		paths: make(map[string]struct{}),
	}, nil
}

// AddFile registers the file at fsPath under archivePath. The file is not
// opened until Finalize; its mode and modification time are read then,
// unless overridden with WithMode or WithModTime.
func (a *Archive) AddFile(fsPath, archivePath string, opts ...EntryOption) error {
	name, err := a.validatePath(archivePath, false)
	if err != nil {
		return err
	}
	return a.append(ziptype.Entry{
		Path:   name,
		Kind:   ziptype.SourceFile,
		FSPath: fsPath,
	}, opts)
}

// AddBytes registers data under archivePath. The slice is not copied; the
// caller must not mutate it until Finalize returns.
func (a *Archive) AddBytes(data []byte, archivePath string, opts ...EntryOption) error {
	name, err := a.validatePath(archivePath, false)
	if err != nil {
		return err
	}
	return a.append(ziptype.Entry{
		Path: name,
		Kind: ziptype.SourceSlice,
		Data: data,
	}, opts)
}

// AddDir registers a directory marker. The name is normalized to end with
// "/"; the entry is written as a zero-length Store record.
func (a *Archive) AddDir(archivePath string, opts ...EntryOption) error {
	name, err := a.validatePath(archivePath, true)
	if err != nil {
		return err
	}
	return a.append(ziptype.Entry{
		Path: name,
		Kind: ziptype.SourceDir,
	}, opts)
}

// Len returns the number of registered entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Paths iterates over the registered archive paths in insertion order.
func (a *Archive) Paths() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range a.entries {
			if !yield(a.entries[i].Path) {
				return
			}
		}
	}
}

// validatePath normalizes and validates an archive path, returning the name
// to register. Backslashes become forward slashes and directory names gain
// a trailing "/". Validation failures leave the registry unchanged.
func (a *Archive) validatePath(archivePath string, isDir bool) (string, error) {
	if a.finalized {
		return "", ErrFinalized
	}
	name := strings.ReplaceAll(archivePath, `\`, "/")
	if name == "" || name == "/" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	if isDir {
		if !strings.HasSuffix(name, "/") {
			name += "/"
		}
	} else if strings.HasSuffix(name, "/") {
		return "", fmt.Errorf("%w: file name %q ends with /", ErrInvalidPath, name)
	}
	if _, err := sizing.ToUint16(len(name), ErrInvalidPath); err != nil {
		return "", fmt.Errorf("%w: name longer than 65535 bytes", ErrInvalidPath)
	}
	if _, ok := a.paths[name]; ok {
		return "", fmt.Errorf("%w: %q", ErrDuplicatePath, name)
	}
	return name, nil
}

// append applies entry options, assigns the insertion ID, and registers the
// entry.
func (a *Archive) append(entry ziptype.Entry, opts []EntryOption) error {
	if len(a.entries) >= maxEntries {
		return fmt.Errorf("%w: more than %d entries", ErrLimitExceeded, maxEntries)
	}

	var cfg entryConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	entry.Method = ziptype.Deflate
	if entry.Kind == ziptype.SourceDir {
		entry.Method = ziptype.Store
	} else if cfg.methodSet {
		entry.Method = cfg.method
	}
	entry.ModTime = cfg.modTime
	entry.ModTimeSet = cfg.modTimeSet
	entry.Mode = cfg.mode
	entry.ModeSet = cfg.modeSet
	entry.ID = uint64(len(a.entries))

	a.entries = append(a.entries, entry)
	a.paths[entry.Path] = struct{}{}
	return nil
}

// Finalize compresses every registered entry on the executor and writes the
// complete archive to dst. The call is synchronous: it returns once the
// end-of-central-directory record has been written, or with the first error
// in archive order. On error the bytes already flushed to dst are
// unspecified; the caller should discard or truncate the destination.
//
// Finalize consumes the builder. Further adds or a second Finalize return
// ErrFinalized.
func (a *Archive) Finalize(ctx context.Context, dst io.Writer) error {
	if a.finalized {
		return ErrFinalized
	}
	a.finalized = true
	entries := a.entries
	a.entries = nil
	a.paths = nil

	a.log().Debug("finalizing archive", "entries", len(entries), "level", a.cfg.level)

	w := zipfmt.NewWriter(dst)
	if a.cfg.comment != "" {
		if err := w.SetComment(a.cfg.comment); err != nil {
			return err
		}
	}

	s := sched.New(a.exec, sched.Config{
		Level:      a.cfg.level,
		MaxPending: a.cfg.maxPending,
		Logger:     a.cfg.logger,
	})
	sink := &serializeSink{w: w, progress: a.cfg.progress, total: len(entries)}
	if err := s.Run(ctx, entries, sink); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	a.log().Debug("archive written", "entries", len(entries), "bytes", w.Offset())
	if a.cfg.progress != nil {
		a.cfg.progress(ProgressEvent{
			EntriesDone:  len(entries),
			EntriesTotal: len(entries),
			BytesWritten: w.Offset(),
		})
	}
	return nil
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.cfg.logger
}

// serializeSink adapts the zip writer to the scheduler's sink, reporting
// progress after each entry lands.
type serializeSink struct {
	w        *zipfmt.Writer
	progress ProgressFunc
	done     int
	total    int
}

// Consume writes one result in order and releases its payload.
func (s *serializeSink) Consume(res *ziptype.Result) error {
	if err := s.w.WriteEntry(res); err != nil {
		return err
	}
	res.Data = nil
	s.done++
	if s.progress != nil {
		s.progress(ProgressEvent{
			Path:         res.Path,
			EntriesDone:  s.done,
			EntriesTotal: s.total,
			BytesWritten: s.w.Offset(),
		})
	}
	return nil
}

var _ sched.Sink = (*serializeSink)(nil)
