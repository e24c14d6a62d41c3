// Package ziptype holds the types shared between the archive builder, the
// compression scheduler, and the zip serializer.
package ziptype

import (
	"io/fs"
	"time"
)

// Method identifies the zip compression method recorded for an entry.
type Method uint16

const (
	// Store writes bytes without compression. Used for directory markers.
	Store Method = 0

	// Deflate compresses bytes with the DEFLATE algorithm. The default for
	// file entries.
	Deflate Method = 8
)

// String returns the human-readable name of the compression method.
func (m Method) String() string {
	switch m {
	case Store:
		return "store"
	case Deflate:
		return "deflate"
	default:
		return "unknown"
	}
}

// SourceKind identifies where an entry's bytes come from.
type SourceKind uint8

const (
	// SourceSlice reads from an in-memory byte slice.
	SourceSlice SourceKind = iota

	// SourceFile reads from the filesystem at compression time.
	SourceFile

	// SourceDir is a directory marker with no bytes.
	SourceDir
)

// Entry is a registered archive member awaiting compression.
//
// Entries are created by the builder on the caller's goroutine and are
// read-only afterwards; compression tasks and the serializer never mutate
// them.
type Entry struct {
	// ID is the insertion index, assigned by the registry. Strictly
	// increasing and immutable; the serializer consumes results in
	// ascending ID order.
	ID uint64

	// Path is the validated archive path. Directory paths end in "/".
	Path string

	// Kind selects which source field below is populated.
	Kind SourceKind

	// FSPath is the filesystem path to read, for SourceFile entries.
	// It is opened inside the compression task, never at registration.
	FSPath string

	// Data is the payload for SourceSlice entries.
	Data []byte

	// Method is the compression method to apply. Directories are always
	// Store.
	Method Method

	// ModTime is the modification time to record. The zero value means
	// unset; SourceFile entries then use the file's own mtime and other
	// entries encode the zip zero timestamp.
	ModTime time.Time

	// ModTimeSet reports whether ModTime was set explicitly.
	ModTimeSet bool

	// Mode is the permission mode to record in the external attributes.
	Mode fs.FileMode

	// ModeSet reports whether Mode was set explicitly. When false,
	// SourceFile entries use the file's own mode and other entries fall
	// back to 0o644 (files) or 0o755 (directories).
	ModeSet bool
}

// Result is the output of one compression task.
//
// Produced exactly once per entry by the scheduler and consumed exactly once
// by the serializer, in ascending EntryID order.
type Result struct {
	// EntryID is a back-reference to the entry's insertion index.
	EntryID uint64

	// Path is the archive path, carried so the serializer never touches
	// the registry.
	Path string

	// Method is the method actually used.
	Method Method

	// CRC32 is the IEEE CRC-32 of the uncompressed bytes.
	CRC32 uint32

	// UncompressedSize is the number of source bytes consumed.
	UncompressedSize uint64

	// CompressedSize is len(Data).
	CompressedSize uint64

	// Data is the compressed payload, owned by the result until the
	// serializer writes and releases it.
	Data []byte

	// Mode is the resolved permission mode. For filesystem sources this
	// is read from the file during the task unless overridden at
	// registration.
	Mode fs.FileMode

	// IsDir marks directory-marker results.
	IsDir bool

	// ModTime is the resolved modification time. Zero encodes as the zip
	// zero timestamp.
	ModTime time.Time
}
