package parzip

import (
	"errors"

	"github.com/meigma/parzip/internal/ziptype"
)

// Sentinel errors raised by the builder itself.
var (
	// ErrInvalidPath is returned when an archive path is empty, malformed,
	// or too long to encode.
	ErrInvalidPath = errors.New("parzip: invalid archive path")

	// ErrDuplicatePath is returned when an archive path is already
	// registered.
	ErrDuplicatePath = errors.New("parzip: duplicate archive path")

	// ErrFinalized is returned when a builder is used after Finalize has
	// consumed it.
	ErrFinalized = errors.New("parzip: archive already finalized")
)

// Errors re-exported from the internal packages.
var (
	// ErrSourceRead is returned when a filesystem source cannot be opened
	// or read during compression.
	ErrSourceRead = ziptype.ErrSourceRead

	// ErrCompression is returned when the compressor fails.
	ErrCompression = ziptype.ErrCompression

	// ErrSinkWrite is returned when writing to the destination fails.
	ErrSinkWrite = ziptype.ErrSinkWrite

	// ErrLimitExceeded is returned when a count, size, or offset exceeds
	// what the zip format can represent without zip64.
	ErrLimitExceeded = ziptype.ErrLimitExceeded
)
