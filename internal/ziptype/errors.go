package ziptype

import "errors"

// Sentinel errors shared between the scheduler and the serializer. The root
// package re-exports them for callers.
var (
	// ErrSourceRead is returned when a filesystem source cannot be opened
	// or read during compression.
	ErrSourceRead = errors.New("parzip: source read")

	// ErrCompression is returned when the compressor fails.
	ErrCompression = errors.New("parzip: compression")

	// ErrSinkWrite is returned when writing to the destination fails.
	ErrSinkWrite = errors.New("parzip: sink write")

	// ErrLimitExceeded is returned when a count, size, or offset exceeds
	// what the zip format can represent without zip64.
	ErrLimitExceeded = errors.New("parzip: format limit exceeded")
)
