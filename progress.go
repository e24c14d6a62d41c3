package parzip

// ProgressEvent represents a progress update during Finalize.
type ProgressEvent struct {
	// Path is the archive path of the entry just serialized. Empty for
	// the final event emitted after the central directory is written.
	Path string

	// EntriesDone is the number of entries fully written so far.
	EntriesDone int

	// EntriesTotal is the total number of registered entries.
	EntriesTotal int

	// BytesWritten is the number of archive bytes emitted so far.
	BytesWritten uint64
}

// ProgressFunc receives progress updates during Finalize. Events arrive in
// entry order from the serializing goroutine, one per entry plus one final
// event covering the trailing central directory.
type ProgressFunc func(ProgressEvent)
