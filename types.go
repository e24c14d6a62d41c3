package parzip

import "github.com/meigma/parzip/internal/ziptype"

// Method identifies the zip compression method recorded for an entry.
type Method = ziptype.Method

// Compression methods.
const (
	// Store writes bytes without compression. Always used for
	// directories.
	Store = ziptype.Store

	// Deflate compresses bytes with the DEFLATE algorithm. The default
	// for files.
	Deflate = ziptype.Deflate
)
