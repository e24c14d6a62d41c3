// Package zipfmt writes the zip binary format: local file headers followed
// by entry payloads, then the central directory and the end-of-central-
// directory record. All integer fields are little-endian and 32 bits or
// narrower; sizes, offsets, and counts that cannot be represented fail with
// the format limit error rather than producing a corrupt archive (zip64 is
// not supported).
package zipfmt

// Record signatures and fixed header fields.
const (
	// LocalHeaderSignature introduces each entry's local file header.
	LocalHeaderSignature = 0x04034b50

	// DirectoryHeaderSignature introduces each central directory record.
	DirectoryHeaderSignature = 0x02014b50

	// EOCDSignature introduces the end-of-central-directory record.
	EOCDSignature = 0x06054b50

	// VersionNeeded is the minimum zip version required to extract
	// (2.0, deflate and directory support).
	VersionNeeded = 20

	// VersionMadeBy records a Unix origin (high byte 3) and spec 6.3.
	VersionMadeBy = 0x033f
)

// Fixed record lengths, excluding variable-length name and comment bytes.
const (
	localHeaderLen     = 30
	directoryHeaderLen = 46
	eocdLen            = 22
)
