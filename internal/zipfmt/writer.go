package zipfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/parzip/internal/sizing"
	"github.com/meigma/parzip/internal/ziptype"
)

// Writer serializes compression results into a zip stream. It exclusively
// owns the destination: every byte of the archive passes through it, and the
// running offset it keeps is the source of truth for the local-header
// offsets recorded in the central directory.
//
// WriteEntry must be called in ascending entry order; Close writes the
// central directory and end-of-central-directory record. The Writer never
// opens files and never mutates entries.
type Writer struct {
	dst     io.Writer
	offset  uint64
	dir     []dirRecord
	comment string
	closed  bool
}

// dirRecord is one central directory record, validated and encoded when its
// entry was written.
type dirRecord struct {
	path     string
	method   uint16
	modDate  uint16
	modTime  uint16
	crc32    uint32
	csize    uint32
	usize    uint32
	extAttrs uint32
	offset   uint32
}

// NewWriter creates a Writer emitting to dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst}
}

// SetComment sets the archive comment written in the end-of-central-
// directory record. The comment field length is 16 bits.
func (w *Writer) SetComment(comment string) error {
	if _, err := sizing.ToUint16(len(comment), ziptype.ErrLimitExceeded); err != nil {
		return fmt.Errorf("comment length: %w", err)
	}
	w.comment = comment
	return nil
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() uint64 {
	return w.offset
}

// WriteEntry writes the local file header and payload for res and records
// its central directory entry. Sizes and the header offset must fit in
// 32 bits and the name length in 16 bits; violations fail with the format
// limit error before any byte of the entry is written.
func (w *Writer) WriteEntry(res *ziptype.Result) error {
	if w.closed {
		return errors.New("zipfmt: write after close")
	}

	offset32, err := sizing.ToUint32(w.offset, ziptype.ErrLimitExceeded)
	if err != nil {
		return fmt.Errorf("%s: local header offset: %w", res.Path, err)
	}
	csize32, err := sizing.ToUint32(res.CompressedSize, ziptype.ErrLimitExceeded)
	if err != nil {
		return fmt.Errorf("%s: compressed size: %w", res.Path, err)
	}
	usize32, err := sizing.ToUint32(res.UncompressedSize, ziptype.ErrLimitExceeded)
	if err != nil {
		return fmt.Errorf("%s: uncompressed size: %w", res.Path, err)
	}
	nameLen, err := sizing.ToUint16(len(res.Path), ziptype.ErrLimitExceeded)
	if err != nil {
		return fmt.Errorf("%s: name length: %w", res.Path, err)
	}

	date, tm := DOSTime(res.ModTime)

	var buf [localHeaderLen]byte
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], LocalHeaderSignature)
	le.PutUint16(buf[4:6], VersionNeeded)
	le.PutUint16(buf[6:8], 0) // general purpose flags
	le.PutUint16(buf[8:10], uint16(res.Method))
	le.PutUint16(buf[10:12], tm)
	le.PutUint16(buf[12:14], date)
	le.PutUint32(buf[14:18], res.CRC32)
	le.PutUint32(buf[18:22], csize32)
	le.PutUint32(buf[22:26], usize32)
	le.PutUint16(buf[26:28], nameLen)
	le.PutUint16(buf[28:30], 0) // extra field length

	if err := w.write(buf[:]); err != nil {
		return err
	}
	if err := w.write([]byte(res.Path)); err != nil {
		return err
	}
	if len(res.Data) > 0 {
		if err := w.write(res.Data); err != nil {
			return err
		}
	}

	w.dir = append(w.dir, dirRecord{
		path:     res.Path,
		method:   uint16(res.Method),
		modDate:  date,
		modTime:  tm,
		crc32:    res.CRC32,
		csize:    csize32,
		usize:    usize32,
		extAttrs: ExternalAttrs(res.Mode, res.IsDir),
		offset:   offset32,
	})
	return nil
}

// Close writes the central directory and the end-of-central-directory
// record. The Writer cannot be used afterwards.
func (w *Writer) Close() error {
	if w.closed {
		return errors.New("zipfmt: writer already closed")
	}
	w.closed = true

	dirOffset32, err := sizing.ToUint32(w.offset, ziptype.ErrLimitExceeded)
	if err != nil {
		return fmt.Errorf("central directory offset: %w", err)
	}

	start := w.offset
	for i := range w.dir {
		if err := w.writeDirectoryHeader(&w.dir[i]); err != nil {
			return err
		}
	}
	dirSize32, err := sizing.ToUint32(w.offset-start, ziptype.ErrLimitExceeded)
	if err != nil {
		return fmt.Errorf("central directory size: %w", err)
	}
	count16, err := sizing.ToUint16(len(w.dir), ziptype.ErrLimitExceeded)
	if err != nil {
		return fmt.Errorf("entry count: %w", err)
	}

	var buf [eocdLen]byte
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], EOCDSignature)
	// disk number and central-directory disk fields stay zero
	le.PutUint16(buf[8:10], count16)
	le.PutUint16(buf[10:12], count16)
	le.PutUint32(buf[12:16], dirSize32)
	le.PutUint32(buf[16:20], dirOffset32)
	le.PutUint16(buf[20:22], uint16(len(w.comment)))

	if err := w.write(buf[:]); err != nil {
		return err
	}
	if w.comment != "" {
		return w.write([]byte(w.comment))
	}
	return nil
}

func (w *Writer) writeDirectoryHeader(rec *dirRecord) error {
	var buf [directoryHeaderLen]byte
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], DirectoryHeaderSignature)
	le.PutUint16(buf[4:6], VersionMadeBy)
	le.PutUint16(buf[6:8], VersionNeeded)
	le.PutUint16(buf[8:10], 0) // general purpose flags
	le.PutUint16(buf[10:12], rec.method)
	le.PutUint16(buf[12:14], rec.modTime)
	le.PutUint16(buf[14:16], rec.modDate)
	le.PutUint32(buf[16:20], rec.crc32)
	le.PutUint32(buf[20:24], rec.csize)
	le.PutUint32(buf[24:28], rec.usize)
	le.PutUint16(buf[28:30], uint16(len(rec.path)))
	// extra length, comment length, disk start, and internal attributes
	// stay zero
	le.PutUint32(buf[38:42], rec.extAttrs)
	le.PutUint32(buf[42:46], rec.offset)

	if err := w.write(buf[:]); err != nil {
		return err
	}
	return w.write([]byte(rec.path))
}

// write sends p to the destination and advances the offset by the bytes
// actually written, so offsets stay truthful even after a partial write.
func (w *Writer) write(p []byte) error {
	n, err := w.dst.Write(p)
	w.offset += uint64(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ziptype.ErrSinkWrite, err)
	}
	return nil
}
