package sched

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/flate"

	"github.com/meigma/parzip/internal/ziptype"
)

// chunkSize bounds per-read memory while streaming source bytes through the
// compressor.
const chunkSize = 32 * 1024

// Default permission bits recorded when the entry carries no explicit mode
// and no filesystem mode is available.
const (
	defaultFileMode = fs.FileMode(0o644)
	defaultDirMode  = fs.FileMode(0o755)
)

// compress produces the result for one entry. It owns only the entry's
// read-only data and task-local compressor and CRC state; filesystem sources
// are opened and read here, never at registration.
func compress(ctx context.Context, entry *ziptype.Entry, level int) (*ziptype.Result, error) {
	if entry.Kind == ziptype.SourceDir {
		return dirResult(entry), nil
	}

	mode := defaultFileMode
	if entry.ModeSet {
		mode = entry.Mode
	}
	modTime := entry.ModTime

	var src io.Reader
	switch entry.Kind {
	case ziptype.SourceSlice:
		src = bytes.NewReader(entry.Data)
	case ziptype.SourceFile:
		f, err := os.Open(entry.FSPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ziptype.ErrSourceRead, err)
		}
		defer f.Close()
		if !entry.ModeSet || !entry.ModTimeSet {
			info, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ziptype.ErrSourceRead, err)
			}
			if !entry.ModeSet {
				mode = info.Mode().Perm()
			}
			if !entry.ModTimeSet {
				modTime = info.ModTime()
			}
		}
		src = f
	default:
		return nil, fmt.Errorf("%w: unknown source kind %d", ziptype.ErrCompression, entry.Kind)
	}

	crc, usize, data, err := compressStream(ctx, src, entry.Method, level)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry.Path, err)
	}

	return &ziptype.Result{
		EntryID:          entry.ID,
		Path:             entry.Path,
		Method:           entry.Method,
		CRC32:            crc,
		UncompressedSize: usize,
		CompressedSize:   uint64(len(data)),
		Data:             data,
		Mode:             mode,
		ModTime:          modTime,
	}, nil
}

// dirResult builds the zero-length Store result for a directory marker.
func dirResult(entry *ziptype.Entry) *ziptype.Result {
	mode := defaultDirMode
	if entry.ModeSet {
		mode = entry.Mode
	}
	return &ziptype.Result{
		EntryID: entry.ID,
		Path:    entry.Path,
		Method:  ziptype.Store,
		Mode:    mode,
		IsDir:   true,
		ModTime: entry.ModTime,
	}
}

// compressStream pumps src through the compressor in bounded chunks,
// accumulating the compressed buffer and a running CRC-32 over the
// uncompressed bytes.
func compressStream(ctx context.Context, src io.Reader, method ziptype.Method, level int) (crc uint32, usize uint64, data []byte, err error) {
	var buf bytes.Buffer
	var dst io.Writer = &buf
	var fw *flate.Writer
	if method == ziptype.Deflate {
		fw, err = flate.NewWriter(&buf, level)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("%w: %v", ziptype.ErrCompression, err)
		}
		dst = fw
	}

	chunk := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, nil, err
		}
		n, rerr := src.Read(chunk)
		if n > 0 {
			crc = crc32.Update(crc, crc32.IEEETable, chunk[:n])
			usize += uint64(n)
			if _, werr := dst.Write(chunk[:n]); werr != nil {
				return 0, 0, nil, fmt.Errorf("%w: %v", ziptype.ErrCompression, werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, 0, nil, fmt.Errorf("%w: %v", ziptype.ErrSourceRead, rerr)
		}
	}

	if fw != nil {
		if err := fw.Close(); err != nil {
			return 0, 0, nil, fmt.Errorf("%w: %v", ziptype.ErrCompression, err)
		}
	}
	return crc, usize, buf.Bytes(), nil
}
