package sched

import (
	"bytes"
	"compress/flate"
	"context"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/parzip/internal/ziptype"
)

// serialExec runs each task inline on the submitting goroutine.
type serialExec struct{}

func (serialExec) Submit(task func()) { task() }

// reverseExec buffers tasks until want have been submitted, then runs them
// in reverse submission order on one goroutine. Completions arrive at the
// consumer in exactly the wrong order.
type reverseExec struct {
	mu    sync.Mutex
	tasks []func()
	want  int
	done  sync.WaitGroup
}

func newReverseExec(want int) *reverseExec {
	e := &reverseExec{want: want}
	e.done.Add(1)
	return e
}

func (e *reverseExec) Submit(task func()) {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	run := len(e.tasks) == e.want
	e.mu.Unlock()
	if run {
		go func() {
			defer e.done.Done()
			for i := e.want - 1; i >= 0; i-- {
				e.tasks[i]()
			}
		}()
	}
}

// parallelExec runs every task on its own goroutine.
type parallelExec struct {
	wg sync.WaitGroup
}

func (e *parallelExec) Submit(task func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		task()
	}()
}

// recordSink collects consumed results in arrival order.
type recordSink struct {
	results []*ziptype.Result
	errs    map[string]error
}

func (s *recordSink) Consume(res *ziptype.Result) error {
	if err, ok := s.errs[res.Path]; ok {
		return err
	}
	s.results = append(s.results, res)
	return nil
}

func sliceEntries(payloads ...string) []ziptype.Entry {
	entries := make([]ziptype.Entry, len(payloads))
	for i, p := range payloads {
		entries[i] = ziptype.Entry{
			ID:     uint64(i),
			Path:   p,
			Kind:   ziptype.SourceSlice,
			Data:   []byte(p),
			Method: ziptype.Deflate,
		}
	}
	return entries
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	s := New(serialExec{}, Config{Level: flate.BestCompression})
	require.NoError(t, s.Run(context.Background(), nil, &recordSink{}))
}

func TestRunOrderedDelivery(t *testing.T) {
	t.Parallel()

	entries := sliceEntries("a", "b", "c", "d", "e")
	exec := newReverseExec(len(entries))
	sink := &recordSink{}

	s := New(exec, Config{Level: flate.BestCompression})
	require.NoError(t, s.Run(context.Background(), entries, sink))
	exec.done.Wait()

	require.Len(t, sink.results, len(entries))
	for i, res := range sink.results {
		assert.Equal(t, uint64(i), res.EntryID)
		assert.Equal(t, entries[i].Path, res.Path)
	}
}

func TestRunCompressesPayload(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("deflate me "), 1000)
	entries := []ziptype.Entry{{
		Path:   "big.txt",
		Kind:   ziptype.SourceSlice,
		Data:   payload,
		Method: ziptype.Deflate,
	}}
	sink := &recordSink{}

	s := New(serialExec{}, Config{Level: flate.BestCompression})
	require.NoError(t, s.Run(context.Background(), entries, sink))
	require.Len(t, sink.results, 1)

	res := sink.results[0]
	assert.Equal(t, crc32.ChecksumIEEE(payload), res.CRC32)
	assert.Equal(t, uint64(len(payload)), res.UncompressedSize)
	assert.Less(t, res.CompressedSize, res.UncompressedSize)

	fr := flate.NewReader(bytes.NewReader(res.Data))
	round, err := io.ReadAll(fr)
	require.NoError(t, err)
	assert.Equal(t, payload, round)
}

func TestRunStoreMethod(t *testing.T) {
	t.Parallel()

	payload := []byte("already compressed")
	entries := []ziptype.Entry{{
		Path:   "blob.bin",
		Kind:   ziptype.SourceSlice,
		Data:   payload,
		Method: ziptype.Store,
	}}
	sink := &recordSink{}

	s := New(serialExec{}, Config{})
	require.NoError(t, s.Run(context.Background(), entries, sink))
	require.Len(t, sink.results, 1)

	res := sink.results[0]
	assert.Equal(t, ziptype.Store, res.Method)
	assert.Equal(t, payload, res.Data)
	assert.Equal(t, res.UncompressedSize, res.CompressedSize)
}

func TestRunDirectoryMarker(t *testing.T) {
	t.Parallel()

	entries := []ziptype.Entry{{
		Path:   "d/",
		Kind:   ziptype.SourceDir,
		Method: ziptype.Store,
	}}
	sink := &recordSink{}

	s := New(serialExec{}, Config{})
	require.NoError(t, s.Run(context.Background(), entries, sink))
	require.Len(t, sink.results, 1)

	res := sink.results[0]
	assert.True(t, res.IsDir)
	assert.Equal(t, ziptype.Store, res.Method)
	assert.Equal(t, uint32(0), res.CRC32)
	assert.Zero(t, res.UncompressedSize)
	assert.Empty(t, res.Data)
}

func TestRunFileSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "src.txt")
	payload := []byte("from the filesystem")
	require.NoError(t, os.WriteFile(path, payload, 0o640))

	entries := []ziptype.Entry{{
		Path:   "src.txt",
		Kind:   ziptype.SourceFile,
		FSPath: path,
		Method: ziptype.Deflate,
	}}
	sink := &recordSink{}

	s := New(serialExec{}, Config{Level: flate.BestCompression})
	require.NoError(t, s.Run(context.Background(), entries, sink))
	require.Len(t, sink.results, 1)

	res := sink.results[0]
	assert.Equal(t, crc32.ChecksumIEEE(payload), res.CRC32)
	assert.Equal(t, os.FileMode(0o640), res.Mode)
	assert.False(t, res.ModTime.IsZero())
}

func TestRunSourceReadError(t *testing.T) {
	t.Parallel()

	entries := []ziptype.Entry{{
		Path:   "gone.txt",
		Kind:   ziptype.SourceFile,
		FSPath: filepath.Join(t.TempDir(), "does-not-exist"),
		Method: ziptype.Deflate,
	}}
	sink := &recordSink{}

	s := New(serialExec{}, Config{})
	err := s.Run(context.Background(), entries, sink)
	assert.ErrorIs(t, err, ziptype.ErrSourceRead)
	assert.Empty(t, sink.results)
}

func TestRunFirstErrorInArchiveOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entries := sliceEntries("a", "b")
	entries = append(entries,
		ziptype.Entry{
			ID:     2,
			Path:   "first-missing",
			Kind:   ziptype.SourceFile,
			FSPath: filepath.Join(dir, "first-missing"),
			Method: ziptype.Deflate,
		},
		ziptype.Entry{
			ID:     3,
			Path:   "second-missing",
			Kind:   ziptype.SourceFile,
			FSPath: filepath.Join(dir, "second-missing"),
			Method: ziptype.Deflate,
		},
	)
	exec := newReverseExec(len(entries))
	sink := &recordSink{}

	s := New(exec, Config{})
	err := s.Run(context.Background(), entries, sink)
	exec.done.Wait()

	// Both fs entries fail; the one earliest in archive order wins even
	// though its completion arrived later.
	require.ErrorIs(t, err, ziptype.ErrSourceRead)
	assert.ErrorContains(t, err, "first-missing")

	// Entries before the failure were still delivered in order.
	require.Len(t, sink.results, 2)
	assert.Equal(t, "a", sink.results[0].Path)
	assert.Equal(t, "b", sink.results[1].Path)
}

func TestRunSinkError(t *testing.T) {
	t.Parallel()

	entries := sliceEntries("a", "b", "c")
	sink := &recordSink{errs: map[string]error{"b": ziptype.ErrSinkWrite}}

	s := New(serialExec{}, Config{})
	err := s.Run(context.Background(), entries, sink)
	assert.ErrorIs(t, err, ziptype.ErrSinkWrite)
	require.Len(t, sink.results, 1)
	assert.Equal(t, "a", sink.results[0].Path)
}

func TestRunPendingBudget(t *testing.T) {
	t.Parallel()

	const maxPending = 2

	var submitted, consumed atomic.Int64
	var maxOutstanding atomic.Int64
	exec := &parallelExec{}
	budgeted := submitFunc(func(task func()) {
		out := submitted.Add(1) - consumed.Load()
		for {
			prev := maxOutstanding.Load()
			if out <= prev || maxOutstanding.CompareAndSwap(prev, out) {
				break
			}
		}
		exec.Submit(task)
	})
	sink := consumeFunc(func(res *ziptype.Result) error {
		consumed.Add(1)
		return nil
	})

	entries := sliceEntries("a", "b", "c", "d", "e", "f", "g", "h")
	s := New(budgeted, Config{MaxPending: maxPending})
	require.NoError(t, s.Run(context.Background(), entries, sink))
	exec.wg.Wait()

	assert.LessOrEqual(t, maxOutstanding.Load(), int64(maxPending))
}

func TestRunContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := sliceEntries("a", "b", "c")
	s := New(serialExec{}, Config{})
	err := s.Run(ctx, entries, &recordSink{})
	assert.ErrorIs(t, err, context.Canceled)
}

// submitFunc adapts a function to Executor.
type submitFunc func(func())

func (f submitFunc) Submit(task func()) { f(task) }

// consumeFunc adapts a function to Sink.
type consumeFunc func(*ziptype.Result) error

func (f consumeFunc) Consume(res *ziptype.Result) error { return f(res) }
