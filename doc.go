// Package parzip builds zip archives with parallel per-entry compression.
//
// Compression work is distributed across a caller-supplied worker pool
// while the archive bytes stay identical regardless of scheduling order:
// out-of-order task completions are reordered back to insertion order
// before serialization, and writing starts as soon as the first entry is
// ready instead of materializing the whole archive in memory.
//
// # Quick Start
//
// Register entries, then finalize to a writer:
//
//	pool := parzip.NewWorkerPool(8)
//	a, err := parzip.New(pool)
//	if err != nil {
//	    return err
//	}
//	if err := a.AddDir("docs"); err != nil {
//	    return err
//	}
//	if err := a.AddFile("README.md", "docs/README.md"); err != nil {
//	    return err
//	}
//	if err := a.AddBytes([]byte("hello"), "hello.txt"); err != nil {
//	    return err
//	}
//	err = a.Finalize(ctx, dst)
//
// Finalize is synchronous from the caller's view; parallelism is internal.
// The produced archive is either fully valid or the call fails with the
// first error in archive order — there is no partial-success mode.
//
// # Limits
//
// Archives are plain 32-bit zip: at most 65535 entries, and sizes and
// offsets up to 4 GiB. Exceeding a limit fails with [ErrLimitExceeded]
// rather than emitting a non-conformant file. Zip64, encryption, and
// multi-volume archives are not supported.
package parzip
