// Package mmap provides memory-mapped file access for column storage.
//
// # Overview
//
// Two levels of API are offered:
//
//   - [Open] maps a whole file read-only and returns a [Mapping]. It is used by
//     blob stores that serve immutable backup images.
//   - [Map], [Unmap], [Sync] and [Advise] operate on individual windows of an
//     open file descriptor. The paged file layer maps each fixed-size page with
//     these and never touches the raw syscalls itself.
//
// [Lock] and [Unlock] take and release an exclusive advisory lock on a file
// descriptor. The column writer uses it so that a second writer on the same
// file fails at open time instead of racing.
//
// # Platform Support
//
// Only Unix platforms are supported (mmap(2), msync(2), madvise(2), flock(2)).
//
// # Thread Safety
//
// Mapping is safe for concurrent read access and Close is idempotent. Windows
// returned by Map are plain byte slices; callers must stop using them before
// calling Unmap.
package mmap
