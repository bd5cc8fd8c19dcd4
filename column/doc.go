// Package column implements append-only column storage on top of paged,
// memory-mapped files.
//
// Two encodings are provided:
//
//   - Fixed columns store homogeneous fixed-width values; record i lives at
//     byte offset i*width.
//   - Variable columns store strings, binary blobs or nulls in a data file and
//     keep one 64-bit end offset per record in an index file, giving O(1)
//     lookup of any record.
//
// # Handles
//
// Every column is opened either through a writer ([FixedWriter],
// [VariableWriter]) or a reader ([FixedReader], [VariableReader]). A writer is
// exclusive: opening a second writer on the same files fails with [ErrLocked].
// Readers never block and observe only committed records:
//
//	w, _ := column.OpenFixedWriter("price.col", 8, column.Options{})
//	_ = w.PutFloat64(10.5)
//	_ = w.Commit() // now visible to readers
//
//	r, _ := column.OpenFixedReader("price.col", 8, column.ModeRead, column.Options{})
//	v, _ := r.GetFloat64(0)
//
// A reader's view is fixed at open time; Refresh picks up later commits.
//
// # Durability
//
// Appends are invisible until Commit. A writer that crashes before committing
// leaves an uncommitted tail that is ignored on reopen and overwritten by the
// next append. Set Options.SyncOnCommit to msync and fsync on every commit.
//
// Handles are not safe for concurrent use. Give each goroutine its own reader.
package column
