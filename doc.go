// Package colstore provides embedded, append-only column storage backed by
// memory-mapped files.
//
// A column is either fixed-width (one file, record i at byte i*width) or
// variable-width (a data file holding length-prefixed strings, blobs and
// nulls, plus an index file holding one end offset per record). Writers append
// and publish records with Commit; readers see only committed records and may
// run in other processes.
//
// # Quick Start
//
//	w, _ := colstore.OpenFixedWriter("./data/price.col", 8)
//	_ = w.PutFloat64(10.5)
//	_ = w.Commit()
//	_ = w.Close()
//
//	r, _ := colstore.OpenFixedReader("./data/price.col", 8, colstore.ModeRead)
//	v, _ := r.GetFloat64(0)
//
// Variable columns are addressed by a base path:
//
//	w, _ := colstore.OpenVariableWriter("./data/name")  // name.d + name.i
//	_ = w.PutStr("alice")
//	_ = w.PutNull()
//	_ = w.Commit()
//
// # Durability Model
//
// Each file starts with an 8-byte committed size. Appends land beyond it and
// become visible once Commit rewrites that header. A crash before Commit loses
// only the uncommitted tail, which the next writer overwrites. Use
// WithSyncOnCommit for msync and fsync on every commit.
//
// # Backups
//
// Backup uploads the committed image of a set of columns to any
// blobstore.BlobStore (local directory, memory, S3 or MinIO), and Restore
// writes them back as openable column files.
//
// # Key Features
//
//   - Page-split-safe little-endian primitives
//   - Exclusive writers enforced by file locks
//   - Bulk scan mode with read-ahead mapping
//   - Null tracking via roaring bitmaps
//   - Pluggable metrics with a Prometheus collector
package colstore
