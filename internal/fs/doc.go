// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with read/write/sync/truncate capabilities and a
//     descriptor usable for memory mapping
//   - [FileSystem]: filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects I/O errors per file name pattern
//
// Production code uses fs.Default:
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests inject [FaultyFS] to make growing a column file fail:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("col.d", fs.Fault{FailAfterBytes: -1, FailOnTruncate: true})
//
// Operations take no context.Context; local filesystem calls are not
// interruptible at the syscall level. Slow remote storage lives behind
// the blobstore package, which is context-aware.
package fs
