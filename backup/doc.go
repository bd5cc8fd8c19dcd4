// Package backup copies the committed images of column files to a
// blobstore.BlobStore and restores them.
//
// A backup lives under <prefix>/<id>/ and holds one block-framed blob per
// column file plus a MANIFEST. Blocks are optionally compressed with LZ4 or
// Zstandard; each file carries a CRC32C of its logical bytes that Restore
// verifies before the file is moved into place. IDs are UUIDv7, so List
// returns backups oldest first.
//
// Only committed bytes are copied. Columns handed to Run must not be appended
// to, committed or truncated until Run returns.
package backup
