// Package hash provides the CRC32-Castagnoli checksum used for backup
// integrity and S3 upload validation.
//
// Go's crc32 package uses hardware instructions (SSE4.2, ARM CRC) when
// available.
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
