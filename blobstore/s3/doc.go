// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("backups/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	manifest, err := backup.Run(ctx, store, "nightly", columns, backup.Options{})
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads with CRC32C checksums
//   - Conditional writes via PutIfNotExists
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
