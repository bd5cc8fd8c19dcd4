// Package resource bounds the resources used by background work such as
// backups and restores.
//
// The Controller manages three resource types:
//
//   - Memory: Track and limit buffer memory (blocking or fail-fast)
//   - Concurrency: Limit concurrent background workers
//   - IO: Rate-limit background IO so it does not starve foreground readers
//
// # Memory Management
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(ctx, blockSize); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(blockSize)
//
// # IO Rate Limiting
//
// Token bucket rate limiter wrapped around readers and writers:
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//	writer := resource.NewRateLimitedWriter(ctx, blob, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
