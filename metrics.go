package colstore

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/colstore/column"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see the
// metrics/prometheus package for a Prometheus implementation.
type MetricsCollector = column.MetricsCollector

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(int)                         {}
func (NoopMetricsCollector) RecordCommit(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRead(error)                         {}
func (NoopMetricsCollector) RecordTruncate(int64, error)              {}
func (NoopMetricsCollector) RecordMap(int)                            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AppendCount      atomic.Int64
	AppendBytes      atomic.Int64
	CommitCount      atomic.Int64
	CommitRecords    atomic.Int64
	CommitErrors     atomic.Int64
	CommitTotalNanos atomic.Int64
	ReadCount        atomic.Int64
	ReadErrors       atomic.Int64
	TruncateCount    atomic.Int64
	TruncatedRecords atomic.Int64
	TruncateErrors   atomic.Int64
	MappedPages      atomic.Int64
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(bytes int) {
	b.AppendCount.Add(1)
	b.AppendBytes.Add(int64(bytes))
}

// RecordCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCommit(records int64, duration time.Duration, err error) {
	b.CommitCount.Add(1)
	b.CommitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CommitErrors.Add(1)
		return
	}
	b.CommitRecords.Add(records)
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(err error) {
	b.ReadCount.Add(1)
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordTruncate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTruncate(records int64, err error) {
	b.TruncateCount.Add(1)
	if err != nil {
		b.TruncateErrors.Add(1)
		return
	}
	b.TruncatedRecords.Add(records)
}

// RecordMap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMap(pages int) {
	b.MappedPages.Add(int64(pages))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:      b.AppendCount.Load(),
		AppendBytes:      b.AppendBytes.Load(),
		CommitCount:      b.CommitCount.Load(),
		CommitRecords:    b.CommitRecords.Load(),
		CommitErrors:     b.CommitErrors.Load(),
		CommitAvgNanos:   b.getAvgCommitNanos(),
		ReadCount:        b.ReadCount.Load(),
		ReadErrors:       b.ReadErrors.Load(),
		TruncateCount:    b.TruncateCount.Load(),
		TruncatedRecords: b.TruncatedRecords.Load(),
		TruncateErrors:   b.TruncateErrors.Load(),
		MappedPages:      b.MappedPages.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgCommitNanos() int64 {
	count := b.CommitCount.Load()
	if count == 0 {
		return 0
	}
	return b.CommitTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AppendCount      int64
	AppendBytes      int64
	CommitCount      int64
	CommitRecords    int64
	CommitErrors     int64
	CommitAvgNanos   int64
	ReadCount        int64
	ReadErrors       int64
	TruncateCount    int64
	TruncatedRecords int64
	TruncateErrors   int64
	MappedPages      int64
}
