package column

import (
	"log/slog"
	"time"

	"github.com/hupe1980/colstore/internal/fs"
	"github.com/hupe1980/colstore/internal/paged"
)

// Mode selects how a column maps its files.
type Mode = paged.Mode

const (
	// ModeAppend is the writable mode used by writers.
	ModeAppend = paged.ModeAppend
	// ModeRead maps pages on demand.
	ModeRead = paged.ModeRead
	// ModeBulk maps pages ahead of the read position for sequential scans.
	ModeBulk = paged.ModeBulk
)

// DefaultPageBits is the default page size exponent (4 MiB pages).
const DefaultPageBits = 22

// MetricsCollector receives per-column operational metrics.
type MetricsCollector interface {
	// RecordAppend is called after each value is appended.
	RecordAppend(bytes int)
	// RecordCommit is called after each commit with the number of records published.
	RecordCommit(records int64, duration time.Duration, err error)
	// RecordRead is called after each point read.
	RecordRead(err error)
	// RecordTruncate is called after each truncate with the records removed.
	RecordTruncate(records int64, err error)
	// RecordMap is called when pages are newly mapped.
	RecordMap(pages int)
}

type noopMetrics struct{}

func (noopMetrics) RecordAppend(int)                         {}
func (noopMetrics) RecordCommit(int64, time.Duration, error) {}
func (noopMetrics) RecordRead(error)                         {}
func (noopMetrics) RecordTruncate(int64, error)              {}
func (noopMetrics) RecordMap(int)                            {}

// Options configures how column files are opened.
type Options struct {
	// PageBits is the page size exponent. Readers must use the value the
	// files were written with. Defaults to DefaultPageBits.
	PageBits int

	// BulkReadahead is the number of pages mapped ahead in ModeBulk.
	BulkReadahead int

	// SyncOnCommit flushes pages and fsyncs files on every commit and truncate.
	SyncOnCommit bool

	// Logger receives lifecycle events. Defaults to a discarding logger.
	Logger *slog.Logger

	// Metrics receives operational metrics. Defaults to a no-op collector.
	Metrics MetricsCollector

	// FS overrides the filesystem, mainly for fault injection in tests.
	FS fs.FileSystem
}

func (o Options) withDefaults() Options {
	if o.PageBits == 0 {
		o.PageBits = DefaultPageBits
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Metrics == nil {
		o.Metrics = noopMetrics{}
	}
	return o
}

func (o Options) pagedOptions() paged.Options {
	return paged.Options{
		FS:            o.FS,
		BulkReadahead: o.BulkReadahead,
		SyncOnCommit:  o.SyncOnCommit,
		OnMap:         o.Metrics.RecordMap,
	}
}
