package colstore

import (
	"log/slog"

	"github.com/hupe1980/colstore/column"
)

type options struct {
	pageBits         int
	bulkReadahead    int
	syncOnCommit     bool
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures how columns are opened.
type Option func(*options)

// WithPageBits sets the page size to 1<<bits bytes. Readers must use the value
// the column was written with. Valid range is 12 (4 KiB) to 30 (1 GiB); the
// default is column.DefaultPageBits (4 MiB).
//
// Small pages suit many small columns; large pages reduce the number of
// mappings for multi-gigabyte columns.
func WithPageBits(bits int) Option {
	return func(o *options) {
		o.pageBits = bits
	}
}

// WithBulkReadahead sets how many pages ModeBulk readers map ahead of the
// read position.
func WithBulkReadahead(pages int) Option {
	return func(o *options) {
		o.bulkReadahead = pages
	}
}

// WithSyncOnCommit makes every Commit and Truncate msync the mapped pages and
// fsync the files before returning.
//
// Without it a committed record survives a process crash but may be lost on
// power failure.
func WithSyncOnCommit(enabled bool) Option {
	return func(o *options) {
		o.syncOnCommit = enabled
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &colstore.BasicMetricsCollector{}
//	w, _ := colstore.OpenFixedWriter("x.col", 8, colstore.WithMetricsCollector(metrics))
//	// ... append and commit ...
//	stats := metrics.GetStats()
//	fmt.Printf("Commits: %d, Avg latency: %dns\n", stats.CommitCount, stats.CommitAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := colstore.NewJSONLogger(slog.LevelInfo)
//	w, _ := colstore.OpenVariableWriter("./data/name", colstore.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o options) columnOptions() column.Options {
	return column.Options{
		PageBits:      o.pageBits,
		BulkReadahead: o.bulkReadahead,
		SyncOnCommit:  o.syncOnCommit,
		Logger:        o.logger.Logger,
		Metrics:       o.metricsCollector,
	}
}
