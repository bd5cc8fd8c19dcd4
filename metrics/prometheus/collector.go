// Package prometheus exports column metrics through the Prometheus client.
//
//	c := prometheus.NewCollector("orders")
//	prom.MustRegister(c)
//	w, _ := colstore.OpenFixedWriter("id.col", 8, colstore.WithMetricsCollector(c))
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/colstore/column"
)

const namespace = "colstore"

// Collector implements column.MetricsCollector and prometheus.Collector.
// One Collector may be shared by many columns; the store label tells
// separate collectors apart when they share a registry.
type Collector struct {
	appends       prom.Counter
	appendBytes   prom.Counter
	commits       *prom.CounterVec
	committed     prom.Counter
	commitLatency prom.Histogram
	reads         *prom.CounterVec
	truncates     *prom.CounterVec
	truncated     prom.Counter
	mappedPages   prom.Counter
}

var _ column.MetricsCollector = (*Collector)(nil)

// NewCollector creates an unregistered collector labelled with store.
func NewCollector(store string) *Collector {
	labels := prom.Labels{"store": store}
	counter := func(name, help string) prom.Counter {
		return prom.NewCounter(prom.CounterOpts{
			Namespace: namespace, Name: name, Help: help, ConstLabels: labels,
		})
	}
	status := func(name, help string) *prom.CounterVec {
		return prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace, Name: name, Help: help, ConstLabels: labels,
		}, []string{"status"})
	}

	return &Collector{
		appends:     counter("appends_total", "Values appended."),
		appendBytes: counter("append_bytes_total", "Payload bytes appended."),
		commits:     status("commits_total", "Commits by outcome."),
		committed:   counter("committed_records_total", "Records published by commits."),
		commitLatency: prom.NewHistogram(prom.HistogramOpts{
			Namespace:   namespace,
			Name:        "commit_duration_seconds",
			Help:        "Commit latency.",
			ConstLabels: labels,
			Buckets:     prom.ExponentialBuckets(1e-6, 4, 12),
		}),
		reads:       status("reads_total", "Point reads by outcome."),
		truncates:   status("truncates_total", "Truncates by outcome."),
		truncated:   counter("truncated_records_total", "Committed records removed by truncate."),
		mappedPages: counter("mapped_pages_total", "Pages mapped into memory."),
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordAppend implements column.MetricsCollector.
func (c *Collector) RecordAppend(bytes int) {
	c.appends.Inc()
	c.appendBytes.Add(float64(bytes))
}

// RecordCommit implements column.MetricsCollector.
func (c *Collector) RecordCommit(records int64, d time.Duration, err error) {
	c.commits.WithLabelValues(statusOf(err)).Inc()
	c.commitLatency.Observe(d.Seconds())
	if err == nil {
		c.committed.Add(float64(records))
	}
}

// RecordRead implements column.MetricsCollector.
func (c *Collector) RecordRead(err error) {
	c.reads.WithLabelValues(statusOf(err)).Inc()
}

// RecordTruncate implements column.MetricsCollector.
func (c *Collector) RecordTruncate(records int64, err error) {
	c.truncates.WithLabelValues(statusOf(err)).Inc()
	if err == nil {
		c.truncated.Add(float64(records))
	}
}

// RecordMap implements column.MetricsCollector.
func (c *Collector) RecordMap(pages int) {
	c.mappedPages.Add(float64(pages))
}

func (c *Collector) collectors() []prom.Collector {
	return []prom.Collector{
		c.appends, c.appendBytes, c.commits, c.committed, c.commitLatency,
		c.reads, c.truncates, c.truncated, c.mappedPages,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prom.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prom.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}
