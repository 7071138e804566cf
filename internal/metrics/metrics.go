// Package metrics exposes pipeline and HTTP counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "datasweeper"

// Recorder implements core.Observer on a private registry, so several
// recorders can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry

	filesParsed   *prometheus.CounterVec
	filesFailed   *prometheus.CounterVec
	rowsRemoved   prometheus.Counter
	cellsFilled   prometheus.Counter
	conversions   *prometheus.CounterVec
	convertedSize prometheus.Histogram
	rowsParsed    prometheus.Histogram

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ core.Observer = (*Recorder)(nil)

// New registers every collector, plus the Go runtime and process
// collectors, on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		filesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "Uploaded files parsed successfully, by format.",
		}, []string{"format"}),
		filesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Files that ended in a terminal error, by pipeline stage and error code.",
		}, []string{"stage", "code"}),
		rowsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_rows_removed_total",
			Help:      "Rows dropped by deduplication.",
		}),
		cellsFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_filled_total",
			Help:      "Null numeric cells replaced with the column mean.",
		}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Tables encoded for download, by target format.",
		}, []string{"format"}),
		convertedSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "converted_bytes",
			Help:      "Size of encoded download artifacts.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		rowsParsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parsed_rows",
			Help:      "Data rows per parsed file.",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.filesParsed,
		r.filesFailed,
		r.rowsRemoved,
		r.cellsFilled,
		r.conversions,
		r.convertedSize,
		r.rowsParsed,
		r.requests,
		r.requestDuration,
	)
	return r
}

func (r *Recorder) FileParsed(format core.Format, rows int) {
	r.filesParsed.WithLabelValues(string(format)).Inc()
	r.rowsParsed.Observe(float64(rows))
}

func (r *Recorder) FileFailed(stage string, err error) {
	r.filesFailed.WithLabelValues(stage, core.MapError(err).Code).Inc()
}

func (r *Recorder) DuplicatesRemoved(n int) { r.rowsRemoved.Add(float64(n)) }

func (r *Recorder) CellsFilled(n int) { r.cellsFilled.Add(float64(n)) }

func (r *Recorder) Converted(format core.Format, size int) {
	r.conversions.WithLabelValues(string(format)).Inc()
	r.convertedSize.Observe(float64(size))
}

// ObserveRequest records one served HTTP request. route should be the
// router pattern, not the raw path, to keep label cardinality bounded.
func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }
