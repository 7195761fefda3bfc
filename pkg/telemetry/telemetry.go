// Package telemetry exposes corridor's prometheus metrics and the
// /metrics handler. Collectors are registered on the default registry
// at init; the rest of the tree reports through the helpers here so
// metric names stay in one place.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "corridor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Requests handled, by method and status.",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "corridor",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Request latency from construction to response.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	responseBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corridor",
		Subsystem: "http",
		Name:      "response_bytes_total",
		Help:      "Bytes written in responses.",
	})

	inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "corridor",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Requests currently being handled.",
	})

	requestsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "corridor",
		Subsystem: "http",
		Name:      "requests_rejected_total",
		Help:      "Requests rejected before any handler ran.",
	}, []string{"reason"})

	notesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corridor",
		Subsystem: "store",
		Name:      "notes_saved_total",
		Help:      "Notes written to the store.",
	})

	notesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corridor",
		Subsystem: "store",
		Name:      "notes_deleted_total",
		Help:      "Notes removed from the store.",
	})

	retentionSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "corridor",
		Subsystem: "retention",
		Name:      "sweeps_total",
		Help:      "Retention sweep runs, by result.",
	}, []string{"result"})

	storeNotes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "corridor",
		Subsystem: "store",
		Name:      "notes",
		Help:      "Live notes in the store.",
	})

	storeVersions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "corridor",
		Subsystem: "store",
		Name:      "versions",
		Help:      "Note versions in the store.",
	})

	storeDiskBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "corridor",
		Subsystem: "store",
		Name:      "disk_bytes",
		Help:      "On-disk size of the store directory.",
	})
)

// Handler serves the default registry, mounted at /metrics.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveRequest records one completed request.
func ObserveRequest(method string, status int, dur time.Duration, bytes int) {
	requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method).Observe(dur.Seconds())
	responseBytes.Add(float64(bytes))
}

// TrackInflight marks a request in flight; the returned func ends it.
func TrackInflight() func() {
	inflight.Inc()
	return func() { inflight.Dec() }
}

// CountRejected records a request turned away before handling.
func CountRejected(reason string) {
	requestsRejected.WithLabelValues(reason).Inc()
}

// CountNoteSaved records one stored note.
func CountNoteSaved() { notesSaved.Inc() }

// CountNotesDeleted records n removed notes.
func CountNotesDeleted(n int) { notesDeleted.Add(float64(n)) }

// CountRetentionSweep records a sweep outcome.
func CountRetentionSweep(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	retentionSweeps.WithLabelValues(result).Inc()
}

// SetStoreStats publishes the latest store gauge readings.
func SetStoreStats(notes, versions int, diskBytes uint64) {
	storeNotes.Set(float64(notes))
	storeVersions.Set(float64(versions))
	storeDiskBytes.Set(float64(diskBytes))
}
