// Package metrics records Prometheus metrics for listing and lifecycle operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Recorder holds the application collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	lifecycle    *prometheus.CounterVec
	lifecycleIDs *prometheus.CounterVec
	listDuration *prometheus.HistogramVec
	exportRows   *prometheus.CounterVec
}

// New creates a Recorder backed by its own registry, with Go runtime and
// process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "lifecycle_actions_total",
			Help:      "Lifecycle actions by resource, transition and outcome.",
		}, []string{"resource", "transition", "outcome"}),
		lifecycleIDs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "lifecycle_records_total",
			Help:      "Records affected by lifecycle actions.",
		}, []string{"resource", "transition"}),
		listDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "backoffice",
			Name:      "list_query_duration_seconds",
			Help:      "Duration of list and count queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
		exportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "export_rows_total",
			Help:      "Rows served by full exports.",
		}, []string{"resource"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.lifecycle,
		r.lifecycleIDs,
		r.listDuration,
		r.exportRows,
	)
	return r
}

// Lifecycle records one lifecycle action and the number of records it touched.
func (r *Recorder) Lifecycle(resource, transition, outcome string, affected int64) {
	if r == nil {
		return
	}
	r.lifecycle.WithLabelValues(resource, transition, outcome).Inc()
	if affected > 0 {
		r.lifecycleIDs.WithLabelValues(resource, transition).Add(float64(affected))
	}
}

// List records the duration of a list request.
func (r *Recorder) List(resource string, d time.Duration) {
	if r == nil {
		return
	}
	r.listDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// Export records the number of rows a full export returned.
func (r *Recorder) Export(resource string, rows int) {
	if r == nil {
		return
	}
	r.exportRows.WithLabelValues(resource).Add(float64(rows))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
