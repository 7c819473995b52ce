// Package metrics exposes scan results to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patrickspencer/cronhive/internal/inventory"
)

// Recorder owns a dedicated registry so tests and the daemon never collide
// with the global default.
type Recorder struct {
	registry     *prometheus.Registry
	jobs         *prometheus.GaugeVec
	scans        prometheus.Counter
	scanDuration prometheus.Histogram
	jobDead      *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cronhive_jobs",
			Help: "Jobs found by the last scan, by state.",
		}, []string{"state"}),
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cronhive_scans_total",
			Help: "Completed inventory scans.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cronhive_scan_duration_seconds",
			Help:    "Time taken by an inventory scan.",
			Buckets: prometheus.DefBuckets,
		}),
		jobDead: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cronhive_job_dead",
			Help: "1 when a checked job is dead, 0 when it is alive.",
		}, []string{"name", "source"}),
	}
	r.registry.MustRegister(r.jobs, r.scans, r.scanDuration, r.jobDead)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveScan records a completed scan and replaces the per-job gauges.
func (r *Recorder) ObserveScan(rep *inventory.Report, took time.Duration) {
	r.scans.Inc()
	r.scanDuration.Observe(took.Seconds())

	r.jobs.WithLabelValues("total").Set(float64(rep.Total))
	r.jobs.WithLabelValues("valid").Set(float64(rep.Valid))
	r.jobs.WithLabelValues("invalid").Set(float64(rep.Invalid))
	r.jobs.WithLabelValues("dead").Set(float64(rep.Dead))

	r.jobDead.Reset()
	for _, e := range rep.Jobs {
		if e.Checked {
			r.SetJobDead(e.Name, e.Source, e.Dead)
		}
	}
}

// SetJobDead updates one job's liveness gauge.
func (r *Recorder) SetJobDead(name, source string, dead bool) {
	v := 0.0
	if dead {
		v = 1
	}
	r.jobDead.WithLabelValues(name, source).Set(v)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
