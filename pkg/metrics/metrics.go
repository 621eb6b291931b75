// Package metrics exposes erasure and report counters in Prometheus form.
// The CLI is short-lived, so values are exported with WriteTextfile for the
// node_exporter textfile collector rather than served over HTTP.
package metrics

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the collectors for one registry. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	reg prometheus.Gatherer

	Erasures        *prometheus.CounterVec
	Passes          *prometheus.CounterVec
	BytesWritten    prometheus.Counter
	EraseDuration   *prometheus.HistogramVec
	Reports         *prometheus.CounterVec
	SigningFailures *prometheus.CounterVec
	LastErasure     prometheus.Gauge
}

// New creates collectors and registers them on a fresh registry.
func New() (*Recorder, error) {
	reg := prometheus.NewRegistry()
	r := newRecorder(reg)
	if err := r.register(reg); err != nil {
		return nil, err
	}
	return r, nil
}

func newRecorder(g prometheus.Gatherer) *Recorder {
	return &Recorder{
		reg: g,
		Erasures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wipe_erasures_total",
			Help: "Erasure attempts by medium, method and outcome",
		}, []string{"medium", "method", "outcome"}),
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wipe_erasure_passes_total",
			Help: "Overwrite passes flushed to stable storage",
		}, []string{"pattern"}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wipe_erasure_bytes_written_total",
			Help: "Bytes written by overwrite passes",
		}),
		EraseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wipe_erasure_duration_seconds",
			Help:    "Wall time of an erasure, all passes included",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"medium"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wipe_reports_total",
			Help: "Reports written, by signature state",
		}, []string{"signed"}),
		SigningFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wipe_signing_failures_total",
			Help: "Reports left unsigned, by reason",
		}, []string{"reason"}),
		LastErasure: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wipe_last_erasure_timestamp_seconds",
			Help: "Unix time of the most recent successful erasure",
		}),
	}
}

func (r *Recorder) register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		r.Erasures, r.Passes, r.BytesWritten, r.EraseDuration,
		r.Reports, r.SigningFailures, r.LastErasure,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

func (r *Recorder) ObservePass(pattern string, bytes int64) {
	if r == nil {
		return
	}
	r.Passes.WithLabelValues(pattern).Inc()
	r.BytesWritten.Add(float64(bytes))
}

func (r *Recorder) ObserveErasure(medium, method string, success bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "success"
		r.LastErasure.SetToCurrentTime()
	}
	r.Erasures.WithLabelValues(medium, method, outcome).Inc()
	r.EraseDuration.WithLabelValues(medium).Observe(elapsed.Seconds())
}

// ObserveReport counts a written report. reason is the failure reason when
// the report is unsigned.
func (r *Recorder) ObserveReport(signed bool, reason string) {
	if r == nil {
		return
	}
	r.Reports.WithLabelValues(strconv.FormatBool(signed)).Inc()
	if !signed {
		if reason == "" {
			reason = "unknown"
		}
		r.SigningFailures.WithLabelValues(reason).Inc()
	}
}

// WriteTextfile writes the current values in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
