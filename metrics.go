package rollout

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what a Rotator does in a registry of its own, so that
// several Rotators, or tests, never collide on the default registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	textfile string

	rotations      prometheus.Counter
	bytesWritten   prometheus.Counter
	filesRemoved   prometheus.Counter
	removeFailures prometheus.Counter
	currentBytes   prometheus.Gauge
	retainedFiles  prometheus.Gauge
}

// NewMetrics returns Metrics labeled with prefix. When textfile is not
// the empty string, WriteTextfile writes the registry to that path in
// the Prometheus text exposition format, suitable for the node
// exporter textfile collector.
func NewMetrics(prefix, textfile string) *Metrics {
	labels := prometheus.Labels{"prefix": prefix}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rollout_rotations_total",
			Help:        "Total number of times the current log file was rotated",
			ConstLabels: labels,
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rollout_bytes_written_total",
			Help:        "Total number of bytes written to log files",
			ConstLabels: labels,
		}),
		filesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rollout_files_removed_total",
			Help:        "Total number of old log files removed by retention",
			ConstLabels: labels,
		}),
		removeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rollout_remove_failures_total",
			Help:        "Total number of old log files retention failed to remove",
			ConstLabels: labels,
		}),
		currentBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "rollout_current_file_bytes",
			Help:        "Number of bytes counted against the current log file",
			ConstLabels: labels,
		}),
		retainedFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "rollout_retained_files",
			Help:        "Number of rotated log files tracked by retention",
			ConstLabels: labels,
		}),
	}

	m.registry.MustRegister(
		m.rotations,
		m.bytesWritten,
		m.filesRemoved,
		m.removeFailures,
		m.currentBytes,
		m.retainedFiles,
	)

	return m
}

// Gatherer returns the registry holding these metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile writes the current metric values to the configured
// textfile. It does nothing when m is nil or no textfile was
// configured.
func (m *Metrics) WriteTextfile() error {
	if m == nil || m.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.textfile, m.registry)
}

func (m *Metrics) rotated() {
	if m != nil {
		m.rotations.Inc()
	}
}

func (m *Metrics) wrote(n int) {
	if m != nil && n > 0 {
		m.bytesWritten.Add(float64(n))
	}
}

func (m *Metrics) removed() {
	if m != nil {
		m.filesRemoved.Inc()
	}
}

func (m *Metrics) removeFailed() {
	if m != nil {
		m.removeFailures.Inc()
	}
}

func (m *Metrics) setCurrent(size int64) {
	if m != nil {
		m.currentBytes.Set(float64(size))
	}
}

func (m *Metrics) setRetained(count int) {
	if m != nil {
		m.retainedFiles.Set(float64(count))
	}
}
