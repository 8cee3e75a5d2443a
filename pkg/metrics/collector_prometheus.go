package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ Collector            = (*PrometheusCollector)(nil)
	_ prometheus.Collector = (*PrometheusCollector)(nil)
)

// PrometheusCollector exports lock events as Prometheus metrics, labelled with
// the lock name. Register it with a prometheus.Registerer.
type PrometheusCollector struct {
	name string

	acquire     *prometheus.CounterVec
	contended   *prometheus.CounterVec
	wouldBlock  *prometheus.CounterVec
	timeout     *prometheus.CounterVec
	unlockError prometheus.Counter
	wait        *prometheus.HistogramVec
	pending     *prometheus.GaugeVec
}

// NewPrometheusCollector creates the metrics of the lock called name.
func NewPrometheusCollector(name string) *PrometheusCollector {
	labels := prometheus.Labels{"name": name}
	modes := []string{"mode"}

	return &PrometheusCollector{
		name: name,
		acquire: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rwlock_acquire_total",
			Help:        "Total number of successful lock acquisitions",
			ConstLabels: labels,
		}, modes),
		contended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rwlock_contended_total",
			Help:        "Total number of acquisitions that had to wait",
			ConstLabels: labels,
		}, modes),
		wouldBlock: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rwlock_would_block_total",
			Help:        "Total number of try-acquisitions that could not proceed",
			ConstLabels: labels,
		}, modes),
		timeout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rwlock_timeout_total",
			Help:        "Total number of acquisitions whose deadline expired",
			ConstLabels: labels,
		}, modes),
		unlockError: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rwlock_unlock_error_total",
			Help:        "Total number of rejected unlocks",
			ConstLabels: labels,
		}),
		wait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "rwlock_wait_seconds",
			Help:        "Time spent waiting for the lock",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1e-6, 10, 8),
		}, modes),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "rwlock_pending",
			Help:        "Number of goroutines waiting for the lock",
			ConstLabels: labels,
		}, modes),
	}
}

// Name returns the lock name the metrics are labelled with.
func (p *PrometheusCollector) Name() string { return p.name }

func (p *PrometheusCollector) IncAcquire(mode string) {
	p.acquire.WithLabelValues(mode).Inc()
}

func (p *PrometheusCollector) IncContended(mode string) {
	p.contended.WithLabelValues(mode).Inc()
}

func (p *PrometheusCollector) IncWouldBlock(mode string) {
	p.wouldBlock.WithLabelValues(mode).Inc()
}

func (p *PrometheusCollector) IncTimeout(mode string) {
	p.timeout.WithLabelValues(mode).Inc()
}

func (p *PrometheusCollector) IncUnlockError() {
	p.unlockError.Inc()
}

func (p *PrometheusCollector) ObserveWait(mode string, d time.Duration) {
	p.wait.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusCollector) SetPending(mode string, n int) {
	p.pending.WithLabelValues(mode).Set(float64(n))
}

// Describe implements prometheus.Collector.
func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	p.acquire.Describe(ch)
	p.contended.Describe(ch)
	p.wouldBlock.Describe(ch)
	p.timeout.Describe(ch)
	p.unlockError.Describe(ch)
	p.wait.Describe(ch)
	p.pending.Describe(ch)
}

// Collect implements prometheus.Collector.
func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	p.acquire.Collect(ch)
	p.contended.Collect(ch)
	p.wouldBlock.Collect(ch)
	p.timeout.Collect(ch)
	p.unlockError.Collect(ch)
	p.wait.Collect(ch)
	p.pending.Collect(ch)
}
