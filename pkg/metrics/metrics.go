// Package metrics collects reader/writer lock events.
//
// A lock reports to a Collector: the NoOpCollector by default, or a
// PrometheusCollector registered with a prometheus.Registerer:
//
//	c := metrics.NewPrometheusCollector("segments")
//	prometheus.MustRegister(c)
//	l, err := rwlock.New(rwlock.Private, rwlock.WithCollector(c))
package metrics
