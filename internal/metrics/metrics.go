// Package metrics collects and exposes Prometheus metrics for the pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records pipeline metrics. Construct one per process and register
// it on an injected registry so tests stay isolated.
type Collector struct {
	checksTotal      *prometheus.CounterVec
	batchesTotal     prometheus.Counter
	batchSize        prometheus.Histogram
	batchDuration    prometheus.Histogram
	auditForwardFail prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokencheck_checks_total",
			Help: "Token verifications by outcome.",
		}, []string{"outcome"}),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokencheck_batches_total",
			Help: "Completed bulk runs.",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokencheck_batch_size",
			Help:    "Tokens processed per bulk run (after truncation).",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokencheck_batch_duration_seconds",
			Help:    "Wall-clock duration of bulk runs.",
			Buckets: prometheus.ExponentialBuckets(0.2, 2, 10),
		}),
		auditForwardFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokencheck_audit_forward_failures_total",
			Help: "Audit events that could not be delivered to a sink.",
		}),
	}

	reg.MustRegister(
		c.checksTotal,
		c.batchesTotal,
		c.batchSize,
		c.batchDuration,
		c.auditForwardFail,
	)
	return c
}

func (c *Collector) RecordCheck(valid bool) {
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	c.checksTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordBatch(size int, d time.Duration) {
	c.batchesTotal.Inc()
	c.batchSize.Observe(float64(size))
	c.batchDuration.Observe(d.Seconds())
}

func (c *Collector) RecordAuditForwardFailure() {
	c.auditForwardFail.Inc()
}

// Handler exposes the registry for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
