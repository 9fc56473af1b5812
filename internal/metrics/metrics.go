// Package metrics exports Prometheus-style counters and gauges for the
// benchmarking harness: one set of metrics per completed run, scoped by
// transport name, so a Prometheus scrape can compare RDP, UDP, TCP and
// QUIC runs against each other over time.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/minmunui/rudp-vs-tcp/internal/transport"
)

// Collector exposes the running harness's transfer history as Prometheus
// metrics. It implements prometheus.Collector directly (rather than using
// the promauto counters) to give each run its own labeled sample, the
// same approach the retrieved TCP_INFO exporters use for per-connection
// samples.
type Collector struct {
	mu      sync.Mutex
	results []labeledResult

	bytesSentDesc  *prometheus.Desc
	durationDesc   *prometheus.Desc
	lossEventsDesc *prometheus.Desc
	outcomeDesc    *prometheus.Desc
}

type labeledResult struct {
	transport.Result
}

// NewCollector builds a Collector with no recorded runs yet.
func NewCollector() *Collector {
	return &Collector{
		bytesSentDesc: prometheus.NewDesc(
			"rdp_bench_bytes_sent_total", "Bytes sent during a transfer run.",
			[]string{"transport"}, nil),
		durationDesc: prometheus.NewDesc(
			"rdp_bench_transfer_duration_seconds", "Wall-clock duration of a transfer run.",
			[]string{"transport"}, nil),
		lossEventsDesc: prometheus.NewDesc(
			"rdp_bench_loss_events_total", "Number of NACK/loss rounds recorded during a run.",
			[]string{"transport"}, nil),
		outcomeDesc: prometheus.NewDesc(
			"rdp_bench_transfer_outcome", "1 if the run's outcome matches the label, else 0.",
			[]string{"transport", "outcome"}, nil),
	}
}

// Record appends a completed run's Result to the series this Collector
// will report on the next scrape.
func (c *Collector) Record(r transport.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, labeledResult{r})
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesSentDesc
	ch <- c.durationDesc
	ch <- c.lossEventsDesc
	ch <- c.outcomeDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.results {
		ch <- prometheus.MustNewConstMetric(c.bytesSentDesc, prometheus.CounterValue, float64(r.BytesSent), r.Transport)
		ch <- prometheus.MustNewConstMetric(c.durationDesc, prometheus.GaugeValue, r.Duration.Seconds(), r.Transport)
		ch <- prometheus.MustNewConstMetric(c.lossEventsDesc, prometheus.CounterValue, float64(len(r.LossEvents)), r.Transport)
		ch <- prometheus.MustNewConstMetric(c.outcomeDesc, prometheus.GaugeValue, 1, r.Transport, string(r.Outcome))
	}
}
