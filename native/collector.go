package native

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports Client statistics as Prometheus metrics.
type Collector struct {
	clients []*Client

	outstanding      *prometheus.Desc
	outstandingBytes *prometheus.Desc
	allocations      *prometheus.Desc
	frees            *prometheus.Desc
	refused          *prometheus.Desc
	failures         *prometheus.Desc
	processLive      *prometheus.Desc
}

// NewCollector creates a Collector over clients.
func NewCollector(clients ...*Client) *Collector {
	labels := []string{"allocator"}
	return &Collector{
		clients: clients,
		outstanding: prometheus.NewDesc("offheap_outstanding_allocations",
			"Allocations not yet freed.", labels, nil),
		outstandingBytes: prometheus.NewDesc("offheap_outstanding_bytes",
			"Usable bytes held by allocations not yet freed.", labels, nil),
		allocations: prometheus.NewDesc("offheap_allocations_total",
			"Successful allocations.", labels, nil),
		frees: prometheus.NewDesc("offheap_frees_total",
			"Blocks returned to the source.", labels, nil),
		refused: prometheus.NewDesc("offheap_refused_frees_total",
			"Free calls refused because the block was retained or unknown.", labels, nil),
		failures: prometheus.NewDesc("offheap_allocation_failures_total",
			"Allocation requests that returned no address.", labels, nil),
		processLive: prometheus.NewDesc("offheap_process_outstanding_allocations",
			"Allocations not yet freed across every allocator in the process.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.outstanding
	ch <- c.outstandingBytes
	ch <- c.allocations
	ch <- c.frees
	ch <- c.refused
	ch <- c.failures
	ch <- c.processLive
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, cl := range c.clients {
		s := cl.Stats()
		ch <- prometheus.MustNewConstMetric(c.outstanding, prometheus.GaugeValue, float64(s.Outstanding), s.Name)
		ch <- prometheus.MustNewConstMetric(c.outstandingBytes, prometheus.GaugeValue, float64(s.OutstandingBytes), s.Name)
		ch <- prometheus.MustNewConstMetric(c.allocations, prometheus.CounterValue, float64(s.Allocations), s.Name)
		ch <- prometheus.MustNewConstMetric(c.frees, prometheus.CounterValue, float64(s.Frees), s.Name)
		ch <- prometheus.MustNewConstMetric(c.refused, prometheus.CounterValue, float64(s.RefusedFrees), s.Name)
		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(s.Failures), s.Name)
	}
	ch <- prometheus.MustNewConstMetric(c.processLive, prometheus.GaugeValue, float64(Outstanding()))
}

var _ prometheus.Collector = (*Collector)(nil)
