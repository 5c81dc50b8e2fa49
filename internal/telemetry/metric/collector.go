package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CountFunc returns the number of stored backups.
type CountFunc func(ctx context.Context) (int, error)

// Collector reports the stored backup count at scrape time.
type Collector struct {
	count   CountFunc
	timeout time.Duration

	stored *prometheus.Desc
	up     *prometheus.Desc
}

// NewCollector creates a collector that calls count on every scrape.
func NewCollector(count CountFunc) *Collector {
	return &Collector{
		count:   count,
		timeout: 5 * time.Second,
		stored: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "backup", "stored"),
			"Backups currently stored",
			nil, nil,
		),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "backup", "store_up"),
			"Whether the backup database answered the last scrape",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stored
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.count(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.stored, prometheus.GaugeValue, float64(n))
}
