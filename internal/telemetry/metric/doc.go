// Package metric provides Prometheus metrics for mdkeep.
//
//   - prometheus.go: the Registry, its backup/transfer/HTTP metrics and
//     the /metrics handler
//   - collector.go: scrape-time collector for the stored backup count
//
// Storage engine gauges are registered by the storage package against
// Registry.Registerer().
package metric
