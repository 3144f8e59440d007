// Package metrics records sync run counters with prometheus.
//
// The binary is short-lived, so nothing is scraped. When metrics.textfile is
// configured the registry is written at the end of the run for the node
// exporter textfile collector.
package metrics
