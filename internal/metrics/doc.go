// Package metrics defines the Prometheus collectors updated during an import.
//
// The CLI is short-lived, so nothing is scraped: after a run the default registry
// can be written to a file with [WriteTextfile] for the node_exporter textfile collector.
package metrics
