// Package metrics exposes the coordination core's counters as Prometheus
// collectors. The Metrics type implements bus.Observer for live envelope
// counting and offers Observe helpers the façade calls with auction results
// and dispatch statistics. All collectors are registered against a caller
// supplied registerer so embedders keep control of their metrics namespace.
package metrics
