// Package metrics defines the observability hooks for conversion runs and a
// Prometheus-backed implementation used by the daemon.
package metrics
