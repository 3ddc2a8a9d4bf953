// Package metrics exposes alarm supervision metrics for Prometheus.
package metrics
