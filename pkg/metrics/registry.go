// Package metrics implements the per-task-manager Prometheus /metrics
// HTTP endpoint and the coordinator-side fan-out that aggregates every
// task manager's metrics into one response.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the plain-text Prometheus exposition handler a task
// manager process mounts at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve mounts the metrics handler and blocks serving it on addr.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
