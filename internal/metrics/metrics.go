// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opsportal_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opsportal_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ImportedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opsportal_expense_import_rows_total",
		Help: "Project expense rows committed by spreadsheet imports.",
	})
)

// Register adds every collector to reg
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{HTTPRequests, HTTPDuration, ImportedRows} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
