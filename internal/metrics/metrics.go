package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jirapulse_http_requests_total",
		Help: "HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jirapulse_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jirapulse_sync_runs_total",
		Help: "Completed sync runs by terminal status",
	}, []string{"status"})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jirapulse_sync_duration_seconds",
		Help:    "Wall-clock duration of full sync runs",
		Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
	})

	ProjectsSynced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jirapulse_projects_synced_total",
		Help: "Project sync outcomes by status",
	}, []string{"status"})

	IssuesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jirapulse_issues_written_total",
		Help: "Issues written to the database by action",
	}, []string{"action"})

	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jirapulse_upstream_errors_total",
		Help: "Upstream JIRA errors by error code",
	}, []string{"code", "instance"})
)
