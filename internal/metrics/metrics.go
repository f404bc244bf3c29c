// Package metrics defines the Prometheus collectors shared by the widget and its hosts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcomments_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytcomments_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytcomments_http_rate_limited_total",
			Help: "Total number of requests rejected by the per-client rate limiter",
		},
	)

	// Comment fetch metrics, labelled by result kind
	CommentFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcomments_comment_fetches_total",
			Help: "Total number of comment thread fetches by outcome",
		},
		[]string{"kind"},
	)

	CommentFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytcomments_comment_fetch_duration_seconds",
			Help:    "Comment thread fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Widget metrics
	WidgetRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcomments_widget_renders_total",
			Help: "Total number of widget renders by outcome (list, empty, error)",
		},
		[]string{"outcome"},
	)

	WidgetBootstraps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytcomments_widget_bootstraps_total",
			Help: "Total number of bootstrap runs by result (dispatched, absent)",
		},
		[]string{"result"},
	)
)
