// Package metrics defines the Prometheus metrics for the miniblog server.
// It is the single source of truth for metric names, labels, and help
// strings. promauto registers everything with the default registry at
// package init; the server exposes it on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "miniblog"

// HTTPRequestsTotal counts completed HTTP requests.
// Labels:
//   - method: HTTP verb
//   - path: the route pattern (e.g. "/api/posts/{id}"), not the raw URL,
//     so the label set stays bounded
//   - status: numeric status code as a string
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "path", "status"},
)

// HTTPRequestDuration observes request latency per route pattern.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "failure" (bad credentials), or "invalid"
//     (malformed request)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// PostsCreatedTotal counts successfully published posts.
var PostsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_created_total",
		Help:      "Total number of posts created.",
	},
)
