package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPRequests counts handled HTTP requests by route and status class.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "commerce_http_requests_total",
		Help: "Total number of HTTP requests handled",
	},
	[]string{"service", "method", "path", "status"},
)

// HTTPDuration records HTTP handler latency per route.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "commerce_http_request_duration_seconds",
		Help:    "Latency in seconds to handle HTTP requests",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"service", "path"},
)

// OrderTransitions counts accepted order status transitions.
var OrderTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "commerce_order_transitions_total",
		Help: "Total number of accepted order status transitions",
	},
	[]string{"from", "to"},
)

// OrderRejections counts status transitions refused by the lifecycle rules.
var OrderRejections = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "commerce_order_transition_rejections_total",
		Help: "Total number of order status transitions rejected",
	},
)

// AggregateDuration records how long each analytics aggregate takes.
var AggregateDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "commerce_aggregate_duration_seconds",
		Help:    "Latency in seconds to compute analytics aggregates",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"aggregate"},
)

// PeerRequests counts outbound calls to the orders service by outcome.
var PeerRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "commerce_peer_requests_total",
		Help: "Total number of outbound requests to the peer service",
	},
	[]string{"path", "outcome"},
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration)
	prometheus.MustRegister(OrderTransitions, OrderRejections)
	prometheus.MustRegister(AggregateDuration, PeerRequests)
}
