package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics exposes counters/histograms for the booking relay.
type RelayMetrics struct {
	requestsTotal   *prometheus.CounterVec
	upstreamStatus  *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consult",
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Total relayed booking requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consult",
			Subsystem: "relay",
			Name:      "upstream_responses_total",
			Help:      "Upstream responses by operation and HTTP status class",
		}, []string{"operation", "class"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "consult",
			Subsystem: "relay",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of calls to the upstream scheduling service",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.upstreamStatus, m.upstreamLatency)
	return m
}

// ObserveRequest counts one relayed request; outcome is "ok" or "error".
func (m *RelayMetrics) ObserveRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveUpstream records the status class and latency of one upstream call.
func (m *RelayMetrics) ObserveUpstream(operation string, statusCode int, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamStatus.WithLabelValues(operation, statusClass(statusCode)).Inc()
	m.upstreamLatency.WithLabelValues(operation).Observe(seconds)
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "none"
	}
}
