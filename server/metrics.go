package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsHelper struct {
	ConnectionAcceptCounter prometheus.Counter // socket accept qps
	ActiveConnectionsGauge  prometheus.Gauge
	EchoedBytesCounter      prometheus.Counter
}

// NewMetricsHelper registers the server metrics on registry, usually the
// poller's, so one push carries both.
func NewMetricsHelper(registry *prometheus.Registry) *MetricsHelper {
	m := &MetricsHelper{
		ConnectionAcceptCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eggie_poll_connection_accept_counter",
		}),
		ActiveConnectionsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eggie_poll_active_connections",
		}),
		EchoedBytesCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eggie_poll_echoed_bytes_total",
		}),
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	registry.MustRegister(m.ConnectionAcceptCounter, m.ActiveConnectionsGauge, m.EchoedBytesCounter)
	return m
}
