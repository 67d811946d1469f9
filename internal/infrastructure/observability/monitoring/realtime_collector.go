// Package monitoring exposes live connection state as Prometheus metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConnectionCounter reports open browser sockets.
type ConnectionCounter interface {
	TotalConnections() int
}

// ListenerCounter reports live opener listeners.
type ListenerCounter interface {
	TotalListeners() int
}

// AttemptCounter reports connect attempts awaiting the popup.
type AttemptCounter interface {
	ConnectingCount() int
}

// RealtimeCollector samples the hub, opener channel and OAuth service on
// every scrape rather than tracking increments.
type RealtimeCollector struct {
	hub    ConnectionCounter
	opener ListenerCounter
	oauth  AttemptCounter

	connections *prometheus.Desc
	listeners   *prometheus.Desc
	attempts    *prometheus.Desc
}

// NewRealtimeCollector creates a collector. Register it with a registry to expose it.
func NewRealtimeCollector(namespace string, hub ConnectionCounter, opener ListenerCounter, oauth AttemptCounter) *RealtimeCollector {
	return &RealtimeCollector{
		hub:    hub,
		opener: opener,
		oauth:  oauth,
		connections: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "websocket", "connections"),
			"Open browser websocket connections.", nil, nil),
		listeners: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "opener", "listeners"),
			"Live opener channel listeners.", nil, nil),
		attempts: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "oauth", "connect_attempts"),
			"Instagram connect attempts waiting on the authorization popup.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *RealtimeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connections
	ch <- c.listeners
	ch <- c.attempts
}

// Collect implements prometheus.Collector.
func (c *RealtimeCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(c.hub.TotalConnections()))
	ch <- prometheus.MustNewConstMetric(c.listeners, prometheus.GaugeValue, float64(c.opener.TotalListeners()))
	ch <- prometheus.MustNewConstMetric(c.attempts, prometheus.GaugeValue, float64(c.oauth.ConnectingCount()))
}
