package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the game server
type Metrics struct {
	ActiveRooms      prometheus.Gauge
	ConnectedPlayers prometheus.Gauge
	EventsReceived   prometheus.Counter
	EventDuration    prometheus.Histogram
}

// New registers and returns the server metrics under the given namespace
func New(namespace string) *Metrics {
	m := &Metrics{
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of active rooms",
		}),
		ConnectedPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_players",
			Help:      "Number of connected players",
		}),
		EventsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Total number of game events received",
		}),
		EventDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Game event handling latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	prometheus.MustRegister(
		m.ActiveRooms,
		m.ConnectedPlayers,
		m.EventsReceived,
		m.EventDuration,
	)

	return m
}

// Handler returns the HTTP handler exposing the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// RoomOpened increments the active-rooms gauge
func (m *Metrics) RoomOpened() {
	m.ActiveRooms.Inc()
}

// RoomClosed decrements the active-rooms gauge
func (m *Metrics) RoomClosed() {
	m.ActiveRooms.Dec()
}

// PlayerConnected increments the connected-players gauge
func (m *Metrics) PlayerConnected() {
	m.ConnectedPlayers.Inc()
}

// PlayerDisconnected decrements the connected-players gauge
func (m *Metrics) PlayerDisconnected() {
	m.ConnectedPlayers.Dec()
}

// ObserveEvent records one handled event and its latency
func (m *Metrics) ObserveEvent(duration time.Duration) {
	m.EventsReceived.Inc()
	m.EventDuration.Observe(duration.Seconds())
}
