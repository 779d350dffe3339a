// Package metrics exposes the operational counters and gauges this
// server publishes beyond the core protocol surface. It implements
// reactor.Recorder so the reactor never imports prometheus directly.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the counters/gauges this server publishes and the
// HTTP handler that serves them.
type Registry struct {
	reg *prometheus.Registry

	connectionsOpened prometheus.Counter
	connectionsActive prometheus.Gauge
	commandsTotal     *prometheus.CounterVec
	walQueueDepth     prometheus.Gauge
	storeKeys         prometheus.Gauge
	replicationLag    *prometheus.GaugeVec
}

// New builds a Registry with all series registered against a fresh
// prometheus.Registry — never the global DefaultRegisterer, so multiple
// Registries (as in tests) never collide.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		connectionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cached",
			Name:      "connections_opened_total",
			Help:      "Total TCP connections accepted by the reactor.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cached",
			Name:      "connections_active",
			Help:      "Currently open client connections.",
		}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cached",
			Name:      "commands_total",
			Help:      "Commands handled, by kind.",
		}, []string{"kind"}),
		walQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cached",
			Name:      "wal_queue_depth",
			Help:      "Commands currently queued for the WAL sink.",
		}),
		storeKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cached",
			Name:      "store_keys",
			Help:      "Number of keys currently held in the in-memory store.",
		}),
		replicationLag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cached",
			Name:      "replication_peer_up",
			Help:      "1 if the replication connection to a peer is up, 0 otherwise.",
		}, []string{"peer"}),
	}

	reg.MustRegister(
		r.connectionsOpened,
		r.connectionsActive,
		r.commandsTotal,
		r.walQueueDepth,
		r.storeKeys,
		r.replicationLag,
	)
	return r
}

// ConnectionOpened implements reactor.Recorder.
func (r *Registry) ConnectionOpened() {
	r.connectionsOpened.Inc()
	r.connectionsActive.Inc()
}

// ConnectionClosed implements reactor.Recorder.
func (r *Registry) ConnectionClosed() {
	r.connectionsActive.Dec()
}

// CommandHandled implements reactor.Recorder.
func (r *Registry) CommandHandled(kind string) {
	r.commandsTotal.WithLabelValues(kind).Inc()
}

// SetWALQueueDepth records the WAL sink's current queue length.
func (r *Registry) SetWALQueueDepth(n int) {
	r.walQueueDepth.Set(float64(n))
}

// SetStoreKeys records the store's current key count.
func (r *Registry) SetStoreKeys(n int) {
	r.storeKeys.Set(float64(n))
}

// SetPeerUp records whether a replication peer's connection is currently
// live, keyed by its configured address.
func (r *Registry) SetPeerUp(addr string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	r.replicationLag.WithLabelValues(addr).Set(v)
}

// Handler returns the /metrics HTTP handler for this Registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
