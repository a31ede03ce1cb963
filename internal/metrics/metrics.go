// Package metrics exposes the tracker's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every collector the tracker updates. A nil *Metrics is
// valid and turns all updates into no-ops.
type Metrics struct {
	EventsTotal        *prometheus.CounterVec
	SettledTotal       prometheus.Counter
	DoneTotal          prometheus.Counter
	UnpinnedTotal      prometheus.Counter
	ChainCallsTotal    *prometheus.CounterVec
	PendingTxs         prometheus.Gauge
	PinnedBlocks       prometheus.Gauge
	EventFailuresTotal prometheus.Counter
}

// New creates the collectors and, when reg is non-nil, registers them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracker",
			Name:      "events_total",
			Help:      "Chain events processed, by kind.",
		}, []string{"kind"}),
		SettledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracker",
			Name:      "settled_transactions_total",
			Help:      "Transactions reported settled.",
		}),
		DoneTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracker",
			Name:      "done_transactions_total",
			Help:      "Transactions reported done.",
		}),
		UnpinnedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracker",
			Name:      "unpinned_blocks_total",
			Help:      "Blocks released via the unpin API.",
		}),
		ChainCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracker",
			Name:      "chain_calls_total",
			Help:      "Chain-data API lookups issued, by method.",
		}, []string{"method"}),
		PendingTxs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tracker",
			Name:      "pending_transactions",
			Help:      "Transactions observed but not yet settled.",
		}),
		PinnedBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tracker",
			Name:      "pinned_blocks",
			Help:      "Blocks whose state is still retained.",
		}),
		EventFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracker",
			Name:      "event_failures_total",
			Help:      "Events whose processing returned an error.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.EventsTotal, m.SettledTotal, m.DoneTotal, m.UnpinnedTotal,
			m.ChainCallsTotal, m.PendingTxs, m.PinnedBlocks, m.EventFailuresTotal,
		)
	}
	return m
}

// Event records one processed event of the given kind.
func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// ChainCall records one chain-data API lookup.
func (m *Metrics) ChainCall(method string) {
	if m == nil {
		return
	}
	m.ChainCallsTotal.WithLabelValues(method).Inc()
}

// Settled records one settlement notification.
func (m *Metrics) Settled() {
	if m == nil {
		return
	}
	m.SettledTotal.Inc()
}

// Done records one done notification.
func (m *Metrics) Done() {
	if m == nil {
		return
	}
	m.DoneTotal.Inc()
}

// Unpinned records n released blocks.
func (m *Metrics) Unpinned(n int) {
	if m == nil {
		return
	}
	m.UnpinnedTotal.Add(float64(n))
}

// Failure records one failed event.
func (m *Metrics) Failure() {
	if m == nil {
		return
	}
	m.EventFailuresTotal.Inc()
}

// SetPending updates the pending-transaction gauge.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingTxs.Set(float64(n))
}

// SetPinned updates the pinned-block gauge.
func (m *Metrics) SetPinned(n int) {
	if m == nil {
		return
	}
	m.PinnedBlocks.Set(float64(n))
}
