package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the engine's counters and gauges. All methods are
// nil-safe so the core can run without telemetry wired.
type Metrics struct {
	feedEvents    prometheus.Counter
	fillEvents    prometheus.Counter
	controlEvents prometheus.Counter
	queueDrops    prometheus.Counter

	inferredTrades prometheus.Counter
	quoteFailures  prometheus.Counter
	volFailures    prometheus.Counter

	cancels         *prometheus.CounterVec
	posts           prometheus.Counter
	modeTransitions *prometheus.CounterVec

	inventory     *prometheus.GaugeVec
	realizedPnL   *prometheus.GaugeVec
	unrealizedPnL *prometheus.GaugeVec
	volatility    *prometheus.GaugeVec
	activeOrders  *prometheus.GaugeVec

	cycleLatency prometheus.Histogram
}

// NewMetrics builds and registers the metric set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		feedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_feed_events_total",
			Help: "Market data events drained",
		}),
		fillEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_fill_events_total",
			Help: "Fill events drained",
		}),
		controlEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_control_events_total",
			Help: "Control messages drained",
		}),
		queueDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_queue_drops_total",
			Help: "Outbound intents dropped on a full queue",
		}),
		inferredTrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_inferred_trades_total",
			Help: "Trades inferred from depth deltas during bootstrap",
		}),
		quoteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_quote_failures_total",
			Help: "Ladder builds skipped on pricing model failure",
		}),
		volFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_volatility_failures_total",
			Help: "Volatility recomputes that retained the stale value",
		}),
		cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mm_cancels_total",
			Help: "Cancel intents by trigger",
		}, []string{"trigger"}),
		posts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_posts_total",
			Help: "Post intents emitted",
		}),
		modeTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mm_mode_transitions_total",
			Help: "Quoting mode transitions by target mode",
		}, []string{"mode"}),
		inventory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mm_inventory",
			Help: "Signed inventory per symbol",
		}, []string{"symbol"}),
		realizedPnL: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mm_realized_pnl",
			Help: "Realized P&L per symbol",
		}, []string{"symbol"}),
		unrealizedPnL: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mm_unrealized_pnl",
			Help: "Unrealized P&L per symbol",
		}, []string{"symbol"}),
		volatility: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mm_volatility",
			Help: "Volatility estimate per symbol",
		}, []string{"symbol"}),
		activeOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mm_active_orders",
			Help: "Active resting orders per symbol",
		}, []string{"symbol"}),
		cycleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mm_cycle_seconds",
			Help:    "Engine loop iteration latency",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.feedEvents, m.fillEvents, m.controlEvents, m.queueDrops,
			m.inferredTrades, m.quoteFailures, m.volFailures,
			m.cancels, m.posts, m.modeTransitions,
			m.inventory, m.realizedPnL, m.unrealizedPnL, m.volatility, m.activeOrders,
			m.cycleLatency,
		)
	}
	return m
}

func (m *Metrics) IncFeedEvents() {
	if m != nil {
		m.feedEvents.Inc()
	}
}

func (m *Metrics) IncFillEvents() {
	if m != nil {
		m.fillEvents.Inc()
	}
}

func (m *Metrics) IncControlEvents() {
	if m != nil {
		m.controlEvents.Inc()
	}
}

func (m *Metrics) IncQueueDrops() {
	if m != nil {
		m.queueDrops.Inc()
	}
}

func (m *Metrics) AddInferredTrades(n int64) {
	if m != nil && n > 0 {
		m.inferredTrades.Add(float64(n))
	}
}

func (m *Metrics) IncQuoteFailures() {
	if m != nil {
		m.quoteFailures.Inc()
	}
}

func (m *Metrics) IncVolFailures() {
	if m != nil {
		m.volFailures.Inc()
	}
}

func (m *Metrics) AddCancels(trigger string, n int) {
	if m != nil && n > 0 {
		m.cancels.WithLabelValues(trigger).Add(float64(n))
	}
}

func (m *Metrics) AddPosts(n int) {
	if m != nil && n > 0 {
		m.posts.Add(float64(n))
	}
}

func (m *Metrics) IncModeTransition(mode string) {
	if m != nil {
		m.modeTransitions.WithLabelValues(mode).Inc()
	}
}

// SetSymbolGauges refreshes the per-symbol snapshot gauges.
func (m *Metrics) SetSymbolGauges(symbol string, inventory, realized, unrealized, volatility float64, activeOrders int) {
	if m == nil {
		return
	}
	m.inventory.WithLabelValues(symbol).Set(inventory)
	m.realizedPnL.WithLabelValues(symbol).Set(realized)
	m.unrealizedPnL.WithLabelValues(symbol).Set(unrealized)
	m.volatility.WithLabelValues(symbol).Set(volatility)
	m.activeOrders.WithLabelValues(symbol).Set(float64(activeOrders))
}

func (m *Metrics) ObserveCycle(seconds float64) {
	if m != nil {
		m.cycleLatency.Observe(seconds)
	}
}
