// Package metrics provides observability for the game server.
// Counters are exported in Prometheus format and as a flat JSON snapshot.
package metrics

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "mito"

// Reaction outcomes.
const (
	OutcomeApplied = "applied" // resources changed
	OutcomeBlocked = "blocked" // action spent, precondition failed
	OutcomeSkipped = "skipped" // no action left or run over
)

// Collector gathers gameplay and transport metrics on its own registry.
// The Record methods are no-ops on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	reactions   *prometheus.CounterVec
	turns       prometheus.Counter
	turnLatency prometheus.Histogram
	conditions  *prometheus.CounterVec
	runsEnded   *prometheus.CounterVec
	resets      prometheus.Counter
	roomMoves   *prometheus.CounterVec

	wsConnections prometheus.Gauge
	wsMessages    *prometheus.CounterVec
	ledgerErrors  prometheus.Counter

	startTime time.Time
}

// New creates a collector with every metric registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		reactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_total",
			Help:      "Reactions requested, by kind and outcome.",
		}, []string{"reaction", "outcome"}),
		turns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_advanced_total",
			Help:      "Accepted end-of-turn intents.",
		}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_advance_seconds",
			Help:      "Time spent regulating and drawing an event.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		conditions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conditions_drawn_total",
			Help:      "Event cards drawn at turn advance, by card.",
		}, []string{"condition"}),
		runsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_ended_total",
			Help:      "Runs that reached a terminal status.",
		}, []string{"status"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Explicit run resets.",
		}),
		roomMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_moves_total",
			Help:      "Room selection requests, by room and outcome.",
		}, []string{"room", "outcome"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Active websocket connections.",
		}),
		wsMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Websocket messages, by direction.",
		}, []string{"direction"}),
		ledgerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_write_errors_total",
			Help:      "Failed ledger writes.",
		}),
		startTime: time.Now(),
	}

	c.registry.MustRegister(
		c.reactions,
		c.turns,
		c.turnLatency,
		c.conditions,
		c.runsEnded,
		c.resets,
		c.roomMoves,
		c.wsConnections,
		c.wsMessages,
		c.ledgerErrors,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordReaction counts a reaction request.
func (c *Collector) RecordReaction(reaction, outcome string) {
	if c == nil {
		return
	}
	c.reactions.WithLabelValues(reaction, outcome).Inc()
}

// RecordTurn records an accepted turn advance.
func (c *Collector) RecordTurn(latency time.Duration) {
	if c == nil {
		return
	}
	c.turns.Inc()
	c.turnLatency.Observe(latency.Seconds())
}

// RecordCondition counts a drawn event card.
func (c *Collector) RecordCondition(id string) {
	if c == nil {
		return
	}
	c.conditions.WithLabelValues(id).Inc()
}

// RecordRunEnded counts a run reaching a terminal status.
func (c *Collector) RecordRunEnded(status string) {
	if c == nil {
		return
	}
	c.runsEnded.WithLabelValues(status).Inc()
}

// RecordReset counts an explicit reset.
func (c *Collector) RecordReset() {
	if c == nil {
		return
	}
	c.resets.Inc()
}

// RecordRoomMove counts a room selection request.
func (c *Collector) RecordRoomMove(room string, accepted bool) {
	if c == nil {
		return
	}
	outcome := "accepted"
	if !accepted {
		outcome = "refused"
	}
	c.roomMoves.WithLabelValues(room, outcome).Inc()
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int) {
	if c == nil {
		return
	}
	c.wsConnections.Add(float64(delta))
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if c == nil {
		return
	}
	if incoming {
		c.wsMessages.WithLabelValues("in").Inc()
	} else {
		c.wsMessages.WithLabelValues("out").Inc()
	}
}

// RecordLedgerError counts a failed ledger write.
func (c *Collector) RecordLedgerError() {
	if c == nil {
		return
	}
	c.ledgerErrors.Inc()
}

// Snapshot flattens every series into a map keyed by name and labels.
// Histograms report their sample count.
func (c *Collector) Snapshot() map[string]float64 {
	out := map[string]float64{
		"uptime_seconds": time.Since(c.startTime).Seconds(),
	}

	families, err := c.registry.Gather()
	if err != nil {
		return out
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := seriesKey(mf.GetName(), m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out[key] = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				out[key] = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				out[key+"_count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func seriesKey(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.GetName()+"=\""+l.GetValue()+"\"")
	}
	sort.Strings(parts)
	return name + "{" + strings.Join(parts, ",") + "}"
}

// Handler returns an HTTP handler serving the JSON snapshot.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func (c *Collector) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
