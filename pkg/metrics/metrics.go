// Copyright 2026 Warpcore
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics is the Prometheus-backed observability supplement of
// SPEC_FULL.md §4.8: a pkg/event.Sink that turns execution events into
// counters and histograms, plus direct On* callback methods fed
// from pkg/llm's circuit breaker / fallback callbacks and pkg/contextwindow's
// compaction callback, so those packages stay decoupled from the Prometheus
// registry itself (they call a plain Go func, not a metrics API).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warpcore/warp/pkg/event"
	"github.com/warpcore/warp/pkg/llm"
)

// Collector implements event.Sink and exposes the metric registry via
// Handler for cmd/warp serve --metrics-addr.
type Collector struct {
	registry *prometheus.Registry

	toolCalls      *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	stepsTotal     prometheus.Counter
	sessionsTotal  *prometheus.CounterVec
	circuitState   *prometheus.GaugeVec
	fallbackTotal  *prometheus.CounterVec
	compactionTotal prometheus.Counter
	compactionRatio prometheus.Histogram
}

// NewCollector builds a Collector with its own private Prometheus registry
// (not the global DefaultRegisterer), so multiple Collectors can coexist in
// tests without double-registration panics.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warp", Subsystem: "tool", Name: "calls_total",
			Help: "Tool dispatches by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "warp", Subsystem: "tool", Name: "duration_seconds",
			Help:    "Tool dispatch latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		stepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warp", Subsystem: "agent", Name: "steps_total",
			Help: "Agent loop steps executed, across all sessions.",
		}),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warp", Subsystem: "agent", Name: "sessions_total",
			Help: "Sessions started, by terminal outcome kind.",
		}, []string{"outcome"}),
		circuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "warp", Subsystem: "llm", Name: "circuit_state",
			Help: "Circuit breaker state per provider (0=closed,1=half_open,2=open).",
		}, []string{"provider"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warp", Subsystem: "llm", Name: "fallback_total",
			Help: "Fallback chain advances, by origin and destination candidate.",
		}, []string{"from", "to"}),
		compactionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warp", Subsystem: "context", Name: "compactions_total",
			Help: "Context window auto-compactions performed.",
		}),
		compactionRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "warp", Subsystem: "context", Name: "compaction_ratio",
			Help:    "Post-compaction token count as a fraction of pre-compaction.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
	}
	reg.MustRegister(
		c.toolCalls, c.toolDuration, c.stepsTotal, c.sessionsTotal,
		c.circuitState, c.fallbackTotal, c.compactionTotal, c.compactionRatio,
	)
	return c
}

var _ event.Sink = (*Collector)(nil)

// Handle implements event.Sink, translating the executor's event stream
// into metric updates.
func (c *Collector) Handle(e event.Event) {
	switch e.Kind {
	case event.StepStarted:
		c.stepsTotal.Inc()
	case event.ToolExecutionCompleted:
		outcome := "failure"
		if e.Success {
			outcome = "success"
		}
		c.toolCalls.WithLabelValues(e.ToolName, outcome).Inc()
	case event.SessionEnded:
		outcome, _ := e.Data["outcome"].(string)
		if outcome == "" {
			outcome = "unknown"
		}
		c.sessionsTotal.WithLabelValues(outcome).Inc()
	case event.Compacted:
		c.compactionTotal.Inc()
	}
}

// ObserveToolDuration records a tool's wall-clock latency in the duration
// histogram. event.Event carries no duration field, so Handle records no
// latency, and nothing in this module calls this method.
func (c *Collector) ObserveToolDuration(toolName string, seconds float64) {
	c.toolDuration.WithLabelValues(toolName).Observe(seconds)
}

// OnCircuitStateChange is wired into llm.CircuitBreakerConfig.OnStateChange.
func (c *Collector) OnCircuitStateChange(provider string, _, to llm.CircuitState) {
	var v float64
	switch to {
	case llm.StateClosed:
		v = 0
	case llm.StateHalfOpen:
		v = 1
	case llm.StateOpen:
		v = 2
	}
	c.circuitState.WithLabelValues(provider).Set(v)
}

// OnFallback is wired into llm.ChainConfig.OnFallback.
func (c *Collector) OnFallback(ev llm.FallbackEvent) {
	c.fallbackTotal.WithLabelValues(ev.From, ev.To).Inc()
}

// OnCompacted is wired into contextwindow.NewManager's onCompact callback.
func (c *Collector) OnCompacted(before, after int) {
	c.compactionTotal.Inc()
	if before > 0 {
		c.compactionRatio.Observe(float64(after) / float64(before))
	}
}

// Handler exposes the collector's registry over HTTP for cmd/warp serve.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
