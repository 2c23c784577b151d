// Package metrics exposes refresh and slideshow counters for scrape.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	// RefreshCycles counts completed refresh attempts per panel and outcome
	// (ok, unavailable, error).
	RefreshCycles = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dutyboard",
		Name:      "refresh_cycles_total",
		Help:      "Refresh attempts per panel and outcome.",
	}, []string{"panel", "outcome"})

	// StaleDiscards counts results dropped because a newer generation
	// superseded them before commit.
	StaleDiscards = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dutyboard",
		Name:      "stale_discards_total",
		Help:      "Refresh results discarded as superseded.",
	}, []string{"panel"})

	// SlideAdvances counts slideshow transitions by trigger kind
	// (timer, manual).
	SlideAdvances = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dutyboard",
		Name:      "slide_advances_total",
		Help:      "Slideshow advances by trigger kind.",
	}, []string{"kind"})

	// WarningSeverity publishes the current maximum warning severity rank
	// (0 none, 1 yellow, 2 amber, 3 red).
	WarningSeverity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "dutyboard",
		Name:      "warning_severity",
		Help:      "Current maximum warning severity rank.",
	})
)

// Handler returns the scrape endpoint handler for the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
