package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// replacements counts graph replacements.
	// Labels: source (proposal, version), result (ok, partial, rolled_back, error)
	replacements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estima",
		Subsystem: "graph",
		Name:      "replacements_total",
		Help:      "Total graph replacements by source and result",
	}, []string{"source", "result"})

	// droppedEdges counts incoming edges dropped because an endpoint did not resolve.
	droppedEdges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estima",
		Subsystem: "graph",
		Name:      "dropped_edges_total",
		Help:      "Incoming edges dropped during reconciliation",
	}, []string{"source"})

	// cascadeRefreshes counts view refreshes triggered by events.
	// Labels: event, result (ok, error)
	cascadeRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estima",
		Subsystem: "cascade",
		Name:      "refreshes_total",
		Help:      "Cascade refreshes by event and result",
	}, []string{"event", "result"})

	cascadeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "estima",
		Subsystem: "cascade",
		Name:      "refresh_duration_seconds",
		Help:      "Time to refetch the views of an event",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"event"})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
