// Package metrics exposes the prometheus counters the Coordinator updates
// as it generates rounds and finalizes positions.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RoundsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_rounds_generated_total",
			Help: "Number of rounds generated, by tournament level and regime.",
		},
		[]string{"level", "regime"},
	)

	PositionsFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_positions_finalized_total",
			Help: "Number of entities finalized, by tournament level.",
		},
		[]string{"level"},
	)

	// PreviousRoundIncomplete counts rejected generate/finalize attempts
	// where the prior round was still in progress (spec.md §7).
	PreviousRoundIncomplete = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_previous_round_incomplete_total",
			Help: "Number of generate/finalize attempts rejected because the previous round was incomplete.",
		},
		[]string{"level"},
	)

	CoordinatorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_coordinator_errors_total",
			Help: "Number of Coordinator operations that failed, by error kind.",
		},
		[]string{"kind"},
	)
)

// Register adds all collectors to the given registry. Called once from
// main with prometheus.DefaultRegisterer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(RoundsGenerated, PositionsFinalized, PreviousRoundIncomplete, CoordinatorErrors)
}
