// Package metrics holds the Prometheus collectors for domain events. HTTP
// traffic is instrumented separately by middleware.Metrics.
//
// Labels are closed enumerations so cardinality stays bounded:
//
//   - geo_resolve_total{outcome}
//   - wallet_operations_total{direction, type, result}
//   - sequence_allocations_total{namespace, result}
//   - lead_transitions_total{to, result}
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Geo resolve outcomes.
const (
	GeoGazetteer   = "gazetteer"
	GeoCache       = "cache"
	GeoRateLimited = "rate_limited"
	GeoLookupOK    = "lookup_ok"
	GeoLookupMiss  = "lookup_miss"
	GeoLookupError = "lookup_error"
	GeoDisabled    = "disabled"
	GeoEmpty       = "empty"
)

// Result labels shared by the counters below.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	GeoResolve = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_resolve_total",
			Help: "Coordinate resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	WalletOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_operations_total",
			Help: "Wallet credits and debits by type and result.",
		},
		[]string{"direction", "type", "result"},
	)

	SequenceAllocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sequence_allocations_total",
			Help: "Identifier allocations by namespace and result.",
		},
		[]string{"namespace", "result"},
	)

	LeadTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_transitions_total",
			Help: "Interest lifecycle transitions by target state and result.",
		},
		[]string{"to", "result"},
	)
)

func init() {
	prometheus.MustRegister(GeoResolve, WalletOps, SequenceAllocations, LeadTransitions)
}
