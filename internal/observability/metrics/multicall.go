package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	multicallRoundTrips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainkit",
		Subsystem: "multicall",
		Name:      "round_trips_total",
		Help:      "Aggregate eth_call requests issued, by chain and outcome.",
	}, []string{"chain", "outcome"})

	multicallCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainkit",
		Subsystem: "multicall",
		Name:      "calls_total",
		Help:      "Contract calls carried inside aggregate requests.",
	}, []string{"chain"})

	multicallFailedCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainkit",
		Subsystem: "multicall",
		Name:      "failed_calls_total",
		Help:      "Contract calls that reverted or could not be decoded.",
	}, []string{"chain"})

	multicallLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainkit",
		Subsystem: "multicall",
		Name:      "round_trip_duration_seconds",
		Help:      "Latency of aggregate eth_call requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain"})

	multicallCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainkit",
		Subsystem: "multicall",
		Name:      "cache_hits_total",
		Help:      "Aggregate requests served from the result cache.",
	}, []string{"chain"})
)

// ObserveMulticallRoundTrip records one aggregate request carrying size calls.
func ObserveMulticallRoundTrip(chain string, size int, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	multicallRoundTrips.WithLabelValues(chain, outcome).Inc()
	multicallCalls.WithLabelValues(chain).Add(float64(size))
	multicallLatency.WithLabelValues(chain).Observe(duration.Seconds())
}

// ObserveMulticallFailedCall counts one failed sub-call.
func ObserveMulticallFailedCall(chain string) {
	multicallFailedCalls.WithLabelValues(chain).Inc()
}

// ObserveMulticallCacheHit counts one aggregate request answered from cache.
func ObserveMulticallCacheHit(chain string) {
	multicallCacheHits.WithLabelValues(chain).Inc()
}
