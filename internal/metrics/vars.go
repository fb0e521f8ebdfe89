package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FeedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arb_feed_events_total",
		Help: "Odds feed events consumed from Kafka",
	})

	OpportunitiesDetected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arb_opportunities_detected_total",
		Help: "Feed events that produced an arbitrage opportunity",
	})

	BetsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arb_bets_recorded_total",
		Help: "Bets appended to a user ledger",
	})

	BetEdits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arb_bet_edits_total",
		Help: "Retroactive edits applied to ledger records",
	})

	StorageErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arb_storage_errors_total",
		Help: "Record store load/save failures",
	})

	ScanLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_scan_latency_seconds",
		Help:    "Time to scan one feed event for arbitrage",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		FeedEvents,
		OpportunitiesDetected,
		BetsRecorded,
		BetEdits,
		StorageErrors,
		ScanLatency,
	)
}
