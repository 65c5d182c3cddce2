// Package metrics exposes the pipeline's prometheus collectors. Counters
// are package-level so any stage can bump them without plumbing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safetybot_events_ingested_total",
		Help: "Canonical event records archived, per category.",
	}, []string{"category"})

	EventsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safetybot_events_discarded_total",
		Help: "Fetched events discarded by cursor or severity filtering.",
	}, []string{"category"})

	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safetybot_fetch_failures_total",
		Help: "Category fetches abandoned after exhausting retries.",
	}, []string{"category"})

	RecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safetybot_records_dropped_total",
		Help: "Raw events dropped during normalization (missing identifier).",
	})

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safetybot_alerts_sent_total",
		Help: "Immediate alerts delivered to the messaging channel.",
	})

	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safetybot_delivery_failures_total",
		Help: "Sends that failed after bounded retries.",
	})

	ReportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safetybot_reports_generated_total",
		Help: "Daily or on-demand report documents rendered.",
	})
)
