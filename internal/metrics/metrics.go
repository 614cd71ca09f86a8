// Package metrics provides Prometheus instrumentation for report runs.
//
// A run is a short-lived process, so nothing is scraped: the collectors
// live on their own Registry and are written once to a node-exporter
// textfile at the end of the run.
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mbd888/actionreport/internal/money"
	"github.com/mbd888/actionreport/internal/report"
)

// Registry holds every report collector. It is separate from the default
// registry so textfiles do not carry Go runtime metrics.
var Registry = prometheus.NewRegistry()

var (
	// RecordsTotal counts loaded action records by source.
	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actionreport",
			Name:      "records_total",
			Help:      "Total action records loaded, by source.",
		},
		[]string{"source"},
	)

	// RecordsMatchedTotal counts records that passed all criteria.
	RecordsMatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actionreport",
			Name:      "records_matched_total",
			Help:      "Total action records matching the report criteria, by source.",
		},
		[]string{"source"},
	)

	// RecordsCommissionableTotal counts matched records with a positive payout.
	RecordsCommissionableTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actionreport",
			Name:      "records_commissionable_total",
			Help:      "Total matched action records with a positive payout, by source.",
		},
		[]string{"source"},
	)

	// RecordsSkippedTotal counts records with unusable fields, by reason.
	RecordsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actionreport",
			Name:      "records_skipped_total",
			Help:      "Total action records with malformed fields, by reason.",
		},
		[]string{"reason"},
	)

	// Commission is the commission of the last run in currency units.
	Commission = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "actionreport",
			Name:      "commission",
			Help:      "Total commission of the last report run.",
		},
	)

	// RunDuration observes load-to-render latency by source.
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "actionreport",
			Name:      "run_duration_seconds",
			Help:      "Report run duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"source"},
	)

	// LastRunTimestamp records when the last run completed.
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "actionreport", Name: "last_run_timestamp_seconds",
		Help: "Unix time of the last completed report run.",
	})

	// DBOpenConnections tracks open database connections at the end of a run.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "actionreport", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBWaitDuration tracks total time waited for connections.
	DBWaitDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "actionreport", Name: "db_wait_duration_seconds_total",
		Help: "Total time waited for connections in seconds.",
	})
)

// Skip reasons used as RecordsSkippedTotal labels.
const (
	ReasonEventDate = "event_date"
	ReasonPayout    = "payout"
)

func init() {
	Registry.MustRegister(
		RecordsTotal,
		RecordsMatchedTotal,
		RecordsCommissionableTotal,
		RecordsSkippedTotal,
		Commission,
		RunDuration,
		LastRunTimestamp,
		DBOpenConnections,
		DBWaitDuration,
	)
}

// ObserveRun records the outcome of one report run.
func ObserveRun(source string, r report.Result, elapsed time.Duration) {
	RecordsTotal.WithLabelValues(source).Add(float64(r.TotalRecords))
	RecordsMatchedTotal.WithLabelValues(source).Add(float64(r.MatchedRecords))
	RecordsCommissionableTotal.WithLabelValues(source).Add(float64(r.CommissionableCount))
	RecordsSkippedTotal.WithLabelValues(ReasonEventDate).Add(float64(r.SkippedDates))
	RecordsSkippedTotal.WithLabelValues(ReasonPayout).Add(float64(r.InvalidPayouts))
	Commission.Set(money.Float(r.TotalCommission))
	RunDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	LastRunTimestamp.SetToCurrentTime()
}

// RecordDBStats samples sql.DBStats into the connection gauges.
func RecordDBStats(db *sql.DB) {
	stats := db.Stats()
	DBOpenConnections.Set(float64(stats.OpenConnections))
	DBWaitDuration.Set(stats.WaitDuration.Seconds())
}

// WriteTextfile writes every collector to path in the text exposition
// format. The write is atomic, as the textfile collector requires.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
