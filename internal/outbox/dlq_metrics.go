package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of handling one DLQ entry.
const (
	dlqOutcomeRequeued    = "requeued"
	dlqOutcomeRescheduled = "rescheduled"
	dlqOutcomeQuarantined = "quarantined"
)

var (
	dlqEntriesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genid",
		Subsystem: "dlq",
		Name:      "entries_total",
		Help:      "DLQ entries handled by the maintenance job, by GenID event type and outcome.",
	}, []string{"event_type", "outcome"})

	dlqRetryDepth = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "genid",
		Subsystem: "dlq",
		Name:      "retry_depth",
		Help:      "Retries an entry had already used when the maintenance job picked it up.",
		Buckets:   prometheus.LinearBuckets(0, 1, 6),
	}, []string{"event_type"})

	dlqBacklogGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "genid",
		Subsystem: "dlq",
		Name:      "backlog",
		Help:      "Entries waiting in the DLQ per topic, quarantined entries excluded.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(dlqEntriesCounter, dlqRetryDepth, dlqBacklogGauge)
}

func recordDLQOutcome(entry dlqEntry, outcome string) {
	dlqEntriesCounter.WithLabelValues(entry.EventType, outcome).Inc()
	dlqRetryDepth.WithLabelValues(entry.EventType).Observe(float64(entry.RetryCount))
}

// updateBacklogGauge replaces the per-topic backlog with the current counts.
// Topics with no waiting entries drop out of the vector.
func updateBacklogGauge(ctx context.Context, pool *pgxpool.Pool) {
	rows, err := pool.Query(ctx, `SELECT topic, COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL GROUP BY topic`)
	if err != nil {
		return
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			topic string
			n     int
		)
		if err := rows.Scan(&topic, &n); err != nil {
			return
		}
		counts[topic] = n
	}
	if rows.Err() != nil {
		return
	}

	dlqBacklogGauge.Reset()
	for topic, n := range counts {
		dlqBacklogGauge.WithLabelValues(topic).Set(float64(n))
	}
}
