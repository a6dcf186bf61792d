package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "genid"

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted to Postgres.",
	})
	activityConflictCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "activity_conflicts_total",
		Help:      "Number of activity inserts rejected because the date was already logged.",
	})
	profileCacheErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "profile_cache",
		Name:      "errors_total",
		Help:      "Number of profile cache failures, labeled by operation.",
	}, []string{"operation"})

	identifierIssuedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "identifier",
		Name:      "issued_total",
		Help:      "Number of GenIDs issued, labeled by the short id source that produced them.",
	}, []string{"source"})
	identifierFallbackCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "identifier",
		Name:      "fallback_total",
		Help:      "Number of issuances where the stored procedure was unavailable or returned a malformed value.",
	})
	identifierExhaustedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "identifier",
		Name:      "exhausted_total",
		Help:      "Number of issuances that gave up without finding a free short id.",
	})
	identifierCollisionCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "identifier",
		Name:      "insert_collisions_total",
		Help:      "Number of inserts that lost a race on the short id unique constraint.",
	})

	eradicationStepCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "eradication",
		Name:      "steps_total",
		Help:      "Eradication step outcomes, labeled by step and result.",
	}, []string{"step", "result"})
	eradicationRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "eradication",
		Name:      "runs_total",
		Help:      "Eradication runs, labeled by overall status.",
	}, []string{"status"})
	remnantGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "eradication",
		Name:      "accounts_with_remnants",
		Help:      "Accounts reported by the most recent remnant audit.",
	})
)

func init() {
	prometheus.MustRegister(
		activityPersistGauge,
		activityConflictCounter,
		profileCacheErrorCounter,
		identifierIssuedCounter,
		identifierFallbackCounter,
		identifierExhaustedCounter,
		identifierCollisionCounter,
		eradicationStepCounter,
		eradicationRunCounter,
		remnantGauge,
	)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordActivityConflict counts a rejected duplicate activity.
func RecordActivityConflict() {
	activityConflictCounter.Inc()
}

// RecordProfileCacheError counts a failed cache operation.
func RecordProfileCacheError(operation string) {
	profileCacheErrorCounter.WithLabelValues(operation).Inc()
}

// RecordIdentifierIssued counts a successful issuance by source.
func RecordIdentifierIssued(source string) {
	identifierIssuedCounter.WithLabelValues(source).Inc()
}

// RecordIdentifierFallback counts a switch to local short id generation.
func RecordIdentifierFallback() {
	identifierFallbackCounter.Inc()
}

// RecordIdentifierExhausted counts an issuance that ran out of attempts.
func RecordIdentifierExhausted() {
	identifierExhaustedCounter.Inc()
}

// RecordIdentifierCollision counts a lost short id insert race.
func RecordIdentifierCollision() {
	identifierCollisionCounter.Inc()
}

// RecordEradicationStep counts one step outcome.
func RecordEradicationStep(step string, ok bool) {
	result := "succeeded"
	if !ok {
		result = "failed"
	}
	eradicationStepCounter.WithLabelValues(step, result).Inc()
}

// RecordEradicationRun counts one eradication run by status.
func RecordEradicationRun(status string) {
	eradicationRunCounter.WithLabelValues(status).Inc()
}

// RecordRemnantAudit publishes the number of accounts found with remnants.
func RecordRemnantAudit(accounts int) {
	remnantGauge.Set(float64(accounts))
}
