// Package metrics defines the Prometheus metrics exported on /metrics.
//
// All Record* methods are safe on a nil *Metrics so packages can be used
// in tests and tools without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Interaction metrics
	InteractionsTotal          *prometheus.CounterVec
	InteractionDurationSeconds *prometheus.HistogramVec
	WorkflowTransitionsTotal   *prometheus.CounterVec

	// Collaborator metrics
	CollaboratorRequestsTotal   *prometheus.CounterVec
	CollaboratorDurationSeconds *prometheus.HistogramVec
	ScheduledEventsTotal        *prometheus.CounterVec
	AnnouncementsTotal          *prometheus.CounterVec

	// Selection cache metrics
	SelectionLookupsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Lifecycle bus metrics
	LifecycleEventsTotal *prometheus.CounterVec

	// Background job metrics
	JobRunsTotal       *prometheus.CounterVec
	JobDurationSeconds *prometheus.HistogramVec
	ExpiredRowsDeleted *prometheus.CounterVec
	HistoryExported    prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		InteractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_interactions_total",
				Help: "Total interactions by kind, matched route and outcome",
			},
			[]string{"kind", "route", "outcome"}, // outcome: ok, validation, permission, state_conflict, collaborator, internal
		),

		InteractionDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookclub_interaction_duration_seconds",
				Help:    "Interaction handling duration in seconds by kind",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3}, // Discord's 3s window
			},
			[]string{"kind"},
		),

		WorkflowTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_workflow_transitions_total",
				Help: "Scheduling workflow steps by step and result",
			},
			[]string{"step", "result"},
		),

		CollaboratorRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_collaborator_requests_total",
				Help: "Outbound API requests by service and status",
			},
			[]string{"service", "status"}, // status: success, error, not_found, timeout
		),

		CollaboratorDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookclub_collaborator_duration_seconds",
				Help:    "Outbound API request duration in seconds by service",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"service"},
		),

		ScheduledEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_scheduled_events_total",
				Help: "Best-effort Discord scheduled event calls by operation and result",
			},
			[]string{"operation", "result"}, // operation: create, update, delete
		),

		AnnouncementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_announcements_total",
				Help: "Announcement texts produced by provider and status",
			},
			[]string{"provider", "status"}, // provider: gemini, huggingface, template
		),

		SelectionLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_selection_lookups_total",
				Help: "Selection cache and pending selection lookups by store and result",
			},
			[]string{"store", "result"}, // result: hit, miss
		),

		RateLimiterWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookclub_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"limiter_type"},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"},
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_singleflight_dedup_total",
				Help: "Requests that shared an in-flight identical request",
			},
			[]string{"service"},
		),

		LifecycleEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_lifecycle_events_total",
				Help: "Book lifecycle events by type and processing status",
			},
			[]string{"event", "status"}, // status: published, handled, failed
		),

		JobRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_job_runs_total",
				Help: "Background job runs by job and status",
			},
			[]string{"job", "status"},
		),

		JobDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookclub_job_duration_seconds",
				Help:    "Background job duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 300},
			},
			[]string{"job"},
		),

		ExpiredRowsDeleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_expired_rows_deleted_total",
				Help: "Expired selection rows removed by the cleanup job",
			},
			[]string{"table"},
		),

		HistoryExported: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bookclub_history_objects_exported_total",
				Help: "History archive objects written to object storage",
			},
		),
	}
}

// RecordInteraction records one handled interaction.
func (m *Metrics) RecordInteraction(kind, route, outcome string, duration float64) {
	if m == nil {
		return
	}
	m.InteractionsTotal.WithLabelValues(kind, route, outcome).Inc()
	m.InteractionDurationSeconds.WithLabelValues(kind).Observe(duration)
}

// RecordTransition records a workflow step result.
func (m *Metrics) RecordTransition(step, result string) {
	if m == nil {
		return
	}
	m.WorkflowTransitionsTotal.WithLabelValues(step, result).Inc()
}

// RecordCollaborator records an outbound API call.
func (m *Metrics) RecordCollaborator(service, status string, duration float64) {
	if m == nil {
		return
	}
	m.CollaboratorRequestsTotal.WithLabelValues(service, status).Inc()
	m.CollaboratorDurationSeconds.WithLabelValues(service).Observe(duration)
}

// RecordScheduledEvent records a best-effort scheduled event call.
func (m *Metrics) RecordScheduledEvent(operation string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "error"
	}
	m.ScheduledEventsTotal.WithLabelValues(operation, result).Inc()
}

// RecordAnnouncement records which provider produced an announcement.
func (m *Metrics) RecordAnnouncement(provider, status string) {
	if m == nil {
		return
	}
	m.AnnouncementsTotal.WithLabelValues(provider, status).Inc()
}

// RecordSelectionLookup records a hit or miss on a selection store.
func (m *Metrics) RecordSelectionLookup(store string, hit bool) {
	if m == nil {
		return
	}
	result := "hit"
	if !hit {
		result = "miss"
	}
	m.SelectionLookupsTotal.WithLabelValues(store, result).Inc()
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	if m == nil {
		return
	}
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(service string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(service).Inc()
}

// RecordLifecycleEvent records a lifecycle bus event status.
func (m *Metrics) RecordLifecycleEvent(event, status string) {
	if m == nil {
		return
	}
	m.LifecycleEventsTotal.WithLabelValues(event, status).Inc()
}

// RecordJob records a background job run.
func (m *Metrics) RecordJob(job, status string, duration float64) {
	if m == nil {
		return
	}
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
	m.JobDurationSeconds.WithLabelValues(job).Observe(duration)
}

// RecordExpiredRows records rows removed from a TTL table.
func (m *Metrics) RecordExpiredRows(table string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ExpiredRowsDeleted.WithLabelValues(table).Add(float64(n))
}

// RecordHistoryExport records one exported archive object.
func (m *Metrics) RecordHistoryExport() {
	if m == nil {
		return
	}
	m.HistoryExported.Inc()
}
