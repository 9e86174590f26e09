package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Review outcomes
	OutcomeReviewed = "reviewed"
	OutcomeSkipped  = "skipped_window"
	OutcomeDeduped  = "deduped"
	OutcomeFailed   = "failed"

	// Review steps
	StepMissedSessions = "missed_sessions"
	StepReadiness      = "readiness"
	StepEscalation     = "escalation"
	StepRollover       = "rollover"
	StepMotivation     = "motivation"

	// Plan kinds
	PlanKindInitial = "initial"
	PlanKindWeekly  = "weekly"

	// HTTP endpoints
	EndpointReview    = "admin_review"
	EndpointPlans     = "admin_plans"
	EndpointTravel    = "admin_travel"
	EndpointProfiles  = "admin_profiles"
	EndpointReadiness = "readiness"
	EndpointHealth    = "health"

	// Database operations
	DBOpListActiveProfiles = "list_active_profiles"
	DBOpGetActivePlan      = "get_active_plan"
	DBOpCreatePlan         = "create_plan_with_sessions"
	DBOpSessionsByDate     = "sessions_by_date"
	DBOpUpdateStatus       = "update_session_status"
	DBOpUpdateContent      = "update_session_content"
	DBOpInsertSession      = "insert_session"
	DBOpInsertAdjustment   = "insert_adjustment"
	DBOpCountAdjustments   = "count_adjustments"
	DBOpUpsertReadiness    = "upsert_readiness"
	DBOpUpsertAdherence    = "upsert_adherence"
	DBOpInsertEscalation   = "insert_escalation"
	DBOpInsertMessage      = "insert_message"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Review cycle metrics
var (
	ReviewTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_ticks_total",
			Help: "Total number of hourly review ticks executed",
		},
	)

	AthleteReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athlete_reviews_total",
			Help: "Total number of per-athlete review evaluations by outcome",
		},
		[]string{"outcome"},
	)

	ReviewDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "athlete_review_duration_seconds",
			Help:    "Time spent reviewing a single athlete",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ReviewStepErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_step_errors_total",
			Help: "Total number of non-fatal review step failures",
		},
		[]string{"step"},
	)

	SchedulerActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_active",
			Help: "Whether the review scheduler is currently active (1) or not (0)",
		},
	)

	DedupCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_dedup_cache_size",
			Help: "Number of (athlete, date, window) keys in the in-memory dedup cache",
		},
	)
)

// Business metrics
var (
	AdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adjustments_total",
			Help: "Total number of plan adjustments applied by trigger",
		},
		[]string{"trigger"},
	)

	SessionsMarkedMissedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_marked_missed_total",
			Help: "Total number of sessions marked missed during review",
		},
	)

	PlansGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plans_generated_total",
			Help: "Total number of workout plans generated",
		},
		[]string{"kind"},
	)

	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalations_total",
			Help: "Total number of escalation events raised by level",
		},
		[]string{"level"},
	)

	MessagesRequestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_requested_total",
			Help: "Total number of notification requests by category",
		},
		[]string{"category"},
	)
)

// Database Metrics
var (
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Database operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	DBOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operation_errors_total",
			Help: "Total number of database operation errors",
		},
		[]string{"operation"},
	)
)
