package metrics

import (
	"errors"

	"github.com/Houeta/logitrack/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It covers the HTTP API, the storage gateway, domain operations,
// report generation and the Telegram tracking bot.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec   // Counter for handled API requests
	HTTPDuration     *prometheus.HistogramVec // Histogram for API request durations
	StoreDuration    *prometheus.HistogramVec // Histogram for key-value store call durations
	StoreErrors      *prometheus.CounterVec   // Counter for failed key-value store calls
	Operations       *prometheus.CounterVec   // Counter for domain operations by outcome
	Logins           *prometheus.CounterVec   // Counter for login attempts by outcome
	Registrations    prometheus.Counter       // Counter for client self-registrations
	TrackLookups     *prometheus.CounterVec   // Counter for public tracking lookups
	ReportGeneration *prometheus.HistogramVec // Histogram for report build durations
	CommandReceived  *prometheus.CounterVec   // Counter for received bot commands
	SentMessages     *prometheus.CounterVec   // Counter for sent bot messages
	CacheOps         *prometheus.CounterVec   // Counter for tracking cache operations
}

// NewMetrics creates a new Metrics instance and registers every collector in reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "logitrack_http_requests_total",
			Help: "Total number of handled API requests.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "logitrack_http_request_duration_seconds",
			Help:    "Duration of API requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		StoreDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "logitrack_store_operation_duration_seconds",
			Help:    "Duration of key-value store operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}), // operation: get, exists, put, delete
		StoreErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "logitrack_store_errors_total",
			Help: "Total number of failed key-value store operations.",
		}, []string{"operation"}),
		Operations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "logitrack_operations_total",
			Help: "Domain operations by entity, action and outcome.",
		}, []string{"entity", "action", "outcome"}), // outcome: success, rejected, error
		Logins: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "logitrack_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		Registrations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "logitrack_registrations_total",
			Help: "Total number of client self-registrations.",
		}),
		TrackLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "logitrack_track_lookups_total",
			Help: "Public tracking lookups by source and result.",
		}, []string{"source", "result"}), // source: api, bot; result: found, not_found
		ReportGeneration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "logitrack_report_generation_duration_seconds",
			Help: "Duration of report generation.",
		}, []string{"report", "format"}),
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Total number of used commands",
		}, []string{"command"}), // command: /start, /track, /language
		SentMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_messages_sent_total",
			Help: "Output bot activity",
		}, []string{"type"}), // type: text, respond, error
		CacheOps: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_cache_operations_total",
			Help: "Tracking cache operations by result.",
		}, []string{"operation", "result"}), // operation: get, set; result: hit, miss, success, error
	}
}

// RecordOperation counts a domain operation. Errors caused by the caller
// (validation, authorization, stale ids, conflicts) count as rejected.
func (m *Metrics) RecordOperation(entity, action string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrConflict):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	m.Operations.WithLabelValues(entity, action, outcome).Inc()
}
