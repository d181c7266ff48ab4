package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	assignmentTransitions *prometheus.CounterVec
	assignmentsAutoClosed prometheus.Counter
	submissionsCreated    *prometheus.CounterVec
	submissionReviews     *prometheus.CounterVec
	eventsPublishedTotal  *prometheus.CounterVec
	eventPublishFailures  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the scheduler.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classroom_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		assignmentTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_assignment_transitions_total",
			Help: "Assignment lifecycle transitions by target status.",
		}, []string{"status"})

		assignmentsAutoClosed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classroom_assignments_auto_closed_total",
			Help: "Assignments closed by the expiry sweep.",
		})

		submissionsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_submissions_created_total",
			Help: "Submission versions created, split by lateness.",
		}, []string{"late"})

		submissionReviews = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_submission_reviews_total",
			Help: "Instructor reviews by action.",
		}, []string{"action"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_events_published_total",
			Help: "Lifecycle events handed to the brokers.",
		}, []string{"type"})

		eventPublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_event_publish_failures_total",
			Help: "Lifecycle events a broker refused.",
		}, []string{"broker"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			assignmentTransitions,
			assignmentsAutoClosed,
			submissionsCreated,
			submissionReviews,
			eventsPublishedTotal,
			eventPublishFailures,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AssignmentTransitions counts lifecycle transitions by target status.
func AssignmentTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return assignmentTransitions
}

// AssignmentsAutoClosed counts assignments closed by the sweep.
func AssignmentsAutoClosed() prometheus.Counter {
	RegisterMetrics()
	return assignmentsAutoClosed
}

// SubmissionsCreated counts new submission versions.
func SubmissionsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsCreated
}

// SubmissionReviews counts instructor reviews.
func SubmissionReviews() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionReviews
}

// EventsPublished counts lifecycle events handed to brokers.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// EventPublishFailures counts broker publish failures.
func EventPublishFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return eventPublishFailures
}
