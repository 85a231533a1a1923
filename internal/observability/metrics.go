package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	materialsCompletedTotal prometheus.Counter
	submissionsTotal        *prometheus.CounterVec
	gradesTotal             *prometheus.CounterVec
	certificatesIssuedTotal prometheus.Counter
	certificateCacheLookups *prometheus.CounterVec
	notificationsPublished  *prometheus.CounterVec
	uploadRequestsTotal     *prometheus.CounterVec
	uploadRejectedTotal     *prometheus.CounterVec
	uploadLatencySeconds    prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ajarin_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ajarin_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ajarin_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		materialsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ajarin_materials_completed_total",
			Help: "Materials marked completed by learners.",
		})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ajarin_submissions_total",
			Help: "Assignment submissions by outcome (created, revision, draft).",
		}, []string{"kind"})

		gradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ajarin_grades_total",
			Help: "Grading decisions by result.",
		}, []string{"result"})

		certificatesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ajarin_certificates_issued_total",
			Help: "Certificates issued.",
		})

		certificateCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ajarin_certificate_cache_lookups_total",
			Help: "Public certificate cache lookups by result.",
		}, []string{"result"})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ajarin_notifications_published_total",
			Help: "Notifications persisted and fanned out, by type.",
		}, []string{"type"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ajarin_upload_requests_total",
			Help: "Accepted uploads by detected type.",
		}, []string{"type"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ajarin_upload_rejected_total",
			Help: "Rejected uploads by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ajarin_upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			materialsCompletedTotal,
			submissionsTotal,
			gradesTotal,
			certificatesIssuedTotal,
			certificateCacheLookups,
			notificationsPublished,
			uploadRequestsTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
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

func MaterialsCompleted() prometheus.Counter {
	RegisterMetrics()
	return materialsCompletedTotal
}

func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

func Grades() *prometheus.CounterVec {
	RegisterMetrics()
	return gradesTotal
}

func CertificatesIssued() prometheus.Counter {
	RegisterMetrics()
	return certificatesIssuedTotal
}

func CertificateCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return certificateCacheLookups
}

// NotificationsPublishedTotal counts notifications by type.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}
