package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afs_assessment_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "afs_assessment_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "path"},
	)

	AssessmentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "afs_assessment_created_total",
			Help: "Total assessments created",
		},
	)

	AssessmentsFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afs_assessment_finalized_total",
			Help: "Total assessments finalized",
		},
		[]string{"forced"},
	)

	ClassificationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afs_assessment_classification_total",
			Help: "Finalized assessments by maturity tier",
		},
		[]string{"tier"},
	)

	ResponsesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "afs_assessment_responses_recorded_total",
			Help: "Total responses recorded",
		},
	)

	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "afs_assessment_scoring_duration_seconds",
			Help:    "Scoring pipeline duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	RecommendationCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "afs_assessment_recommendation_count",
			Help:    "Recommendations produced per scored assessment",
			Buckets: []float64{0, 5, 10, 15, 20, 25},
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afs_assessment_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afs_assessment_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	ProgressStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "afs_assessment_progress_streams",
			Help: "Open progress websocket connections",
		},
	)
)

func Init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AssessmentsCreated)
	prometheus.MustRegister(AssessmentsFinalized)
	prometheus.MustRegister(ClassificationTotal)
	prometheus.MustRegister(ResponsesRecorded)
	prometheus.MustRegister(ScoringDuration)
	prometheus.MustRegister(RecommendationCount)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(ProgressStreams)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
