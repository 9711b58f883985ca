package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// ProgramTransitions 项目状态迁移次数
	ProgramTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_track_program_transitions_total",
			Help: "Enrollment state transitions by type and outcome",
		},
		[]string{"transition", "outcome"},
	)

	VisitStepSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_track_visit_step_submissions_total",
			Help: "Doctor visit wizard step submissions",
		},
		[]string{"step", "outcome"},
	)

	ReportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_track_reports_generated_total",
			Help: "Generated PDF reports by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	ReportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "health_track_report_render_seconds",
			Help:    "Time spent building and rendering PDF reports",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"kind"},
	)

	EventPublishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_track_event_publish_failures_total",
			Help: "Program events that could not be published",
		},
		[]string{"publisher"},
	)
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			ProgramTransitions,
			VisitStepSubmissions,
			ReportsGenerated,
			ReportDuration,
			EventPublishFailures,
		)
	})
}

// Outcome 指标中的结果标签
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
