package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Business metrics
	ReviewMutationsTotal *prometheus.CounterVec
	RatingRecomputes     prometheus.Counter
	CompaniesCreated     prometheus.Counter
	PostsPublished       prometheus.Counter
	PostViews            prometheus.Counter
}

var metrics *Metrics

// Init initializes all Prometheus metrics
func Init() *Metrics {
	if metrics != nil {
		return metrics
	}

	metrics = &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),

		DBConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		ReviewMutationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_mutations_total",
				Help: "Total number of review create/update/delete operations",
			},
			[]string{"action"},
		),
		RatingRecomputes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rating_recomputes_total",
				Help: "Total number of company rating recomputations",
			},
		),
		CompaniesCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "companies_created_total",
				Help: "Total number of companies registered",
			},
		),
		PostsPublished: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "blog_posts_published_total",
				Help: "Total number of blog posts published",
			},
		),
		PostViews: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "blog_post_views_total",
				Help: "Total number of blog post views",
			},
		),
	}

	return metrics
}

// Get returns the global metrics instance
func Get() *Metrics {
	if metrics == nil {
		return Init()
	}
	return metrics
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware is a Gin middleware for collecting HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	m := Get()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// RecordReviewMutation records a review store mutation
func RecordReviewMutation(action string) {
	Get().ReviewMutationsTotal.WithLabelValues(action).Inc()
}

// RecordRatingRecompute records a company aggregate recomputation
func RecordRatingRecompute() {
	Get().RatingRecomputes.Inc()
}

// RecordCompanyCreated records a company registration
func RecordCompanyCreated() {
	Get().CompaniesCreated.Inc()
}

// RecordPostPublished records a blog post publication
func RecordPostPublished() {
	Get().PostsPublished.Inc()
}

// RecordPostView records a blog post view
func RecordPostView() {
	Get().PostViews.Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit(cache string) {
	Get().CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(cache string) {
	Get().CacheMisses.WithLabelValues(cache).Inc()
}

// SetDBConnections sets database connection metrics
func SetDBConnections(active, idle int) {
	Get().DBConnectionsActive.Set(float64(active))
	Get().DBConnectionsIdle.Set(float64(idle))
}
