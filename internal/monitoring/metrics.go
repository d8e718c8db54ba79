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

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Business metrics
	AccountsRegistered *prometheus.CounterVec
	CampaignsCreated   prometheus.Counter
	CampaignsSettled   prometheus.Counter
	ApplicationsTotal  prometheus.Counter
	ContentPublished   prometheus.Counter
	PayoutsTotal       *prometheus.CounterVec
	PayoutAmountTotal  *prometheus.CounterVec
	DisputesTotal      *prometheus.CounterVec
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

		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"role"},
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

		AccountsRegistered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_registered_total",
				Help: "Total number of accounts registered",
			},
			[]string{"role"},
		),
		CampaignsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "campaigns_created_total",
				Help: "Total number of campaigns created",
			},
		),
		CampaignsSettled: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "campaigns_settled_total",
				Help: "Total number of campaigns settled",
			},
		),
		ApplicationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "campaign_applications_total",
				Help: "Total number of campaign applications",
			},
		),
		ContentPublished: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "content_published_total",
				Help: "Total number of content submissions published",
			},
		),
		PayoutsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payouts_total",
				Help: "Total number of payouts by kind",
			},
			[]string{"kind"},
		),
		PayoutAmountTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_amount_total",
				Help: "Total payout amount by kind",
			},
			[]string{"kind"},
		),
		DisputesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disputes_total",
				Help: "Total number of dispute transitions by status",
			},
			[]string{"status"},
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

// GinHandler returns a Gin-compatible handler for Prometheus metrics
func GinHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
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

// RecordAccountRegistered records an account registration
func RecordAccountRegistered(role string) {
	Get().AccountsRegistered.WithLabelValues(role).Inc()
}

// RecordCampaignCreated records a campaign creation
func RecordCampaignCreated() {
	Get().CampaignsCreated.Inc()
}

// RecordCampaignSettled records a campaign settlement
func RecordCampaignSettled() {
	Get().CampaignsSettled.Inc()
}

// RecordApplication records a campaign application
func RecordApplication() {
	Get().ApplicationsTotal.Inc()
}

// RecordContentPublished records a content publication
func RecordContentPublished() {
	Get().ContentPublished.Inc()
}

// RecordPayout records a payout and its amount by kind
func RecordPayout(kind string, amount float64) {
	Get().PayoutsTotal.WithLabelValues(kind).Inc()
	Get().PayoutAmountTotal.WithLabelValues(kind).Add(amount)
}

// RecordDispute records a dispute status transition
func RecordDispute(status string) {
	Get().DisputesTotal.WithLabelValues(status).Inc()
}

// RecordRateLimitHit records a rate limit hit
func RecordRateLimitHit(role string) {
	Get().RateLimitHits.WithLabelValues(role).Inc()
}

// SetDBConnections sets database connection metrics
func SetDBConnections(active, idle int) {
	Get().DBConnectionsActive.Set(float64(active))
	Get().DBConnectionsIdle.Set(float64(idle))
}
