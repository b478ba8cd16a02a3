package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/studieren/match_back/models"
)

type Metrics struct {
	registry        *prometheus.Registry
	swipes          *prometheus.CounterVec
	remaining       *prometheus.GaugeVec
	reseeds         prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		swipes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "match_swipes_total",
			Help: "Profiles liked or disliked, by screen.",
		}, []string{"type", "direction"}),
		remaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "match_feed_profiles",
			Help: "Profiles left in each screen's list.",
		}, []string{"type"}),
		reseeds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "match_store_reseeds_total",
			Help: "Times the demo data was wiped and reseeded.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "match_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.swipes,
		m.remaining,
		m.reseeds,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Swipe(t models.ProfileType, direction string) {
	m.swipes.WithLabelValues(t.String(), direction).Inc()
}

func (m *Metrics) Remaining(t models.ProfileType, n int) {
	m.remaining.WithLabelValues(t.String()).Set(float64(n))
}

func (m *Metrics) Reseeded() { m.reseeds.Inc() }

// Middleware 以路由模板为标签，避免路径参数导致标签爆炸
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
