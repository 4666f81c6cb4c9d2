package providers

import (
	"ntpbg/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncWallpapersServed(kind string)
	SetCampaignsLoaded(kind string, count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	wallpapersServed    *prometheus.CounterVec
	campaignsLoaded     *prometheus.GaugeVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncWallpapersServed(kind string) {
	m.wallpapersServed.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) SetCampaignsLoaded(kind string, count int) {
	m.campaignsLoaded.WithLabelValues(kind).Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// NewRegistererProvider exposes the default prometheus registerer so that
// components registering collectors can be handed a private registry in tests.
func NewRegistererProvider() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

func NewMetricsProvider(conf *structures.Config, reg prometheus.Registerer) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	factory := promauto.With(reg)
	return &MetricsProvider{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ntpbg_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ntpbg_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ntpbg_image_cache_hits_total",
			Help: "Total number of image cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "ntpbg_image_cache_misses_total",
			Help: "Total number of image cache misses",
		}),

		persistenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ntpbg_persistence_duration_seconds",
			Help:    "Duration of preference persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		wallpapersServed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ntpbg_wallpapers_served_total",
			Help: "Wallpapers handed to the page, by kind",
		}, []string{"kind"}),

		campaignsLoaded: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntpbg_campaigns_loaded",
			Help: "Number of valid campaigns in the active dataset, by kind",
		}, []string{"kind"}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncWallpapersServed(_ string)                     {}
func (n *noopMetrics) SetCampaignsLoaded(_ string, _ int)               {}
