package providers

import (
	"ntpbg/internal/structures"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{Metrics: structures.MetricsConfig{Enabled: false}}
	m := NewMetricsProvider(conf, prometheus.NewRegistry())
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	m.IncRequestsTotal("/test", 200)
	m.ObserveRequestDuration("/test", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(time.Millisecond)
	m.IncWallpapersServed("sponsored")
	m.SetCampaignsLoaded("sponsored", 2)
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	conf := &structures.Config{Metrics: structures.MetricsConfig{Enabled: true}}
	m := NewMetricsProvider(conf, prometheus.NewRegistry())
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	conf := &structures.Config{Metrics: structures.MetricsConfig{Enabled: true}}
	m := NewMetricsProvider(conf, reg).(*MetricsProvider)

	m.IncRequestsTotal("/wallpaper", 200)
	m.IncRequestsTotal("/wallpaper", 204)
	m.IncRequestsTotal("/wallpaper", 404)
	m.IncWallpapersServed("random")
	m.IncWallpapersServed("random")
	m.SetCampaignsLoaded("sponsored", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/wallpaper", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/wallpaper", "4xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.wallpapersServed.WithLabelValues("random")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.campaignsLoaded.WithLabelValues("sponsored")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
