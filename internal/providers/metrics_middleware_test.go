package providers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingMetrics struct {
	noopMetrics
	mu       sync.Mutex
	requests map[string][]int
	hits     int
	misses   int
}

func (r *recordingMetrics) IncRequestsTotal(endpoint string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.requests == nil {
		r.requests = make(map[string][]int)
	}
	r.requests[endpoint] = append(r.requests[endpoint], status)
}

func (r *recordingMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (r *recordingMetrics) IncCacheHits()   { r.hits++ }
func (r *recordingMetrics) IncCacheMisses() { r.misses++ }

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/wallpaper/current", endpointLabel("/wallpaper/current"))
	assert.Equal(t, "/branded-wallpaper", endpointLabel("/branded-wallpaper/sponsored-images/a.jpg"))
	assert.Equal(t, "/background-wallpaper", endpointLabel("/background-wallpaper/b.jpg"))
	assert.Equal(t, "/pageview", endpointLabel("/pageview"))
	assert.Equal(t, "/", endpointLabel(""))
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	m := &recordingMetrics{}
	h := MetricsMiddleware(m, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wallpaper/current", nil))

	assert.Equal(t, []int{http.StatusNoContent}, m.requests["/wallpaper/current"])
}

func TestMetricsMiddleware_DefaultStatusOK(t *testing.T) {
	m := &recordingMetrics{}
	h := MetricsMiddleware(m, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/topsites", nil))

	assert.Equal(t, []int{http.StatusOK}, m.requests["/topsites"])
}

func TestInstrumentedCache_CountsHitsAndMisses(t *testing.T) {
	m := &recordingMetrics{}
	c := NewInstrumentedCacheProvider(cacheConfig(true, 1, time.Minute), &cacheTestLogger{}, m)

	_, ok := c.Get("a")
	assert.False(t, ok)
	c.Set("a", []byte("1"))
	_, ok = c.Get("a")
	assert.True(t, ok)

	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)
}

func TestInstrumentedCache_DisabledIsPlainNoop(t *testing.T) {
	m := &recordingMetrics{}
	c := NewInstrumentedCacheProvider(cacheConfig(false, 1, time.Minute), &cacheTestLogger{}, m)

	assert.IsType(t, &noopCache{}, c)
	c.Get("a")
	assert.Zero(t, m.misses)
}
