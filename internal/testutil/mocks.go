package testutil

import (
	"ntpbg/internal/p3a"
	"ntpbg/internal/providers"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {
	m.Closed = true
}

// MockMetrics implements providers.MetricsProviderInterface.
type MockMetrics struct {
	mu                  sync.Mutex
	Requests            int
	CacheHits           int
	CacheMisses         int
	PersistenceObserved int
	WallpapersServed    map[string]int
	CampaignsLoaded     map[string]int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistenceObserved++
}

func (m *MockMetrics) IncWallpapersServed(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WallpapersServed == nil {
		m.WallpapersServed = make(map[string]int)
	}
	m.WallpapersServed[kind]++
}

func (m *MockMetrics) SetCampaignsLoaded(kind string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CampaignsLoaded == nil {
		m.CampaignsLoaded = make(map[string]int)
	}
	m.CampaignsLoaded[kind] = count
}

// MetricUpdate is one recorded MockP3AService.UpdateMetricValue call.
type MetricUpdate struct {
	Name            string
	Bucket          int
	IsConstellation bool
}

// MockP3AService implements p3a.ServiceInterface. Callbacks are kept so tests
// can fire rotations and metric cycles by hand.
type MockP3AService struct {
	mu         sync.Mutex
	Enabled    bool
	Registered map[string]p3a.MetricLogType
	Removed    []string
	Updates    []MetricUpdate
	Rotations  []p3a.MetricLogType

	cycled   []p3a.MetricCycledCallback
	rotation []p3a.RotationCallback
}

func NewMockP3AService(enabled bool) *MockP3AService {
	return &MockP3AService{Enabled: enabled, Registered: make(map[string]p3a.MetricLogType)}
}

func (m *MockP3AService) IsP3AEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Enabled
}

func (m *MockP3AService) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Enabled = enabled
}

func (m *MockP3AService) RegisterDynamicMetric(name string, logType p3a.MetricLogType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Registered[name] = logType
}

func (m *MockP3AService) RemoveDynamicMetric(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Registered, name)
	m.Removed = append(m.Removed, name)
}

func (m *MockP3AService) UpdateMetricValue(name string, bucket int, isConstellation bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, MetricUpdate{Name: name, Bucket: bucket, IsConstellation: isConstellation})
}

func (m *MockP3AService) RegisterMetricCycledCallback(cb p3a.MetricCycledCallback) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycled = append(m.cycled, cb)
	return func() {}
}

func (m *MockP3AService) RegisterRotationCallback(cb p3a.RotationCallback) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = append(m.rotation, cb)
	return func() {}
}

func (m *MockP3AService) Rotate(logType p3a.MetricLogType) {
	m.mu.Lock()
	m.Rotations = append(m.Rotations, logType)
	callbacks := append([]p3a.RotationCallback(nil), m.rotation...)
	m.mu.Unlock()
	for _, cb := range callbacks {
		cb(logType, false)
	}
}

// CycleMetric fires the metric cycled callbacks for name.
func (m *MockP3AService) CycleMetric(name string) {
	m.mu.Lock()
	callbacks := append([]p3a.MetricCycledCallback(nil), m.cycled...)
	m.mu.Unlock()
	for _, cb := range callbacks {
		cb(name, false)
	}
}

// LastValue returns the latest bucket recorded for name.
func (m *MockP3AService) LastValue(name string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Updates) - 1; i >= 0; i-- {
		if m.Updates[i].Name == name {
			return m.Updates[i].Bucket, true
		}
	}
	return 0, false
}

// UpdatesFor returns every update recorded for name.
func (m *MockP3AService) UpdatesFor(name string) []MetricUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MetricUpdate
	for _, u := range m.Updates {
		if u.Name == name {
			out = append(out, u)
		}
	}
	return out
}

// GetRotations returns the log types rotated so far.
func (m *MockP3AService) GetRotations() []p3a.MetricLogType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]p3a.MetricLogType(nil), m.Rotations...)
}

// IsRegistered reports whether name is a registered dynamic metric.
func (m *MockP3AService) IsRegistered(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Registered[name]
	return ok
}

// Loaded returns the last campaign count set for kind.
func (m *MockMetrics) Loaded(kind string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count, ok := m.CampaignsLoaded[kind]
	return count, ok
}
