package p3a

import (
	"ntpbg/internal/providers"
	"ntpbg/internal/structures"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
)

type MetricLogType int

const (
	MetricLogTypeTypical MetricLogType = iota
	MetricLogTypeSlow
	MetricLogTypeExpress
)

func (t MetricLogType) String() string {
	switch t {
	case MetricLogTypeSlow:
		return "slow"
	case MetricLogTypeExpress:
		return "express"
	default:
		return "typical"
	}
}

// MetricCycledCallback is called for every metric whose answer was sent in a
// rotation, with the constellation flag the answer was recorded with. Owners
// of dynamic metrics use it to decide removal.
type MetricCycledCallback func(name string, isConstellation bool)

// RotationCallback is called at the start of every rotation of logType.
type RotationCallback func(logType MetricLogType, isConstellation bool)

type ServiceInterface interface {
	IsP3AEnabled() bool
	SetEnabled(enabled bool)
	RegisterDynamicMetric(name string, logType MetricLogType)
	RemoveDynamicMetric(name string)
	UpdateMetricValue(name string, bucket int, isConstellation bool)
	RegisterMetricCycledCallback(cb MetricCycledCallback) func()
	RegisterRotationCallback(cb RotationCallback) func()
	Rotate(logType MetricLogType)
}

type answer struct {
	bucket          int
	isConstellation bool
}

// Service is the local telemetry sink. Only bucket indices are accepted; an
// answer is held until the rotation of its log type and then exported as a
// gauge. Metrics that were never registered as dynamic are typical.
type Service struct {
	mu      sync.Mutex
	enabled *atomic.Bool
	logger  providers.Logger

	dynamic map[string]MetricLogType
	pending map[string]answer

	nextID            int
	cycledCallbacks   map[int]MetricCycledCallback
	rotationCallbacks map[int]RotationCallback

	answers *prometheus.GaugeVec
}

func NewService(conf *structures.Config, logger providers.Logger, reg prometheus.Registerer) ServiceInterface {
	return &Service{
		enabled:           atomic.NewBool(conf.P3A.Enabled),
		logger:            logger,
		dynamic:           make(map[string]MetricLogType),
		pending:           make(map[string]answer),
		cycledCallbacks:   make(map[int]MetricCycledCallback),
		rotationCallbacks: make(map[int]RotationCallback),
		answers: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntpbg_p3a_answer",
			Help: "Last bucket index sent for a P3A metric.",
		}, []string{"metric", "log_type"}),
	}
}

func (s *Service) IsP3AEnabled() bool {
	return s.enabled.Load()
}

func (s *Service) SetEnabled(enabled bool) {
	if s.enabled.Swap(enabled) == enabled {
		return
	}
	s.logger.Infof(providers.TypeP3A, "P3A enabled: %t", enabled)
	if enabled {
		return
	}
	s.mu.Lock()
	s.pending = make(map[string]answer)
	s.mu.Unlock()
}

func (s *Service) RegisterDynamicMetric(name string, logType MetricLogType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dynamic[name]; ok {
		return
	}
	s.dynamic[name] = logType
	s.logger.Debugf(providers.TypeP3A, "Registered dynamic metric %s (%s)", name, logType)
}

func (s *Service) RemoveDynamicMetric(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dynamic[name]; !ok {
		return
	}
	delete(s.dynamic, name)
	delete(s.pending, name)
	s.answers.DeletePartialMatch(prometheus.Labels{"metric": name})
	s.logger.Debugf(providers.TypeP3A, "Removed dynamic metric %s", name)
}

func (s *Service) UpdateMetricValue(name string, bucket int, isConstellation bool) {
	if !s.IsP3AEnabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[name] = answer{bucket: bucket, isConstellation: isConstellation}
}

func (s *Service) RegisterMetricCycledCallback(cb MetricCycledCallback) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.cycledCallbacks[id] = cb
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.cycledCallbacks, id)
	}
}

func (s *Service) RegisterRotationCallback(cb RotationCallback) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.rotationCallbacks[id] = cb
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.rotationCallbacks, id)
	}
}

func (s *Service) logTypeOf(name string) MetricLogType {
	if t, ok := s.dynamic[name]; ok {
		return t
	}
	return MetricLogTypeTypical
}

// Rotate closes the current period for logType: rotation callbacks run first
// so they can record final values, then pending answers are sent and every
// sent metric is reported as cycled.
func (s *Service) Rotate(logType MetricLogType) {
	s.mu.Lock()
	rotation := sortedCallbacks(s.rotationCallbacks)
	s.mu.Unlock()

	for _, cb := range rotation {
		cb(logType, false)
	}

	s.mu.Lock()
	sent := make(map[string]answer)
	for name, a := range s.pending {
		if s.logTypeOf(name) != logType {
			continue
		}
		s.answers.WithLabelValues(name, logType.String()).Set(float64(a.bucket))
		sent[name] = a
		delete(s.pending, name)
	}
	cycled := sortedCallbacks(s.cycledCallbacks)
	s.mu.Unlock()

	if len(sent) == 0 {
		return
	}
	s.logger.Debugf(providers.TypeP3A, "Rotation %s sent %d answers", logType, len(sent))

	names := make([]string, 0, len(sent))
	for name := range sent {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, cb := range cycled {
			cb(name, sent[name].isConstellation)
		}
	}
}

func sortedCallbacks[T any](callbacks map[int]T) []T {
	ids := make([]int, 0, len(callbacks))
	for id := range callbacks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, callbacks[id])
	}
	return out
}
