package storage

import (
	"github.com/roylee0704/gron"
	"ntpbg/internal/p3a"
	"ntpbg/internal/providers"
	"ntpbg/internal/storage/interfaces"
	"ntpbg/internal/structures"
	"sync"
	"time"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	p3aService  p3a.ServiceInterface
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		if err := s.Persist(); err != nil {
			return
		}
		s.logger.Debugf(providers.TypeApp, "Persisted prefs to file %s", s.config.Persistence.FilePath)
	})

	if interval := s.config.P3A.ExpressRotationInterval; interval > 0 {
		s.cron.AddFunc(gron.Every(interval), func() {
			s.rotate(p3a.MetricLogTypeExpress)
		})
	}
	if interval := s.config.P3A.TypicalRotationInterval; interval > 0 {
		s.cron.AddFunc(gron.Every(interval), func() {
			s.rotate(p3a.MetricLogTypeTypical)
		})
	}

	s.cron.Start()
}

func (s *Scheduler) rotate(logType p3a.MetricLogType) {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeP3A, "Rotating %s metrics...", logType)
	s.p3aService.Rotate(logType)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, p3aService p3a.ServiceInterface, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		p3aService:  p3aService,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
