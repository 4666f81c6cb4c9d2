package services

import (
	"errors"
	"fmt"
	"io/fs"
	"ntpbg/internal/models"
	"ntpbg/internal/providers"
	"ntpbg/internal/structures"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
)

const photoJSONFile = "photo.json"

var ErrNoData = errors.New("component data not found")

type componentKind int

const (
	componentSponsoredImages componentKind = iota
	componentSuperReferral
	componentBackgroundImages
)

func (k componentKind) String() string {
	switch k {
	case componentSuperReferral:
		return "super_referral"
	case componentBackgroundImages:
		return "background"
	default:
		return "sponsored"
	}
}

// BackgroundImagesServiceObserver is notified after a component dataset has
// been swapped. Observers are called without any loader lock held.
type BackgroundImagesServiceObserver interface {
	OnUpdatedSponsoredImages(data *models.SponsoredImagesData)
	OnUpdatedBackgroundImages(data *models.BackgroundImagesData)
	OnSuperReferralEnded()
}

type BackgroundImagesServiceInterface interface {
	GetBrandedImagesData(superReferral bool) *models.SponsoredImagesData
	GetBackgroundImagesData() *models.BackgroundImagesData
	IsSuperReferral() bool
	GetSuperReferralThemeName() string
	AddObserver(observer BackgroundImagesServiceObserver)
	RemoveObserver(observer BackgroundImagesServiceObserver)
	LoadAll()
	CheckSponsoredImagesComponentUpdateIfNeeded()
	Watch() error
	Stop()
}

// BackgroundImagesService loads the installed content packages. Each dataset
// is immutable and published through an atomic pointer, so readers see either
// the previous or the new dataset and never a partial one.
type BackgroundImagesService struct {
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	clock   clock.Clock

	sponsored     *atomic.Pointer[models.SponsoredImagesData]
	superReferral *atomic.Pointer[models.SponsoredImagesData]
	background    *atomic.Pointer[models.BackgroundImagesData]

	obsMu     sync.Mutex
	observers []BackgroundImagesServiceObserver

	loadMu sync.Mutex
	mtimes map[componentKind]time.Time

	checking  *atomic.Bool
	lastCheck *atomic.Time

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewBackgroundImagesService(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, clk clock.Clock) BackgroundImagesServiceInterface {
	return &BackgroundImagesService{
		conf:          conf,
		logger:        logger,
		metrics:       metrics,
		clock:         clk,
		sponsored:     atomic.NewPointer[models.SponsoredImagesData](nil),
		superReferral: atomic.NewPointer[models.SponsoredImagesData](nil),
		background:    atomic.NewPointer[models.BackgroundImagesData](nil),
		mtimes:        make(map[componentKind]time.Time),
		checking:      atomic.NewBool(false),
		lastCheck:     atomic.NewTime(time.Time{}),
	}
}

func (s *BackgroundImagesService) GetBrandedImagesData(superReferral bool) *models.SponsoredImagesData {
	if superReferral {
		return s.superReferral.Load()
	}
	return s.sponsored.Load()
}

func (s *BackgroundImagesService) GetBackgroundImagesData() *models.BackgroundImagesData {
	return s.background.Load()
}

func (s *BackgroundImagesService) IsSuperReferral() bool {
	return s.superReferral.Load().IsSuperReferral()
}

func (s *BackgroundImagesService) GetSuperReferralThemeName() string {
	if data := s.superReferral.Load(); data.IsSuperReferral() {
		return data.ThemeName
	}
	return ""
}

func (s *BackgroundImagesService) AddObserver(observer BackgroundImagesServiceObserver) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, observer)
}

func (s *BackgroundImagesService) RemoveObserver(observer BackgroundImagesServiceObserver) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *BackgroundImagesService) snapshotObservers() []BackgroundImagesServiceObserver {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	return append([]BackgroundImagesServiceObserver(nil), s.observers...)
}

func (s *BackgroundImagesService) dirOf(kind componentKind) string {
	switch kind {
	case componentSuperReferral:
		return s.conf.Component.SuperReferralDir
	case componentBackgroundImages:
		return s.conf.Component.BackgroundImagesDir
	default:
		return s.conf.Component.SponsoredImagesDir
	}
}

func (s *BackgroundImagesService) readPhotoJSON(dir string, v any) (time.Time, error) {
	if dir == "" {
		return time.Time{}, ErrNoData
	}
	path := filepath.Join(dir, photoJSONFile)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, ErrNoData
		}
		return time.Time{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return info.ModTime(), fmt.Errorf("decode %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// LoadAll reads every configured component and notifies observers.
func (s *BackgroundImagesService) LoadAll() {
	s.load(componentBackgroundImages)
	s.load(componentSponsoredImages)
	s.load(componentSuperReferral)
}

func (s *BackgroundImagesService) load(kind componentKind) {
	s.loadMu.Lock()
	notify := s.loadLocked(kind)
	s.loadMu.Unlock()

	if notify == nil {
		return
	}
	for _, o := range s.snapshotObservers() {
		notify(o)
	}
}

// loadLocked swaps the dataset for kind and returns how to notify observers,
// or nil when nothing changed.
func (s *BackgroundImagesService) loadLocked(kind componentKind) func(BackgroundImagesServiceObserver) {
	dir := s.dirOf(kind)

	if kind == componentBackgroundImages {
		var record models.BackgroundImagesRecord
		mtime, err := s.readPhotoJSON(dir, &record)
		s.mtimes[kind] = mtime
		var data *models.BackgroundImagesData
		if err == nil {
			if data = models.NewBackgroundImagesData(&record, dir); !data.IsValid() {
				s.logger.Warnf(providers.TypeApp, "Background images component in %s is invalid", dir)
				data = nil
			}
		} else if !errors.Is(err, ErrNoData) {
			s.logger.Errorf(providers.TypeApp, "Loading background images failed: %s", err)
		}
		previous := s.background.Swap(data)
		if previous == nil && data == nil {
			return nil
		}
		count := 0
		if data != nil {
			count = len(data.Backgrounds)
		}
		s.metrics.SetCampaignsLoaded(kind.String(), count)
		s.logger.Infof(providers.TypeApp, "Background images updated: %d images", count)
		return func(o BackgroundImagesServiceObserver) { o.OnUpdatedBackgroundImages(data) }
	}

	var record models.SponsoredImagesRecord
	mtime, err := s.readPhotoJSON(dir, &record)
	s.mtimes[kind] = mtime
	var data *models.SponsoredImagesData
	if err == nil {
		if data = models.NewSponsoredImagesData(&record, dir); !data.IsValid() {
			s.logger.Warnf(providers.TypeApp, "%s component in %s has no valid campaign", kind, dir)
			data = nil
		}
	} else if !errors.Is(err, ErrNoData) {
		s.logger.Errorf(providers.TypeApp, "Loading %s component failed: %s", kind, err)
	}

	if data != nil {
		for _, campaign := range data.Campaigns {
			s.logger.Debugf(providers.TypeApp, "%s campaign %q: %d backgrounds", kind, campaign.CampaignID, len(campaign.Backgrounds))
		}
		s.metrics.SetCampaignsLoaded(kind.String(), len(data.Campaigns))
	} else {
		s.metrics.SetCampaignsLoaded(kind.String(), 0)
	}

	target := s.sponsored
	if kind == componentSuperReferral {
		target = s.superReferral
	}
	previous := target.Swap(data)

	switch {
	case previous == nil && data == nil:
		return nil
	case kind == componentSuperReferral && data == nil:
		s.logger.Infof(providers.TypeApp, "Super referral campaign ended")
		return func(o BackgroundImagesServiceObserver) { o.OnSuperReferralEnded() }
	default:
		s.logger.Infof(providers.TypeApp, "%s component updated", kind)
		return func(o BackgroundImagesServiceObserver) { o.OnUpdatedSponsoredImages(data) }
	}
}

// CheckSponsoredImagesComponentUpdateIfNeeded reloads the branded components
// whose photo.json changed on disk. At most one check runs at a time and
// checks are throttled to component.updateCheckInterval. It never blocks the
// caller.
func (s *BackgroundImagesService) CheckSponsoredImagesComponentUpdateIfNeeded() {
	now := s.clock.Now()
	if now.Sub(s.lastCheck.Load()) < s.conf.Component.UpdateCheckInterval {
		return
	}
	if !s.checking.CompareAndSwap(false, true) {
		return
	}
	s.lastCheck.Store(now)

	go func() {
		defer s.checking.Store(false)
		for _, kind := range []componentKind{componentSponsoredImages, componentSuperReferral} {
			if s.changedOnDisk(kind) {
				s.load(kind)
			}
		}
	}()
}

func (s *BackgroundImagesService) changedOnDisk(kind componentKind) bool {
	dir := s.dirOf(kind)
	if dir == "" {
		return false
	}
	var mtime time.Time
	if info, err := os.Stat(filepath.Join(dir, photoJSONFile)); err == nil {
		mtime = info.ModTime()
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return !mtime.Equal(s.mtimes[kind])
}

// Watch reloads a component as soon as its photo.json is written, created,
// renamed or removed.
func (s *BackgroundImagesService) Watch() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dirs := make(map[string]componentKind)
	for _, kind := range []componentKind{componentSponsoredImages, componentSuperReferral, componentBackgroundImages} {
		dir := s.dirOf(kind)
		if dir == "" {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			s.logger.Warnf(providers.TypeApp, "Cannot watch %s: %s", dir, err)
			continue
		}
		dirs[filepath.Clean(dir)] = kind
	}

	s.watcher = watcher
	s.done = make(chan struct{})
	go s.watchLoop(watcher, dirs, s.done)
	return nil
}

func (s *BackgroundImagesService) watchLoop(watcher *fsnotify.Watcher, dirs map[string]componentKind, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != photoJSONFile || event.Op == fsnotify.Chmod {
				continue
			}
			kind, ok := dirs[filepath.Dir(filepath.Clean(event.Name))]
			if !ok {
				continue
			}
			s.logger.Debugf(providers.TypeApp, "Component change detected: %s", event)
			s.load(kind)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Errorf(providers.TypeApp, "Component watcher error: %s", err)
		}
	}
}

func (s *BackgroundImagesService) Stop() {
	s.watchMu.Lock()
	watcher, done := s.watcher, s.done
	s.watcher, s.done = nil, nil
	s.watchMu.Unlock()

	if watcher == nil {
		return
	}
	if err := watcher.Close(); err != nil {
		s.logger.Warnf(providers.TypeApp, "Closing component watcher: %s", err)
	}
	<-done
}
