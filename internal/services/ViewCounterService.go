package services

import (
	"ntpbg/internal/models"
	"ntpbg/internal/providers"
	"ntpbg/internal/structures"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	defaultReportInterval  = 24 * time.Hour
	frequencyCapCacheBytes = 1024 * 1024
)

// BrandedWallpaperMatcher decides whether a branded wallpaper may be shown
// right now.
type BrandedWallpaperMatcher interface {
	Matches(wallpaper *models.Wallpaper) bool
}

type defaultBrandedWallpaperMatcher struct {
	frequencyCap *models.CreativeFrequencyCap
}

// Matches requires an image path and, for sponsored images, a creative below
// its daily frequency cap. Super referral themes are not capped.
func (m *defaultBrandedWallpaperMatcher) Matches(wallpaper *models.Wallpaper) bool {
	if wallpaper == nil || wallpaper.ImagePath == "" {
		return false
	}
	if !wallpaper.IsSponsored {
		return true
	}
	return m.frequencyCap.Allowed(wallpaper.CreativeInstanceID)
}

type ViewCounterServiceInterface interface {
	BackgroundImagesServiceObserver
	GetCurrentWallpaperForDisplay() *models.Wallpaper
	GetNextWallpaperForDisplay() *models.Wallpaper
	GetNextBrandedWallpaperWhichMatchesConditions() *models.Wallpaper
	RegisterPageView()
	BrandedWallpaperWillBeDisplayed(wallpaper *models.Wallpaper)
	GetTopSitesData() []models.TopSite
	OnTabURLChanged(rawURL string)
	ResetNotificationState()
	IsSuperReferral() bool
	GetSuperReferralThemeName() string
	IsBrandedWallpaperActive() bool
	IsBackgroundWallpaperActive() bool
	RotationState() models.RotationState
	SetBrandedWallpaperMatcher(matcher BrandedWallpaperMatcher)
	RefreshP3AValues()
	Shutdown()
}

// ViewCounterService drives the rotation model from page views, prefs and
// component updates. All model access is serialised by mu. Prefs are never
// written while mu is held because pref observers call back into the service.
type ViewCounterService struct {
	mu sync.Mutex

	conf       *structures.Config
	logger     providers.Logger
	clock      clock.Clock
	loader     BackgroundImagesServiceInterface
	prefs      *models.PrefStore
	helper     NTPP3AHelperInterface
	prefetcher ImagePrefetcherInterface

	model        *models.ViewCounterModel
	matcher      BrandedWallpaperMatcher
	frequencyCap *models.CreativeFrequencyCap

	newTabCount        *models.WeeklyStorage
	brandedNewTabCount *models.WeeklyStorage

	isSupportedLocale bool

	timerMu     sync.Mutex
	reportTimer *clock.Timer
	stopped     bool

	unsubscribe []func()
}

func NewViewCounterService(conf *structures.Config, logger providers.Logger, clk clock.Clock, loader BackgroundImagesServiceInterface, prefs *models.PrefStore, helper NTPP3AHelperInterface, prefetcher ImagePrefetcherInterface) ViewCounterServiceInterface {
	frequencyCap := models.NewCreativeFrequencyCap(frequencyCapCacheBytes, conf.Rotation.MaxCreativeViewsPerDay, clk)
	s := &ViewCounterService{
		conf:       conf,
		logger:     logger,
		clock:      clk,
		loader:     loader,
		prefs:      prefs,
		helper:     helper,
		prefetcher: prefetcher,
		model: models.NewViewCounterModel(models.FrequencyPolicy{
			InitialCountToBrandedWallpaper: conf.Rotation.InitialCountToBrandedWallpaper,
			CountToBrandedWallpaper:        conf.Rotation.CountToBrandedWallpaper,
		}),
		matcher:            &defaultBrandedWallpaperMatcher{frequencyCap: frequencyCap},
		frequencyCap:       frequencyCap,
		newTabCount:        models.NewWeeklyStorage(prefs, models.PrefNewTabsCreated, clk),
		brandedNewTabCount: models.NewWeeklyStorage(prefs, models.PrefSponsoredNewTabsCreated, clk),
		isSupportedLocale:  IsSupportedLocale(conf.Locale.Current, conf.Locale.SupportedRegions),
	}
	if !s.isSupportedLocale {
		logger.Infof(providers.TypeApp, "Locale %q is not supported for sponsored images", conf.Locale.Current)
	}

	s.mu.Lock()
	s.resetModelLocked()
	s.mu.Unlock()

	for _, name := range []string{
		models.PrefSuperReferralThemesOption,
		models.PrefShowSponsoredImagesBackgroundImage,
		models.PrefShowBackgroundImage,
	} {
		s.unsubscribe = append(s.unsubscribe, prefs.AddObserver(name, s.onPreferenceChanged))
	}
	loader.AddObserver(s)

	s.updateP3AValues()
	return s
}

func (s *ViewCounterService) SetBrandedWallpaperMatcher(matcher BrandedWallpaperMatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matcher = matcher
}

func (s *ViewCounterService) currentBrandedWallpaperData() *models.SponsoredImagesData {
	if data := s.loader.GetBrandedImagesData(true); data != nil && s.isSuperReferralWallpaperOptedIn() {
		return data
	}
	return s.loader.GetBrandedImagesData(false)
}

func (s *ViewCounterService) isSuperReferralWallpaperOptedIn() bool {
	return s.prefs.GetInteger(models.PrefSuperReferralThemesOption) == models.SuperReferral
}

func (s *ViewCounterService) isSponsoredImagesWallpaperOptedIn() bool {
	return s.prefs.GetBoolean(models.PrefShowSponsoredImagesBackgroundImage) && s.isSupportedLocale
}

// IsBrandedWallpaperActive reports whether branded data may be shown at all.
// Super referral themes behave like a theme and ignore the background image
// pref; sponsored images need both background prefs and a supported locale.
func (s *ViewCounterService) IsBrandedWallpaperActive() bool {
	data := s.currentBrandedWallpaperData()
	if data == nil {
		return false
	}
	if data.IsSuperReferral() && s.isSuperReferralWallpaperOptedIn() {
		return true
	}
	if !s.prefs.GetBoolean(models.PrefShowBackgroundImage) {
		return false
	}
	return s.isSponsoredImagesWallpaperOptedIn()
}

func (s *ViewCounterService) IsBackgroundWallpaperActive() bool {
	if !s.prefs.GetBoolean(models.PrefShowBackgroundImage) {
		return false
	}
	return s.loader.GetBackgroundImagesData() != nil
}

func (s *ViewCounterService) shouldShowBrandedWallpaperLocked() bool {
	return s.IsBrandedWallpaperActive() && s.model.ShouldShowBrandedWallpaper()
}

// GetCurrentWallpaperForDisplay returns the branded wallpaper when one is due
// and matches, the current plain wallpaper otherwise, or nil.
func (s *ViewCounterService) GetCurrentWallpaperForDisplay() *models.Wallpaper {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shouldShowBrandedWallpaperLocked() {
		return s.currentWallpaperLocked()
	}
	if wallpaper := s.nextBrandedWallpaperWhichMatchesConditionsLocked(); wallpaper != nil {
		return wallpaper
	}
	// The branded slot was missed, so the plain cursor did not move on the
	// last page view. Move it now to avoid repeating the previous image.
	return s.nextWallpaperForDisplayLocked()
}

func (s *ViewCounterService) GetNextWallpaperForDisplay() *models.Wallpaper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextWallpaperForDisplayLocked()
}

func (s *ViewCounterService) nextWallpaperForDisplayLocked() *models.Wallpaper {
	s.model.RotateBackgroundWallpaperImageIndex()
	return s.currentWallpaperLocked()
}

func (s *ViewCounterService) currentWallpaperLocked() *models.Wallpaper {
	if !s.IsBackgroundWallpaperActive() {
		return nil
	}
	wallpaper := s.loader.GetBackgroundImagesData().GetBackgroundAt(s.model.CurrentWallpaperImageIndex())
	if wallpaper != nil {
		wallpaper.Random = true
	}
	return wallpaper
}

func (s *ViewCounterService) GetNextBrandedWallpaperWhichMatchesConditions() *models.Wallpaper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextBrandedWallpaperWhichMatchesConditionsLocked()
}

// nextBrandedWallpaperWhichMatchesConditionsLocked walks the branded cursor
// from its current position until a wallpaper matches. It gives up after one
// full cycle, leaving the cursor where it started.
func (s *ViewCounterService) nextBrandedWallpaperWhichMatchesConditionsLocked() *models.Wallpaper {
	data := s.currentBrandedWallpaperData()
	if data == nil {
		return nil
	}

	initial := s.model.GetCurrentBrandedImageIndex()
	for attempts := s.model.TotalBrandedImageCount(); attempts > 0; attempts-- {
		index := s.model.GetCurrentBrandedImageIndex()
		wallpaper := data.GetBackgroundAt(index.Campaign, index.Background)
		if wallpaper == nil {
			return nil
		}
		if s.matcher.Matches(wallpaper) {
			return wallpaper
		}
		s.model.NextBrandedImage()
		if s.model.GetCurrentBrandedImageIndex() == initial {
			break
		}
	}
	s.logger.Debugf(providers.TypeApp, "No branded wallpaper matches display conditions")
	return nil
}

func (s *ViewCounterService) RegisterPageView() {
	s.newTabCount.AddDelta(1)
	s.updateP3AValues()
	s.loader.CheckSponsoredImagesComponentUpdateIfNeeded()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.RegisterPageView()
	s.maybePrefetchLocked()
}

// maybePrefetchLocked warms the cache with the branded image the cursor now
// points at. Super referral images are shown on every page and stay hot.
func (s *ViewCounterService) maybePrefetchLocked() {
	data := s.currentBrandedWallpaperData()
	if data == nil || data.IsSuperReferral() || !s.IsBrandedWallpaperActive() {
		return
	}
	index := s.model.GetCurrentBrandedImageIndex()
	if _, background, ok := data.BackgroundAt(index.Campaign, index.Background); ok {
		s.prefetcher.Prefetch(background.FilePath)
	}
}

// BrandedWallpaperWillBeDisplayed records a branded impression: the sponsored
// page counter, the frequency cap and the creative view metric.
func (s *ViewCounterService) BrandedWallpaperWillBeDisplayed(wallpaper *models.Wallpaper) {
	if !wallpaper.IsBranded() {
		return
	}
	s.brandedNewTabCount.AddDelta(1)
	if wallpaper.IsSponsored {
		if err := s.frequencyCap.Hit(wallpaper.CreativeInstanceID); err != nil {
			s.logger.Warnf(providers.TypeApp, "Frequency cap update failed: %s", err)
		}
	}
	s.helper.RecordView(wallpaper.CreativeInstanceID, wallpaper.CampaignID)
	s.updateP3AValues()
}

func (s *ViewCounterService) GetTopSitesData() []models.TopSite {
	data := s.currentBrandedWallpaperData()
	if data == nil {
		return nil
	}
	return append([]models.TopSite(nil), data.TopSites...)
}

func (s *ViewCounterService) OnTabURLChanged(rawURL string) {
	s.helper.SetLastTabURL(rawURL)
}

func (s *ViewCounterService) ResetNotificationState() {
	s.prefs.SetBoolean(models.PrefBrandedWallpaperNotificationDismissed, false)
}

func (s *ViewCounterService) IsSuperReferral() bool {
	return s.loader.IsSuperReferral()
}

func (s *ViewCounterService) GetSuperReferralThemeName() string {
	return s.loader.GetSuperReferralThemeName()
}

func (s *ViewCounterService) RotationState() models.RotationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.State()
}

func (s *ViewCounterService) OnUpdatedSponsoredImages(_ *models.SponsoredImagesData) {
	s.logger.Debugf(providers.TypeApp, "Sponsored images updated, resetting rotation")
	s.resetModel()
}

func (s *ViewCounterService) OnUpdatedBackgroundImages(_ *models.BackgroundImagesData) {
	s.logger.Debugf(providers.TypeApp, "Background images updated, resetting rotation")
	s.resetModel()
}

// OnSuperReferralEnded resets because super referral images were shown on
// every page while sponsored images follow the frequency policy.
func (s *ViewCounterService) OnSuperReferralEnded() {
	s.resetModel()
}

func (s *ViewCounterService) onPreferenceChanged(name string) {
	if name == models.PrefShowBackgroundImage || name == models.PrefShowSponsoredImagesBackgroundImage {
		s.helper.RecordSponsoredImagesEnabled(
			s.prefs.GetBoolean(models.PrefShowBackgroundImage) && s.prefs.GetBoolean(models.PrefShowSponsoredImagesBackgroundImage))
	}
	s.logger.Debugf(providers.TypeApp, "Pref %s changed, resetting rotation", name)
	s.resetModel()
}

func (s *ViewCounterService) resetModel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetModelLocked()
}

func (s *ViewCounterService) resetModelLocked() {
	s.model.Reset()
	s.model.SetShowBrandedWallpaper(s.isSponsoredImagesWallpaperOptedIn())
	s.model.SetShowWallpaper(s.prefs.GetBoolean(models.PrefShowBackgroundImage))

	if data := s.currentBrandedWallpaperData(); data != nil {
		s.model.SetAlwaysShowBrandedWallpaper(data.IsSuperReferral())
		s.model.SetCampaignsTotalBrandedImageCount(data.CampaignsBackgroundCount())
	}
	if data := s.loader.GetBackgroundImagesData(); data != nil {
		s.model.SetTotalImageCount(len(data.Backgrounds))
	}
}

// RefreshP3AValues reports the weekly counters now, for prefs restored after
// the service was built.
func (s *ViewCounterService) RefreshP3AValues() {
	s.updateP3AValues()
}

// updateP3AValues reports the weekly page counters and re-arms the daily
// report timer, so the report keeps running whatever triggered this call.
func (s *ViewCounterService) updateP3AValues() {
	interval := s.conf.P3A.ReportInterval
	if interval <= 0 {
		interval = defaultReportInterval
	}

	s.timerMu.Lock()
	if !s.stopped {
		if s.reportTimer != nil {
			s.reportTimer.Stop()
		}
		s.reportTimer = s.clock.AfterFunc(interval, s.updateP3AValues)
	}
	s.timerMu.Unlock()

	s.helper.RecordNewTabsCreated(s.newTabCount.GetHighestValueInWeek(), s.brandedNewTabCount.GetHighestValueInWeek())
}

func (s *ViewCounterService) Shutdown() {
	s.loader.RemoveObserver(s)
	for _, fn := range s.unsubscribe {
		fn()
	}

	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	s.stopped = true
	if s.reportTimer != nil {
		s.reportTimer.Stop()
		s.reportTimer = nil
	}
}
