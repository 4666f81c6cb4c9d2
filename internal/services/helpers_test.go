package services

import (
	"fmt"
	"ntpbg/internal/models"
	"ntpbg/internal/structures"
	"sync"
	"time"
)

func testConfig() *structures.Config {
	return &structures.Config{
		Component: structures.ComponentConfig{
			UpdateCheckInterval: time.Minute,
		},
		Rotation: structures.RotationConfig{
			InitialCountToBrandedWallpaper: 1,
			CountToBrandedWallpaper:        3,
			LandingCheckDelay:              10 * time.Second,
		},
		Locale: structures.LocaleConfig{
			Current:          "en-US",
			SupportedRegions: []string{"US", "CA"},
		},
		P3A: structures.P3AConfig{
			Enabled:        true,
			ReportInterval: 24 * time.Hour,
		},
	}
}

func sponsoredData(counts ...int) *models.SponsoredImagesData {
	data := &models.SponsoredImagesData{URLPrefix: models.BrandedWallpaperURLPrefix + models.SponsoredImagesPath}
	for c, n := range counts {
		campaign := models.Campaign{CampaignID: fmt.Sprintf("c%d", c)}
		for b := 0; b < n; b++ {
			campaign.Backgrounds = append(campaign.Backgrounds, models.SponsoredBackground{
				FilePath:           fmt.Sprintf("/si/c%d-%d.jpg", c, b),
				CreativeInstanceID: fmt.Sprintf("cr-%d-%d", c, b),
			})
		}
		data.Campaigns = append(data.Campaigns, campaign)
	}
	return data
}

func superReferralData() *models.SponsoredImagesData {
	data := sponsoredData(2)
	data.ThemeName = "Technikke"
	data.URLPrefix = models.BrandedWallpaperURLPrefix + models.SuperReferralPath
	data.TopSites = []models.TopSite{{Name: "Site", DestinationURL: "https://site.com", ImagePath: "/x.png", ImageFile: "/sr/x.png"}}
	return data
}

func backgroundData(n int) *models.BackgroundImagesData {
	data := &models.BackgroundImagesData{URLPrefix: models.BackgroundWallpaperURLPrefix}
	for i := 0; i < n; i++ {
		data.Backgrounds = append(data.Backgrounds, models.Background{ImageFile: fmt.Sprintf("/bi/%d.jpg", i)})
	}
	return data
}

// fakeLoader is an in-memory BackgroundImagesServiceInterface.
type fakeLoader struct {
	mu            sync.Mutex
	sponsored     *models.SponsoredImagesData
	superReferral *models.SponsoredImagesData
	background    *models.BackgroundImagesData
	observers     []BackgroundImagesServiceObserver
	checks        int
}

func (f *fakeLoader) GetBrandedImagesData(superReferral bool) *models.SponsoredImagesData {
	f.mu.Lock()
	defer f.mu.Unlock()
	if superReferral {
		return f.superReferral
	}
	return f.sponsored
}

func (f *fakeLoader) GetBackgroundImagesData() *models.BackgroundImagesData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.background
}

func (f *fakeLoader) IsSuperReferral() bool {
	return f.GetBrandedImagesData(true).IsSuperReferral()
}

func (f *fakeLoader) GetSuperReferralThemeName() string {
	if data := f.GetBrandedImagesData(true); data.IsSuperReferral() {
		return data.ThemeName
	}
	return ""
}

func (f *fakeLoader) AddObserver(o BackgroundImagesServiceObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, o)
}

func (f *fakeLoader) RemoveObserver(o BackgroundImagesServiceObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.observers {
		if existing == o {
			f.observers = append(f.observers[:i:i], f.observers[i+1:]...)
			return
		}
	}
}

func (f *fakeLoader) snapshotObservers() []BackgroundImagesServiceObserver {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]BackgroundImagesServiceObserver(nil), f.observers...)
}

func (f *fakeLoader) LoadAll() {}

func (f *fakeLoader) CheckSponsoredImagesComponentUpdateIfNeeded() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
}

func (f *fakeLoader) Checks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks
}

func (f *fakeLoader) Watch() error { return nil }
func (f *fakeLoader) Stop()        {}

func (f *fakeLoader) setSponsored(data *models.SponsoredImagesData) {
	f.mu.Lock()
	f.sponsored = data
	f.mu.Unlock()
	for _, o := range f.snapshotObservers() {
		o.OnUpdatedSponsoredImages(data)
	}
}

func (f *fakeLoader) setSuperReferral(data *models.SponsoredImagesData) {
	f.mu.Lock()
	f.superReferral = data
	f.mu.Unlock()
	for _, o := range f.snapshotObservers() {
		if data == nil {
			o.OnSuperReferralEnded()
		} else {
			o.OnUpdatedSponsoredImages(data)
		}
	}
}

func (f *fakeLoader) setBackground(data *models.BackgroundImagesData) {
	f.mu.Lock()
	f.background = data
	f.mu.Unlock()
	for _, o := range f.snapshotObservers() {
		o.OnUpdatedBackgroundImages(data)
	}
}

// recordingPrefetcher implements ImagePrefetcherInterface.
type recordingPrefetcher struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingPrefetcher) Prefetch(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingPrefetcher) Load(string) ([]byte, error) { return nil, nil }
func (r *recordingPrefetcher) Wait()                       {}

func (r *recordingPrefetcher) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
