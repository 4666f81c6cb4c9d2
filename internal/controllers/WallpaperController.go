package controllers

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"ntpbg/internal/models"
	"ntpbg/internal/providers"
	"ntpbg/internal/services"
	"ntpbg/internal/structures"
	"path"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type WallpaperController struct {
	conf       *structures.Config
	logger     providers.Logger
	viewCount  services.ViewCounterServiceInterface
	helper     services.NTPP3AHelperInterface
	prefs      *models.PrefStore
	prefetcher services.ImagePrefetcherInterface
	metrics    providers.MetricsProviderInterface
}

func NewWallpaperController(conf *structures.Config, logger providers.Logger, viewCount services.ViewCounterServiceInterface, helper services.NTPP3AHelperInterface, prefs *models.PrefStore, prefetcher services.ImagePrefetcherInterface, metrics providers.MetricsProviderInterface) *WallpaperController {
	return &WallpaperController{
		conf:       conf,
		logger:     logger,
		viewCount:  viewCount,
		helper:     helper,
		prefs:      prefs,
		prefetcher: prefetcher,
		metrics:    metrics,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (wc *WallpaperController) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		wc.logger.Debugf(providers.GetLogTypeByRequestType(r.Method), "Rejected body on %s: %s", r.URL.Path, err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func (wc *WallpaperController) serveWallpaper(w http.ResponseWriter, wallpaper *models.Wallpaper) {
	if wallpaper == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	wc.viewCount.BrandedWallpaperWillBeDisplayed(wallpaper)
	wc.metrics.IncWallpapersServed(wallpaper.Kind())
	writeJSON(w, http.StatusOK, wallpaper)
}

func (wc *WallpaperController) GetCurrentWallpaper(w http.ResponseWriter, _ *http.Request) {
	wc.serveWallpaper(w, wc.viewCount.GetCurrentWallpaperForDisplay())
}

func (wc *WallpaperController) GetNextWallpaper(w http.ResponseWriter, _ *http.Request) {
	wc.serveWallpaper(w, wc.viewCount.GetNextWallpaperForDisplay())
}

func (wc *WallpaperController) RegisterPageView(w http.ResponseWriter, _ *http.Request) {
	wc.viewCount.RegisterPageView()
	w.WriteHeader(http.StatusNoContent)
}

func (wc *WallpaperController) GetTopSites(w http.ResponseWriter, _ *http.Request) {
	sites := wc.viewCount.GetTopSitesData()
	if sites == nil {
		sites = []models.TopSite{}
	}
	writeJSON(w, http.StatusOK, sites)
}

type tabURLRequest struct {
	URL string `json:"url"`
}

func (wc *WallpaperController) SetTabURL(w http.ResponseWriter, r *http.Request) {
	var payload tabURLRequest
	if !wc.decodeBody(w, r, &payload) {
		return
	}
	wc.viewCount.OnTabURLChanged(payload.URL)
	w.WriteHeader(http.StatusNoContent)
}

type landingRequest struct {
	CreativeInstanceID string `json:"creativeInstanceId"`
	DestinationURL     string `json:"destinationUrl"`
}

// StartLandingCheck is called when the user clicks through a branded logo.
func (wc *WallpaperController) StartLandingCheck(w http.ResponseWriter, r *http.Request) {
	var payload landingRequest
	if !wc.decodeBody(w, r, &payload) {
		return
	}
	destination, err := url.Parse(payload.DestinationURL)
	if err != nil || payload.CreativeInstanceID == "" || destination.Hostname() == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	wc.helper.OnLandingStartCheck(payload.CreativeInstanceID, destination.Hostname())
	w.WriteHeader(http.StatusAccepted)
}

type prefsPayload struct {
	ShowBackgroundImage                   *bool `json:"showBackgroundImage,omitempty"`
	ShowSponsoredImages                   *bool `json:"showSponsoredImages,omitempty"`
	SuperReferralThemesOption             *int  `json:"superReferralThemesOption,omitempty"`
	BrandedWallpaperNotificationDismissed *bool `json:"brandedWallpaperNotificationDismissed,omitempty"`
}

func (wc *WallpaperController) currentPrefs() prefsPayload {
	showBackground := wc.prefs.GetBoolean(models.PrefShowBackgroundImage)
	showSponsored := wc.prefs.GetBoolean(models.PrefShowSponsoredImagesBackgroundImage)
	superReferral := wc.prefs.GetInteger(models.PrefSuperReferralThemesOption)
	dismissed := wc.prefs.GetBoolean(models.PrefBrandedWallpaperNotificationDismissed)
	return prefsPayload{
		ShowBackgroundImage:                   &showBackground,
		ShowSponsoredImages:                   &showSponsored,
		SuperReferralThemesOption:             &superReferral,
		BrandedWallpaperNotificationDismissed: &dismissed,
	}
}

func (wc *WallpaperController) GetPrefs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wc.currentPrefs())
}

// SetPrefs applies the fields present in the body. Changing a rotation pref
// resets the rotation through the pref observers.
func (wc *WallpaperController) SetPrefs(w http.ResponseWriter, r *http.Request) {
	var payload prefsPayload
	if !wc.decodeBody(w, r, &payload) {
		return
	}
	if v := payload.SuperReferralThemesOption; v != nil && *v != models.SuperReferralDefault && *v != models.SuperReferral {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if v := payload.ShowBackgroundImage; v != nil {
		wc.prefs.SetBoolean(models.PrefShowBackgroundImage, *v)
	}
	if v := payload.ShowSponsoredImages; v != nil {
		wc.prefs.SetBoolean(models.PrefShowSponsoredImagesBackgroundImage, *v)
	}
	if v := payload.SuperReferralThemesOption; v != nil {
		wc.prefs.SetInteger(models.PrefSuperReferralThemesOption, *v)
	}
	if v := payload.BrandedWallpaperNotificationDismissed; v != nil {
		wc.prefs.SetBoolean(models.PrefBrandedWallpaperNotificationDismissed, *v)
	}
	writeJSON(w, http.StatusOK, wc.currentPrefs())
}

func (wc *WallpaperController) ResetNotification(w http.ResponseWriter, _ *http.Request) {
	wc.viewCount.ResetNotificationState()
	w.WriteHeader(http.StatusNoContent)
}

type stateResponse struct {
	Rotation           models.RotationState `json:"rotation"`
	BrandedActive      bool                 `json:"brandedWallpaperActive"`
	BackgroundActive   bool                 `json:"backgroundWallpaperActive"`
	SuperReferral      bool                 `json:"superReferral"`
	SuperReferralTheme string               `json:"superReferralThemeName,omitempty"`
}

func (wc *WallpaperController) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		Rotation:           wc.viewCount.RotationState(),
		BrandedActive:      wc.viewCount.IsBrandedWallpaperActive(),
		BackgroundActive:   wc.viewCount.IsBackgroundWallpaperActive(),
		SuperReferral:      wc.viewCount.IsSuperReferral(),
		SuperReferralTheme: wc.viewCount.GetSuperReferralThemeName(),
	})
}

// imageRoots maps URL prefixes to the component install directories.
func (wc *WallpaperController) imageRoots() map[string]string {
	return map[string]string{
		models.BrandedWallpaperURLPrefix + models.SponsoredImagesPath: wc.conf.Component.SponsoredImagesDir,
		models.BrandedWallpaperURLPrefix + models.SuperReferralPath:   wc.conf.Component.SuperReferralDir,
		models.BackgroundWallpaperURLPrefix:                           wc.conf.Component.BackgroundImagesDir,
	}
}

// resolveImage turns a request path into a file inside one of the install
// directories. Paths escaping the directory are rejected.
func (wc *WallpaperController) resolveImage(urlPath string) (string, bool) {
	for prefix, dir := range wc.imageRoots() {
		if dir == "" || !strings.HasPrefix(urlPath, prefix) {
			continue
		}
		rel := path.Clean("/" + strings.TrimPrefix(urlPath, prefix))
		if rel == "/" {
			return "", false
		}
		return filepath.Join(dir, filepath.FromSlash(rel)), true
	}
	return "", false
}

func (wc *WallpaperController) ServeImage(w http.ResponseWriter, r *http.Request) {
	file, ok := wc.resolveImage(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, err := wc.prefetcher.Load(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		wc.logger.Errorf(providers.TypeGet, "Serving %s failed: %s", r.URL.Path, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
