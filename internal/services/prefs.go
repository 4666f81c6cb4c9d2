package services

import (
	"ntpbg/internal/models"
)

// RegisterProfilePrefs registers the user facing NTP prefs.
func RegisterProfilePrefs(prefs *models.PrefStore) {
	prefs.RegisterBoolean(models.PrefBrandedWallpaperNotificationDismissed, false)
	prefs.RegisterBoolean(models.PrefShowSponsoredImagesBackgroundImage, true)
	prefs.RegisterInteger(models.PrefSuperReferralThemesOption, models.SuperReferral)
	prefs.RegisterBoolean(models.PrefShowBackgroundImage, true)
}

// RegisterLocalStatePrefs registers counters and metric bookkeeping.
func RegisterLocalStatePrefs(prefs *models.PrefStore) {
	prefs.RegisterList(models.PrefNewTabsCreated)
	prefs.RegisterList(models.PrefSponsoredNewTabsCreated)
	prefs.RegisterDict(models.PrefCreativeMetrics)
}

func NewPrefStoreProvider() *models.PrefStore {
	prefs := models.NewPrefStore()
	RegisterProfilePrefs(prefs)
	RegisterLocalStatePrefs(prefs)
	return prefs
}
