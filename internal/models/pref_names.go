package models

// Profile prefs.
const (
	PrefBrandedWallpaperNotificationDismissed = "ntp.branded_wallpaper_notification_dismissed"
	PrefShowBackgroundImage                   = "ntp.show_background_image"
	PrefShowSponsoredImagesBackgroundImage    = "ntp.show_sponsored_images_background_image"
	PrefSuperReferralThemesOption             = "ntp.super_referral_themes_option"
)

// Local state prefs.
const (
	PrefNewTabsCreated          = "ntp.p3a_new_tabs_created"
	PrefSponsoredNewTabsCreated = "ntp.p3a_sponsored_new_tabs_created"
	PrefCreativeMetrics         = "ntp.p3a_creative_metrics"
)

// SuperReferralThemesOption values. The pref is an integer because it backs a
// radio group; Default disables super referral themes.
const (
	SuperReferralDefault = 0
	SuperReferral        = 1
)
