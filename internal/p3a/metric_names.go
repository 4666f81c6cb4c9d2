package p3a

const (
	NewTabsCreatedMetric          = "NTP.NewTabsCreated.3"
	SponsoredNewTabsCreatedMetric = "NTP.SponsoredNewTabsCreated.2"
	SponsoredImagesEnabledMetric  = "NTP.SponsoredImagesEnabled"

	// Dynamic per-creative metrics are named <prefix><creative>.<event>.
	CreativeMetricPrefix = "creativeInstanceId."
)

var (
	NewTabsCreatedBuckets   = []int{0, 1, 2, 3, 4, 8, 15}
	SponsoredNewTabsBuckets = []int{0, 10, 20, 30, 40, 50}
)
