package models

// SponsoredImagesRecord is the structured form of a sponsored images or
// super referral photo.json. Absent keys stay nil.
type SponsoredImagesRecord struct {
	SchemaVersion *int             `json:"schemaVersion"`
	ThemeName     *string          `json:"themeName"`
	Campaigns2    []CampaignRecord `json:"campaigns2"`
	Campaigns     []CampaignRecord `json:"campaigns"`
	TopSites      []TopSiteRecord  `json:"topSites"`

	// Root-level single campaign, read when neither campaign list is present.
	CampaignRecord
}

type CampaignRecord struct {
	CampaignID *string           `json:"campaignId"`
	Logo       *LogoRecord       `json:"logo"`
	Wallpapers []WallpaperRecord `json:"wallpapers"`
}

type LogoRecord struct {
	ImageURL       *string `json:"imageUrl"`
	Alt            *string `json:"alt"`
	CompanyName    *string `json:"companyName"`
	DestinationURL *string `json:"destinationUrl"`
}

type PointRecord struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type ViewboxRecord struct {
	X      *int `json:"x"`
	Y      *int `json:"y"`
	Width  *int `json:"width"`
	Height *int `json:"height"`
}

type WallpaperRecord struct {
	ImageURL           *string        `json:"imageUrl"`
	FocalPoint         *PointRecord   `json:"focalPoint"`
	Viewbox            *ViewboxRecord `json:"viewbox"`
	BackgroundColor    *string        `json:"backgroundColor"`
	CreativeInstanceID *string        `json:"creativeInstanceId"`
	Logo               *LogoRecord    `json:"logo"`
}

type TopSiteRecord struct {
	Name            *string `json:"name"`
	DestinationURL  *string `json:"destinationUrl"`
	BackgroundColor *string `json:"backgroundColor"`
	IconURL         *string `json:"iconUrl"`
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
