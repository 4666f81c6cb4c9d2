package models

import (
	"path/filepath"

	"github.com/google/uuid"
)

const (
	ExpectedSchemaVersion = 1

	BrandedWallpaperURLPrefix = "/branded-wallpaper/"
	SponsoredImagesPath       = "sponsored-images/"
	SuperReferralPath         = "super-referral/"
)

type Logo struct {
	ImageFile      string
	ImageURL       string
	AltText        string
	CompanyName    string
	DestinationURL string
}

type SponsoredBackground struct {
	FilePath           string
	FocalPoint         Point
	Viewbox            *Rect
	BackgroundColor    string
	CreativeInstanceID string
	Logo               Logo
}

type Campaign struct {
	CampaignID  string
	Backgrounds []SponsoredBackground
}

func (c *Campaign) IsValid() bool {
	return len(c.Backgrounds) > 0
}

type TopSite struct {
	Name            string `json:"name"`
	DestinationURL  string `json:"destinationUrl"`
	BackgroundColor string `json:"backgroundColor"`
	ImagePath       string `json:"iconUrl"`
	ImageFile       string `json:"-"`
}

func (t *TopSite) IsValid() bool {
	return t.Name != "" && t.DestinationURL != "" && t.ImageFile != ""
}

// SponsoredImagesData is one loaded sponsored images or super referral
// package. It is never mutated after construction; a new load replaces it.
type SponsoredImagesData struct {
	URLPrefix string
	ThemeName string
	Campaigns []Campaign
	TopSites  []TopSite
}

// NewSponsoredImagesData builds the dataset from an already decoded record.
// A schema version other than ExpectedSchemaVersion yields an empty dataset.
func NewSponsoredImagesData(record *SponsoredImagesRecord, installDir string) *SponsoredImagesData {
	data := &SponsoredImagesData{}
	if record == nil || record.SchemaVersion == nil || *record.SchemaVersion != ExpectedSchemaVersion {
		return data
	}

	data.URLPrefix = BrandedWallpaperURLPrefix
	if record.ThemeName != nil {
		data.ThemeName = *record.ThemeName
		data.URLPrefix += SuperReferralPath
	} else {
		data.URLPrefix += SponsoredImagesPath
	}

	// campaigns2 carries every campaign, campaigns only the legacy subset.
	// The first list present wins even when nothing in it is valid.
	switch {
	case record.Campaigns2 != nil:
		data.parseCampaignsList(record.Campaigns2, installDir)
	case record.Campaigns != nil:
		data.parseCampaignsList(record.Campaigns, installDir)
	default:
		if campaign := data.campaignFromRecord(&record.CampaignRecord, installDir); campaign.IsValid() {
			data.Campaigns = append(data.Campaigns, campaign)
		}
	}

	data.parseSuperReferralProperties(record, installDir)
	return data
}

func (d *SponsoredImagesData) parseCampaignsList(records []CampaignRecord, installDir string) {
	for i := range records {
		if campaign := d.campaignFromRecord(&records[i], installDir); campaign.IsValid() {
			d.Campaigns = append(d.Campaigns, campaign)
		}
	}
}

func (d *SponsoredImagesData) logoFromRecord(record *LogoRecord, installDir string) Logo {
	var logo Logo
	if record == nil {
		return logo
	}
	if record.ImageURL != nil {
		logo.ImageFile = filepath.Join(installDir, *record.ImageURL)
		logo.ImageURL = d.URLPrefix + *record.ImageURL
	}
	logo.AltText = stringOr(record.Alt, "")
	logo.CompanyName = stringOr(record.CompanyName, "")
	logo.DestinationURL = stringOr(record.DestinationURL, "")
	return logo
}

func (d *SponsoredImagesData) campaignFromRecord(record *CampaignRecord, installDir string) Campaign {
	campaign := Campaign{CampaignID: stringOr(record.CampaignID, "")}
	defaultLogo := d.logoFromRecord(record.Logo, installDir)

	for _, wallpaper := range record.Wallpapers {
		if wallpaper.ImageURL == nil {
			continue
		}

		background := SponsoredBackground{
			FilePath:           filepath.Join(installDir, *wallpaper.ImageURL),
			BackgroundColor:    stringOr(wallpaper.BackgroundColor, ""),
			CreativeInstanceID: stringOr(wallpaper.CreativeInstanceID, ""),
			Logo:               defaultLogo,
		}
		if fp := wallpaper.FocalPoint; fp != nil {
			background.FocalPoint = Point{X: intOr(fp.X, 0), Y: intOr(fp.Y, 0)}
		}
		if vb := wallpaper.Viewbox; vb != nil {
			background.Viewbox = &Rect{
				X:      intOr(vb.X, 0),
				Y:      intOr(vb.Y, 0),
				Width:  intOr(vb.Width, 0),
				Height: intOr(vb.Height, 0),
			}
		}
		if wallpaper.Logo != nil {
			background.Logo = d.logoFromRecord(wallpaper.Logo, installDir)
		}
		campaign.Backgrounds = append(campaign.Backgrounds, background)
	}
	return campaign
}

func (d *SponsoredImagesData) parseSuperReferralProperties(record *SponsoredImagesRecord, installDir string) {
	if d.ThemeName == "" {
		return
	}
	for _, item := range record.TopSites {
		site := TopSite{
			Name:            stringOr(item.Name, ""),
			DestinationURL:  stringOr(item.DestinationURL, ""),
			BackgroundColor: stringOr(item.BackgroundColor, ""),
		}
		if item.IconURL != nil {
			site.ImagePath = d.URLPrefix + *item.IconURL
			site.ImageFile = filepath.Join(installDir, *item.IconURL)
		}
		if !site.IsValid() {
			continue
		}
		d.TopSites = append(d.TopSites, site)
	}
}

func (d *SponsoredImagesData) IsValid() bool {
	return d != nil && len(d.Campaigns) > 0
}

func (d *SponsoredImagesData) IsSuperReferral() bool {
	return d.IsValid() && d.ThemeName != ""
}

// CampaignsBackgroundCount returns the number of backgrounds per campaign in
// display order.
func (d *SponsoredImagesData) CampaignsBackgroundCount() []int {
	if d == nil {
		return nil
	}
	counts := make([]int, len(d.Campaigns))
	for i := range d.Campaigns {
		counts[i] = len(d.Campaigns[i].Backgrounds)
	}
	return counts
}

// CreativeInstanceIDs returns the set of non-empty creative ids in the dataset.
func (d *SponsoredImagesData) CreativeInstanceIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	if d == nil {
		return ids
	}
	for _, campaign := range d.Campaigns {
		for _, background := range campaign.Backgrounds {
			if background.CreativeInstanceID != "" {
				ids[background.CreativeInstanceID] = struct{}{}
			}
		}
	}
	return ids
}

// CampaignIDs returns the campaign ids in display order.
func (d *SponsoredImagesData) CampaignIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, 0, len(d.Campaigns))
	for _, campaign := range d.Campaigns {
		ids = append(ids, campaign.CampaignID)
	}
	return ids
}

// BackgroundAt returns the background without building a display record.
func (d *SponsoredImagesData) BackgroundAt(campaignIndex, backgroundIndex int) (*Campaign, *SponsoredBackground, bool) {
	if d == nil || campaignIndex < 0 || campaignIndex >= len(d.Campaigns) {
		return nil, nil, false
	}
	campaign := &d.Campaigns[campaignIndex]
	if backgroundIndex < 0 || backgroundIndex >= len(campaign.Backgrounds) {
		return nil, nil, false
	}
	return campaign, &campaign.Backgrounds[backgroundIndex], true
}

// GetBackgroundAt builds the display record for one background. Every call
// generates a new wallpaper id.
func (d *SponsoredImagesData) GetBackgroundAt(campaignIndex, backgroundIndex int) *Wallpaper {
	campaign, background, ok := d.BackgroundAt(campaignIndex, backgroundIndex)
	if !ok {
		return nil
	}

	logo := background.Logo
	return &Wallpaper{
		WallpaperID:        uuid.NewString(),
		ThemeName:          d.ThemeName,
		IsSponsored:        !d.IsSuperReferral(),
		ImageURL:           d.URLPrefix + filepath.Base(background.FilePath),
		ImagePath:          background.FilePath,
		FocalPoint:         background.FocalPoint,
		Viewbox:            background.Viewbox,
		BackgroundColor:    background.BackgroundColor,
		CampaignID:         campaign.CampaignID,
		CreativeInstanceID: background.CreativeInstanceID,
		Logo: &WallpaperLogo{
			Image:          logo.ImageURL,
			ImagePath:      logo.ImageFile,
			CompanyName:    logo.CompanyName,
			Alt:            logo.AltText,
			DestinationURL: logo.DestinationURL,
		},
	}
}
