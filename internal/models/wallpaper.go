package models

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type WallpaperLogo struct {
	Image          string `json:"image"`
	ImagePath      string `json:"imagePath"`
	CompanyName    string `json:"companyName"`
	Alt            string `json:"alt"`
	DestinationURL string `json:"destinationUrl"`
}

// Wallpaper is the record handed to the page for one display request.
type Wallpaper struct {
	WallpaperID        string         `json:"wallpaperId"`
	ImageURL           string         `json:"wallpaperImageUrl"`
	ImagePath          string         `json:"wallpaperImagePath"`
	FocalPoint         Point          `json:"focalPoint"`
	Viewbox            *Rect          `json:"viewbox,omitempty"`
	BackgroundColor    string         `json:"backgroundColor,omitempty"`
	ThemeName          string         `json:"themeName,omitempty"`
	CampaignID         string         `json:"campaignId,omitempty"`
	CreativeInstanceID string         `json:"creativeInstanceId,omitempty"`
	Logo               *WallpaperLogo `json:"logo,omitempty"`
	Author             string         `json:"author,omitempty"`
	Link               string         `json:"link,omitempty"`
	IsSponsored        bool           `json:"isSponsored"`
	IsBackground       bool           `json:"isBackground"`
	Random             bool           `json:"random"`
}

// IsBranded reports whether the wallpaper comes from a campaign.
func (w *Wallpaper) IsBranded() bool {
	return w != nil && !w.IsBackground
}

// Kind is used as a metrics label.
func (w *Wallpaper) Kind() string {
	switch {
	case w == nil:
		return "none"
	case w.IsBackground:
		return "random"
	case w.IsSponsored:
		return "sponsored"
	default:
		return "super_referral"
	}
}
