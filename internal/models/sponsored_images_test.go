package models

import (
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installDir = "/opt/component"

func decodeRecord(t *testing.T, raw string) *SponsoredImagesRecord {
	t.Helper()
	var record SponsoredImagesRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	return &record
}

const sponsoredJSON = `{
  "schemaVersion": 1,
  "campaigns": [
    {
      "campaignId": "c1",
      "logo": {"imageUrl": "logo.png", "alt": "Logo", "companyName": "Acme", "destinationUrl": "https://acme.com"},
      "wallpapers": [
        {"imageUrl": "a.jpg", "focalPoint": {"x": 10, "y": 20}, "creativeInstanceId": "cr-a"},
        {"imageUrl": "b.jpg", "viewbox": {"x": 1, "y": 2, "width": 300, "height": 400}, "backgroundColor": "#fff", "creativeInstanceId": "cr-b",
         "logo": {"imageUrl": "logo-b.png", "companyName": "Beta"}}
      ]
    },
    {"campaignId": "empty", "wallpapers": []},
    {"campaignId": "c2", "wallpapers": [{"focalPoint": {"x": 1}}, {"imageUrl": "c.jpg", "creativeInstanceId": "cr-c"}]}
  ]
}`

func TestNewSponsoredImagesData_ParsesCampaigns(t *testing.T) {
	data := NewSponsoredImagesData(decodeRecord(t, sponsoredJSON), installDir)

	require.True(t, data.IsValid())
	assert.False(t, data.IsSuperReferral())
	assert.Equal(t, "/branded-wallpaper/sponsored-images/", data.URLPrefix)
	require.Len(t, data.Campaigns, 2)
	assert.Equal(t, []string{"c1", "c2"}, data.CampaignIDs())
	assert.Equal(t, []int{2, 1}, data.CampaignsBackgroundCount())

	first := data.Campaigns[0].Backgrounds[0]
	assert.Equal(t, filepath.Join(installDir, "a.jpg"), first.FilePath)
	assert.Equal(t, Point{X: 10, Y: 20}, first.FocalPoint)
	assert.Nil(t, first.Viewbox)
	assert.Equal(t, "Acme", first.Logo.CompanyName)
	assert.Equal(t, "/branded-wallpaper/sponsored-images/logo.png", first.Logo.ImageURL)

	second := data.Campaigns[0].Backgrounds[1]
	require.NotNil(t, second.Viewbox)
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 300, Height: 400}, *second.Viewbox)
	assert.Equal(t, "#fff", second.BackgroundColor)
	assert.Equal(t, "Beta", second.Logo.CompanyName)

	assert.Len(t, data.Campaigns[1].Backgrounds, 1)
	assert.Empty(t, data.TopSites)
}

func TestNewSponsoredImagesData_SchemaMismatch(t *testing.T) {
	data := NewSponsoredImagesData(decodeRecord(t, `{"schemaVersion": 2, "campaigns": [{"wallpapers": [{"imageUrl": "a.jpg"}]}]}`), installDir)
	assert.False(t, data.IsValid())
	assert.Empty(t, data.Campaigns)

	data = NewSponsoredImagesData(decodeRecord(t, `{"campaigns": [{"wallpapers": [{"imageUrl": "a.jpg"}]}]}`), installDir)
	assert.False(t, data.IsValid())

	assert.False(t, NewSponsoredImagesData(nil, installDir).IsValid())
}

func TestNewSponsoredImagesData_SourcePriority(t *testing.T) {
	t.Run("campaigns2 wins over campaigns", func(t *testing.T) {
		data := NewSponsoredImagesData(decodeRecord(t, `{
			"schemaVersion": 1,
			"campaigns2": [{"campaignId": "new", "wallpapers": [{"imageUrl": "n.jpg"}]}],
			"campaigns": [{"campaignId": "old", "wallpapers": [{"imageUrl": "o.jpg"}]}]
		}`), installDir)
		assert.Equal(t, []string{"new"}, data.CampaignIDs())
	})

	t.Run("present but empty source is not skipped", func(t *testing.T) {
		data := NewSponsoredImagesData(decodeRecord(t, `{
			"schemaVersion": 1,
			"campaigns2": [{"campaignId": "broken", "wallpapers": []}],
			"campaigns": [{"campaignId": "old", "wallpapers": [{"imageUrl": "o.jpg"}]}]
		}`), installDir)
		assert.False(t, data.IsValid())
	})

	t.Run("root level campaign", func(t *testing.T) {
		data := NewSponsoredImagesData(decodeRecord(t, `{
			"schemaVersion": 1,
			"campaignId": "root",
			"wallpapers": [{"imageUrl": "r.jpg"}]
		}`), installDir)
		assert.Equal(t, []string{"root"}, data.CampaignIDs())
	})
}

func TestNewSponsoredImagesData_SuperReferral(t *testing.T) {
	data := NewSponsoredImagesData(decodeRecord(t, `{
		"schemaVersion": 1,
		"themeName": "Technikke",
		"wallpapers": [{"imageUrl": "sr.jpg"}],
		"topSites": [
			{"name": "Site", "destinationUrl": "https://site.com", "backgroundColor": "#000", "iconUrl": "site.png"},
			{"name": "NoIcon", "destinationUrl": "https://noicon.com"}
		]
	}`), installDir)

	require.True(t, data.IsSuperReferral())
	assert.Equal(t, "/branded-wallpaper/super-referral/", data.URLPrefix)
	require.Len(t, data.TopSites, 1)
	assert.Equal(t, "/branded-wallpaper/super-referral/site.png", data.TopSites[0].ImagePath)
	assert.Equal(t, filepath.Join(installDir, "site.png"), data.TopSites[0].ImageFile)

	wallpaper := data.GetBackgroundAt(0, 0)
	require.NotNil(t, wallpaper)
	assert.False(t, wallpaper.IsSponsored)
	assert.Equal(t, "Technikke", wallpaper.ThemeName)
	assert.Equal(t, "super_referral", wallpaper.Kind())
}

func TestNewSponsoredImagesData_TopSitesIgnoredWithoutTheme(t *testing.T) {
	data := NewSponsoredImagesData(decodeRecord(t, `{
		"schemaVersion": 1,
		"wallpapers": [{"imageUrl": "a.jpg"}],
		"topSites": [{"name": "Site", "destinationUrl": "https://site.com", "iconUrl": "site.png"}]
	}`), installDir)
	assert.Empty(t, data.TopSites)
}

func TestSponsoredImagesData_GetBackgroundAt(t *testing.T) {
	data := NewSponsoredImagesData(decodeRecord(t, sponsoredJSON), installDir)

	w1 := data.GetBackgroundAt(0, 1)
	require.NotNil(t, w1)
	assert.True(t, w1.IsSponsored)
	assert.True(t, w1.IsBranded())
	assert.Equal(t, "c1", w1.CampaignID)
	assert.Equal(t, "cr-b", w1.CreativeInstanceID)
	assert.Equal(t, "/branded-wallpaper/sponsored-images/b.jpg", w1.ImageURL)
	assert.Equal(t, "Beta", w1.Logo.CompanyName)
	assert.NotEmpty(t, w1.WallpaperID)

	w2 := data.GetBackgroundAt(0, 1)
	assert.NotEqual(t, w1.WallpaperID, w2.WallpaperID)

	assert.Nil(t, data.GetBackgroundAt(5, 0))
	assert.Nil(t, data.GetBackgroundAt(0, 9))

	var empty *SponsoredImagesData
	assert.Nil(t, empty.GetBackgroundAt(0, 0))
	assert.False(t, empty.IsSuperReferral())
}

func TestSponsoredImagesData_CreativeInstanceIDs(t *testing.T) {
	data := NewSponsoredImagesData(decodeRecord(t, sponsoredJSON), installDir)
	assert.Equal(t, map[string]struct{}{"cr-a": {}, "cr-b": {}, "cr-c": {}}, data.CreativeInstanceIDs())
}

func TestCampaignAndTopSiteValidity(t *testing.T) {
	assert.False(t, (&Campaign{CampaignID: "x"}).IsValid())
	assert.True(t, (&Campaign{Backgrounds: []SponsoredBackground{{}}}).IsValid())

	assert.False(t, (&TopSite{Name: "a", DestinationURL: "b"}).IsValid())
	assert.True(t, (&TopSite{Name: "a", DestinationURL: "b", ImageFile: "c"}).IsValid())
}
