package models

// FrequencyPolicy controls how many page views pass between two branded
// wallpaper slots. The values come from configuration.
type FrequencyPolicy struct {
	InitialCountToBrandedWallpaper int
	CountToBrandedWallpaper        int
}

type BrandedImageIndex struct {
	Campaign   int `json:"campaign"`
	Background int `json:"background"`
}

// RotationState is a read-only copy of the model cursor.
type RotationState struct {
	CurrentWallpaperImageIndex      int               `json:"currentWallpaperImageIndex"`
	TotalImageCount                 int               `json:"totalImageCount"`
	CurrentBrandedImage             BrandedImageIndex `json:"currentBrandedImage"`
	CampaignsTotalBrandedImageCount []int             `json:"campaignsTotalBrandedImageCount"`
	CountToBrandedWallpaper         int               `json:"countToBrandedWallpaper"`
	ShowWallpaper                   bool              `json:"showWallpaper"`
	ShowBrandedWallpaper            bool              `json:"showBrandedWallpaper"`
	AlwaysShowBrandedWallpaper      bool              `json:"alwaysShowBrandedWallpaper"`
}

// ViewCounterModel is the rotation cursor. It is not safe for concurrent use;
// the owning service serialises access.
type ViewCounterModel struct {
	policy FrequencyPolicy

	currentWallpaperImageIndex int
	totalImageCount            int

	currentCampaignIndex            int
	currentBrandedImageIndex        int
	campaignsTotalBrandedImageCount []int

	countToBrandedWallpaper int

	showWallpaper              bool
	showBrandedWallpaper       bool
	alwaysShowBrandedWallpaper bool
}

func NewViewCounterModel(policy FrequencyPolicy) *ViewCounterModel {
	m := &ViewCounterModel{policy: policy}
	m.Reset()
	return m
}

func (m *ViewCounterModel) Reset() {
	m.currentWallpaperImageIndex = 0
	m.totalImageCount = 0
	m.currentCampaignIndex = 0
	m.currentBrandedImageIndex = 0
	m.campaignsTotalBrandedImageCount = nil
	m.countToBrandedWallpaper = m.policy.InitialCountToBrandedWallpaper
	m.showWallpaper = false
	m.showBrandedWallpaper = false
	m.alwaysShowBrandedWallpaper = false
}

func (m *ViewCounterModel) SetShowWallpaper(show bool) {
	m.showWallpaper = show
}

func (m *ViewCounterModel) SetShowBrandedWallpaper(show bool) {
	m.showBrandedWallpaper = show
}

func (m *ViewCounterModel) SetAlwaysShowBrandedWallpaper(show bool) {
	m.alwaysShowBrandedWallpaper = show
}

func (m *ViewCounterModel) SetTotalImageCount(count int) {
	m.totalImageCount = max(count, 0)
	if m.currentWallpaperImageIndex >= m.totalImageCount {
		m.currentWallpaperImageIndex = 0
	}
}

// SetCampaignsTotalBrandedImageCount records how many backgrounds each
// campaign holds; the branded cursor never leaves these bounds.
func (m *ViewCounterModel) SetCampaignsTotalBrandedImageCount(counts []int) {
	m.campaignsTotalBrandedImageCount = append([]int(nil), counts...)
	if m.currentCampaignIndex >= len(counts) {
		m.currentCampaignIndex = 0
		m.currentBrandedImageIndex = 0
	}
	if m.currentCampaignIndex < len(counts) && m.currentBrandedImageIndex >= counts[m.currentCampaignIndex] {
		m.currentBrandedImageIndex = 0
	}
}

func (m *ViewCounterModel) ShouldShowBrandedWallpaper() bool {
	if m.alwaysShowBrandedWallpaper {
		return true
	}
	return m.showBrandedWallpaper && m.countToBrandedWallpaper == 0
}

func (m *ViewCounterModel) ShowWallpaper() bool {
	return m.showWallpaper
}

func (m *ViewCounterModel) RegisterPageView() {
	// Super referral ignores frequency capping.
	if m.alwaysShowBrandedWallpaper {
		m.NextBrandedImage()
		return
	}

	if !m.showBrandedWallpaper {
		return
	}

	if m.countToBrandedWallpaper == 0 {
		m.countToBrandedWallpaper = m.policy.CountToBrandedWallpaper
		m.NextBrandedImage()
		return
	}
	m.countToBrandedWallpaper--
}

func (m *ViewCounterModel) RotateBackgroundWallpaperImageIndex() {
	if m.totalImageCount == 0 {
		return
	}
	m.currentWallpaperImageIndex = (m.currentWallpaperImageIndex + 1) % m.totalImageCount
}

func (m *ViewCounterModel) CurrentWallpaperImageIndex() int {
	return m.currentWallpaperImageIndex
}

func (m *ViewCounterModel) GetCurrentBrandedImageIndex() BrandedImageIndex {
	return BrandedImageIndex{Campaign: m.currentCampaignIndex, Background: m.currentBrandedImageIndex}
}

// TotalBrandedImageCount is the size of the flattened (campaign, background)
// space.
func (m *ViewCounterModel) TotalBrandedImageCount() int {
	total := 0
	for _, c := range m.campaignsTotalBrandedImageCount {
		total += max(c, 0)
	}
	return total
}

// NextBrandedImage moves to the next background of the current campaign and
// on to the next campaign once the current one is exhausted, wrapping around.
func (m *ViewCounterModel) NextBrandedImage() {
	campaignCount := len(m.campaignsTotalBrandedImageCount)
	if m.TotalBrandedImageCount() == 0 {
		return
	}

	m.currentBrandedImageIndex++
	for m.currentBrandedImageIndex >= m.campaignsTotalBrandedImageCount[m.currentCampaignIndex] {
		m.currentBrandedImageIndex = 0
		m.currentCampaignIndex = (m.currentCampaignIndex + 1) % campaignCount
		if m.campaignsTotalBrandedImageCount[m.currentCampaignIndex] > 0 {
			break
		}
	}
}

func (m *ViewCounterModel) State() RotationState {
	return RotationState{
		CurrentWallpaperImageIndex:      m.currentWallpaperImageIndex,
		TotalImageCount:                 m.totalImageCount,
		CurrentBrandedImage:             m.GetCurrentBrandedImageIndex(),
		CampaignsTotalBrandedImageCount: append([]int(nil), m.campaignsTotalBrandedImageCount...),
		CountToBrandedWallpaper:         m.countToBrandedWallpaper,
		ShowWallpaper:                   m.showWallpaper,
		ShowBrandedWallpaper:            m.showBrandedWallpaper,
		AlwaysShowBrandedWallpaper:      m.alwaysShowBrandedWallpaper,
	}
}
