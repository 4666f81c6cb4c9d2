package controllers

import (
	"fmt"
	"net/http"
	"ntpbg/internal/services"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	loader    services.BackgroundImagesServiceInterface
	startTime time.Time
}

type healthResponse struct {
	Status             string  `json:"status"`
	Uptime             string  `json:"uptime"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	SponsoredCampaigns int     `json:"sponsored_campaigns"`
	SuperReferral      bool    `json:"super_referral"`
	BackgroundImages   int     `json:"background_images"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		SuperReferral: hc.loader.IsSuperReferral(),
	}
	if data := hc.loader.GetBrandedImagesData(false); data != nil {
		resp.SponsoredCampaigns = len(data.Campaigns)
	}
	if data := hc.loader.GetBackgroundImagesData(); data != nil {
		resp.BackgroundImages = len(data.Backgrounds)
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(loader services.BackgroundImagesServiceInterface) *HealthController {
	return &HealthController{
		loader:    loader,
		startTime: time.Now(),
	}
}
