package internal

import (
	"net/http"
	"ntpbg/internal/controllers"
	"ntpbg/internal/models"
	"ntpbg/internal/providers"
)

func InitRoutes(wallpaperController *controllers.WallpaperController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/wallpaper/current", http.HandlerFunc(wallpaperController.GetCurrentWallpaper))
	routers.Get("/wallpaper/next", http.HandlerFunc(wallpaperController.GetNextWallpaper))
	routers.Post("/pageview", http.HandlerFunc(wallpaperController.RegisterPageView))
	routers.Get("/topsites", http.HandlerFunc(wallpaperController.GetTopSites))
	routers.Post("/tab-url", http.HandlerFunc(wallpaperController.SetTabURL))
	routers.Post("/branded/landing", http.HandlerFunc(wallpaperController.StartLandingCheck))
	routers.Any("/prefs", map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(wallpaperController.GetPrefs),
		http.MethodPost: http.HandlerFunc(wallpaperController.SetPrefs),
	})
	routers.Post("/notification/reset", http.HandlerFunc(wallpaperController.ResetNotification))
	routers.Get("/state", http.HandlerFunc(wallpaperController.GetState))

	// Subtree patterns: image file names follow the prefix.
	routers.Files(models.BrandedWallpaperURLPrefix, http.HandlerFunc(wallpaperController.ServeImage))
	routers.Files(models.BackgroundWallpaperURLPrefix, http.HandlerFunc(wallpaperController.ServeImage))
	return routers
}
