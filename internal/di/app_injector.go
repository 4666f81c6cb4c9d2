//go:build !wireinject
// +build !wireinject

package di

import (
	"ntpbg/internal"
	"ntpbg/internal/controllers"
	"ntpbg/internal/p3a"
	"ntpbg/internal/providers"
	"ntpbg/internal/services"
	"ntpbg/internal/storage"
	"ntpbg/internal/structures"
)

// InitApp builds the app in the order wire resolves the providers listed in
// injectors.go. The provider set of both files is kept equal by a test.
func InitApp(cfg *structures.CliFlags) (*internal.App, error) {
	config, err := providers.NewConfigProvider(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := providers.NewLogProvider(config)
	if err != nil {
		return nil, err
	}
	clock := providers.NewClockProvider()
	registerer := providers.NewRegistererProvider()
	metricsProviderInterface := providers.NewMetricsProvider(config, registerer)
	backgroundImagesServiceInterface := services.NewBackgroundImagesService(config, logger, metricsProviderInterface, clock)
	prefStore := services.NewPrefStoreProvider()
	serviceInterface := p3a.NewService(config, logger, registerer)
	ntpp3AHelperInterface := services.NewNTPP3AHelper(config, logger, clock, prefStore, serviceInterface, backgroundImagesServiceInterface)
	cacheProviderInterface := providers.NewInstrumentedCacheProvider(config, logger, metricsProviderInterface)
	imagePrefetcherInterface := services.NewImagePrefetcher(cacheProviderInterface, logger)
	viewCounterServiceInterface := services.NewViewCounterService(config, logger, clock, backgroundImagesServiceInterface, prefStore, ntpp3AHelperInterface, imagePrefetcherInterface)
	wallpaperController := controllers.NewWallpaperController(config, logger, viewCounterServiceInterface, ntpp3AHelperInterface, prefStore, imagePrefetcherInterface, metricsProviderInterface)
	healthController := controllers.NewHealthController(backgroundImagesServiceInterface)
	compressorInterface, err := storage.NewZstdCompressor()
	if err != nil {
		return nil, err
	}
	fileManager := storage.NewFileManager(compressorInterface, prefStore, logger)
	components := internal.NewComponents(backgroundImagesServiceInterface, viewCounterServiceInterface, ntpp3AHelperInterface, imagePrefetcherInterface, fileManager)
	schedulerInterface := storage.NewScheduler(config, logger, serviceInterface, fileManager, metricsProviderInterface)
	routerProviderInterface := internal.InitRoutes(wallpaperController)
	app, err := internal.NewApp(wallpaperController, healthController, components, schedulerInterface, config, logger, routerProviderInterface, metricsProviderInterface)
	if err != nil {
		return nil, err
	}
	return app, nil
}
