//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"ntpbg/internal"
	"ntpbg/internal/controllers"
	"ntpbg/internal/models"
	"ntpbg/internal/p3a"
	"ntpbg/internal/providers"
	"ntpbg/internal/services"
	"ntpbg/internal/storage"
	"ntpbg/internal/storage/interfaces"
	"ntpbg/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewRegistererProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewClockProvider,

		services.NewPrefStoreProvider,
		wire.Bind(new(interfaces.PrefSnapshotter), new(*models.PrefStore)),
		p3a.NewService,
		services.NewBackgroundImagesService,
		services.NewImagePrefetcher,
		services.NewNTPP3AHelper,
		services.NewViewCounterService,

		storage.NewZstdCompressor,
		storage.NewFileManager,
		storage.NewScheduler,
		controllers.NewWallpaperController,
		controllers.NewHealthController,
		internal.NewComponents,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
