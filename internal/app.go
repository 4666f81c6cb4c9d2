package internal

import (
	"context"
	"fmt"
	"net/http"
	"ntpbg/internal/controllers"
	"ntpbg/internal/providers"
	"ntpbg/internal/services"
	"ntpbg/internal/storage"
	"ntpbg/internal/storage/interfaces"
	"ntpbg/internal/structures"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server
}

// Components bundles the long lived services the app starts and stops.
type Components struct {
	Loader      services.BackgroundImagesServiceInterface
	ViewCounter services.ViewCounterServiceInterface
	Helper      services.NTPP3AHelperInterface
	Prefetcher  services.ImagePrefetcherInterface
	FileManager *storage.FileManager
}

func NewComponents(loader services.BackgroundImagesServiceInterface, viewCounter services.ViewCounterServiceInterface, helper services.NTPP3AHelperInterface, prefetcher services.ImagePrefetcherInterface, fileManager *storage.FileManager) *Components {
	return &Components{
		Loader:      loader,
		ViewCounter: viewCounter,
		Helper:      helper,
		Prefetcher:  prefetcher,
		FileManager: fileManager,
	}
}

// Resume hands state restored from disk to services built before the restore.
func (c *Components) Resume() {
	c.Helper.ResumePersistedSlots()
	c.ViewCounter.RefreshP3AValues()
}

func NewApp(wallpaperController *controllers.WallpaperController, healthController *controllers.HealthController, components *Components, scheduler interfaces.SchedulerInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) (*App, error) {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)
	// Prefs first: restoring them resets the rotation through pref observers.
	err := scheduler.Restore()
	if err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	components.Resume()

	components.Loader.LoadAll()
	if conf.Component.Watch {
		if err := components.Loader.Watch(); err != nil {
			logger.Errorf(providers.TypeApp, "Component watch disabled: %s", err)
		}
	}

	app := &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		scheduler.Stop()
		components.Loader.Stop()
		return nil, fmt.Errorf("server error: %w", err)
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}

	components.Loader.Stop()
	components.ViewCounter.Shutdown()
	components.Helper.Shutdown()
	components.Prefetcher.Wait()

	err = scheduler.Persist()
	if err != nil {
		return nil, err
	}
	components.FileManager.Close()
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}
