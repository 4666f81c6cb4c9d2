package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

// ComponentConfig points at the install directories of the downloaded
// content packages. Each directory holds a photo.json and its images.
type ComponentConfig struct {
	SponsoredImagesDir  string        `yaml:"sponsoredImagesDir"`
	SuperReferralDir    string        `yaml:"superReferralDir"`
	BackgroundImagesDir string        `yaml:"backgroundImagesDir"`
	UpdateCheckInterval time.Duration `yaml:"updateCheckInterval"`
	Watch               bool          `yaml:"watch"`
}

type RotationConfig struct {
	InitialCountToBrandedWallpaper int           `yaml:"initialCountToBrandedWallpaper" validate:"min:0"`
	CountToBrandedWallpaper        int           `yaml:"countToBrandedWallpaper" validate:"min:0"`
	MaxCreativeViewsPerDay         int           `yaml:"maxCreativeViewsPerDay" validate:"min:0"`
	LandingCheckDelay              time.Duration `yaml:"landingCheckDelay"`
}

type LocaleConfig struct {
	Current          string   `yaml:"current"`
	SupportedRegions []string `yaml:"supportedRegions"`
}

type P3AConfig struct {
	Enabled                 bool          `yaml:"enabled"`
	ReportInterval          time.Duration `yaml:"reportInterval"`
	ExpressRotationInterval time.Duration `yaml:"expressRotationInterval"`
	TypicalRotationInterval time.Duration `yaml:"typicalRotationInterval"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server          `yaml:"webServer"`
	Persistence Persistence     `yaml:"persistence"`
	Logger      LoggerConfig    `yaml:"logger"`
	Component   ComponentConfig `yaml:"component"`
	Rotation    RotationConfig  `yaml:"rotation"`
	Locale      LocaleConfig    `yaml:"locale"`
	P3A         P3AConfig       `yaml:"p3a"`
	Cache       CacheConfig     `yaml:"cache"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}
