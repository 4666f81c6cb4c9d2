package providers

import (
	"fmt"
	"ntpbg/internal/structures"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("component.updateCheckInterval", 15*time.Minute)
	viper.SetDefault("rotation.initialCountToBrandedWallpaper", 1)
	viper.SetDefault("rotation.countToBrandedWallpaper", 3)
	viper.SetDefault("rotation.landingCheckDelay", 10*time.Second)
	viper.SetDefault("p3a.reportInterval", 24*time.Hour)
	viper.SetDefault("p3a.expressRotationInterval", 24*time.Hour)
	viper.SetDefault("p3a.typicalRotationInterval", 7*24*time.Hour)
	viper.SetDefault("cache.ttl", time.Hour)

	viper.BindEnv("logger.level", "NTPBG_LOG_LEVEL")
	viper.BindEnv("locale.current", "NTPBG_LOCALE")
	viper.BindEnv("p3a.enabled", "NTPBG_P3A_ENABLED")
	viper.BindEnv("cache.enabled", "NTPBG_CACHE_ENABLED")
	viper.BindEnv("cache.size", "NTPBG_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "NTPBackgroundDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
