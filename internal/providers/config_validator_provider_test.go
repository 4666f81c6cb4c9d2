package providers

import (
	"ntpbg/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Persistence: structures.Persistence{
			FilePath:     "/tmp/ntpbg/prefs.dat",
			SaveInterval: 30 * time.Second,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		Rotation: structures.RotationConfig{
			InitialCountToBrandedWallpaper: 1,
			CountToBrandedWallpaper:        3,
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_EmptyLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_EmptyPersistencePath(t *testing.T) {
	c := validConfig()
	c.Persistence.FilePath = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_WatchWithoutDirectories(t *testing.T) {
	c := validConfig()
	c.Component.Watch = true
	assert.ErrorContains(t, NewCnfValidator(c).Validate(), "component.watch")

	c.Component.BackgroundImagesDir = "/var/lib/ntpbg/bg"
	assert.NoError(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_RotationIntervalsOrder(t *testing.T) {
	c := validConfig()
	c.P3A.ExpressRotationInterval = time.Hour
	c.P3A.TypicalRotationInterval = time.Minute
	assert.ErrorContains(t, NewCnfValidator(c).Validate(), "typicalRotationInterval")

	c.P3A.TypicalRotationInterval = 7 * 24 * time.Hour
	assert.NoError(t, NewCnfValidator(c).Validate())
}
