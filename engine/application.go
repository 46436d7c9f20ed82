package engine

import (
	"github.com/spaghettifunk/hellorift/engine/config"
	"github.com/spaghettifunk/hellorift/engine/core"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX int32
	// Window starting position y axis, if applicable.
	StartPosY int32
	// Window starting width, if applicable.
	StartWidth int32
	// Window starting height, if applicable.
	StartHeight int32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel core.LogLevel
	// ConfigPath is watched for changes when set.
	ConfigPath string
	// Settings is the parsed configuration the engine starts with.
	Settings *config.Config
}

// NewApplicationConfig derives the window and logging setup from settings.
func NewApplicationConfig(settings *config.Config, path string) *ApplicationConfig {
	if settings == nil {
		settings = config.Default()
	}
	return &ApplicationConfig{
		StartPosX:   settings.Window.X,
		StartPosY:   settings.Window.Y,
		StartWidth:  settings.Window.Width,
		StartHeight: settings.Window.Height,
		Name:        settings.Window.Name,
		LogLevel:    core.ParseLogLevel(settings.Log.Level),
		ConfigPath:  path,
		Settings:    settings,
	}
}
