package cmd

import (
	"github.com/spaghettifunk/hellorift/engine/config"
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/urfave/cli"
)

// loadSettings reads the global --config file and applies --log-level on top.
func loadSettings(ctx *cli.Context) (*config.Config, string, error) {
	path := ctx.GlobalString("config")
	settings, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if level := ctx.GlobalString("log-level"); level != "" {
		settings.Log.Level = level
	}
	core.SetLogLevel(core.ParseLogLevel(settings.Log.Level))
	return settings, path, nil
}
