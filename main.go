/*
hellorift opens a window, renders a triangle to both eyes of the HMD and
mirrors the compositor output on the desktop.
*/
package main

import (
	"os"

	"github.com/spaghettifunk/hellorift/cmd"
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "hellorift"
	app.Usage = "render a triangle in stereo to an HMD"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "TOML configuration file, reloaded when it changes",
		},
		cli.StringFlag{
			Name:  "log-level, l",
			Usage: "override the configured log level (debug, info, warn, error)",
		},
	}
	app.Action = cmd.Run
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "open the window and start submitting frames",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "snapshot-dir",
					Value: ".",
					Usage: "directory mirror snapshots (P key) are written to",
				},
			},
			Action: cmd.Run,
		},
		{
			Name:      "init-config",
			Usage:     "write the default configuration",
			ArgsUsage: "path",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "force, f",
					Usage: "overwrite an existing file",
				},
			},
			Action: cmd.InitConfig,
		},
		{
			Name:   "show-config",
			Usage:  "print the effective configuration",
			Action: cmd.ShowConfig,
		},
	}

	if err := app.Run(os.Args); err != nil {
		core.LogError(err.Error())
		os.Exit(1)
	}
}
