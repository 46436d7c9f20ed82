package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spaghettifunk/hellorift/engine/config"
	"github.com/urfave/cli"
)

// InitConfig writes the default configuration to the path given as argument.
func InitConfig(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("missing configuration path argument")
	}
	path := ctx.Args().First()
	if !ctx.Bool("force") {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite it", path)
		}
	}
	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "wrote %s\n", path)
	return nil
}

// ShowConfig prints the configuration the run command would use.
func ShowConfig(ctx *cli.Context) error {
	settings, _, err := loadSettings(ctx)
	if err != nil {
		return err
	}
	data, err := settings.Marshal()
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(data)
	return err
}
