package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/hellorift/engine"
	"github.com/spaghettifunk/hellorift/engine/config"
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/platform"
	"github.com/spaghettifunk/hellorift/engine/renderer"
	"github.com/spaghettifunk/hellorift/engine/renderer/opengl"
	"github.com/spaghettifunk/hellorift/engine/xr"
	"github.com/spaghettifunk/hellorift/engine/xr/simulator"
	"github.com/spaghettifunk/hellorift/testbed"
	"github.com/urfave/cli"
)

// Run opens the window and drives the HMD until the window closes, the
// runtime asks to quit or the process is interrupted.
func Run(ctx *cli.Context) error {
	settings, path, err := loadSettings(ctx)
	if err != nil {
		return err
	}

	var opts []engine.Option
	if dir := ctx.String("snapshot-dir"); dir != "" {
		opts = append(opts, engine.WithSnapshotDir(dir))
	}

	game := testbed.NewTestGame(settings, path)
	e, err := engine.New(game.Game, platform.New(), newDevice, newSimulator, opts...)
	if err != nil {
		return err
	}
	if err := e.Initialize(); err != nil {
		return err
	}
	defer e.Shutdown()

	// The loop owns the GL context, so a signal only asks it to stop.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go quitOnSignal(sigCh, done)

	return e.Run()
}

// quitOnSignal fires the quit event when a signal arrives. It returns after
// the first signal or once done is closed.
func quitOnSignal(sigCh <-chan os.Signal, done <-chan struct{}) {
	select {
	case <-sigCh:
		core.LogInfo("interrupted, shutting down")
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
	case <-done:
	}
}
