package engine

import (
	"github.com/spaghettifunk/hellorift/engine/systems"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	// SystemManager is set by the engine before FnInitialize runs.
	SystemManager *systems.SystemManager
	State         interface{}
	FnInitialize  Initialize
	FnUpdate      Update
	FnRender      Render
	FnShutdown    Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render draws the scene for one eye into the bound eye image.
type Render func(eye xr.Eye, view systems.EyeView)
type Shutdown func() error
