package testbed

import (
	"fmt"

	"github.com/spaghettifunk/hellorift/engine"
	"github.com/spaghettifunk/hellorift/engine/config"
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/renderer/opengl"
	"github.com/spaghettifunk/hellorift/engine/systems"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

// Standing eye height the scene is laid out for with a floor-level origin.
const eyeHeight float32 = 1.675

// TestGame draws a single coloured triangle two meters in front of the
// starting head position.
type TestGame struct {
	*engine.Game
}

type gameState struct {
	triangle *opengl.TriangleProgram
	// model places the triangle in the scene; it spins slowly around +y.
	model   *math.Transform
	spin    float32
	elapsed float64
}

func NewTestGame(settings *config.Config, configPath string) *TestGame {
	if settings == nil {
		settings = config.Default()
	}
	var height float32
	if settings.TrackingOrigin() == xr.TrackingOriginFloorLevel {
		height = eyeHeight
	}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: engine.NewApplicationConfig(settings, configPath),
			State: &gameState{
				model: math.TransformFromPositionRotation(math.NewVec3(0, height, -2), math.NewQuatIdentity()),
				spin:  0.5,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}

	state := g.State.(*gameState)
	triangle, err := opengl.NewTriangleProgram()
	if err != nil {
		core.LogError("failed to build the triangle program")
		return err
	}
	state.triangle = triangle

	for _, eye := range xr.Eyes {
		size := g.SystemManager.Buffers[eye].Size()
		core.LogInfo("%s eye renders at %dx%d", eye, size.W, size.H)
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime
	rotation := math.NewQuatFromAxisAngle(math.NewVec3Up(), state.spin*float32(deltaTime), false)
	state.model.Rotate(rotation)
	return nil
}

func (g *TestGame) Render(eye xr.Eye, view systems.EyeView) {
	state := g.State.(*gameState)
	if state.triangle == nil {
		return
	}
	state.triangle.Draw(view.ViewProjection.Mul(state.model.GetLocal()))
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	if state.triangle != nil {
		state.triangle.Destroy()
		state.triangle = nil
	}
	return nil
}
