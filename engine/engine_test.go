package engine

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/hellorift/engine/config"
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/renderer"
	"github.com/spaghettifunk/hellorift/engine/renderer/devicetest"
	"github.com/spaghettifunk/hellorift/engine/systems"
	"github.com/spaghettifunk/hellorift/engine/xr"
	"github.com/spaghettifunk/hellorift/engine/xr/xrtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	core.SetLogOutput(io.Discard)
}

// fakeWindow stays open for frames pumps and calls onPump before each one.
type fakeWindow struct {
	frames  int
	pumps   int
	swaps   int
	started bool
	closed  bool
	failure error
	onPump  func(pump int)
}

func (w *fakeWindow) Startup(name string, x, y, width, height int32) error {
	if w.failure != nil {
		return w.failure
	}
	w.started = true
	return nil
}

func (w *fakeWindow) Shutdown() error {
	w.closed = true
	return nil
}

func (w *fakeWindow) PumpMessages() bool {
	if w.onPump != nil {
		w.onPump(w.pumps)
	}
	w.pumps++
	return w.pumps <= w.frames
}

func (w *fakeWindow) SwapBuffers() {
	w.swaps++
}

func (w *fakeWindow) FramebufferSize() (int32, int32) {
	return 1280, 720
}

type harness struct {
	engine *Engine
	window *fakeWindow
	rt     *xrtest.Runtime
	dev    *devicetest.Device
	game   *Game
	draws  int
}

func newHarness(t *testing.T, settings *config.Config, path string, frames int, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		window: &fakeWindow{frames: frames},
		dev:    devicetest.New(),
	}
	h.rt = xrtest.New(h.dev)
	h.game = &Game{
		ApplicationConfig: NewApplicationConfig(settings, path),
		FnRender: func(eye xr.Eye, view systems.EyeView) {
			h.draws++
		},
	}
	newDevice := func() (renderer.Device, error) { return h.dev, nil }
	newRuntime := func(dev renderer.Device, settings *config.Config) (xr.Runtime, error) { return h.rt, nil }

	e, err := New(h.game, h.window, newDevice, newRuntime, opts...)
	require.NoError(t, err)
	h.engine = e
	return h
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, &fakeWindow{}, nil, nil)
	assert.Error(t, err)
	_, err = New(&Game{ApplicationConfig: NewApplicationConfig(nil, "")}, nil, nil, nil)
	assert.Error(t, err)
}

func TestRunSubmitsFramesUntilTheWindowCloses(t *testing.T) {
	h := newHarness(t, nil, "", 5)
	require.NoError(t, h.engine.Initialize())
	assert.Equal(t, EngineStageInitialized, h.engine.Stage())
	assert.Same(t, h.engine.SystemManager(), h.game.SystemManager)

	require.NoError(t, h.engine.Run())

	assert.Equal(t, uint64(5), h.engine.Metrics().Submitted)
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, h.rt.SubmittedFrames)
	assert.Equal(t, 10, h.draws)
	assert.Equal(t, 5, h.window.swaps)
	assert.Positive(t, h.dev.CallCount("BlitFramebuffer"))

	require.NoError(t, h.engine.Shutdown())
	assert.True(t, h.window.closed)
	assert.False(t, h.rt.Initialized)
	assert.Nil(t, h.game.SystemManager)
	require.NoError(t, h.engine.Shutdown())
}

func TestRunWithoutInitializeFails(t *testing.T) {
	h := newHarness(t, nil, "", 1)
	assert.Error(t, h.engine.Run())
}

func TestInitializeFailureReleasesEverything(t *testing.T) {
	h := newHarness(t, nil, "", 1)
	h.rt.FailCreateSession = xr.ErrorServiceError

	err := h.engine.Initialize()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInitialization)
	assert.True(t, h.window.closed)
	assert.False(t, h.rt.Initialized)
	assert.Equal(t, EngineStageUninitialized, h.engine.Stage())
}

func TestWindowFailureIsAnInitializationError(t *testing.T) {
	h := newHarness(t, nil, "", 1)
	h.window.failure = errors.New("no display")

	err := h.engine.Initialize()
	assert.ErrorIs(t, err, core.ErrInitialization)
	assert.Zero(t, h.rt.Count("Initialize"))
}

func TestRuntimeQuitEndsTheLoop(t *testing.T) {
	h := newHarness(t, nil, "", 100)
	h.window.onPump = func(pump int) {
		if pump == 2 {
			h.rt.Status.ShouldQuit = true
		}
	}
	require.NoError(t, h.engine.Initialize())
	defer h.engine.Shutdown()

	require.NoError(t, h.engine.Run())
	assert.Equal(t, 3, h.window.pumps)
	assert.Equal(t, uint64(2), h.engine.Metrics().Submitted)
}

func TestDroppedFramesKeepTheLoopGoing(t *testing.T) {
	h := newHarness(t, nil, "", 4)
	h.window.onPump = func(pump int) {
		if pump == 1 {
			h.rt.FailEnd = xr.ErrorTimeout
		} else {
			h.rt.FailEnd = xr.Success
		}
	}
	require.NoError(t, h.engine.Initialize())
	defer h.engine.Shutdown()

	require.NoError(t, h.engine.Run())
	m := h.engine.Metrics()
	assert.Equal(t, uint64(3), m.Submitted)
	assert.Equal(t, uint64(1), m.Dropped)
	assert.Equal(t, []int64{0, 1, 2}, h.rt.SubmittedFrames)
}

func TestLostDisplayStopsWithDeviceLost(t *testing.T) {
	h := newHarness(t, nil, "", 10)
	h.window.onPump = func(pump int) {
		if pump == 1 {
			h.rt.Status.DisplayLost = true
		}
	}
	require.NoError(t, h.engine.Initialize())
	defer h.engine.Shutdown()

	err := h.engine.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDeviceLost)
	assert.Equal(t, uint64(1), h.engine.Metrics().Submitted)
}

func TestHiddenFramesAreSkipped(t *testing.T) {
	h := newHarness(t, nil, "", 3)
	h.rt.Status.IsVisible = false
	require.NoError(t, h.engine.Initialize())
	defer h.engine.Shutdown()

	require.NoError(t, h.engine.Run())
	assert.Equal(t, uint64(3), h.engine.Metrics().Skipped)
	assert.Empty(t, h.rt.SubmittedFrames)
	assert.Zero(t, h.draws)
}

func press(key core.KeyCode) {
	core.InputProcessKey(key, true)
	core.InputProcessKey(key, false)
}

func TestKeysRecenterAndQuit(t *testing.T) {
	h := newHarness(t, nil, "", 100)
	h.window.onPump = func(pump int) {
		switch pump {
		case 1:
			press(core.KEY_R)
		case 3:
			press(core.KEY_Q)
		}
	}
	require.NoError(t, h.engine.Initialize())
	defer h.engine.Shutdown()

	require.NoError(t, h.engine.Run())
	assert.Equal(t, 1, h.rt.Recenters)
	// Quit is seen at the end of the iteration it was pressed in.
	assert.Equal(t, 4, h.window.pumps)
}

func TestSnapshotKeyWritesPNG(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, nil, "", 2, WithSnapshotDir(dir))
	h.window.onPump = func(pump int) {
		if pump == 0 {
			press(core.KEY_P)
		}
	}
	require.NoError(t, h.engine.Initialize())
	defer h.engine.Shutdown()

	require.NoError(t, h.engine.Run())
	files, err := filepath.Glob(filepath.Join(dir, "mirror-*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDisabledMirrorSkipsThePreview(t *testing.T) {
	settings := config.Default()
	settings.Mirror.Enabled = false
	h := newHarness(t, settings, "", 2)
	require.NoError(t, h.engine.Initialize())
	defer h.engine.Shutdown()

	assert.Nil(t, h.engine.SystemManager().Mirror)
	assert.Empty(t, h.rt.Mirrors)
	require.NoError(t, h.engine.Run())
	assert.Equal(t, 2, h.window.swaps)
}

func TestConfigChangesApplyLive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rift.toml")
	settings := config.Default()
	require.NoError(t, settings.Save(path))

	h := newHarness(t, settings, path, 1)
	require.NoError(t, h.engine.Initialize())
	defer h.engine.Shutdown()

	reloaded := false
	core.EventRegister(core.EVENT_CODE_CONFIG_RELOADED, t, func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
		reloaded = data.Data.C[0] == path
		return true
	})
	defer core.EventUnregister(core.EVENT_CODE_CONFIG_RELOADED, t)

	require.NoError(t, os.WriteFile(path, []byte("[hmd]\nnear_clip = 0.5\nfar_clip = 50.0\ntracking_origin = \"floor\"\n"), 0o644))

	planner := h.engine.SystemManager().Planner
	require.Eventually(t, func() bool {
		h.engine.applyConfigChanges()
		near, far := planner.ClipPlanes()
		return near == 0.5 && far == 50
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, reloaded)
	assert.Equal(t, xr.TrackingOriginFloorLevel, h.engine.SystemManager().Poses.TrackingOrigin())
	assert.Equal(t, xr.TrackingOriginFloorLevel, h.rt.OriginType)
}
