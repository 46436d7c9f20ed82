package engine

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/hellorift/engine/config"
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/renderer"
	"github.com/spaghettifunk/hellorift/engine/systems"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Window is the desktop surface the mirror is shown in.
type Window interface {
	Startup(name string, x, y, width, height int32) error
	Shutdown() error
	// PumpMessages processes window events and reports whether the window
	// should stay open.
	PumpMessages() bool
	SwapBuffers()
	FramebufferSize() (int32, int32)
}

// DeviceFactory creates the graphics device once the window's context is current.
type DeviceFactory func() (renderer.Device, error)

// RuntimeFactory creates the HMD runtime on top of the graphics device.
type RuntimeFactory func(dev renderer.Device, settings *config.Config) (xr.Runtime, error)

// visibilityToggler is implemented by runtimes that can fake the HMD being
// taken off.
type visibilityToggler interface {
	SetVisible(visible bool)
	Visible() bool
}

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     atomic.Bool
	window        Window
	newDevice     DeviceFactory
	newRuntime    RuntimeFactory
	device        renderer.Device
	runtime       xr.Runtime
	systemManager *systems.SystemManager
	watcher       *config.Watcher
	settings      *config.Config
	clock         *core.Clock
	metrics       *core.Metrics
	lastTime      float64
	lastReport    float64

	recenterRequested bool
	snapshotRequested bool
	snapshotDir       string
}

type Option func(*Engine)

// WithSnapshotDir sets where mirror snapshots are written. Defaults to the
// working directory.
func WithSnapshotDir(dir string) Option {
	return func(e *Engine) {
		e.snapshotDir = dir
	}
}

func New(g *Game, window Window, newDevice DeviceFactory, newRuntime RuntimeFactory, opts ...Option) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		err := fmt.Errorf("func New - a game with an application config is required")
		core.LogError(err.Error())
		return nil, err
	}
	if window == nil || newDevice == nil || newRuntime == nil {
		err := fmt.Errorf("func New - window, device and runtime factories are required")
		core.LogError(err.Error())
		return nil, err
	}
	settings := g.ApplicationConfig.Settings
	if settings == nil {
		settings = config.Default()
	}
	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		window:       window,
		newDevice:    newDevice,
		newRuntime:   newRuntime,
		settings:     settings,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		snapshotDir:  ".",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

func (e *Engine) SystemManager() *systems.SystemManager {
	return e.systemManager
}

/**
 * @brief Opens the window, creates the device and runtime and builds the
 * stereo systems. Anything created before a failure is released again.
 *
 * @return nil, or an error wrapping core.ErrInitialization or core.ErrResourceCreation.
 */
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageBooting
	app := e.gameInstance.ApplicationConfig
	core.SetLogLevel(app.LogLevel)

	if err := core.InputInitialize(); err != nil {
		return err
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)

	e.currentStage = EngineStageInitializing
	if err := e.initialize(); err != nil {
		e.Shutdown()
		return err
	}
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) initialize() error {
	app := e.gameInstance.ApplicationConfig
	if err := e.window.Startup(app.Name, app.StartPosX, app.StartPosY, app.StartWidth, app.StartHeight); err != nil {
		return fmt.Errorf("func Initialize - window: %s: %w", err, core.ErrInitialization)
	}

	dev, err := e.newDevice()
	if err != nil {
		err = fmt.Errorf("func Initialize - device: %s: %w", err, core.ErrInitialization)
		core.LogError(err.Error())
		return err
	}
	e.device = dev

	rt, err := e.newRuntime(dev, e.settings)
	if err != nil {
		err = fmt.Errorf("func Initialize - runtime: %s: %w", err, core.ErrInitialization)
		core.LogError(err.Error())
		return err
	}
	e.runtime = rt

	e.systemManager = systems.NewSystemManager(rt, dev, systemManagerConfig(e.settings))
	if err := e.systemManager.Initialize(); err != nil {
		e.systemManager = nil
		return err
	}
	e.gameInstance.SystemManager = e.systemManager

	if app.ConfigPath != "" {
		w, err := config.Watch(app.ConfigPath)
		if err != nil {
			core.LogWarn("configuration changes will not be picked up: %s", err)
		} else {
			e.watcher = w
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	return nil
}

func systemManagerConfig(settings *config.Config) *systems.SystemManagerConfig {
	cfg := &systems.SystemManagerConfig{
		Planner: systems.EyePlannerConfig{
			PixelDensity: settings.HMD.PixelDensity,
			NearClip:     settings.HMD.NearClip,
			FarClip:      settings.HMD.FarClip,
		},
		TrackingOrigin: settings.TrackingOrigin(),
		DepthBuffers:   settings.HMD.DepthBuffers,
		SharedTexture:  settings.HMD.SharedTexture,
	}
	if settings.Mirror.Enabled {
		cfg.MirrorWidth = settings.Mirror.Width
		cfg.MirrorHeight = settings.Mirror.Height
	}
	return cfg
}

/**
 * @brief Runs the frame loop until the window closes, the runtime asks to
 * quit or the device is lost.
 *
 * Dropped frames are logged and the loop goes on.
 *
 * @return nil on a normal exit, or an error wrapping core.ErrDeviceLost.
 */
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("func Run - engine is not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()
	e.lastReport = e.lastTime

	for e.isRunning.Load() {
		if !e.window.PumpMessages() {
			e.isRunning.Store(false)
			break
		}
		e.applyConfigChanges()

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("game update failed, shutting down: %s", err)
				e.isRunning.Store(false)
				return err
			}
		}

		if err := e.frame(); err != nil {
			e.isRunning.Store(false)
			return err
		}

		e.clock.Update()
		e.metrics.Update(e.clock.Elapsed() - currentTime)
		if currentTime-e.lastReport >= 5 {
			e.report()
			e.lastReport = currentTime
		}

		core.InputUpdate(delta)
		e.lastTime = currentTime
	}
	return nil
}

// frame handles pending key requests, submits one frame and shows the mirror.
func (e *Engine) frame() error {
	sm := e.systemManager
	if e.recenterRequested {
		e.recenterRequested = false
		if err := sm.Poses.Recenter(); err != nil {
			core.LogWarn("recenter failed: %s", err)
		}
	}

	result, err := sm.Submitter.Tick(systems.DrawFunc(e.gameInstance.FnRender))
	switch result {
	case systems.TickSubmitted:
		e.metrics.Submitted++
	case systems.TickSkipped:
		e.metrics.Skipped++
	case systems.TickDropped:
		e.metrics.Dropped++
		if errors.Is(err, core.ErrDeviceLost) {
			core.LogError("HMD lost, stopping: %s", err)
			return err
		}
	case systems.TickQuit:
		core.LogInfo("runtime requested exit")
		e.isRunning.Store(false)
		return nil
	}

	if sm.Mirror != nil {
		w, h := e.window.FramebufferSize()
		sm.Mirror.Render(w, h)
		if e.snapshotRequested {
			e.snapshotRequested = false
			if path, err := e.saveSnapshot(); err != nil {
				core.LogWarn("mirror snapshot failed: %s", err)
			} else {
				core.LogInfo("mirror snapshot written to %s", path)
			}
		}
	}
	e.window.SwapBuffers()
	return nil
}

// applyConfigChanges picks up the newest configuration published by the
// watcher. Only settings that can change without new swap chains apply live.
func (e *Engine) applyConfigChanges() {
	if e.watcher == nil {
		return
	}
	cfg, ok := e.watcher.Poll()
	if !ok {
		return
	}
	old := e.settings
	e.settings = cfg

	core.SetLogLevel(core.ParseLogLevel(cfg.Log.Level))
	if cfg.HMD.NearClip != old.HMD.NearClip || cfg.HMD.FarClip != old.HMD.FarClip {
		if err := e.systemManager.Planner.SetClipPlanes(cfg.HMD.NearClip, cfg.HMD.FarClip); err != nil {
			core.LogWarn("keeping the previous clip planes: %s", err)
		}
	}
	if cfg.TrackingOrigin() != old.TrackingOrigin() {
		if err := e.systemManager.Poses.SetTrackingOrigin(cfg.TrackingOrigin()); err != nil {
			core.LogWarn("keeping the previous tracking origin: %s", err)
		}
	}
	if cfg.HMD.PixelDensity != old.HMD.PixelDensity || cfg.HMD.DepthBuffers != old.HMD.DepthBuffers ||
		cfg.HMD.SharedTexture != old.HMD.SharedTexture || cfg.Mirror != old.Mirror || cfg.Window != old.Window {
		core.LogWarn("buffer, mirror and window settings take effect on restart")
	}

	ctx := core.EventContext{}
	ctx.Data.C[0] = e.gameInstance.ApplicationConfig.ConfigPath
	core.EventFire(core.EVENT_CODE_CONFIG_RELOADED, e, ctx)
	core.LogInfo("configuration reloaded")
}

func (e *Engine) saveSnapshot() (string, error) {
	w, h := e.systemManager.Mirror.Size()
	img, err := e.systemManager.Mirror.Snapshot(int(w), int(h))
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.snapshotDir, fmt.Sprintf("mirror-%s.png", time.Now().Format("20060102-150405.000")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", err
	}
	return path, f.Close()
}

func (e *Engine) report() {
	fps, frameTime := e.metrics.Frame()
	core.LogInfo("%.1f fps (%.2f ms), frame %d, submitted %d, skipped %d, dropped %d",
		fps, frameTime, e.systemManager.Submitter.FrameIndex(),
		e.metrics.Submitted, e.metrics.Skipped, e.metrics.Dropped)
}

// Shutdown releases everything Initialize created, in reverse order. Safe
// to call more than once.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	if e.gameInstance.FnShutdown != nil && e.gameInstance.SystemManager != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogWarn("game shutdown: %s", err)
		}
	}
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			core.LogWarn("config watcher: %s", err)
		}
		e.watcher = nil
	}
	if e.systemManager != nil {
		e.systemManager.Shutdown()
		e.systemManager = nil
		e.gameInstance.SystemManager = nil
	}
	e.runtime = nil
	e.device = nil
	if err := e.window.Shutdown(); err != nil {
		core.LogWarn("window shutdown: %s", err)
	}

	core.EventUnregister(core.EVENT_CODE_APPLICATION_QUIT, e)
	core.EventUnregister(core.EVENT_CODE_KEY_PRESSED, e)
	core.InputShutdown()
	e.currentStage = EngineStageUninitialized
	return nil
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

// onKey maps Q/Escape to quit, R to recenter, V to toggle HMD visibility
// and P to a mirror snapshot.
func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch core.KeyCode(data.Data.U16[0]) {
	case core.KEY_Q, core.KEY_ESCAPE:
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		return true
	case core.KEY_R:
		e.recenterRequested = true
		return true
	case core.KEY_V:
		if t, ok := e.runtime.(visibilityToggler); ok {
			t.SetVisible(!t.Visible())
			core.LogInfo("HMD visible: %t", t.Visible())
		}
		return true
	case core.KEY_P:
		e.snapshotRequested = true
		return true
	}
	return false
}
