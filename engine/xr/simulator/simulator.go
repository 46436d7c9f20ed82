// Package simulator is an in-process HMD runtime and compositor. It stands in
// for a headset: it paces frames to a refresh rate, produces a slowly turning
// head pose, owns swap chains backed by device textures and composites
// submitted eye images into a mirror texture.
package simulator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/renderer"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

// Standing eye height used by the floor-level origin, in meters.
const DefaultEyeHeight float32 = 1.675

type Config struct {
	// Display refresh rate in Hz.
	RefreshRate float32
	// Head yaw speed in radians per second. Zero keeps the head still.
	YawSpeed float32
	// Interpupillary distance in meters.
	IPD float32
	// Full panel resolution; each eye gets half the width.
	Resolution xr.Sizei
	DefaultFov xr.FovPort
	// Number of images in each swap chain.
	SwapChainLength int
}

func DefaultConfig() Config {
	return Config{
		RefreshRate:     90,
		YawSpeed:        0.25,
		IPD:             0.064,
		Resolution:      xr.Sizei{W: 2160, H: 1200},
		DefaultFov:      xr.FovPort{UpTan: 1.33, DownTan: 1.33, LeftTan: 1.06, RightTan: 1.09},
		SwapChainLength: 3,
	}
}

type Option func(*Runtime)

// WithClock replaces the wall clock and the sleep used to pace frames.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(r *Runtime) {
		r.now = now
		r.sleep = sleep
	}
}

type Runtime struct {
	cfg Config
	dev renderer.Device

	now   func() time.Time
	sleep func(time.Duration)
	start time.Time

	mu          sync.Mutex
	initialized bool
	session     xr.Session
	sessionID   uuid.UUID
	visible     bool
	displayLost bool
	quit        bool
	recenter    bool

	origin     xr.Pose
	originType xr.TrackingOrigin

	nextHandle uint64
	swapChains map[xr.SwapChain]*swapChain
	mirrors    map[xr.MirrorTexture]*mirrorTexture

	frames     frameState
	compositor *compositor
}

func New(dev renderer.Device, cfg Config, opts ...Option) *Runtime {
	if cfg.RefreshRate <= 0 {
		cfg.RefreshRate = DefaultConfig().RefreshRate
	}
	if cfg.SwapChainLength <= 0 {
		cfg.SwapChainLength = DefaultConfig().SwapChainLength
	}
	r := &Runtime{
		cfg:        cfg,
		dev:        dev,
		now:        time.Now,
		sleep:      time.Sleep,
		visible:    true,
		origin:     xr.Pose{Orientation: math.NewQuatIdentity(), Position: math.NewVec3(0, DefaultEyeHeight, 0)},
		swapChains: make(map[xr.SwapChain]*swapChain),
		mirrors:    make(map[xr.MirrorTexture]*mirrorTexture),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.compositor = newCompositor(dev)
	return r
}

func (r *Runtime) Initialize() error {
	if r.initialized {
		return nil
	}
	if r.dev == nil {
		return xr.NewError("Initialize", xr.ErrorNoHmd)
	}
	r.start = r.now()
	r.initialized = true
	core.LogInfo("simulated HMD runtime initialized (%.0f Hz, %dx%d)", r.cfg.RefreshRate, r.cfg.Resolution.W, r.cfg.Resolution.H)
	return nil
}

func (r *Runtime) Shutdown() {
	if !r.initialized {
		return
	}
	if r.session != 0 {
		core.LogWarn("runtime shut down with session %s still open", r.sessionID)
		r.DestroySession(r.session)
	}
	r.compositor.destroy()
	r.initialized = false
	core.LogInfo("simulated HMD runtime shut down")
}

func (r *Runtime) CreateSession() (xr.Session, error) {
	if !r.initialized {
		return 0, xr.NewError("CreateSession", xr.ErrorNotInitialized)
	}
	if r.session != 0 {
		return 0, xr.NewError("CreateSession", xr.ErrorServiceError)
	}
	r.session = xr.Session(r.handle())
	r.sessionID = uuid.New()
	r.frames = frameState{}
	r.mu.Lock()
	r.displayLost = false
	r.mu.Unlock()
	core.LogInfo("session %s created", r.sessionID)
	return r.session, nil
}

func (r *Runtime) DestroySession(session xr.Session) {
	if session == 0 || session != r.session {
		return
	}
	for id := range r.swapChains {
		r.DestroyTextureSwapChain(session, id)
	}
	for id := range r.mirrors {
		r.DestroyMirrorTexture(session, id)
	}
	core.LogInfo("session %s destroyed", r.sessionID)
	r.session = 0
	r.sessionID = uuid.Nil
}

func (r *Runtime) handle() uint64 {
	r.nextHandle++
	return r.nextHandle
}

func (r *Runtime) checkSession(call string, session xr.Session) error {
	if !r.initialized {
		return xr.NewError(call, xr.ErrorNotInitialized)
	}
	if session == 0 || session != r.session {
		return xr.NewError(call, xr.ErrorInvalidSession)
	}
	return nil
}

// RequestQuit makes the next session status ask the application to exit.
func (r *Runtime) RequestQuit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quit = true
}

// RequestRecenter makes the next session status ask for a recenter.
func (r *Runtime) RequestRecenter() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recenter = true
}

// SetVisible simulates the headset being put on or taken off.
func (r *Runtime) SetVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible = visible
}

func (r *Runtime) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// LoseDisplay simulates the headset being unplugged. Frame calls fail with
// ErrorDisplayLost until a new session is created.
func (r *Runtime) LoseDisplay() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.displayLost = true
}

func (r *Runtime) GetSessionStatus(session xr.Session) (xr.SessionStatus, error) {
	if err := r.checkSession("GetSessionStatus", session); err != nil {
		return xr.SessionStatus{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return xr.SessionStatus{
		IsVisible:      r.visible && !r.displayLost,
		HmdPresent:     !r.displayLost,
		HmdMounted:     r.visible,
		DisplayLost:    r.displayLost,
		ShouldQuit:     r.quit,
		ShouldRecenter: r.recenter,
	}, nil
}

func (r *Runtime) lost() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.displayLost
}

func (r *Runtime) GetTimeInSeconds() float64 {
	if r.start.IsZero() {
		return 0
	}
	return r.now().Sub(r.start).Seconds()
}

func (r *Runtime) period() time.Duration {
	return time.Duration(float64(time.Second) / float64(r.cfg.RefreshRate))
}

var _ xr.Runtime = (*Runtime)(nil)

// fovOrDefault substitutes def for a zero FOV.
func fovOrDefault(fov, def xr.FovPort) xr.FovPort {
	if fov == (xr.FovPort{}) {
		return def
	}
	return fov
}

func eyeOffset(eye xr.Eye, ipd float32) math.Vec3 {
	half := ipd * 0.5
	if eye == xr.EyeLeft {
		return math.NewVec3(-half, 0, 0)
	}
	return math.NewVec3(half, 0, 0)
}
