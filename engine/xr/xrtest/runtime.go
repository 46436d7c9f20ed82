// Package xrtest provides a scriptable, recording xr.Runtime for tests.
package xrtest

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/renderer"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

type SwapChain struct {
	Desc      xr.SwapChainDesc
	Textures  []uint32
	Current   int
	Commits   int
	Committed []int
	Destroyed bool
}

type Mirror struct {
	Desc      xr.MirrorTextureDesc
	Texture   uint32
	Destroyed bool
}

// Runtime is a deterministic xr.Runtime. Exported fields script its answers;
// Calls records every call in order.
type Runtime struct {
	Device renderer.Device

	Display         xr.DisplayDescriptor
	FovTextureSizes [xr.EyeCount]xr.Sizei
	HmdToEye        [xr.EyeCount]xr.Pose
	HeadPose        xr.Pose
	SampleTime      float64
	Now             float64
	Status          xr.SessionStatus
	SwapChainLength int

	FailInitialize      xr.Result
	FailCreateSession   xr.Result
	FailCreateSwapChain xr.Result
	FailCreateMirror    xr.Result
	FailStatus          xr.Result
	FailEyePoses        xr.Result
	FailWait            xr.Result
	FailBegin           xr.Result
	FailEnd             xr.Result

	Calls           []string
	SwapChains      map[xr.SwapChain]*SwapChain
	Mirrors         map[xr.MirrorTexture]*Mirror
	Submitted       [][]xr.Layer
	SubmittedFrames []int64
	Origin          xr.Pose
	OriginType      xr.TrackingOrigin
	Recenters       int

	Initialized    bool
	Session        xr.Session
	SessionsOpened int

	nextHandle uint64
}

// New returns a runtime describing a visible headset whose eyes each
// recommend 960×1080 and sit 32 mm either side of the head.
func New(dev renderer.Device) *Runtime {
	fov := xr.FovPort{UpTan: 1.3, DownTan: 1.3, LeftTan: 1.1, RightTan: 1.0}
	mirrored := xr.FovPort{UpTan: 1.3, DownTan: 1.3, LeftTan: 1.0, RightTan: 1.1}
	return &Runtime{
		Device: dev,
		Display: xr.DisplayDescriptor{
			ProductName:   "Test HMD",
			Manufacturer:  "xrtest",
			FirmwareMajor: 1,
			Resolution:    xr.Sizei{W: 2160, H: 1200},
			RefreshRate:   90,
			DefaultEyeFov: [xr.EyeCount]xr.FovPort{fov, mirrored},
			MaxEyeFov:     [xr.EyeCount]xr.FovPort{fov, mirrored},
		},
		FovTextureSizes: [xr.EyeCount]xr.Sizei{{W: 960, H: 1080}, {W: 960, H: 1080}},
		HmdToEye: [xr.EyeCount]xr.Pose{
			{Orientation: math.NewQuatIdentity(), Position: math.NewVec3(-0.032, 0, 0)},
			{Orientation: math.NewQuatIdentity(), Position: math.NewVec3(0.032, 0, 0)},
		},
		HeadPose:        xr.NewPoseIdentity(),
		Origin:          xr.NewPoseIdentity(),
		Status:          xr.SessionStatus{IsVisible: true, HmdPresent: true, HmdMounted: true},
		SwapChainLength: 3,
		SwapChains:      make(map[xr.SwapChain]*SwapChain),
		Mirrors:         make(map[xr.MirrorTexture]*Mirror),
	}
}

func (r *Runtime) record(format string, args ...interface{}) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

// CallNames returns recorded calls without their arguments.
func (r *Runtime) CallNames() []string {
	names := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		if idx := strings.IndexByte(c, '('); idx >= 0 {
			c = c[:idx]
		}
		names[i] = c
	}
	return names
}

// Count returns how many recorded calls have the given name.
func (r *Runtime) Count(name string) int {
	n := 0
	for _, c := range r.CallNames() {
		if c == name {
			n++
		}
	}
	return n
}

// ResetCalls forgets the call log.
func (r *Runtime) ResetCalls() {
	r.Calls = nil
}

func (r *Runtime) handle() uint64 {
	r.nextHandle++
	return r.nextHandle
}

func (r *Runtime) checkSession(call string, session xr.Session) error {
	if session == 0 || session != r.Session {
		return xr.NewError(call, xr.ErrorInvalidSession)
	}
	return nil
}

func (r *Runtime) Initialize() error {
	r.record("Initialize()")
	if err := xr.NewError("Initialize", r.FailInitialize); err != nil {
		return err
	}
	r.Initialized = true
	return nil
}

func (r *Runtime) Shutdown() {
	r.record("Shutdown()")
	r.Initialized = false
}

func (r *Runtime) CreateSession() (xr.Session, error) {
	r.record("CreateSession()")
	if !r.Initialized {
		return 0, xr.NewError("CreateSession", xr.ErrorNotInitialized)
	}
	if err := xr.NewError("CreateSession", r.FailCreateSession); err != nil {
		return 0, err
	}
	r.Session = xr.Session(r.handle())
	r.SessionsOpened++
	return r.Session, nil
}

func (r *Runtime) DestroySession(session xr.Session) {
	r.record("DestroySession(%d)", session)
	if session == r.Session {
		r.Session = 0
	}
}

func (r *Runtime) CreateTextureSwapChainGL(session xr.Session, desc xr.SwapChainDesc) (xr.SwapChain, error) {
	r.record("CreateTextureSwapChainGL(%s)", desc.Format)
	if err := r.checkSession("CreateTextureSwapChainGL", session); err != nil {
		return 0, err
	}
	if err := xr.NewError("CreateTextureSwapChainGL", r.FailCreateSwapChain); err != nil {
		return 0, err
	}
	if desc.SampleCount > 1 {
		return 0, xr.NewError("CreateTextureSwapChainGL", xr.ErrorInvalidParameter)
	}
	id := xr.SwapChain(r.handle())
	sc := &SwapChain{Desc: desc}
	for i := 0; i < r.SwapChainLength; i++ {
		sc.Textures = append(sc.Textures, r.texture(desc.Format, desc.Width, desc.Height, uint32(id)*100+uint32(i)))
	}
	r.SwapChains[id] = sc
	return id, nil
}

func (r *Runtime) texture(format xr.TextureFormat, w, h int32, synthetic uint32) uint32 {
	if r.Device == nil {
		return synthetic
	}
	pf := metadata.PixelFormatSRGBA8
	if format == xr.FormatD32Float {
		pf = metadata.PixelFormatDepth32F
	}
	tex, err := r.Device.CreateTexture2D(pf, w, h)
	if err != nil {
		return synthetic
	}
	return tex
}

func (r *Runtime) chain(call string, session xr.Session, id xr.SwapChain) (*SwapChain, error) {
	if err := r.checkSession(call, session); err != nil {
		return nil, err
	}
	sc, ok := r.SwapChains[id]
	if !ok || sc.Destroyed {
		return nil, xr.NewError(call, xr.ErrorTextureSwapChainInvalid)
	}
	return sc, nil
}

func (r *Runtime) DestroyTextureSwapChain(session xr.Session, chain xr.SwapChain) {
	r.record("DestroyTextureSwapChain(%d)", chain)
	if sc, ok := r.SwapChains[chain]; ok && !sc.Destroyed {
		sc.Destroyed = true
		if r.Device != nil {
			for _, t := range sc.Textures {
				r.Device.DeleteTexture(t)
			}
		}
	}
}

func (r *Runtime) GetTextureSwapChainLength(session xr.Session, chain xr.SwapChain) (int, error) {
	r.record("GetTextureSwapChainLength(%d)", chain)
	sc, err := r.chain("GetTextureSwapChainLength", session, chain)
	if err != nil {
		return 0, err
	}
	return len(sc.Textures), nil
}

func (r *Runtime) GetTextureSwapChainCurrentIndex(session xr.Session, chain xr.SwapChain) (int, error) {
	r.record("GetTextureSwapChainCurrentIndex(%d)", chain)
	sc, err := r.chain("GetTextureSwapChainCurrentIndex", session, chain)
	if err != nil {
		return 0, err
	}
	return sc.Current, nil
}

func (r *Runtime) GetTextureSwapChainBufferGL(session xr.Session, chain xr.SwapChain, index int) (uint32, error) {
	r.record("GetTextureSwapChainBufferGL(%d,%d)", chain, index)
	sc, err := r.chain("GetTextureSwapChainBufferGL", session, chain)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(sc.Textures) {
		return 0, xr.NewError("GetTextureSwapChainBufferGL", xr.ErrorInvalidParameter)
	}
	return sc.Textures[index], nil
}

func (r *Runtime) CommitTextureSwapChain(session xr.Session, chain xr.SwapChain) error {
	r.record("CommitTextureSwapChain(%d)", chain)
	sc, err := r.chain("CommitTextureSwapChain", session, chain)
	if err != nil {
		return err
	}
	sc.Committed = append(sc.Committed, sc.Current)
	sc.Commits++
	sc.Current = (sc.Current + 1) % len(sc.Textures)
	return nil
}

func (r *Runtime) CreateMirrorTextureGL(session xr.Session, desc xr.MirrorTextureDesc) (xr.MirrorTexture, error) {
	r.record("CreateMirrorTextureGL(%dx%d)", desc.Width, desc.Height)
	if err := r.checkSession("CreateMirrorTextureGL", session); err != nil {
		return 0, err
	}
	if err := xr.NewError("CreateMirrorTextureGL", r.FailCreateMirror); err != nil {
		return 0, err
	}
	id := xr.MirrorTexture(r.handle())
	r.Mirrors[id] = &Mirror{Desc: desc, Texture: r.texture(desc.Format, desc.Width, desc.Height, uint32(id)*100)}
	return id, nil
}

func (r *Runtime) GetMirrorTextureBufferGL(session xr.Session, mirror xr.MirrorTexture) (uint32, error) {
	r.record("GetMirrorTextureBufferGL(%d)", mirror)
	if err := r.checkSession("GetMirrorTextureBufferGL", session); err != nil {
		return 0, err
	}
	m, ok := r.Mirrors[mirror]
	if !ok || m.Destroyed {
		return 0, xr.NewError("GetMirrorTextureBufferGL", xr.ErrorInvalidParameter)
	}
	return m.Texture, nil
}

func (r *Runtime) DestroyMirrorTexture(session xr.Session, mirror xr.MirrorTexture) {
	r.record("DestroyMirrorTexture(%d)", mirror)
	if m, ok := r.Mirrors[mirror]; ok && !m.Destroyed {
		m.Destroyed = true
		if r.Device != nil {
			r.Device.DeleteTexture(m.Texture)
		}
	}
}

func (r *Runtime) GetDisplayDescriptor(session xr.Session) xr.DisplayDescriptor {
	r.record("GetDisplayDescriptor()")
	return r.Display
}

func (r *Runtime) GetFovTextureSize(session xr.Session, eye xr.Eye, fov xr.FovPort, pixelsPerDisplayPixel float32) xr.Sizei {
	r.record("GetFovTextureSize(%s)", eye)
	size := r.FovTextureSizes[eye]
	return xr.Sizei{
		W: int32(float32(size.W) * pixelsPerDisplayPixel),
		H: int32(float32(size.H) * pixelsPerDisplayPixel),
	}
}

func (r *Runtime) GetRenderDescriptor(session xr.Session, eye xr.Eye, fov xr.FovPort) xr.RenderDescriptor {
	r.record("GetRenderDescriptor(%s)", eye)
	return xr.RenderDescriptor{
		Eye:          eye,
		Fov:          fov,
		HmdToEyePose: r.HmdToEye[eye],
	}
}

// RelativeHeadPose is the scripted head pose expressed against the current origin.
func (r *Runtime) RelativeHeadPose() xr.Pose {
	return r.Origin.Inverse().Compose(r.HeadPose)
}

func (r *Runtime) GetEyePoses(session xr.Session, frameIndex int64, latencyMarker bool, hmdToEye [xr.EyeCount]xr.Pose) ([xr.EyeCount]xr.Pose, float64, error) {
	r.record("GetEyePoses(%d)", frameIndex)
	var poses [xr.EyeCount]xr.Pose
	if err := r.checkSession("GetEyePoses", session); err != nil {
		return poses, 0, err
	}
	if err := xr.NewError("GetEyePoses", r.FailEyePoses); err != nil {
		return poses, 0, err
	}
	head := r.RelativeHeadPose()
	for _, eye := range xr.Eyes {
		poses[eye] = head.Compose(hmdToEye[eye])
	}
	return poses, r.SampleTime, nil
}

func (r *Runtime) GetTrackingState(session xr.Session, absTime float64, latencyMarker bool) xr.TrackingState {
	r.record("GetTrackingState()")
	return xr.TrackingState{
		HeadPose:    xr.PoseState{ThePose: r.RelativeHeadPose(), TimeInSeconds: absTime},
		StatusFlags: xr.StatusOrientationTracked | xr.StatusPositionTracked,
	}
}

func (r *Runtime) GetTimeInSeconds() float64 {
	return r.Now
}

func (r *Runtime) SetTrackingOriginType(session xr.Session, origin xr.TrackingOrigin) error {
	r.record("SetTrackingOriginType(%s)", origin)
	if err := r.checkSession("SetTrackingOriginType", session); err != nil {
		return err
	}
	r.OriginType = origin
	return nil
}

func (r *Runtime) RecenterTrackingOrigin(session xr.Session) error {
	r.record("RecenterTrackingOrigin()")
	if err := r.checkSession("RecenterTrackingOrigin", session); err != nil {
		return err
	}
	r.Origin = r.HeadPose
	r.Recenters++
	r.Status.ShouldRecenter = false
	return nil
}

func (r *Runtime) GetSessionStatus(session xr.Session) (xr.SessionStatus, error) {
	r.record("GetSessionStatus()")
	if err := r.checkSession("GetSessionStatus", session); err != nil {
		return xr.SessionStatus{}, err
	}
	if err := xr.NewError("GetSessionStatus", r.FailStatus); err != nil {
		return xr.SessionStatus{}, err
	}
	return r.Status, nil
}

func (r *Runtime) WaitToBeginFrame(session xr.Session, frameIndex int64) error {
	r.record("WaitToBeginFrame(%d)", frameIndex)
	if err := r.checkSession("WaitToBeginFrame", session); err != nil {
		return err
	}
	return xr.NewError("WaitToBeginFrame", r.FailWait)
}

func (r *Runtime) BeginFrame(session xr.Session, frameIndex int64) error {
	r.record("BeginFrame(%d)", frameIndex)
	if err := r.checkSession("BeginFrame", session); err != nil {
		return err
	}
	return xr.NewError("BeginFrame", r.FailBegin)
}

func (r *Runtime) EndFrame(session xr.Session, frameIndex int64, layers []xr.Layer) error {
	r.record("EndFrame(%d)", frameIndex)
	if err := r.checkSession("EndFrame", session); err != nil {
		return err
	}
	if err := xr.NewError("EndFrame", r.FailEnd); err != nil {
		return err
	}
	r.Submitted = append(r.Submitted, layers)
	r.SubmittedFrames = append(r.SubmittedFrames, frameIndex)
	return nil
}
