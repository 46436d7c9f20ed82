package systems

import (
	"fmt"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

type SubmitState int

const (
	SubmitStateIdle SubmitState = iota
	SubmitStateWaitingToBegin
	SubmitStateRendering
	SubmitStateSubmitted
)

func (s SubmitState) String() string {
	switch s {
	case SubmitStateIdle:
		return "idle"
	case SubmitStateWaitingToBegin:
		return "waiting-to-begin"
	case SubmitStateRendering:
		return "rendering"
	case SubmitStateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("SubmitState(%d)", int(s))
}

// TickResult tells the caller what happened to the frame of one tick.
type TickResult int

const (
	// The frame reached the compositor and the frame index advanced.
	TickSubmitted TickResult = iota
	// The application is not visible; poses were sampled but nothing was rendered.
	TickSkipped
	// A runtime call failed and the frame was abandoned. The index is unchanged.
	TickDropped
	// The runtime asked the application to exit.
	TickQuit
)

func (r TickResult) String() string {
	switch r {
	case TickSubmitted:
		return "submitted"
	case TickSkipped:
		return "skipped"
	case TickDropped:
		return "dropped"
	case TickQuit:
		return "quit"
	}
	return fmt.Sprintf("TickResult(%d)", int(r))
}

// DrawFunc renders the scene for one eye. The eye's image is bound and
// cleared, and its viewport set, before it is called.
type DrawFunc func(eye xr.Eye, view EyeView)

/**
 * @brief Drives one frame per tick through the compositor protocol:
 * status, pose sampling, wait, begin, per-eye rendering, commit and end.
 *
 * The frame index starts at zero and only advances when EndFrame succeeds.
 * Failed frames are dropped without retries.
 */
type FrameSubmitter struct {
	rt      xr.FrameRuntime
	session xr.Session
	planner *EyePlanner
	poses   *PoseSampler
	buffers [xr.EyeCount]*EyeBuffer

	state       SubmitState
	frameIndex  int64
	extraLayers []xr.Layer

	lastStatus xr.SessionStatus
	lastFrame  EyeFrame
}

// NewFrameSubmitter wires the submitter to its collaborators. For a shared
// texture pass the same buffer for both eyes.
func NewFrameSubmitter(rt xr.FrameRuntime, session xr.Session, planner *EyePlanner, poses *PoseSampler, buffers [xr.EyeCount]*EyeBuffer) (*FrameSubmitter, error) {
	if planner == nil || poses == nil {
		err := fmt.Errorf("func NewFrameSubmitter - planner and pose sampler are required")
		core.LogError(err.Error())
		return nil, err
	}
	for _, eye := range xr.Eyes {
		if buffers[eye].Destroyed() {
			err := fmt.Errorf("func NewFrameSubmitter - no usable buffer for the %s eye: %w", eye, core.ErrSwapChainDestroyed)
			core.LogError(err.Error())
			return nil, err
		}
	}
	return &FrameSubmitter{
		rt:      rt,
		session: session,
		planner: planner,
		poses:   poses,
		buffers: buffers,
	}, nil
}

func (fs *FrameSubmitter) State() SubmitState {
	return fs.state
}

func (fs *FrameSubmitter) FrameIndex() int64 {
	return fs.frameIndex
}

// LastStatus is the session status read by the most recent tick.
func (fs *FrameSubmitter) LastStatus() xr.SessionStatus {
	return fs.lastStatus
}

// LastFrame is the eye frame computed by the most recent tick.
func (fs *FrameSubmitter) LastFrame() EyeFrame {
	return fs.lastFrame
}

// AddLayer submits layer on top of the eye layer every frame.
func (fs *FrameSubmitter) AddLayer(layer xr.Layer) {
	if layer != nil {
		fs.extraLayers = append(fs.extraLayers, layer)
	}
}

// frameError classifies a runtime failure: a lost session is fatal, anything
// else only drops the frame.
func frameError(call string, frameIndex int64, err error) error {
	if xr.ResultOf(err).IsSessionLost() {
		return fmt.Errorf("%s (frame %d): %w: %w", call, frameIndex, core.ErrDeviceLost, err)
	}
	return fmt.Errorf("%s (frame %d): %w: %w", call, frameIndex, core.ErrFrameProtocol, err)
}

func (fs *FrameSubmitter) drop(call string, err error) (TickResult, error) {
	fs.state = SubmitStateIdle
	err = frameError(call, fs.frameIndex, err)
	core.LogError(err.Error())
	return TickDropped, err
}

/**
 * @brief Runs one frame.
 *
 * @param draw Renders one eye; may be nil to submit cleared images.
 * @return What happened to the frame, plus an error wrapping
 * core.ErrFrameProtocol or core.ErrDeviceLost when it was dropped.
 */
func (fs *FrameSubmitter) Tick(draw DrawFunc) (TickResult, error) {
	fs.state = SubmitStateIdle

	status, err := fs.rt.GetSessionStatus(fs.session)
	if err != nil {
		return fs.drop("GetSessionStatus", err)
	}
	fs.lastStatus = status
	if status.ShouldQuit {
		return TickQuit, nil
	}
	if status.DisplayLost {
		return fs.drop("GetSessionStatus", xr.NewError("GetSessionStatus", xr.ErrorDisplayLost))
	}
	if status.ShouldRecenter {
		if err := fs.poses.Recenter(); err != nil {
			core.LogWarn("recenter requested by the runtime failed: %s", err)
		}
	}

	// Eye offsets can change at runtime, so the descriptors are fetched every frame.
	descs := fs.planner.EyeDescriptors()
	sample, err := fs.poses.SampleEyePoses(fs.frameIndex, HmdToEyePoses(descs))
	if err != nil {
		return fs.drop("GetEyePoses", err)
	}
	fs.lastFrame = fs.planner.ComputeEyeTransforms(descs, sample.Poses, sample.SampleTime, fs.frameIndex)
	fs.poses.Report(fs.frameIndex)

	if !status.IsVisible {
		return TickSkipped, nil
	}

	fs.state = SubmitStateWaitingToBegin
	if err := fs.rt.WaitToBeginFrame(fs.session, fs.frameIndex); err != nil {
		return fs.drop("WaitToBeginFrame", err)
	}
	if err := fs.rt.BeginFrame(fs.session, fs.frameIndex); err != nil {
		return fs.drop("BeginFrame", err)
	}

	fs.state = SubmitStateRendering
	for _, eye := range xr.Eyes {
		if err := fs.renderEye(eye, draw); err != nil {
			return fs.drop("render "+eye.String()+" eye", err)
		}
	}

	layers := append([]xr.Layer{fs.eyeLayer()}, fs.extraLayers...)
	if err := fs.rt.EndFrame(fs.session, fs.frameIndex, layers); err != nil {
		return fs.drop("EndFrame", err)
	}
	fs.state = SubmitStateSubmitted
	fs.frameIndex++
	fs.state = SubmitStateIdle
	return TickSubmitted, nil
}

// renderEye binds, draws, unbinds and commits one eye. A buffer shared by
// both eyes is bound before the left eye and committed after the right one.
func (fs *FrameSubmitter) renderEye(eye xr.Eye, draw DrawFunc) error {
	buf := fs.buffers[eye]
	first := eye == xr.EyeLeft || buf != fs.buffers[xr.EyeLeft]
	last := eye == xr.EyeRight || buf != fs.buffers[xr.EyeRight]

	if first {
		if err := buf.BindAndClear(); err != nil {
			return err
		}
	}
	if buf.Shared() {
		buf.SetViewport(eye)
	}
	if draw != nil {
		draw(eye, fs.lastFrame.Views[eye])
	}
	if last {
		buf.Unbind()
		if err := buf.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// eyeLayer describes this frame's eye images. Images are rendered with GL
// conventions, so the origin is the bottom-left corner.
func (fs *FrameSubmitter) eyeLayer() xr.Layer {
	frame := fs.lastFrame
	if fs.buffers[xr.EyeLeft].HasDepth() && fs.buffers[xr.EyeRight].HasDepth() {
		ld := &xr.LayerEyeFovDepth{
			Header: xr.LayerHeader{
				Type:  xr.LayerTypeEyeFovDepth,
				Flags: xr.LayerFlagTextureOriginAtBottomLeft,
			},
			SensorSampleTime: frame.SensorSampleTime,
			ProjectionDesc:   frame.ProjectionDesc,
		}
		for _, eye := range xr.Eyes {
			ld.ColorTexture[eye] = fs.buffers[eye].ColourChain()
			ld.DepthTexture[eye] = fs.buffers[eye].DepthChain()
			ld.Viewport[eye] = fs.buffers[eye].Viewport(eye)
			ld.Fov[eye] = frame.Fov[eye]
			ld.RenderPose[eye] = frame.RenderPoses[eye]
		}
		return ld
	}
	ld := &xr.LayerEyeFov{
		Header: xr.LayerHeader{
			Type:  xr.LayerTypeEyeFov,
			Flags: xr.LayerFlagTextureOriginAtBottomLeft,
		},
		SensorSampleTime: frame.SensorSampleTime,
	}
	for _, eye := range xr.Eyes {
		ld.ColorTexture[eye] = fs.buffers[eye].ColourChain()
		ld.Viewport[eye] = fs.buffers[eye].Viewport(eye)
		ld.Fov[eye] = frame.Fov[eye]
		ld.RenderPose[eye] = frame.RenderPoses[eye]
	}
	return ld
}
