package systems

import (
	"fmt"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

const (
	DefaultNearClip     float32 = 0.2
	DefaultFarClip      float32 = 1000.0
	DefaultPixelDensity float32 = 1.0
)

/** @brief The eye planner configuration. */
type EyePlannerConfig struct {
	/** @brief Render target pixels per display pixel at the centre of the view. */
	PixelDensity float32
	NearClip     float32
	FarClip      float32
}

// EyeDescriptor is the per-eye render description for one tick.
type EyeDescriptor struct {
	Eye             xr.Eye
	Fov             xr.FovPort
	RecommendedSize xr.Sizei
	HmdToEyePose    xr.Pose
}

// EyeView holds the camera of one eye for one frame.
type EyeView struct {
	Eye            xr.Eye
	Position       math.Vec3
	Orientation    math.Quaternion
	View           math.Mat4
	Projection     math.Mat4
	ViewProjection math.Mat4
}

// EyeFrame is everything the submitter needs to render and describe one frame.
type EyeFrame struct {
	FrameIndex       int64
	SensorSampleTime float64
	Views            [xr.EyeCount]EyeView
	RenderPoses      [xr.EyeCount]xr.Pose
	Fov              [xr.EyeCount]xr.FovPort
	ProjectionDesc   xr.TimewarpProjectionDesc
}

/**
 * @brief Turns display geometry and tracked eye poses into per-eye render
 * target sizes and view/projection matrices.
 */
type EyePlanner struct {
	rt      xr.TrackingRuntime
	session xr.Session
	display xr.DisplayDescriptor

	config EyePlannerConfig
	// Origin places the tracking space in the scene. Nil means identity.
	Origin *math.Transform
}

func NewEyePlanner(rt xr.TrackingRuntime, session xr.Session, config EyePlannerConfig) (*EyePlanner, error) {
	if config.PixelDensity <= 0 {
		config.PixelDensity = DefaultPixelDensity
	}
	if config.NearClip == 0 && config.FarClip == 0 {
		config.NearClip, config.FarClip = DefaultNearClip, DefaultFarClip
	}
	p := &EyePlanner{
		rt:      rt,
		session: session,
		Origin:  math.TransformCreate(),
	}
	if err := p.SetClipPlanes(config.NearClip, config.FarClip); err != nil {
		return nil, err
	}
	p.config.PixelDensity = config.PixelDensity
	p.display = rt.GetDisplayDescriptor(session)
	core.LogInfo("HMD: %s (%s), firmware %d.%d, %dx%d @ %.0f Hz",
		p.display.ProductName, p.display.Manufacturer,
		p.display.FirmwareMajor, p.display.FirmwareMinor,
		p.display.Resolution.W, p.display.Resolution.H, p.display.RefreshRate)
	return p, nil
}

func (p *EyePlanner) Display() xr.DisplayDescriptor {
	return p.display
}

func (p *EyePlanner) ClipPlanes() (near, far float32) {
	return p.config.NearClip, p.config.FarClip
}

// SetClipPlanes changes the projection depth range used from the next frame on.
func (p *EyePlanner) SetClipPlanes(near, far float32) error {
	if near <= 0 || far <= near {
		err := fmt.Errorf("func SetClipPlanes - invalid clip planes near=%g far=%g", near, far)
		core.LogError(err.Error())
		return err
	}
	p.config.NearClip = near
	p.config.FarClip = far
	return nil
}

// RecommendedBufferSizes returns the render target size of each eye for the
// default FOV at the configured pixel density.
func (p *EyePlanner) RecommendedBufferSizes() [xr.EyeCount]xr.Sizei {
	var sizes [xr.EyeCount]xr.Sizei
	for _, eye := range xr.Eyes {
		sizes[eye] = p.rt.GetFovTextureSize(p.session, eye, p.display.DefaultEyeFov[eye], p.config.PixelDensity)
	}
	return sizes
}

// CombinedBufferSize is the size of one texture holding both eyes side by side.
func CombinedBufferSize(sizes [xr.EyeCount]xr.Sizei) xr.Sizei {
	return xr.Sizei{
		W: sizes[xr.EyeLeft].W + sizes[xr.EyeRight].W,
		H: math.Max(sizes[xr.EyeLeft].H, sizes[xr.EyeRight].H),
	}
}

// EyeDescriptors fetches the render description of both eyes. It must be
// called every frame: the eye offsets can change at runtime.
func (p *EyePlanner) EyeDescriptors() [xr.EyeCount]EyeDescriptor {
	var descs [xr.EyeCount]EyeDescriptor
	for _, eye := range xr.Eyes {
		fov := p.display.DefaultEyeFov[eye]
		rd := p.rt.GetRenderDescriptor(p.session, eye, fov)
		descs[eye] = EyeDescriptor{
			Eye:             eye,
			Fov:             rd.Fov,
			RecommendedSize: p.rt.GetFovTextureSize(p.session, eye, fov, p.config.PixelDensity),
			HmdToEyePose:    rd.HmdToEyePose,
		}
	}
	return descs
}

func HmdToEyePoses(descs [xr.EyeCount]EyeDescriptor) [xr.EyeCount]xr.Pose {
	var poses [xr.EyeCount]xr.Pose
	for _, eye := range xr.Eyes {
		poses[eye] = descs[eye].HmdToEyePose
	}
	return poses
}

/**
 * @brief Builds the camera of each eye from its tracked pose.
 *
 * The eye looks down its local -z axis with +y up. The pose is first placed
 * in the scene by Origin, then turned into a right-handed look-at view and an
 * off-center projection built from the eye's FOV.
 */
func (p *EyePlanner) ComputeEyeTransforms(descs [xr.EyeCount]EyeDescriptor, poses [xr.EyeCount]xr.Pose, sampleTime float64, frameIndex int64) EyeFrame {
	frame := EyeFrame{
		FrameIndex:       frameIndex,
		SensorSampleTime: sampleTime,
		RenderPoses:      poses,
	}
	near, far := p.config.NearClip, p.config.FarClip
	for _, eye := range xr.Eyes {
		pos := p.Origin.Apply(poses[eye].Position)
		rot := p.Origin.ApplyRotation(poses[eye].Orientation)
		forward := rot.Rotate(math.NewVec3Forward())
		up := rot.Rotate(math.NewVec3Up())

		fov := descs[eye].Fov
		view := math.NewMat4LookAtRH(pos, pos.Add(forward), up)
		projection := math.NewMat4FovProjection(fov.UpTan, fov.DownTan, fov.LeftTan, fov.RightTan, near, far)

		frame.Views[eye] = EyeView{
			Eye:            eye,
			Position:       pos,
			Orientation:    rot,
			View:           view,
			Projection:     projection,
			ViewProjection: projection.Mul(view),
		}
		frame.Fov[eye] = fov
		frame.ProjectionDesc = xr.TimewarpProjectionDescFromProjection(projection)
	}
	return frame
}
