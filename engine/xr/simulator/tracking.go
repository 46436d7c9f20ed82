package simulator

import (
	gomath "math"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

func (r *Runtime) GetDisplayDescriptor(session xr.Session) xr.DisplayDescriptor {
	mirrored := xr.FovPort{
		UpTan:    r.cfg.DefaultFov.UpTan,
		DownTan:  r.cfg.DefaultFov.DownTan,
		LeftTan:  r.cfg.DefaultFov.RightTan,
		RightTan: r.cfg.DefaultFov.LeftTan,
	}
	return xr.DisplayDescriptor{
		ProductName:   "Simulated HMD",
		Manufacturer:  "hellorift",
		FirmwareMajor: 1,
		FirmwareMinor: 0,
		Resolution:    r.cfg.Resolution,
		RefreshRate:   r.cfg.RefreshRate,
		DefaultEyeFov: [xr.EyeCount]xr.FovPort{r.cfg.DefaultFov, mirrored},
		MaxEyeFov:     [xr.EyeCount]xr.FovPort{r.cfg.DefaultFov, mirrored},
	}
}

// pixelsPerTanAngle maps the default FOV of one eye onto half the panel.
func (r *Runtime) pixelsPerTanAngle() math.Vec2 {
	fov := r.cfg.DefaultFov
	return math.Vec2{
		X: float32(r.cfg.Resolution.W/2) / (fov.LeftTan + fov.RightTan),
		Y: float32(r.cfg.Resolution.H) / (fov.UpTan + fov.DownTan),
	}
}

func (r *Runtime) GetFovTextureSize(session xr.Session, eye xr.Eye, fov xr.FovPort, pixelsPerDisplayPixel float32) xr.Sizei {
	fov = fovOrDefault(fov, r.cfg.DefaultFov)
	ppt := r.pixelsPerTanAngle()
	w := gomath.Ceil(float64((fov.LeftTan + fov.RightTan) * ppt.X * pixelsPerDisplayPixel))
	h := gomath.Ceil(float64((fov.UpTan + fov.DownTan) * ppt.Y * pixelsPerDisplayPixel))
	return xr.Sizei{W: int32(math.Max(w, 1)), H: int32(math.Max(h, 1))}
}

func (r *Runtime) GetRenderDescriptor(session xr.Session, eye xr.Eye, fov xr.FovPort) xr.RenderDescriptor {
	fov = fovOrDefault(fov, r.cfg.DefaultFov)
	half := xr.Sizei{W: r.cfg.Resolution.W / 2, H: r.cfg.Resolution.H}
	vp := xr.RectFromSize(half)
	if eye == xr.EyeRight {
		vp.X = half.W
	}
	return xr.RenderDescriptor{
		Eye:               eye,
		Fov:               fov,
		DistortedViewport: vp,
		PixelsPerTanAngle: r.pixelsPerTanAngle(),
		HmdToEyePose:      xr.Pose{Orientation: math.NewQuatIdentity(), Position: eyeOffset(eye, r.cfg.IPD)},
	}
}

// headPose is the raw sensor pose at absTime seconds, before the origin is applied.
func (r *Runtime) headPose(absTime float64) xr.Pose {
	yaw := float32(absTime) * r.cfg.YawSpeed
	pose := xr.Pose{
		Orientation: math.NewQuatFromAxisAngle(math.NewVec3Up(), yaw, true),
		Position:    math.NewVec3(0, DefaultEyeHeight, 0),
	}
	return pose
}

// trackedHeadPose is the head pose expressed against the tracking origin.
func (r *Runtime) trackedHeadPose(absTime float64) xr.Pose {
	pose := r.origin.Inverse().Compose(r.headPose(absTime))
	if r.originType == xr.TrackingOriginFloorLevel {
		pose.Position.Y += DefaultEyeHeight
	}
	return pose
}

func (r *Runtime) GetEyePoses(session xr.Session, frameIndex int64, latencyMarker bool, hmdToEye [xr.EyeCount]xr.Pose) ([xr.EyeCount]xr.Pose, float64, error) {
	var poses [xr.EyeCount]xr.Pose
	if err := r.checkSession("GetEyePoses", session); err != nil {
		return poses, 0, err
	}
	sampleTime := r.GetTimeInSeconds()
	head := r.trackedHeadPose(r.predictedDisplayTime(frameIndex, sampleTime))
	for _, eye := range xr.Eyes {
		poses[eye] = head.Compose(hmdToEye[eye])
	}
	return poses, sampleTime, nil
}

// predictedDisplayTime estimates when frameIndex reaches the panel: one
// refresh period after now.
func (r *Runtime) predictedDisplayTime(frameIndex int64, now float64) float64 {
	return now + r.period().Seconds()
}

func (r *Runtime) GetTrackingState(session xr.Session, absTime float64, latencyMarker bool) xr.TrackingState {
	if r.checkSession("GetTrackingState", session) != nil {
		return xr.TrackingState{}
	}
	return xr.TrackingState{
		HeadPose: xr.PoseState{
			ThePose:       r.trackedHeadPose(absTime),
			TimeInSeconds: absTime,
		},
		StatusFlags: xr.StatusOrientationTracked | xr.StatusPositionTracked,
	}
}

func (r *Runtime) SetTrackingOriginType(session xr.Session, origin xr.TrackingOrigin) error {
	if err := r.checkSession("SetTrackingOriginType", session); err != nil {
		return err
	}
	r.originType = origin
	core.LogDebug("tracking origin set to %s level", origin)
	return nil
}

// RecenterTrackingOrigin makes the current head yaw and position the origin.
// Pitch and roll are not captured, matching a headset recentering on gravity.
func (r *Runtime) RecenterTrackingOrigin(session xr.Session) error {
	if err := r.checkSession("RecenterTrackingOrigin", session); err != nil {
		return err
	}
	head := r.headPose(r.GetTimeInSeconds())
	yaw, _, _ := head.Orientation.YawPitchRoll()
	r.origin = xr.Pose{
		Orientation: math.NewQuatFromAxisAngle(math.NewVec3Up(), yaw, true),
		Position:    head.Position,
	}
	r.mu.Lock()
	r.recenter = false
	r.mu.Unlock()
	core.LogDebug("tracking origin recentered (yaw %.1f°)", math.RadToDeg(yaw))
	return nil
}
