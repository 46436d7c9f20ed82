package systems

import (
	"fmt"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

// EyePoses is one pose sample for both eyes.
type EyePoses struct {
	FrameIndex int64
	Poses      [xr.EyeCount]xr.Pose
	SampleTime float64
}

// PoseSampler reads head and eye poses and owns the tracking origin.
type PoseSampler struct {
	rt      xr.TrackingRuntime
	session xr.Session
	origin  xr.TrackingOrigin
}

func NewPoseSampler(rt xr.TrackingRuntime, session xr.Session, origin xr.TrackingOrigin) (*PoseSampler, error) {
	ps := &PoseSampler{rt: rt, session: session}
	if err := ps.SetTrackingOrigin(origin); err != nil {
		return nil, err
	}
	return ps, nil
}

// SampleEyePoses predicts both eye poses for the display time of frameIndex.
// The latency marker is set: this sample is the one the frame renders with.
func (ps *PoseSampler) SampleEyePoses(frameIndex int64, hmdToEye [xr.EyeCount]xr.Pose) (EyePoses, error) {
	poses, sampleTime, err := ps.rt.GetEyePoses(ps.session, frameIndex, true, hmdToEye)
	if err != nil {
		return EyePoses{}, fmt.Errorf("sample eye poses for frame %d: %w", frameIndex, err)
	}
	return EyePoses{FrameIndex: frameIndex, Poses: poses, SampleTime: sampleTime}, nil
}

/**
 * @brief Reads the current head tracking state and logs position and
 * orientation, in degrees, when orientation is tracked.
 *
 * @param timeStep The tick counter printed alongside the pose.
 * @return The tracking state.
 */
func (ps *PoseSampler) Report(timeStep int64) xr.TrackingState {
	state := ps.rt.GetTrackingState(ps.session, ps.rt.GetTimeInSeconds(), false)
	if state.StatusFlags&xr.StatusOrientationTracked != 0 {
		pose := state.HeadPose.ThePose
		yaw, pitch, roll := pose.Orientation.YawPitchRoll()
		core.LogDebug("step %d: position (%.3f, %.3f, %.3f) yaw %.1f° pitch %.1f° roll %.1f°",
			timeStep, pose.Position.X, pose.Position.Y, pose.Position.Z,
			math.RadToDeg(yaw), math.RadToDeg(pitch), math.RadToDeg(roll))
	}
	return state
}

// Recenter makes the current head yaw and position the new origin. Calling it
// again without moving changes nothing.
func (ps *PoseSampler) Recenter() error {
	if err := ps.rt.RecenterTrackingOrigin(ps.session); err != nil {
		return fmt.Errorf("recenter tracking origin: %w", err)
	}
	core.LogInfo("tracking origin recentered")
	return nil
}

func (ps *PoseSampler) SetTrackingOrigin(origin xr.TrackingOrigin) error {
	if err := ps.rt.SetTrackingOriginType(ps.session, origin); err != nil {
		return fmt.Errorf("set tracking origin to %s level: %w", origin, err)
	}
	ps.origin = origin
	return nil
}

func (ps *PoseSampler) TrackingOrigin() xr.TrackingOrigin {
	return ps.origin
}
