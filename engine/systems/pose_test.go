package systems

import (
	"testing"

	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/xr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoseSamplerSetsTrackingOrigin(t *testing.T) {
	rt, _, session := newRuntime(t)
	ps, err := NewPoseSampler(rt, session, xr.TrackingOriginFloorLevel)
	require.NoError(t, err)
	assert.Equal(t, xr.TrackingOriginFloorLevel, rt.OriginType)
	assert.Equal(t, xr.TrackingOriginFloorLevel, ps.TrackingOrigin())

	_, err = NewPoseSampler(rt, 0, xr.TrackingOriginEyeLevel)
	assert.Error(t, err)
}

func TestSampleEyePoses(t *testing.T) {
	rt, _, session := newRuntime(t)
	ps, err := NewPoseSampler(rt, session, xr.TrackingOriginEyeLevel)
	require.NoError(t, err)
	rt.SampleTime = 3.25
	rt.HeadPose.Position = math.NewVec3(0, 1, 0)

	sample, err := ps.SampleEyePoses(7, rt.HmdToEye)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sample.FrameIndex)
	assert.Equal(t, 3.25, sample.SampleTime)
	assert.Contains(t, rt.Calls, "GetEyePoses(7)")
	assert.True(t, sample.Poses[xr.EyeLeft].Position.Compare(math.NewVec3(-0.032, 1, 0), tolerance))
	assert.True(t, sample.Poses[xr.EyeRight].Position.Compare(math.NewVec3(0.032, 1, 0), tolerance))

	rt.FailEyePoses = xr.ErrorServiceError
	_, err = ps.SampleEyePoses(8, rt.HmdToEye)
	assert.Equal(t, xr.ErrorServiceError, xr.ResultOf(err))
}

func TestRecenterIsIdempotent(t *testing.T) {
	rt, _, session := newRuntime(t)
	ps, err := NewPoseSampler(rt, session, xr.TrackingOriginEyeLevel)
	require.NoError(t, err)
	rt.HeadPose = xr.Pose{
		Orientation: math.NewQuatFromAxisAngle(math.NewVec3Up(), 0.7, true),
		Position:    math.NewVec3(0.3, 1.7, -0.2),
	}

	require.NoError(t, ps.Recenter())
	once := ps.Report(0).HeadPose.ThePose
	require.NoError(t, ps.Recenter())
	twice := ps.Report(1).HeadPose.ThePose

	assert.Equal(t, once, twice)
	assert.True(t, once.Position.Compare(math.NewVec3Zero(), tolerance))
	assert.True(t, once.Orientation.Compare(math.NewQuatIdentity(), tolerance))
	assert.Equal(t, 2, rt.Recenters)
}

func TestReportReturnsTrackingState(t *testing.T) {
	rt, _, session := newRuntime(t)
	ps, err := NewPoseSampler(rt, session, xr.TrackingOriginEyeLevel)
	require.NoError(t, err)
	rt.Now = 5
	rt.HeadPose.Position = math.NewVec3(1, 2, 3)

	state := ps.Report(3)
	assert.Equal(t, 5.0, state.HeadPose.TimeInSeconds)
	assert.NotZero(t, state.StatusFlags&xr.StatusOrientationTracked)
	assert.True(t, state.HeadPose.ThePose.Position.Compare(math.NewVec3(1, 2, 3), tolerance))
}
