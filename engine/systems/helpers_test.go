package systems

import (
	"io"
	"testing"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/renderer/devicetest"
	"github.com/spaghettifunk/hellorift/engine/xr"
	"github.com/spaghettifunk/hellorift/engine/xr/xrtest"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	rt        *xrtest.Runtime
	dev       *devicetest.Device
	session   xr.Session
	planner   *EyePlanner
	poses     *PoseSampler
	buffers   [xr.EyeCount]*EyeBuffer
	submitter *FrameSubmitter
}

func init() {
	core.SetLogOutput(io.Discard)
}

func newRuntime(t *testing.T) (*xrtest.Runtime, *devicetest.Device, xr.Session) {
	t.Helper()
	dev := devicetest.New()
	rt := xrtest.New(dev)
	require.NoError(t, rt.Initialize())
	session, err := rt.CreateSession()
	require.NoError(t, err)
	return rt, dev, session
}

func newFixture(t *testing.T, depth, shared bool) *fixture {
	t.Helper()
	rt, dev, session := newRuntime(t)
	f := &fixture{rt: rt, dev: dev, session: session}

	var err error
	f.planner, err = NewEyePlanner(rt, session, EyePlannerConfig{})
	require.NoError(t, err)
	f.poses, err = NewPoseSampler(rt, session, xr.TrackingOriginEyeLevel)
	require.NoError(t, err)

	sizes := f.planner.RecommendedBufferSizes()
	if shared {
		buf, err := NewSharedEyeBuffer(rt, dev, session, sizes, 1, depth)
		require.NoError(t, err)
		f.buffers = [xr.EyeCount]*EyeBuffer{buf, buf}
	} else {
		for _, eye := range xr.Eyes {
			f.buffers[eye], err = NewEyeBuffer(rt, dev, session, sizes[eye], 1, depth)
			require.NoError(t, err)
		}
	}
	f.submitter, err = NewFrameSubmitter(rt, session, f.planner, f.poses, f.buffers)
	require.NoError(t, err)
	rt.ResetCalls()
	dev.Reset()
	return f
}

// indexOf returns the position of the first recorded call named name at or
// after from, or -1.
func indexOf(rt *xrtest.Runtime, name string, from int) int {
	names := rt.CallNames()
	for i := from; i < len(names); i++ {
		if names[i] == name {
			return i
		}
	}
	return -1
}
