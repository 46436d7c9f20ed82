package simulator

import (
	"testing"
	"time"

	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/renderer/devicetest"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
	"github.com/spaghettifunk/hellorift/engine/xr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestRuntime(t *testing.T) (*Runtime, *devicetest.Device, *fakeClock, xr.Session) {
	t.Helper()
	dev := devicetest.New()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rt := New(dev, DefaultConfig(), WithClock(clock.now, clock.sleep))
	require.NoError(t, rt.Initialize())
	session, err := rt.CreateSession()
	require.NoError(t, err)
	return rt, dev, clock, session
}

func colourDesc(w, h int32) xr.SwapChainDesc {
	return xr.SwapChainDesc{
		Type:        xr.Texture2D,
		Format:      xr.FormatR8G8B8A8UnormSRGB,
		ArraySize:   1,
		Width:       w,
		Height:      h,
		MipLevels:   1,
		SampleCount: 1,
	}
}

func TestSessionRequiresInitialize(t *testing.T) {
	rt := New(devicetest.New(), DefaultConfig())
	_, err := rt.CreateSession()
	assert.Equal(t, xr.ErrorNotInitialized, xr.ResultOf(err))
}

func TestInitializeWithoutDeviceFails(t *testing.T) {
	rt := New(nil, DefaultConfig())
	assert.Equal(t, xr.ErrorNoHmd, xr.ResultOf(rt.Initialize()))
}

func TestFovTextureSizeCoversHalfPanel(t *testing.T) {
	rt, _, _, session := newTestRuntime(t)
	desc := rt.GetDisplayDescriptor(session)
	size := rt.GetFovTextureSize(session, xr.EyeLeft, desc.DefaultEyeFov[xr.EyeLeft], 1.0)
	assert.InDelta(t, 1080, size.W, 1)
	assert.InDelta(t, 1200, size.H, 1)

	doubled := rt.GetFovTextureSize(session, xr.EyeLeft, desc.DefaultEyeFov[xr.EyeLeft], 2.0)
	assert.InDelta(t, 2*size.W, doubled.W, 2)
}

func TestRenderDescriptorSeparatesEyes(t *testing.T) {
	rt, _, _, session := newTestRuntime(t)
	left := rt.GetRenderDescriptor(session, xr.EyeLeft, xr.FovPort{})
	right := rt.GetRenderDescriptor(session, xr.EyeRight, xr.FovPort{})
	assert.InDelta(t, -0.032, left.HmdToEyePose.Position.X, 1e-6)
	assert.InDelta(t, 0.032, right.HmdToEyePose.Position.X, 1e-6)
	assert.Equal(t, DefaultConfig().DefaultFov, left.Fov)
}

func TestFrameProtocolOrder(t *testing.T) {
	rt, _, _, session := newTestRuntime(t)

	assert.Equal(t, xr.ErrorInvalidParameter, xr.ResultOf(rt.BeginFrame(session, 0)))
	assert.Equal(t, xr.ErrorInvalidParameter, xr.ResultOf(rt.EndFrame(session, 0, nil)))

	require.NoError(t, rt.WaitToBeginFrame(session, 0))
	assert.Equal(t, xr.ErrorInvalidParameter, xr.ResultOf(rt.BeginFrame(session, 1)))
	require.NoError(t, rt.WaitToBeginFrame(session, 0))
	require.NoError(t, rt.BeginFrame(session, 0))
	require.NoError(t, rt.EndFrame(session, 0, nil))
	assert.Equal(t, uint64(1), rt.FramesSubmitted())
}

func TestWrongSessionIsRejected(t *testing.T) {
	rt, _, _, session := newTestRuntime(t)
	err := rt.WaitToBeginFrame(session+1, 0)
	assert.Equal(t, xr.ErrorInvalidSession, xr.ResultOf(err))
	assert.True(t, xr.ResultOf(err).IsSessionLost())
}

func TestSwapChainRing(t *testing.T) {
	rt, dev, _, session := newTestRuntime(t)
	chain, err := rt.CreateTextureSwapChainGL(session, colourDesc(64, 32))
	require.NoError(t, err)

	length, err := rt.GetTextureSwapChainLength(session, chain)
	require.NoError(t, err)
	assert.Equal(t, 3, length)

	seen := map[uint32]bool{}
	for i := 0; i < length; i++ {
		tex, err := rt.GetTextureSwapChainBufferGL(session, chain, i)
		require.NoError(t, err)
		require.Contains(t, dev.Textures, tex)
		assert.Equal(t, metadata.PixelFormatSRGBA8, dev.Textures[tex].Format)
		seen[tex] = true
	}
	assert.Len(t, seen, 3)

	for i := 0; i < length; i++ {
		current, err := rt.GetTextureSwapChainCurrentIndex(session, chain)
		require.NoError(t, err)
		assert.Equal(t, i, current)
		require.NoError(t, rt.CommitTextureSwapChain(session, chain))
	}
	err = rt.CommitTextureSwapChain(session, chain)
	assert.Equal(t, xr.ErrorTextureSwapChainFull, xr.ResultOf(err))

	_, err = rt.GetTextureSwapChainBufferGL(session, chain, length)
	assert.Equal(t, xr.ErrorInvalidParameter, xr.ResultOf(err))

	rt.DestroyTextureSwapChain(session, chain)
	assert.Empty(t, dev.Textures)
	_, err = rt.GetTextureSwapChainCurrentIndex(session, chain)
	assert.Equal(t, xr.ErrorTextureSwapChainInvalid, xr.ResultOf(err))
}

func TestMultisampledSwapChainUnsupported(t *testing.T) {
	rt, _, _, session := newTestRuntime(t)
	desc := colourDesc(64, 32)
	desc.SampleCount = 4
	_, err := rt.CreateTextureSwapChainGL(session, desc)
	assert.Equal(t, xr.ErrorUnsupported, xr.ResultOf(err))
}

func TestEndFrameRequiresCommittedChains(t *testing.T) {
	rt, _, _, session := newTestRuntime(t)
	chain, err := rt.CreateTextureSwapChainGL(session, colourDesc(64, 32))
	require.NoError(t, err)

	layer := &xr.LayerEyeFov{
		Header:       xr.LayerHeader{Type: xr.LayerTypeEyeFov},
		ColorTexture: [xr.EyeCount]xr.SwapChain{chain, chain},
	}
	require.NoError(t, rt.WaitToBeginFrame(session, 0))
	require.NoError(t, rt.BeginFrame(session, 0))
	err = rt.EndFrame(session, 0, []xr.Layer{layer})
	assert.Equal(t, xr.ErrorTextureSwapChainInvalid, xr.ResultOf(err))
}

func TestEndFrameComposesMirror(t *testing.T) {
	rt, dev, _, session := newTestRuntime(t)
	chain, err := rt.CreateTextureSwapChainGL(session, colourDesc(64, 32))
	require.NoError(t, err)
	mirror, err := rt.CreateMirrorTextureGL(session, xr.MirrorTextureDesc{Format: xr.FormatR8G8B8A8UnormSRGB, Width: 128, Height: 32})
	require.NoError(t, err)
	mirrorTex, err := rt.GetMirrorTextureBufferGL(session, mirror)
	require.NoError(t, err)

	// Render a solid colour into the current image.
	index, err := rt.GetTextureSwapChainCurrentIndex(session, chain)
	require.NoError(t, err)
	eyeTex, err := rt.GetTextureSwapChainBufferGL(session, chain, index)
	require.NoError(t, err)
	fbo, err := dev.CreateFramebuffer()
	require.NoError(t, err)
	dev.BindFramebuffer(metadata.FramebufferTargetBoth, fbo)
	dev.FramebufferTexture2D(metadata.FramebufferTargetDraw, metadata.AttachmentColour0, eyeTex)
	dev.SetClearColour(math.NewVec4(1, 0, 0, 1))
	dev.Clear(metadata.RENDERPASS_CLEAR_COLOUR_BUFFER_FLAG)
	dev.BindFramebuffer(metadata.FramebufferTargetBoth, metadata.DefaultFramebuffer)

	require.NoError(t, rt.WaitToBeginFrame(session, 0))
	require.NoError(t, rt.BeginFrame(session, 0))
	require.NoError(t, rt.CommitTextureSwapChain(session, chain))
	layer := &xr.LayerEyeFovDepth{
		Header:       xr.LayerHeader{Type: xr.LayerTypeEyeFovDepth, Flags: xr.LayerFlagTextureOriginAtBottomLeft},
		ColorTexture: [xr.EyeCount]xr.SwapChain{chain, chain},
		Viewport: [xr.EyeCount]xr.Recti{
			{X: 0, Y: 0, Size: xr.Sizei{W: 32, H: 32}},
			{X: 32, Y: 0, Size: xr.Sizei{W: 32, H: 32}},
		},
	}
	dev.Reset()
	require.NoError(t, rt.EndFrame(session, 0, []xr.Layer{layer}))

	require.Len(t, dev.Blits, 2)
	assert.Equal(t, metadata.NewRect(0, 0, 64, 32), dev.Blits[0].Dst)
	assert.Equal(t, metadata.NewRect(64, 0, 64, 32), dev.Blits[1].Dst)
	assert.Equal(t, metadata.NewRect(32, 0, 32, 32).FlippedY(), dev.Blits[1].Src)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, dev.Textures[mirrorTex].Fill)
	assert.Equal(t, metadata.DefaultFramebuffer, dev.DrawFBO)
	assert.Equal(t, metadata.DefaultFramebuffer, dev.ReadFBO)
}

func TestTopLeftLayersAreCopiedUnflipped(t *testing.T) {
	rt, dev, _, session := newTestRuntime(t)
	chain, err := rt.CreateTextureSwapChainGL(session, colourDesc(32, 32))
	require.NoError(t, err)
	_, err = rt.CreateMirrorTextureGL(session, xr.MirrorTextureDesc{Width: 64, Height: 32})
	require.NoError(t, err)

	require.NoError(t, rt.WaitToBeginFrame(session, 0))
	require.NoError(t, rt.BeginFrame(session, 0))
	require.NoError(t, rt.CommitTextureSwapChain(session, chain))
	layer := &xr.LayerEyeFov{
		Header:       xr.LayerHeader{Type: xr.LayerTypeEyeFov},
		ColorTexture: [xr.EyeCount]xr.SwapChain{chain, 0},
		Viewport:     [xr.EyeCount]xr.Recti{{Size: xr.Sizei{W: 32, H: 32}}},
	}
	require.NoError(t, rt.EndFrame(session, 0, []xr.Layer{layer}))
	require.Len(t, dev.Blits, 1)
	assert.Equal(t, metadata.NewRect(0, 0, 32, 32), dev.Blits[0].Src)
}

func TestWaitIsPacedAndBounded(t *testing.T) {
	rt, _, clock, session := newTestRuntime(t)
	period := rt.period()

	frame := func(i int64) {
		require.NoError(t, rt.WaitToBeginFrame(session, i))
		require.NoError(t, rt.BeginFrame(session, i))
		require.NoError(t, rt.EndFrame(session, i, nil))
	}

	frame(0)
	assert.Empty(t, clock.slept)

	frame(1)
	require.Len(t, clock.slept, 1)
	assert.Equal(t, period, clock.slept[0])

	// A slow frame is not made to wait at all.
	clock.advance(3 * period)
	frame(2)
	assert.Len(t, clock.slept, 1)

	// A clock that jumped backwards cannot stall the caller beyond two periods.
	clock.advance(-10 * period)
	frame(3)
	require.Len(t, clock.slept, 2)
	assert.Equal(t, 2*period, clock.slept[1])
}

func TestRecenterResetsYawAndPosition(t *testing.T) {
	rt, _, clock, session := newTestRuntime(t)
	clock.advance(2 * time.Second)

	before := rt.GetTrackingState(session, rt.GetTimeInSeconds(), false)
	yaw, _, _ := before.HeadPose.ThePose.Orientation.YawPitchRoll()
	assert.InDelta(t, 0.5, yaw, 1e-4)

	rt.RequestRecenter()
	status, err := rt.GetSessionStatus(session)
	require.NoError(t, err)
	assert.True(t, status.ShouldRecenter)

	require.NoError(t, rt.RecenterTrackingOrigin(session))
	after := rt.GetTrackingState(session, rt.GetTimeInSeconds(), false)
	assert.True(t, after.HeadPose.ThePose.Orientation.Compare(math.NewQuatIdentity(), 1e-4))
	assert.True(t, after.HeadPose.ThePose.Position.Compare(math.NewVec3Zero(), 1e-4))

	require.NoError(t, rt.RecenterTrackingOrigin(session))
	again := rt.GetTrackingState(session, rt.GetTimeInSeconds(), false)
	assert.Equal(t, after.HeadPose.ThePose, again.HeadPose.ThePose)

	status, err = rt.GetSessionStatus(session)
	require.NoError(t, err)
	assert.False(t, status.ShouldRecenter)
}

func TestFloorOriginRaisesHead(t *testing.T) {
	rt, _, _, session := newTestRuntime(t)
	require.NoError(t, rt.SetTrackingOriginType(session, xr.TrackingOriginFloorLevel))
	state := rt.GetTrackingState(session, 0, false)
	assert.InDelta(t, DefaultEyeHeight, state.HeadPose.ThePose.Position.Y, 1e-5)
}

func TestEyePosesApplyOffsets(t *testing.T) {
	rt, _, _, session := newTestRuntime(t)
	var offsets [xr.EyeCount]xr.Pose
	for _, eye := range xr.Eyes {
		offsets[eye] = rt.GetRenderDescriptor(session, eye, xr.FovPort{}).HmdToEyePose
	}
	cfg := DefaultConfig()
	cfg.YawSpeed = 0
	still := New(devicetest.New(), cfg)
	require.NoError(t, still.Initialize())
	s, err := still.CreateSession()
	require.NoError(t, err)

	poses, _, err := still.GetEyePoses(s, 0, true, offsets)
	require.NoError(t, err)
	assert.InDelta(t, 0.064, poses[xr.EyeRight].Position.Sub(poses[xr.EyeLeft].Position).Length(), 1e-5)
}

func TestSessionControls(t *testing.T) {
	rt, _, _, session := newTestRuntime(t)

	rt.SetVisible(false)
	status, err := rt.GetSessionStatus(session)
	require.NoError(t, err)
	assert.False(t, status.IsVisible)
	assert.False(t, status.ShouldQuit)

	rt.SetVisible(true)
	rt.RequestQuit()
	status, err = rt.GetSessionStatus(session)
	require.NoError(t, err)
	assert.True(t, status.IsVisible)
	assert.True(t, status.ShouldQuit)

	rt.LoseDisplay()
	status, err = rt.GetSessionStatus(session)
	require.NoError(t, err)
	assert.True(t, status.DisplayLost)
	err = rt.WaitToBeginFrame(session, 0)
	assert.True(t, xr.ResultOf(err).IsSessionLost())
}

func TestShutdownReleasesEverything(t *testing.T) {
	rt, dev, _, session := newTestRuntime(t)
	_, err := rt.CreateTextureSwapChainGL(session, colourDesc(16, 16))
	require.NoError(t, err)
	_, err = rt.CreateMirrorTextureGL(session, xr.MirrorTextureDesc{Width: 16, Height: 16})
	require.NoError(t, err)

	rt.Shutdown()
	assert.Empty(t, dev.Textures)
	assert.Empty(t, dev.Framebuffers)
}
