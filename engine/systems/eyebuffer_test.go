package systems

import (
	"testing"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
	"github.com/spaghettifunk/hellorift/engine/xr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eyeSize = xr.Sizei{W: 960, H: 1080}

func TestNewEyeBufferRejectsMultisampling(t *testing.T) {
	rt, dev, session := newRuntime(t)
	buf, err := NewEyeBuffer(rt, dev, session, eyeSize, 4, true)
	assert.Nil(t, buf)
	assert.ErrorIs(t, err, core.ErrResourceCreation)
	assert.Zero(t, rt.Count("CreateTextureSwapChainGL"))
}

func TestNewEyeBufferRejectsInvalidSession(t *testing.T) {
	rt, dev, _ := newRuntime(t)
	_, err := NewEyeBuffer(rt, dev, 0, eyeSize, 1, false)
	assert.ErrorIs(t, err, core.ErrResourceCreation)
}

func TestNewEyeBufferSurfacesRuntimeFailure(t *testing.T) {
	rt, dev, session := newRuntime(t)
	rt.FailCreateSwapChain = xr.ErrorMemoryAllocationFailure
	_, err := NewEyeBuffer(rt, dev, session, eyeSize, 1, false)
	assert.ErrorIs(t, err, core.ErrResourceCreation)
	assert.Empty(t, dev.Framebuffers)
}

func TestEyeBufferImagesUseSwapChainSampler(t *testing.T) {
	rt, dev, session := newRuntime(t)
	buf, err := NewEyeBuffer(rt, dev, session, eyeSize, 1, true)
	require.NoError(t, err)

	for _, chain := range []xr.SwapChain{buf.ColourChain(), buf.DepthChain()} {
		sc := rt.SwapChains[chain]
		require.NotNil(t, sc)
		assert.Equal(t, eyeSize.W, sc.Desc.Width)
		assert.Equal(t, eyeSize.H, sc.Desc.Height)
		assert.Equal(t, int32(1), sc.Desc.SampleCount)
		for _, tex := range sc.Textures {
			assert.Equal(t, metadata.SwapChainSampler, dev.Textures[tex].Sampler)
		}
	}
	assert.Equal(t, xr.FormatR8G8B8A8UnormSRGB, rt.SwapChains[buf.ColourChain()].Desc.Format)
	assert.Equal(t, xr.FormatD32Float, rt.SwapChains[buf.DepthChain()].Desc.Format)
	assert.Equal(t, 3, buf.Length())
	assert.Len(t, dev.Framebuffers, 1)
}

func TestBindAndClearTargetsCurrentImage(t *testing.T) {
	rt, dev, session := newRuntime(t)
	buf, err := NewEyeBuffer(rt, dev, session, eyeSize, 1, true)
	require.NoError(t, err)

	colour := rt.SwapChains[buf.ColourChain()]
	depth := rt.SwapChains[buf.DepthChain()]
	colour.Current, depth.Current = 2, 2

	require.NoError(t, buf.BindAndClear())
	assert.Equal(t, 2, buf.BoundIndex())

	fb := dev.Framebuffers[dev.DrawFBO]
	require.NotNil(t, fb)
	assert.Equal(t, colour.Textures[2], fb.Colour)
	assert.Equal(t, depth.Textures[2], fb.Depth)
	assert.Equal(t, metadata.NewRect(0, 0, eyeSize.W, eyeSize.H), dev.CurrentViewport)
	assert.Equal(t, 1, dev.Clears[dev.DrawFBO])
	assert.True(t, dev.SRGBEnabled)
}

func TestUnbindDetachesImages(t *testing.T) {
	rt, dev, session := newRuntime(t)
	buf, err := NewEyeBuffer(rt, dev, session, eyeSize, 1, true)
	require.NoError(t, err)

	require.NoError(t, buf.BindAndClear())
	fbo := dev.DrawFBO
	buf.Unbind()
	assert.Zero(t, dev.Framebuffers[fbo].Colour)
	assert.Zero(t, dev.Framebuffers[fbo].Depth)
	assert.Equal(t, metadata.DefaultFramebuffer, dev.DrawFBO)
}

func TestCommittedIndexIsTheBoundIndex(t *testing.T) {
	rt, dev, session := newRuntime(t)
	buf, err := NewEyeBuffer(rt, dev, session, eyeSize, 1, true)
	require.NoError(t, err)

	for frame := 0; frame < 7; frame++ {
		require.NoError(t, buf.BindAndClear())
		bound := buf.BoundIndex()
		buf.Unbind()
		require.NoError(t, buf.Commit())

		assert.Equal(t, bound, buf.CommittedIndex())
		committed := rt.SwapChains[buf.ColourChain()].Committed
		assert.Equal(t, bound, committed[len(committed)-1])
		assert.Equal(t, frame%3, bound)
	}
	assert.Equal(t, 7, rt.SwapChains[buf.DepthChain()].Commits)
}

func TestDoubleCommitIsIgnored(t *testing.T) {
	rt, dev, session := newRuntime(t)
	buf, err := NewEyeBuffer(rt, dev, session, eyeSize, 1, false)
	require.NoError(t, err)

	require.NoError(t, buf.BindAndClear())
	buf.Unbind()
	require.NoError(t, buf.Commit())
	require.NoError(t, buf.Commit())
	assert.Equal(t, 1, rt.SwapChains[buf.ColourChain()].Commits)
}

func TestCommitBeforeRenderingIsIgnored(t *testing.T) {
	rt, dev, session := newRuntime(t)
	buf, err := NewEyeBuffer(rt, dev, session, eyeSize, 1, true)
	require.NoError(t, err)

	require.NoError(t, buf.Commit())
	assert.Zero(t, rt.SwapChains[buf.ColourChain()].Commits)
	assert.Zero(t, rt.SwapChains[buf.DepthChain()].Commits)
	assert.Equal(t, -1, buf.CommittedIndex())

	require.NoError(t, buf.BindAndClear())
	buf.Unbind()
	require.NoError(t, buf.Commit())
	assert.Equal(t, 1, rt.SwapChains[buf.ColourChain()].Commits)
	assert.Equal(t, 1, rt.SwapChains[buf.DepthChain()].Commits)
}

func TestDestroyIsIdempotent(t *testing.T) {
	rt, dev, session := newRuntime(t)
	buf, err := NewEyeBuffer(rt, dev, session, eyeSize, 1, true)
	require.NoError(t, err)
	colour, depth := buf.ColourChain(), buf.DepthChain()

	buf.Destroy()
	buf.Destroy()
	assert.True(t, rt.SwapChains[colour].Destroyed)
	assert.True(t, rt.SwapChains[depth].Destroyed)
	assert.Equal(t, 2, rt.Count("DestroyTextureSwapChain"))
	assert.Empty(t, dev.Framebuffers)
	assert.Empty(t, dev.Textures)

	_, err = buf.AcquireCurrent()
	assert.ErrorIs(t, err, core.ErrSwapChainDestroyed)
	assert.ErrorIs(t, buf.BindAndClear(), core.ErrSwapChainDestroyed)
	assert.ErrorIs(t, buf.Commit(), core.ErrSwapChainDestroyed)

	var never *EyeBuffer
	assert.NotPanics(t, never.Destroy)
	assert.True(t, never.Destroyed())
}

func TestFailedFramebufferReleasesChains(t *testing.T) {
	rt, dev, session := newRuntime(t)
	dev.FailFramebuffer = true
	_, err := NewEyeBuffer(rt, dev, session, eyeSize, 1, true)
	assert.ErrorIs(t, err, core.ErrResourceCreation)
	require.Len(t, rt.SwapChains, 2)
	for _, sc := range rt.SwapChains {
		assert.True(t, sc.Destroyed)
	}
}

func TestSharedEyeBufferSplitsTexture(t *testing.T) {
	rt, dev, session := newRuntime(t)
	buf, err := NewSharedEyeBuffer(rt, dev, session, [xr.EyeCount]xr.Sizei{eyeSize, eyeSize}, 1, false)
	require.NoError(t, err)

	assert.True(t, buf.Shared())
	assert.Equal(t, xr.Sizei{W: 1920, H: 1080}, buf.Size())
	assert.Equal(t, xr.Recti{X: 0, Y: 0, Size: eyeSize}, buf.Viewport(xr.EyeLeft))
	assert.Equal(t, xr.Recti{X: 960, Y: 0, Size: eyeSize}, buf.Viewport(xr.EyeRight))

	buf.SetViewport(xr.EyeRight)
	assert.Equal(t, metadata.NewRect(960, 0, 960, 1080), dev.CurrentViewport)
}

func TestSharedEyeBufferKeepsEachEyeSize(t *testing.T) {
	rt, dev, session := newRuntime(t)
	left, right := xr.Sizei{W: 1000, H: 1080}, xr.Sizei{W: 900, H: 1000}
	buf, err := NewSharedEyeBuffer(rt, dev, session, [xr.EyeCount]xr.Sizei{left, right}, 1, true)
	require.NoError(t, err)

	assert.Equal(t, xr.Sizei{W: 1900, H: 1080}, buf.Size())
	assert.Equal(t, xr.Recti{X: 0, Y: 0, Size: left}, buf.Viewport(xr.EyeLeft))
	assert.Equal(t, xr.Recti{X: 1000, Y: 0, Size: right}, buf.Viewport(xr.EyeRight))

	buf.SetViewport(xr.EyeLeft)
	assert.Equal(t, metadata.NewRect(0, 0, 1000, 1080), dev.CurrentViewport)
	buf.SetViewport(xr.EyeRight)
	assert.Equal(t, metadata.NewRect(1000, 0, 900, 1000), dev.CurrentViewport)
}
