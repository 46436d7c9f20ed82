package systems

import (
	"fmt"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/renderer"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

// EyeImage is the swap-chain image pair the application renders into this frame.
type EyeImage struct {
	Index  int
	Colour uint32
	// Depth is zero when the buffer has no depth chain.
	Depth uint32
}

/**
 * @brief Owns the colour (and optional depth) swap chain of one render target
 * plus the framebuffer object used to draw into it. A shared buffer holds
 * both eyes side by side and hands out one viewport per eye.
 */
type EyeBuffer struct {
	rt      xr.SwapChainRuntime
	dev     renderer.Device
	session xr.Session

	size      xr.Sizei
	viewports [xr.EyeCount]xr.Recti
	shared    bool

	colour xr.SwapChain
	depth  xr.SwapChain
	length int
	fbo    uint32

	ClearColour math.Vec4

	// index bound by the last BindAndClear, -1 until bound and after each commit
	boundIndex     int
	committedIndex int
	committed      bool
	destroyed      bool
}

/**
 * @brief Creates a swap-chain buffer of the given size for one eye.
 *
 * @param sampleCount Must be 1; multisampled swap chains are not supported.
 * @param withDepth Also create a D32 depth chain of the same length.
 * @return The buffer, or an error wrapping core.ErrResourceCreation.
 */
func NewEyeBuffer(rt xr.SwapChainRuntime, dev renderer.Device, session xr.Session, size xr.Sizei, sampleCount int32, withDepth bool) (*EyeBuffer, error) {
	full := xr.RectFromSize(size)
	return newEyeBuffer(rt, dev, session, size, [xr.EyeCount]xr.Recti{full, full}, false, sampleCount, withDepth)
}

/**
 * @brief Creates one buffer shared by both eyes. The texture is as wide as
 * both recommended sizes together and as tall as the taller one; the left eye
 * renders into the left part and the right eye next to it.
 */
func NewSharedEyeBuffer(rt xr.SwapChainRuntime, dev renderer.Device, session xr.Session, sizes [xr.EyeCount]xr.Sizei, sampleCount int32, withDepth bool) (*EyeBuffer, error) {
	combined := CombinedBufferSize(sizes)
	viewports := [xr.EyeCount]xr.Recti{
		{X: 0, Y: 0, Size: sizes[xr.EyeLeft]},
		{X: sizes[xr.EyeLeft].W, Y: 0, Size: sizes[xr.EyeRight]},
	}
	return newEyeBuffer(rt, dev, session, combined, viewports, true, sampleCount, withDepth)
}

func newEyeBuffer(rt xr.SwapChainRuntime, dev renderer.Device, session xr.Session, size xr.Sizei, viewports [xr.EyeCount]xr.Recti, shared bool, sampleCount int32, withDepth bool) (*EyeBuffer, error) {
	if sampleCount > 1 {
		err := fmt.Errorf("func NewEyeBuffer - sample count %d not supported: %w", sampleCount, core.ErrResourceCreation)
		core.LogError(err.Error())
		return nil, err
	}
	if session == 0 {
		err := fmt.Errorf("func NewEyeBuffer - invalid session: %w", core.ErrResourceCreation)
		core.LogError(err.Error())
		return nil, err
	}
	if size.W <= 0 || size.H <= 0 {
		err := fmt.Errorf("func NewEyeBuffer - invalid size %dx%d: %w", size.W, size.H, core.ErrResourceCreation)
		core.LogError(err.Error())
		return nil, err
	}

	b := &EyeBuffer{
		rt:             rt,
		dev:            dev,
		session:        session,
		size:           size,
		viewports:      viewports,
		shared:         shared,
		ClearColour:    math.NewVec4(0, 0, 0, 1),
		boundIndex:     -1,
		committedIndex: -1,
	}

	desc := xr.SwapChainDesc{
		Type:        xr.Texture2D,
		Format:      xr.FormatR8G8B8A8UnormSRGB,
		ArraySize:   1,
		Width:       size.W,
		Height:      size.H,
		MipLevels:   1,
		SampleCount: 1,
	}
	if err := b.createChain(&b.colour, desc); err != nil {
		b.Destroy()
		return nil, err
	}
	if withDepth {
		desc.Format = xr.FormatD32Float
		if err := b.createChain(&b.depth, desc); err != nil {
			b.Destroy()
			return nil, err
		}
	}

	fbo, err := dev.CreateFramebuffer()
	if err != nil {
		b.Destroy()
		err = fmt.Errorf("func NewEyeBuffer - framebuffer: %s: %w", err, core.ErrResourceCreation)
		core.LogError(err.Error())
		return nil, err
	}
	b.fbo = fbo

	core.LogDebug("eye buffer %dx%d created: %d images, depth=%t, shared=%t", size.W, size.H, b.length, withDepth, shared)
	return b, nil
}

// createChain creates one chain and applies the swap-chain sampler to every image.
func (b *EyeBuffer) createChain(out *xr.SwapChain, desc xr.SwapChainDesc) error {
	chain, err := b.rt.CreateTextureSwapChainGL(b.session, desc)
	if err != nil {
		err = fmt.Errorf("func NewEyeBuffer - %s chain: %s: %w", desc.Format, err, core.ErrResourceCreation)
		core.LogError(err.Error())
		return err
	}
	*out = chain

	length, err := b.rt.GetTextureSwapChainLength(b.session, chain)
	if err != nil || length <= 0 {
		err = fmt.Errorf("func NewEyeBuffer - %s chain has no images: %v: %w", desc.Format, err, core.ErrResourceCreation)
		core.LogError(err.Error())
		return err
	}
	if b.length != 0 && length != b.length {
		err = fmt.Errorf("func NewEyeBuffer - depth chain length %d differs from colour chain length %d: %w", length, b.length, core.ErrResourceCreation)
		core.LogError(err.Error())
		return err
	}
	b.length = length

	for i := 0; i < length; i++ {
		tex, err := b.rt.GetTextureSwapChainBufferGL(b.session, chain, i)
		if err != nil {
			err = fmt.Errorf("func NewEyeBuffer - %s image %d: %s: %w", desc.Format, i, err, core.ErrResourceCreation)
			core.LogError(err.Error())
			return err
		}
		b.dev.SetTextureSampler(tex, metadata.SwapChainSampler)
	}
	return nil
}

func (b *EyeBuffer) Size() xr.Sizei {
	return b.size
}

func (b *EyeBuffer) Length() int {
	return b.length
}

func (b *EyeBuffer) Shared() bool {
	return b.shared
}

func (b *EyeBuffer) HasDepth() bool {
	return b.depth != 0
}

func (b *EyeBuffer) ColourChain() xr.SwapChain {
	return b.colour
}

func (b *EyeBuffer) DepthChain() xr.SwapChain {
	return b.depth
}

// Viewport returns the area of the texture the given eye renders into.
func (b *EyeBuffer) Viewport(eye xr.Eye) xr.Recti {
	return b.viewports[eye]
}

// CommittedIndex returns the image index handed over by the last Commit, or -1.
func (b *EyeBuffer) CommittedIndex() int {
	return b.committedIndex
}

// BoundIndex returns the image index bound by the last BindAndClear, or -1.
func (b *EyeBuffer) BoundIndex() int {
	return b.boundIndex
}

func (b *EyeBuffer) Destroyed() bool {
	return b == nil || b.destroyed
}

// AcquireCurrent asks the runtime which image of each chain to render into.
// The answer changes after every commit, so it is never cached.
func (b *EyeBuffer) AcquireCurrent() (EyeImage, error) {
	if b.Destroyed() {
		return EyeImage{}, core.ErrSwapChainDestroyed
	}
	index, err := b.rt.GetTextureSwapChainCurrentIndex(b.session, b.colour)
	if err != nil {
		return EyeImage{}, fmt.Errorf("current colour image: %w", err)
	}
	colour, err := b.rt.GetTextureSwapChainBufferGL(b.session, b.colour, index)
	if err != nil {
		return EyeImage{}, fmt.Errorf("colour image %d: %w", index, err)
	}
	img := EyeImage{Index: index, Colour: colour}
	if b.depth != 0 {
		depthIndex, err := b.rt.GetTextureSwapChainCurrentIndex(b.session, b.depth)
		if err != nil {
			return EyeImage{}, fmt.Errorf("current depth image: %w", err)
		}
		if img.Depth, err = b.rt.GetTextureSwapChainBufferGL(b.session, b.depth, depthIndex); err != nil {
			return EyeImage{}, fmt.Errorf("depth image %d: %w", depthIndex, err)
		}
	}
	return img, nil
}

/**
 * @brief Binds the current image as the draw target, sets the viewport to the
 * full texture and clears it. Framebuffer sRGB encoding is enabled so linear
 * shader output is stored correctly in the sRGB images.
 */
func (b *EyeBuffer) BindAndClear() error {
	img, err := b.AcquireCurrent()
	if err != nil {
		return err
	}
	b.dev.BindFramebuffer(metadata.FramebufferTargetDraw, b.fbo)
	b.dev.FramebufferTexture2D(metadata.FramebufferTargetDraw, metadata.AttachmentColour0, img.Colour)
	flags := metadata.RENDERPASS_CLEAR_COLOUR_BUFFER_FLAG
	if img.Depth != 0 {
		b.dev.FramebufferTexture2D(metadata.FramebufferTargetDraw, metadata.AttachmentDepth, img.Depth)
		flags |= metadata.RENDERPASS_CLEAR_DEPTH_BUFFER_FLAG
	}
	b.dev.Viewport(0, 0, b.size.W, b.size.H)
	b.dev.SetClearColour(b.ClearColour)
	b.dev.Clear(flags)
	b.dev.EnableFramebufferSRGB()
	b.boundIndex = img.Index
	return nil
}

// SetViewport restricts drawing to the eye's part of a shared texture.
func (b *EyeBuffer) SetViewport(eye xr.Eye) {
	vp := b.viewports[eye]
	b.dev.Viewport(vp.X, vp.Y, vp.Size.W, vp.Size.H)
}

// Unbind detaches the images from the framebuffer so the runtime can use them.
func (b *EyeBuffer) Unbind() {
	if b.Destroyed() {
		return
	}
	b.dev.BindFramebuffer(metadata.FramebufferTargetDraw, b.fbo)
	b.dev.FramebufferTexture2D(metadata.FramebufferTargetDraw, metadata.AttachmentColour0, 0)
	if b.depth != 0 {
		b.dev.FramebufferTexture2D(metadata.FramebufferTargetDraw, metadata.AttachmentDepth, 0)
	}
	b.dev.BindFramebuffer(metadata.FramebufferTargetDraw, metadata.DefaultFramebuffer)
}

/**
 * @brief Hands the rendered images to the compositor. The runtime advances
 * its current index afterwards. Committing without a bind since the last
 * commit is reported and ignored, so only drawn images reach the compositor.
 */
func (b *EyeBuffer) Commit() error {
	if b.Destroyed() {
		return core.ErrSwapChainDestroyed
	}
	index := b.boundIndex
	if index < 0 {
		if b.committed {
			core.LogWarn("eye buffer committed twice without rendering in between, ignoring")
		} else {
			core.LogWarn("eye buffer committed before anything was rendered, ignoring")
		}
		return nil
	}
	if err := b.rt.CommitTextureSwapChain(b.session, b.colour); err != nil {
		return fmt.Errorf("commit colour chain: %w", err)
	}
	if b.depth != 0 {
		if err := b.rt.CommitTextureSwapChain(b.session, b.depth); err != nil {
			return fmt.Errorf("commit depth chain: %w", err)
		}
	}
	b.committedIndex = index
	b.committed = true
	b.boundIndex = -1
	return nil
}

// Destroy releases the chains and the framebuffer. It is safe to call on a
// nil or partially created buffer and more than once.
func (b *EyeBuffer) Destroy() {
	if b == nil || b.destroyed {
		return
	}
	if b.colour != 0 {
		b.rt.DestroyTextureSwapChain(b.session, b.colour)
		b.colour = 0
	}
	if b.depth != 0 {
		b.rt.DestroyTextureSwapChain(b.session, b.depth)
		b.depth = 0
	}
	if b.fbo != 0 {
		b.dev.DeleteFramebuffer(b.fbo)
		b.fbo = 0
	}
	b.boundIndex = -1
	b.destroyed = true
}
