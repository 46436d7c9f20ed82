package simulator

import (
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/renderer"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

type mirrorTexture struct {
	desc    xr.MirrorTextureDesc
	texture uint32
}

// compositor copies submitted eye images side by side into mirror textures.
// It owns a read and a draw framebuffer, created on first use.
type compositor struct {
	dev     renderer.Device
	readFBO uint32
	drawFBO uint32
}

func newCompositor(dev renderer.Device) *compositor {
	return &compositor{dev: dev}
}

func (c *compositor) ensureFramebuffers() bool {
	if c.readFBO != 0 && c.drawFBO != 0 {
		return true
	}
	var err error
	if c.readFBO == 0 {
		if c.readFBO, err = c.dev.CreateFramebuffer(); err != nil {
			core.LogError("compositor: %s", err)
			return false
		}
	}
	if c.drawFBO == 0 {
		if c.drawFBO, err = c.dev.CreateFramebuffer(); err != nil {
			core.LogError("compositor: %s", err)
			return false
		}
	}
	return true
}

func eyeLayerSource(layer xr.Layer) (colour [xr.EyeCount]xr.SwapChain, viewport [xr.EyeCount]xr.Recti, ok bool) {
	switch l := layer.(type) {
	case *xr.LayerEyeFov:
		return l.ColorTexture, l.Viewport, true
	case *xr.LayerEyeFovDepth:
		return l.ColorTexture, l.Viewport, true
	}
	return colour, viewport, false
}

func (c *compositor) compose(m *mirrorTexture, layers []xr.Layer, images map[xr.SwapChain]uint32) {
	if !c.ensureFramebuffers() {
		return
	}
	half := m.desc.Width / 2
	c.dev.BindFramebuffer(metadata.FramebufferTargetDraw, c.drawFBO)
	c.dev.FramebufferTexture2D(metadata.FramebufferTargetDraw, metadata.AttachmentColour0, m.texture)
	c.dev.BindFramebuffer(metadata.FramebufferTargetRead, c.readFBO)

	for _, layer := range layers {
		if layer == nil {
			continue
		}
		colour, viewport, ok := eyeLayerSource(layer)
		if !ok {
			continue
		}
		bottomLeft := layer.GetHeader().Flags&xr.LayerFlagTextureOriginAtBottomLeft != 0
		for _, eye := range xr.Eyes {
			tex, ok := images[colour[eye]]
			if !ok {
				continue
			}
			vp := viewport[eye]
			src := metadata.NewRect(vp.X, vp.Y, vp.Size.W, vp.Size.H)
			// The mirror is stored top row first.
			if bottomLeft {
				src = src.FlippedY()
			}
			dst := metadata.NewRect(int32(eye)*half, 0, half, m.desc.Height)
			c.dev.FramebufferTexture2D(metadata.FramebufferTargetRead, metadata.AttachmentColour0, tex)
			c.dev.BlitFramebuffer(src, dst, metadata.TextureFilterModeLinear)
		}
	}

	c.dev.FramebufferTexture2D(metadata.FramebufferTargetRead, metadata.AttachmentColour0, 0)
	c.dev.BindFramebuffer(metadata.FramebufferTargetDraw, c.drawFBO)
	c.dev.FramebufferTexture2D(metadata.FramebufferTargetDraw, metadata.AttachmentColour0, 0)
	c.dev.BindFramebuffer(metadata.FramebufferTargetBoth, metadata.DefaultFramebuffer)
}

func (c *compositor) destroy() {
	if c.readFBO != 0 {
		c.dev.DeleteFramebuffer(c.readFBO)
		c.readFBO = 0
	}
	if c.drawFBO != 0 {
		c.dev.DeleteFramebuffer(c.drawFBO)
		c.drawFBO = 0
	}
}

func (r *Runtime) CreateMirrorTextureGL(session xr.Session, desc xr.MirrorTextureDesc) (xr.MirrorTexture, error) {
	if err := r.checkSession("CreateMirrorTextureGL", session); err != nil {
		return 0, err
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, xr.NewError("CreateMirrorTextureGL", xr.ErrorInvalidParameter)
	}
	format := pixelFormat(desc.Format)
	if format == metadata.PixelFormatUnknown {
		format = metadata.PixelFormatSRGBA8
	}
	tex, err := r.dev.CreateTexture2D(format, desc.Width, desc.Height)
	if err != nil {
		core.LogError("mirror texture: %s", err)
		return 0, xr.NewError("CreateMirrorTextureGL", xr.ErrorMemoryAllocationFailure)
	}
	r.dev.SetTextureSampler(tex, metadata.SwapChainSampler)
	id := xr.MirrorTexture(r.handle())
	r.mirrors[id] = &mirrorTexture{desc: desc, texture: tex}
	return id, nil
}

func (r *Runtime) GetMirrorTextureBufferGL(session xr.Session, mirror xr.MirrorTexture) (uint32, error) {
	if err := r.checkSession("GetMirrorTextureBufferGL", session); err != nil {
		return 0, err
	}
	m, ok := r.mirrors[mirror]
	if !ok {
		return 0, xr.NewError("GetMirrorTextureBufferGL", xr.ErrorInvalidParameter)
	}
	return m.texture, nil
}

func (r *Runtime) DestroyMirrorTexture(session xr.Session, mirror xr.MirrorTexture) {
	m, ok := r.mirrors[mirror]
	if !ok {
		return
	}
	r.dev.DeleteTexture(m.texture)
	delete(r.mirrors, mirror)
}
