package systems

import (
	"fmt"
	"image"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/renderer"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
	"github.com/spaghettifunk/hellorift/engine/xr"
	"golang.org/x/image/draw"
)

// MirrorBuffer shows the compositor's view of the headset in the desktop window.
type MirrorBuffer struct {
	rt      xr.MirrorRuntime
	dev     renderer.Device
	session xr.Session

	mirror  xr.MirrorTexture
	texture uint32
	fbo     uint32
	width   int32
	height  int32
}

func NewMirrorBuffer(rt xr.MirrorRuntime, dev renderer.Device, session xr.Session, width, height int32) (*MirrorBuffer, error) {
	if width <= 0 || height <= 0 {
		err := fmt.Errorf("func NewMirrorBuffer - invalid size %dx%d: %w", width, height, core.ErrResourceCreation)
		core.LogError(err.Error())
		return nil, err
	}
	m := &MirrorBuffer{rt: rt, dev: dev, session: session, width: width, height: height}

	mirror, err := rt.CreateMirrorTextureGL(session, xr.MirrorTextureDesc{
		Format: xr.FormatR8G8B8A8UnormSRGB,
		Width:  width,
		Height: height,
	})
	if err != nil {
		err = fmt.Errorf("func NewMirrorBuffer - mirror texture: %s: %w", err, core.ErrResourceCreation)
		core.LogError(err.Error())
		return nil, err
	}
	m.mirror = mirror

	if m.texture, err = rt.GetMirrorTextureBufferGL(session, mirror); err != nil {
		m.Destroy()
		err = fmt.Errorf("func NewMirrorBuffer - mirror texture buffer: %s: %w", err, core.ErrResourceCreation)
		core.LogError(err.Error())
		return nil, err
	}

	if m.fbo, err = dev.CreateFramebuffer(); err != nil {
		m.Destroy()
		err = fmt.Errorf("func NewMirrorBuffer - framebuffer: %s: %w", err, core.ErrResourceCreation)
		core.LogError(err.Error())
		return nil, err
	}
	dev.BindFramebuffer(metadata.FramebufferTargetRead, m.fbo)
	dev.FramebufferTexture2D(metadata.FramebufferTargetRead, metadata.AttachmentColour0, m.texture)
	dev.FramebufferTexture2D(metadata.FramebufferTargetRead, metadata.AttachmentDepth, 0)
	dev.BindFramebuffer(metadata.FramebufferTargetRead, metadata.DefaultFramebuffer)
	return m, nil
}

func (m *MirrorBuffer) Size() (int32, int32) {
	return m.width, m.height
}

// Render copies the mirror into the window's framebuffer, flipped vertically
// because the compositor writes it top row first.
func (m *MirrorBuffer) Render(windowWidth, windowHeight int32) {
	if m == nil || m.fbo == 0 {
		return
	}
	m.dev.BindFramebuffer(metadata.FramebufferTargetRead, m.fbo)
	m.dev.BindFramebuffer(metadata.FramebufferTargetDraw, metadata.DefaultFramebuffer)
	src := metadata.NewRect(0, 0, m.width, m.height).FlippedY()
	dst := metadata.NewRect(0, 0, windowWidth, windowHeight)
	m.dev.BlitFramebuffer(src, dst, metadata.TextureFilterModeNearest)
	m.dev.BindFramebuffer(metadata.FramebufferTargetRead, metadata.DefaultFramebuffer)
}

/**
 * @brief Reads the mirror back from the GPU and scales it to width x height.
 *
 * @return An image with its first row at the top.
 */
func (m *MirrorBuffer) Snapshot(width, height int) (*image.RGBA, error) {
	if m == nil || m.fbo == 0 {
		return nil, core.ErrSwapChainDestroyed
	}
	m.dev.BindFramebuffer(metadata.FramebufferTargetRead, m.fbo)
	pixels, err := m.dev.ReadPixels(0, 0, m.width, m.height)
	m.dev.BindFramebuffer(metadata.FramebufferTargetRead, metadata.DefaultFramebuffer)
	if err != nil {
		return nil, fmt.Errorf("read mirror pixels: %w", err)
	}

	// The mirror stores its top row first, which is the order image.RGBA wants.
	full := image.NewRGBA(image.Rect(0, 0, int(m.width), int(m.height)))
	stride := int(m.width) * 4
	for y := 0; y < int(m.height); y++ {
		copy(full.Pix[y*full.Stride:y*full.Stride+stride], pixels[y*stride:(y+1)*stride])
	}
	if width <= 0 || height <= 0 || (width == int(m.width) && height == int(m.height)) {
		return full, nil
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), full, full.Bounds(), draw.Src, nil)
	return scaled, nil
}

// Destroy releases the framebuffer and the mirror texture. Safe on nil.
func (m *MirrorBuffer) Destroy() {
	if m == nil {
		return
	}
	if m.fbo != 0 {
		m.dev.DeleteFramebuffer(m.fbo)
		m.fbo = 0
	}
	if m.mirror != 0 {
		m.rt.DestroyMirrorTexture(m.session, m.mirror)
		m.mirror = 0
		m.texture = 0
	}
}
