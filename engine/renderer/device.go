package renderer

import (
	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
)

// Device is the graphics API surface the stereo pipeline and the software
// compositor drive. All calls must happen on the thread that owns the context.
type Device interface {
	CreateTexture2D(format metadata.PixelFormat, width, height int32) (uint32, error)
	DeleteTexture(texture uint32)
	SetTextureSampler(texture uint32, sampler metadata.TextureSampler)

	CreateFramebuffer() (uint32, error)
	DeleteFramebuffer(fbo uint32)
	BindFramebuffer(target metadata.FramebufferTarget, fbo uint32)
	// FramebufferTexture2D attaches texture to the framebuffer bound at
	// target. A zero texture detaches the attachment point.
	FramebufferTexture2D(target metadata.FramebufferTarget, attachment metadata.FramebufferAttachment, texture uint32)

	Viewport(x, y, width, height int32)
	SetClearColour(colour math.Vec4)
	Clear(flags metadata.RenderpassClearFlag)
	EnableFramebufferSRGB()

	// BlitFramebuffer copies colour from the read binding to the draw binding.
	BlitFramebuffer(src, dst metadata.Rect, filter metadata.TextureFilter)
	// ReadPixels returns tightly packed RGBA8 rows, bottom row first, from
	// the read binding.
	ReadPixels(x, y, width, height int32) ([]uint8, error)
}
