// Package opengl implements renderer.Device on top of an OpenGL 4.1 core context.
package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
)

type Device struct{}

// NewDevice loads the GL function pointers. The context must already be
// current on the calling thread.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("could not init opengl: %w", err)
	}
	core.LogInfo("OpenGL %s (%s)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	return &Device{}, nil
}

func (d *Device) CreateTexture2D(format metadata.PixelFormat, width, height int32) (uint32, error) {
	internalFormat, pixelFormat, pixelType, err := textureFormat(format)
	if err != nil {
		return 0, err
	}
	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, width, height, 0, pixelFormat, pixelType, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := checkError("glTexImage2D"); err != nil {
		gl.DeleteTextures(1, &texture)
		return 0, err
	}
	return texture, nil
}

func (d *Device) DeleteTexture(texture uint32) {
	if texture != 0 {
		gl.DeleteTextures(1, &texture)
	}
}

func (d *Device) SetTextureSampler(texture uint32, sampler metadata.TextureSampler) {
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterMode(sampler.FilterMinify))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterMode(sampler.FilterMagnify))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, repeatMode(sampler.RepeatU))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, repeatMode(sampler.RepeatV))
}

func (d *Device) CreateFramebuffer() (uint32, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	if fbo == 0 {
		return 0, fmt.Errorf("glGenFramebuffers returned no name: %w", checkError("glGenFramebuffers"))
	}
	return fbo, nil
}

func (d *Device) DeleteFramebuffer(fbo uint32) {
	if fbo != 0 {
		gl.DeleteFramebuffers(1, &fbo)
	}
}

func (d *Device) BindFramebuffer(target metadata.FramebufferTarget, fbo uint32) {
	gl.BindFramebuffer(framebufferTarget(target), fbo)
}

func (d *Device) FramebufferTexture2D(target metadata.FramebufferTarget, attachment metadata.FramebufferAttachment, texture uint32) {
	point := uint32(gl.COLOR_ATTACHMENT0)
	if attachment == metadata.AttachmentDepth {
		point = gl.DEPTH_ATTACHMENT
	}
	gl.FramebufferTexture2D(framebufferTarget(target), point, gl.TEXTURE_2D, texture, 0)
}

func (d *Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Device) SetClearColour(colour math.Vec4) {
	gl.ClearColor(colour.X, colour.Y, colour.Z, colour.W)
}

func (d *Device) Clear(flags metadata.RenderpassClearFlag) {
	var mask uint32
	if flags&metadata.RENDERPASS_CLEAR_COLOUR_BUFFER_FLAG != 0 {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if flags&metadata.RENDERPASS_CLEAR_DEPTH_BUFFER_FLAG != 0 {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if flags&metadata.RENDERPASS_CLEAR_STENCIL_BUFFER_FLAG != 0 {
		mask |= gl.STENCIL_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (d *Device) EnableFramebufferSRGB() {
	gl.Enable(gl.FRAMEBUFFER_SRGB)
}

func (d *Device) BlitFramebuffer(src, dst metadata.Rect, filter metadata.TextureFilter) {
	gl.BlitFramebuffer(
		src.X0, src.Y0, src.X1, src.Y1,
		dst.X0, dst.Y0, dst.X1, dst.Y1,
		gl.COLOR_BUFFER_BIT, uint32(filterMode(filter)))
}

func (d *Device) ReadPixels(x, y, width, height int32) ([]uint8, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid read area %dx%d", width, height)
	}
	pixels := make([]uint8, int(width)*int(height)*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	if err := checkError("glReadPixels"); err != nil {
		return nil, err
	}
	return pixels, nil
}

func textureFormat(format metadata.PixelFormat) (int32, uint32, uint32, error) {
	switch format {
	case metadata.PixelFormatSRGBA8:
		return gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case metadata.PixelFormatRGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case metadata.PixelFormatDepth32F:
		return gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT, nil
	}
	return 0, 0, 0, fmt.Errorf("unsupported pixel format %d", format)
}

func filterMode(filter metadata.TextureFilter) int32 {
	if filter == metadata.TextureFilterModeNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func repeatMode(repeat metadata.TextureRepeat) int32 {
	switch repeat {
	case metadata.TextureRepeatRepeat:
		return gl.REPEAT
	case metadata.TextureRepeatMirroredRepeat:
		return gl.MIRRORED_REPEAT
	case metadata.TextureRepeatClampToBorder:
		return gl.CLAMP_TO_BORDER
	}
	return gl.CLAMP_TO_EDGE
}

func framebufferTarget(target metadata.FramebufferTarget) uint32 {
	switch target {
	case metadata.FramebufferTargetRead:
		return gl.READ_FRAMEBUFFER
	case metadata.FramebufferTargetDraw:
		return gl.DRAW_FRAMEBUFFER
	}
	return gl.FRAMEBUFFER
}

func checkError(call string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%x", call, code)
	}
	return nil
}
