// Package devicetest provides a recording renderer.Device for tests.
package devicetest

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
)

type Texture struct {
	Format  metadata.PixelFormat
	Width   int32
	Height  int32
	Sampler metadata.TextureSampler
	// Fill is the colour the last clear or blit left in the texture.
	Fill [4]uint8
}

type Framebuffer struct {
	Colour uint32
	Depth  uint32
}

type Blit struct {
	ReadFBO, DrawFBO uint32
	Src, Dst         metadata.Rect
	Filter           metadata.TextureFilter
}

// Device records every call and keeps enough state to answer questions
// about bindings, attachments and texture parameters.
type Device struct {
	Calls        []string
	Textures     map[uint32]*Texture
	Framebuffers map[uint32]*Framebuffer
	Blits        []Blit

	DrawFBO         uint32
	ReadFBO         uint32
	CurrentViewport metadata.Rect
	ClearColour     math.Vec4
	SRGBEnabled     bool

	// Clears counts clears per draw framebuffer.
	Clears map[uint32]int

	// FailTextureAfter makes CreateTexture2D fail once this many textures exist. Zero disables.
	FailTextureAfter int
	FailFramebuffer  bool

	nextTexture uint32
	nextFBO     uint32
}

func New() *Device {
	return &Device{
		Textures:     make(map[uint32]*Texture),
		Framebuffers: make(map[uint32]*Framebuffer),
		Clears:       make(map[uint32]int),
	}
}

func (d *Device) record(format string, args ...interface{}) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

// Reset forgets recorded calls and blits but keeps resources.
func (d *Device) Reset() {
	d.Calls = nil
	d.Blits = nil
}

func (d *Device) CreateTexture2D(format metadata.PixelFormat, width, height int32) (uint32, error) {
	if d.FailTextureAfter > 0 && len(d.Textures) >= d.FailTextureAfter {
		return 0, errors.New("out of texture memory")
	}
	d.nextTexture++
	d.Textures[d.nextTexture] = &Texture{Format: format, Width: width, Height: height}
	d.record("CreateTexture2D(%d)", d.nextTexture)
	return d.nextTexture, nil
}

func (d *Device) DeleteTexture(texture uint32) {
	delete(d.Textures, texture)
	d.record("DeleteTexture(%d)", texture)
}

func (d *Device) SetTextureSampler(texture uint32, sampler metadata.TextureSampler) {
	if t, ok := d.Textures[texture]; ok {
		t.Sampler = sampler
	}
	d.record("SetTextureSampler(%d)", texture)
}

func (d *Device) CreateFramebuffer() (uint32, error) {
	if d.FailFramebuffer {
		return 0, errors.New("no framebuffer names left")
	}
	d.nextFBO++
	d.Framebuffers[d.nextFBO] = &Framebuffer{}
	d.record("CreateFramebuffer(%d)", d.nextFBO)
	return d.nextFBO, nil
}

func (d *Device) DeleteFramebuffer(fbo uint32) {
	delete(d.Framebuffers, fbo)
	d.record("DeleteFramebuffer(%d)", fbo)
}

func (d *Device) BindFramebuffer(target metadata.FramebufferTarget, fbo uint32) {
	switch target {
	case metadata.FramebufferTargetRead:
		d.ReadFBO = fbo
	case metadata.FramebufferTargetDraw:
		d.DrawFBO = fbo
	default:
		d.ReadFBO = fbo
		d.DrawFBO = fbo
	}
	d.record("BindFramebuffer(%d)", fbo)
}

func (d *Device) FramebufferTexture2D(target metadata.FramebufferTarget, attachment metadata.FramebufferAttachment, texture uint32) {
	fbo := d.DrawFBO
	if target == metadata.FramebufferTargetRead {
		fbo = d.ReadFBO
	}
	if fb, ok := d.Framebuffers[fbo]; ok {
		if attachment == metadata.AttachmentDepth {
			fb.Depth = texture
		} else {
			fb.Colour = texture
		}
	}
	d.record("FramebufferTexture2D(%d,%d,%d)", fbo, attachment, texture)
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.CurrentViewport = metadata.NewRect(x, y, width, height)
	d.record("Viewport(%d,%d,%d,%d)", x, y, width, height)
}

func (d *Device) SetClearColour(colour math.Vec4) {
	d.ClearColour = colour
}

func (d *Device) Clear(flags metadata.RenderpassClearFlag) {
	d.Clears[d.DrawFBO]++
	if fb, ok := d.Framebuffers[d.DrawFBO]; ok && flags&metadata.RENDERPASS_CLEAR_COLOUR_BUFFER_FLAG != 0 {
		if t, ok := d.Textures[fb.Colour]; ok {
			t.Fill = toRGBA8(d.ClearColour)
		}
	}
	d.record("Clear(%d)", flags)
}

func (d *Device) EnableFramebufferSRGB() {
	d.SRGBEnabled = true
	d.record("EnableFramebufferSRGB")
}

func (d *Device) BlitFramebuffer(src, dst metadata.Rect, filter metadata.TextureFilter) {
	d.Blits = append(d.Blits, Blit{ReadFBO: d.ReadFBO, DrawFBO: d.DrawFBO, Src: src, Dst: dst, Filter: filter})
	readFB, rok := d.Framebuffers[d.ReadFBO]
	drawFB, dok := d.Framebuffers[d.DrawFBO]
	if rok && dok {
		if from, ok := d.Textures[readFB.Colour]; ok {
			if to, ok := d.Textures[drawFB.Colour]; ok {
				to.Fill = from.Fill
			}
		}
	}
	d.record("BlitFramebuffer")
}

func (d *Device) ReadPixels(x, y, width, height int32) ([]uint8, error) {
	fb, ok := d.Framebuffers[d.ReadFBO]
	if !ok {
		return nil, errors.New("no read framebuffer bound")
	}
	t, ok := d.Textures[fb.Colour]
	if !ok {
		return nil, errors.New("read framebuffer has no colour attachment")
	}
	if width <= 0 || height <= 0 || x+width > t.Width || y+height > t.Height {
		return nil, fmt.Errorf("read area %dx%d out of bounds", width, height)
	}
	pixels := make([]uint8, int(width)*int(height)*4)
	for i := 0; i < len(pixels); i += 4 {
		copy(pixels[i:i+4], t.Fill[:])
	}
	d.record("ReadPixels")
	return pixels, nil
}

// CallCount returns how many recorded calls start with prefix.
func (d *Device) CallCount(prefix string) int {
	n := 0
	for _, c := range d.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func toRGBA8(c math.Vec4) [4]uint8 {
	conv := func(f float32) uint8 {
		return uint8(math.Clamp(f, 0, 1)*255 + 0.5)
	}
	return [4]uint8{conv(c.X), conv(c.Y), conv(c.Z), conv(c.W)}
}
