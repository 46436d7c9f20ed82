package metadata

/**
 * @brief The types of clearing to be done on a render target.
 * Can be combined together for multiple clearing functions.
 */
type RenderpassClearFlag uint32

const (
	/** @brief No clearing should be done. */
	RENDERPASS_CLEAR_NONE_FLAG RenderpassClearFlag = 0x0
	/** @brief Clear the colour buffer. */
	RENDERPASS_CLEAR_COLOUR_BUFFER_FLAG RenderpassClearFlag = 0x1
	/** @brief Clear the depth buffer. */
	RENDERPASS_CLEAR_DEPTH_BUFFER_FLAG RenderpassClearFlag = 0x2
	/** @brief Clear the stencil buffer. */
	RENDERPASS_CLEAR_STENCIL_BUFFER_FLAG RenderpassClearFlag = 0x4
)

type FramebufferTarget int

const (
	FramebufferTargetDraw FramebufferTarget = iota
	FramebufferTargetRead
	// Both read and draw bindings.
	FramebufferTargetBoth
)

type FramebufferAttachment int

const (
	AttachmentColour0 FramebufferAttachment = iota
	AttachmentDepth
)

/** @brief The window's framebuffer. */
const DefaultFramebuffer uint32 = 0

/**
 * @brief A rectangle given by two corners; X1/Y1 are exclusive. Swapping
 * Y0 and Y1 on one side of a blit flips the image vertically.
 */
type Rect struct {
	X0, Y0, X1, Y1 int32
}

func NewRect(x, y, width, height int32) Rect {
	return Rect{X0: x, Y0: y, X1: x + width, Y1: y + height}
}

func (r Rect) Width() int32 {
	if r.X1 > r.X0 {
		return r.X1 - r.X0
	}
	return r.X0 - r.X1
}

func (r Rect) Height() int32 {
	if r.Y1 > r.Y0 {
		return r.Y1 - r.Y0
	}
	return r.Y0 - r.Y1
}

// FlippedY returns the same area with its vertical corners swapped.
func (r Rect) FlippedY() Rect {
	return Rect{X0: r.X0, Y0: r.Y1, X1: r.X1, Y1: r.Y0}
}
