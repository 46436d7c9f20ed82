package metadata

/**
 * @brief Represents supported texture filtering modes.
 */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = 0x0
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = 0x1
)

type TextureRepeat int

const (
	TextureRepeatRepeat         TextureRepeat = 0x1
	TextureRepeatMirroredRepeat TextureRepeat = 0x2
	TextureRepeatClampToEdge    TextureRepeat = 0x3
	TextureRepeatClampToBorder  TextureRepeat = 0x4
)

/**
 * @brief Sampling state applied to a texture.
 */
type TextureSampler struct {
	/** @brief Texture filtering mode for minification. */
	FilterMinify TextureFilter
	/** @brief Texture filtering mode for magnification. */
	FilterMagnify TextureFilter
	/** @brief The repeat mode on the U axis (or X, or S) */
	RepeatU TextureRepeat
	/** @brief The repeat mode on the V axis (or Y, or T) */
	RepeatV TextureRepeat
}

/**
 * @brief The sampler every swap-chain image gets: bilinear filtering and
 * clamp-to-edge addressing, so eye images never bleed across their borders.
 */
var SwapChainSampler = TextureSampler{
	FilterMinify:  TextureFilterModeLinear,
	FilterMagnify: TextureFilterModeLinear,
	RepeatU:       TextureRepeatClampToEdge,
	RepeatV:       TextureRepeatClampToEdge,
}

/**
 * @brief Pixel formats a device can allocate textures in.
 */
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	/** @brief 8-bit RGBA with sRGB encoding. */
	PixelFormatSRGBA8
	/** @brief 8-bit linear RGBA. */
	PixelFormatRGBA8
	/** @brief 32-bit float depth. */
	PixelFormatDepth32F
)
