package xr

import "github.com/spaghettifunk/hellorift/engine/math"

type LayerType int

const (
	LayerTypeDisabled LayerType = iota
	LayerTypeEyeFov
	LayerTypeEyeFovDepth
)

type LayerFlags uint32

const (
	LayerFlagHighQuality               LayerFlags = 0x01
	LayerFlagTextureOriginAtBottomLeft LayerFlags = 0x02
	LayerFlagHeadLocked                LayerFlags = 0x04
)

type LayerHeader struct {
	Type  LayerType
	Flags LayerFlags
}

// Layer is anything the compositor can consume in EndFrame.
type Layer interface {
	GetHeader() LayerHeader
}

// TimewarpProjectionDesc carries the projection terms the compositor needs to
// reconstruct depth for positional timewarp.
type TimewarpProjectionDesc struct {
	Projection22 float32
	Projection23 float32
	Projection32 float32
}

// TimewarpProjectionDescFromProjection extracts the depth terms of a projection.
func TimewarpProjectionDescFromProjection(projection math.Mat4) TimewarpProjectionDesc {
	return TimewarpProjectionDesc{
		Projection22: projection.At(2, 2),
		Projection23: projection.At(2, 3),
		Projection32: projection.At(3, 2),
	}
}

// LayerEyeFov is a stereo layer without depth.
type LayerEyeFov struct {
	Header           LayerHeader
	ColorTexture     [EyeCount]SwapChain
	Viewport         [EyeCount]Recti
	Fov              [EyeCount]FovPort
	RenderPose       [EyeCount]Pose
	SensorSampleTime float64
}

func (l *LayerEyeFov) GetHeader() LayerHeader {
	return l.Header
}

// LayerEyeFovDepth is a stereo layer with a depth chain per eye.
type LayerEyeFovDepth struct {
	Header           LayerHeader
	ColorTexture     [EyeCount]SwapChain
	Viewport         [EyeCount]Recti
	Fov              [EyeCount]FovPort
	RenderPose       [EyeCount]Pose
	SensorSampleTime float64
	DepthTexture     [EyeCount]SwapChain
	ProjectionDesc   TimewarpProjectionDesc
}

func (l *LayerEyeFovDepth) GetHeader() LayerHeader {
	return l.Header
}

// LayerSwapChains returns every swap chain referenced by the layer.
func LayerSwapChains(layer Layer) []SwapChain {
	var chains []SwapChain
	switch l := layer.(type) {
	case *LayerEyeFov:
		chains = append(chains, l.ColorTexture[:]...)
	case *LayerEyeFovDepth:
		chains = append(chains, l.ColorTexture[:]...)
		chains = append(chains, l.DepthTexture[:]...)
	}
	seen := make(map[SwapChain]bool, len(chains))
	out := chains[:0]
	for _, c := range chains {
		if c != 0 && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
