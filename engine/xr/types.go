// Package xr describes the contract with the head-mounted display runtime
// and its compositor: handles, descriptors, layers and result codes.
package xr

import (
	"fmt"

	"github.com/spaghettifunk/hellorift/engine/math"
)

// Session is an opaque handle to the runtime connection. The zero value is invalid.
type Session uint64

// SwapChain is an opaque handle to a runtime-owned ring of textures. The zero value is invalid.
type SwapChain uint64

// MirrorTexture is an opaque handle to the compositor's preview texture. The zero value is invalid.
type MirrorTexture uint64

type Eye int

const (
	EyeLeft Eye = iota
	EyeRight
	EyeCount
)

// Eyes lists the eyes in submission order.
var Eyes = [EyeCount]Eye{EyeLeft, EyeRight}

func (e Eye) String() string {
	switch e {
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	}
	return fmt.Sprintf("eye(%d)", int(e))
}

type Sizei struct {
	W, H int32
}

type Recti struct {
	X, Y int32
	Size Sizei
}

// RectFromSize returns a rectangle at the origin covering size.
func RectFromSize(size Sizei) Recti {
	return Recti{Size: size}
}

// FovPort holds the tangents of the half angles from the view axis to each edge.
type FovPort struct {
	UpTan    float32
	DownTan  float32
	LeftTan  float32
	RightTan float32
}

// Pose is a position plus orientation in tracking space, in meters.
type Pose struct {
	Orientation math.Quaternion
	Position    math.Vec3
}

func NewPoseIdentity() Pose {
	return Pose{Orientation: math.NewQuatIdentity()}
}

// Compose returns the pose of child expressed relative to p.
func (p Pose) Compose(child Pose) Pose {
	return Pose{
		Orientation: p.Orientation.Mul(child.Orientation),
		Position:    p.Position.Add(p.Orientation.Rotate(child.Position)),
	}
}

// Inverse returns the pose undoing p.
func (p Pose) Inverse() Pose {
	inv := p.Orientation.Inverse()
	return Pose{
		Orientation: inv,
		Position:    inv.Rotate(p.Position).MulScalar(-1),
	}
}

type StatusFlags uint32

const (
	StatusOrientationTracked StatusFlags = 0x0001
	StatusPositionTracked    StatusFlags = 0x0002
)

type TrackingOrigin int

const (
	TrackingOriginEyeLevel TrackingOrigin = iota
	TrackingOriginFloorLevel
)

func (o TrackingOrigin) String() string {
	if o == TrackingOriginFloorLevel {
		return "floor"
	}
	return "eye"
}

type PoseState struct {
	ThePose       Pose
	TimeInSeconds float64
}

type TrackingState struct {
	HeadPose    PoseState
	StatusFlags StatusFlags
}

// DisplayDescriptor describes the headset; it does not change during a session.
type DisplayDescriptor struct {
	ProductName   string
	Manufacturer  string
	FirmwareMajor int16
	FirmwareMinor int16
	Resolution    Sizei
	RefreshRate   float32
	DefaultEyeFov [EyeCount]FovPort
	MaxEyeFov     [EyeCount]FovPort
}

// RenderDescriptor describes how one eye is rendered; it may change at runtime.
type RenderDescriptor struct {
	Eye               Eye
	Fov               FovPort
	DistortedViewport Recti
	PixelsPerTanAngle math.Vec2
	HmdToEyePose      Pose
}

type SessionStatus struct {
	IsVisible      bool
	HmdPresent     bool
	HmdMounted     bool
	DisplayLost    bool
	ShouldQuit     bool
	ShouldRecenter bool
}

type TextureType int

const (
	Texture2D TextureType = iota
	TextureCube
)

type TextureFormat int

const (
	FormatUnknown TextureFormat = iota
	FormatR8G8B8A8UnormSRGB
	FormatD32Float
)

func (f TextureFormat) String() string {
	switch f {
	case FormatR8G8B8A8UnormSRGB:
		return "R8G8B8A8_UNORM_SRGB"
	case FormatD32Float:
		return "D32_FLOAT"
	}
	return "UNKNOWN"
}

type SwapChainDesc struct {
	Type        TextureType
	Format      TextureFormat
	ArraySize   int32
	Width       int32
	Height      int32
	MipLevels   int32
	SampleCount int32
	StaticImage bool
}

type MirrorTextureDesc struct {
	Format TextureFormat
	Width  int32
	Height int32
}
