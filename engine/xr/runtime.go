package xr

// SwapChainRuntime is the subset of runtime calls a swap-chain buffer needs.
type SwapChainRuntime interface {
	CreateTextureSwapChainGL(session Session, desc SwapChainDesc) (SwapChain, error)
	DestroyTextureSwapChain(session Session, chain SwapChain)
	GetTextureSwapChainLength(session Session, chain SwapChain) (int, error)
	GetTextureSwapChainCurrentIndex(session Session, chain SwapChain) (int, error)
	GetTextureSwapChainBufferGL(session Session, chain SwapChain, index int) (uint32, error)
	CommitTextureSwapChain(session Session, chain SwapChain) error
}

// MirrorRuntime is the subset of runtime calls the preview mirror needs.
type MirrorRuntime interface {
	CreateMirrorTextureGL(session Session, desc MirrorTextureDesc) (MirrorTexture, error)
	GetMirrorTextureBufferGL(session Session, mirror MirrorTexture) (uint32, error)
	DestroyMirrorTexture(session Session, mirror MirrorTexture)
}

// TrackingRuntime covers display geometry and pose queries.
type TrackingRuntime interface {
	GetDisplayDescriptor(session Session) DisplayDescriptor
	GetFovTextureSize(session Session, eye Eye, fov FovPort, pixelsPerDisplayPixel float32) Sizei
	GetRenderDescriptor(session Session, eye Eye, fov FovPort) RenderDescriptor
	// GetEyePoses predicts the eye poses for the display time of frameIndex,
	// applying hmdToEye to the predicted head pose. It also returns the
	// time the sensors were sampled, which belongs in the submitted layer.
	GetEyePoses(session Session, frameIndex int64, latencyMarker bool, hmdToEye [EyeCount]Pose) ([EyeCount]Pose, float64, error)
	GetTrackingState(session Session, absTime float64, latencyMarker bool) TrackingState
	GetTimeInSeconds() float64
	SetTrackingOriginType(session Session, origin TrackingOrigin) error
	RecenterTrackingOrigin(session Session) error
}

// FrameRuntime covers the per-frame compositor protocol.
type FrameRuntime interface {
	GetSessionStatus(session Session) (SessionStatus, error)
	// WaitToBeginFrame blocks until the compositor admits frameIndex. The
	// wait is bounded by the compositor.
	WaitToBeginFrame(session Session, frameIndex int64) error
	BeginFrame(session Session, frameIndex int64) error
	EndFrame(session Session, frameIndex int64, layers []Layer) error
}

// Runtime is the full HMD runtime and compositor.
type Runtime interface {
	Initialize() error
	Shutdown()
	CreateSession() (Session, error)
	DestroySession(session Session)

	SwapChainRuntime
	MirrorRuntime
	TrackingRuntime
	FrameRuntime
}
