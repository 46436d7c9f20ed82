package core

import (
	"errors"
)

var (
	// Runtime or session creation failed. Fatal: the process exits after cleanup.
	ErrInitialization = errors.New("initialization failure")
	// A swap chain, mirror texture or framebuffer could not be allocated. Aborts startup.
	ErrResourceCreation = errors.New("resource creation failure")
	// Wait, begin or end frame failed. The frame is dropped and the loop continues.
	ErrFrameProtocol = errors.New("frame protocol failure")
	// The session was invalidated (display lost). Requires full session re-creation.
	ErrDeviceLost = errors.New("device lost")
	// An operation was attempted on a swap-chain buffer after it was destroyed.
	ErrSwapChainDestroyed = errors.New("swap chain destroyed")
	ErrUnknown            = errors.New("unknown")
)
