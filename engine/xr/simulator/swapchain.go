package simulator

import (
	"errors"

	"github.com/google/uuid"
	"github.com/spaghettifunk/hellorift/engine/containers"
	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/renderer/metadata"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

type swapChain struct {
	name     uuid.UUID
	desc     xr.SwapChainDesc
	textures []uint32
	current  int
	// committed holds image indices handed over by the application and not
	// yet consumed by the compositor.
	committed *containers.RingQueue[int]
}

func pixelFormat(format xr.TextureFormat) metadata.PixelFormat {
	switch format {
	case xr.FormatR8G8B8A8UnormSRGB:
		return metadata.PixelFormatSRGBA8
	case xr.FormatD32Float:
		return metadata.PixelFormatDepth32F
	}
	return metadata.PixelFormatUnknown
}

func (r *Runtime) CreateTextureSwapChainGL(session xr.Session, desc xr.SwapChainDesc) (xr.SwapChain, error) {
	if err := r.checkSession("CreateTextureSwapChainGL", session); err != nil {
		return 0, err
	}
	if desc.Type != xr.Texture2D || desc.ArraySize > 1 || desc.SampleCount > 1 || desc.MipLevels > 1 {
		return 0, xr.NewError("CreateTextureSwapChainGL", xr.ErrorUnsupported)
	}
	format := pixelFormat(desc.Format)
	if format == metadata.PixelFormatUnknown || desc.Width <= 0 || desc.Height <= 0 {
		return 0, xr.NewError("CreateTextureSwapChainGL", xr.ErrorInvalidParameter)
	}

	length := r.cfg.SwapChainLength
	if desc.StaticImage {
		length = 1
	}
	sc := &swapChain{
		name:      uuid.New(),
		desc:      desc,
		committed: containers.NewRingQueue[int](length),
	}
	for i := 0; i < length; i++ {
		tex, err := r.dev.CreateTexture2D(format, desc.Width, desc.Height)
		if err != nil {
			core.LogError("swap chain %s: image %d: %s", sc.name, i, err)
			for _, t := range sc.textures {
				r.dev.DeleteTexture(t)
			}
			return 0, xr.NewError("CreateTextureSwapChainGL", xr.ErrorMemoryAllocationFailure)
		}
		sc.textures = append(sc.textures, tex)
	}

	id := xr.SwapChain(r.handle())
	r.swapChains[id] = sc
	core.LogDebug("swap chain %s created: %s %dx%d, %d images", sc.name, desc.Format, desc.Width, desc.Height, length)
	return id, nil
}

func (r *Runtime) swapChain(call string, session xr.Session, chain xr.SwapChain) (*swapChain, error) {
	if err := r.checkSession(call, session); err != nil {
		return nil, err
	}
	sc, ok := r.swapChains[chain]
	if !ok {
		return nil, xr.NewError(call, xr.ErrorTextureSwapChainInvalid)
	}
	return sc, nil
}

func (r *Runtime) DestroyTextureSwapChain(session xr.Session, chain xr.SwapChain) {
	sc, ok := r.swapChains[chain]
	if !ok {
		return
	}
	for _, t := range sc.textures {
		r.dev.DeleteTexture(t)
	}
	delete(r.swapChains, chain)
	core.LogDebug("swap chain %s destroyed", sc.name)
}

func (r *Runtime) GetTextureSwapChainLength(session xr.Session, chain xr.SwapChain) (int, error) {
	sc, err := r.swapChain("GetTextureSwapChainLength", session, chain)
	if err != nil {
		return 0, err
	}
	return len(sc.textures), nil
}

func (r *Runtime) GetTextureSwapChainCurrentIndex(session xr.Session, chain xr.SwapChain) (int, error) {
	sc, err := r.swapChain("GetTextureSwapChainCurrentIndex", session, chain)
	if err != nil {
		return 0, err
	}
	return sc.current, nil
}

func (r *Runtime) GetTextureSwapChainBufferGL(session xr.Session, chain xr.SwapChain, index int) (uint32, error) {
	sc, err := r.swapChain("GetTextureSwapChainBufferGL", session, chain)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(sc.textures) {
		return 0, xr.NewError("GetTextureSwapChainBufferGL", xr.ErrorInvalidParameter)
	}
	return sc.textures[index], nil
}

// CommitTextureSwapChain hands the current image to the compositor and
// advances the ring. It fails when every image is waiting for composition.
func (r *Runtime) CommitTextureSwapChain(session xr.Session, chain xr.SwapChain) error {
	sc, err := r.swapChain("CommitTextureSwapChain", session, chain)
	if err != nil {
		return err
	}
	if err := sc.committed.Enqueue(sc.current); err != nil {
		if errors.Is(err, containers.ErrQueueFull) {
			return xr.NewError("CommitTextureSwapChain", xr.ErrorTextureSwapChainFull)
		}
		return err
	}
	sc.current = (sc.current + 1) % len(sc.textures)
	return nil
}

// latest drains the committed queue and returns the most recent image.
func (sc *swapChain) latest() (int, bool) {
	index, found := -1, false
	for !sc.committed.IsEmpty() {
		i, err := sc.committed.Dequeue()
		if err != nil {
			break
		}
		index, found = i, true
	}
	return index, found
}
