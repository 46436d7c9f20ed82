package simulator

import (
	"time"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

type frameState struct {
	waited     bool
	waitIndex  int64
	begun      bool
	beginIndex int64
	lastEnd    time.Time
	submitted  uint64
}

// WaitToBeginFrame blocks until the next refresh slot after the previous
// submission. The wait never exceeds two refresh periods.
func (r *Runtime) WaitToBeginFrame(session xr.Session, frameIndex int64) error {
	if err := r.checkSession("WaitToBeginFrame", session); err != nil {
		return err
	}
	if r.lost() {
		return xr.NewError("WaitToBeginFrame", xr.ErrorDisplayLost)
	}
	if !r.frames.lastEnd.IsZero() {
		period := r.period()
		wait := r.frames.lastEnd.Add(period).Sub(r.now())
		if wait > 2*period {
			wait = 2 * period
		}
		if wait > 0 {
			r.sleep(wait)
		}
	}
	r.frames.waited = true
	r.frames.waitIndex = frameIndex
	return nil
}

func (r *Runtime) BeginFrame(session xr.Session, frameIndex int64) error {
	if err := r.checkSession("BeginFrame", session); err != nil {
		return err
	}
	if r.lost() {
		return xr.NewError("BeginFrame", xr.ErrorDisplayLost)
	}
	if !r.frames.waited || r.frames.waitIndex != frameIndex {
		core.LogWarn("BeginFrame(%d) without a matching WaitToBeginFrame", frameIndex)
		return xr.NewError("BeginFrame", xr.ErrorInvalidParameter)
	}
	r.frames.waited = false
	r.frames.begun = true
	r.frames.beginIndex = frameIndex
	return nil
}

// EndFrame consumes the committed image of every swap chain the layers
// reference and composites them into the mirror textures.
func (r *Runtime) EndFrame(session xr.Session, frameIndex int64, layers []xr.Layer) error {
	if err := r.checkSession("EndFrame", session); err != nil {
		return err
	}
	if r.lost() {
		return xr.NewError("EndFrame", xr.ErrorDisplayLost)
	}
	if !r.frames.begun || r.frames.beginIndex != frameIndex {
		core.LogWarn("EndFrame(%d) without a matching BeginFrame", frameIndex)
		return xr.NewError("EndFrame", xr.ErrorInvalidParameter)
	}
	r.frames.begun = false

	images := make(map[xr.SwapChain]uint32)
	for _, layer := range layers {
		if layer == nil || layer.GetHeader().Type == xr.LayerTypeDisabled {
			continue
		}
		for _, chain := range xr.LayerSwapChains(layer) {
			if _, done := images[chain]; done {
				continue
			}
			sc, ok := r.swapChains[chain]
			if !ok {
				return xr.NewError("EndFrame", xr.ErrorTextureSwapChainInvalid)
			}
			index, ok := sc.latest()
			if !ok {
				core.LogWarn("EndFrame(%d): swap chain %s was not committed", frameIndex, sc.name)
				return xr.NewError("EndFrame", xr.ErrorTextureSwapChainInvalid)
			}
			images[chain] = sc.textures[index]
		}
	}

	r.frames.lastEnd = r.now()
	r.frames.submitted++
	if !r.Visible() {
		return nil
	}
	for _, m := range r.mirrors {
		r.compositor.compose(m, layers, images)
	}
	return nil
}

// FramesSubmitted returns how many frames EndFrame accepted.
func (r *Runtime) FramesSubmitted() uint64 {
	return r.frames.submitted
}
