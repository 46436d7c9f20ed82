package systems

import (
	"fmt"

	"github.com/spaghettifunk/hellorift/engine/core"
	"github.com/spaghettifunk/hellorift/engine/renderer"
	"github.com/spaghettifunk/hellorift/engine/xr"
)

type SystemManagerConfig struct {
	Planner        EyePlannerConfig
	TrackingOrigin xr.TrackingOrigin
	// DepthBuffers adds a depth chain per eye and submits an EyeFovDepth layer.
	DepthBuffers bool
	// SharedTexture renders both eyes into one side-by-side texture.
	SharedTexture bool
	// MirrorWidth and MirrorHeight size the desktop preview; zero disables it.
	MirrorWidth  int32
	MirrorHeight int32
}

// SystemManager owns the session and every stereo subsystem. It is the only
// place holding them, and passes them explicitly to one another.
type SystemManager struct {
	runtime xr.Runtime
	device  renderer.Device
	config  SystemManagerConfig

	runtimeUp bool
	session   xr.Session

	Planner   *EyePlanner
	Poses     *PoseSampler
	Buffers   [xr.EyeCount]*EyeBuffer
	Mirror    *MirrorBuffer
	Submitter *FrameSubmitter
}

func NewSystemManager(runtime xr.Runtime, device renderer.Device, config *SystemManagerConfig) *SystemManager {
	sm := &SystemManager{runtime: runtime, device: device}
	if config != nil {
		sm.config = *config
	}
	return sm
}

func (sm *SystemManager) Session() xr.Session {
	return sm.session
}

func (sm *SystemManager) Runtime() xr.Runtime {
	return sm.runtime
}

/**
 * @brief Starts the runtime, opens the session and creates every subsystem.
 * On failure whatever was created is released again.
 *
 * @return nil, or an error wrapping core.ErrInitialization or core.ErrResourceCreation.
 */
func (sm *SystemManager) Initialize() error {
	if err := sm.initialize(); err != nil {
		sm.Shutdown()
		return err
	}
	return nil
}

func (sm *SystemManager) initialize() error {
	if err := sm.runtime.Initialize(); err != nil {
		err = fmt.Errorf("func Initialize - runtime: %s: %w", err, core.ErrInitialization)
		core.LogError(err.Error())
		return err
	}
	sm.runtimeUp = true

	session, err := sm.runtime.CreateSession()
	if err != nil {
		err = fmt.Errorf("func Initialize - session: %s: %w", err, core.ErrInitialization)
		core.LogError(err.Error())
		return err
	}
	sm.session = session

	if sm.Planner, err = NewEyePlanner(sm.runtime, session, sm.config.Planner); err != nil {
		return fmt.Errorf("%s: %w", err, core.ErrInitialization)
	}
	if sm.Poses, err = NewPoseSampler(sm.runtime, session, sm.config.TrackingOrigin); err != nil {
		err = fmt.Errorf("func Initialize - %s: %w", err, core.ErrInitialization)
		core.LogError(err.Error())
		return err
	}

	sizes := sm.Planner.RecommendedBufferSizes()
	if sm.config.SharedTexture {
		shared, err := NewSharedEyeBuffer(sm.runtime, sm.device, session, sizes, 1, sm.config.DepthBuffers)
		if err != nil {
			return err
		}
		sm.Buffers = [xr.EyeCount]*EyeBuffer{shared, shared}
	} else {
		for _, eye := range xr.Eyes {
			buf, err := NewEyeBuffer(sm.runtime, sm.device, session, sizes[eye], 1, sm.config.DepthBuffers)
			if err != nil {
				return err
			}
			sm.Buffers[eye] = buf
		}
	}

	if sm.config.MirrorWidth > 0 && sm.config.MirrorHeight > 0 {
		if sm.Mirror, err = NewMirrorBuffer(sm.runtime, sm.device, session, sm.config.MirrorWidth, sm.config.MirrorHeight); err != nil {
			return err
		}
	}

	if sm.Submitter, err = NewFrameSubmitter(sm.runtime, session, sm.Planner, sm.Poses, sm.Buffers); err != nil {
		return fmt.Errorf("%s: %w", err, core.ErrInitialization)
	}
	return nil
}

// Shutdown releases buffers, mirror, session and runtime, in that order.
// It is safe to call more than once.
func (sm *SystemManager) Shutdown() error {
	sm.Submitter = nil
	for _, eye := range xr.Eyes {
		sm.Buffers[eye].Destroy()
		sm.Buffers[eye] = nil
	}
	sm.Mirror.Destroy()
	sm.Mirror = nil
	sm.Poses = nil
	sm.Planner = nil
	if sm.session != 0 {
		sm.runtime.DestroySession(sm.session)
		sm.session = 0
	}
	if sm.runtimeUp {
		sm.runtime.Shutdown()
		sm.runtimeUp = false
	}
	return nil
}
