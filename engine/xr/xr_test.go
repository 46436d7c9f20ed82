package xr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spaghettifunk/hellorift/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorOnlyForFailures(t *testing.T) {
	assert.NoError(t, NewError("EndFrame", Success))
	assert.NoError(t, NewError("EndFrame", SuccessNotVisible))

	err := NewError("EndFrame", ErrorDisplayLost)
	require.Error(t, err)
	assert.Equal(t, "EndFrame failed: DisplayLost (-6000)", err.Error())

	wrapped := fmt.Errorf("frame 3: %w", err)
	var re *ResultError
	require.True(t, errors.As(wrapped, &re))
	assert.Equal(t, ErrorDisplayLost, re.Code)
	assert.Equal(t, ErrorDisplayLost, ResultOf(wrapped))
	assert.Equal(t, Success, ResultOf(nil))
	assert.Equal(t, ErrorServiceError, ResultOf(errors.New("boom")))
}

func TestResultClassification(t *testing.T) {
	assert.True(t, ErrorDisplayLost.IsSessionLost())
	assert.True(t, ErrorInvalidSession.IsSessionLost())
	assert.False(t, ErrorTimeout.IsSessionLost())
	assert.True(t, SuccessNotVisible.Succeeded())
	assert.True(t, ErrorTimeout.Failed())
	assert.Equal(t, "Result(-42)", Result(-42).String())
}

func TestPoseComposeAndInverse(t *testing.T) {
	head := Pose{
		Orientation: math.NewQuatFromAxisAngle(math.NewVec3Up(), math.K_HALF_PI, true),
		Position:    math.NewVec3(0, 1.6, 0),
	}
	offset := Pose{Orientation: math.NewQuatIdentity(), Position: math.NewVec3(0.032, 0, 0)}

	eye := head.Compose(offset)
	// Turned left, the right eye sits behind the head along -z.
	assert.True(t, eye.Position.Compare(math.NewVec3(0, 1.6, -0.032), 1e-5), "got %v", eye.Position)

	back := head.Inverse().Compose(eye)
	assert.True(t, back.Position.Compare(offset.Position, 1e-5))
	assert.True(t, back.Orientation.Compare(math.NewQuatIdentity(), 1e-5))
}

func TestLayerSwapChainsDeduplicates(t *testing.T) {
	layer := &LayerEyeFovDepth{
		ColorTexture: [EyeCount]SwapChain{3, 3},
		DepthTexture: [EyeCount]SwapChain{5, 0},
	}
	assert.Equal(t, []SwapChain{3, 5}, LayerSwapChains(layer))
	assert.Empty(t, LayerSwapChains(&LayerEyeFov{}))
}

func TestTimewarpProjectionDesc(t *testing.T) {
	proj := math.NewMat4FovProjection(1, 1, 1, 1, 0.2, 1000)
	desc := TimewarpProjectionDescFromProjection(proj)
	assert.Equal(t, proj.Data[10], desc.Projection22)
	assert.Equal(t, proj.Data[14], desc.Projection23)
	assert.Equal(t, float32(-1), desc.Projection32)
}
