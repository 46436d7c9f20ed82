package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-5

func assertMatEqual(t *testing.T, want [16]float32, got Mat4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got.Data[i], tolerance, "element %d", i)
	}
}

func TestMat4MulOrder(t *testing.T) {
	translate := NewMat4Translation(NewVec3(1, 2, 3))
	rotate := NewQuatFromAxisAngle(NewVec3Up(), K_HALF_PI, true).ToMat4()

	// Rotation first, then translation.
	p := NewVec3(1, 0, 0).Transform(translate.Mul(rotate))
	assert.True(t, p.Compare(NewVec3(1, 2, 2), tolerance), "got %v", p)

	want := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(K_HALF_PI))
	assertMatEqual(t, want, translate.Mul(rotate))
	assertMatEqual(t, NewMat4Identity().Data, NewMat4Identity().Mul(NewMat4Identity()))
}

func TestLookAtMatchesMathgl(t *testing.T) {
	cases := []struct{ eye, target, up Vec3 }{
		{NewVec3(0, 0, 0), NewVec3(0, 0, -1), NewVec3(0, 1, 0)},
		{NewVec3(1, 1.6, 2), NewVec3(0.5, 1.2, -3), NewVec3(0, 1, 0)},
		{NewVec3(-3, 0.2, 4), NewVec3(2, 2, 2), NewVec3(0.1, 0.9, 0.2)},
	}
	for _, c := range cases {
		want := mgl32.LookAtV(
			mgl32.Vec3{c.eye.X, c.eye.Y, c.eye.Z},
			mgl32.Vec3{c.target.X, c.target.Y, c.target.Z},
			mgl32.Vec3{c.up.X, c.up.Y, c.up.Z},
		)
		assertMatEqual(t, want, NewMat4LookAtRH(c.eye, c.target, c.up))
	}
}

func TestFovProjectionMatchesFrustum(t *testing.T) {
	up, down, left, right := float32(1.3), float32(1.1), float32(1.06), float32(1.09)
	near, far := float32(0.2), float32(1000)
	got := NewMat4FovProjection(up, down, left, right, near, far)
	want := mgl32.Frustum(-left*near, right*near, -down*near, up*near, near, far)

	// X and Y agree with an OpenGL frustum; depth differs because the
	// projection maps to [0, 1].
	for _, i := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 11, 12, 13, 15} {
		assert.InDelta(t, want[i], got.Data[i], tolerance, "element %d", i)
	}
}

func TestFovProjectionDepthRange(t *testing.T) {
	near, far := float32(0.2), float32(1000)
	proj := NewMat4FovProjection(1, 1, 1, 1, near, far)

	ndcZ := func(distance float32) float32 {
		clip := NewVec4(0, 0, -distance, 1).Transform(proj)
		return clip.Z / clip.W
	}
	assert.InDelta(t, 0, ndcZ(near), tolerance)
	assert.InDelta(t, 1, ndcZ(far), 1e-3)

	// The FOV edges land on the clip-space borders.
	edge := NewVec4(1, -1, -1, 1).Transform(proj)
	assert.InDelta(t, 1, edge.X/edge.W, tolerance)
	assert.InDelta(t, -1, edge.Y/edge.W, tolerance)
}

func TestQuaternionToMat4MatchesMathgl(t *testing.T) {
	q := NewQuatFromAxisAngle(NewVec3(1, 2, 3).Normalize(), 0.8, true)
	mq := mgl32.QuatRotate(0.8, mgl32.Vec3{1, 2, 3}.Normalize())
	assertMatEqual(t, mq.Mat4(), q.ToMat4())

	v := NewVec3(0.3, -2, 5)
	rotated := q.Rotate(v)
	mv := mq.Rotate(mgl32.Vec3{v.X, v.Y, v.Z})
	assert.True(t, rotated.Compare(NewVec3(mv[0], mv[1], mv[2]), 1e-4))
}

func TestYawPitchRoll(t *testing.T) {
	yaw, pitch, roll := NewQuatFromAxisAngle(NewVec3Up(), 0.5, true).YawPitchRoll()
	assert.InDelta(t, 0.5, yaw, tolerance)
	assert.InDelta(t, 0, pitch, tolerance)
	assert.InDelta(t, 0, roll, tolerance)

	_, pitch, _ = NewQuatFromAxisAngle(NewVec3(1, 0, 0), -0.3, true).YawPitchRoll()
	assert.InDelta(t, -0.3, pitch, tolerance)
}

func TestQuaternionInverse(t *testing.T) {
	q := NewQuatFromAxisAngle(NewVec3(0, 1, 1).Normalize(), 1.2, true)
	assert.True(t, q.Mul(q.Inverse()).Compare(NewQuatIdentity(), tolerance))
}

func TestTransformApply(t *testing.T) {
	tr := TransformFromPositionRotation(NewVec3(10, 0, 0), NewQuatFromAxisAngle(NewVec3Up(), K_HALF_PI, true))
	p := tr.Apply(NewVec3(0, 0, -1))
	assert.True(t, p.Compare(NewVec3(9, 0, 0), tolerance), "got %v", p)
	assert.True(t, tr.GetLocal().Data[12] == 10)

	var none *Transform
	assert.Equal(t, NewVec3(1, 2, 3), none.Apply(NewVec3(1, 2, 3)))
}
