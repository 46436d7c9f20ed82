package math

func TransformCreate() *Transform {
	t := &Transform{}
	t.SetPositionRotation(NewVec3Zero(), NewQuatIdentity())
	t.Local = NewMat4Identity()
	return t
}

func TransformFromPositionRotation(position Vec3, rotation Quaternion) *Transform {
	t := &Transform{}
	t.SetPositionRotation(position, rotation)
	t.Local = NewMat4Identity()
	return t
}

func (t *Transform) SetPosition(position Vec3) {
	t.Position = position
	t.IsDirty = true
}

func (t *Transform) Translate(translation Vec3) {
	t.Position = t.Position.Add(translation)
	t.IsDirty = true
}

func (t *Transform) SetRotation(rotation Quaternion) {
	t.Rotation = rotation
	t.IsDirty = true
}

func (t *Transform) Rotate(rotation Quaternion) {
	t.Rotation = t.Rotation.Mul(rotation)
	t.IsDirty = true
}

func (t *Transform) SetPositionRotation(position Vec3, rotation Quaternion) {
	t.Position = position
	t.Rotation = rotation
	t.IsDirty = true
}

// Apply maps a point from the transform's local space into world space.
func (t *Transform) Apply(point Vec3) Vec3 {
	if t == nil {
		return point
	}
	return t.Position.Add(t.Rotation.Rotate(point))
}

// ApplyRotation composes the transform's rotation with a local orientation.
func (t *Transform) ApplyRotation(orientation Quaternion) Quaternion {
	if t == nil {
		return orientation
	}
	return t.Rotation.Mul(orientation)
}

func (t *Transform) GetLocal() Mat4 {
	if t != nil {
		if t.IsDirty {
			t.Local = NewMat4Translation(t.Position).Mul(t.Rotation.ToMat4())
			t.IsDirty = false
		}
		return t.Local
	}
	return NewMat4Identity()
}
