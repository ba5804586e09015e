package math

func TransformCreate() *Transform {
	return TransformFromPositionRotationScale(NewVec3Zero(), NewVec3Zero(), NewVec3One())
}

func TransformFromPositionRotationScale(position, rotation, scale Vec3) *Transform {
	t := &Transform{}
	t.SetPositionRotationScale(position, rotation, scale)
	t.Local = NewMat4Identity()
	return t
}

func (t *Transform) SetPositionRotationScale(position, rotation, scale Vec3) {
	t.Position = position
	t.Rotation = rotation
	t.Scale = scale
	t.IsDirty = true
}

/**
 * @brief Retrieves the local transformation matrix, rebuilding it first
 * if any of position, rotation or scale changed. Scale is applied first,
 * then rotation, then translation.
 */
func (t *Transform) GetLocal() Mat4 {
	if t.IsDirty {
		s := NewMat4Scale(t.Scale)
		r := NewMat4EulerXYZ(t.Rotation.X, t.Rotation.Y, t.Rotation.Z)
		tr := NewMat4Translation(t.Position)
		t.Local = s.Mul(r).Mul(tr)
		t.IsDirty = false
	}
	return t.Local
}
