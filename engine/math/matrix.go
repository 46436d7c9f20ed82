package math

/**
 * @brief Creates and returns an identity matrix:
 *
 * {
 *   {1, 0, 0, 0},
 *   {0, 1, 0, 0},
 *   {0, 0, 1, 0},
 *   {0, 0, 0, 1}
 * }
 *
 * @return A new identity matrix
 */
func NewMat4Identity() Mat4 {
	out_matrix := Mat4{}
	out_matrix.Data[0] = 1.0
	out_matrix.Data[5] = 1.0
	out_matrix.Data[10] = 1.0
	out_matrix.Data[15] = 1.0
	return out_matrix
}

/**
 * @brief Returns mt × other. Applied to a vector, other acts first, so a
 * combined view-projection is written projection.Mul(view).
 *
 * @param other The right-hand matrix.
 * @return The result of the matrix multiplication.
 */
func (mt Mat4) Mul(other Mat4) Mat4 {
	out_matrix := Mat4{}

	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			sum := float32(0)
			for i := 0; i < 4; i++ {
				sum += mt.Data[i*4+row] * other.Data[col*4+i]
			}
			out_matrix.Data[col*4+row] = sum
		}
	}

	return out_matrix
}

/**
 * @brief Returns the element at the given row and column.
 */
func (mt Mat4) At(row, col int) float32 {
	return mt.Data[col*4+row]
}

/**
 * @brief Creates and returns a translation matrix from the given position.
 */
func NewMat4Translation(position Vec3) Mat4 {
	out_matrix := NewMat4Identity()
	out_matrix.Data[12] = position.X
	out_matrix.Data[13] = position.Y
	out_matrix.Data[14] = position.Z
	return out_matrix
}

/**
 * @brief Creates and returns a right-handed look-at matrix, or a matrix
 * looking at target from the perspective of position. The camera looks
 * down its local -z axis, so position is mapped to the eye-space origin.
 *
 * @param position The position of the camera.
 * @param target The position to "look at".
 * @param up The up vector.
 * @return A view matrix.
 */
func NewMat4LookAtRH(position, target, up Vec3) Mat4 {
	z_axis := position.Sub(target).Normalize()
	x_axis := up.Cross(z_axis).Normalize()
	y_axis := z_axis.Cross(x_axis)

	out_matrix := Mat4{}
	out_matrix.Data[0] = x_axis.X
	out_matrix.Data[1] = y_axis.X
	out_matrix.Data[2] = z_axis.X
	out_matrix.Data[3] = 0
	out_matrix.Data[4] = x_axis.Y
	out_matrix.Data[5] = y_axis.Y
	out_matrix.Data[6] = z_axis.Y
	out_matrix.Data[7] = 0
	out_matrix.Data[8] = x_axis.Z
	out_matrix.Data[9] = y_axis.Z
	out_matrix.Data[10] = z_axis.Z
	out_matrix.Data[11] = 0
	out_matrix.Data[12] = -x_axis.Dot(position)
	out_matrix.Data[13] = -y_axis.Dot(position)
	out_matrix.Data[14] = -z_axis.Dot(position)
	out_matrix.Data[15] = 1.0

	return out_matrix
}

/**
 * @brief Creates a right-handed, off-center perspective projection from the
 * tangents of the four half-angles of a field of view. Depth maps to the
 * [0, 1] clip range with near at 0, and no axis is flipped.
 *
 * @param up_tan Tangent of the angle from the view axis to the top edge.
 * @param down_tan Tangent of the angle from the view axis to the bottom edge.
 * @param left_tan Tangent of the angle from the view axis to the left edge.
 * @param right_tan Tangent of the angle from the view axis to the right edge.
 * @param near_clip The near clipping plane distance.
 * @param far_clip The far clipping plane distance.
 * @return A new perspective matrix.
 */
func NewMat4FovProjection(up_tan, down_tan, left_tan, right_tan, near_clip, far_clip float32) Mat4 {
	x_scale := 2.0 / (left_tan + right_tan)
	x_offset := (right_tan - left_tan) / (left_tan + right_tan)
	y_scale := 2.0 / (up_tan + down_tan)
	y_offset := (up_tan - down_tan) / (up_tan + down_tan)

	out_matrix := Mat4{}
	out_matrix.Data[0] = x_scale
	out_matrix.Data[8] = x_offset
	out_matrix.Data[5] = y_scale
	out_matrix.Data[9] = y_offset
	out_matrix.Data[10] = far_clip / (near_clip - far_clip)
	out_matrix.Data[14] = (far_clip * near_clip) / (near_clip - far_clip)
	out_matrix.Data[11] = -1.0
	return out_matrix
}
