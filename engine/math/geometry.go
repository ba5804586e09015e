package math

/**
 * @brief Calculates the normal of the triangle (v0, v1, v2). The result
 * points towards the side from which the vertices appear counter-clockwise.
 * NOTE: This just generates a face normal, no smoothing is applied.
 */
func FaceNormal(v0, v1, v2 Vec3) Vec3 {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	return edge1.Cross(edge2).Normalize()
}

/**
 * @brief Returns the centroid of the triangle (v0, v1, v2).
 */
func Centroid(v0, v1, v2 Vec3) Vec3 {
	return v0.Add(v1).Add(v2).MulScalar(1.0 / 3.0)
}

/**
 * @brief Returns empty extents, ready to be grown with Expand.
 */
func NewExtents3DEmpty() Extents3D {
	return Extents3D{
		Min: Vec3{K_INFINITY, K_INFINITY, K_INFINITY},
		Max: Vec3{-K_INFINITY, -K_INFINITY, -K_INFINITY},
	}
}

/**
 * @brief Grows the extents so they include the given point.
 */
func (e Extents3D) Expand(point Vec3) Extents3D {
	return Extents3D{
		Min: e.Min.Min(point),
		Max: e.Max.Max(point),
	}
}

func (e Extents3D) Center() Vec3 {
	return e.Min.Add(e.Max).MulScalar(0.5)
}

func (e Extents3D) Size() Vec3 {
	return e.Max.Sub(e.Min)
}
