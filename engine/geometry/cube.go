package geometry

import (
	"fmt"

	"github.com/spaghettifunk/orbis/engine/math"
)

/**
 * @brief The parameters of an axis aligned cube centered at the origin.
 */
type CubeParams struct {
	/** @brief The edge length, must be positive. */
	Size float32
	/** @brief RGB color in [0, 1] applied to every vertex. */
	Color math.Vec3
}

func (p CubeParams) Validate() error {
	if !isPositiveFinite(p.Size) {
		return fmt.Errorf("%w: cube size must be positive and finite, got %v", ErrInvalidShape, p.Size)
	}
	return nil
}

// Generate implements Shape.
func (p CubeParams) Generate() (*Mesh, error) {
	return GenerateCube(p)
}

// Key implements Shape.
func (p CubeParams) Key() string {
	return fmt.Sprintf("cube:size=%g:color=%s", p.Size, colorKey(p.Color))
}

// Two triangles per face, counter-clockwise seen from outside the cube.
var cubeIndices = [36]uint32{
	0, 1, 2, 2, 3, 0, // front  (+z)
	5, 4, 7, 7, 6, 5, // back   (-z)
	4, 0, 3, 3, 7, 4, // left   (-x)
	1, 5, 6, 6, 2, 1, // right  (+x)
	3, 2, 6, 6, 7, 3, // top    (+y)
	4, 5, 1, 1, 0, 4, // bottom (-y)
}

/**
 * @brief Generates a cube with 8 shared corners in the position/color format.
 * Corners 0-3 lie on the front face (z = +size/2) and corners 4-7 on the back
 * face, both in the order (-x,-y) (+x,-y) (+x,+y) (-x,+y).
 *
 * @param p The cube parameters.
 * @returns A new mesh, or an error wrapping ErrInvalidShape.
 */
func GenerateCube(p CubeParams) (*Mesh, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	h := p.Size * 0.5
	corners := [8]math.Vec3{
		{X: -h, Y: -h, Z: h},
		{X: h, Y: -h, Z: h},
		{X: h, Y: h, Z: h},
		{X: -h, Y: h, Z: h},
		{X: -h, Y: -h, Z: -h},
		{X: h, Y: -h, Z: -h},
		{X: h, Y: h, Z: -h},
		{X: -h, Y: h, Z: -h},
	}

	format := FormatPositionColor
	vertices := make([]float32, 0, len(corners)*format.Stride())
	for _, c := range corners {
		vertices = append(vertices, c.X, c.Y, c.Z, p.Color.X, p.Color.Y, p.Color.Z)
	}

	indices := make([]uint32, len(cubeIndices))
	copy(indices, cubeIndices[:])

	return &Mesh{
		Name:     fmt.Sprintf("cube_%g", p.Size),
		Format:   format,
		Vertices: vertices,
		Indices:  indices,
	}, nil
}
