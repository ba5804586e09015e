package geometry

import (
	"fmt"

	"github.com/spaghettifunk/orbis/engine/math"
)

/**
 * @brief The parameters of a square ground grid in the XZ plane at y = 0.
 */
type PlaneParams struct {
	/** @brief The edge length, must be positive. */
	Size float32
	/** @brief Cells per edge, at least 1. */
	Segments int
	/** @brief RGB color in [0, 1] applied to every vertex. */
	Color math.Vec3
}

// DefaultGround is the 20x20 green ground of the demo scene.
func DefaultGround() PlaneParams {
	return PlaneParams{
		Size:     20.0,
		Segments: 1,
		Color:    math.NewVec3(0.0, 0.8, 0.0),
	}
}

func (p PlaneParams) Validate() error {
	if !isPositiveFinite(p.Size) {
		return fmt.Errorf("%w: plane size must be positive and finite, got %v", ErrInvalidShape, p.Size)
	}
	if p.Segments < 1 {
		return fmt.Errorf("%w: plane needs at least 1 segment, got %d", ErrInvalidShape, p.Segments)
	}
	if gridVertexCount(p.Segments, p.Segments) > MaxVertexCount {
		return fmt.Errorf("%w: plane with %d segments exceeds %d vertices", ErrInvalidShape, p.Segments, MaxVertexCount)
	}
	return nil
}

// Generate implements Shape.
func (p PlaneParams) Generate() (*Mesh, error) {
	return GeneratePlane(p)
}

// Key implements Shape.
func (p PlaneParams) Key() string {
	return fmt.Sprintf("plane:size=%g:segments=%d:color=%s", p.Size, p.Segments, colorKey(p.Color))
}

/**
 * @brief Generates a grid of Segments x Segments cells with shared vertices,
 * in the position/color format. Every triangle faces +Y.
 *
 * @param p The plane parameters.
 * @returns A new mesh, or an error wrapping ErrInvalidShape.
 */
func GeneratePlane(p PlaneParams) (*Mesh, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	segments := p.Segments
	half := float64(p.Size) * 0.5
	step := float64(p.Size) / float64(segments)
	row := uint32(segments + 1)

	format := FormatPositionColor
	vertices := make([]float32, 0, (segments+1)*(segments+1)*format.Stride())
	for zi := 0; zi <= segments; zi++ {
		z := -half + float64(zi)*step
		for xi := 0; xi <= segments; xi++ {
			x := -half + float64(xi)*step
			vertices = append(vertices, float32(x), 0, float32(z), p.Color.X, p.Color.Y, p.Color.Z)
		}
	}

	indices := make([]uint32, 0, 6*segments*segments)
	for zi := uint32(0); zi < uint32(segments); zi++ {
		for xi := uint32(0); xi < uint32(segments); xi++ {
			v0 := zi*row + xi // (x0, z0)
			v1 := v0 + 1      // (x1, z0)
			v2 := v1 + row    // (x1, z1)
			v3 := v0 + row    // (x0, z1)
			indices = append(indices, v0, v2, v1, v0, v3, v2)
		}
	}

	return &Mesh{
		Name:     fmt.Sprintf("plane_%g_%d", p.Size, segments),
		Format:   format,
		Vertices: vertices,
		Indices:  indices,
	}, nil
}
