package geometry

import (
	"fmt"
	m "math"

	"github.com/spaghettifunk/orbis/engine/math"
)

/**
 * @brief The parameters of a UV sphere centered at the origin.
 */
type SphereParams struct {
	/** @brief The sphere radius, must be positive. */
	Radius float32
	/** @brief Longitude divisions, at least 3. */
	Sectors int
	/** @brief Latitude divisions, at least 2. */
	Stacks int
	/** @brief RGB color in [0, 1] applied to every vertex. */
	Color math.Vec3
}

func (p SphereParams) Validate() error {
	if !isPositiveFinite(p.Radius) {
		return fmt.Errorf("%w: sphere radius must be positive and finite, got %v", ErrInvalidShape, p.Radius)
	}
	if p.Sectors < 3 {
		return fmt.Errorf("%w: sphere needs at least 3 sectors, got %d", ErrInvalidShape, p.Sectors)
	}
	if p.Stacks < 2 {
		return fmt.Errorf("%w: sphere needs at least 2 stacks, got %d", ErrInvalidShape, p.Stacks)
	}
	if gridVertexCount(p.Sectors, p.Stacks) > MaxVertexCount {
		return fmt.Errorf("%w: sphere with %d sectors and %d stacks exceeds %d vertices", ErrInvalidShape, p.Sectors, p.Stacks, MaxVertexCount)
	}
	return nil
}

// Generate implements Shape.
func (p SphereParams) Generate() (*Mesh, error) {
	return GenerateSphere(p)
}

// Key implements Shape.
func (p SphereParams) Key() string {
	return fmt.Sprintf("sphere:r=%g:sectors=%d:stacks=%d:color=%s", p.Radius, p.Sectors, p.Stacks, colorKey(p.Color))
}

/**
 * @brief Generates a UV sphere in the position/color/normal/uv format.
 * Rings go from the north pole (+Z) to the south pole (-Z). Every ring has
 * sectors+1 vertices: the first and last share a position so the seam gets
 * distinct texture coordinates. The pole cells emit a single triangle.
 *
 * @param p The sphere parameters.
 * @returns A new mesh, or an error wrapping ErrInvalidShape.
 */
func GenerateSphere(p SphereParams) (*Mesh, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sectors, stacks := p.Sectors, p.Stacks
	radius := float64(p.Radius)
	invRadius := 1.0 / radius
	sectorStep := 2 * m.Pi / float64(sectors)
	stackStep := m.Pi / float64(stacks)

	format := FormatPositionColorNormalUV
	stride := format.Stride()
	vertexCount := (sectors + 1) * (stacks + 1)
	vertices := make([]float32, 0, vertexCount*stride)

	for i := 0; i <= stacks; i++ {
		// from pi/2 to -pi/2
		stackAngle := m.Pi/2 - float64(i)*stackStep
		xy := radius * m.Cos(stackAngle)
		z := radius * m.Sin(stackAngle)

		for j := 0; j <= sectors; j++ {
			sectorAngle := float64(j) * sectorStep

			x := xy * m.Cos(sectorAngle)
			y := xy * m.Sin(sectorAngle)

			vertices = append(vertices,
				float32(x), float32(y), float32(z),
				p.Color.X, p.Color.Y, p.Color.Z,
				float32(x*invRadius), float32(y*invRadius), float32(z*invRadius),
				float32(float64(j)/float64(sectors)), float32(float64(i)/float64(stacks)),
			)
		}
	}

	indices := make([]uint32, 0, 6*sectors*(stacks-1))
	for i := 0; i < stacks; i++ {
		k1 := uint32(i * (sectors + 1))
		k2 := k1 + uint32(sectors) + 1

		for j := 0; j < sectors; j, k1, k2 = j+1, k1+1, k2+1 {
			if i != 0 {
				indices = append(indices, k1, k2, k1+1)
			}
			if i != stacks-1 {
				indices = append(indices, k2, k2+1, k1+1)
			}
		}
	}

	return &Mesh{
		Name:     fmt.Sprintf("sphere_%d_%d", sectors, stacks),
		Format:   format,
		Vertices: vertices,
		Indices:  indices,
	}, nil
}
