package geometry

import (
	"fmt"

	"github.com/spaghettifunk/orbis/engine/math"
)

/**
 * @brief Interleaved vertex data plus a triangle list. A Mesh is created by
 * a generator and is not modified afterwards.
 */
type Mesh struct {
	/** @brief The mesh name, used for logging. */
	Name string
	/** @brief How Vertices is laid out. */
	Format VertexFormat
	/** @brief The flattened vertex buffer, Format.Stride() floats per vertex. */
	Vertices []float32
	/** @brief Three indices per triangle. */
	Indices []uint32
}

func (m *Mesh) VertexCount() int {
	stride := m.Format.Stride()
	if stride == 0 {
		return 0
	}
	return len(m.Vertices) / stride
}

func (m *Mesh) IndexCount() int {
	return len(m.Indices)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *Mesh) vec3At(i, offset int) math.Vec3 {
	base := i*m.Format.Stride() + offset
	return math.NewVec3(m.Vertices[base], m.Vertices[base+1], m.Vertices[base+2])
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) math.Vec3 {
	return m.vec3At(i, 0)
}

// Color returns the color of vertex i.
func (m *Mesh) Color(i int) math.Vec3 {
	return m.vec3At(i, 3)
}

// Normal returns the normal of vertex i. ok is false when the format has no normals.
func (m *Mesh) Normal(i int) (n math.Vec3, ok bool) {
	if !m.Format.HasNormal() {
		return math.Vec3{}, false
	}
	return m.vec3At(i, 6), true
}

// TexCoord returns the texture coordinate of vertex i. ok is false when the format has none.
func (m *Mesh) TexCoord(i int) (uv math.Vec2, ok bool) {
	if !m.Format.HasTexCoord() {
		return math.Vec2{}, false
	}
	base := i*m.Format.Stride() + 9
	return math.NewVec2(m.Vertices[base], m.Vertices[base+1]), true
}

// Triangle returns the positions of triangle t.
func (m *Mesh) Triangle(t int) (math.Vec3, math.Vec3, math.Vec3) {
	return m.Position(int(m.Indices[t*3])),
		m.Position(int(m.Indices[t*3+1])),
		m.Position(int(m.Indices[t*3+2]))
}

// Extents returns the axis aligned bounds of all vertex positions.
func (m *Mesh) Extents() math.Extents3D {
	count := m.VertexCount()
	if count == 0 {
		return math.Extents3D{}
	}
	e := math.NewExtents3DEmpty()
	for i := 0; i < count; i++ {
		e = e.Expand(m.Position(i))
	}
	return e
}

func (m *Mesh) Center() math.Vec3 {
	return m.Extents().Center()
}

// Validate checks the buffer layout and that every index references a vertex.
func (m *Mesh) Validate() error {
	stride := m.Format.Stride()
	if stride == 0 {
		return fmt.Errorf("%w: %q has unknown vertex format %s", ErrInvalidMesh, m.Name, m.Format)
	}
	if len(m.Vertices)%stride != 0 {
		return fmt.Errorf("%w: %q has %d floats, not a multiple of stride %d", ErrInvalidMesh, m.Name, len(m.Vertices), stride)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %q has %d indices, not a multiple of 3", ErrInvalidMesh, m.Name, len(m.Indices))
	}
	count := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= count {
			return fmt.Errorf("%w: %q index %d references vertex %d of %d", ErrInvalidMesh, m.Name, i, idx, count)
		}
	}
	return nil
}
