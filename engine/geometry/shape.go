package geometry

import (
	"fmt"
	m "math"

	"github.com/spaghettifunk/orbis/engine/math"
)

// Shape is a set of generator parameters.
type Shape interface {
	// Generate builds a new mesh from the parameters.
	Generate() (*Mesh, error)
	// Key identifies the parameters. Equal keys generate identical meshes.
	Key() string
}

var (
	_ Shape = SphereParams{}
	_ Shape = CubeParams{}
	_ Shape = PlaneParams{}
)

// MaxVertexCount bounds the grid generators. Indices are uint32 and a mesh
// this size already takes several hundred MB of vertex data.
const MaxVertexCount = 1 << 24

// gridVertexCount is (cols+1)*(rows+1), saturated above MaxVertexCount.
func gridVertexCount(cols, rows int) int {
	if cols >= MaxVertexCount || rows >= MaxVertexCount {
		return MaxVertexCount + 1
	}
	n := int64(cols+1) * int64(rows+1)
	if n > MaxVertexCount {
		return MaxVertexCount + 1
	}
	return int(n)
}

func isPositiveFinite(v float32) bool {
	f := float64(v)
	return f > 0 && !m.IsInf(f, 0) && !m.IsNaN(f)
}

func colorKey(c math.Vec3) string {
	return fmt.Sprintf("%g,%g,%g", c.X, c.Y, c.Z)
}
