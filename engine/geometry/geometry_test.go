package geometry

import (
	"errors"
	m "math"
	"reflect"
	"testing"

	"github.com/spaghettifunk/orbis/engine/math"
)

const tolerance = 1e-5

var red = math.NewVec3(1, 0, 0)

func approx(a, b float32) bool {
	return m.Abs(float64(a-b)) <= tolerance
}

// every triangle normal must point away from the mesh center
func assertOutwardWinding(t *testing.T, mesh *Mesh) {
	t.Helper()
	center := mesh.Center()
	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		a, b, c := mesh.Triangle(tri)
		n := math.FaceNormal(a, b, c)
		if n.LengthSquared() == 0 {
			t.Fatalf("triangle %d is degenerate", tri)
		}
		if d := n.Dot(math.Centroid(a, b, c).Sub(center)); d <= 0 {
			t.Fatalf("triangle %d faces inwards (dot=%f)", tri, d)
		}
	}
}

func TestSphereCounts(t *testing.T) {
	tests := []struct {
		sectors, stacks int
	}{
		{3, 2}, {4, 2}, {8, 6}, {30, 30}, {36, 18},
	}
	for _, tt := range tests {
		mesh, err := GenerateSphere(SphereParams{Radius: 1, Sectors: tt.sectors, Stacks: tt.stacks, Color: red})
		if err != nil {
			t.Fatalf("%dx%d: %v", tt.sectors, tt.stacks, err)
		}
		if got, want := mesh.VertexCount(), (tt.sectors+1)*(tt.stacks+1); got != want {
			t.Errorf("%dx%d: vertex count %d, want %d", tt.sectors, tt.stacks, got, want)
		}
		if got, want := mesh.IndexCount(), 6*tt.sectors*(tt.stacks-1); got != want {
			t.Errorf("%dx%d: index count %d, want %d", tt.sectors, tt.stacks, got, want)
		}
		if err := mesh.Validate(); err != nil {
			t.Errorf("%dx%d: %v", tt.sectors, tt.stacks, err)
		}
		if mesh.Format != FormatPositionColorNormalUV {
			t.Errorf("unexpected format %s", mesh.Format)
		}
	}
}

func TestSphereVertexAttributes(t *testing.T) {
	const radius = 2.5
	color := math.NewVec3(0.2, 0.4, 0.6)
	mesh, err := GenerateSphere(SphereParams{Radius: radius, Sectors: 12, Stacks: 7, Color: color})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < mesh.VertexCount(); i++ {
		n, ok := mesh.Normal(i)
		if !ok {
			t.Fatalf("sphere vertices must carry normals")
		}
		if l := n.Length(); !approx(l, 1) {
			t.Fatalf("vertex %d normal length %f", i, l)
		}
		if p := mesh.Position(i); !p.Compare(n.MulScalar(radius), 1e-4) {
			t.Fatalf("vertex %d position %v != normal*r %v", i, p, n.MulScalar(radius))
		}
		if mesh.Color(i) != color {
			t.Fatalf("vertex %d color %v", i, mesh.Color(i))
		}
		uv, ok := mesh.TexCoord(i)
		if !ok || uv.X < 0 || uv.X > 1 || uv.Y < 0 || uv.Y > 1 {
			t.Fatalf("vertex %d uv %v out of range", i, uv)
		}
	}
}

func TestSphereSmallestExample(t *testing.T) {
	mesh, err := GenerateSphere(SphereParams{Radius: 1, Sectors: 4, Stacks: 2, Color: red})
	if err != nil {
		t.Fatal(err)
	}
	if mesh.VertexCount() != 15 || mesh.IndexCount() != 24 {
		t.Fatalf("got %d vertices and %d indices", mesh.VertexCount(), mesh.IndexCount())
	}

	// ring 0 is the north pole, ring 2 the south pole
	for j := 0; j <= 4; j++ {
		if p := mesh.Position(j); !p.Compare(math.NewVec3(0, 0, 1), tolerance) {
			t.Fatalf("north pole vertex %d at %v", j, p)
		}
		if p := mesh.Position(10 + j); !p.Compare(math.NewVec3(0, 0, -1), tolerance) {
			t.Fatalf("south pole vertex %d at %v", j, p)
		}
	}

	// equator
	if p := mesh.Position(5); !p.Compare(math.NewVec3(1, 0, 0), tolerance) {
		t.Fatalf("equator start at %v", p)
	}
	if p := mesh.Position(6); !p.Compare(math.NewVec3(0, 1, 0), tolerance) {
		t.Fatalf("equator quarter at %v", p)
	}

	// seam vertices share a position but not a texture coordinate
	if !mesh.Position(5).Compare(mesh.Position(9), tolerance) {
		t.Fatalf("seam positions differ")
	}
	uvStart, _ := mesh.TexCoord(5)
	uvEnd, _ := mesh.TexCoord(9)
	if uvStart.X != 0 || uvEnd.X != 1 {
		t.Fatalf("seam uvs %v %v", uvStart, uvEnd)
	}

	wantFirst := []uint32{5, 6, 1}
	if !reflect.DeepEqual(mesh.Indices[:3], wantFirst) {
		t.Fatalf("first triangle %v, want %v", mesh.Indices[:3], wantFirst)
	}
}

func TestSphereWinding(t *testing.T) {
	mesh, err := GenerateSphere(SphereParams{Radius: 3, Sectors: 16, Stacks: 9, Color: red})
	if err != nil {
		t.Fatal(err)
	}
	assertOutwardWinding(t, mesh)
}

func TestSphereScaling(t *testing.T) {
	base, _ := GenerateSphere(SphereParams{Radius: 1, Sectors: 10, Stacks: 5, Color: red})
	scaled, _ := GenerateSphere(SphereParams{Radius: 4, Sectors: 10, Stacks: 5, Color: red})
	for i := 0; i < base.VertexCount(); i++ {
		if !scaled.Position(i).Compare(base.Position(i).MulScalar(4), 1e-4) {
			t.Fatalf("vertex %d does not scale linearly", i)
		}
		nb, _ := base.Normal(i)
		ns, _ := scaled.Normal(i)
		if !nb.Compare(ns, tolerance) {
			t.Fatalf("vertex %d normal changed with radius", i)
		}
	}
	if !reflect.DeepEqual(base.Indices, scaled.Indices) {
		t.Fatalf("topology changed with radius")
	}
}

func TestCubeExample(t *testing.T) {
	mesh, err := GenerateCube(CubeParams{Size: 2, Color: red})
	if err != nil {
		t.Fatal(err)
	}
	if mesh.VertexCount() != 8 || mesh.IndexCount() != 36 {
		t.Fatalf("got %d vertices and %d indices", mesh.VertexCount(), mesh.IndexCount())
	}
	if _, ok := mesh.Normal(0); ok {
		t.Fatalf("cube format has no normals")
	}
	seen := map[math.Vec3]bool{}
	for i := 0; i < 8; i++ {
		p := mesh.Position(i)
		for _, c := range []float32{p.X, p.Y, p.Z} {
			if c != 1 && c != -1 {
				t.Fatalf("corner %d at %v", i, p)
			}
		}
		seen[p] = true
		if mesh.Color(i) != red {
			t.Fatalf("corner %d color %v", i, mesh.Color(i))
		}
	}
	if len(seen) != 8 {
		t.Fatalf("corners are not distinct")
	}
	if err := mesh.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestCubeSizes(t *testing.T) {
	for _, size := range []float32{0.5, 1, 1.2, 1.5, 2, 10} {
		mesh, err := GenerateCube(CubeParams{Size: size, Color: red})
		if err != nil {
			t.Fatalf("size %v: %v", size, err)
		}
		e := mesh.Extents()
		h := size / 2
		if !e.Min.Compare(math.NewVec3(-h, -h, -h), tolerance) || !e.Max.Compare(math.NewVec3(h, h, h), tolerance) {
			t.Fatalf("size %v: extents %+v", size, e)
		}
		assertOutwardWinding(t, mesh)

		// each face uses exactly four corners
		for f := 0; f < 6; f++ {
			corners := map[uint32]bool{}
			for _, idx := range mesh.Indices[f*6 : f*6+6] {
				corners[idx] = true
			}
			if len(corners) != 4 {
				t.Fatalf("face %d uses %d corners", f, len(corners))
			}
		}
	}
}

func TestPlane(t *testing.T) {
	tests := []struct {
		name     string
		params   PlaneParams
		vertices int
		indices  int
	}{
		{"ground", DefaultGround(), 4, 6},
		{"grid", PlaneParams{Size: 4, Segments: 4, Color: red}, 25, 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := GeneratePlane(tt.params)
			if err != nil {
				t.Fatal(err)
			}
			if mesh.VertexCount() != tt.vertices || mesh.IndexCount() != tt.indices {
				t.Fatalf("got %d vertices and %d indices", mesh.VertexCount(), mesh.IndexCount())
			}
			if err := mesh.Validate(); err != nil {
				t.Fatal(err)
			}
			for tri := 0; tri < mesh.TriangleCount(); tri++ {
				n := math.FaceNormal(mesh.Triangle(tri))
				if !n.Compare(math.NewVec3Up(), tolerance) {
					t.Fatalf("triangle %d normal %v, want +Y", tri, n)
				}
			}
			h := tt.params.Size / 2
			e := mesh.Extents()
			if !e.Min.Compare(math.NewVec3(-h, 0, -h), tolerance) || !e.Max.Compare(math.NewVec3(h, 0, h), tolerance) {
				t.Fatalf("extents %+v", e)
			}
		})
	}
}

func TestInvalidShapes(t *testing.T) {
	nan := float32(m.NaN())
	inf := float32(m.Inf(1))
	tests := []struct {
		name  string
		shape Shape
	}{
		{"sphere zero radius", SphereParams{Radius: 0, Sectors: 8, Stacks: 8}},
		{"sphere negative radius", SphereParams{Radius: -1, Sectors: 8, Stacks: 8}},
		{"sphere nan radius", SphereParams{Radius: nan, Sectors: 8, Stacks: 8}},
		{"sphere inf radius", SphereParams{Radius: inf, Sectors: 8, Stacks: 8}},
		{"sphere two sectors", SphereParams{Radius: 1, Sectors: 2, Stacks: 8}},
		{"sphere one stack", SphereParams{Radius: 1, Sectors: 8, Stacks: 1}},
		{"sphere zero stacks", SphereParams{Radius: 1, Sectors: 8, Stacks: 0}},
		{"sphere huge sectors", SphereParams{Radius: 1, Sectors: m.MaxInt, Stacks: 2}},
		{"sphere huge stacks", SphereParams{Radius: 1, Sectors: 3, Stacks: m.MaxInt}},
		{"sphere over vertex cap", SphereParams{Radius: 1, Sectors: 1 << 12, Stacks: 1 << 12}},
		{"cube zero", CubeParams{Size: 0}},
		{"cube negative", CubeParams{Size: -2}},
		{"cube nan", CubeParams{Size: nan}},
		{"plane zero", PlaneParams{Size: 0, Segments: 1}},
		{"plane no segments", PlaneParams{Size: 1, Segments: 0}},
		{"plane huge segments", PlaneParams{Size: 1, Segments: m.MaxInt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := tt.shape.Generate()
			if !errors.Is(err, ErrInvalidShape) {
				t.Fatalf("expected ErrInvalidShape, got %v", err)
			}
			if mesh != nil {
				t.Fatalf("expected no mesh")
			}
		})
	}
}

func TestGenerationIsDeterministic(t *testing.T) {
	shapes := []Shape{
		SphereParams{Radius: 1.3, Sectors: 30, Stacks: 30, Color: red},
		CubeParams{Size: 1.2, Color: math.NewVec3(1, 0.5, 0)},
		PlaneParams{Size: 20, Segments: 3, Color: red},
	}
	for _, s := range shapes {
		a, err := s.Generate()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := s.Generate()
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%s: two generations differ", s.Key())
		}
		if &a.Vertices[0] == &b.Vertices[0] {
			t.Fatalf("%s: generations share storage", s.Key())
		}
	}
}

func TestShapeKeys(t *testing.T) {
	a := SphereParams{Radius: 1, Sectors: 30, Stacks: 30, Color: red}
	b := a
	c := a
	c.Color = math.NewVec3(0, 0, 1)
	if a.Key() != b.Key() {
		t.Fatalf("equal params produce different keys")
	}
	if a.Key() == c.Key() {
		t.Fatalf("different colors share a key")
	}
	if (CubeParams{Size: 1}).Key() == (PlaneParams{Size: 1, Segments: 1}).Key() {
		t.Fatalf("cube and plane share a key")
	}
}

func TestMeshValidate(t *testing.T) {
	tests := []struct {
		name string
		mesh Mesh
	}{
		{"ragged vertices", Mesh{Format: FormatPositionColor, Vertices: make([]float32, 7)}},
		{"partial triangle", Mesh{Format: FormatPositionColor, Vertices: make([]float32, 18), Indices: []uint32{0, 1}}},
		{"index out of range", Mesh{Format: FormatPositionColor, Vertices: make([]float32, 18), Indices: []uint32{0, 1, 3}}},
		{"unknown format", Mesh{Format: VertexFormat(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.mesh.Validate(); !errors.Is(err, ErrInvalidMesh) {
				t.Fatalf("expected ErrInvalidMesh, got %v", err)
			}
		})
	}
}

func TestFormatAttributes(t *testing.T) {
	tests := []struct {
		format      VertexFormat
		stride      int
		strideBytes uint32
		attrs       int
	}{
		{FormatPositionColor, 6, 24, 2},
		{FormatPositionColorNormalUV, 11, 44, 4},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if tt.format.Stride() != tt.stride || tt.format.StrideBytes() != tt.strideBytes {
				t.Fatalf("stride %d (%d bytes)", tt.format.Stride(), tt.format.StrideBytes())
			}
			attrs := tt.format.Attributes()
			if len(attrs) != tt.attrs {
				t.Fatalf("got %d attributes", len(attrs))
			}
			end := uint32(0)
			for i, a := range attrs {
				if a.Location != uint32(i) || a.Offset != end {
					t.Fatalf("attribute %d = %+v", i, a)
				}
				end += a.Components
			}
			if int(end) != tt.stride {
				t.Fatalf("attributes cover %d floats, stride is %d", end, tt.stride)
			}
		})
	}
}
