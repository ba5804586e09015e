package math

import (
	m "math"
	"testing"
)

const tolerance = 1e-5

func TestVec3Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	if got := x.Cross(y); !got.Compare(NewVec3(0, 0, 1), tolerance) {
		t.Fatalf("x cross y = %v, want +Z", got)
	}
	if got := y.Cross(x); !got.Compare(NewVec3(0, 0, -1), tolerance) {
		t.Fatalf("y cross x = %v, want -Z", got)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := NewVec3Zero().Normalize(); got != NewVec3Zero() {
		t.Fatalf("normalizing zero vector gave %v", got)
	}
	if got := NewVec3(3, 0, 4).Normalize().Length(); kabs(got-1) > tolerance {
		t.Fatalf("length after normalize = %f", got)
	}
}

func TestMat4MulIdentity(t *testing.T) {
	tr := NewMat4Translation(NewVec3(1, 2, 3))
	if got := tr.Mul(NewMat4Identity()); !got.Compare(tr, tolerance) {
		t.Fatalf("m * I != m")
	}
	if got := NewMat4Identity().Mul(tr); !got.Compare(tr, tolerance) {
		t.Fatalf("I * m != m")
	}
}

func TestMat4MulOrder(t *testing.T) {
	// scale first, then translate: (1,0,0) -> (2,0,0) -> (2,5,0)
	s := NewMat4Scale(NewVec3(2, 2, 2))
	tr := NewMat4Translation(NewVec3(0, 5, 0))
	got := NewVec3(1, 0, 0).Transform(s.Mul(tr))
	if !got.Compare(NewVec3(2, 5, 0), tolerance) {
		t.Fatalf("got %v, want (2,5,0)", got)
	}
}

func TestLookAt(t *testing.T) {
	eye := NewVec3(0, 5, 15)
	target := NewVec3Zero()
	view := NewMat4LookAt(eye, target, NewVec3Up())

	if got := eye.Transform(view); !got.Compare(NewVec3Zero(), tolerance) {
		t.Fatalf("eye maps to %v, want origin", got)
	}

	got := target.Transform(view)
	dist := eye.Sub(target).Length()
	if !got.Compare(NewVec3(0, 0, -dist), 1e-4) {
		t.Fatalf("target maps to %v, want (0,0,%f)", got, -dist)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	near, far := float32(0.1), float32(100)
	proj := NewMat4Perspective(DegToRad(45), 4.0/3.0, near, far)

	tests := []struct {
		name string
		z    float32
		want float32
	}{
		{"near", -near, -1},
		{"far", -far, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := NewVec4(0, 0, tt.z, 1).Transform(proj)
			ndc := clip.Z / clip.W
			if kabs(ndc-tt.want) > 1e-4 {
				t.Fatalf("ndc z = %f, want %f", ndc, tt.want)
			}
		})
	}
}

func TestEulerRotation(t *testing.T) {
	tests := []struct {
		name string
		rot  Mat4
		in   Vec3
		want Vec3
	}{
		{"x", NewMat4EulerX(K_HALF_PI), NewVec3(0, 1, 0), NewVec3(0, 0, 1)},
		{"y", NewMat4EulerY(K_HALF_PI), NewVec3(0, 0, 1), NewVec3(1, 0, 0)},
		{"z", NewMat4EulerZ(K_HALF_PI), NewVec3(1, 0, 0), NewVec3(0, 1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Transform(tt.rot); !got.Compare(tt.want, tolerance) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransformLocal(t *testing.T) {
	tr := TransformCreate()
	tr.SetPositionRotationScale(NewVec3(1, 2, 3), NewVec3Zero(), NewVec3(2, 2, 2))
	got := NewVec3(1, 1, 1).Transform(tr.GetLocal())
	if !got.Compare(NewVec3(3, 4, 5), tolerance) {
		t.Fatalf("got %v, want (3,4,5)", got)
	}
	if tr.IsDirty {
		t.Fatalf("transform still dirty after GetLocal")
	}
}

func TestFaceNormal(t *testing.T) {
	n := FaceNormal(NewVec3(0, 0, 0), NewVec3(1, 0, 0), NewVec3(0, 1, 0))
	if !n.Compare(NewVec3(0, 0, 1), tolerance) {
		t.Fatalf("got %v, want +Z", n)
	}
}

func TestExtents(t *testing.T) {
	e := NewExtents3DEmpty()
	for _, p := range []Vec3{{-1, 2, 0}, {3, -4, 1}, {0, 0, -2}} {
		e = e.Expand(p)
	}
	if e.Min != NewVec3(-1, -4, -2) || e.Max != NewVec3(3, 2, 1) {
		t.Fatalf("extents = %+v", e)
	}
	if c := e.Center(); !c.Compare(NewVec3(1, -1, -0.5), tolerance) {
		t.Fatalf("center = %v", c)
	}
}

func TestClampLerp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Fatalf("Clamp(5,0,3) = %d", got)
	}
	if got := Clamp(-1.5, 0.0, 1.0); got != 0 {
		t.Fatalf("Clamp(-1.5,0,1) = %f", got)
	}
	if got := Lerp(float32(2), 4, 0.5); got != 3 {
		t.Fatalf("Lerp = %f", got)
	}
	if got := DegToRad(180); m.Abs(float64(got-K_PI)) > 1e-6 {
		t.Fatalf("DegToRad(180) = %f", got)
	}
}
