package software

import (
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

type clipVertex struct {
	pos    math.Vec4
	colour math.Vec3
}

// screenVertex is a vertex after the perspective divide. invW carries 1/w
// for perspective correct interpolation.
type screenVertex struct {
	x, y   float32
	depth  float32
	invW   float32
	colour math.Vec3
	ndcX   float32
	ndcY   float32
}

// Keeps fragments from dividing by a vanishing w.
const nearEpsilon = 1e-5

// nearDistance is positive in front of the near plane (z > -w).
func nearDistance(v clipVertex) float32 {
	return v.pos.Z + v.pos.W
}

func lerpVertex(a, b clipVertex, t float32) clipVertex {
	return clipVertex{
		pos: math.NewVec4(
			math.Lerp(a.pos.X, b.pos.X, t),
			math.Lerp(a.pos.Y, b.pos.Y, t),
			math.Lerp(a.pos.Z, b.pos.Z, t),
			math.Lerp(a.pos.W, b.pos.W, t),
		),
		colour: math.NewVec3(
			math.Lerp(a.colour.X, b.colour.X, t),
			math.Lerp(a.colour.Y, b.colour.Y, t),
			math.Lerp(a.colour.Z, b.colour.Z, t),
		),
	}
}

// clipNear clips a triangle against the near plane and appends the
// resulting convex polygon, in the same winding, to out.
func clipNear(tri [3]clipVertex, out []clipVertex) []clipVertex {
	for i := 0; i < 3; i++ {
		cur, next := tri[i], tri[(i+1)%3]
		dc, dn := nearDistance(cur), nearDistance(next)
		if dc > nearEpsilon {
			out = append(out, cur)
		}
		if (dc > nearEpsilon) != (dn > nearEpsilon) {
			t := (dc - nearEpsilon) / (dc - dn)
			out = append(out, lerpVertex(cur, next, t))
		}
	}
	return out
}

func (b *Backend) toScreen(v clipVertex) screenVertex {
	invW := 1.0 / v.pos.W
	ndcX := v.pos.X * invW
	ndcY := v.pos.Y * invW
	ndcZ := v.pos.Z * invW
	return screenVertex{
		x:      (ndcX + 1.0) * 0.5 * float32(b.sampleWidth),
		y:      (1.0 - ndcY) * 0.5 * float32(b.sampleHeight),
		depth:  ndcZ*0.5 + 0.5,
		invW:   invW,
		colour: v.colour,
		ndcX:   ndcX,
		ndcY:   ndcY,
	}
}

// drawPolygon fans a clipped convex polygon into triangles.
func (b *Backend) drawPolygon(poly []clipVertex) {
	v0 := b.toScreen(poly[0])
	for i := 1; i+1 < len(poly); i++ {
		v1 := b.toScreen(poly[i])
		v2 := b.toScreen(poly[i+1])

		// counter-clockwise in NDC is the front face
		area := (v1.ndcX-v0.ndcX)*(v2.ndcY-v0.ndcY) - (v2.ndcX-v0.ndcX)*(v1.ndcY-v0.ndcY)
		if area == 0 || b.culled(area > 0) {
			continue
		}
		if b.wireframe {
			b.drawLine(v0, v1)
			b.drawLine(v1, v2)
			b.drawLine(v2, v0)
			continue
		}
		b.fillTriangle(v0, v1, v2)
	}
}

func (b *Backend) culled(front bool) bool {
	switch b.cullMode {
	case metadata.FaceCullModeBack:
		return !front
	case metadata.FaceCullModeFront:
		return front
	case metadata.FaceCullModeFrontAndBack:
		return true
	}
	return false
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func (b *Backend) fillTriangle(v0, v1, v2 screenVertex) {
	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 {
		return
	}

	minX := math.Clamp(int(min(v0.x, v1.x, v2.x)), 0, b.sampleWidth-1)
	maxX := math.Clamp(int(max(v0.x, v1.x, v2.x))+1, 0, b.sampleWidth-1)
	minY := math.Clamp(int(min(v0.y, v1.y, v2.y)), 0, b.sampleHeight-1)
	maxY := math.Clamp(int(max(v0.y, v1.y, v2.y))+1, 0, b.sampleHeight-1)

	invArea := 1.0 / area
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(v1.x, v1.y, v2.x, v2.y, px, py) * invArea
			w1 := edge(v2.x, v2.y, v0.x, v0.y, px, py) * invArea
			w2 := edge(v0.x, v0.y, v1.x, v1.y, px, py) * invArea
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			b.shade(x, y, [3]float32{w0, w1, w2}, v0, v1, v2)
		}
	}
}

// shade depth tests one sample and writes its perspective correct colour.
func (b *Backend) shade(x, y int, w [3]float32, v0, v1, v2 screenVertex) {
	depth := w[0]*v0.depth + w[1]*v1.depth + w[2]*v2.depth
	idx := y*b.sampleWidth + x
	if depth < 0 || depth >= b.depth[idx] {
		return
	}
	b.depth[idx] = depth

	p0, p1, p2 := w[0]*v0.invW, w[1]*v1.invW, w[2]*v2.invW
	norm := 1.0 / (p0 + p1 + p2)
	c := v0.colour.MulScalar(p0 * norm).
		Add(v1.colour.MulScalar(p1 * norm)).
		Add(v2.colour.MulScalar(p2 * norm))

	o := b.target.PixOffset(x, y)
	b.target.Pix[o] = toByte(c.X)
	b.target.Pix[o+1] = toByte(c.Y)
	b.target.Pix[o+2] = toByte(c.Z)
	b.target.Pix[o+3] = 0xff
}

// drawLine steps one sample per pixel along the longer axis.
func (b *Backend) drawLine(a, c screenVertex) {
	dx, dy := c.x-a.x, c.y-a.y
	steps := int(max(abs(dx), abs(dy))) + 1
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		x := int(a.x + dx*t)
		y := int(a.y + dy*t)
		if x < 0 || y < 0 || x >= b.sampleWidth || y >= b.sampleHeight {
			continue
		}
		b.shade(x, y, [3]float32{1 - t, t, 0}, a, c, c)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
