package software

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

const DefaultSupersample = 2

type Options struct {
	// Each output pixel is resolved from Supersample² samples. Values
	// below 1 mean 1.
	Supersample int
}

/**
 * @brief A headless rasterizer. It draws the same packets as the GPU
 * backend into an in-memory image, used for snapshots and tests.
 */
type Backend struct {
	opts Options

	width  int
	height int
	// dimensions of the supersampled target
	sampleWidth  int
	sampleHeight int

	target *image.RGBA
	depth  []float32
	frame  *image.RGBA

	clearColour color.RGBA
	cullMode    metadata.FaceCullMode
	wireframe   bool
	viewProj    math.Mat4

	meshes     map[uint32]*geometry.Mesh
	nextMeshID uint32

	initialized bool
	inFrame     bool
}

func New(opts Options) *Backend {
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	return &Backend{
		opts:     opts,
		meshes:   make(map[uint32]*geometry.Mesh),
		viewProj: math.NewMat4Identity(),
	}
}

func (b *Backend) Initialize(config *metadata.RendererBackendConfig) error {
	if config == nil {
		return fmt.Errorf("software backend: missing configuration")
	}
	b.cullMode = config.CullMode
	b.wireframe = config.PolygonMode == metadata.PolygonModeLine
	b.SetClearColour(config.ClearColour)
	b.allocate(int(config.Width), int(config.Height))
	b.initialized = true
	core.LogInfo("Software renderer initialized (%dx%d, %dx supersampling).", b.width, b.height, b.opts.Supersample)
	return nil
}

func (b *Backend) allocate(width, height int) {
	b.width, b.height = width, height
	b.sampleWidth = width * b.opts.Supersample
	b.sampleHeight = height * b.opts.Supersample
	b.target = image.NewRGBA(image.Rect(0, 0, b.sampleWidth, b.sampleHeight))
	b.depth = make([]float32, b.sampleWidth*b.sampleHeight)
	b.frame = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (b *Backend) Shutdown() error {
	for id := range b.meshes {
		delete(b.meshes, id)
	}
	b.target = nil
	b.depth = nil
	b.initialized = false
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	if !b.initialized {
		return core.ErrBackendNotInitialized
	}
	b.allocate(int(width), int(height))
	return nil
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	if !b.initialized {
		return core.ErrBackendNotInitialized
	}
	if b.width == 0 || b.height == 0 {
		return core.ErrSwapchainBooting
	}
	pix := b.target.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = b.clearColour.R
		pix[i+1] = b.clearColour.G
		pix[i+2] = b.clearColour.B
		pix[i+3] = b.clearColour.A
	}
	for i := range b.depth {
		b.depth[i] = 1.0
	}
	b.inFrame = true
	return nil
}

// EndFrame resolves the supersampled target into the output frame.
func (b *Backend) EndFrame(deltaTime float64) error {
	if !b.inFrame {
		return fmt.Errorf("software backend: EndFrame without BeginFrame")
	}
	b.inFrame = false
	if b.opts.Supersample == 1 {
		copy(b.frame.Pix, b.target.Pix)
		return nil
	}
	draw.CatmullRom.Scale(b.frame, b.frame.Bounds(), b.target, b.target.Bounds(), draw.Src, nil)
	return nil
}

func (b *Backend) CreateGeometry(g *metadata.Geometry, mesh *geometry.Mesh) error {
	if err := mesh.Validate(); err != nil {
		return err
	}
	b.nextMeshID++
	b.meshes[b.nextMeshID] = mesh
	g.InternalID = b.nextMeshID
	return nil
}

func (b *Backend) DestroyGeometry(g *metadata.Geometry) {
	delete(b.meshes, g.InternalID)
	g.InternalID = metadata.InvalidID
}

func (b *Backend) SetView(view, projection math.Mat4) {
	b.viewProj = view.Mul(projection)
}

func (b *Backend) SetClearColour(colour math.Vec3) {
	b.clearColour = color.RGBA{
		R: toByte(colour.X),
		G: toByte(colour.Y),
		B: toByte(colour.Z),
		A: 0xff,
	}
}

// Image is the last resolved frame.
func (b *Backend) Image() *image.RGBA {
	return b.frame
}

func (b *Backend) DrawGeometry(data metadata.GeometryRenderData) {
	if !b.inFrame || data.Geometry == nil {
		return
	}
	mesh, ok := b.meshes[data.Geometry.InternalID]
	if !ok {
		core.LogWarn("software backend: no mesh for geometry '%s'", data.Geometry.Name)
		return
	}
	mvp := data.Model.Mul(b.viewProj)

	clip := make([]clipVertex, mesh.VertexCount())
	for i := range clip {
		p := mesh.Position(i)
		clip[i] = clipVertex{
			pos:    math.NewVec4(p.X, p.Y, p.Z, 1.0).Transform(mvp),
			colour: mesh.Color(i),
		}
	}

	var poly []clipVertex
	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		tri := [3]clipVertex{clip[mesh.Indices[t]], clip[mesh.Indices[t+1]], clip[mesh.Indices[t+2]]}
		poly = clipNear(tri, poly[:0])
		if len(poly) < 3 {
			continue
		}
		b.drawPolygon(poly)
	}
}

func toByte(v float32) uint8 {
	return uint8(math.Clamp(v, 0, 1)*255 + 0.5)
}
