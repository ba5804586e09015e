package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

var ErrGeometryCapacity = errors.New("no free geometry slot, adjust MaxGeometryCount")

/** @brief The geometry system configuration. */
type GeometrySystemConfig struct {
	/**
	 * @brief Max number of geometries that can be loaded at once.
	 * NOTE: Should be significantly greater than the number of static meshes
	 * because there can and will be more than one of these per mesh.
	 */
	MaxGeometryCount uint32
}

// GeometryUploader is the part of the renderer the geometry system needs.
type GeometryUploader interface {
	CreateGeometry(g *metadata.Geometry, mesh *geometry.Mesh) error
	DestroyGeometry(g *metadata.Geometry)
}

/**
 * @brief Reference counted registry of uploaded meshes. Meshes registered
 * under the same key share a single geometry.
 */
type GeometrySystem struct {
	mu       sync.Mutex
	Config   *GeometrySystemConfig
	renderer GeometryUploader
	// Array of registered meshes.
	RegisteredGeometries []*metadata.GeometryReference
	lookup               map[string]uint32
}

func NewGeometrySystem(config *GeometrySystemConfig, renderer GeometryUploader) (*GeometrySystem, error) {
	if config.MaxGeometryCount == 0 {
		err := fmt.Errorf("func NewGeometrySystem - config.MaxGeometryCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	if renderer == nil {
		err := fmt.Errorf("func NewGeometrySystem - a renderer is required")
		core.LogError(err.Error())
		return nil, err
	}

	gs := &GeometrySystem{
		Config:               config,
		renderer:             renderer,
		RegisteredGeometries: make([]*metadata.GeometryReference, config.MaxGeometryCount),
		lookup:               make(map[string]uint32),
	}

	// Invalidate all geometries in the array.
	for i := range gs.RegisteredGeometries {
		gs.RegisteredGeometries[i] = &metadata.GeometryReference{
			Geometry: &metadata.Geometry{
				ID:         metadata.InvalidID,
				InternalID: metadata.InvalidID,
				Generation: metadata.InvalidIDUint16,
			},
		}
	}
	return gs, nil
}

/**
 * @brief Acquires the geometry of a shape, generating and uploading the
 * mesh the first time the shape key is seen.
 */
func (gs *GeometrySystem) Acquire(shape geometry.Shape) (*metadata.Geometry, error) {
	key := shape.Key()
	if g := gs.acquireExisting(key); g != nil {
		return g, nil
	}

	mesh, err := shape.Generate()
	if err != nil {
		core.LogError("failed to generate geometry '%s': %s", key, err)
		return nil, err
	}
	return gs.AcquireMesh(key, mesh)
}

/**
 * @brief Registers and acquires an already generated mesh. If a geometry
 * with the same key exists, its reference count is incremented instead.
 */
func (gs *GeometrySystem) AcquireMesh(key string, mesh *geometry.Mesh) (*metadata.Geometry, error) {
	if key == "" {
		key = uuid.NewString()
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	if id, ok := gs.lookup[key]; ok {
		ref := gs.RegisteredGeometries[id]
		ref.ReferenceCount++
		return ref.Geometry, nil
	}

	if err := mesh.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	var ref *metadata.GeometryReference
	var slot uint32
	for i, r := range gs.RegisteredGeometries {
		if r.Geometry.ID == metadata.InvalidID {
			// Found empty slot.
			ref = r
			slot = uint32(i)
			break
		}
	}
	if ref == nil {
		err := fmt.Errorf("unable to register geometry '%s': %w", key, ErrGeometryCapacity)
		core.LogError(err.Error())
		return nil, err
	}

	g := ref.Geometry
	g.ID = slot
	g.Generation++
	if g.Generation == metadata.InvalidIDUint16 {
		g.Generation = 0
	}
	g.Name = mesh.Name
	g.Format = mesh.Format
	g.VertexCount = uint32(mesh.VertexCount())
	g.IndexCount = uint32(mesh.IndexCount())
	g.Extents = mesh.Extents()
	g.Center = g.Extents.Center()

	if err := gs.renderer.CreateGeometry(g, mesh); err != nil {
		err = fmt.Errorf("failed to upload geometry '%s': %w", key, err)
		core.LogError(err.Error())
		gs.invalidate(g)
		return nil, err
	}

	ref.ReferenceCount = 1
	ref.Key = key
	gs.lookup[key] = slot
	core.LogDebug("geometry '%s' registered in slot %d (%d vertices, %d indices)", g.Name, slot, g.VertexCount, g.IndexCount)
	return g, nil
}

func (gs *GeometrySystem) acquireExisting(key string) *metadata.Geometry {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	id, ok := gs.lookup[key]
	if !ok {
		return nil
	}
	ref := gs.RegisteredGeometries[id]
	ref.ReferenceCount++
	return ref.Geometry
}

/**
 * @brief Releases a reference to the provided geometry. The backend
 * resources are destroyed when the last reference goes away.
 */
func (gs *GeometrySystem) Release(g *metadata.Geometry) {
	if g == nil || g.ID == metadata.InvalidID {
		core.LogWarn("GeometrySystem.Release cannot release invalid geometry id. Nothing was done.")
		return
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	if g.ID >= uint32(len(gs.RegisteredGeometries)) {
		core.LogError("Geometry id %d out of range.", g.ID)
		return
	}
	ref := gs.RegisteredGeometries[g.ID]
	if ref.Geometry != g {
		core.LogError("Geometry id mismatch. Check registration logic, as this should never occur.")
		return
	}

	if ref.ReferenceCount > 0 {
		ref.ReferenceCount--
	}
	if ref.ReferenceCount == 0 {
		gs.destroy(ref)
	}
}

// ReferenceCount returns the live references to g, 0 once released.
func (gs *GeometrySystem) ReferenceCount(g *metadata.Geometry) uint64 {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if g == nil || g.ID == metadata.InvalidID || g.ID >= uint32(len(gs.RegisteredGeometries)) {
		return 0
	}
	return gs.RegisteredGeometries[g.ID].ReferenceCount
}

// Count returns the number of registered geometries.
func (gs *GeometrySystem) Count() int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return len(gs.lookup)
}

/**
 * @brief Shuts down the geometry system, destroying every registered geometry.
 */
func (gs *GeometrySystem) Shutdown() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, ref := range gs.RegisteredGeometries {
		if ref.Geometry.ID != metadata.InvalidID {
			gs.destroy(ref)
		}
	}
	return nil
}

func (gs *GeometrySystem) destroy(ref *metadata.GeometryReference) {
	gs.renderer.DestroyGeometry(ref.Geometry)
	delete(gs.lookup, ref.Key)
	ref.ReferenceCount = 0
	ref.Key = ""
	gs.invalidate(ref.Geometry)
}

func (gs *GeometrySystem) invalidate(g *metadata.Geometry) {
	g.ID = metadata.InvalidID
	g.InternalID = metadata.InvalidID
	g.Name = ""
	g.VertexCount = 0
	g.IndexCount = 0
}
