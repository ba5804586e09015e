package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

/**
 * @brief Max number of simultaneously uploaded geometries
 */
const VULKAN_MAX_GEOMETRY_COUNT uint32 = 4096

/**
 * @brief Internal buffer data for geometry. Each geometry owns one vertex
 * and one index buffer.
 */
type vulkanGeometryData struct {
	/** @brief The unique geometry identifier. */
	ID uint32
	/** @brief The geometry generation. Incremented every time the geometry data changes. */
	Generation uint32
	/** @brief The vertex layout, used to pick the pipeline. */
	Format geometry.VertexFormat
	/** @brief The vertex count. */
	VertexCount uint32
	/** @brief The index count. */
	IndexCount uint32

	VertexBuffer *VulkanBuffer
	IndexBuffer  *VulkanBuffer
}

// uploadDataRange fills a new device local buffer through a staging buffer.
func uploadDataRange(context *VulkanContext, usage vk.BufferUsageFlags, data []byte) (*VulkanBuffer, error) {
	size := uint64(len(data))
	staging, err := NewVulkanBuffer(context, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, data); err != nil {
		return nil, err
	}

	buffer, err := NewVulkanBuffer(context, size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	device := context.Device
	if err := staging.CopyTo(context, device.GraphicsCommandPool, device.GraphicsQueue, uint32(device.GraphicsQueueIndex), 0, buffer, 0, size); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}

func (vr *VulkanRenderer) CreateGeometry(g *metadata.Geometry, mesh *geometry.Mesh) error {
	if err := mesh.Validate(); err != nil {
		return err
	}
	if mesh.VertexCount() == 0 || mesh.IndexCount() == 0 {
		return fmt.Errorf("geometry '%s' has no triangles", mesh.Name)
	}

	// Check if this is a re-upload. If it is, the old data is freed afterward.
	var old *vulkanGeometryData
	internal := vr.geometryFor(g)
	if internal != nil {
		copied := *internal
		old = &copied
	} else {
		for i := range vr.geometries {
			if vr.geometries[i].ID == metadata.InvalidID {
				g.InternalID = uint32(i)
				internal = &vr.geometries[i]
				break
			}
		}
	}
	if internal == nil {
		err := fmt.Errorf("failed to find a free index for a new geometry upload. Adjust config to allow for more")
		core.LogError(err.Error())
		return err
	}

	vertexBuffer, err := uploadDataRange(vr.context, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), float32Bytes(mesh.Vertices))
	if err != nil {
		core.LogError("failed to upload vertices of '%s': %s", mesh.Name, err)
		return err
	}
	indexBuffer, err := uploadDataRange(vr.context, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit), uint32Bytes(mesh.Indices))
	if err != nil {
		vertexBuffer.Destroy(vr.context)
		core.LogError("failed to upload indices of '%s': %s", mesh.Name, err)
		return err
	}

	internal.ID = g.InternalID
	internal.Format = mesh.Format
	internal.VertexCount = uint32(mesh.VertexCount())
	internal.IndexCount = uint32(mesh.IndexCount())
	internal.VertexBuffer = vertexBuffer
	internal.IndexBuffer = indexBuffer
	if old == nil {
		internal.Generation = 0
	} else {
		internal.Generation++
		old.destroy(vr.context)
	}
	return nil
}

func (vr *VulkanRenderer) DestroyGeometry(g *metadata.Geometry) {
	internal := vr.geometryFor(g)
	if internal == nil {
		return
	}
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
	internal.destroy(vr.context)
	*internal = vulkanGeometryData{ID: metadata.InvalidID, Generation: uint32(metadata.InvalidID)}
	g.InternalID = metadata.InvalidID
}

func (vr *VulkanRenderer) DrawGeometry(data metadata.GeometryRenderData) {
	if !vr.inFrame {
		return
	}
	internal := vr.geometryFor(data.Geometry)
	if internal == nil {
		core.LogWarn("vulkan backend: no buffers for geometry '%s'", data.Geometry.Name)
		return
	}
	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]

	pipeline := vr.shader.Use(commandBuffer, internal.Format)
	if pipeline == nil {
		core.LogWarn("vulkan backend: no pipeline for vertex format %s", internal.Format)
		return
	}
	vr.shader.PushConstants(commandBuffer, pipeline, data.Model, vr.viewProjection)

	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{internal.VertexBuffer.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(commandBuffer.Handle, internal.IndexBuffer.Handle, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(commandBuffer.Handle, internal.IndexCount, 1, 0, 0, 0)
}

func (vr *VulkanRenderer) geometryFor(g *metadata.Geometry) *vulkanGeometryData {
	if g == nil || g.InternalID >= uint32(len(vr.geometries)) {
		return nil
	}
	internal := &vr.geometries[g.InternalID]
	if internal.ID == metadata.InvalidID {
		return nil
	}
	return internal
}

func (d *vulkanGeometryData) destroy(context *VulkanContext) {
	if d.VertexBuffer != nil {
		d.VertexBuffer.Destroy(context)
		d.VertexBuffer = nil
	}
	if d.IndexBuffer != nil {
		d.IndexBuffer.Destroy(context)
		d.IndexBuffer = nil
	}
}
