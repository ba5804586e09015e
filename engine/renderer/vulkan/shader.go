package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/orbis/engine/assets"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/geometry"
	"github.com/spaghettifunk/orbis/engine/math"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

// FlatShaderName is the base name of the SPIR-V stages, shaders/flat.{vert,frag}.spv.
const FlatShaderName = "flat"

/**
 * @brief The push constant block of the flat shader, 128 bytes.
 * Layout matches `layout(push_constant) uniform { mat4 model; mat4 view_projection; }`.
 */
type flatPushConstants struct {
	Model          math.Mat4
	ViewProjection math.Mat4
}

const flatPushConstantsSize = uint32(unsafe.Sizeof(flatPushConstants{}))

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

/**
 * @brief Vertex coloured, unlit shader. Holds one pipeline per vertex format
 * since the stride is baked into the pipeline.
 */
type FlatShader struct {
	Stages    []*VulkanShaderStage
	Pipelines map[geometry.VertexFormat]*VulkanPipeline
}

func NewShaderStage(context *VulkanContext, am *assets.AssetManager, name, stage string, flag vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	resourceName := fmt.Sprintf("%s.%s", name, stage)
	res, err := am.LoadAsset(resourceName, metadata.ResourceTypeShader)
	if err != nil {
		err = fmt.Errorf("unable to read shader module %s: %w", resourceName, err)
		core.LogError(err.Error())
		return nil, err
	}
	defer func() {
		_ = am.UnloadAsset(res)
	}()

	code, ok := res.Data.([]uint32)
	if !ok {
		return nil, fmt.Errorf("shader resource %s holds %T, want SPIR-V words", resourceName, res.Data)
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: res.DataSize,
		PCode:    code,
	}

	outStage := &VulkanShaderStage{}
	if err := lockPool.SafeCall(ShaderManagement, func() error {
		var module vk.ShaderModule
		if r := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); r != vk.Success {
			return fmt.Errorf("vkCreateShaderModule failed for %s with %s", resourceName, VulkanResultString(r, true))
		}
		outStage.Handle = module
		return nil
	}); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	outStage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  flag,
		Module: outStage.Handle,
		PName:  VulkanSafeString("main"),
	}
	return outStage, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = nil
	}
}

func NewFlatShader(context *VulkanContext, am *assets.AssetManager) (*FlatShader, error) {
	vert, err := NewShaderStage(context, am, FlatShaderName, "vert", vk.ShaderStageVertexBit)
	if err != nil {
		return nil, err
	}
	frag, err := NewShaderStage(context, am, FlatShaderName, "frag", vk.ShaderStageFragmentBit)
	if err != nil {
		vert.Destroy(context)
		return nil, err
	}
	return &FlatShader{
		Stages:    []*VulkanShaderStage{vert, frag},
		Pipelines: make(map[geometry.VertexFormat]*VulkanPipeline),
	}, nil
}

// CreatePipelines builds a pipeline for every vertex format, replacing existing ones.
func (s *FlatShader) CreatePipelines(context *VulkanContext, cullMode metadata.FaceCullMode, wireframe bool) error {
	s.DestroyPipelines(context)

	stages := make([]vk.PipelineShaderStageCreateInfo, len(s.Stages))
	for i, stage := range s.Stages {
		stages[i] = stage.ShaderStageCreateInfo
	}

	// Viewport and scissor are dynamic, these only seed the pipeline.
	viewport := vk.Viewport{
		Width:    float32(context.FramebufferWidth),
		Height:   float32(context.FramebufferHeight),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Extent: vk.Extent2D{Width: context.FramebufferWidth, Height: context.FramebufferHeight},
	}

	for _, format := range []geometry.VertexFormat{geometry.FormatPositionColor, geometry.FormatPositionColorNormalUV} {
		pipeline, err := NewGraphicsPipeline(context, &VulkanPipelineConfig{
			Renderpass:  context.MainRenderpass,
			Stride:      format.StrideBytes(),
			Attributes:  VertexAttributes(format, geometry.LocationPosition, geometry.LocationColor),
			Stages:      stages,
			Viewport:    viewport,
			Scissor:     scissor,
			CullMode:    cullMode,
			IsWireframe: wireframe,
			DepthTest:   true,
			DepthWrite:  true,
			PushConstantRanges: []metadata.MemoryRange{
				*metadata.GetAlignedRange(0, uint64(flatPushConstantsSize), 4),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create the %s pipeline: %w", format, err)
		}
		s.Pipelines[format] = pipeline
	}
	return nil
}

// Use binds the pipeline of format, returning it or nil if there is none.
func (s *FlatShader) Use(commandBuffer *VulkanCommandBuffer, format geometry.VertexFormat) *VulkanPipeline {
	pipeline, ok := s.Pipelines[format]
	if !ok {
		return nil
	}
	pipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)
	return pipeline
}

func (s *FlatShader) PushConstants(commandBuffer *VulkanCommandBuffer, pipeline *VulkanPipeline, model, viewProjection math.Mat4) {
	data := flatPushConstants{Model: model, ViewProjection: viewProjection}
	vk.CmdPushConstants(
		commandBuffer.Handle,
		pipeline.PipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		0,
		flatPushConstantsSize,
		unsafe.Pointer(&data))
}

func (s *FlatShader) DestroyPipelines(context *VulkanContext) {
	for format, pipeline := range s.Pipelines {
		pipeline.Destroy(context)
		delete(s.Pipelines, format)
	}
}

func (s *FlatShader) Destroy(context *VulkanContext) {
	s.DestroyPipelines(context)
	for _, stage := range s.Stages {
		stage.Destroy(context)
	}
	s.Stages = nil
}
