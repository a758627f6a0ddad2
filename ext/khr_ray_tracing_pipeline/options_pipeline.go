package khr_ray_tracing_pipeline

/*
#include <stdlib.h>
#include "../vulkan/vulkan.h"
*/
import "C"
import (
	"unsafe"

	"github.com/CannibalVox/cgoparam"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// StridedDeviceAddressRegion is a region of device memory holding
// equally-strided shader binding table records
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkStridedDeviceAddressRegionKHR.html
type StridedDeviceAddressRegion struct {
	// DeviceAddress is the address of the first record, or 0 for an unused region
	DeviceAddress uint64
	// Stride is the byte stride between records
	Stride int
	// Size is the byte size of the region
	Size int
}

func (o StridedDeviceAddressRegion) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkStridedDeviceAddressRegionKHR)
	}

	data := (*C.VkStridedDeviceAddressRegionKHR)(preallocatedPointer)
	data.deviceAddress = C.VkDeviceAddress(o.DeviceAddress)
	data.stride = C.VkDeviceSize(o.Stride)
	data.size = C.VkDeviceSize(o.Size)

	return preallocatedPointer, nil
}

// RayTracingShaderGroupCreateInfo describes one shader group of a ray tracing
// pipeline. Shader indices refer to the pipeline's stage list; a negative
// index marks the slot unused.
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkRayTracingShaderGroupCreateInfoKHR.html
type RayTracingShaderGroupCreateInfo struct {
	// Type classifies the group
	Type RayTracingShaderGroupType
	// GeneralShader is the stage index of the raygen, miss, or callable shader of a
	// general group
	GeneralShader int
	// ClosestHitShader is the stage index of the closest-hit shader of a hit group
	ClosestHitShader int
	// AnyHitShader is the stage index of the any-hit shader of a hit group
	AnyHitShader int
	// IntersectionShader is the stage index of the intersection shader of a
	// procedural hit group
	IntersectionShader int
	// ShaderGroupCaptureReplayHandle is an optional opaque handle from an earlier
	// capture, for replay
	ShaderGroupCaptureReplayHandle unsafe.Pointer

	common.NextOptions
}

func shaderIndex(index int) C.uint32_t {
	if index < 0 {
		return C.VK_SHADER_UNUSED_KHR
	}
	return C.uint32_t(index)
}

func (o RayTracingShaderGroupCreateInfo) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkRayTracingShaderGroupCreateInfoKHR)
	}

	data := (*C.VkRayTracingShaderGroupCreateInfoKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_RAY_TRACING_SHADER_GROUP_CREATE_INFO_KHR
	data.pNext = next
	data._type = C.VkRayTracingShaderGroupTypeKHR(o.Type)
	data.generalShader = shaderIndex(o.GeneralShader)
	data.closestHitShader = shaderIndex(o.ClosestHitShader)
	data.anyHitShader = shaderIndex(o.AnyHitShader)
	data.intersectionShader = shaderIndex(o.IntersectionShader)
	data.pShaderGroupCaptureReplayHandle = o.ShaderGroupCaptureReplayHandle

	return preallocatedPointer, nil
}

// RayTracingPipelineCreateInfo specifies the parameters of a newly-created
// ray tracing pipeline
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkRayTracingPipelineCreateInfoKHR.html
type RayTracingPipelineCreateInfo struct {
	// Flags specifies how the pipeline will be generated
	Flags core1_0.PipelineCreateFlags
	// Stages is the set of shader stages to include in the pipeline
	Stages []core1_0.PipelineShaderStageCreateInfo
	// Groups describes the shader groups built from Stages
	Groups []RayTracingShaderGroupCreateInfo
	// MaxPipelineRayRecursionDepth is the maximum trace recursion the pipeline
	// will use
	MaxPipelineRayRecursionDepth int
	// DynamicState optionally names pipeline state that is set at record time
	DynamicState *core1_0.PipelineDynamicStateCreateInfo
	// Layout is the pipeline layout the pipeline uses
	Layout core1_0.PipelineLayout

	// BasePipeline is an optional pipeline to derive from
	BasePipeline core1_0.Pipeline
	// BasePipelineIndex is an optional index into the creation batch to derive from
	BasePipelineIndex int

	common.NextOptions
}

func (o RayTracingPipelineCreateInfo) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkRayTracingPipelineCreateInfoKHR)
	}

	data := (*C.VkRayTracingPipelineCreateInfoKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_RAY_TRACING_PIPELINE_CREATE_INFO_KHR
	data.pNext = next
	data.flags = C.VkPipelineCreateFlags(o.Flags)

	data.stageCount = C.uint32_t(len(o.Stages))
	data.pStages = nil
	if len(o.Stages) > 0 {
		stages, err := common.AllocOptionSlice[C.VkPipelineShaderStageCreateInfo](allocator, o.Stages)
		if err != nil {
			return nil, err
		}
		data.pStages = stages
	}

	data.groupCount = C.uint32_t(len(o.Groups))
	data.pGroups = nil
	if len(o.Groups) > 0 {
		groups, err := common.AllocOptionSlice[C.VkRayTracingShaderGroupCreateInfoKHR](allocator, o.Groups)
		if err != nil {
			return nil, err
		}
		data.pGroups = groups
	}

	data.maxPipelineRayRecursionDepth = C.uint32_t(o.MaxPipelineRayRecursionDepth)
	data.pLibraryInfo = nil
	data.pLibraryInterface = nil

	data.pDynamicState = nil
	if o.DynamicState != nil {
		dynamicState, err := common.AllocOptions(allocator, o.DynamicState)
		if err != nil {
			return nil, err
		}
		data.pDynamicState = (*C.VkPipelineDynamicStateCreateInfo)(dynamicState)
	}

	data.layout = nil
	if o.Layout != nil {
		data.layout = C.VkPipelineLayout(unsafe.Pointer(o.Layout.Handle()))
	}
	data.basePipelineHandle = nil
	if o.BasePipeline != nil {
		data.basePipelineHandle = C.VkPipeline(unsafe.Pointer(o.BasePipeline.Handle()))
	}
	data.basePipelineIndex = C.int32_t(o.BasePipelineIndex)

	return preallocatedPointer, nil
}
