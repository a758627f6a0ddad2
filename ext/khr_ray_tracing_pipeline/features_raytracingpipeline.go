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
)

// PhysicalDeviceRayTracingPipelineFeatures describes the ray tracing pipeline
// features that can be supported by an implementation
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkPhysicalDeviceRayTracingPipelineFeaturesKHR.html
type PhysicalDeviceRayTracingPipelineFeatures struct {
	// RayTracingPipeline indicates whether the implementation supports the ray
	// tracing pipeline functionality
	RayTracingPipeline bool
	// RayTracingPipelineShaderGroupHandleCaptureReplay indicates whether the
	// implementation supports saving and reusing shader group handles
	RayTracingPipelineShaderGroupHandleCaptureReplay bool
	// RayTracingPipelineShaderGroupHandleCaptureReplayMixed indicates whether reused
	// shader group handles may be arbitrarily mixed with creation-time handles
	RayTracingPipelineShaderGroupHandleCaptureReplayMixed bool
	// RayTracingPipelineTraceRaysIndirect indicates whether the implementation
	// supports indirect trace commands
	RayTracingPipelineTraceRaysIndirect bool
	// RayTraversalPrimitiveCulling indicates whether the implementation supports
	// primitive culling during ray traversal
	RayTraversalPrimitiveCulling bool

	common.NextOptions
	common.NextOutData
}

func (o *PhysicalDeviceRayTracingPipelineFeatures) PopulateHeader(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkPhysicalDeviceRayTracingPipelineFeaturesKHR)
	}

	data := (*C.VkPhysicalDeviceRayTracingPipelineFeaturesKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_RAY_TRACING_PIPELINE_FEATURES_KHR
	data.pNext = next

	return preallocatedPointer, nil
}

func (o *PhysicalDeviceRayTracingPipelineFeatures) PopulateOutData(cDataPointer unsafe.Pointer, helpers ...any) (next unsafe.Pointer, err error) {
	data := (*C.VkPhysicalDeviceRayTracingPipelineFeaturesKHR)(cDataPointer)

	o.RayTracingPipeline = data.rayTracingPipeline != C.VkBool32(0)
	o.RayTracingPipelineShaderGroupHandleCaptureReplay = data.rayTracingPipelineShaderGroupHandleCaptureReplay != C.VkBool32(0)
	o.RayTracingPipelineShaderGroupHandleCaptureReplayMixed = data.rayTracingPipelineShaderGroupHandleCaptureReplayMixed != C.VkBool32(0)
	o.RayTracingPipelineTraceRaysIndirect = data.rayTracingPipelineTraceRaysIndirect != C.VkBool32(0)
	o.RayTraversalPrimitiveCulling = data.rayTraversalPrimitiveCulling != C.VkBool32(0)

	return data.pNext, nil
}

func (o PhysicalDeviceRayTracingPipelineFeatures) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkPhysicalDeviceRayTracingPipelineFeaturesKHR)
	}

	data := (*C.VkPhysicalDeviceRayTracingPipelineFeaturesKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_RAY_TRACING_PIPELINE_FEATURES_KHR
	data.pNext = next

	boolToVkBool := func(b bool) C.VkBool32 {
		if b {
			return C.VkBool32(1)
		}
		return C.VkBool32(0)
	}

	data.rayTracingPipeline = boolToVkBool(o.RayTracingPipeline)
	data.rayTracingPipelineShaderGroupHandleCaptureReplay = boolToVkBool(o.RayTracingPipelineShaderGroupHandleCaptureReplay)
	data.rayTracingPipelineShaderGroupHandleCaptureReplayMixed = boolToVkBool(o.RayTracingPipelineShaderGroupHandleCaptureReplayMixed)
	data.rayTracingPipelineTraceRaysIndirect = boolToVkBool(o.RayTracingPipelineTraceRaysIndirect)
	data.rayTraversalPrimitiveCulling = boolToVkBool(o.RayTraversalPrimitiveCulling)

	return preallocatedPointer, nil
}
