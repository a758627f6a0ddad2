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

// PhysicalDeviceRayTracingPipelineProperties describes the ray tracing
// pipeline limits of an implementation. Chain it into a
// PhysicalDeviceProperties2 query.
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkPhysicalDeviceRayTracingPipelinePropertiesKHR.html
type PhysicalDeviceRayTracingPipelineProperties struct {
	// ShaderGroupHandleSize is the byte size of a shader group handle
	ShaderGroupHandleSize int
	// MaxRayRecursionDepth is the maximum trace recursion supported
	MaxRayRecursionDepth int
	// MaxShaderGroupStride is the maximum stride between shader binding table
	// records
	MaxShaderGroupStride int
	// ShaderGroupBaseAlignment is the required alignment of shader binding table
	// region base addresses
	ShaderGroupBaseAlignment int
	// ShaderGroupHandleCaptureReplaySize is the byte size of the capture-replay
	// information of a shader group handle
	ShaderGroupHandleCaptureReplaySize int
	// MaxRayDispatchInvocationCount is the maximum number of invocations of a
	// single trace command
	MaxRayDispatchInvocationCount int
	// ShaderGroupHandleAlignment is the required alignment of shader binding table
	// records
	ShaderGroupHandleAlignment int
	// MaxRayHitAttributeSize is the maximum byte size of a hit attribute structure
	MaxRayHitAttributeSize int

	common.NextOutData
}

func (o *PhysicalDeviceRayTracingPipelineProperties) PopulateHeader(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkPhysicalDeviceRayTracingPipelinePropertiesKHR)
	}

	data := (*C.VkPhysicalDeviceRayTracingPipelinePropertiesKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_RAY_TRACING_PIPELINE_PROPERTIES_KHR
	data.pNext = next

	return preallocatedPointer, nil
}

func (o *PhysicalDeviceRayTracingPipelineProperties) PopulateOutData(cDataPointer unsafe.Pointer, helpers ...any) (next unsafe.Pointer, err error) {
	data := (*C.VkPhysicalDeviceRayTracingPipelinePropertiesKHR)(cDataPointer)

	o.ShaderGroupHandleSize = int(data.shaderGroupHandleSize)
	o.MaxRayRecursionDepth = int(data.maxRayRecursionDepth)
	o.MaxShaderGroupStride = int(data.maxShaderGroupStride)
	o.ShaderGroupBaseAlignment = int(data.shaderGroupBaseAlignment)
	o.ShaderGroupHandleCaptureReplaySize = int(data.shaderGroupHandleCaptureReplaySize)
	o.MaxRayDispatchInvocationCount = int(data.maxRayDispatchInvocationCount)
	o.ShaderGroupHandleAlignment = int(data.shaderGroupHandleAlignment)
	o.MaxRayHitAttributeSize = int(data.maxRayHitAttributeSize)

	return data.pNext, nil
}
