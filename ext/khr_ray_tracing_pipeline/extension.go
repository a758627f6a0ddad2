// Package khr_ray_tracing_pipeline wraps the VK_KHR_ray_tracing_pipeline
// device extension: ray tracing pipeline creation, shader group handle
// queries, and trace dispatch.
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
	"github.com/vkngwrapper/core/v2/common/extensions"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"

	"github.com/hexlattice/prism/ext/khr_deferred_host_operations"
	khr_deferred_host_operations_driver "github.com/hexlattice/prism/ext/khr_deferred_host_operations/driver"
	khr_ray_tracing_pipeline_driver "github.com/hexlattice/prism/ext/khr_ray_tracing_pipeline/driver"
)

// Extension contains all commands for the khr_ray_tracing_pipeline extension
type Extension interface {
	// CreateRayTracingPipelines creates one pipeline per entry of o
	//
	// deferredOperation - An optional DeferredOperation to run the compilation on
	// application threads, or nil to compile inline
	//
	// pipelineCache - An optional core1_0.PipelineCache to feed and reuse
	//
	// allocation - A set of allocation callbacks to control the memory allocation
	// behavior of this command
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkCreateRayTracingPipelinesKHR.html
	CreateRayTracingPipelines(device core1_0.Device, deferredOperation khr_deferred_host_operations.DeferredOperation, pipelineCache core1_0.PipelineCache, o []RayTracingPipelineCreateInfo, allocation *driver.AllocationCallbacks) ([]core1_0.Pipeline, common.VkResult, error)

	// RayTracingShaderGroupHandles queries the opaque handles of groupCount shader
	// groups starting at firstGroup, returning dataSize bytes
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkGetRayTracingShaderGroupHandlesKHR.html
	RayTracingShaderGroupHandles(device core1_0.Device, pipeline core1_0.Pipeline, firstGroup, groupCount, dataSize int) ([]byte, common.VkResult, error)

	// CmdTraceRays records a trace of a width x height x depth ray grid into
	// commandBuffer, consuming the four shader binding table regions
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkCmdTraceRaysKHR.html
	CmdTraceRays(commandBuffer core1_0.CommandBuffer, raygen, miss, hit, callable StridedDeviceAddressRegion, width, height, depth int) error
}

// VulkanExtension is an implementation of the Extension interface that actually
// communicates with Vulkan. This is the default implementation. See the interface
// for more documentation.
type VulkanExtension struct {
	driver khr_ray_tracing_pipeline_driver.Driver
}

// CreateExtensionFromDevice produces an Extension object from a Device with
// khr_ray_tracing_pipeline loaded
func CreateExtensionFromDevice(device core1_0.Device) *VulkanExtension {
	if !device.IsDeviceExtensionActive(ExtensionName) {
		return nil
	}
	return CreateExtensionFromDriver(khr_ray_tracing_pipeline_driver.CreateDriverFromCore(device.Driver()))
}

// CreateExtensionFromDriver generates an Extension from a driver.Driver object-
// this is usually used in tests to build an Extension from mock drivers
func CreateExtensionFromDriver(driver khr_ray_tracing_pipeline_driver.Driver) *VulkanExtension {
	return &VulkanExtension{driver: driver}
}

func (e *VulkanExtension) CreateRayTracingPipelines(device core1_0.Device, deferredOperation khr_deferred_host_operations.DeferredOperation, pipelineCache core1_0.PipelineCache, o []RayTracingPipelineCreateInfo, allocation *driver.AllocationCallbacks) ([]core1_0.Pipeline, common.VkResult, error) {
	if device == nil {
		panic("device cannot be nil")
	}

	arena := cgoparam.GetAlloc()
	defer cgoparam.ReturnAlloc(arena)

	createInfos, err := common.AllocOptionSlice[C.VkRayTracingPipelineCreateInfoKHR](arena, o)
	if err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	var operationHandle khr_deferred_host_operations_driver.VkDeferredOperationKHR
	if deferredOperation != nil {
		operationHandle = deferredOperation.Handle()
	}
	var cacheHandle driver.VkPipelineCache
	if pipelineCache != nil {
		cacheHandle = pipelineCache.Handle()
	}

	pipelineHandles := make([]driver.VkPipeline, len(o))
	res, err := e.driver.VkCreateRayTracingPipelinesKHR(
		device.Handle(),
		operationHandle,
		cacheHandle,
		driver.Uint32(len(o)),
		(*khr_ray_tracing_pipeline_driver.VkRayTracingPipelineCreateInfoKHR)(unsafe.Pointer(createInfos)),
		allocation.Handle(),
		&pipelineHandles[0],
	)
	if err != nil {
		return nil, res, err
	}

	pipelines := make([]core1_0.Pipeline, len(o))
	for i, handle := range pipelineHandles {
		pipelines[i] = extensions.CreatePipelineObject(device.Driver(), device.Handle(), handle, device.APIVersion())
	}

	return pipelines, res, nil
}

func (e *VulkanExtension) RayTracingShaderGroupHandles(device core1_0.Device, pipeline core1_0.Pipeline, firstGroup, groupCount, dataSize int) ([]byte, common.VkResult, error) {
	if device == nil {
		panic("device cannot be nil")
	}
	if pipeline == nil {
		panic("pipeline cannot be nil")
	}

	data := make([]byte, dataSize)
	res, err := e.driver.VkGetRayTracingShaderGroupHandlesKHR(
		device.Handle(),
		pipeline.Handle(),
		driver.Uint32(firstGroup),
		driver.Uint32(groupCount),
		uintptr(dataSize),
		unsafe.Pointer(&data[0]),
	)
	if err != nil {
		return nil, res, err
	}

	return data, res, nil
}

func (e *VulkanExtension) CmdTraceRays(commandBuffer core1_0.CommandBuffer, raygen, miss, hit, callable StridedDeviceAddressRegion, width, height, depth int) error {
	if commandBuffer == nil {
		panic("commandBuffer cannot be nil")
	}

	arena := cgoparam.GetAlloc()
	defer cgoparam.ReturnAlloc(arena)

	raygenPtr, err := raygen.PopulateCPointer(arena, nil)
	if err != nil {
		return err
	}
	missPtr, err := miss.PopulateCPointer(arena, nil)
	if err != nil {
		return err
	}
	hitPtr, err := hit.PopulateCPointer(arena, nil)
	if err != nil {
		return err
	}
	callablePtr, err := callable.PopulateCPointer(arena, nil)
	if err != nil {
		return err
	}

	e.driver.VkCmdTraceRaysKHR(
		commandBuffer.Handle(),
		(*khr_ray_tracing_pipeline_driver.VkStridedDeviceAddressRegionKHR)(raygenPtr),
		(*khr_ray_tracing_pipeline_driver.VkStridedDeviceAddressRegionKHR)(missPtr),
		(*khr_ray_tracing_pipeline_driver.VkStridedDeviceAddressRegionKHR)(hitPtr),
		(*khr_ray_tracing_pipeline_driver.VkStridedDeviceAddressRegionKHR)(callablePtr),
		driver.Uint32(width),
		driver.Uint32(height),
		driver.Uint32(depth))

	return nil
}
