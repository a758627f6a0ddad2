package khr_ray_tracing_pipeline_driver

/*
#include <stdlib.h>
#include "../../vulkan/vulkan.h"

VkResult cgoCreateRayTracingPipelinesKHR(PFN_vkCreateRayTracingPipelinesKHR fn, VkDevice device, VkDeferredOperationKHR deferredOperation, VkPipelineCache pipelineCache, uint32_t createInfoCount, VkRayTracingPipelineCreateInfoKHR *pCreateInfos, VkAllocationCallbacks *pAllocator, VkPipeline *pPipelines) {
	return fn(device, deferredOperation, pipelineCache, createInfoCount, pCreateInfos, pAllocator, pPipelines);
}

VkResult cgoGetRayTracingShaderGroupHandlesKHR(PFN_vkGetRayTracingShaderGroupHandlesKHR fn, VkDevice device, VkPipeline pipeline, uint32_t firstGroup, uint32_t groupCount, size_t dataSize, void *pData) {
	return fn(device, pipeline, firstGroup, groupCount, dataSize, pData);
}

void cgoCmdTraceRaysKHR(PFN_vkCmdTraceRaysKHR fn, VkCommandBuffer commandBuffer, VkStridedDeviceAddressRegionKHR *pRaygenShaderBindingTable, VkStridedDeviceAddressRegionKHR *pMissShaderBindingTable, VkStridedDeviceAddressRegionKHR *pHitShaderBindingTable, VkStridedDeviceAddressRegionKHR *pCallableShaderBindingTable, uint32_t width, uint32_t height, uint32_t depth) {
	fn(commandBuffer, pRaygenShaderBindingTable, pMissShaderBindingTable, pHitShaderBindingTable, pCallableShaderBindingTable, width, height, depth);
}
*/
import "C"
import (
	"unsafe"

	"github.com/CannibalVox/cgoparam"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/driver"

	khr_deferred_host_operations_driver "github.com/hexlattice/prism/ext/khr_deferred_host_operations/driver"
	_ "github.com/hexlattice/prism/ext/vulkan"
)

type Driver interface {
	VkCreateRayTracingPipelinesKHR(device driver.VkDevice, deferredOperation khr_deferred_host_operations_driver.VkDeferredOperationKHR, pipelineCache driver.VkPipelineCache, createInfoCount driver.Uint32, pCreateInfos *VkRayTracingPipelineCreateInfoKHR, pAllocator *driver.VkAllocationCallbacks, pPipelines *driver.VkPipeline) (common.VkResult, error)
	VkGetRayTracingShaderGroupHandlesKHR(device driver.VkDevice, pipeline driver.VkPipeline, firstGroup driver.Uint32, groupCount driver.Uint32, dataSize uintptr, pData unsafe.Pointer) (common.VkResult, error)
	VkCmdTraceRaysKHR(commandBuffer driver.VkCommandBuffer, pRaygenShaderBindingTable *VkStridedDeviceAddressRegionKHR, pMissShaderBindingTable *VkStridedDeviceAddressRegionKHR, pHitShaderBindingTable *VkStridedDeviceAddressRegionKHR, pCallableShaderBindingTable *VkStridedDeviceAddressRegionKHR, width driver.Uint32, height driver.Uint32, depth driver.Uint32)
}

type VkRayTracingPipelineCreateInfoKHR C.VkRayTracingPipelineCreateInfoKHR
type VkRayTracingShaderGroupCreateInfoKHR C.VkRayTracingShaderGroupCreateInfoKHR
type VkStridedDeviceAddressRegionKHR C.VkStridedDeviceAddressRegionKHR
type VkPhysicalDeviceRayTracingPipelineFeaturesKHR C.VkPhysicalDeviceRayTracingPipelineFeaturesKHR
type VkPhysicalDeviceRayTracingPipelinePropertiesKHR C.VkPhysicalDeviceRayTracingPipelinePropertiesKHR

type CDriver struct {
	coreDriver driver.Driver

	createRayTracingPipelines       C.PFN_vkCreateRayTracingPipelinesKHR
	getRayTracingShaderGroupHandles C.PFN_vkGetRayTracingShaderGroupHandlesKHR
	cmdTraceRays                    C.PFN_vkCmdTraceRaysKHR
}

func CreateDriverFromCore(coreDriver driver.Driver) *CDriver {
	arena := cgoparam.GetAlloc()
	defer cgoparam.ReturnAlloc(arena)

	return &CDriver{
		coreDriver: coreDriver,

		createRayTracingPipelines:       (C.PFN_vkCreateRayTracingPipelinesKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkCreateRayTracingPipelinesKHR")))),
		getRayTracingShaderGroupHandles: (C.PFN_vkGetRayTracingShaderGroupHandlesKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkGetRayTracingShaderGroupHandlesKHR")))),
		cmdTraceRays:                    (C.PFN_vkCmdTraceRaysKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkCmdTraceRaysKHR")))),
	}
}

func (d *CDriver) VkCreateRayTracingPipelinesKHR(device driver.VkDevice, deferredOperation khr_deferred_host_operations_driver.VkDeferredOperationKHR, pipelineCache driver.VkPipelineCache, createInfoCount driver.Uint32, pCreateInfos *VkRayTracingPipelineCreateInfoKHR, pAllocator *driver.VkAllocationCallbacks, pPipelines *driver.VkPipeline) (common.VkResult, error) {
	if d.createRayTracingPipelines == nil {
		panic("attempt to call extension method vkCreateRayTracingPipelinesKHR when extension not present")
	}

	res := common.VkResult(C.cgoCreateRayTracingPipelinesKHR(d.createRayTracingPipelines,
		C.VkDevice(unsafe.Pointer(device)),
		C.VkDeferredOperationKHR(unsafe.Pointer(deferredOperation)),
		C.VkPipelineCache(unsafe.Pointer(pipelineCache)),
		C.uint32_t(createInfoCount),
		(*C.VkRayTracingPipelineCreateInfoKHR)(pCreateInfos),
		(*C.VkAllocationCallbacks)(unsafe.Pointer(pAllocator)),
		(*C.VkPipeline)(unsafe.Pointer(pPipelines))))

	return res, res.ToError()
}

func (d *CDriver) VkGetRayTracingShaderGroupHandlesKHR(device driver.VkDevice, pipeline driver.VkPipeline, firstGroup driver.Uint32, groupCount driver.Uint32, dataSize uintptr, pData unsafe.Pointer) (common.VkResult, error) {
	if d.getRayTracingShaderGroupHandles == nil {
		panic("attempt to call extension method vkGetRayTracingShaderGroupHandlesKHR when extension not present")
	}

	res := common.VkResult(C.cgoGetRayTracingShaderGroupHandlesKHR(d.getRayTracingShaderGroupHandles,
		C.VkDevice(unsafe.Pointer(device)),
		C.VkPipeline(unsafe.Pointer(pipeline)),
		C.uint32_t(firstGroup),
		C.uint32_t(groupCount),
		C.size_t(dataSize),
		pData))

	return res, res.ToError()
}

func (d *CDriver) VkCmdTraceRaysKHR(commandBuffer driver.VkCommandBuffer, pRaygenShaderBindingTable *VkStridedDeviceAddressRegionKHR, pMissShaderBindingTable *VkStridedDeviceAddressRegionKHR, pHitShaderBindingTable *VkStridedDeviceAddressRegionKHR, pCallableShaderBindingTable *VkStridedDeviceAddressRegionKHR, width driver.Uint32, height driver.Uint32, depth driver.Uint32) {
	if d.cmdTraceRays == nil {
		panic("attempt to call extension method vkCmdTraceRaysKHR when extension not present")
	}

	C.cgoCmdTraceRaysKHR(d.cmdTraceRays,
		C.VkCommandBuffer(unsafe.Pointer(commandBuffer)),
		(*C.VkStridedDeviceAddressRegionKHR)(pRaygenShaderBindingTable),
		(*C.VkStridedDeviceAddressRegionKHR)(pMissShaderBindingTable),
		(*C.VkStridedDeviceAddressRegionKHR)(pHitShaderBindingTable),
		(*C.VkStridedDeviceAddressRegionKHR)(pCallableShaderBindingTable),
		C.uint32_t(width),
		C.uint32_t(height),
		C.uint32_t(depth))
}
