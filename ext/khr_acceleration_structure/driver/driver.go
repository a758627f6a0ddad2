package khr_acceleration_structure_driver

/*
#include <stdlib.h>
#include "../../vulkan/vulkan.h"

VkResult cgoCreateAccelerationStructureKHR(PFN_vkCreateAccelerationStructureKHR fn, VkDevice device, VkAccelerationStructureCreateInfoKHR *pCreateInfo, VkAllocationCallbacks *pAllocator, VkAccelerationStructureKHR *pAccelerationStructure) {
	return fn(device, pCreateInfo, pAllocator, pAccelerationStructure);
}

void cgoDestroyAccelerationStructureKHR(PFN_vkDestroyAccelerationStructureKHR fn, VkDevice device, VkAccelerationStructureKHR accelerationStructure, VkAllocationCallbacks *pAllocator) {
	fn(device, accelerationStructure, pAllocator);
}

void cgoGetAccelerationStructureBuildSizesKHR(PFN_vkGetAccelerationStructureBuildSizesKHR fn, VkDevice device, VkAccelerationStructureBuildTypeKHR buildType, VkAccelerationStructureBuildGeometryInfoKHR *pBuildInfo, uint32_t *pMaxPrimitiveCounts, VkAccelerationStructureBuildSizesInfoKHR *pSizeInfo) {
	fn(device, buildType, pBuildInfo, pMaxPrimitiveCounts, pSizeInfo);
}

void cgoCmdBuildAccelerationStructuresKHR(PFN_vkCmdBuildAccelerationStructuresKHR fn, VkCommandBuffer commandBuffer, uint32_t infoCount, VkAccelerationStructureBuildGeometryInfoKHR *pInfos, VkAccelerationStructureBuildRangeInfoKHR **ppBuildRangeInfos) {
	fn(commandBuffer, infoCount, pInfos, (const VkAccelerationStructureBuildRangeInfoKHR* const*)ppBuildRangeInfos);
}

VkDeviceAddress cgoGetAccelerationStructureDeviceAddressKHR(PFN_vkGetAccelerationStructureDeviceAddressKHR fn, VkDevice device, VkAccelerationStructureDeviceAddressInfoKHR *pInfo) {
	return fn(device, pInfo);
}
*/
import "C"
import (
	"unsafe"

	"github.com/CannibalVox/cgoparam"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/driver"

	_ "github.com/hexlattice/prism/ext/vulkan"
)

type Driver interface {
	VkCreateAccelerationStructureKHR(device driver.VkDevice, pCreateInfo *VkAccelerationStructureCreateInfoKHR, pAllocator *driver.VkAllocationCallbacks, pAccelerationStructure *VkAccelerationStructureKHR) (common.VkResult, error)
	VkDestroyAccelerationStructureKHR(device driver.VkDevice, accelerationStructure VkAccelerationStructureKHR, pAllocator *driver.VkAllocationCallbacks)
	VkGetAccelerationStructureBuildSizesKHR(device driver.VkDevice, buildType VkAccelerationStructureBuildTypeKHR, pBuildInfo *VkAccelerationStructureBuildGeometryInfoKHR, pMaxPrimitiveCounts *driver.Uint32, pSizeInfo *VkAccelerationStructureBuildSizesInfoKHR)
	VkCmdBuildAccelerationStructuresKHR(commandBuffer driver.VkCommandBuffer, infoCount driver.Uint32, pInfos *VkAccelerationStructureBuildGeometryInfoKHR, ppBuildRangeInfos **VkAccelerationStructureBuildRangeInfoKHR)
	VkGetAccelerationStructureDeviceAddressKHR(device driver.VkDevice, pInfo *VkAccelerationStructureDeviceAddressInfoKHR) driver.VkDeviceAddress
}

type VkAccelerationStructureKHR driver.VulkanHandle
type VkAccelerationStructureTypeKHR C.VkAccelerationStructureTypeKHR
type VkAccelerationStructureBuildTypeKHR C.VkAccelerationStructureBuildTypeKHR
type VkAccelerationStructureCreateInfoKHR C.VkAccelerationStructureCreateInfoKHR
type VkAccelerationStructureBuildGeometryInfoKHR C.VkAccelerationStructureBuildGeometryInfoKHR
type VkAccelerationStructureBuildRangeInfoKHR C.VkAccelerationStructureBuildRangeInfoKHR
type VkAccelerationStructureBuildSizesInfoKHR C.VkAccelerationStructureBuildSizesInfoKHR
type VkAccelerationStructureDeviceAddressInfoKHR C.VkAccelerationStructureDeviceAddressInfoKHR
type VkAccelerationStructureGeometryKHR C.VkAccelerationStructureGeometryKHR
type VkWriteDescriptorSetAccelerationStructureKHR C.VkWriteDescriptorSetAccelerationStructureKHR
type VkPhysicalDeviceAccelerationStructureFeaturesKHR C.VkPhysicalDeviceAccelerationStructureFeaturesKHR

type CDriver struct {
	coreDriver driver.Driver

	createAccelerationStructure           C.PFN_vkCreateAccelerationStructureKHR
	destroyAccelerationStructure          C.PFN_vkDestroyAccelerationStructureKHR
	getAccelerationStructureBuildSizes    C.PFN_vkGetAccelerationStructureBuildSizesKHR
	cmdBuildAccelerationStructures        C.PFN_vkCmdBuildAccelerationStructuresKHR
	getAccelerationStructureDeviceAddress C.PFN_vkGetAccelerationStructureDeviceAddressKHR
}

func CreateDriverFromCore(coreDriver driver.Driver) *CDriver {
	arena := cgoparam.GetAlloc()
	defer cgoparam.ReturnAlloc(arena)

	return &CDriver{
		coreDriver: coreDriver,

		createAccelerationStructure:           (C.PFN_vkCreateAccelerationStructureKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkCreateAccelerationStructureKHR")))),
		destroyAccelerationStructure:          (C.PFN_vkDestroyAccelerationStructureKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkDestroyAccelerationStructureKHR")))),
		getAccelerationStructureBuildSizes:    (C.PFN_vkGetAccelerationStructureBuildSizesKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkGetAccelerationStructureBuildSizesKHR")))),
		cmdBuildAccelerationStructures:        (C.PFN_vkCmdBuildAccelerationStructuresKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkCmdBuildAccelerationStructuresKHR")))),
		getAccelerationStructureDeviceAddress: (C.PFN_vkGetAccelerationStructureDeviceAddressKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkGetAccelerationStructureDeviceAddressKHR")))),
	}
}

func (d *CDriver) VkCreateAccelerationStructureKHR(device driver.VkDevice, pCreateInfo *VkAccelerationStructureCreateInfoKHR, pAllocator *driver.VkAllocationCallbacks, pAccelerationStructure *VkAccelerationStructureKHR) (common.VkResult, error) {
	if d.createAccelerationStructure == nil {
		panic("attempt to call extension method vkCreateAccelerationStructureKHR when extension not present")
	}

	res := common.VkResult(C.cgoCreateAccelerationStructureKHR(d.createAccelerationStructure,
		C.VkDevice(unsafe.Pointer(device)),
		(*C.VkAccelerationStructureCreateInfoKHR)(pCreateInfo),
		(*C.VkAllocationCallbacks)(unsafe.Pointer(pAllocator)),
		(*C.VkAccelerationStructureKHR)(unsafe.Pointer(pAccelerationStructure))))

	return res, res.ToError()
}

func (d *CDriver) VkDestroyAccelerationStructureKHR(device driver.VkDevice, accelerationStructure VkAccelerationStructureKHR, pAllocator *driver.VkAllocationCallbacks) {
	if d.destroyAccelerationStructure == nil {
		panic("attempt to call extension method vkDestroyAccelerationStructureKHR when extension not present")
	}

	C.cgoDestroyAccelerationStructureKHR(d.destroyAccelerationStructure,
		C.VkDevice(unsafe.Pointer(device)),
		C.VkAccelerationStructureKHR(unsafe.Pointer(accelerationStructure)),
		(*C.VkAllocationCallbacks)(unsafe.Pointer(pAllocator)))
}

func (d *CDriver) VkGetAccelerationStructureBuildSizesKHR(device driver.VkDevice, buildType VkAccelerationStructureBuildTypeKHR, pBuildInfo *VkAccelerationStructureBuildGeometryInfoKHR, pMaxPrimitiveCounts *driver.Uint32, pSizeInfo *VkAccelerationStructureBuildSizesInfoKHR) {
	if d.getAccelerationStructureBuildSizes == nil {
		panic("attempt to call extension method vkGetAccelerationStructureBuildSizesKHR when extension not present")
	}

	C.cgoGetAccelerationStructureBuildSizesKHR(d.getAccelerationStructureBuildSizes,
		C.VkDevice(unsafe.Pointer(device)),
		C.VkAccelerationStructureBuildTypeKHR(buildType),
		(*C.VkAccelerationStructureBuildGeometryInfoKHR)(pBuildInfo),
		(*C.uint32_t)(unsafe.Pointer(pMaxPrimitiveCounts)),
		(*C.VkAccelerationStructureBuildSizesInfoKHR)(pSizeInfo))
}

func (d *CDriver) VkCmdBuildAccelerationStructuresKHR(commandBuffer driver.VkCommandBuffer, infoCount driver.Uint32, pInfos *VkAccelerationStructureBuildGeometryInfoKHR, ppBuildRangeInfos **VkAccelerationStructureBuildRangeInfoKHR) {
	if d.cmdBuildAccelerationStructures == nil {
		panic("attempt to call extension method vkCmdBuildAccelerationStructuresKHR when extension not present")
	}

	C.cgoCmdBuildAccelerationStructuresKHR(d.cmdBuildAccelerationStructures,
		C.VkCommandBuffer(unsafe.Pointer(commandBuffer)),
		C.uint32_t(infoCount),
		(*C.VkAccelerationStructureBuildGeometryInfoKHR)(pInfos),
		(**C.VkAccelerationStructureBuildRangeInfoKHR)(unsafe.Pointer(ppBuildRangeInfos)))
}

func (d *CDriver) VkGetAccelerationStructureDeviceAddressKHR(device driver.VkDevice, pInfo *VkAccelerationStructureDeviceAddressInfoKHR) driver.VkDeviceAddress {
	if d.getAccelerationStructureDeviceAddress == nil {
		panic("attempt to call extension method vkGetAccelerationStructureDeviceAddressKHR when extension not present")
	}

	return driver.VkDeviceAddress(C.cgoGetAccelerationStructureDeviceAddressKHR(d.getAccelerationStructureDeviceAddress,
		C.VkDevice(unsafe.Pointer(device)),
		(*C.VkAccelerationStructureDeviceAddressInfoKHR)(pInfo)))
}
