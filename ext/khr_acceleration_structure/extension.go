// Package khr_acceleration_structure wraps the VK_KHR_acceleration_structure
// device extension: creation, size queries, device builds, and device-address
// queries for ray-tracing acceleration structures.
package khr_acceleration_structure

/*
#include <stdlib.h>
#include "../vulkan/vulkan.h"
*/
import "C"
import (
	"unsafe"

	"github.com/CannibalVox/cgoparam"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"

	khr_acceleration_structure_driver "github.com/hexlattice/prism/ext/khr_acceleration_structure/driver"
)

// Extension contains all commands for the khr_acceleration_structure extension
type Extension interface {
	// CreateAccelerationStructure creates a new AccelerationStructure in the
	// storage buffer named by o
	//
	// device - The device to create the structure on
	//
	// allocation - A set of allocation callbacks to control the memory allocation
	// behavior of this command
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkCreateAccelerationStructureKHR.html
	CreateAccelerationStructure(device core1_0.Device, allocation *driver.AllocationCallbacks, o AccelerationStructureCreateInfo) (AccelerationStructure, common.VkResult, error)

	// AccelerationStructureBuildSizes queries the structure and scratch sizes a
	// build of info would require. primitiveCounts holds the maximum primitive
	// count of each geometry in info, in order.
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkGetAccelerationStructureBuildSizesKHR.html
	AccelerationStructureBuildSizes(device core1_0.Device, buildType AccelerationStructureBuildType, info AccelerationStructureBuildGeometryInfo, primitiveCounts []int) (*AccelerationStructureBuildSizesInfo, error)

	// CmdBuildAccelerationStructures records acceleration structure builds into
	// commandBuffer. buildRanges holds one range slice per entry of infos, with
	// one range per geometry.
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkCmdBuildAccelerationStructuresKHR.html
	CmdBuildAccelerationStructures(commandBuffer core1_0.CommandBuffer, infos []AccelerationStructureBuildGeometryInfo, buildRanges [][]AccelerationStructureBuildRangeInfo) error

	// AccelerationStructureDeviceAddress queries the device address of a built
	// structure, for use in instance records and shader tables
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkGetAccelerationStructureDeviceAddressKHR.html
	AccelerationStructureDeviceAddress(device core1_0.Device, o AccelerationStructureDeviceAddressInfo) (uint64, error)
}

// VulkanExtension is an implementation of the Extension interface that actually
// communicates with Vulkan. This is the default implementation. See the interface
// for more documentation.
type VulkanExtension struct {
	driver khr_acceleration_structure_driver.Driver
}

// CreateExtensionFromDevice produces an Extension object from a Device with
// khr_acceleration_structure loaded
func CreateExtensionFromDevice(device core1_0.Device) *VulkanExtension {
	if !device.IsDeviceExtensionActive(ExtensionName) {
		return nil
	}
	return CreateExtensionFromDriver(khr_acceleration_structure_driver.CreateDriverFromCore(device.Driver()))
}

// CreateExtensionFromDriver generates an Extension from a driver.Driver object-
// this is usually used in tests to build an Extension from mock drivers
func CreateExtensionFromDriver(driver khr_acceleration_structure_driver.Driver) *VulkanExtension {
	return &VulkanExtension{driver: driver}
}

func (e *VulkanExtension) CreateAccelerationStructure(device core1_0.Device, allocation *driver.AllocationCallbacks, o AccelerationStructureCreateInfo) (AccelerationStructure, common.VkResult, error) {
	if device == nil {
		panic("device cannot be nil")
	}

	arena := cgoparam.GetAlloc()
	defer cgoparam.ReturnAlloc(arena)

	createInfoPtr, err := common.AllocOptions(arena, o)
	if err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	var handle khr_acceleration_structure_driver.VkAccelerationStructureKHR
	res, err := e.driver.VkCreateAccelerationStructureKHR(
		device.Handle(),
		(*khr_acceleration_structure_driver.VkAccelerationStructureCreateInfoKHR)(createInfoPtr),
		allocation.Handle(),
		&handle,
	)
	if err != nil {
		return nil, res, err
	}

	return &VulkanAccelerationStructure{
		handle: handle,
		device: device.Handle(),
		driver: e.driver,
	}, res, nil
}

func (e *VulkanExtension) AccelerationStructureBuildSizes(device core1_0.Device, buildType AccelerationStructureBuildType, info AccelerationStructureBuildGeometryInfo, primitiveCounts []int) (*AccelerationStructureBuildSizesInfo, error) {
	if device == nil {
		panic("device cannot be nil")
	}
	if len(primitiveCounts) != len(info.Geometries) {
		return nil, errors.Errorf("expected one primitive count per geometry, but received %d counts for %d geometries",
			len(primitiveCounts), len(info.Geometries))
	}

	arena := cgoparam.GetAlloc()
	defer cgoparam.ReturnAlloc(arena)

	infoPtr, err := common.AllocOptions(arena, info)
	if err != nil {
		return nil, err
	}

	var countsPtr *C.uint32_t
	if len(primitiveCounts) > 0 {
		countsPtr = (*C.uint32_t)(arena.Malloc(len(primitiveCounts) * 4))
		countsSlice := unsafe.Slice(countsPtr, len(primitiveCounts))
		for i, count := range primitiveCounts {
			countsSlice[i] = C.uint32_t(count)
		}
	}

	sizesPtr := arena.Malloc(C.sizeof_struct_VkAccelerationStructureBuildSizesInfoKHR)
	sizes := (*C.VkAccelerationStructureBuildSizesInfoKHR)(sizesPtr)
	sizes.sType = C.VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_BUILD_SIZES_INFO_KHR
	sizes.pNext = nil

	e.driver.VkGetAccelerationStructureBuildSizesKHR(
		device.Handle(),
		khr_acceleration_structure_driver.VkAccelerationStructureBuildTypeKHR(buildType),
		(*khr_acceleration_structure_driver.VkAccelerationStructureBuildGeometryInfoKHR)(infoPtr),
		(*driver.Uint32)(unsafe.Pointer(countsPtr)),
		(*khr_acceleration_structure_driver.VkAccelerationStructureBuildSizesInfoKHR)(sizesPtr),
	)

	return &AccelerationStructureBuildSizesInfo{
		AccelerationStructureSize: int(sizes.accelerationStructureSize),
		UpdateScratchSize:         int(sizes.updateScratchSize),
		BuildScratchSize:          int(sizes.buildScratchSize),
	}, nil
}

func (e *VulkanExtension) CmdBuildAccelerationStructures(commandBuffer core1_0.CommandBuffer, infos []AccelerationStructureBuildGeometryInfo, buildRanges [][]AccelerationStructureBuildRangeInfo) error {
	if commandBuffer == nil {
		panic("commandBuffer cannot be nil")
	}
	if len(buildRanges) != len(infos) {
		return errors.Errorf("expected one range slice per build info, but received %d range slices for %d infos",
			len(buildRanges), len(infos))
	}
	for i := range infos {
		if len(buildRanges[i]) != len(infos[i].Geometries) {
			return errors.Errorf("build info %d has %d geometries but %d build ranges",
				i, len(infos[i].Geometries), len(buildRanges[i]))
		}
	}

	arena := cgoparam.GetAlloc()
	defer cgoparam.ReturnAlloc(arena)

	infosPtr, err := common.AllocOptionSlice[C.VkAccelerationStructureBuildGeometryInfoKHR](arena, infos)
	if err != nil {
		return err
	}

	rangePtrs := (**C.VkAccelerationStructureBuildRangeInfoKHR)(arena.Malloc(len(infos) * int(unsafe.Sizeof(unsafe.Pointer(nil)))))
	rangePtrSlice := unsafe.Slice(rangePtrs, len(infos))
	for i := range infos {
		ranges, err := common.AllocSlice[C.VkAccelerationStructureBuildRangeInfoKHR](arena, buildRanges[i])
		if err != nil {
			return err
		}
		rangePtrSlice[i] = ranges
	}

	e.driver.VkCmdBuildAccelerationStructuresKHR(
		commandBuffer.Handle(),
		driver.Uint32(len(infos)),
		(*khr_acceleration_structure_driver.VkAccelerationStructureBuildGeometryInfoKHR)(unsafe.Pointer(infosPtr)),
		(**khr_acceleration_structure_driver.VkAccelerationStructureBuildRangeInfoKHR)(unsafe.Pointer(rangePtrs)),
	)

	return nil
}

func (e *VulkanExtension) AccelerationStructureDeviceAddress(device core1_0.Device, o AccelerationStructureDeviceAddressInfo) (uint64, error) {
	if device == nil {
		panic("device cannot be nil")
	}

	arena := cgoparam.GetAlloc()
	defer cgoparam.ReturnAlloc(arena)

	infoPtr, err := common.AllocOptions(arena, o)
	if err != nil {
		return 0, err
	}

	address := e.driver.VkGetAccelerationStructureDeviceAddressKHR(
		device.Handle(),
		(*khr_acceleration_structure_driver.VkAccelerationStructureDeviceAddressInfoKHR)(infoPtr),
	)

	return uint64(address), nil
}
