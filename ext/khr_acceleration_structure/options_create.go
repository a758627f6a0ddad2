package khr_acceleration_structure

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

// AccelerationStructureCreateInfo specifies the parameters of a newly-created
// AccelerationStructure
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureCreateInfoKHR.html
type AccelerationStructureCreateInfo struct {
	// CreateFlags specifies additional creation parameters
	CreateFlags AccelerationStructureCreateFlags
	// Buffer is the core1_0.Buffer the structure will be stored in
	Buffer core1_0.Buffer
	// Offset is the byte offset of the structure within Buffer. Must be a
	// multiple of 256
	Offset int
	// Size is the byte size required for the structure, as reported by a build
	// sizes query
	Size int
	// Type is the structure type that will be built into Buffer
	Type AccelerationStructureType
	// DeviceAddress is the device address requested for capture-replay, or 0
	DeviceAddress uint64

	common.NextOptions
}

func (o AccelerationStructureCreateInfo) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkAccelerationStructureCreateInfoKHR)
	}

	data := (*C.VkAccelerationStructureCreateInfoKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_CREATE_INFO_KHR
	data.pNext = next
	data.createFlags = C.VkAccelerationStructureCreateFlagsKHR(o.CreateFlags)
	data.buffer = nil
	if o.Buffer != nil {
		data.buffer = C.VkBuffer(unsafe.Pointer(o.Buffer.Handle()))
	}
	data.offset = C.VkDeviceSize(o.Offset)
	data.size = C.VkDeviceSize(o.Size)
	data._type = C.VkAccelerationStructureTypeKHR(o.Type)
	data.deviceAddress = C.VkDeviceAddress(o.DeviceAddress)

	return preallocatedPointer, nil
}

// AccelerationStructureDeviceAddressInfo identifies the AccelerationStructure
// whose device address is being queried
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureDeviceAddressInfoKHR.html
type AccelerationStructureDeviceAddressInfo struct {
	// AccelerationStructure is the structure being queried
	AccelerationStructure AccelerationStructure

	common.NextOptions
}

func (o AccelerationStructureDeviceAddressInfo) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkAccelerationStructureDeviceAddressInfoKHR)
	}

	data := (*C.VkAccelerationStructureDeviceAddressInfoKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_DEVICE_ADDRESS_INFO_KHR
	data.pNext = next
	data.accelerationStructure = nil
	if o.AccelerationStructure != nil {
		data.accelerationStructure = C.VkAccelerationStructureKHR(unsafe.Pointer(o.AccelerationStructure.Handle()))
	}

	return preallocatedPointer, nil
}

// AccelerationStructureBuildSizesInfo reports the memory an acceleration
// structure build requires
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureBuildSizesInfoKHR.html
type AccelerationStructureBuildSizesInfo struct {
	// AccelerationStructureSize is the byte size required for the structure itself
	AccelerationStructureSize int
	// UpdateScratchSize is the scratch byte size required for an update
	UpdateScratchSize int
	// BuildScratchSize is the scratch byte size required for a full build
	BuildScratchSize int
}
