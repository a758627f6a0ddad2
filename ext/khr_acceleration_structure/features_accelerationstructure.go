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
)

// PhysicalDeviceAccelerationStructureFeatures describes the acceleration
// structure features that can be supported by an implementation
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkPhysicalDeviceAccelerationStructureFeaturesKHR.html
type PhysicalDeviceAccelerationStructureFeatures struct {
	// AccelerationStructure indicates whether the implementation supports the
	// acceleration structure functionality
	AccelerationStructure bool
	// AccelerationStructureCaptureReplay indicates whether the implementation
	// supports saving and reusing acceleration structure device addresses
	AccelerationStructureCaptureReplay bool
	// AccelerationStructureIndirectBuild indicates whether the implementation
	// supports indirect acceleration structure build commands
	AccelerationStructureIndirectBuild bool
	// AccelerationStructureHostCommands indicates whether the implementation
	// supports host-side acceleration structure commands
	AccelerationStructureHostCommands bool
	// DescriptorBindingAccelerationStructureUpdateAfterBind indicates whether the
	// implementation supports updating acceleration structure descriptors after a
	// set is bound
	DescriptorBindingAccelerationStructureUpdateAfterBind bool

	common.NextOptions
	common.NextOutData
}

func (o *PhysicalDeviceAccelerationStructureFeatures) PopulateHeader(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkPhysicalDeviceAccelerationStructureFeaturesKHR)
	}

	data := (*C.VkPhysicalDeviceAccelerationStructureFeaturesKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_ACCELERATION_STRUCTURE_FEATURES_KHR
	data.pNext = next

	return preallocatedPointer, nil
}

func (o *PhysicalDeviceAccelerationStructureFeatures) PopulateOutData(cDataPointer unsafe.Pointer, helpers ...any) (next unsafe.Pointer, err error) {
	data := (*C.VkPhysicalDeviceAccelerationStructureFeaturesKHR)(cDataPointer)

	o.AccelerationStructure = data.accelerationStructure != C.VkBool32(0)
	o.AccelerationStructureCaptureReplay = data.accelerationStructureCaptureReplay != C.VkBool32(0)
	o.AccelerationStructureIndirectBuild = data.accelerationStructureIndirectBuild != C.VkBool32(0)
	o.AccelerationStructureHostCommands = data.accelerationStructureHostCommands != C.VkBool32(0)
	o.DescriptorBindingAccelerationStructureUpdateAfterBind = data.descriptorBindingAccelerationStructureUpdateAfterBind != C.VkBool32(0)

	return data.pNext, nil
}

func (o PhysicalDeviceAccelerationStructureFeatures) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkPhysicalDeviceAccelerationStructureFeaturesKHR)
	}

	data := (*C.VkPhysicalDeviceAccelerationStructureFeaturesKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_ACCELERATION_STRUCTURE_FEATURES_KHR
	data.pNext = next

	boolToVkBool := func(b bool) C.VkBool32 {
		if b {
			return C.VkBool32(1)
		}
		return C.VkBool32(0)
	}

	data.accelerationStructure = boolToVkBool(o.AccelerationStructure)
	data.accelerationStructureCaptureReplay = boolToVkBool(o.AccelerationStructureCaptureReplay)
	data.accelerationStructureIndirectBuild = boolToVkBool(o.AccelerationStructureIndirectBuild)
	data.accelerationStructureHostCommands = boolToVkBool(o.AccelerationStructureHostCommands)
	data.descriptorBindingAccelerationStructureUpdateAfterBind = boolToVkBool(o.DescriptorBindingAccelerationStructureUpdateAfterBind)

	return preallocatedPointer, nil
}
