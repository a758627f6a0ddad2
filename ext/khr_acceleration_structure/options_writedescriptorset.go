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

// WriteDescriptorSetAccelerationStructure chains into a
// core1_0.WriteDescriptorSet to bind AccelerationStructure objects to a
// DescriptorTypeAccelerationStructure descriptor
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkWriteDescriptorSetAccelerationStructureKHR.html
type WriteDescriptorSetAccelerationStructure struct {
	// AccelerationStructures is the list of structures to bind, one per descriptor
	// being updated
	AccelerationStructures []AccelerationStructure

	common.NextOptions
}

// WriteDescriptorSetCount supplies the descriptor count of the owning
// core1_0.WriteDescriptorSet, which carries no image, buffer, or texel view
// payload for this descriptor type.
func (o WriteDescriptorSetAccelerationStructure) WriteDescriptorSetCount() int {
	return len(o.AccelerationStructures)
}

func (o WriteDescriptorSetAccelerationStructure) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkWriteDescriptorSetAccelerationStructureKHR)
	}

	data := (*C.VkWriteDescriptorSetAccelerationStructureKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_WRITE_DESCRIPTOR_SET_ACCELERATION_STRUCTURE_KHR
	data.pNext = next

	count := len(o.AccelerationStructures)
	data.accelerationStructureCount = C.uint32_t(count)
	data.pAccelerationStructures = nil

	if count > 0 {
		structures := (*C.VkAccelerationStructureKHR)(allocator.Malloc(count * int(unsafe.Sizeof(unsafe.Pointer(nil)))))
		structureSlice := unsafe.Slice(structures, count)
		for i, structure := range o.AccelerationStructures {
			structureSlice[i] = nil
			if structure != nil {
				structureSlice[i] = C.VkAccelerationStructureKHR(unsafe.Pointer(structure.Handle()))
			}
		}
		data.pAccelerationStructures = structures
	}

	return preallocatedPointer, nil
}
