package khr_acceleration_structure

import (
	"github.com/vkngwrapper/core/v2/driver"

	khr_acceleration_structure_driver "github.com/hexlattice/prism/ext/khr_acceleration_structure/driver"
)

// AccelerationStructure is an opaque handle to a built or buildable
// acceleration structure
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureKHR.html
type AccelerationStructure interface {
	// Handle is the internal Vulkan object handle for this AccelerationStructure
	Handle() khr_acceleration_structure_driver.VkAccelerationStructureKHR

	// Destroy deletes this AccelerationStructure and underlying structures from the
	// device. **Warning** after destruction, this object will still exist, but the
	// Vulkan object handle that backs it will be invalid. Do not call further methods
	// on this object.
	//
	// callbacks - A set of allocation callbacks to control the memory free behavior
	// of this command
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkDestroyAccelerationStructureKHR.html
	Destroy(callbacks *driver.AllocationCallbacks)
}

// VulkanAccelerationStructure is an implementation of the AccelerationStructure
// interface that actually communicates with Vulkan. This is the default
// implementation. See the interface for more documentation.
type VulkanAccelerationStructure struct {
	handle khr_acceleration_structure_driver.VkAccelerationStructureKHR
	device driver.VkDevice
	driver khr_acceleration_structure_driver.Driver
}

func (s *VulkanAccelerationStructure) Handle() khr_acceleration_structure_driver.VkAccelerationStructureKHR {
	return s.handle
}

func (s *VulkanAccelerationStructure) Destroy(callbacks *driver.AllocationCallbacks) {
	s.driver.VkDestroyAccelerationStructureKHR(s.device, s.handle, callbacks.Handle())
}
