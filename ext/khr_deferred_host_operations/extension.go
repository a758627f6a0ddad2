// Package khr_deferred_host_operations wraps the VK_KHR_deferred_host_operations
// device extension, which the acceleration-structure extension lists as a
// dependency. Operation objects let expensive driver work (large structure
// builds, pipeline compilation) run on application threads.
package khr_deferred_host_operations

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"

	khr_deferred_host_operations_driver "github.com/hexlattice/prism/ext/khr_deferred_host_operations/driver"
)

// DeferredOperation tracks one deferred driver operation. A nil
// DeferredOperation passed to an extension command requests the operation run
// inline instead.
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkDeferredOperationKHR.html
type DeferredOperation interface {
	// Handle is the internal Vulkan object handle for this DeferredOperation
	Handle() khr_deferred_host_operations_driver.VkDeferredOperationKHR

	// MaxConcurrency reports how many threads can usefully join the operation
	// right now
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkGetDeferredOperationMaxConcurrencyKHR.html
	MaxConcurrency() int
	// Result returns the outcome of a completed operation
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkGetDeferredOperationResultKHR.html
	Result() (common.VkResult, error)
	// Join lends the calling thread to the operation until it completes or no
	// more work remains for this thread
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkDeferredOperationJoinKHR.html
	Join() (common.VkResult, error)

	// Destroy deletes this DeferredOperation. The operation must be complete.
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkDestroyDeferredOperationKHR.html
	Destroy(callbacks *driver.AllocationCallbacks)
}

// VulkanDeferredOperation is the default DeferredOperation implementation,
// backed by a live Vulkan handle.
type VulkanDeferredOperation struct {
	handle khr_deferred_host_operations_driver.VkDeferredOperationKHR
	device driver.VkDevice
	driver khr_deferred_host_operations_driver.Driver
}

func (o *VulkanDeferredOperation) Handle() khr_deferred_host_operations_driver.VkDeferredOperationKHR {
	return o.handle
}

func (o *VulkanDeferredOperation) MaxConcurrency() int {
	return int(o.driver.VkGetDeferredOperationMaxConcurrencyKHR(o.device, o.handle))
}

func (o *VulkanDeferredOperation) Result() (common.VkResult, error) {
	return o.driver.VkGetDeferredOperationResultKHR(o.device, o.handle)
}

func (o *VulkanDeferredOperation) Join() (common.VkResult, error) {
	return o.driver.VkDeferredOperationJoinKHR(o.device, o.handle)
}

func (o *VulkanDeferredOperation) Destroy(callbacks *driver.AllocationCallbacks) {
	o.driver.VkDestroyDeferredOperationKHR(o.device, o.handle, callbacks.Handle())
}

// Extension contains all commands for the khr_deferred_host_operations extension
type Extension interface {
	// CreateDeferredOperation creates a new DeferredOperation in the completed state
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/vkCreateDeferredOperationKHR.html
	CreateDeferredOperation(device core1_0.Device, allocation *driver.AllocationCallbacks) (DeferredOperation, common.VkResult, error)
}

// VulkanExtension is an implementation of the Extension interface that actually
// communicates with Vulkan. This is the default implementation. See the interface
// for more documentation.
type VulkanExtension struct {
	driver khr_deferred_host_operations_driver.Driver
}

// CreateExtensionFromDevice produces an Extension object from a Device with
// khr_deferred_host_operations loaded
func CreateExtensionFromDevice(device core1_0.Device) *VulkanExtension {
	if !device.IsDeviceExtensionActive(ExtensionName) {
		return nil
	}
	return CreateExtensionFromDriver(khr_deferred_host_operations_driver.CreateDriverFromCore(device.Driver()))
}

// CreateExtensionFromDriver generates an Extension from a driver.Driver object-
// this is usually used in tests to build an Extension from mock drivers
func CreateExtensionFromDriver(driver khr_deferred_host_operations_driver.Driver) *VulkanExtension {
	return &VulkanExtension{driver: driver}
}

func (e *VulkanExtension) CreateDeferredOperation(device core1_0.Device, allocation *driver.AllocationCallbacks) (DeferredOperation, common.VkResult, error) {
	if device == nil {
		panic("device cannot be nil")
	}

	var handle khr_deferred_host_operations_driver.VkDeferredOperationKHR
	res, err := e.driver.VkCreateDeferredOperationKHR(device.Handle(), allocation.Handle(), &handle)
	if err != nil {
		return nil, res, err
	}

	return &VulkanDeferredOperation{
		handle: handle,
		device: device.Handle(),
		driver: e.driver,
	}, res, nil
}
