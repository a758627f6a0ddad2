package khr_deferred_host_operations

/*
#include <stdlib.h>
#include "../vulkan/vulkan.h"
*/
import "C"
import "github.com/vkngwrapper/core/v2/common"

const (
	// ExtensionName is "VK_KHR_deferred_host_operations"
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VK_KHR_deferred_host_operations.html
	ExtensionName string = C.VK_KHR_DEFERRED_HOST_OPERATIONS_EXTENSION_NAME
)

const (
	// VKThreadIdle indicates a deferred operation is not complete but there is no work
	// remaining to assist with
	VKThreadIdle common.VkResult = C.VK_THREAD_IDLE_KHR
	// VKThreadDone indicates a deferred operation is not complete but there is no work
	// remaining for additional threads
	VKThreadDone common.VkResult = C.VK_THREAD_DONE_KHR
	// VKOperationDeferred indicates a deferred operation was requested and at least some
	// of the work was deferred
	VKOperationDeferred common.VkResult = C.VK_OPERATION_DEFERRED_KHR
	// VKOperationNotDeferred indicates a deferred operation was requested and no
	// operations were deferred
	VKOperationNotDeferred common.VkResult = C.VK_OPERATION_NOT_DEFERRED_KHR
)

func init() {
	VKThreadIdle.Register("thread idle")
	VKThreadDone.Register("thread done")
	VKOperationDeferred.Register("operation deferred")
	VKOperationNotDeferred.Register("operation not deferred")
}
