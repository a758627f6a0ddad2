package khr_deferred_host_operations_driver

/*
#include <stdlib.h>
#include "../../vulkan/vulkan.h"

VkResult cgoCreateDeferredOperationKHR(PFN_vkCreateDeferredOperationKHR fn, VkDevice device, VkAllocationCallbacks *pAllocator, VkDeferredOperationKHR *pDeferredOperation) {
	return fn(device, pAllocator, pDeferredOperation);
}

void cgoDestroyDeferredOperationKHR(PFN_vkDestroyDeferredOperationKHR fn, VkDevice device, VkDeferredOperationKHR operation, VkAllocationCallbacks *pAllocator) {
	fn(device, operation, pAllocator);
}

uint32_t cgoGetDeferredOperationMaxConcurrencyKHR(PFN_vkGetDeferredOperationMaxConcurrencyKHR fn, VkDevice device, VkDeferredOperationKHR operation) {
	return fn(device, operation);
}

VkResult cgoGetDeferredOperationResultKHR(PFN_vkGetDeferredOperationResultKHR fn, VkDevice device, VkDeferredOperationKHR operation) {
	return fn(device, operation);
}

VkResult cgoDeferredOperationJoinKHR(PFN_vkDeferredOperationJoinKHR fn, VkDevice device, VkDeferredOperationKHR operation) {
	return fn(device, operation);
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
	VkCreateDeferredOperationKHR(device driver.VkDevice, pAllocator *driver.VkAllocationCallbacks, pDeferredOperation *VkDeferredOperationKHR) (common.VkResult, error)
	VkDestroyDeferredOperationKHR(device driver.VkDevice, operation VkDeferredOperationKHR, pAllocator *driver.VkAllocationCallbacks)
	VkGetDeferredOperationMaxConcurrencyKHR(device driver.VkDevice, operation VkDeferredOperationKHR) driver.Uint32
	VkGetDeferredOperationResultKHR(device driver.VkDevice, operation VkDeferredOperationKHR) (common.VkResult, error)
	VkDeferredOperationJoinKHR(device driver.VkDevice, operation VkDeferredOperationKHR) (common.VkResult, error)
}

type VkDeferredOperationKHR driver.VulkanHandle

type CDriver struct {
	coreDriver driver.Driver

	createDeferredOperation            C.PFN_vkCreateDeferredOperationKHR
	destroyDeferredOperation           C.PFN_vkDestroyDeferredOperationKHR
	getDeferredOperationMaxConcurrency C.PFN_vkGetDeferredOperationMaxConcurrencyKHR
	getDeferredOperationResult         C.PFN_vkGetDeferredOperationResultKHR
	deferredOperationJoin              C.PFN_vkDeferredOperationJoinKHR
}

func CreateDriverFromCore(coreDriver driver.Driver) *CDriver {
	arena := cgoparam.GetAlloc()
	defer cgoparam.ReturnAlloc(arena)

	return &CDriver{
		coreDriver: coreDriver,

		createDeferredOperation:            (C.PFN_vkCreateDeferredOperationKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkCreateDeferredOperationKHR")))),
		destroyDeferredOperation:           (C.PFN_vkDestroyDeferredOperationKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkDestroyDeferredOperationKHR")))),
		getDeferredOperationMaxConcurrency: (C.PFN_vkGetDeferredOperationMaxConcurrencyKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkGetDeferredOperationMaxConcurrencyKHR")))),
		getDeferredOperationResult:         (C.PFN_vkGetDeferredOperationResultKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkGetDeferredOperationResultKHR")))),
		deferredOperationJoin:              (C.PFN_vkDeferredOperationJoinKHR)(coreDriver.LoadProcAddr((*driver.Char)(arena.CString("vkDeferredOperationJoinKHR")))),
	}
}

func (d *CDriver) VkCreateDeferredOperationKHR(device driver.VkDevice, pAllocator *driver.VkAllocationCallbacks, pDeferredOperation *VkDeferredOperationKHR) (common.VkResult, error) {
	if d.createDeferredOperation == nil {
		panic("attempt to call extension method vkCreateDeferredOperationKHR when extension not present")
	}

	res := common.VkResult(C.cgoCreateDeferredOperationKHR(d.createDeferredOperation,
		C.VkDevice(unsafe.Pointer(device)),
		(*C.VkAllocationCallbacks)(unsafe.Pointer(pAllocator)),
		(*C.VkDeferredOperationKHR)(unsafe.Pointer(pDeferredOperation))))

	return res, res.ToError()
}

func (d *CDriver) VkDestroyDeferredOperationKHR(device driver.VkDevice, operation VkDeferredOperationKHR, pAllocator *driver.VkAllocationCallbacks) {
	if d.destroyDeferredOperation == nil {
		panic("attempt to call extension method vkDestroyDeferredOperationKHR when extension not present")
	}

	C.cgoDestroyDeferredOperationKHR(d.destroyDeferredOperation,
		C.VkDevice(unsafe.Pointer(device)),
		C.VkDeferredOperationKHR(unsafe.Pointer(operation)),
		(*C.VkAllocationCallbacks)(unsafe.Pointer(pAllocator)))
}

func (d *CDriver) VkGetDeferredOperationMaxConcurrencyKHR(device driver.VkDevice, operation VkDeferredOperationKHR) driver.Uint32 {
	if d.getDeferredOperationMaxConcurrency == nil {
		panic("attempt to call extension method vkGetDeferredOperationMaxConcurrencyKHR when extension not present")
	}

	return driver.Uint32(C.cgoGetDeferredOperationMaxConcurrencyKHR(d.getDeferredOperationMaxConcurrency,
		C.VkDevice(unsafe.Pointer(device)),
		C.VkDeferredOperationKHR(unsafe.Pointer(operation))))
}

func (d *CDriver) VkGetDeferredOperationResultKHR(device driver.VkDevice, operation VkDeferredOperationKHR) (common.VkResult, error) {
	if d.getDeferredOperationResult == nil {
		panic("attempt to call extension method vkGetDeferredOperationResultKHR when extension not present")
	}

	res := common.VkResult(C.cgoGetDeferredOperationResultKHR(d.getDeferredOperationResult,
		C.VkDevice(unsafe.Pointer(device)),
		C.VkDeferredOperationKHR(unsafe.Pointer(operation))))

	return res, res.ToError()
}

func (d *CDriver) VkDeferredOperationJoinKHR(device driver.VkDevice, operation VkDeferredOperationKHR) (common.VkResult, error) {
	if d.deferredOperationJoin == nil {
		panic("attempt to call extension method vkDeferredOperationJoinKHR when extension not present")
	}

	res := common.VkResult(C.cgoDeferredOperationJoinKHR(d.deferredOperationJoin,
		C.VkDevice(unsafe.Pointer(device)),
		C.VkDeferredOperationKHR(unsafe.Pointer(operation))))

	return res, res.ToError()
}
