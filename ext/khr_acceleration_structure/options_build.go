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
)

// DeviceOrHostAddress is a mutable device or host address: either DeviceAddress
// or HostAddress is consumed, depending on whether the operation runs on the
// device or the host
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkDeviceOrHostAddressKHR.html
type DeviceOrHostAddress struct {
	DeviceAddress uint64
	HostAddress   unsafe.Pointer
}

func (a DeviceOrHostAddress) populate(dst unsafe.Pointer) {
	if a.HostAddress != nil {
		*(*unsafe.Pointer)(dst) = a.HostAddress
		return
	}
	*(*C.VkDeviceAddress)(dst) = C.VkDeviceAddress(a.DeviceAddress)
}

// DeviceOrHostAddressConst is a read-only device or host address
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkDeviceOrHostAddressConstKHR.html
type DeviceOrHostAddressConst struct {
	DeviceAddress uint64
	HostAddress   unsafe.Pointer
}

func (a DeviceOrHostAddressConst) populate(dst unsafe.Pointer) {
	if a.HostAddress != nil {
		*(*unsafe.Pointer)(dst) = a.HostAddress
		return
	}
	*(*C.VkDeviceAddress)(dst) = C.VkDeviceAddress(a.DeviceAddress)
}

// AccelerationStructureGeometryTrianglesData describes a triangle geometry in
// a bottom-level acceleration structure
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureGeometryTrianglesDataKHR.html
type AccelerationStructureGeometryTrianglesData struct {
	// VertexFormat is the core1_0.Format of each vertex element
	VertexFormat core1_0.Format
	// VertexData is the address of the vertex data
	VertexData DeviceOrHostAddressConst
	// VertexStride is the stride in bytes between each vertex
	VertexStride int
	// MaxVertex is the highest index of a vertex that will be addressed by a build
	// command using this geometry
	MaxVertex int
	// IndexType is the core1_0.IndexType of each index element
	IndexType core1_0.IndexType
	// IndexData is the address of the index data
	IndexData DeviceOrHostAddressConst
	// TransformData is an optional address of a TransformMatrix describing a
	// transformation to be applied to vertices in this geometry
	TransformData DeviceOrHostAddressConst

	common.NextOptions
}

func (o AccelerationStructureGeometryTrianglesData) populate(allocator *cgoparam.Allocator, data *C.VkAccelerationStructureGeometryTrianglesDataKHR) error {
	next, err := allocNext(allocator, o.Next)
	if err != nil {
		return err
	}

	data.sType = C.VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_GEOMETRY_TRIANGLES_DATA_KHR
	data.pNext = next
	data.vertexFormat = C.VkFormat(o.VertexFormat)
	o.VertexData.populate(unsafe.Pointer(&data.vertexData))
	data.vertexStride = C.VkDeviceSize(o.VertexStride)
	data.maxVertex = C.uint32_t(o.MaxVertex)
	data.indexType = C.VkIndexType(o.IndexType)
	o.IndexData.populate(unsafe.Pointer(&data.indexData))
	o.TransformData.populate(unsafe.Pointer(&data.transformData))

	return nil
}

// AccelerationStructureGeometryAABBsData describes an axis-aligned bounding
// box geometry in a bottom-level acceleration structure
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureGeometryAabbsDataKHR.html
type AccelerationStructureGeometryAABBsData struct {
	// Data is the address of the AABB data
	Data DeviceOrHostAddressConst
	// Stride is the stride in bytes between each AABB entry
	Stride int

	common.NextOptions
}

func (o AccelerationStructureGeometryAABBsData) populate(allocator *cgoparam.Allocator, data *C.VkAccelerationStructureGeometryAabbsDataKHR) error {
	next, err := allocNext(allocator, o.Next)
	if err != nil {
		return err
	}

	data.sType = C.VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_GEOMETRY_AABBS_DATA_KHR
	data.pNext = next
	o.Data.populate(unsafe.Pointer(&data.data))
	data.stride = C.VkDeviceSize(o.Stride)

	return nil
}

// AccelerationStructureGeometryInstancesData describes the instance records
// of a top-level acceleration structure
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureGeometryInstancesDataKHR.html
type AccelerationStructureGeometryInstancesData struct {
	// ArrayOfPointers indicates whether Data addresses an array of instance records
	// or an array of per-record addresses
	ArrayOfPointers bool
	// Data is the address of the instance data
	Data DeviceOrHostAddressConst

	common.NextOptions
}

func (o AccelerationStructureGeometryInstancesData) populate(allocator *cgoparam.Allocator, data *C.VkAccelerationStructureGeometryInstancesDataKHR) error {
	next, err := allocNext(allocator, o.Next)
	if err != nil {
		return err
	}

	data.sType = C.VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_GEOMETRY_INSTANCES_DATA_KHR
	data.pNext = next
	data.arrayOfPointers = C.VkBool32(0)
	if o.ArrayOfPointers {
		data.arrayOfPointers = C.VkBool32(1)
	}
	o.Data.populate(unsafe.Pointer(&data.data))

	return nil
}

// AccelerationStructureGeometryData holds exactly one of the three geometry
// payloads; which one must match the owning geometry's GeometryType
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureGeometryDataKHR.html
type AccelerationStructureGeometryData struct {
	Triangles *AccelerationStructureGeometryTrianglesData
	AABBs     *AccelerationStructureGeometryAABBsData
	Instances *AccelerationStructureGeometryInstancesData
}

// AccelerationStructureGeometry describes one geometry of an acceleration
// structure build
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureGeometryKHR.html
type AccelerationStructureGeometry struct {
	// GeometryType classifies the payload in Geometry
	GeometryType GeometryType
	// Geometry is the geometry payload
	Geometry AccelerationStructureGeometryData
	// Flags specifies additional parameters of this geometry
	Flags GeometryFlags

	common.NextOptions
}

func (o AccelerationStructureGeometry) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkAccelerationStructureGeometryKHR)
	}

	data := (*C.VkAccelerationStructureGeometryKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_GEOMETRY_KHR
	data.pNext = next
	data.geometryType = C.VkGeometryTypeKHR(o.GeometryType)
	data.flags = C.VkGeometryFlagsKHR(o.Flags)

	var err error
	switch {
	case o.Geometry.Triangles != nil:
		err = o.Geometry.Triangles.populate(allocator,
			(*C.VkAccelerationStructureGeometryTrianglesDataKHR)(unsafe.Pointer(&data.geometry)))
	case o.Geometry.AABBs != nil:
		err = o.Geometry.AABBs.populate(allocator,
			(*C.VkAccelerationStructureGeometryAabbsDataKHR)(unsafe.Pointer(&data.geometry)))
	case o.Geometry.Instances != nil:
		err = o.Geometry.Instances.populate(allocator,
			(*C.VkAccelerationStructureGeometryInstancesDataKHR)(unsafe.Pointer(&data.geometry)))
	default:
		err = errors.New("an AccelerationStructureGeometry must carry a Triangles, AABBs, or Instances payload")
	}
	if err != nil {
		return nil, err
	}

	return preallocatedPointer, nil
}

// AccelerationStructureBuildRangeInfo specifies the primitive range of one
// geometry consumed by an acceleration structure build command
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureBuildRangeInfoKHR.html
type AccelerationStructureBuildRangeInfo struct {
	// PrimitiveCount is the number of primitives consumed for this geometry
	PrimitiveCount int
	// PrimitiveOffset is the byte offset into the geometry's index or AABB data
	PrimitiveOffset int
	// FirstVertex is the index of the first vertex to consume
	FirstVertex int
	// TransformOffset is the byte offset into the geometry's transform data
	TransformOffset int
}

func (o AccelerationStructureBuildRangeInfo) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkAccelerationStructureBuildRangeInfoKHR)
	}

	data := (*C.VkAccelerationStructureBuildRangeInfoKHR)(preallocatedPointer)
	data.primitiveCount = C.uint32_t(o.PrimitiveCount)
	data.primitiveOffset = C.uint32_t(o.PrimitiveOffset)
	data.firstVertex = C.uint32_t(o.FirstVertex)
	data.transformOffset = C.uint32_t(o.TransformOffset)

	return preallocatedPointer, nil
}

// AccelerationStructureBuildGeometryInfo specifies the geometries and build
// parameters of one acceleration structure build
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureBuildGeometryInfoKHR.html
type AccelerationStructureBuildGeometryInfo struct {
	// Type is the structure type being built
	Type AccelerationStructureType
	// Flags specifies additional parameters of the build
	Flags BuildAccelerationStructureFlags
	// Mode distinguishes a full build from an update
	Mode BuildAccelerationStructureMode

	// SrcAccelerationStructure is the existing structure an update reads from, or nil
	SrcAccelerationStructure AccelerationStructure
	// DstAccelerationStructure is the structure being built. It may be nil for size
	// queries
	DstAccelerationStructure AccelerationStructure

	// Geometries describes the geometries to build into DstAccelerationStructure
	Geometries []AccelerationStructureGeometry
	// ScratchData is the address of the scratch memory the build consumes
	ScratchData DeviceOrHostAddress

	common.NextOptions
}

func (o AccelerationStructureBuildGeometryInfo) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(C.sizeof_struct_VkAccelerationStructureBuildGeometryInfoKHR)
	}

	data := (*C.VkAccelerationStructureBuildGeometryInfoKHR)(preallocatedPointer)
	data.sType = C.VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_BUILD_GEOMETRY_INFO_KHR
	data.pNext = next
	data._type = C.VkAccelerationStructureTypeKHR(o.Type)
	data.flags = C.VkBuildAccelerationStructureFlagsKHR(o.Flags)
	data.mode = C.VkBuildAccelerationStructureModeKHR(o.Mode)

	data.srcAccelerationStructure = nil
	if o.SrcAccelerationStructure != nil {
		data.srcAccelerationStructure = C.VkAccelerationStructureKHR(unsafe.Pointer(o.SrcAccelerationStructure.Handle()))
	}
	data.dstAccelerationStructure = nil
	if o.DstAccelerationStructure != nil {
		data.dstAccelerationStructure = C.VkAccelerationStructureKHR(unsafe.Pointer(o.DstAccelerationStructure.Handle()))
	}

	data.geometryCount = C.uint32_t(len(o.Geometries))
	data.pGeometries = nil
	data.ppGeometries = nil
	if len(o.Geometries) > 0 {
		geometries, err := common.AllocOptionSlice[C.VkAccelerationStructureGeometryKHR](allocator, o.Geometries)
		if err != nil {
			return nil, err
		}
		data.pGeometries = geometries
	}

	o.ScratchData.populate(unsafe.Pointer(&data.scratchData))

	return preallocatedPointer, nil
}

func allocNext(allocator *cgoparam.Allocator, next common.Options) (unsafe.Pointer, error) {
	if next == nil {
		return nil, nil
	}
	return common.AllocOptions(allocator, next)
}
