package khr_acceleration_structure

/*
#include <stdlib.h>
#include "../vulkan/vulkan.h"
*/
import "C"
import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// AccelerationStructureType distinguishes top-level, bottom-level, and
// type-undetermined acceleration structures
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureTypeKHR.html
type AccelerationStructureType int32

var accelerationStructureTypeMapping = make(map[AccelerationStructureType]string)

func (e AccelerationStructureType) Register(str string) {
	accelerationStructureTypeMapping[e] = str
}

func (e AccelerationStructureType) String() string {
	return accelerationStructureTypeMapping[e]
}

////

// AccelerationStructureBuildType indicates whether a build will run on the
// host or the device
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureBuildTypeKHR.html
type AccelerationStructureBuildType int32

var accelerationStructureBuildTypeMapping = make(map[AccelerationStructureBuildType]string)

func (e AccelerationStructureBuildType) Register(str string) {
	accelerationStructureBuildTypeMapping[e] = str
}

func (e AccelerationStructureBuildType) String() string {
	return accelerationStructureBuildTypeMapping[e]
}

////

// BuildAccelerationStructureMode distinguishes full builds from updates of an
// existing structure
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkBuildAccelerationStructureModeKHR.html
type BuildAccelerationStructureMode int32

var buildAccelerationStructureModeMapping = make(map[BuildAccelerationStructureMode]string)

func (e BuildAccelerationStructureMode) Register(str string) {
	buildAccelerationStructureModeMapping[e] = str
}

func (e BuildAccelerationStructureMode) String() string {
	return buildAccelerationStructureModeMapping[e]
}

////

// GeometryType classifies the contents of a geometry
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkGeometryTypeKHR.html
type GeometryType int32

var geometryTypeMapping = make(map[GeometryType]string)

func (e GeometryType) Register(str string) {
	geometryTypeMapping[e] = str
}

func (e GeometryType) String() string {
	return geometryTypeMapping[e]
}

////

// GeometryFlags specifies additional parameters of a geometry
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkGeometryFlagBitsKHR.html
type GeometryFlags int32

var geometryFlagsMapping = common.NewFlagStringMapping[GeometryFlags]()

func (f GeometryFlags) Register(str string) {
	geometryFlagsMapping.Register(f, str)
}
func (f GeometryFlags) String() string {
	return geometryFlagsMapping.FlagsToString(f)
}

////

// BuildAccelerationStructureFlags specifies additional parameters of an
// acceleration structure build
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkBuildAccelerationStructureFlagBitsKHR.html
type BuildAccelerationStructureFlags int32

var buildAccelerationStructureFlagsMapping = common.NewFlagStringMapping[BuildAccelerationStructureFlags]()

func (f BuildAccelerationStructureFlags) Register(str string) {
	buildAccelerationStructureFlagsMapping.Register(f, str)
}
func (f BuildAccelerationStructureFlags) String() string {
	return buildAccelerationStructureFlagsMapping.FlagsToString(f)
}

////

// AccelerationStructureCreateFlags specifies additional creation parameters
// of an acceleration structure
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkAccelerationStructureCreateFlagBitsKHR.html
type AccelerationStructureCreateFlags int32

var accelerationStructureCreateFlagsMapping = common.NewFlagStringMapping[AccelerationStructureCreateFlags]()

func (f AccelerationStructureCreateFlags) Register(str string) {
	accelerationStructureCreateFlagsMapping.Register(f, str)
}
func (f AccelerationStructureCreateFlags) String() string {
	return accelerationStructureCreateFlagsMapping.FlagsToString(f)
}

////

const (
	// ExtensionName is "VK_KHR_acceleration_structure"
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VK_KHR_acceleration_structure.html
	ExtensionName string = C.VK_KHR_ACCELERATION_STRUCTURE_EXTENSION_NAME

	// AccelerationStructureTypeTopLevel is an acceleration structure containing instance
	// data referring to bottom-level structures
	AccelerationStructureTypeTopLevel AccelerationStructureType = C.VK_ACCELERATION_STRUCTURE_TYPE_TOP_LEVEL_KHR
	// AccelerationStructureTypeBottomLevel is an acceleration structure containing the
	// AABBs or geometry to be intersected
	AccelerationStructureTypeBottomLevel AccelerationStructureType = C.VK_ACCELERATION_STRUCTURE_TYPE_BOTTOM_LEVEL_KHR
	// AccelerationStructureTypeGeneric is an acceleration structure whose type is
	// determined at build time
	AccelerationStructureTypeGeneric AccelerationStructureType = C.VK_ACCELERATION_STRUCTURE_TYPE_GENERIC_KHR

	// AccelerationStructureBuildTypeHost requests builds on the host
	AccelerationStructureBuildTypeHost AccelerationStructureBuildType = C.VK_ACCELERATION_STRUCTURE_BUILD_TYPE_HOST_KHR
	// AccelerationStructureBuildTypeDevice requests builds on the device
	AccelerationStructureBuildTypeDevice AccelerationStructureBuildType = C.VK_ACCELERATION_STRUCTURE_BUILD_TYPE_DEVICE_KHR
	// AccelerationStructureBuildTypeHostOrDevice requests builds on either the host or
	// the device
	AccelerationStructureBuildTypeHostOrDevice AccelerationStructureBuildType = C.VK_ACCELERATION_STRUCTURE_BUILD_TYPE_HOST_OR_DEVICE_KHR

	// BuildAccelerationStructureModeBuild specifies that the destination structure will
	// be built using the specified geometries
	BuildAccelerationStructureModeBuild BuildAccelerationStructureMode = C.VK_BUILD_ACCELERATION_STRUCTURE_MODE_BUILD_KHR
	// BuildAccelerationStructureModeUpdate specifies that the destination structure will
	// be built using data in a source structure, updated by the specified geometries
	BuildAccelerationStructureModeUpdate BuildAccelerationStructureMode = C.VK_BUILD_ACCELERATION_STRUCTURE_MODE_UPDATE_KHR

	// GeometryTypeTriangles specifies a geometry consisting of triangles
	GeometryTypeTriangles GeometryType = C.VK_GEOMETRY_TYPE_TRIANGLES_KHR
	// GeometryTypeAABBs specifies a geometry consisting of axis-aligned bounding boxes
	GeometryTypeAABBs GeometryType = C.VK_GEOMETRY_TYPE_AABBS_KHR
	// GeometryTypeInstances specifies a geometry consisting of acceleration structure
	// instances
	GeometryTypeInstances GeometryType = C.VK_GEOMETRY_TYPE_INSTANCES_KHR

	// GeometryOpaque indicates that this geometry does not invoke the any-hit shaders
	// even if present in a hit group
	GeometryOpaque GeometryFlags = C.VK_GEOMETRY_OPAQUE_BIT_KHR
	// GeometryNoDuplicateAnyHitInvocation indicates that the implementation must only
	// call the any-hit shader a single time for each primitive in this geometry
	GeometryNoDuplicateAnyHitInvocation GeometryFlags = C.VK_GEOMETRY_NO_DUPLICATE_ANY_HIT_INVOCATION_BIT_KHR

	// BuildAccelerationStructureAllowUpdate indicates the structure can be updated with
	// BuildAccelerationStructureModeUpdate
	BuildAccelerationStructureAllowUpdate BuildAccelerationStructureFlags = C.VK_BUILD_ACCELERATION_STRUCTURE_ALLOW_UPDATE_BIT_KHR
	// BuildAccelerationStructureAllowCompaction indicates the structure can act as the
	// source of a compacting copy
	BuildAccelerationStructureAllowCompaction BuildAccelerationStructureFlags = C.VK_BUILD_ACCELERATION_STRUCTURE_ALLOW_COMPACTION_BIT_KHR
	// BuildAccelerationStructurePreferFastTrace prioritizes trace performance over
	// build time
	BuildAccelerationStructurePreferFastTrace BuildAccelerationStructureFlags = C.VK_BUILD_ACCELERATION_STRUCTURE_PREFER_FAST_TRACE_BIT_KHR
	// BuildAccelerationStructurePreferFastBuild prioritizes build time over trace
	// performance
	BuildAccelerationStructurePreferFastBuild BuildAccelerationStructureFlags = C.VK_BUILD_ACCELERATION_STRUCTURE_PREFER_FAST_BUILD_BIT_KHR
	// BuildAccelerationStructureLowMemory minimizes the amount of scratch memory used
	// during the build and the final size of the structure
	BuildAccelerationStructureLowMemory BuildAccelerationStructureFlags = C.VK_BUILD_ACCELERATION_STRUCTURE_LOW_MEMORY_BIT_KHR

	// AccelerationStructureCreateDeviceAddressCaptureReplay specifies that the
	// structure's address can be saved and reused on a subsequent run
	AccelerationStructureCreateDeviceAddressCaptureReplay AccelerationStructureCreateFlags = C.VK_ACCELERATION_STRUCTURE_CREATE_DEVICE_ADDRESS_CAPTURE_REPLAY_BIT_KHR

	// BufferUsageAccelerationStructureStorage specifies that the Buffer is suitable for
	// storage space for an acceleration structure
	BufferUsageAccelerationStructureStorage core1_0.BufferUsageFlags = C.VK_BUFFER_USAGE_ACCELERATION_STRUCTURE_STORAGE_BIT_KHR
	// BufferUsageAccelerationStructureBuildInputReadOnly specifies that the Buffer is
	// suitable for use as a read-only input to an acceleration structure build
	BufferUsageAccelerationStructureBuildInputReadOnly core1_0.BufferUsageFlags = C.VK_BUFFER_USAGE_ACCELERATION_STRUCTURE_BUILD_INPUT_READ_ONLY_BIT_KHR

	// DescriptorTypeAccelerationStructure specifies an acceleration structure descriptor
	DescriptorTypeAccelerationStructure core1_0.DescriptorType = C.VK_DESCRIPTOR_TYPE_ACCELERATION_STRUCTURE_KHR

	// ObjectTypeAccelerationStructure specifies an AccelerationStructure handle
	ObjectTypeAccelerationStructure core1_0.ObjectType = C.VK_OBJECT_TYPE_ACCELERATION_STRUCTURE_KHR

	// PipelineStageAccelerationStructureBuild specifies the execution of acceleration
	// structure build commands
	PipelineStageAccelerationStructureBuild core1_0.PipelineStageFlags = C.VK_PIPELINE_STAGE_ACCELERATION_STRUCTURE_BUILD_BIT_KHR

	// AccessAccelerationStructureRead specifies read access to an acceleration structure
	// as part of a trace, build, or copy command
	AccessAccelerationStructureRead core1_0.AccessFlags = C.VK_ACCESS_ACCELERATION_STRUCTURE_READ_BIT_KHR
	// AccessAccelerationStructureWrite specifies write access to an acceleration
	// structure as part of a build or copy command
	AccessAccelerationStructureWrite core1_0.AccessFlags = C.VK_ACCESS_ACCELERATION_STRUCTURE_WRITE_BIT_KHR
)

func init() {
	AccelerationStructureTypeTopLevel.Register("Top-Level")
	AccelerationStructureTypeBottomLevel.Register("Bottom-Level")
	AccelerationStructureTypeGeneric.Register("Generic")

	AccelerationStructureBuildTypeHost.Register("Host")
	AccelerationStructureBuildTypeDevice.Register("Device")
	AccelerationStructureBuildTypeHostOrDevice.Register("Host-Or-Device")

	BuildAccelerationStructureModeBuild.Register("Build")
	BuildAccelerationStructureModeUpdate.Register("Update")

	GeometryTypeTriangles.Register("Triangles")
	GeometryTypeAABBs.Register("AABBs")
	GeometryTypeInstances.Register("Instances")

	GeometryOpaque.Register("Opaque")
	GeometryNoDuplicateAnyHitInvocation.Register("No Duplicate Any-Hit Invocation")

	BuildAccelerationStructureAllowUpdate.Register("Allow Update")
	BuildAccelerationStructureAllowCompaction.Register("Allow Compaction")
	BuildAccelerationStructurePreferFastTrace.Register("Prefer Fast Trace")
	BuildAccelerationStructurePreferFastBuild.Register("Prefer Fast Build")
	BuildAccelerationStructureLowMemory.Register("Low Memory")

	AccelerationStructureCreateDeviceAddressCaptureReplay.Register("Device Address Capture-Replay")

	ObjectTypeAccelerationStructure.Register("AccelerationStructure")
	PipelineStageAccelerationStructureBuild.Register("Acceleration Structure Build")
	AccessAccelerationStructureRead.Register("Acceleration Structure Read")
	AccessAccelerationStructureWrite.Register("Acceleration Structure Write")
}
