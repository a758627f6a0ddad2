package khr_ray_tracing_pipeline

/*
#include <stdlib.h>
#include "../vulkan/vulkan.h"
*/
import "C"
import (
	"github.com/vkngwrapper/core/v2/core1_0"
)

// RayTracingShaderGroupType classifies a shader group within a ray tracing
// pipeline
//
// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkRayTracingShaderGroupTypeKHR.html
type RayTracingShaderGroupType int32

var rayTracingShaderGroupTypeMapping = make(map[RayTracingShaderGroupType]string)

func (e RayTracingShaderGroupType) Register(str string) {
	rayTracingShaderGroupTypeMapping[e] = str
}

func (e RayTracingShaderGroupType) String() string {
	return rayTracingShaderGroupTypeMapping[e]
}

////

const (
	// ExtensionName is "VK_KHR_ray_tracing_pipeline"
	//
	// https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VK_KHR_ray_tracing_pipeline.html
	ExtensionName string = C.VK_KHR_RAY_TRACING_PIPELINE_EXTENSION_NAME

	// ShaderUnused marks an unused shader slot in a shader group
	ShaderUnused int = C.VK_SHADER_UNUSED_KHR

	// RayTracingShaderGroupTypeGeneral is a group with a single raygen, miss, or
	// callable shader
	RayTracingShaderGroupTypeGeneral RayTracingShaderGroupType = C.VK_RAY_TRACING_SHADER_GROUP_TYPE_GENERAL_KHR
	// RayTracingShaderGroupTypeTrianglesHitGroup is a hit group with only closest-hit
	// and any-hit shaders for triangle geometry
	RayTracingShaderGroupTypeTrianglesHitGroup RayTracingShaderGroupType = C.VK_RAY_TRACING_SHADER_GROUP_TYPE_TRIANGLES_HIT_GROUP_KHR
	// RayTracingShaderGroupTypeProceduralHitGroup is a hit group with an intersection
	// shader for procedural geometry
	RayTracingShaderGroupTypeProceduralHitGroup RayTracingShaderGroupType = C.VK_RAY_TRACING_SHADER_GROUP_TYPE_PROCEDURAL_HIT_GROUP_KHR

	// ShaderStageRaygen is the ray generation stage
	ShaderStageRaygen core1_0.ShaderStageFlags = C.VK_SHADER_STAGE_RAYGEN_BIT_KHR
	// ShaderStageAnyHit is the any-hit stage
	ShaderStageAnyHit core1_0.ShaderStageFlags = C.VK_SHADER_STAGE_ANY_HIT_BIT_KHR
	// ShaderStageClosestHit is the closest-hit stage
	ShaderStageClosestHit core1_0.ShaderStageFlags = C.VK_SHADER_STAGE_CLOSEST_HIT_BIT_KHR
	// ShaderStageMiss is the miss stage
	ShaderStageMiss core1_0.ShaderStageFlags = C.VK_SHADER_STAGE_MISS_BIT_KHR
	// ShaderStageIntersection is the intersection stage
	ShaderStageIntersection core1_0.ShaderStageFlags = C.VK_SHADER_STAGE_INTERSECTION_BIT_KHR
	// ShaderStageCallable is the callable stage
	ShaderStageCallable core1_0.ShaderStageFlags = C.VK_SHADER_STAGE_CALLABLE_BIT_KHR

	// PipelineBindPointRayTracing binds a pipeline as a ray tracing pipeline
	PipelineBindPointRayTracing core1_0.PipelineBindPoint = C.VK_PIPELINE_BIND_POINT_RAY_TRACING_KHR

	// PipelineStageRayTracingShader is the execution of the ray tracing shader stages
	PipelineStageRayTracingShader core1_0.PipelineStageFlags = C.VK_PIPELINE_STAGE_RAY_TRACING_SHADER_BIT_KHR

	// BufferUsageShaderBindingTable specifies that the Buffer is suitable for use as
	// a shader binding table
	BufferUsageShaderBindingTable core1_0.BufferUsageFlags = C.VK_BUFFER_USAGE_SHADER_BINDING_TABLE_BIT_KHR
)

func init() {
	RayTracingShaderGroupTypeGeneral.Register("General")
	RayTracingShaderGroupTypeTrianglesHitGroup.Register("Triangles Hit Group")
	RayTracingShaderGroupTypeProceduralHitGroup.Register("Procedural Hit Group")

	ShaderStageRaygen.Register("Raygen")
	ShaderStageAnyHit.Register("Any-Hit")
	ShaderStageClosestHit.Register("Closest-Hit")
	ShaderStageMiss.Register("Miss")
	ShaderStageIntersection.Register("Intersection")
	ShaderStageCallable.Register("Callable")

	PipelineBindPointRayTracing.Register("Ray Tracing")
	PipelineStageRayTracingShader.Register("Ray Tracing Shader")
}
