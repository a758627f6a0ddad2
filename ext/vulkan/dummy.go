// Package vulkan carries the Khronos Vulkan headers the extension wrappers
// compile against. It exists so the headers ship with the module; import it
// for side effects only.
package vulkan
