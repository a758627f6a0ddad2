// Package gpu owns the logical device, its memory allocator and queue, and
// the primitives every other layer borrows: buffers, images, command
// recording and fences.
//
// Ownership rules: the Context is created once and destroyed last. Buffers
// and images are reference counted; their memory returns to the allocator on
// the last Release. The GPU executes submitted batches asynchronously and
// this layer performs no hazard tracking — a command buffer, and any resource
// it writes, must not be reused or read by the CPU until its fence has
// signaled. Violating that is undefined behavior.
package gpu

import (
	"os"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/vam"
	"github.com/vkngwrapper/core/v2"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	"github.com/vkngwrapper/extensions/v2/khr_get_physical_device_properties2"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
	"golang.org/x/exp/slog"

	"github.com/hexlattice/prism/ext/khr_acceleration_structure"
	"github.com/hexlattice/prism/ext/khr_deferred_host_operations"
	"github.com/hexlattice/prism/ext/khr_ray_tracing_pipeline"
	"github.com/hexlattice/prism/logx"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

// deviceExtensions are required of every physical device we accept. The
// ray-tracing trio plus its dependencies, and the swapchain for presentation.
var deviceExtensions = []string{
	khr_swapchain.ExtensionName,
	khr_acceleration_structure.ExtensionName,
	khr_ray_tracing_pipeline.ExtensionName,
	khr_buffer_device_address.ExtensionName,
	khr_deferred_host_operations.ExtensionName,
}

// SurfaceFactory is the windowing collaborator's half of context creation:
// given a fresh instance, produce the presentation surface. Windowing itself
// stays outside this package.
type SurfaceFactory func(instance core1_0.Instance, ext *khr_surface.VulkanExtension) (khr_surface.Surface, error)

// Options configures CreateContext.
type Options struct {
	AppName string
	// Validation enables the Khronos validation layer and routes driver
	// diagnostics through the log.
	Validation bool
	// InstanceExtensions the windowing collaborator needs (surface
	// platform extensions).
	InstanceExtensions []string
	// ProcAddr is the vkGetInstanceProcAddr handle from the windowing
	// collaborator.
	ProcAddr unsafe.Pointer
	// CreateSurface produces the presentation surface once the instance
	// exists.
	CreateSurface SurfaceFactory
}

// Context is the device context shared by every component. One per process,
// explicitly constructed and passed by reference; there is no hidden
// singleton.
type Context struct {
	loader   *core.VulkanLoader
	instance core1_0.Instance

	debugExt       *ext_debug_utils.VulkanExtension
	debugMessenger ext_debug_utils.DebugUtilsMessenger

	surfaceExt *khr_surface.VulkanExtension
	surface    khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	device         core1_0.Device
	queue          core1_0.Queue
	queueFamily    int

	allocator *vam.Allocator
	pool      *Pool

	addressExt     *khr_buffer_device_address.VulkanExtension
	addressCapable bool
}

// CreateContext builds the instance, picks a physical device with a queue
// family supporting both graphics and presentation plus every required
// extension and feature, creates the logical device, queue, allocator and
// command pool. Fails with ErrInitialization when no device qualifies.
func CreateContext(opts Options) (*Context, error) {
	ctx := &Context{}

	loader, err := core.CreateLoaderFromProcAddr(opts.ProcAddr)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "gpu: creating loader"), ErrInitialization)
	}
	ctx.loader = loader

	if err := ctx.createInstance(opts); err != nil {
		return nil, err
	}

	if opts.Validation {
		if err := ctx.setupDebugMessenger(); err != nil {
			return nil, err
		}
	}

	ctx.surfaceExt = khr_surface.CreateExtensionFromInstance(ctx.instance)
	surface, err := opts.CreateSurface(ctx.instance, ctx.surfaceExt)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "gpu: creating surface"), ErrInitialization)
	}
	ctx.surface = surface

	if err := ctx.pickPhysicalDevice(); err != nil {
		return nil, err
	}
	if err := ctx.createLogicalDevice(opts); err != nil {
		return nil, err
	}
	if err := ctx.createAllocator(); err != nil {
		return nil, err
	}

	ctx.pool, err = NewPool(ctx.device, ctx.queue, ctx.queueFamily)
	if err != nil {
		return nil, err
	}

	return ctx, nil
}

func (c *Context) createInstance(opts Options) error {
	info := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "prism",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	available, _, err := c.loader.AvailableExtensions()
	if err != nil {
		return errors.Mark(err, ErrInitialization)
	}

	for _, ext := range opts.InstanceExtensions {
		if _, ok := available[ext]; !ok {
			return errors.Mark(errors.Newf("gpu: missing instance extension %s", ext), ErrInitialization)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext)
	}
	info.EnabledExtensionNames = append(info.EnabledExtensionNames,
		khr_get_physical_device_properties2.ExtensionName)

	if opts.Validation {
		layers, _, err := c.loader.AvailableLayers()
		if err != nil {
			return errors.Mark(err, ErrInitialization)
		}
		for _, layer := range validationLayers {
			if _, ok := layers[layer]; !ok {
				return errors.Mark(errors.Newf("gpu: validation layer %s not available", layer), ErrInitialization)
			}
			info.EnabledLayerNames = append(info.EnabledLayerNames, layer)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext_debug_utils.ExtensionName)

		messengerInfo := debugMessengerOptions()
		info.NextOptions = common.NextOptions{Next: messengerInfo}
	}

	instance, _, err := c.loader.CreateInstance(nil, info)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "gpu: creating instance"), ErrInitialization)
	}
	c.instance = instance
	return nil
}

func debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDriverMessage,
	}
}

// logDriverMessage routes validation output to the log. Always non-fatal.
func logDriverMessage(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	if severity&ext_debug_utils.SeverityError != 0 {
		logx.Error("driver [%s]: %s", msgType, data.Message)
	} else {
		logx.Warn("driver [%s]: %s", msgType, data.Message)
	}
	return false
}

func (c *Context) setupDebugMessenger() error {
	c.debugExt = ext_debug_utils.CreateExtensionFromInstance(c.instance)
	messenger, _, err := c.debugExt.CreateDebugUtilsMessenger(c.instance, nil, debugMessengerOptions())
	if err != nil {
		return errors.Mark(errors.Wrap(err, "gpu: creating debug messenger"), ErrInitialization)
	}
	c.debugMessenger = messenger
	return nil
}

func (c *Context) pickPhysicalDevice() error {
	devices, _, err := c.instance.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Mark(err, ErrInitialization)
	}

	for _, device := range devices {
		family, ok := c.suitableQueueFamily(device)
		if !ok {
			continue
		}
		if !hasExtensions(device, deviceExtensions) {
			continue
		}
		c.physicalDevice = device
		c.queueFamily = family

		props, err := device.Properties()
		if err == nil {
			logx.Info("selected device %s (queue family %d)", props.DriverName, family)
		}
		return nil
	}

	return errors.Mark(
		errors.New("gpu: no physical device exposes graphics+present plus the required extensions"),
		ErrInitialization)
}

// suitableQueueFamily looks for a single family with both graphics and
// presentation support. The whole substrate runs on one queue.
func (c *Context) suitableQueueFamily(device core1_0.PhysicalDevice) (int, bool) {
	families := device.QueueFamilyProperties()
	for idx, family := range families {
		if family.QueueFlags&core1_0.QueueGraphics == 0 {
			continue
		}
		supported, _, err := c.surface.PhysicalDeviceSurfaceSupport(device, idx)
		if err != nil || !supported {
			continue
		}
		return idx, true
	}
	return 0, false
}

func hasExtensions(device core1_0.PhysicalDevice, names []string) bool {
	available, _, err := device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return false
	}
	for _, name := range names {
		if _, ok := available[name]; !ok {
			return false
		}
	}
	return true
}

func (c *Context) createLogicalDevice(opts Options) error {
	// Feature chain: buffer device address <- acceleration structure <-
	// ray tracing pipeline. All three are required, not optional.
	addressFeatures := khr_buffer_device_address.PhysicalDeviceBufferDeviceAddressFeatures{
		BufferDeviceAddress: true,
	}
	asFeatures := khr_acceleration_structure.PhysicalDeviceAccelerationStructureFeatures{
		AccelerationStructure: true,
		NextOptions:           common.NextOptions{Next: &addressFeatures},
	}
	pipelineFeatures := khr_ray_tracing_pipeline.PhysicalDeviceRayTracingPipelineFeatures{
		RayTracingPipeline: true,
		NextOptions:        common.NextOptions{Next: &asFeatures},
	}

	device, _, err := c.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: []core1_0.DeviceQueueCreateInfo{
			{
				QueueFamilyIndex: c.queueFamily,
				QueuePriorities:  []float32{1.0},
			},
		},
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: deviceExtensions,
		NextOptions:           common.NextOptions{Next: &pipelineFeatures},
	})
	if err != nil {
		return errors.Mark(errors.Wrap(err, "gpu: creating logical device"), ErrInitialization)
	}

	c.device = device
	c.queue = device.GetQueue(c.queueFamily, 0)
	c.addressExt = khr_buffer_device_address.CreateExtensionFromDevice(device)
	c.addressCapable = true
	return nil
}

func (c *Context) createAllocator() error {
	// vam detects the buffer-device-address feature from the device itself;
	// it only needs somewhere to send diagnostics.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	allocator, err := vam.New(logger, c.instance, c.physicalDevice, c.device, vam.CreateOptions{})
	if err != nil {
		return errors.Mark(errors.Wrap(err, "gpu: creating allocator"), ErrInitialization)
	}
	c.allocator = allocator
	return nil
}

// Accessors. Everything here is borrowed: callers never destroy what the
// Context hands out through these.

func (c *Context) Instance() core1_0.Instance           { return c.instance }
func (c *Context) Physical() core1_0.PhysicalDevice     { return c.physicalDevice }
func (c *Context) Device() core1_0.Device               { return c.device }
func (c *Context) Queue() core1_0.Queue                 { return c.queue }
func (c *Context) QueueFamily() int                     { return c.queueFamily }
func (c *Context) Surface() khr_surface.Surface         { return c.surface }
func (c *Context) SurfaceExtension() *khr_surface.VulkanExtension {
	return c.surfaceExt
}
func (c *Context) Pool() *Pool { return c.pool }

// DeviceAddressCapable reports whether buffers may carry device addresses.
func (c *Context) DeviceAddressCapable() bool { return c.addressCapable }

// Destroy tears the context down. The caller must have released every
// resource and waited out every fence first; Destroy waits for the device to
// idle before freeing anything.
func (c *Context) Destroy() {
	if c.device != nil {
		c.device.WaitIdle()
	}
	if c.pool != nil {
		c.pool.Destroy()
	}
	if c.allocator != nil {
		c.allocator.Destroy()
	}
	if c.device != nil {
		c.device.Destroy(nil)
	}
	if c.debugMessenger != nil {
		c.debugMessenger.Destroy(nil)
	}
	if c.surface != nil {
		c.surface.Destroy(nil)
	}
	if c.instance != nil {
		c.instance.Destroy(nil)
	}
}
