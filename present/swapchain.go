// Package present owns the swapchain and the per-frame pacing: acquire,
// record, submit, present, with at most one frame in flight. Progressive
// accumulation state lives here because it resets exactly when the
// swapchain does.
package present

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"

	"github.com/hexlattice/prism/gpu"
	"github.com/hexlattice/prism/logx"
)

// Chain is the synchronizer's view of a swapchain. The vkChain built by
// Factory is the production implementation; tests substitute their own.
type Chain interface {
	// Acquire blocks for the next presentable image. The semaphore signals
	// when the image is actually ready to be written. outdated means the
	// chain no longer matches the surface and must be recreated.
	Acquire(sem core1_0.Semaphore) (index int, outdated bool, err error)
	// Present queues the image for display after wait signals. outdated
	// means the chain should be recreated before the next frame.
	Present(index int, wait core1_0.Semaphore) (outdated bool, err error)

	Images() []core1_0.Image
	Views() []core1_0.ImageView
	Format() core1_0.Format
	Extent() core1_0.Extent2D
	Destroy()
}

// ChainFactory builds a Chain against the current surface state. old, when
// non-nil, is the chain being replaced; the factory may hand it to the
// driver for resource reuse but must not destroy it.
type ChainFactory interface {
	Create(old Chain) (Chain, error)
}

// Factory is the production ChainFactory over a device context.
type Factory struct {
	ctx *gpu.Context
	ext *khr_swapchain.VulkanExtension

	// FallbackExtent supplies the framebuffer size when the surface leaves
	// the extent to us (some window systems report an undefined current
	// extent).
	FallbackExtent func() core1_0.Extent2D
}

func NewFactory(ctx *gpu.Context, fallback func() core1_0.Extent2D) *Factory {
	return &Factory{
		ctx:            ctx,
		ext:            khr_swapchain.CreateExtensionFromDevice(ctx.Device()),
		FallbackExtent: fallback,
	}
}

func (f *Factory) Create(old Chain) (Chain, error) {
	caps, _, err := f.ctx.Surface().PhysicalDeviceSurfaceCapabilities(f.ctx.Physical())
	if err != nil {
		return nil, errors.Wrap(err, "present: querying surface capabilities")
	}

	format, colorSpace, err := f.pickFormat()
	if err != nil {
		return nil, err
	}
	presentMode, err := f.pickPresentMode()
	if err != nil {
		return nil, err
	}

	extent := caps.CurrentExtent
	if extent.Width == -1 || extent.Width == 0xFFFFFFFF {
		extent = f.FallbackExtent()
		extent.Width = clamp(extent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width)
		extent.Height = clamp(extent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height)
	}

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	var oldHandle khr_swapchain.Swapchain
	if oldVk, ok := old.(*vkChain); ok {
		oldHandle = oldVk.handle
	}

	handle, _, err := f.ext.CreateSwapchain(f.ctx.Device(), nil, khr_swapchain.SwapchainCreateInfo{
		Surface:          f.ctx.Surface(),
		MinImageCount:    imageCount,
		ImageFormat:      format,
		ImageColorSpace:  colorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment | core1_0.ImageUsageTransferDst,
		ImageSharingMode: core1_0.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   khr_surface.CompositeAlphaOpaque,
		PresentMode:      presentMode,
		Clipped:          true,
		OldSwapchain:     oldHandle,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "present: creating swapchain"), gpu.ErrInitialization)
	}

	chain := &vkChain{
		ext:    f.ext,
		device: f.ctx.Device(),
		queue:  f.ctx.Queue(),
		handle: handle,
		format: format,
		extent: extent,
	}

	chain.images, _, err = handle.SwapchainImages()
	if err != nil {
		chain.Destroy()
		return nil, errors.Wrap(err, "present: fetching swapchain images")
	}
	for _, img := range chain.images {
		view, _, err := f.ctx.Device().CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    img,
			ViewType: core1_0.ImageViewType2D,
			Format:   format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask: core1_0.ImageAspectColor,
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		if err != nil {
			chain.Destroy()
			return nil, errors.Wrap(err, "present: creating swapchain image view")
		}
		chain.views = append(chain.views, view)
	}

	logx.Info("swapchain: %dx%d, %d images, %s", extent.Width, extent.Height, len(chain.images), format)
	return chain, nil
}

// pickFormat prefers 8-bit BGRA sRGB and otherwise takes whatever the
// surface offers first.
func (f *Factory) pickFormat() (core1_0.Format, khr_surface.ColorSpace, error) {
	formats, _, err := f.ctx.Surface().PhysicalDeviceSurfaceFormats(f.ctx.Physical())
	if err != nil {
		return 0, 0, errors.Wrap(err, "present: querying surface formats")
	}
	if len(formats) == 0 {
		return 0, 0, errors.Mark(errors.New("present: surface offers no formats"), gpu.ErrInitialization)
	}
	for _, sf := range formats {
		if sf.Format == core1_0.FormatB8G8R8A8SRGB && sf.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return sf.Format, sf.ColorSpace, nil
		}
	}
	return formats[0].Format, formats[0].ColorSpace, nil
}

// pickPresentMode prefers mailbox and falls back to FIFO, which every
// conforming driver supports.
func (f *Factory) pickPresentMode() (khr_surface.PresentMode, error) {
	modes, _, err := f.ctx.Surface().PhysicalDeviceSurfacePresentModes(f.ctx.Physical())
	if err != nil {
		return 0, errors.Wrap(err, "present: querying present modes")
	}
	for _, mode := range modes {
		if mode == khr_surface.PresentModeMailbox {
			return mode, nil
		}
	}
	return khr_surface.PresentModeFIFO, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// vkChain is the driver-backed Chain.
type vkChain struct {
	ext    *khr_swapchain.VulkanExtension
	device core1_0.Device
	queue  core1_0.Queue
	handle khr_swapchain.Swapchain
	images []core1_0.Image
	views  []core1_0.ImageView
	format core1_0.Format
	extent core1_0.Extent2D
}

func (c *vkChain) Acquire(sem core1_0.Semaphore) (int, bool, error) {
	index, res, err := c.handle.AcquireNextImage(common.NoTimeout, sem, nil)
	switch res {
	case khr_swapchain.VKErrorOutOfDate:
		return 0, true, nil
	case khr_swapchain.VKSuboptimal:
		// The image is still usable; the caller recreates after presenting.
		return index, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "present: acquiring image")
	}
	return index, false, nil
}

func (c *vkChain) Present(index int, wait core1_0.Semaphore) (bool, error) {
	res, err := c.ext.QueuePresent(c.queue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait},
		Swapchains:     []khr_swapchain.Swapchain{c.handle},
		ImageIndices:   []int{index},
	})
	switch res {
	case khr_swapchain.VKErrorOutOfDate, khr_swapchain.VKSuboptimal:
		return true, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "present: presenting image")
	}
	return false, nil
}

func (c *vkChain) Images() []core1_0.Image    { return c.images }
func (c *vkChain) Views() []core1_0.ImageView { return c.views }
func (c *vkChain) Format() core1_0.Format     { return c.format }
func (c *vkChain) Extent() core1_0.Extent2D   { return c.extent }

func (c *vkChain) Destroy() {
	for _, view := range c.views {
		view.Destroy(nil)
	}
	c.views = nil
	if c.handle != nil {
		c.handle.Destroy(nil)
		c.handle = nil
	}
}
