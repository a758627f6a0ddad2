package present

import (
	"time"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
)

type fakeDevice struct {
	core1_0.Device
	waitIdles int
}

func (d *fakeDevice) CreateCommandPool(allocator *driver.AllocationCallbacks, o core1_0.CommandPoolCreateInfo) (core1_0.CommandPool, common.VkResult, error) {
	return &fakeCommandPool{}, core1_0.VKSuccess, nil
}

func (d *fakeDevice) AllocateCommandBuffers(o core1_0.CommandBufferAllocateInfo) ([]core1_0.CommandBuffer, common.VkResult, error) {
	buffers := make([]core1_0.CommandBuffer, o.CommandBufferCount)
	for i := range buffers {
		buffers[i] = &fakeRawCommandBuffer{}
	}
	return buffers, core1_0.VKSuccess, nil
}

func (d *fakeDevice) CreateFence(allocator *driver.AllocationCallbacks, o core1_0.FenceCreateInfo) (core1_0.Fence, common.VkResult, error) {
	return &fakeFence{}, core1_0.VKSuccess, nil
}

func (d *fakeDevice) CreateSemaphore(allocator *driver.AllocationCallbacks, o core1_0.SemaphoreCreateInfo) (core1_0.Semaphore, common.VkResult, error) {
	return &fakeSemaphore{}, core1_0.VKSuccess, nil
}

func (d *fakeDevice) WaitIdle() (common.VkResult, error) {
	d.waitIdles++
	return core1_0.VKSuccess, nil
}

type fakeCommandPool struct {
	core1_0.CommandPool
}

func (p *fakeCommandPool) Destroy(allocator *driver.AllocationCallbacks) {}

type fakeRawCommandBuffer struct {
	core1_0.CommandBuffer
}

func (c *fakeRawCommandBuffer) Begin(o core1_0.CommandBufferBeginInfo) (common.VkResult, error) {
	return core1_0.VKSuccess, nil
}
func (c *fakeRawCommandBuffer) End() (common.VkResult, error) { return core1_0.VKSuccess, nil }
func (c *fakeRawCommandBuffer) Reset(flags core1_0.CommandBufferResetFlags) (common.VkResult, error) {
	return core1_0.VKSuccess, nil
}
func (c *fakeRawCommandBuffer) Free() {}

type fakeQueue struct {
	core1_0.Queue
	submits int
}

func (q *fakeQueue) Submit(fence core1_0.Fence, o []core1_0.SubmitInfo) (common.VkResult, error) {
	q.submits++
	return core1_0.VKSuccess, nil
}

type fakeFence struct {
	core1_0.Fence
	waits int
}

func (f *fakeFence) Wait(timeout time.Duration) (common.VkResult, error) {
	f.waits++
	return core1_0.VKSuccess, nil
}
func (f *fakeFence) Status() (common.VkResult, error) { return core1_0.VKSuccess, nil }
func (f *fakeFence) Reset() (common.VkResult, error)  { return core1_0.VKSuccess, nil }

func (f *fakeFence) Destroy(allocator *driver.AllocationCallbacks) {}

type fakeSemaphore struct {
	core1_0.Semaphore
	destroyed bool
}

func (s *fakeSemaphore) Destroy(allocator *driver.AllocationCallbacks) { s.destroyed = true }

// fakeChain scripts acquire/present outcomes.
type fakeChain struct {
	extent core1_0.Extent2D

	acquireOutdated bool
	presentOutdated bool

	acquires  int
	presents  int
	destroyed bool
}

func (c *fakeChain) Acquire(sem core1_0.Semaphore) (int, bool, error) {
	c.acquires++
	if c.acquireOutdated {
		return 0, true, nil
	}
	return 0, false, nil
}

func (c *fakeChain) Present(index int, wait core1_0.Semaphore) (bool, error) {
	c.presents++
	return c.presentOutdated, nil
}

func (c *fakeChain) Images() []core1_0.Image    { return []core1_0.Image{nil} }
func (c *fakeChain) Views() []core1_0.ImageView { return []core1_0.ImageView{nil} }
func (c *fakeChain) Format() core1_0.Format     { return core1_0.FormatB8G8R8A8SRGB }
func (c *fakeChain) Extent() core1_0.Extent2D   { return c.extent }
func (c *fakeChain) Destroy()                   { c.destroyed = true }

type fakeFactory struct {
	chains []*fakeChain
	extent core1_0.Extent2D
}

func (f *fakeFactory) Create(old Chain) (Chain, error) {
	if f.extent.Width == 0 {
		f.extent = core1_0.Extent2D{Width: 640, Height: 480}
	}
	chain := &fakeChain{extent: f.extent}
	f.chains = append(f.chains, chain)
	return chain, nil
}
