package gpu

import (
	"time"
	"unsafe"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
)

// The core1_0 handle types are interfaces, so fakes embed them and override
// only what the code under test touches.

type fakeDevice struct {
	core1_0.Device
	fences []*fakeFence
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
	fence := &fakeFence{signaled: o.Flags&core1_0.FenceCreateSignaled != 0}
	d.fences = append(d.fences, fence)
	return fence, core1_0.VKSuccess, nil
}

func (d *fakeDevice) CreateSemaphore(allocator *driver.AllocationCallbacks, o core1_0.SemaphoreCreateInfo) (core1_0.Semaphore, common.VkResult, error) {
	return &fakeSemaphore{}, core1_0.VKSuccess, nil
}

type fakeCommandPool struct {
	core1_0.CommandPool
}

func (p *fakeCommandPool) Destroy(allocator *driver.AllocationCallbacks) {}

type fakeRawCommandBuffer struct {
	core1_0.CommandBuffer
	begun    int
	ended    int
	resets   int
	freed    bool
	barriers []core1_0.ImageMemoryBarrier
}

func (c *fakeRawCommandBuffer) Begin(o core1_0.CommandBufferBeginInfo) (common.VkResult, error) {
	c.begun++
	return core1_0.VKSuccess, nil
}

func (c *fakeRawCommandBuffer) End() (common.VkResult, error) {
	c.ended++
	return core1_0.VKSuccess, nil
}

func (c *fakeRawCommandBuffer) Reset(flags core1_0.CommandBufferResetFlags) (common.VkResult, error) {
	c.resets++
	return core1_0.VKSuccess, nil
}

func (c *fakeRawCommandBuffer) Free() {
	c.freed = true
}

func (c *fakeRawCommandBuffer) CmdPipelineBarrier(srcStageMask, dstStageMask core1_0.PipelineStageFlags, dependencies core1_0.DependencyFlags, memoryBarriers []core1_0.MemoryBarrier, bufferMemoryBarriers []core1_0.BufferMemoryBarrier, imageMemoryBarriers []core1_0.ImageMemoryBarrier) error {
	c.barriers = append(c.barriers, imageMemoryBarriers...)
	return nil
}

type fakeQueue struct {
	core1_0.Queue
	submissions []core1_0.SubmitInfo
	// signalOnSubmit flips the submission fence immediately, emulating a
	// GPU that finishes before anyone looks.
	signalOnSubmit bool
}

func (q *fakeQueue) Submit(fence core1_0.Fence, o []core1_0.SubmitInfo) (common.VkResult, error) {
	q.submissions = append(q.submissions, o...)
	if q.signalOnSubmit {
		if f, ok := fence.(*fakeFence); ok {
			f.signaled = true
		}
	}
	return core1_0.VKSuccess, nil
}

type fakeFence struct {
	core1_0.Fence
	signaled  bool
	waits     int
	destroyed bool
}

func (f *fakeFence) Wait(timeout time.Duration) (common.VkResult, error) {
	f.waits++
	f.signaled = true
	return core1_0.VKSuccess, nil
}

func (f *fakeFence) Status() (common.VkResult, error) {
	if f.signaled {
		return core1_0.VKSuccess, nil
	}
	return core1_0.VKNotReady, nil
}

func (f *fakeFence) Reset() (common.VkResult, error) {
	f.signaled = false
	return core1_0.VKSuccess, nil
}

func (f *fakeFence) Destroy(allocator *driver.AllocationCallbacks) {
	f.destroyed = true
}

type fakeSemaphore struct {
	core1_0.Semaphore
	destroyed bool
}

func (s *fakeSemaphore) Destroy(allocator *driver.AllocationCallbacks) {
	s.destroyed = true
}

type fakeRawBuffer struct {
	core1_0.Buffer
	destroyed bool
}

func (b *fakeRawBuffer) Destroy(allocator *driver.AllocationCallbacks) {
	b.destroyed = true
}

type fakeRawImage struct {
	core1_0.Image
	destroyed bool
}

func (i *fakeRawImage) Destroy(allocator *driver.AllocationCallbacks) {
	i.destroyed = true
}

// fakeMemory backs the Memory seam with a plain byte slice.
type fakeMemory struct {
	data        []byte
	mapped      bool
	flushes     int
	invalidates int
	freed       bool
}

func newFakeMemory(size int) *fakeMemory {
	return &fakeMemory{data: make([]byte, size)}
}

func (m *fakeMemory) Map() (unsafe.Pointer, common.VkResult, error) {
	m.mapped = true
	return unsafe.Pointer(&m.data[0]), core1_0.VKSuccess, nil
}

func (m *fakeMemory) Unmap() error {
	m.mapped = false
	return nil
}

func (m *fakeMemory) Flush(offset, size int) (common.VkResult, error) {
	m.flushes++
	return core1_0.VKSuccess, nil
}

func (m *fakeMemory) Invalidate(offset, size int) (common.VkResult, error) {
	m.invalidates++
	return core1_0.VKSuccess, nil
}

func (m *fakeMemory) Free() error {
	m.freed = true
	return nil
}

// fakeSubmitter records layout-transition submissions without a queue.
type fakeSubmitter struct {
	calls int
	fail  error
	last  *fakeRawCommandBuffer
}

func (s *fakeSubmitter) Single(fn func(cb core1_0.CommandBuffer) error) error {
	s.calls++
	if s.fail != nil {
		return s.fail
	}
	s.last = &fakeRawCommandBuffer{}
	return fn(s.last)
}
