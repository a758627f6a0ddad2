package rt

import (
	"unsafe"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"

	"github.com/hexlattice/prism/ext/khr_acceleration_structure"
	"github.com/hexlattice/prism/gpu"
)

// sliceMemory backs gpu.Memory with a byte slice so buffer contents can be
// inspected after the fact.
type sliceMemory struct {
	data  []byte
	freed bool
}

func (m *sliceMemory) Map() (unsafe.Pointer, common.VkResult, error) {
	return unsafe.Pointer(&m.data[0]), core1_0.VKSuccess, nil
}
func (m *sliceMemory) Unmap() error { return nil }
func (m *sliceMemory) Flush(offset, size int) (common.VkResult, error) {
	return core1_0.VKSuccess, nil
}
func (m *sliceMemory) Invalidate(offset, size int) (common.VkResult, error) {
	return core1_0.VKSuccess, nil
}
func (m *sliceMemory) Free() error {
	m.freed = true
	return nil
}

type fakeRawBuffer struct {
	core1_0.Buffer
}

func (b *fakeRawBuffer) Destroy(allocator *driver.AllocationCallbacks) {}

// allocation records one CreateBuffer call.
type allocation struct {
	buffer *gpu.Buffer
	mem    *sliceMemory
	size   int
	usage  core1_0.BufferUsageFlags
	class  gpu.MemoryClass
	addr   uint64
}

// fakeAllocator satisfies BufferAllocator, handing out address-carrying
// buffers backed by inspectable slices.
type fakeAllocator struct {
	allocs   []*allocation
	nextAddr uint64
}

func (a *fakeAllocator) CreateBuffer(size int, usage core1_0.BufferUsageFlags, class gpu.MemoryClass) (*gpu.Buffer, error) {
	if a.nextAddr == 0 {
		a.nextAddr = 0x10000
	}
	var addr uint64
	if usage&khr_buffer_device_address.BufferUsageShaderDeviceAddress != 0 {
		addr = a.nextAddr
		a.nextAddr += 0x10000
	}

	mem := &sliceMemory{data: make([]byte, size)}
	alloc := &allocation{
		buffer: gpu.NewBuffer(&fakeRawBuffer{}, mem, size, usage, class, addr),
		mem:    mem,
		size:   size,
		usage:  usage,
		class:  class,
		addr:   addr,
	}
	a.allocs = append(a.allocs, alloc)
	return alloc.buffer, nil
}

// hostVisible returns the recorded host-visible allocations in order.
func (a *fakeAllocator) hostVisible() []*allocation {
	var out []*allocation
	for _, alloc := range a.allocs {
		if alloc.class == gpu.HostVisible {
			out = append(out, alloc)
		}
	}
	return out
}

type fakeCmd struct {
	core1_0.CommandBuffer
}

// fakeSub runs the recorded batch inline, which is exactly the fence-waited
// contract Submitter promises.
type fakeSub struct {
	calls int
	fail  error
}

func (s *fakeSub) Single(fn func(cb core1_0.CommandBuffer) error) error {
	s.calls++
	if s.fail != nil {
		return s.fail
	}
	return fn(&fakeCmd{})
}

type fakeHandle struct {
	khr_acceleration_structure.AccelerationStructure
	destroyed bool
}

func (h *fakeHandle) Destroy(allocator *driver.AllocationCallbacks) {
	h.destroyed = true
}

// fakeASExt fakes the acceleration-structure extension. Each created
// structure gets a distinct device address.
type fakeASExt struct {
	khr_acceleration_structure.Extension

	sizeQueries []khr_acceleration_structure.AccelerationStructureBuildGeometryInfo
	created     []*fakeHandle
	builds      []khr_acceleration_structure.AccelerationStructureBuildGeometryInfo
	buildRanges [][]khr_acceleration_structure.AccelerationStructureBuildRangeInfo

	nextAddr uint64
	addrs    map[khr_acceleration_structure.AccelerationStructure]uint64
}

func (e *fakeASExt) AccelerationStructureBuildSizes(
	device core1_0.Device,
	buildType khr_acceleration_structure.AccelerationStructureBuildType,
	info khr_acceleration_structure.AccelerationStructureBuildGeometryInfo,
	primCounts []int,
) (*khr_acceleration_structure.AccelerationStructureBuildSizesInfo, error) {
	e.sizeQueries = append(e.sizeQueries, info)
	return &khr_acceleration_structure.AccelerationStructureBuildSizesInfo{
		AccelerationStructureSize: 256,
		BuildScratchSize:          64,
	}, nil
}

func (e *fakeASExt) CreateAccelerationStructure(
	device core1_0.Device,
	allocator *driver.AllocationCallbacks,
	info khr_acceleration_structure.AccelerationStructureCreateInfo,
) (khr_acceleration_structure.AccelerationStructure, common.VkResult, error) {
	handle := &fakeHandle{}
	e.created = append(e.created, handle)

	if e.addrs == nil {
		e.addrs = map[khr_acceleration_structure.AccelerationStructure]uint64{}
	}
	if e.nextAddr == 0 {
		e.nextAddr = 0xa5000000
	}
	e.addrs[handle] = e.nextAddr
	e.nextAddr += 0x1000
	return handle, core1_0.VKSuccess, nil
}

func (e *fakeASExt) CmdBuildAccelerationStructures(
	cb core1_0.CommandBuffer,
	infos []khr_acceleration_structure.AccelerationStructureBuildGeometryInfo,
	ranges [][]khr_acceleration_structure.AccelerationStructureBuildRangeInfo,
) error {
	e.builds = append(e.builds, infos...)
	e.buildRanges = append(e.buildRanges, ranges...)
	return nil
}

func (e *fakeASExt) AccelerationStructureDeviceAddress(
	device core1_0.Device,
	info khr_acceleration_structure.AccelerationStructureDeviceAddressInfo,
) (uint64, error) {
	return e.addrs[info.AccelerationStructure], nil
}

func newTestBuilder() (*Builder, *fakeASExt, *fakeAllocator, *fakeSub) {
	ext := &fakeASExt{}
	alloc := &fakeAllocator{}
	sub := &fakeSub{}
	return NewBuilder(nil, ext, alloc, sub), ext, alloc, sub
}
