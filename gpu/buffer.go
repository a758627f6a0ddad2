package gpu

import (
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/arsenal/vam"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"

	"github.com/hexlattice/prism/logx"
)

// MemoryClass selects where a resource lives and what the host may do with
// it. Fixed at creation.
type MemoryClass int

const (
	// DeviceOnly memory is never host accessible; populate it through a
	// staging copy.
	DeviceOnly MemoryClass = iota
	// HostVisible memory supports CopyFrom/ReadBack.
	HostVisible
)

// Memory is the slice of the allocator's allocation API the resources use.
// *vam.Allocation satisfies it; tests back it with a byte slice.
type Memory interface {
	Map() (unsafe.Pointer, common.VkResult, error)
	Unmap() error
	Flush(offset, size int) (common.VkResult, error)
	Invalidate(offset, size int) (common.VkResult, error)
	Free() error
}

// Buffer is a reference-counted device buffer. The initial reference belongs
// to the creator; Retain for every additional owner, Release when done. The
// memory returns to the allocator when the count reaches zero.
//
// Destroying a buffer while GPU work that reads or writes it is still
// Pending is undefined; this layer does not track that.
type Buffer struct {
	id    string
	raw   core1_0.Buffer
	mem   Memory
	size  int
	usage core1_0.BufferUsageFlags
	class MemoryClass
	addr  uint64
	refs  int64
}

// CreateBuffer allocates a buffer of size bytes. Usage flags are immutable
// afterward. Fails with ErrResourceExhausted when the allocator cannot
// satisfy the request.
func (c *Context) CreateBuffer(size int, usage core1_0.BufferUsageFlags, class MemoryClass) (*Buffer, error) {
	raw, _, err := c.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "gpu: creating buffer"), ErrResourceExhausted)
	}

	allocInfo := vam.AllocationCreateInfo{Usage: vam.MemoryUsageAuto}
	if class == HostVisible {
		allocInfo.Flags = vam.AllocationCreateHostAccessRandom
	} else {
		allocInfo.Usage = vam.MemoryUsageAutoPreferDevice
	}

	var alloc vam.Allocation
	_, err = c.allocator.AllocateMemoryForBuffer(raw, allocInfo, &alloc)
	if err != nil {
		raw.Destroy(nil)
		return nil, errors.Mark(errors.Wrap(err, "gpu: allocating buffer memory"), ErrResourceExhausted)
	}
	_, err = alloc.BindBufferMemory(raw)
	if err != nil {
		alloc.Free()
		raw.Destroy(nil)
		return nil, errors.Mark(errors.Wrap(err, "gpu: binding buffer memory"), ErrResourceExhausted)
	}

	buf := &Buffer{
		id:    uuid.NewString(),
		raw:   raw,
		mem:   &alloc,
		size:  size,
		usage: usage,
		class: class,
		refs:  1,
	}

	if usage&khr_buffer_device_address.BufferUsageShaderDeviceAddress != 0 && c.addressCapable {
		addr, err := c.addressExt.GetBufferDeviceAddress(c.device, khr_buffer_device_address.BufferDeviceAddressInfo{
			Buffer: raw,
		})
		if err != nil {
			alloc.Free()
			raw.Destroy(nil)
			return nil, errors.Wrap(err, "gpu: querying buffer device address")
		}
		buf.addr = addr
	}

	logx.Debug("buffer %s: %d bytes, class %d", buf.id, size, class)
	return buf, nil
}

// NewBuffer wraps pre-created handles into a tracked Buffer. Exists for
// alternate allocators and for tests; CreateBuffer is the normal path.
func NewBuffer(raw core1_0.Buffer, mem Memory, size int, usage core1_0.BufferUsageFlags, class MemoryClass, addr uint64) *Buffer {
	return &Buffer{
		id:    uuid.NewString(),
		raw:   raw,
		mem:   mem,
		size:  size,
		usage: usage,
		class: class,
		addr:  addr,
		refs:  1,
	}
}

func (b *Buffer) Raw() core1_0.Buffer             { return b.raw }
func (b *Buffer) Size() int                       { return b.size }
func (b *Buffer) Usage() core1_0.BufferUsageFlags { return b.usage }
func (b *Buffer) Class() MemoryClass              { return b.class }

// DeviceAddress returns the buffer's GPU virtual address. It is constant for
// the buffer's lifetime. The value is a weak capability: holding it does not
// keep the buffer alive, and dereferencing it after the last Release is
// undefined. Fails with ErrInvalidAccess for buffers created without the
// address-capable usage flag.
func (b *Buffer) DeviceAddress() (uint64, error) {
	if b.addr == 0 {
		return 0, errors.Mark(
			errors.New("gpu: buffer was not created with device-address usage"), ErrInvalidAccess)
	}
	return b.addr, nil
}

// CopyFrom writes data into the buffer at offset zero: a synchronous
// host-to-device memcpy. Fails with ErrInvalidAccess if the buffer is not
// HostVisible or data exceeds its capacity.
func (b *Buffer) CopyFrom(data []byte) error {
	if b.class != HostVisible {
		return errors.Mark(
			errors.New("gpu: CopyFrom on device-only buffer"), ErrInvalidAccess)
	}
	if len(data) > b.size {
		return errors.Mark(
			errors.Newf("gpu: writing %d bytes into %d-byte buffer", len(data), b.size), ErrInvalidAccess)
	}

	ptr, _, err := b.mem.Map()
	if err != nil {
		return errors.Wrap(err, "gpu: mapping buffer")
	}
	defer b.mem.Unmap()

	copy(unsafe.Slice((*byte)(ptr), b.size), data)
	_, err = b.mem.Flush(0, len(data))
	return errors.Wrap(err, "gpu: flushing buffer")
}

// ReadBack copies the first len(dst) bytes of the buffer to the host. Same
// access rules as CopyFrom.
func (b *Buffer) ReadBack(dst []byte) error {
	if b.class != HostVisible {
		return errors.Mark(
			errors.New("gpu: ReadBack on device-only buffer"), ErrInvalidAccess)
	}
	if len(dst) > b.size {
		return errors.Mark(
			errors.Newf("gpu: reading %d bytes from %d-byte buffer", len(dst), b.size), ErrInvalidAccess)
	}

	_, err := b.mem.Invalidate(0, len(dst))
	if err != nil {
		return errors.Wrap(err, "gpu: invalidating buffer")
	}
	ptr, _, err := b.mem.Map()
	if err != nil {
		return errors.Wrap(err, "gpu: mapping buffer")
	}
	defer b.mem.Unmap()

	copy(dst, unsafe.Slice((*byte)(ptr), b.size))
	return nil
}

// Retain adds an owner.
func (b *Buffer) Retain() *Buffer {
	atomic.AddInt64(&b.refs, 1)
	return b
}

// Release drops an owner. The last Release destroys the buffer and returns
// its memory to the allocator.
func (b *Buffer) Release() {
	if atomic.AddInt64(&b.refs, -1) != 0 {
		return
	}
	if b.raw != nil {
		b.raw.Destroy(nil)
		b.raw = nil
	}
	if b.mem != nil {
		b.mem.Free()
		b.mem = nil
	}
	logx.Debug("buffer %s released", b.id)
}
