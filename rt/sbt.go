package rt

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"

	"github.com/hexlattice/prism/ext/khr_ray_tracing_pipeline"
	"github.com/hexlattice/prism/gpu"
)

// PipelineProperties are the device limits the table layout depends on.
type PipelineProperties struct {
	HandleSize      int
	HandleAlignment int
	BaseAlignment   int
}

// GroupCounts sizes the table regions. There is always exactly one
// ray-generation record.
type GroupCounts struct {
	Miss     int
	Hit      int
	Callable int
}

func (g GroupCounts) Total() int { return 1 + g.Miss + g.Hit + g.Callable }

// tableLayout is the pure byte arithmetic behind the table: four contiguous
// regions of equal-stride records, ordered [raygen][miss][hit][callable],
// each region starting on the device's base alignment.
type tableLayout struct {
	stride   int
	raygen   int
	miss     int
	hit      int
	callable int
	size     int
}

func alignUp(v, alignment int) int {
	if alignment <= 1 {
		return v
	}
	return (v + alignment - 1) / alignment * alignment
}

func layoutTable(props PipelineProperties, counts GroupCounts) tableLayout {
	stride := alignUp(props.HandleSize, props.HandleAlignment)

	l := tableLayout{stride: stride}
	offset := 0

	l.raygen = offset
	offset = alignUp(offset+stride, props.BaseAlignment)

	l.miss = offset
	offset = alignUp(offset+counts.Miss*stride, props.BaseAlignment)

	l.hit = offset
	offset = alignUp(offset+counts.Hit*stride, props.BaseAlignment)

	l.callable = offset
	offset += counts.Callable * stride

	l.size = offset
	return l
}

// Table is the shader-binding table: one buffer holding all four record
// regions, plus the strided regions CmdTraceRays consumes.
type Table struct {
	buffer *gpu.Buffer

	Raygen   khr_ray_tracing_pipeline.StridedDeviceAddressRegion
	Miss     khr_ray_tracing_pipeline.StridedDeviceAddressRegion
	Hit      khr_ray_tracing_pipeline.StridedDeviceAddressRegion
	Callable khr_ray_tracing_pipeline.StridedDeviceAddressRegion
}

// NewTable packs the pipeline's shader group handles into a device-visible
// table. handles holds counts.Total() consecutive records of
// props.HandleSize bytes in [raygen][miss][hit][callable] order, exactly as
// returned by the group-handle query.
func NewTable(alloc BufferAllocator, props PipelineProperties, counts GroupCounts, handles []byte) (*Table, error) {
	if len(handles) != counts.Total()*props.HandleSize {
		return nil, errors.Newf("rt: expected %d handle bytes, got %d",
			counts.Total()*props.HandleSize, len(handles))
	}

	l := layoutTable(props, counts)

	packed := make([]byte, l.size)
	src := 0
	place := func(regionOffset, count int) {
		for i := 0; i < count; i++ {
			copy(packed[regionOffset+i*l.stride:], handles[src:src+props.HandleSize])
			src += props.HandleSize
		}
	}
	place(l.raygen, 1)
	place(l.miss, counts.Miss)
	place(l.hit, counts.Hit)
	place(l.callable, counts.Callable)

	buf, err := alloc.CreateBuffer(l.size,
		khr_ray_tracing_pipeline.BufferUsageShaderBindingTable|
			khr_buffer_device_address.BufferUsageShaderDeviceAddress,
		gpu.HostVisible)
	if err != nil {
		return nil, errors.Wrap(err, "rt: allocating shader-binding table")
	}
	if err := buf.CopyFrom(packed); err != nil {
		buf.Release()
		return nil, err
	}

	addr, err := buf.DeviceAddress()
	if err != nil {
		buf.Release()
		return nil, err
	}

	region := func(offset, count int) khr_ray_tracing_pipeline.StridedDeviceAddressRegion {
		if count == 0 {
			return khr_ray_tracing_pipeline.StridedDeviceAddressRegion{}
		}
		return khr_ray_tracing_pipeline.StridedDeviceAddressRegion{
			DeviceAddress: addr + uint64(offset),
			Stride:        l.stride,
			Size:          count * l.stride,
		}
	}

	return &Table{
		buffer:   buf,
		Raygen:   region(l.raygen, 1),
		Miss:     region(l.miss, counts.Miss),
		Hit:      region(l.hit, counts.Hit),
		Callable: region(l.callable, counts.Callable),
	}, nil
}

// Release drops the table's buffer reference.
func (t *Table) Release() {
	if t.buffer != nil {
		t.buffer.Release()
		t.buffer = nil
	}
}

// PushData is the per-dispatch push block the trace path consumes.
type PushData struct {
	RenderWidth        uint32
	RenderHeight       uint32
	AccumulatedSamples uint32
	BatchSamples       uint32
}

// Bytes serializes the block in device byte order.
func (p PushData) Bytes() []byte {
	out := make([]byte, 16)
	common.ByteOrder.PutUint32(out[0:], p.RenderWidth)
	common.ByteOrder.PutUint32(out[4:], p.RenderHeight)
	common.ByteOrder.PutUint32(out[8:], p.AccumulatedSamples)
	common.ByteOrder.PutUint32(out[12:], p.BatchSamples)
	return out
}
