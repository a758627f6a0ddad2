package rt

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"

	"github.com/hexlattice/prism/ext/khr_acceleration_structure"
	"github.com/hexlattice/prism/gpu"
	"github.com/hexlattice/prism/logx"
)

// BufferAllocator is the slice of the resource layer the builder needs.
// *gpu.Context satisfies it.
type BufferAllocator interface {
	CreateBuffer(size int, usage core1_0.BufferUsageFlags, class gpu.MemoryClass) (*gpu.Buffer, error)
}

// Submitter runs one recorded batch to completion. *gpu.Pool satisfies it.
// Because every build goes through Submitter, a build's fence has signaled
// by the time the build call returns — that is what sequences all BLAS
// builds strictly before the TLAS build.
type Submitter interface {
	Single(fn func(cb core1_0.CommandBuffer) error) error
}

// Builder assembles acceleration structures on a single queue. Not safe for
// concurrent use.
type Builder struct {
	device core1_0.Device
	ext    khr_acceleration_structure.Extension
	alloc  BufferAllocator
	sub    Submitter
}

// NewBuilder wires a builder to its device context.
func NewBuilder(device core1_0.Device, ext khr_acceleration_structure.Extension, alloc BufferAllocator, sub Submitter) *Builder {
	return &Builder{device: device, ext: ext, alloc: alloc, sub: sub}
}

// ForContext is the production wiring over a gpu.Context.
func ForContext(ctx *gpu.Context) *Builder {
	return NewBuilder(
		ctx.Device(),
		khr_acceleration_structure.CreateExtensionFromDevice(ctx.Device()),
		ctx,
		ctx.Pool(),
	)
}

// BuildBLAS builds one bottom-level structure over the given geometries:
// query sizes, allocate scratch and result storage, record a single build
// command referencing every geometry, submit and wait. On return the build
// fence has signaled and the structure is immutable.
func (b *Builder) BuildBLAS(geoms []Geometry) (*BLAS, error) {
	if len(geoms) == 0 {
		return nil, errors.New("rt: BLAS needs at least one geometry")
	}

	asGeoms := make([]khr_acceleration_structure.AccelerationStructureGeometry, 0, len(geoms))
	ranges := make([]khr_acceleration_structure.AccelerationStructureBuildRangeInfo, 0, len(geoms))
	primCounts := make([]int, 0, len(geoms))

	for _, g := range geoms {
		asGeoms = append(asGeoms, khr_acceleration_structure.AccelerationStructureGeometry{
			GeometryType: khr_acceleration_structure.GeometryTypeTriangles,
			Flags:        khr_acceleration_structure.GeometryOpaque,
			Geometry: khr_acceleration_structure.AccelerationStructureGeometryData{
				Triangles: &khr_acceleration_structure.AccelerationStructureGeometryTrianglesData{
					VertexFormat: g.VertexFormat,
					VertexData: khr_acceleration_structure.DeviceOrHostAddressConst{
						DeviceAddress: g.VertexAddress,
					},
					VertexStride: g.VertexStride,
					MaxVertex:    g.VertexCount - 1,
					IndexType:    g.IndexType,
					IndexData: khr_acceleration_structure.DeviceOrHostAddressConst{
						DeviceAddress: g.IndexAddress,
					},
				},
			},
		})
		ranges = append(ranges, khr_acceleration_structure.AccelerationStructureBuildRangeInfo{
			PrimitiveCount:  g.PrimitiveCount,
			PrimitiveOffset: g.IndexOffset,
			FirstVertex:     g.VertexOffset / max(g.VertexStride, 1),
		})
		primCounts = append(primCounts, g.PrimitiveCount)
	}

	info := khr_acceleration_structure.AccelerationStructureBuildGeometryInfo{
		Type:       khr_acceleration_structure.AccelerationStructureTypeBottomLevel,
		Flags:      khr_acceleration_structure.BuildAccelerationStructurePreferFastTrace,
		Mode:       khr_acceleration_structure.BuildAccelerationStructureModeBuild,
		Geometries: asGeoms,
	}

	handle, buffer, address, err := b.build(info, ranges, primCounts)
	if err != nil {
		return nil, errors.Wrap(err, "rt: building BLAS")
	}

	logx.Debug("BLAS built: %d geometries at %#x", len(geoms), address)
	return &BLAS{
		handle:  handle,
		buffer:  buffer,
		address: address,
		geoms:   append([]Geometry(nil), geoms...),
		built:   true,
	}, nil
}

// BuildTLAS builds the top-level structure over instances. Every referenced
// BLAS must have a signaled build fence before this submission; unbuilt
// references fail with ErrSynchronization before any device work. The
// instance records are uploaded once, then a device-resident pointer buffer
// of per-record addresses feeds a single build command.
func (b *Builder) BuildTLAS(instances []Instance) (*TLAS, error) {
	if len(instances) == 0 {
		return nil, errors.New("rt: TLAS needs at least one instance")
	}

	records, err := encodeInstances(instances)
	if err != nil {
		return nil, err
	}

	inputUsage := khr_acceleration_structure.BufferUsageAccelerationStructureBuildInputReadOnly |
		khr_buffer_device_address.BufferUsageShaderDeviceAddress

	recordBuf, err := b.upload(records, inputUsage)
	if err != nil {
		return nil, errors.Wrap(err, "rt: uploading instance records")
	}
	defer recordBuf.Release()

	recordAddr, err := recordBuf.DeviceAddress()
	if err != nil {
		return nil, err
	}

	// Pointer buffer: one device address per instance record.
	pointers := make([]byte, len(instances)*8)
	for i := range instances {
		common.ByteOrder.PutUint64(pointers[i*8:], recordAddr+uint64(i*instanceRecordSize))
	}
	pointerBuf, err := b.upload(pointers, inputUsage)
	if err != nil {
		return nil, errors.Wrap(err, "rt: uploading instance pointers")
	}
	defer pointerBuf.Release()

	pointerAddr, err := pointerBuf.DeviceAddress()
	if err != nil {
		return nil, err
	}

	info := khr_acceleration_structure.AccelerationStructureBuildGeometryInfo{
		Type:  khr_acceleration_structure.AccelerationStructureTypeTopLevel,
		Flags: khr_acceleration_structure.BuildAccelerationStructurePreferFastTrace,
		Mode:  khr_acceleration_structure.BuildAccelerationStructureModeBuild,
		Geometries: []khr_acceleration_structure.AccelerationStructureGeometry{
			{
				GeometryType: khr_acceleration_structure.GeometryTypeInstances,
				Geometry: khr_acceleration_structure.AccelerationStructureGeometryData{
					Instances: &khr_acceleration_structure.AccelerationStructureGeometryInstancesData{
						ArrayOfPointers: true,
						Data: khr_acceleration_structure.DeviceOrHostAddressConst{
							DeviceAddress: pointerAddr,
						},
					},
				},
			},
		},
	}
	ranges := []khr_acceleration_structure.AccelerationStructureBuildRangeInfo{
		{PrimitiveCount: len(instances)},
	}

	handle, buffer, address, err := b.build(info, ranges, []int{len(instances)})
	if err != nil {
		return nil, errors.Wrap(err, "rt: building TLAS")
	}

	logx.Debug("TLAS built: %d instances at %#x", len(instances), address)
	return &TLAS{
		handle:        handle,
		buffer:        buffer,
		address:       address,
		instanceCount: len(instances),
		built:         true,
	}, nil
}

// build runs the shared tail of both build paths: size query, result and
// scratch allocation, structure creation, one recorded build command,
// submit, fence wait. Scratch is released before returning.
func (b *Builder) build(
	info khr_acceleration_structure.AccelerationStructureBuildGeometryInfo,
	ranges []khr_acceleration_structure.AccelerationStructureBuildRangeInfo,
	primCounts []int,
) (khr_acceleration_structure.AccelerationStructure, *gpu.Buffer, uint64, error) {

	sizes, err := b.ext.AccelerationStructureBuildSizes(
		b.device,
		khr_acceleration_structure.AccelerationStructureBuildTypeDevice,
		info,
		primCounts,
	)
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "querying build sizes")
	}

	resultBuf, err := b.alloc.CreateBuffer(
		sizes.AccelerationStructureSize,
		khr_acceleration_structure.BufferUsageAccelerationStructureStorage|
			khr_buffer_device_address.BufferUsageShaderDeviceAddress,
		gpu.DeviceOnly,
	)
	if err != nil {
		return nil, nil, 0, err
	}

	scratchBuf, err := b.alloc.CreateBuffer(
		sizes.BuildScratchSize,
		core1_0.BufferUsageStorageBuffer|khr_buffer_device_address.BufferUsageShaderDeviceAddress,
		gpu.DeviceOnly,
	)
	if err != nil {
		resultBuf.Release()
		return nil, nil, 0, err
	}
	defer scratchBuf.Release()

	scratchAddr, err := scratchBuf.DeviceAddress()
	if err != nil {
		resultBuf.Release()
		return nil, nil, 0, err
	}

	handle, _, err := b.ext.CreateAccelerationStructure(b.device, nil,
		khr_acceleration_structure.AccelerationStructureCreateInfo{
			Buffer: resultBuf.Raw(),
			Size:   sizes.AccelerationStructureSize,
			Type:   info.Type,
		})
	if err != nil {
		resultBuf.Release()
		return nil, nil, 0, errors.Wrap(err, "creating structure")
	}

	info.DstAccelerationStructure = handle
	info.ScratchData = khr_acceleration_structure.DeviceOrHostAddress{DeviceAddress: scratchAddr}

	err = b.sub.Single(func(cb core1_0.CommandBuffer) error {
		return b.ext.CmdBuildAccelerationStructures(cb,
			[]khr_acceleration_structure.AccelerationStructureBuildGeometryInfo{info},
			[][]khr_acceleration_structure.AccelerationStructureBuildRangeInfo{ranges},
		)
	})
	if err != nil {
		handle.Destroy(nil)
		resultBuf.Release()
		return nil, nil, 0, err
	}

	address, err := b.ext.AccelerationStructureDeviceAddress(b.device,
		khr_acceleration_structure.AccelerationStructureDeviceAddressInfo{
			AccelerationStructure: handle,
		})
	if err != nil {
		handle.Destroy(nil)
		resultBuf.Release()
		return nil, nil, 0, errors.Wrap(err, "querying structure address")
	}

	return handle, resultBuf, address, nil
}

// upload creates a host-visible buffer holding data.
func (b *Builder) upload(data []byte, usage core1_0.BufferUsageFlags) (*gpu.Buffer, error) {
	buf, err := b.alloc.CreateBuffer(len(data), usage, gpu.HostVisible)
	if err != nil {
		return nil, err
	}
	if err := buf.CopyFrom(data); err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}
