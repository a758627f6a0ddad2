package scene

import (
	"image"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"

	"github.com/hexlattice/prism/ext/khr_acceleration_structure"
	"github.com/hexlattice/prism/gpu"
	"github.com/hexlattice/prism/rt"
)

// GPUDevice adapts a device context and structure builder to the
// assembler's Device interface.
type GPUDevice struct {
	ctx     *gpu.Context
	builder *rt.Builder
}

func NewGPUDevice(ctx *gpu.Context, builder *rt.Builder) *GPUDevice {
	return &GPUDevice{ctx: ctx, builder: builder}
}

// UploadGeometry places one raw block in host-visible memory with the usage
// the structure builds need. Blocks are small enough here that the staging
// round trip is not worth its complexity.
func (d *GPUDevice) UploadGeometry(data []byte) (Buffer, error) {
	usage := core1_0.BufferUsageStorageBuffer |
		khr_acceleration_structure.BufferUsageAccelerationStructureBuildInputReadOnly |
		khr_buffer_device_address.BufferUsageShaderDeviceAddress

	buf, err := d.ctx.CreateBuffer(len(data), usage, gpu.HostVisible)
	if err != nil {
		return nil, err
	}
	if err := buf.CopyFrom(data); err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}

// UploadTexture stages the decoded pixels into a sampled device-local image
// and leaves it in the shader-read layout.
func (d *GPUDevice) UploadTexture(rgba *image.RGBA) (Texture, error) {
	bounds := rgba.Bounds()
	extent := core1_0.Extent2D{Width: bounds.Dx(), Height: bounds.Dy()}

	staging, err := d.ctx.CreateBuffer(len(rgba.Pix), core1_0.BufferUsageTransferSrc, gpu.HostVisible)
	if err != nil {
		return nil, err
	}
	defer staging.Release()
	if err := staging.CopyFrom(rgba.Pix); err != nil {
		return nil, err
	}

	img, err := d.ctx.CreateImage(
		core1_0.FormatR8G8B8A8UnsignedNormalized,
		extent,
		core1_0.ImageUsageSampled|core1_0.ImageUsageTransferDst,
		gpu.DeviceOnly,
	)
	if err != nil {
		return nil, err
	}

	fail := func(err error) (Texture, error) {
		img.Release()
		return nil, err
	}

	if err := img.SetLayout(core1_0.ImageLayoutTransferDstOptimal); err != nil {
		return fail(err)
	}

	err = d.ctx.Pool().Single(func(cb core1_0.CommandBuffer) error {
		return cb.CmdCopyBufferToImage(staging.Raw(), img.Raw(),
			core1_0.ImageLayoutTransferDstOptimal,
			[]core1_0.BufferImageCopy{
				{
					ImageSubresource: core1_0.ImageSubresourceLayers{
						AspectMask: core1_0.ImageAspectColor,
						LayerCount: 1,
					},
					ImageExtent: core1_0.Extent3D{
						Width:  extent.Width,
						Height: extent.Height,
						Depth:  1,
					},
				},
			})
	})
	if err != nil {
		return fail(errors.Wrap(err, "scene: copying texture pixels"))
	}

	if err := img.SetLayout(core1_0.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return fail(err)
	}
	return img, nil
}

func (d *GPUDevice) BuildBLAS(geoms []rt.Geometry) (*rt.BLAS, error) {
	return d.builder.BuildBLAS(geoms)
}

func (d *GPUDevice) BuildTLAS(instances []rt.Instance) (*rt.TLAS, error) {
	return d.builder.BuildTLAS(instances)
}
