package gpu

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/arsenal/vam"
	"github.com/vkngwrapper/core/v2/core1_0"

	"github.com/hexlattice/prism/logx"
)

// submitter is the out-of-band submission seam SetLayout runs through.
// *Pool satisfies it.
type submitter interface {
	Single(fn func(cb core1_0.CommandBuffer) error) error
}

// Image is a reference-counted device image. Same ownership rules as Buffer.
type Image struct {
	id     string
	raw    core1_0.Image
	view   core1_0.ImageView
	mem    Memory
	format core1_0.Format
	extent core1_0.Extent2D
	usage  core1_0.ImageUsageFlags
	class  MemoryClass
	layout core1_0.ImageLayout
	sub    submitter
	refs   int64
}

// CreateImage allocates a 2D image in the undefined layout. Fails with
// ErrResourceExhausted when the allocator cannot satisfy the request.
func (c *Context) CreateImage(format core1_0.Format, extent core1_0.Extent2D, usage core1_0.ImageUsageFlags, class MemoryClass) (*Image, error) {
	raw, _, err := c.device.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Format:    format,
		Extent: core1_0.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       core1_0.Samples1,
		Tiling:        core1_0.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		InitialLayout: core1_0.ImageLayoutUndefined,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "gpu: creating image"), ErrResourceExhausted)
	}

	allocInfo := vam.AllocationCreateInfo{Usage: vam.MemoryUsageAutoPreferDevice}
	if class == HostVisible {
		allocInfo.Usage = vam.MemoryUsageAuto
	}

	var alloc vam.Allocation
	_, err = c.allocator.AllocateMemoryForImage(raw, allocInfo, &alloc)
	if err != nil {
		raw.Destroy(nil)
		return nil, errors.Mark(errors.Wrap(err, "gpu: allocating image memory"), ErrResourceExhausted)
	}
	_, err = alloc.BindImageMemory(raw)
	if err != nil {
		alloc.Free()
		raw.Destroy(nil)
		return nil, errors.Mark(errors.Wrap(err, "gpu: binding image memory"), ErrResourceExhausted)
	}

	img := &Image{
		id:     uuid.NewString(),
		raw:    raw,
		mem:    &alloc,
		format: format,
		extent: extent,
		usage:  usage,
		class:  class,
		layout: core1_0.ImageLayoutUndefined,
		sub:    c.pool,
		refs:   1,
	}

	img.view, _, err = c.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    raw,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		img.Release()
		return nil, errors.Mark(errors.Wrap(err, "gpu: creating image view"), ErrResourceExhausted)
	}

	logx.Debug("image %s: %dx%d %s", img.id, extent.Width, extent.Height, format)
	return img, nil
}

// NewImage wraps pre-created handles into a tracked Image. Exists for tests
// and external allocators; CreateImage is the normal path.
func NewImage(raw core1_0.Image, mem Memory, format core1_0.Format, extent core1_0.Extent2D, usage core1_0.ImageUsageFlags, class MemoryClass, sub submitter) *Image {
	return &Image{
		id:     uuid.NewString(),
		raw:    raw,
		mem:    mem,
		format: format,
		extent: extent,
		usage:  usage,
		class:  class,
		layout: core1_0.ImageLayoutUndefined,
		sub:    sub,
		refs:   1,
	}
}

func (i *Image) Raw() core1_0.Image           { return i.raw }
func (i *Image) View() core1_0.ImageView      { return i.view }
func (i *Image) Format() core1_0.Format       { return i.format }
func (i *Image) Extent() core1_0.Extent2D     { return i.extent }
func (i *Image) Layout() core1_0.ImageLayout { return i.layout }

// SetLayout records a single barrier transitioning the image to newLayout,
// submits it on the context queue and blocks until complete. Out-of-band and
// deliberately synchronous: not for the per-frame hot path. Calling it again
// with the current layout is a no-op.
func (i *Image) SetLayout(newLayout core1_0.ImageLayout) error {
	if newLayout == i.layout {
		return nil
	}

	oldLayout := i.layout
	srcStage, srcAccess := layoutStage(oldLayout)
	dstStage, dstAccess := layoutStage(newLayout)

	err := i.sub.Single(func(cb core1_0.CommandBuffer) error {
		return cb.CmdPipelineBarrier(srcStage, dstStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
			{
				OldLayout:           oldLayout,
				NewLayout:           newLayout,
				SrcQueueFamilyIndex: -1,
				DstQueueFamilyIndex: -1,
				Image:               i.raw,
				SrcAccessMask:       srcAccess,
				DstAccessMask:       dstAccess,
				SubresourceRange: core1_0.ImageSubresourceRange{
					AspectMask:     core1_0.ImageAspectColor,
					BaseMipLevel:   0,
					LevelCount:     1,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
			},
		})
	})
	if err != nil {
		return errors.Wrapf(err, "gpu: transitioning image to %s", newLayout)
	}

	i.layout = newLayout
	return nil
}

// layoutStage maps a layout to the stage/access pair its barrier half uses.
// Unknown layouts fall back to the conservative all-commands barrier.
func layoutStage(layout core1_0.ImageLayout) (core1_0.PipelineStageFlags, core1_0.AccessFlags) {
	switch layout {
	case core1_0.ImageLayoutUndefined:
		return core1_0.PipelineStageTopOfPipe, 0
	case core1_0.ImageLayoutTransferDstOptimal:
		return core1_0.PipelineStageTransfer, core1_0.AccessTransferWrite
	case core1_0.ImageLayoutTransferSrcOptimal:
		return core1_0.PipelineStageTransfer, core1_0.AccessTransferRead
	case core1_0.ImageLayoutShaderReadOnlyOptimal:
		return core1_0.PipelineStageFragmentShader, core1_0.AccessShaderRead
	case core1_0.ImageLayoutGeneral:
		return core1_0.PipelineStageAllCommands, core1_0.AccessShaderRead | core1_0.AccessShaderWrite
	default:
		return core1_0.PipelineStageAllCommands, core1_0.AccessMemoryRead | core1_0.AccessMemoryWrite
	}
}

// Retain adds an owner.
func (i *Image) Retain() *Image {
	atomic.AddInt64(&i.refs, 1)
	return i
}

// Release drops an owner; the last one destroys view, image and memory.
func (i *Image) Release() {
	if atomic.AddInt64(&i.refs, -1) != 0 {
		return
	}
	if i.view != nil {
		i.view.Destroy(nil)
		i.view = nil
	}
	if i.raw != nil {
		i.raw.Destroy(nil)
		i.raw = nil
	}
	if i.mem != nil {
		i.mem.Free()
		i.mem = nil
	}
	logx.Debug("image %s released", i.id)
}
