package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_get_physical_device_properties2"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"

	"github.com/hexlattice/prism/config"
	"github.com/hexlattice/prism/ext/khr_acceleration_structure"
	"github.com/hexlattice/prism/ext/khr_ray_tracing_pipeline"
	"github.com/hexlattice/prism/gpu"
	"github.com/hexlattice/prism/present"
	"github.com/hexlattice/prism/rt"
	"github.com/hexlattice/prism/scene"
)

// renderer owns the trace pipeline, its shader-binding table, the
// accumulation target and the per-frame command recording.
type renderer struct {
	ctx   *gpu.Context
	rtExt *khr_ray_tracing_pipeline.VulkanExtension
	props rt.PipelineProperties

	storage *gpu.Image

	setLayout  core1_0.DescriptorSetLayout
	descPool   core1_0.DescriptorPool
	descSet    core1_0.DescriptorSet
	pipeLayout core1_0.PipelineLayout
	pipeline   core1_0.Pipeline
	table      *rt.Table

	hitVariants int
}

func newRenderer(ctx *gpu.Context, shaders config.Shaders, scn *scene.Result, extent core1_0.Extent2D) (*renderer, error) {
	if len(shaders.Hit) == 0 {
		return nil, errors.New("at least one hit shader is required")
	}

	r := &renderer{
		ctx:         ctx,
		rtExt:       khr_ray_tracing_pipeline.CreateExtensionFromDevice(ctx.Device()),
		hitVariants: len(shaders.Hit),
	}

	if err := r.queryProperties(); err != nil {
		return nil, err
	}
	if err := r.createStorage(extent); err != nil {
		return nil, err
	}
	if err := r.createDescriptors(scn); err != nil {
		r.destroy()
		return nil, err
	}
	if err := r.createPipeline(shaders); err != nil {
		r.destroy()
		return nil, err
	}
	if err := r.createTable(); err != nil {
		r.destroy()
		return nil, err
	}
	return r, nil
}

// queryProperties pulls the shader-group sizing limits the binding table
// layout depends on.
func (r *renderer) queryProperties() error {
	propsExt := khr_get_physical_device_properties2.CreateExtensionFromInstance(r.ctx.Instance())

	var rtProps khr_ray_tracing_pipeline.PhysicalDeviceRayTracingPipelineProperties
	props := khr_get_physical_device_properties2.PhysicalDeviceProperties2{
		NextOutData: common.NextOutData{Next: &rtProps},
	}
	if err := propsExt.PhysicalDeviceProperties2(r.ctx.Physical(), &props); err != nil {
		return errors.Wrap(err, "querying ray tracing properties")
	}

	r.props = rt.PipelineProperties{
		HandleSize:      rtProps.ShaderGroupHandleSize,
		HandleAlignment: rtProps.ShaderGroupHandleAlignment,
		BaseAlignment:   rtProps.ShaderGroupBaseAlignment,
	}
	return nil
}

// createStorage allocates the trace target in the general layout. The
// shader both reads and writes it across batches, which is what makes
// progressive accumulation work.
func (r *renderer) createStorage(extent core1_0.Extent2D) error {
	img, err := r.ctx.CreateImage(
		core1_0.FormatR32G32B32A32SignedFloat,
		extent,
		core1_0.ImageUsageStorage|core1_0.ImageUsageTransferSrc,
		gpu.DeviceOnly,
	)
	if err != nil {
		return err
	}
	if err := img.SetLayout(core1_0.ImageLayoutGeneral); err != nil {
		img.Release()
		return err
	}
	r.storage = img
	return nil
}

func (r *renderer) createDescriptors(scn *scene.Result) error {
	var err error
	r.setLayout, _, err = r.ctx.Device().CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  khr_acceleration_structure.DescriptorTypeAccelerationStructure,
				DescriptorCount: 1,
				StageFlags:      khr_ray_tracing_pipeline.ShaderStageRaygen,
			},
			{
				Binding:         1,
				DescriptorType:  core1_0.DescriptorTypeStorageImage,
				DescriptorCount: 1,
				StageFlags:      khr_ray_tracing_pipeline.ShaderStageRaygen,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "creating descriptor set layout")
	}

	r.descPool, _, err = r.ctx.Device().CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: 1,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{Type: khr_acceleration_structure.DescriptorTypeAccelerationStructure, DescriptorCount: 1},
			{Type: core1_0.DescriptorTypeStorageImage, DescriptorCount: 1},
		},
	})
	if err != nil {
		return errors.Wrap(err, "creating descriptor pool")
	}

	sets, _, err := r.ctx.Device().AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: r.descPool,
		SetLayouts:     []core1_0.DescriptorSetLayout{r.setLayout},
	})
	if err != nil {
		return errors.Wrap(err, "allocating descriptor set")
	}
	r.descSet = sets[0]

	return r.writeDescriptors(scn)
}

func (r *renderer) writeDescriptors(scn *scene.Result) error {
	err := r.ctx.Device().UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
		{
			DstSet:         r.descSet,
			DstBinding:     0,
			DescriptorType: khr_acceleration_structure.DescriptorTypeAccelerationStructure,
			NextOptions: common.NextOptions{
				Next: khr_acceleration_structure.WriteDescriptorSetAccelerationStructure{
					AccelerationStructures: []khr_acceleration_structure.AccelerationStructure{
						scn.TLAS.Handle(),
					},
				},
			},
		},
		{
			DstSet:         r.descSet,
			DstBinding:     1,
			DescriptorType: core1_0.DescriptorTypeStorageImage,
			ImageInfo: []core1_0.DescriptorImageInfo{
				{
					ImageView:   r.storage.View(),
					ImageLayout: core1_0.ImageLayoutGeneral,
				},
			},
		},
	}, nil)
	if err != nil {
		return errors.Wrap(err, "updating descriptor set")
	}
	return nil
}

func (r *renderer) createPipeline(shaders config.Shaders) error {
	raygen, err := r.loadShader(shaders.Raygen)
	if err != nil {
		return err
	}
	defer raygen.Destroy(nil)
	miss, err := r.loadShader(shaders.Miss)
	if err != nil {
		return err
	}
	defer miss.Destroy(nil)

	stages := []core1_0.PipelineShaderStageCreateInfo{
		{Stage: khr_ray_tracing_pipeline.ShaderStageRaygen, Module: raygen, Name: "main"},
		{Stage: khr_ray_tracing_pipeline.ShaderStageMiss, Module: miss, Name: "main"},
	}
	groups := []khr_ray_tracing_pipeline.RayTracingShaderGroupCreateInfo{
		{
			Type:               khr_ray_tracing_pipeline.RayTracingShaderGroupTypeGeneral,
			GeneralShader:      0,
			ClosestHitShader:   -1,
			AnyHitShader:       -1,
			IntersectionShader: -1,
		},
		{
			Type:               khr_ray_tracing_pipeline.RayTracingShaderGroupTypeGeneral,
			GeneralShader:      1,
			ClosestHitShader:   -1,
			AnyHitShader:       -1,
			IntersectionShader: -1,
		},
	}

	hitModules := make([]core1_0.ShaderModule, 0, len(shaders.Hit))
	defer func() {
		for _, m := range hitModules {
			m.Destroy(nil)
		}
	}()
	for _, path := range shaders.Hit {
		module, err := r.loadShader(path)
		if err != nil {
			return err
		}
		hitModules = append(hitModules, module)

		stageIndex := len(stages)
		stages = append(stages, core1_0.PipelineShaderStageCreateInfo{
			Stage:  khr_ray_tracing_pipeline.ShaderStageClosestHit,
			Module: module,
			Name:   "main",
		})
		groups = append(groups, khr_ray_tracing_pipeline.RayTracingShaderGroupCreateInfo{
			Type:               khr_ray_tracing_pipeline.RayTracingShaderGroupTypeTrianglesHitGroup,
			GeneralShader:      -1,
			ClosestHitShader:   stageIndex,
			AnyHitShader:       -1,
			IntersectionShader: -1,
		})
	}

	r.pipeLayout, _, err = r.ctx.Device().CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{r.setLayout},
		PushConstantRanges: []core1_0.PushConstantRange{
			{
				StageFlags: khr_ray_tracing_pipeline.ShaderStageRaygen,
				Offset:     0,
				Size:       len(rt.PushData{}.Bytes()),
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "creating pipeline layout")
	}

	pipelines, _, err := r.rtExt.CreateRayTracingPipelines(r.ctx.Device(), nil, nil,
		[]khr_ray_tracing_pipeline.RayTracingPipelineCreateInfo{
			{
				Stages:                       stages,
				Groups:                       groups,
				MaxPipelineRayRecursionDepth: 1,
				Layout:                       r.pipeLayout,
			},
		}, nil)
	if err != nil {
		return errors.Wrap(err, "creating ray tracing pipeline")
	}
	r.pipeline = pipelines[0]
	return nil
}

func (r *renderer) loadShader(path string) (core1_0.ShaderModule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading shader %s", path)
	}
	if len(raw)%4 != 0 {
		return nil, errors.Newf("shader %s is not SPIR-V (length %d)", path, len(raw))
	}

	code := make([]uint32, len(raw)/4)
	for i := range code {
		code[i] = common.ByteOrder.Uint32(raw[i*4:])
	}

	module, _, err := r.ctx.Device().CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating shader module %s", path)
	}
	return module, nil
}

func (r *renderer) createTable() error {
	counts := rt.GroupCounts{Miss: 1, Hit: r.hitVariants}

	handles, _, err := r.rtExt.RayTracingShaderGroupHandles(
		r.ctx.Device(), r.pipeline, 0, counts.Total(), counts.Total()*r.props.HandleSize)
	if err != nil {
		return errors.Wrap(err, "fetching shader group handles")
	}

	table, err := rt.NewTable(r.ctx, r.props, counts, handles)
	if err != nil {
		return err
	}
	r.table = table
	return nil
}

// resize replaces the accumulation target when the swapchain extent
// changes. The caller has already drained the device.
func (r *renderer) resize(scn *scene.Result, extent core1_0.Extent2D) error {
	if r.storage != nil && r.storage.Extent() == extent {
		return nil
	}
	old := r.storage
	r.storage = nil
	if err := r.createStorage(extent); err != nil {
		r.storage = old
		return err
	}
	if old != nil {
		old.Release()
	}
	return r.writeDescriptors(scn)
}

// record writes one frame: trace a batch into the accumulation target,
// then copy it out to the acquired swapchain image.
func (r *renderer) record(cb core1_0.CommandBuffer, frame present.Frame, batch uint32) error {
	push := rt.PushData{
		RenderWidth:        uint32(frame.Extent.Width),
		RenderHeight:       uint32(frame.Extent.Height),
		AccumulatedSamples: frame.AccumulatedSamples,
		BatchSamples:       batch,
	}

	cb.CmdBindPipeline(khr_ray_tracing_pipeline.PipelineBindPointRayTracing, r.pipeline)
	cb.CmdBindDescriptorSets(khr_ray_tracing_pipeline.PipelineBindPointRayTracing,
		r.pipeLayout, 0, []core1_0.DescriptorSet{r.descSet}, nil)
	cb.CmdPushConstants(r.pipeLayout, khr_ray_tracing_pipeline.ShaderStageRaygen, 0, push.Bytes())

	err := r.rtExt.CmdTraceRays(cb, r.table.Raygen, r.table.Miss, r.table.Hit, r.table.Callable,
		frame.Extent.Width, frame.Extent.Height, 1)
	if err != nil {
		return err
	}

	// Trace writes must land before the copy reads.
	err = imageBarrier(cb, r.storage.Raw(),
		core1_0.ImageLayoutGeneral, core1_0.ImageLayoutTransferSrcOptimal,
		khr_ray_tracing_pipeline.PipelineStageRayTracingShader, core1_0.PipelineStageTransfer,
		core1_0.AccessShaderWrite, core1_0.AccessTransferRead)
	if err != nil {
		return err
	}
	err = imageBarrier(cb, frame.Image,
		core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal,
		core1_0.PipelineStageTopOfPipe, core1_0.PipelineStageTransfer,
		0, core1_0.AccessTransferWrite)
	if err != nil {
		return err
	}

	err = cb.CmdBlitImage(
		r.storage.Raw(), core1_0.ImageLayoutTransferSrcOptimal,
		frame.Image, core1_0.ImageLayoutTransferDstOptimal,
		[]core1_0.ImageBlit{
			{
				SrcSubresource: core1_0.ImageSubresourceLayers{
					AspectMask: core1_0.ImageAspectColor,
					LayerCount: 1,
				},
				SrcOffsets: [2]core1_0.Offset3D{
					{},
					{X: r.storage.Extent().Width, Y: r.storage.Extent().Height, Z: 1},
				},
				DstSubresource: core1_0.ImageSubresourceLayers{
					AspectMask: core1_0.ImageAspectColor,
					LayerCount: 1,
				},
				DstOffsets: [2]core1_0.Offset3D{
					{},
					{X: frame.Extent.Width, Y: frame.Extent.Height, Z: 1},
				},
			},
		},
		core1_0.FilterNearest,
	)
	if err != nil {
		return err
	}

	err = imageBarrier(cb, r.storage.Raw(),
		core1_0.ImageLayoutTransferSrcOptimal, core1_0.ImageLayoutGeneral,
		core1_0.PipelineStageTransfer, khr_ray_tracing_pipeline.PipelineStageRayTracingShader,
		core1_0.AccessTransferRead, core1_0.AccessShaderRead|core1_0.AccessShaderWrite)
	if err != nil {
		return err
	}
	return imageBarrier(cb, frame.Image,
		core1_0.ImageLayoutTransferDstOptimal, khr_swapchain.ImageLayoutPresentSrc,
		core1_0.PipelineStageTransfer, core1_0.PipelineStageBottomOfPipe,
		core1_0.AccessTransferWrite, 0)
}

func imageBarrier(cb core1_0.CommandBuffer, img core1_0.Image,
	oldLayout, newLayout core1_0.ImageLayout,
	srcStage, dstStage core1_0.PipelineStageFlags,
	srcAccess, dstAccess core1_0.AccessFlags,
) error {
	return cb.CmdPipelineBarrier(srcStage, dstStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
		{
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               img,
			SrcAccessMask:       srcAccess,
			DstAccessMask:       dstAccess,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask: core1_0.ImageAspectColor,
				LevelCount: 1,
				LayerCount: 1,
			},
		},
	})
}

func (r *renderer) destroy() {
	if r.table != nil {
		r.table.Release()
		r.table = nil
	}
	if r.pipeline != nil {
		r.pipeline.Destroy(nil)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.pipeLayout.Destroy(nil)
		r.pipeLayout = nil
	}
	if r.descPool != nil {
		r.descPool.Destroy(nil)
		r.descPool = nil
	}
	if r.setLayout != nil {
		r.setLayout.Destroy(nil)
		r.setLayout = nil
	}
	if r.storage != nil {
		r.storage.Release()
		r.storage = nil
	}
}
