package present

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"

	"github.com/hexlattice/prism/gpu"
	"github.com/hexlattice/prism/logx"
)

// Frame is what the renderer gets per frame: the target image, its place in
// the chain and the accumulation counter as of this frame.
type Frame struct {
	Index  int
	Image  core1_0.Image
	View   core1_0.ImageView
	Extent core1_0.Extent2D
	// AccumulatedSamples is the number of samples already folded into the
	// accumulation target before this frame's batch.
	AccumulatedSamples uint32
}

// RecordFunc records one frame's commands into cb. The synchronizer has
// already begun the buffer and ends it afterward.
type RecordFunc func(cb core1_0.CommandBuffer, frame Frame) error

// Synchronizer paces the frame loop with at most one frame in flight: the
// next frame's recording waits for the previous frame's fence, so exactly
// one command buffer serves the whole loop. Acquire and present run on the
// single context queue.
//
// Not safe for concurrent use; the frame loop owns it.
type Synchronizer struct {
	device  core1_0.Device
	pool    *gpu.Pool
	factory ChainFactory

	chain Chain
	cb    *gpu.CommandBuffer

	imageAvailable core1_0.Semaphore
	renderFinished core1_0.Semaphore

	// inFlight is the previous frame's submission fence; nil before the
	// first frame and right after a recreation.
	inFlight *gpu.Fence

	accumulated uint32
	frames      uint64
}

// NewSynchronizer builds the initial swapchain and the frame-loop
// primitives.
func NewSynchronizer(device core1_0.Device, pool *gpu.Pool, factory ChainFactory) (*Synchronizer, error) {
	s := &Synchronizer{device: device, pool: pool, factory: factory}

	chain, err := factory.Create(nil)
	if err != nil {
		return nil, err
	}
	s.chain = chain

	s.cb, err = pool.Allocate()
	if err != nil {
		s.Destroy()
		return nil, err
	}

	s.imageAvailable, err = createSemaphore(device)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.renderFinished, err = createSemaphore(device)
	if err != nil {
		s.Destroy()
		return nil, err
	}

	return s, nil
}

func createSemaphore(device core1_0.Device) (core1_0.Semaphore, error) {
	sem, _, err := device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "present: creating semaphore")
	}
	return sem, nil
}

// Frame runs one acquire/record/submit/present cycle. An out-of-date chain
// recreates the swapchain and skips the frame; the next call renders into
// the fresh chain. Device loss surfaces as gpu.ErrDeviceLost.
func (s *Synchronizer) Frame(record RecordFunc) error {
	// One frame deep: the buffer is reused only after its fence signals.
	if err := s.waitInFlight(); err != nil {
		return err
	}

	index, outdated, err := s.chain.Acquire(s.imageAvailable)
	if err != nil {
		return err
	}
	if outdated {
		return s.recreate()
	}

	if err := s.cb.Begin(); err != nil {
		return err
	}
	err = record(s.cb.Recorder(), Frame{
		Index:              index,
		Image:              s.chain.Images()[index],
		View:               s.chain.Views()[index],
		Extent:             s.chain.Extent(),
		AccumulatedSamples: s.accumulated,
	})
	if err != nil {
		s.abandonRecording()
		return errors.Wrap(err, "present: recording frame")
	}
	if err := s.cb.End(); err != nil {
		s.abandonRecording()
		return err
	}

	fence, err := s.cb.Submit(
		[]core1_0.Semaphore{s.imageAvailable},
		[]core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
		[]core1_0.Semaphore{s.renderFinished},
	)
	if err != nil {
		return err
	}
	s.inFlight = fence
	s.frames++

	outdated, err = s.chain.Present(index, s.renderFinished)
	if err != nil {
		return err
	}
	if outdated {
		return s.recreate()
	}
	return nil
}

// abandonRecording returns the shared command buffer to Initial after a
// failed recording, so the next Frame's Begin is not refused.
func (s *Synchronizer) abandonRecording() {
	if err := s.cb.Reset(); err != nil {
		logx.Warn("present: resetting abandoned command buffer: %v", err)
	}
}

func (s *Synchronizer) waitInFlight() error {
	if s.inFlight == nil {
		return nil
	}
	if err := s.inFlight.Wait(); err != nil {
		return err
	}
	s.inFlight.Destroy()
	s.inFlight = nil
	return nil
}

// recreate replaces the swapchain after draining the device and resets the
// accumulation counter: every accumulated sample targeted the old extent.
func (s *Synchronizer) recreate() error {
	if err := s.waitInFlight(); err != nil {
		return err
	}
	if s.device != nil {
		s.device.WaitIdle()
	}

	fresh, err := s.factory.Create(s.chain)
	if err != nil {
		return errors.Wrap(err, "present: recreating swapchain")
	}
	s.chain.Destroy()
	s.chain = fresh

	logx.Debug("swapchain recreated, accumulation reset (was %d samples)", s.accumulated)
	s.accumulated = 0
	return nil
}

// AddSamples folds a completed batch into the accumulation counter.
func (s *Synchronizer) AddSamples(n uint32) { s.accumulated += n }

// AccumulatedSamples reports how many samples the accumulation target
// currently holds.
func (s *Synchronizer) AccumulatedSamples() uint32 { return s.accumulated }

// Extent is the current swapchain extent.
func (s *Synchronizer) Extent() core1_0.Extent2D { return s.chain.Extent() }

// Chain exposes the live swapchain for pipeline setup (formats, views).
func (s *Synchronizer) Chain() Chain { return s.chain }

// Frames is the number of frames submitted since creation.
func (s *Synchronizer) Frames() uint64 { return s.frames }

// Destroy drains the in-flight frame and tears everything down.
func (s *Synchronizer) Destroy() {
	if s.inFlight != nil {
		s.inFlight.Wait()
		s.inFlight.Destroy()
		s.inFlight = nil
	}
	if s.imageAvailable != nil {
		s.imageAvailable.Destroy(nil)
		s.imageAvailable = nil
	}
	if s.renderFinished != nil {
		s.renderFinished.Destroy(nil)
		s.renderFinished = nil
	}
	if s.cb != nil {
		s.cb.Free()
		s.cb = nil
	}
	if s.chain != nil {
		s.chain.Destroy()
		s.chain = nil
	}
}
