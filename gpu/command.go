package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// State tracks a command buffer through its lifecycle. Transitions:
//
//	Initial -> Recording -> Executable -> Pending -> Completed
//
// Completed buffers may be Reset back to Initial and re-recorded. A Pending
// buffer must not be touched until its fence signals; the methods below
// reject the transitions they can detect and the rest is the caller's
// fence-before-reuse discipline.
type State int

const (
	StateInitial State = iota
	StateRecording
	StateExecutable
	StatePending
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateRecording:
		return "Recording"
	case StateExecutable:
		return "Executable"
	case StatePending:
		return "Pending"
	case StateCompleted:
		return "Completed"
	}
	return "Unknown"
}

// Pool owns a Vulkan command pool and allocates state-tracked command
// buffers against a single queue.
type Pool struct {
	device core1_0.Device
	queue  core1_0.Queue
	raw    core1_0.CommandPool
}

// NewPool creates a command pool on the given queue family. The pool allows
// per-buffer reset so Completed buffers can be re-recorded.
func NewPool(device core1_0.Device, queue core1_0.Queue, queueFamily int) (*Pool, error) {
	raw, _, err := device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: queueFamily,
		Flags:            core1_0.CommandPoolCreateResetBuffer,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gpu: creating command pool")
	}
	return &Pool{device: device, queue: queue, raw: raw}, nil
}

// Allocate returns a primary command buffer in the Initial state.
func (p *Pool) Allocate() (*CommandBuffer, error) {
	buffers, _, err := p.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.raw,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gpu: allocating command buffer")
	}
	return &CommandBuffer{raw: buffers[0], pool: p, state: StateInitial}, nil
}

// Single records fn into a one-time command buffer, submits it, blocks until
// the fence signals and frees the buffer. This is the out-of-band path for
// uploads and layout transitions; it deliberately stalls the pipeline and is
// not meant for per-frame work.
func (p *Pool) Single(fn func(cb core1_0.CommandBuffer) error) error {
	cb, err := p.Allocate()
	if err != nil {
		return err
	}
	defer cb.Free()

	if err := cb.BeginOneTime(); err != nil {
		return err
	}
	if err := fn(cb.Recorder()); err != nil {
		return err
	}
	if err := cb.End(); err != nil {
		return err
	}

	fence, err := cb.Submit(nil, nil, nil)
	if err != nil {
		return err
	}
	defer fence.Destroy()
	return fence.Wait()
}

func (p *Pool) Queue() core1_0.Queue { return p.queue }

func (p *Pool) Destroy() {
	if p.raw != nil {
		p.raw.Destroy(nil)
		p.raw = nil
	}
}

// CommandBuffer is a state-tracked primary command buffer. Not safe for
// concurrent use; the single frame thread owns it.
type CommandBuffer struct {
	raw   core1_0.CommandBuffer
	pool  *Pool
	state State
	fence *Fence
}

// State reports the buffer's current lifecycle state. Pending is cleared
// lazily: observing the fence signaled moves the buffer to Completed.
func (c *CommandBuffer) State() State {
	if c.state == StatePending && c.fence != nil && c.fence.Signaled() {
		c.state = StateCompleted
	}
	return c.state
}

// Begin moves Initial or Completed to Recording.
func (c *CommandBuffer) Begin() error {
	return c.begin(core1_0.CommandBufferBeginInfo{})
}

// BeginOneTime is Begin with the one-time-submit hint.
func (c *CommandBuffer) BeginOneTime() error {
	return c.begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
}

func (c *CommandBuffer) begin(info core1_0.CommandBufferBeginInfo) error {
	switch c.State() {
	case StateInitial:
	case StateCompleted:
		if err := c.Reset(); err != nil {
			return err
		}
	default:
		return errors.Mark(
			errors.Newf("gpu: Begin on %s command buffer", c.state), ErrSynchronization)
	}

	_, err := c.raw.Begin(info)
	if err != nil {
		return errors.Wrap(err, "gpu: beginning command buffer")
	}
	c.state = StateRecording
	return nil
}

// Recorder exposes the raw buffer for command recording. Valid only while
// Recording.
func (c *CommandBuffer) Recorder() core1_0.CommandBuffer { return c.raw }

// End moves Recording to Executable.
func (c *CommandBuffer) End() error {
	if c.state != StateRecording {
		return errors.Mark(
			errors.Newf("gpu: End on %s command buffer", c.state), ErrSynchronization)
	}
	_, err := c.raw.End()
	if err != nil {
		return errors.Wrap(err, "gpu: ending command buffer")
	}
	c.state = StateExecutable
	return nil
}

// Submit moves Executable to Pending and returns the fence representing
// completion. The returned fence is owned by the caller; waiting on it moves
// the buffer to Completed.
func (c *CommandBuffer) Submit(waits []core1_0.Semaphore, waitStages []core1_0.PipelineStageFlags, signals []core1_0.Semaphore) (*Fence, error) {
	if c.state != StateExecutable {
		return nil, errors.Mark(
			errors.Newf("gpu: Submit on %s command buffer", c.state), ErrSynchronization)
	}

	fence, err := NewFence(c.pool.device, false)
	if err != nil {
		return nil, err
	}

	_, err = c.pool.queue.Submit(fence.raw, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   waits,
			WaitDstStageMask: waitStages,
			CommandBuffers:   []core1_0.CommandBuffer{c.raw},
			SignalSemaphores: signals,
		},
	})
	if err != nil {
		fence.Destroy()
		return nil, errors.Wrap(err, "gpu: submitting command buffer")
	}

	fence.owner = c
	c.fence = fence
	c.state = StatePending
	return fence, nil
}

// Reset returns a non-Pending buffer to Initial. Resetting a Pending buffer
// is the detectable form of the reuse violation and is refused.
func (c *CommandBuffer) Reset() error {
	if c.State() == StatePending {
		return errors.Mark(
			errors.New("gpu: Reset on Pending command buffer"), ErrSynchronization)
	}
	_, err := c.raw.Reset(0)
	if err != nil {
		return errors.Wrap(err, "gpu: resetting command buffer")
	}
	c.state = StateInitial
	c.fence = nil
	return nil
}

// Free releases the buffer back to the pool.
func (c *CommandBuffer) Free() {
	if c.raw != nil {
		c.raw.Free()
		c.raw = nil
	}
}

// Fence is a CPU-waitable completion signal for one submission.
type Fence struct {
	raw      core1_0.Fence
	owner    *CommandBuffer
	signaled bool
}

// NewFence creates a fence, optionally pre-signaled (frame pacing starts
// with a signaled fence so the first wait falls through).
func NewFence(device core1_0.Device, signaled bool) (*Fence, error) {
	info := core1_0.FenceCreateInfo{}
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}
	raw, _, err := device.CreateFence(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "gpu: creating fence")
	}
	return &Fence{raw: raw, signaled: signaled}, nil
}

// Wait blocks until the GPU signals. On return the owning command buffer is
// Completed and may be reset and re-recorded. Device loss surfaces as
// ErrDeviceLost.
func (f *Fence) Wait() error {
	if f.signaled {
		return nil
	}
	res, err := f.raw.Wait(common.NoTimeout)
	if err != nil {
		if res == core1_0.VKErrorDeviceLost {
			return errors.Mark(err, ErrDeviceLost)
		}
		return errors.Wrap(err, "gpu: waiting on fence")
	}
	f.signaled = true
	if f.owner != nil {
		f.owner.state = StateCompleted
	}
	return nil
}

// Signaled reports completion without blocking.
func (f *Fence) Signaled() bool {
	if f.signaled {
		return true
	}
	if f.raw == nil {
		return false
	}
	res, _ := f.raw.Status()
	if res == core1_0.VKSuccess {
		f.signaled = true
		if f.owner != nil {
			f.owner.state = StateCompleted
		}
	}
	return f.signaled
}

// Reset returns the fence to unsignaled for reuse across frames.
func (f *Fence) Reset() error {
	_, err := f.raw.Reset()
	if err != nil {
		return errors.Wrap(err, "gpu: resetting fence")
	}
	f.signaled = false
	return nil
}

func (f *Fence) Destroy() {
	if f.raw != nil {
		f.raw.Destroy(nil)
		f.raw = nil
	}
}
