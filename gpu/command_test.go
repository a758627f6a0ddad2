package gpu

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/core1_0"
)

func newTestPool(t *testing.T) (*Pool, *fakeDevice, *fakeQueue) {
	t.Helper()
	device := &fakeDevice{}
	queue := &fakeQueue{}
	pool, err := NewPool(device, queue, 0)
	require.NoError(t, err)
	return pool, device, queue
}

func TestCommandBufferLifecycle(t *testing.T) {
	pool, _, queue := newTestPool(t)

	cb, err := pool.Allocate()
	require.NoError(t, err)
	require.Equal(t, StateInitial, cb.State())

	require.NoError(t, cb.Begin())
	require.Equal(t, StateRecording, cb.State())

	require.NoError(t, cb.End())
	require.Equal(t, StateExecutable, cb.State())

	fence, err := cb.Submit(nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, StatePending, cb.State())
	require.Len(t, queue.submissions, 1)

	require.NoError(t, fence.Wait())
	require.Equal(t, StateCompleted, cb.State())

	// A completed buffer begins again through an implicit reset.
	require.NoError(t, cb.Begin())
	require.Equal(t, StateRecording, cb.State())
}

func TestCommandBufferRejectsOutOfOrderTransitions(t *testing.T) {
	pool, _, _ := newTestPool(t)

	cb, err := pool.Allocate()
	require.NoError(t, err)

	err = cb.End()
	require.ErrorIs(t, err, ErrSynchronization)

	_, err = cb.Submit(nil, nil, nil)
	require.ErrorIs(t, err, ErrSynchronization)

	require.NoError(t, cb.Begin())
	err = cb.Begin()
	require.ErrorIs(t, err, ErrSynchronization)
}

func TestCommandBufferResetWhilePendingIsRefused(t *testing.T) {
	pool, _, _ := newTestPool(t)

	cb, err := pool.Allocate()
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	require.NoError(t, cb.End())
	_, err = cb.Submit(nil, nil, nil)
	require.NoError(t, err)

	err = cb.Reset()
	require.ErrorIs(t, err, ErrSynchronization)
	require.Equal(t, StatePending, cb.State())
}

func TestCommandBufferPendingClearsWhenFenceSignals(t *testing.T) {
	pool, _, queue := newTestPool(t)
	queue.signalOnSubmit = true

	cb, err := pool.Allocate()
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	require.NoError(t, cb.End())
	_, err = cb.Submit(nil, nil, nil)
	require.NoError(t, err)

	// No explicit Wait: observing the signaled fence is enough.
	require.Equal(t, StateCompleted, cb.State())
	require.NoError(t, cb.Reset())
	require.Equal(t, StateInitial, cb.State())
}

func TestSubmitPassesSemaphores(t *testing.T) {
	pool, _, queue := newTestPool(t)

	cb, err := pool.Allocate()
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	require.NoError(t, cb.End())

	wait := &fakeSemaphore{}
	signal := &fakeSemaphore{}
	_, err = cb.Submit(
		[]core1_0.Semaphore{wait},
		[]core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
		[]core1_0.Semaphore{signal},
	)
	require.NoError(t, err)

	require.Len(t, queue.submissions, 1)
	info := queue.submissions[0]
	require.Equal(t, []core1_0.Semaphore{wait}, info.WaitSemaphores)
	require.Equal(t, []core1_0.Semaphore{signal}, info.SignalSemaphores)
	require.Len(t, info.CommandBuffers, 1)
}

func TestPoolSingleRunsToCompletion(t *testing.T) {
	pool, device, queue := newTestPool(t)

	recorded := false
	err := pool.Single(func(cb core1_0.CommandBuffer) error {
		recorded = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, recorded)
	require.Len(t, queue.submissions, 1)

	// The single-shot fence was waited on and destroyed.
	require.Len(t, device.fences, 1)
	require.Equal(t, 1, device.fences[0].waits)
	require.True(t, device.fences[0].destroyed)
}

func TestFenceSignaledDoesNotBlock(t *testing.T) {
	device := &fakeDevice{}

	fence, err := NewFence(device, true)
	require.NoError(t, err)
	require.True(t, fence.Signaled())

	// Wait on a pre-signaled fence returns without touching the driver.
	require.NoError(t, fence.Wait())
	require.Equal(t, 0, device.fences[0].waits)
}
