package present

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/core1_0"

	"github.com/hexlattice/prism/gpu"
)

func newTestSync(t *testing.T) (*Synchronizer, *fakeFactory, *fakeQueue) {
	t.Helper()
	device := &fakeDevice{}
	queue := &fakeQueue{}
	pool, err := gpu.NewPool(device, queue, 0)
	require.NoError(t, err)

	factory := &fakeFactory{}
	sync, err := NewSynchronizer(device, pool, factory)
	require.NoError(t, err)
	t.Cleanup(sync.Destroy)
	return sync, factory, queue
}

func TestFrameRecordsSubmitsPresents(t *testing.T) {
	sync, factory, queue := newTestSync(t)

	var got Frame
	err := sync.Frame(func(cb core1_0.CommandBuffer, frame Frame) error {
		got = frame
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, core1_0.Extent2D{Width: 640, Height: 480}, got.Extent)
	assert.Zero(t, got.AccumulatedSamples)
	assert.Equal(t, 1, queue.submits)
	assert.Equal(t, 1, factory.chains[0].presents)
	assert.Equal(t, uint64(1), sync.Frames())
}

func TestFrameCarriesAccumulatedSamples(t *testing.T) {
	sync, _, _ := newTestSync(t)

	render := func(cb core1_0.CommandBuffer, frame Frame) error { return nil }

	require.NoError(t, sync.Frame(render))
	sync.AddSamples(4)
	require.NoError(t, sync.Frame(render))
	sync.AddSamples(4)
	assert.Equal(t, uint32(8), sync.AccumulatedSamples())

	var seen uint32
	require.NoError(t, sync.Frame(func(cb core1_0.CommandBuffer, frame Frame) error {
		seen = frame.AccumulatedSamples
		return nil
	}))
	assert.Equal(t, uint32(8), seen)
}

func TestFrameSkipsAndRecreatesOnAcquireOutdated(t *testing.T) {
	sync, factory, queue := newTestSync(t)
	sync.AddSamples(16)

	factory.chains[0].acquireOutdated = true
	factory.extent = core1_0.Extent2D{Width: 800, Height: 600}

	recorded := false
	err := sync.Frame(func(cb core1_0.CommandBuffer, frame Frame) error {
		recorded = true
		return nil
	})
	require.NoError(t, err)

	// Nothing rendered; a fresh chain replaced the stale one and the
	// accumulation restarted from zero.
	assert.False(t, recorded)
	assert.Zero(t, queue.submits)
	require.Len(t, factory.chains, 2)
	assert.True(t, factory.chains[0].destroyed)
	assert.Zero(t, sync.AccumulatedSamples())
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, sync.Extent())
}

func TestFrameRecreatesAfterPresentOutdated(t *testing.T) {
	sync, factory, queue := newTestSync(t)
	sync.AddSamples(9)

	factory.chains[0].presentOutdated = true

	rendered := false
	err := sync.Frame(func(cb core1_0.CommandBuffer, frame Frame) error {
		rendered = true
		return nil
	})
	require.NoError(t, err)

	// The frame itself still rendered and presented, then the chain was
	// replaced for the next one.
	assert.True(t, rendered)
	assert.Equal(t, 1, queue.submits)
	require.Len(t, factory.chains, 2)
	assert.True(t, factory.chains[0].destroyed)
	assert.Zero(t, sync.AccumulatedSamples())
}

func TestFrameRecoversAfterRecordFailure(t *testing.T) {
	sync, _, queue := newTestSync(t)

	boom := errors.New("descriptor set not ready")
	err := sync.Frame(func(cb core1_0.CommandBuffer, frame Frame) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, queue.submits)

	// The abandoned buffer went back to Initial, so the next frame's Begin
	// is accepted and the loop keeps going.
	require.NoError(t, sync.Frame(func(cb core1_0.CommandBuffer, frame Frame) error {
		return nil
	}))
	assert.Equal(t, 1, queue.submits)
	assert.Equal(t, uint64(1), sync.Frames())
}

func TestConsecutiveFramesReuseTheBuffer(t *testing.T) {
	sync, _, queue := newTestSync(t)

	render := func(cb core1_0.CommandBuffer, frame Frame) error { return nil }
	for i := 0; i < 3; i++ {
		require.NoError(t, sync.Frame(render))
	}
	assert.Equal(t, 3, queue.submits)
	assert.Equal(t, uint64(3), sync.Frames())
}
