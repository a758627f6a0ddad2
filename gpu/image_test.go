package gpu

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/core1_0"
)

func newTestImage(sub *fakeSubmitter) (*Image, *fakeRawImage, *fakeMemory) {
	raw := &fakeRawImage{}
	mem := newFakeMemory(0)
	img := NewImage(raw, mem, core1_0.FormatR8G8B8A8UnsignedNormalized,
		core1_0.Extent2D{Width: 4, Height: 4}, core1_0.ImageUsageSampled, DeviceOnly, sub)
	return img, raw, mem
}

func TestImageSetLayoutTransitions(t *testing.T) {
	sub := &fakeSubmitter{}
	img, _, _ := newTestImage(sub)
	require.Equal(t, core1_0.ImageLayoutUndefined, img.Layout())

	require.NoError(t, img.SetLayout(core1_0.ImageLayoutTransferDstOptimal))
	require.Equal(t, core1_0.ImageLayoutTransferDstOptimal, img.Layout())
	require.Equal(t, 1, sub.calls)

	require.Len(t, sub.last.barriers, 1)
	barrier := sub.last.barriers[0]
	require.Equal(t, core1_0.ImageLayoutUndefined, barrier.OldLayout)
	require.Equal(t, core1_0.ImageLayoutTransferDstOptimal, barrier.NewLayout)
}

func TestImageSetLayoutSameLayoutIsNoop(t *testing.T) {
	sub := &fakeSubmitter{}
	img, _, _ := newTestImage(sub)

	require.NoError(t, img.SetLayout(core1_0.ImageLayoutGeneral))
	require.NoError(t, img.SetLayout(core1_0.ImageLayoutGeneral))
	require.Equal(t, 1, sub.calls)
}

func TestImageSetLayoutFailureKeepsState(t *testing.T) {
	sub := &fakeSubmitter{fail: ErrSynchronization}
	img, _, _ := newTestImage(sub)

	err := img.SetLayout(core1_0.ImageLayoutGeneral)
	require.Error(t, err)
	require.Equal(t, core1_0.ImageLayoutUndefined, img.Layout())
}

func TestImageReleaseFreesOnLastOwner(t *testing.T) {
	img, raw, mem := newTestImage(&fakeSubmitter{})

	img.Retain()
	img.Release()
	require.False(t, raw.destroyed)

	img.Release()
	require.True(t, raw.destroyed)
	require.True(t, mem.freed)
}
