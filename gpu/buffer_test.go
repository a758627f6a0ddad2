package gpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferCopyFromReadBackRoundTrip(t *testing.T) {
	mem := newFakeMemory(16)
	buf := NewBuffer(&fakeRawBuffer{}, mem, 16, 0, HostVisible, 0)

	payload := []byte("twelve bytes")
	require.NoError(t, buf.CopyFrom(payload))
	require.Equal(t, 1, mem.flushes)

	out := make([]byte, len(payload))
	require.NoError(t, buf.ReadBack(out))
	require.Equal(t, payload, out)
	require.Equal(t, 1, mem.invalidates)
	require.False(t, mem.mapped)
}

func TestBufferHostAccessRequiresHostVisible(t *testing.T) {
	buf := NewBuffer(&fakeRawBuffer{}, newFakeMemory(16), 16, 0, DeviceOnly, 0)

	err := buf.CopyFrom([]byte{1})
	require.ErrorIs(t, err, ErrInvalidAccess)

	err = buf.ReadBack(make([]byte, 1))
	require.ErrorIs(t, err, ErrInvalidAccess)
}

func TestBufferCopyFromRejectsOverflow(t *testing.T) {
	buf := NewBuffer(&fakeRawBuffer{}, newFakeMemory(4), 4, 0, HostVisible, 0)

	err := buf.CopyFrom(make([]byte, 5))
	require.ErrorIs(t, err, ErrInvalidAccess)
}

func TestBufferDeviceAddress(t *testing.T) {
	with := NewBuffer(&fakeRawBuffer{}, newFakeMemory(4), 4, 0, DeviceOnly, 0xdead0000)
	addr, err := with.DeviceAddress()
	require.NoError(t, err)
	require.Equal(t, uint64(0xdead0000), addr)

	// The address never changes over the buffer's lifetime.
	again, err := with.DeviceAddress()
	require.NoError(t, err)
	require.Equal(t, addr, again)

	without := NewBuffer(&fakeRawBuffer{}, newFakeMemory(4), 4, 0, DeviceOnly, 0)
	_, err = without.DeviceAddress()
	require.ErrorIs(t, err, ErrInvalidAccess)
}

func TestBufferReleaseFreesOnLastOwner(t *testing.T) {
	raw := &fakeRawBuffer{}
	mem := newFakeMemory(4)
	buf := NewBuffer(raw, mem, 4, 0, HostVisible, 0)

	buf.Retain()
	buf.Release()
	require.False(t, raw.destroyed)
	require.False(t, mem.freed)

	buf.Release()
	require.True(t, raw.destroyed)
	require.True(t, mem.freed)
}
