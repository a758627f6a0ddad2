package rt

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/common"

	"github.com/hexlattice/prism/gpu"
)

func TestTransformFromMat4(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	tf := TransformFromMat4(m)

	assert.Equal(t, float32(1), tf[0][0])
	assert.Equal(t, float32(1), tf[0][3])
	assert.Equal(t, float32(2), tf[1][3])
	assert.Equal(t, float32(3), tf[2][3])

	assert.Equal(t, IdentityTransform(), TransformFromMat4(mgl32.Ident4()))
}

func TestEncodeInstancesLayout(t *testing.T) {
	blas := &BLAS{address: 0xabcdef12345, built: true}

	records, err := encodeInstances([]Instance{
		{
			Structure:   blas,
			Transform:   IdentityTransform(),
			Mask:        0xFF,
			HitGroup:    3,
			CustomIndex: 7,
		},
	})
	require.NoError(t, err)
	require.Len(t, records, instanceRecordSize)

	// Identity transform: ones at [0][0], [1][1], [2][2] of the 3x4 block.
	one := common.ByteOrder.Uint32(records[0:])
	assert.Equal(t, uint32(0x3f800000), one)
	assert.Equal(t, uint32(0x3f800000), common.ByteOrder.Uint32(records[5*4:]))
	assert.Equal(t, uint32(0x3f800000), common.ByteOrder.Uint32(records[10*4:]))

	packed := common.ByteOrder.Uint32(records[48:])
	assert.Equal(t, uint32(7), packed&0x00FFFFFF)
	assert.Equal(t, uint32(0xFF), packed>>24)

	sbtPacked := common.ByteOrder.Uint32(records[52:])
	assert.Equal(t, uint32(3), sbtPacked&0x00FFFFFF)

	assert.Equal(t, uint64(0xabcdef12345), common.ByteOrder.Uint64(records[56:]))
}

func TestEncodeInstancesTwoRecords(t *testing.T) {
	a := &BLAS{address: 0x1000, built: true}
	b := &BLAS{address: 0x2000, built: true}

	records, err := encodeInstances([]Instance{
		{Structure: a, Transform: IdentityTransform(), Mask: 0xFF},
		{Structure: b, Transform: IdentityTransform(), Mask: 0x0F},
	})
	require.NoError(t, err)
	require.Len(t, records, 2*instanceRecordSize)

	assert.Equal(t, uint64(0x1000), common.ByteOrder.Uint64(records[56:]))
	assert.Equal(t, uint64(0x2000), common.ByteOrder.Uint64(records[64+56:]))
}

func TestEncodeInstancesRefusesUnbuiltBLAS(t *testing.T) {
	_, err := encodeInstances([]Instance{
		{Structure: &BLAS{}, Transform: IdentityTransform(), Mask: 0xFF},
	})
	require.ErrorIs(t, err, gpu.ErrSynchronization)

	_, err = encodeInstances([]Instance{
		{Structure: nil, Transform: IdentityTransform(), Mask: 0xFF},
	})
	require.ErrorIs(t, err, gpu.ErrSynchronization)
}

func TestNewGeometryRequiresDeviceAddresses(t *testing.T) {
	mem := &sliceMemory{data: make([]byte, 4)}
	plain := gpu.NewBuffer(&fakeRawBuffer{}, mem, 4, 0, gpu.DeviceOnly, 0)
	addressed := gpu.NewBuffer(&fakeRawBuffer{}, mem, 4, 0, gpu.DeviceOnly, 0x4000)

	_, err := NewGeometry(plain, addressed, 0, 12, 3, 0, 0, 0, 1)
	require.ErrorIs(t, err, gpu.ErrInvalidAccess)

	geom, err := NewGeometry(addressed, addressed, 0, 12, 3, 0, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x4000), geom.VertexAddress)
	assert.Equal(t, uint64(0x4000), geom.IndexAddress)
}
