package rt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"

	"github.com/hexlattice/prism/ext/khr_acceleration_structure"
	"github.com/hexlattice/prism/gpu"
)

func testGeometry(primitives int) Geometry {
	return Geometry{
		VertexAddress:  0x1000,
		VertexFormat:   core1_0.FormatR32G32B32SignedFloat,
		VertexStride:   12,
		VertexCount:    primitives * 3,
		IndexAddress:   0x2000,
		IndexType:      core1_0.IndexTypeUInt32,
		PrimitiveCount: primitives,
	}
}

func TestBuildBLAS(t *testing.T) {
	builder, ext, alloc, sub := newTestBuilder()

	blas, err := builder.BuildBLAS([]Geometry{testGeometry(2), testGeometry(4)})
	require.NoError(t, err)

	assert.True(t, blas.Built())
	assert.Equal(t, 2, blas.GeometryCount())
	assert.NotZero(t, blas.Address())

	// One recorded build over both geometries, submitted and waited.
	require.Len(t, ext.builds, 1)
	assert.Len(t, ext.builds[0].Geometries, 2)
	assert.Equal(t, 1, sub.calls)
	require.Len(t, ext.buildRanges, 1)
	assert.Equal(t, 2, ext.buildRanges[0][0].PrimitiveCount)
	assert.Equal(t, 4, ext.buildRanges[0][1].PrimitiveCount)

	// Result storage stays alive, scratch went back to the allocator.
	require.Len(t, alloc.allocs, 2)
	assert.False(t, alloc.allocs[0].mem.freed)
	assert.True(t, alloc.allocs[1].mem.freed)
}

func TestBuildBLASRejectsEmptyGeometry(t *testing.T) {
	builder, _, alloc, _ := newTestBuilder()

	_, err := builder.BuildBLAS(nil)
	require.Error(t, err)
	assert.Empty(t, alloc.allocs)
}

func TestBuildTLASSequencesAfterBLAS(t *testing.T) {
	builder, ext, alloc, sub := newTestBuilder()

	blas, err := builder.BuildBLAS([]Geometry{testGeometry(1)})
	require.NoError(t, err)
	blasSubs := sub.calls

	tlas, err := builder.BuildTLAS([]Instance{
		{Structure: blas, Transform: IdentityTransform(), Mask: 0xFF},
		{Structure: blas, Transform: IdentityTransform(), Mask: 0xFF, HitGroup: 1},
	})
	require.NoError(t, err)

	assert.True(t, tlas.Built())
	assert.Equal(t, 2, tlas.InstanceCount())
	assert.NotZero(t, tlas.Address())
	assert.NotEqual(t, blas.Address(), tlas.Address())

	// The BLAS submission completed before any TLAS work started.
	assert.Equal(t, 1, blasSubs)
	assert.Equal(t, 2, sub.calls)
	require.Len(t, ext.builds, 2)
	assert.Equal(t, khr_acceleration_structure.AccelerationStructureTypeBottomLevel, ext.builds[0].Type)
	assert.Equal(t, khr_acceleration_structure.AccelerationStructureTypeTopLevel, ext.builds[1].Type)

	// Instance records carry the BLAS address, and the pointer buffer walks
	// the records at the 64-byte stride.
	host := alloc.hostVisible()
	require.Len(t, host, 2)
	records, pointers := host[0], host[1]

	assert.Equal(t, blas.Address(), common.ByteOrder.Uint64(records.mem.data[56:]))
	assert.Equal(t, blas.Address(), common.ByteOrder.Uint64(records.mem.data[64+56:]))

	require.Equal(t, 16, pointers.size)
	assert.Equal(t, records.addr, common.ByteOrder.Uint64(pointers.mem.data[0:]))
	assert.Equal(t, records.addr+64, common.ByteOrder.Uint64(pointers.mem.data[8:]))
}

func TestBuildTLASRefusesUnbuiltBLAS(t *testing.T) {
	builder, ext, alloc, sub := newTestBuilder()

	_, err := builder.BuildTLAS([]Instance{
		{Structure: &BLAS{}, Transform: IdentityTransform(), Mask: 0xFF},
	})
	require.ErrorIs(t, err, gpu.ErrSynchronization)

	// The violation is caught before any device work.
	assert.Empty(t, alloc.allocs)
	assert.Empty(t, ext.builds)
	assert.Zero(t, sub.calls)
}

func TestBuildTLASRejectsEmptyInstances(t *testing.T) {
	builder, _, alloc, _ := newTestBuilder()

	_, err := builder.BuildTLAS(nil)
	require.Error(t, err)
	assert.Empty(t, alloc.allocs)
}

func TestBLASReleaseDestroysHandle(t *testing.T) {
	builder, ext, _, _ := newTestBuilder()

	blas, err := builder.BuildBLAS([]Geometry{testGeometry(1)})
	require.NoError(t, err)

	blas.Release()
	require.Len(t, ext.created, 1)
	assert.True(t, ext.created[0].destroyed)
}
