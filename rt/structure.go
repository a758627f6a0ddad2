package rt

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v2/common"

	"github.com/hexlattice/prism/ext/khr_acceleration_structure"
	"github.com/hexlattice/prism/gpu"
)

// TransformMatrix is the 3x4 row-major instance transform the device
// consumes.
type TransformMatrix [3][4]float32

// IdentityTransform returns the no-op placement.
func IdentityTransform() TransformMatrix {
	return TransformMatrix{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
}

// TransformFromMat4 drops the last row of a column-major 4x4 world
// transform into the device's row-major 3x4 layout.
func TransformFromMat4(m mgl32.Mat4) TransformMatrix {
	var t TransformMatrix
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			t[row][col] = m.At(row, col)
		}
	}
	return t
}

// BLAS is a bottom-level acceleration structure over one mesh. Built once
// and immutable afterward; there is no refit. Rebuilding a mesh produces a
// new BLAS, and any TLAS referencing the old one is invalidated.
type BLAS struct {
	handle  khr_acceleration_structure.AccelerationStructure
	buffer  *gpu.Buffer
	address uint64
	geoms   []Geometry
	built   bool
}

// Address is the structure's device address, used as the non-owning
// back-reference in instance records. Valid while the BLAS is alive.
func (b *BLAS) Address() uint64 { return b.address }

// Built reports whether the build fence has signaled. TLAS builds refuse
// instances whose BLAS is not built.
func (b *BLAS) Built() bool { return b.built }

// GeometryCount reports how many geometries the structure was built from.
func (b *BLAS) GeometryCount() int { return len(b.geoms) }

// Release destroys the structure and drops its result buffer reference.
// The caller must ensure no TLAS referencing this BLAS is still in use.
func (b *BLAS) Release() {
	if b.handle != nil {
		b.handle.Destroy(nil)
		b.handle = nil
	}
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

// Instance places a BLAS in the scene. It holds a non-owning reference: the
// scene must keep every referenced BLAS alive at least as long as the TLAS
// built from these instances.
type Instance struct {
	Structure *BLAS
	Transform TransformMatrix
	// Mask is the visibility mask tested against the ray's cull mask.
	Mask uint8
	// HitGroup selects the shader-table record for this instance.
	HitGroup int
	// CustomIndex is the 24-bit application index exposed to shaders.
	CustomIndex int
}

const instanceRecordSize = 64

// encodeInstances packs instances into the device's 64-byte record layout.
// Refuses instances whose BLAS has no signaled build fence — that is the
// detectable half of the build-before-reference invariant.
func encodeInstances(instances []Instance) ([]byte, error) {
	buf := &bytes.Buffer{}
	for idx, inst := range instances {
		if inst.Structure == nil || !inst.Structure.Built() {
			return nil, errors.Mark(
				errors.Newf("rt: instance %d references an unbuilt BLAS", idx), gpu.ErrSynchronization)
		}

		// binary.Write into a bytes.Buffer cannot fail.
		for row := 0; row < 3; row++ {
			for col := 0; col < 4; col++ {
				binary.Write(buf, common.ByteOrder, inst.Transform[row][col])
			}
		}

		packed := uint32(inst.CustomIndex)&0x00FFFFFF | uint32(inst.Mask)<<24
		binary.Write(buf, common.ByteOrder, packed)
		// Record offset in the low 24 bits; instance flags stay zero.
		binary.Write(buf, common.ByteOrder, uint32(inst.HitGroup)&0x00FFFFFF)
		binary.Write(buf, common.ByteOrder, inst.Structure.Address())
	}
	return buf.Bytes(), nil
}

// TLAS is the scene-wide top-level acceleration structure. Immutable after
// build.
type TLAS struct {
	handle        khr_acceleration_structure.AccelerationStructure
	buffer        *gpu.Buffer
	address       uint64
	instanceCount int
	built         bool
}

func (t *TLAS) Address() uint64    { return t.address }
func (t *TLAS) Built() bool        { return t.built }
func (t *TLAS) InstanceCount() int { return t.instanceCount }

// Handle exposes the structure for descriptor binding.
func (t *TLAS) Handle() khr_acceleration_structure.AccelerationStructure { return t.handle }

func (t *TLAS) Release() {
	if t.handle != nil {
		t.handle.Destroy(nil)
		t.handle = nil
	}
	if t.buffer != nil {
		t.buffer.Release()
		t.buffer = nil
	}
}
