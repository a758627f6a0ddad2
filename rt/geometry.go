// Package rt assembles hardware ray-tracing acceleration structures:
// per-mesh bottom-level structures over device-resident triangle geometry
// and one scene-wide top-level structure over placed instances.
package rt

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"

	"github.com/hexlattice/prism/gpu"
)

// Geometry describes one triangle range inside device-resident vertex and
// index buffers. All fields are captured once and immutable; the addresses
// are weak references, so the source buffers must outlive every structure
// built from this geometry.
type Geometry struct {
	VertexAddress uint64
	VertexOffset  int
	VertexFormat  core1_0.Format
	VertexStride  int
	VertexCount   int

	IndexAddress uint64
	IndexOffset  int
	IndexType    core1_0.IndexType

	PrimitiveCount int
}

// NewGeometry captures a geometry from its buffers. Both buffers must carry
// device addresses; the capture fails otherwise.
func NewGeometry(vertices, indices *gpu.Buffer, vertexOffset, vertexStride, vertexCount int, vertexFormat core1_0.Format, indexOffset int, indexType core1_0.IndexType, primitiveCount int) (Geometry, error) {
	vertexAddr, err := vertices.DeviceAddress()
	if err != nil {
		return Geometry{}, errors.Wrap(err, "rt: vertex buffer")
	}
	indexAddr, err := indices.DeviceAddress()
	if err != nil {
		return Geometry{}, errors.Wrap(err, "rt: index buffer")
	}

	return Geometry{
		VertexAddress:  vertexAddr,
		VertexOffset:   vertexOffset,
		VertexFormat:   vertexFormat,
		VertexStride:   vertexStride,
		VertexCount:    vertexCount,
		IndexAddress:   indexAddr,
		IndexOffset:    indexOffset,
		IndexType:      indexType,
		PrimitiveCount: primitiveCount,
	}, nil
}
