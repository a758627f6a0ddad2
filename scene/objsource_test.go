package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `mtllib quad.mtl
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
usemtl flat
f 1 2 3 4
`

const quadMTL = `newmtl flat
Kd 0.8 0.8 0.8
`

func writeQuadFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	objPath := filepath.Join(dir, "quad.obj")
	mtlPath := filepath.Join(dir, "quad.mtl")
	require.NoError(t, os.WriteFile(objPath, []byte(quadOBJ), 0o644))
	require.NoError(t, os.WriteFile(mtlPath, []byte(quadMTL), 0o644))
	return objPath, mtlPath
}

func TestOBJSourceTriangulatesQuad(t *testing.T) {
	objPath, mtlPath := writeQuadFiles(t)

	src := &OBJSource{Path: objPath, MaterialPath: mtlPath}
	doc, err := src.Document()
	require.NoError(t, err)

	// One scene, one mesh, one node pointing at it.
	require.Len(t, doc.Scenes, 1)
	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, 0, doc.Nodes[0].Mesh)

	require.Len(t, doc.Meshes[0].Primitives, 1)
	prim := doc.Meshes[0].Primitives[0]

	// The quad fans into two triangles over four unique vertices.
	assert.Equal(t, 4, prim.Positions.Count)
	assert.Equal(t, 6, prim.Indices.Count)
	assert.Equal(t, ComponentFloat32, prim.Positions.Component)
	assert.Equal(t, ElementVec3, prim.Positions.Element)
	assert.Equal(t, ComponentUInt32, prim.Indices.Component)

	// Blocks are sized to the accessors: vec3 positions, uint32 indices.
	require.Len(t, doc.Buffers, 2)
	assert.Len(t, doc.Buffers[prim.Positions.Buffer], 4*12)
	assert.Len(t, doc.Buffers[prim.Indices.Buffer], 6*4)
}

func TestOBJSourceDocumentPassesAssemblerValidation(t *testing.T) {
	objPath, mtlPath := writeQuadFiles(t)

	doc, err := (&OBJSource{Path: objPath, MaterialPath: mtlPath}).Document()
	require.NoError(t, err)

	dev := &fakeDevice{}
	result, err := NewAssembler(dev).Assemble(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, result.InstanceCount)
	require.Len(t, dev.blas, 1)
	assert.Equal(t, 2, dev.blas[0][0].PrimitiveCount)
}

func TestOBJSourceMissingFile(t *testing.T) {
	_, err := (&OBJSource{Path: "/does/not/exist.obj"}).Document()
	require.Error(t, err)
}
