package scene

import (
	"bytes"
	"image"
	imagecolor "image/color"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/core1_0"

	"github.com/hexlattice/prism/gpu"
	"github.com/hexlattice/prism/rt"
)

type fakeBuffer struct {
	addr     uint64
	released bool
}

func (b *fakeBuffer) DeviceAddress() (uint64, error) { return b.addr, nil }
func (b *fakeBuffer) Release()                       { b.released = true }

type fakeTexture struct {
	released bool
}

func (t *fakeTexture) Release() { t.released = true }

type fakeDevice struct {
	uploads  []*fakeBuffer
	textures []*fakeTexture
	blas     [][]rt.Geometry
	tlas     [][]rt.Instance
	nextAddr uint64
}

func (d *fakeDevice) UploadGeometry(data []byte) (Buffer, error) {
	d.nextAddr += 0x100000
	buf := &fakeBuffer{addr: d.nextAddr}
	d.uploads = append(d.uploads, buf)
	return buf, nil
}

func (d *fakeDevice) UploadTexture(rgba *image.RGBA) (Texture, error) {
	tex := &fakeTexture{}
	d.textures = append(d.textures, tex)
	return tex, nil
}

func (d *fakeDevice) BuildBLAS(geoms []rt.Geometry) (*rt.BLAS, error) {
	d.blas = append(d.blas, geoms)
	return &rt.BLAS{}, nil
}

func (d *fakeDevice) BuildTLAS(instances []rt.Instance) (*rt.TLAS, error) {
	d.tlas = append(d.tlas, instances)
	return &rt.TLAS{}, nil
}

func (d *fakeDevice) deviceCalls() int {
	return len(d.uploads) + len(d.textures) + len(d.blas) + len(d.tlas)
}

func vec3Positions(buffer, offset, count int) Accessor {
	return Accessor{
		Buffer:    buffer,
		Offset:    offset,
		Count:     count,
		Component: ComponentFloat32,
		Element:   ElementVec3,
	}
}

func scalarIndices(buffer, offset, count int) Accessor {
	return Accessor{
		Buffer:    buffer,
		Offset:    offset,
		Count:     count,
		Component: ComponentUInt32,
		Element:   ElementScalar,
	}
}

func singleMeshDoc() *Document {
	return &Document{
		Scenes: []TopScene{{Roots: []int{0}}},
		Nodes: []Node{
			{Name: "root", Mesh: 0, Transform: mgl32.Ident4()},
		},
		Meshes: []Mesh{
			{
				Name: "mesh",
				Primitives: []Primitive{
					{Positions: vec3Positions(0, 0, 9), Indices: scalarIndices(1, 0, 9)},
					{Positions: vec3Positions(0, 108, 6), Indices: scalarIndices(1, 36, 6)},
				},
			},
		},
		Buffers: [][]byte{make([]byte, 256), make([]byte, 64)},
	}
}

func TestAssembleSingleMeshTwoPrimitives(t *testing.T) {
	dev := &fakeDevice{}
	result, err := NewAssembler(dev).Assemble(singleMeshDoc())
	require.NoError(t, err)

	// Each raw block uploaded exactly once.
	require.Len(t, dev.uploads, 2)

	// One BLAS for the mesh with one geometry per primitive.
	require.Len(t, dev.blas, 1)
	geoms := dev.blas[0]
	require.Len(t, geoms, 2)

	posAddr := dev.uploads[0].addr
	idxAddr := dev.uploads[1].addr
	assert.Equal(t, posAddr, geoms[0].VertexAddress)
	assert.Equal(t, posAddr+108, geoms[1].VertexAddress)
	assert.Equal(t, idxAddr, geoms[0].IndexAddress)
	assert.Equal(t, idxAddr+36, geoms[1].IndexAddress)
	assert.Equal(t, core1_0.FormatR32G32B32SignedFloat, geoms[0].VertexFormat)
	assert.Equal(t, core1_0.IndexTypeUInt32, geoms[0].IndexType)
	assert.Equal(t, 3, geoms[0].PrimitiveCount)
	assert.Equal(t, 2, geoms[1].PrimitiveCount)
	assert.Equal(t, 12, geoms[0].VertexStride)

	// One TLAS over the single placed instance.
	require.Len(t, dev.tlas, 1)
	require.Len(t, dev.tlas[0], 1)
	assert.Equal(t, uint8(0xFF), dev.tlas[0][0].Mask)

	assert.Equal(t, 1, result.InstanceCount)
	assert.Len(t, result.BLAS, 1)
	assert.NotNil(t, result.TLAS)
}

func TestAssembleRejectsWrongSceneCount(t *testing.T) {
	dev := &fakeDevice{}
	asm := NewAssembler(dev)

	doc := singleMeshDoc()
	doc.Scenes = nil
	_, err := asm.Assemble(doc)
	require.ErrorIs(t, err, gpu.ErrUnsupportedSceneTopology)

	doc = singleMeshDoc()
	doc.Scenes = append(doc.Scenes, TopScene{})
	_, err = asm.Assemble(doc)
	require.ErrorIs(t, err, gpu.ErrUnsupportedSceneTopology)

	// Rejected before anything touched the device.
	assert.Zero(t, dev.deviceCalls())
}

func TestAssembleRejectsUnsupportedAccessors(t *testing.T) {
	dev := &fakeDevice{}
	asm := NewAssembler(dev)

	doc := singleMeshDoc()
	doc.Meshes[0].Primitives[0].Positions.Element = ElementVec2
	_, err := asm.Assemble(doc)
	require.ErrorIs(t, err, gpu.ErrUnsupportedFormat)

	doc = singleMeshDoc()
	doc.Meshes[0].Primitives[1].Indices.Component = ComponentInt8
	_, err = asm.Assemble(doc)
	require.ErrorIs(t, err, gpu.ErrUnsupportedFormat)

	assert.Zero(t, dev.deviceCalls())
}

func TestAssembleRejectsOutOfRangeBufferIndex(t *testing.T) {
	for _, mutate := range []func(*Document){
		func(doc *Document) { doc.Meshes[0].Primitives[0].Positions.Buffer = 7 },
		func(doc *Document) { doc.Meshes[0].Primitives[0].Positions.Buffer = -1 },
		func(doc *Document) { doc.Meshes[0].Primitives[0].Indices.Buffer = -1 },
	} {
		dev := &fakeDevice{}
		doc := singleMeshDoc()
		mutate(doc)

		_, err := NewAssembler(dev).Assemble(doc)
		require.ErrorIs(t, err, gpu.ErrUnsupportedFormat)

		// Nothing was built, and the failed assembly released its uploads.
		assert.Empty(t, dev.blas)
		for _, buf := range dev.uploads {
			assert.True(t, buf.released)
		}
	}
}

func TestAssembleRejectsNonTriangleIndexCount(t *testing.T) {
	dev := &fakeDevice{}
	doc := singleMeshDoc()
	doc.Meshes[0].Primitives[0].Indices.Count = 7

	_, err := NewAssembler(dev).Assemble(doc)
	require.ErrorIs(t, err, gpu.ErrUnsupportedFormat)
}

func TestAssembleAccumulatesTransforms(t *testing.T) {
	doc := singleMeshDoc()
	doc.Nodes = []Node{
		{Name: "group", Mesh: -1, Children: []int{1}, Transform: mgl32.Translate3D(1, 2, 3)},
		{Name: "leaf", Mesh: 0, Transform: mgl32.Translate3D(10, 0, 0)},
	}
	doc.Scenes = []TopScene{{Roots: []int{0}}}

	dev := &fakeDevice{}
	result, err := NewAssembler(dev).Assemble(doc)
	require.NoError(t, err)
	require.Equal(t, 1, result.InstanceCount)

	tf := dev.tlas[0][0].Transform
	assert.Equal(t, float32(11), tf[0][3])
	assert.Equal(t, float32(2), tf[1][3])
	assert.Equal(t, float32(3), tf[2][3])
}

func TestAssembleAppliesHitGroupPolicy(t *testing.T) {
	doc := singleMeshDoc()
	doc.Nodes = append(doc.Nodes, Node{Name: "second", Mesh: 0, Transform: mgl32.Ident4()})
	doc.Scenes[0].Roots = []int{0, 1}

	dev := &fakeDevice{}
	asm := NewAssembler(dev)
	asm.HitVariants = 4
	asm.Policy = func(node, mesh, variants int) int {
		assert.Equal(t, 4, variants)
		return node
	}

	_, err := asm.Assemble(doc)
	require.NoError(t, err)

	require.Len(t, dev.tlas[0], 2)
	assert.Equal(t, 0, dev.tlas[0][0].HitGroup)
	assert.Equal(t, 1, dev.tlas[0][1].HitGroup)
}

func TestAssembleSkipsTLASWithoutInstances(t *testing.T) {
	doc := singleMeshDoc()
	doc.Nodes[0].Mesh = -1

	dev := &fakeDevice{}
	result, err := NewAssembler(dev).Assemble(doc)
	require.NoError(t, err)

	assert.Empty(t, dev.tlas)
	assert.Nil(t, result.TLAS)
	assert.Zero(t, result.InstanceCount)
}

func TestAssembleDecodesImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, imagecolor.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	doc := singleMeshDoc()
	doc.Images = [][]byte{buf.Bytes()}

	dev := &fakeDevice{}
	result, err := NewAssembler(dev).Assemble(doc)
	require.NoError(t, err)
	require.Len(t, dev.textures, 1)
	require.Len(t, result.Textures, 1)
}

func TestAssembleRejectsUndecodableImage(t *testing.T) {
	doc := singleMeshDoc()
	doc.Images = [][]byte{[]byte("not an image")}

	dev := &fakeDevice{}
	_, err := NewAssembler(dev).Assemble(doc)
	require.ErrorIs(t, err, gpu.ErrUnsupportedFormat)

	// The failed assembly released what it had uploaded.
	for _, buf := range dev.uploads {
		assert.True(t, buf.released)
	}
}

func TestResultReleaseDropsEverything(t *testing.T) {
	dev := &fakeDevice{}
	result, err := NewAssembler(dev).Assemble(singleMeshDoc())
	require.NoError(t, err)

	result.Release()
	for _, buf := range dev.uploads {
		assert.True(t, buf.released)
	}
	assert.Nil(t, result.TLAS)
	assert.Empty(t, result.BLAS)
}

func TestAssembleRejectsCyclicHierarchy(t *testing.T) {
	doc := singleMeshDoc()
	doc.Nodes = []Node{
		{Name: "a", Mesh: -1, Children: []int{1}, Transform: mgl32.Ident4()},
		{Name: "b", Mesh: -1, Children: []int{0}, Transform: mgl32.Ident4()},
	}
	doc.Scenes = []TopScene{{Roots: []int{0}}}

	_, err := NewAssembler(&fakeDevice{}).Assemble(doc)
	require.ErrorIs(t, err, gpu.ErrUnsupportedSceneTopology)
}
