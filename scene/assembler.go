package scene

import (
	"bytes"
	"image"
	"image/draw"

	// Register the decoders the collaborator's raw image blocks may use.
	_ "image/jpeg"
	_ "image/png"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/sync/errgroup"

	"github.com/hexlattice/prism/gpu"
	"github.com/hexlattice/prism/logx"
	"github.com/hexlattice/prism/rt"
)

// Buffer is an uploaded geometry block. Uploaded once per document block;
// the assembly result keeps it alive for as long as structures reference
// its addresses.
type Buffer interface {
	DeviceAddress() (uint64, error)
	Release()
}

// Texture is an uploaded image block.
type Texture interface {
	Release()
}

// Device is the assembler's view of the GPU layer. GPUDevice is the
// production implementation.
type Device interface {
	UploadGeometry(data []byte) (Buffer, error)
	UploadTexture(rgba *image.RGBA) (Texture, error)
	BuildBLAS(geoms []rt.Geometry) (*rt.BLAS, error)
	BuildTLAS(instances []rt.Instance) (*rt.TLAS, error)
}

// Result owns everything the assembly produced. The TLAS holds only weak
// device-address references to the BLASes, and the BLASes to the geometry
// buffers, so Result is the lifetime anchor: release it only when the GPU
// is done with the scene.
type Result struct {
	TLAS     *rt.TLAS
	BLAS     []*rt.BLAS
	Buffers  []Buffer
	Textures []Texture

	InstanceCount int
}

// Release drops everything, structures before the geometry they reference.
func (r *Result) Release() {
	if r.TLAS != nil {
		r.TLAS.Release()
		r.TLAS = nil
	}
	for _, b := range r.BLAS {
		b.Release()
	}
	r.BLAS = nil
	for _, b := range r.Buffers {
		b.Release()
	}
	r.Buffers = nil
	for _, t := range r.Textures {
		t.Release()
	}
	r.Textures = nil
}

// Assembler drives the builder from a parsed document.
type Assembler struct {
	dev Device
	// Policy picks the shader-table record per instance.
	Policy HitGroupPolicy
	// HitVariants is how many hit-group variants the pipeline carries.
	HitVariants int
	// VisibilityMask is stamped on every emitted instance.
	VisibilityMask uint8
}

// NewAssembler returns an assembler with the default uniform-random
// material policy.
func NewAssembler(dev Device) *Assembler {
	return &Assembler{
		dev:            dev,
		Policy:         RandomHitGroups(0),
		HitVariants:    1,
		VisibilityMask: 0xFF,
	}
}

// Assemble uploads the document's raw blocks, builds one BLAS per mesh and
// one TLAS over all placed instances.
//
// A document with zero or more than one top-level scene fails with
// ErrUnsupportedSceneTopology before anything is uploaded or built. An
// accessor of unsupported component type or dimensionality fails with
// ErrUnsupportedFormat, likewise before any device work.
func (a *Assembler) Assemble(doc *Document) (*Result, error) {
	if len(doc.Scenes) != 1 {
		return nil, errors.Mark(
			errors.Newf("scene: document holds %d top-level scenes", len(doc.Scenes)),
			gpu.ErrUnsupportedSceneTopology)
	}

	// Validate every accessor up front so nothing is allocated for a
	// document that cannot be imported.
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			if _, err := vertexFormat(prim.Positions); err != nil {
				return nil, errors.Wrapf(err, "scene: mesh %d primitive %d positions", mi, pi)
			}
			if _, err := indexType(prim.Indices); err != nil {
				return nil, errors.Wrapf(err, "scene: mesh %d primitive %d indices", mi, pi)
			}
		}
	}

	result := &Result{}
	fail := func(err error) (*Result, error) {
		result.Release()
		return nil, err
	}

	// 1. Upload each raw block once.
	for _, block := range doc.Buffers {
		buf, err := a.dev.UploadGeometry(block)
		if err != nil {
			return fail(errors.Wrap(err, "scene: uploading buffer block"))
		}
		result.Buffers = append(result.Buffers, buf)
	}

	textures, err := a.uploadImages(doc)
	if err != nil {
		return fail(err)
	}
	result.Textures = textures

	// 2. One BLAS per mesh, one geometry per primitive.
	for mi, mesh := range doc.Meshes {
		geoms := make([]rt.Geometry, 0, len(mesh.Primitives))
		for _, prim := range mesh.Primitives {
			g, err := a.geometry(result.Buffers, prim)
			if err != nil {
				return fail(err)
			}
			geoms = append(geoms, g)
		}
		blas, err := a.dev.BuildBLAS(geoms)
		if err != nil {
			return fail(errors.Wrapf(err, "scene: mesh %d", mi))
		}
		result.BLAS = append(result.BLAS, blas)
	}

	// 3. Depth-first traversal accumulating world transforms.
	instances, err := a.placeInstances(doc, result.BLAS)
	if err != nil {
		return fail(err)
	}
	result.InstanceCount = len(instances)

	if len(instances) == 0 {
		logx.Warn("scene: no node references a mesh; skipping TLAS")
		return result, nil
	}

	// 4. One TLAS over every emitted instance.
	tlas, err := a.dev.BuildTLAS(instances)
	if err != nil {
		return fail(err)
	}
	result.TLAS = tlas

	logx.Info("scene assembled: %d meshes, %d instances", len(result.BLAS), len(instances))
	return result, nil
}

func (a *Assembler) geometry(buffers []Buffer, prim Primitive) (rt.Geometry, error) {
	format, err := vertexFormat(prim.Positions)
	if err != nil {
		return rt.Geometry{}, err
	}
	idxType, err := indexType(prim.Indices)
	if err != nil {
		return rt.Geometry{}, err
	}

	if prim.Positions.Buffer < 0 || prim.Positions.Buffer >= len(buffers) ||
		prim.Indices.Buffer < 0 || prim.Indices.Buffer >= len(buffers) {
		return rt.Geometry{}, errors.Mark(
			errors.New("scene: accessor references a missing buffer block"), gpu.ErrUnsupportedFormat)
	}

	vertexAddr, err := buffers[prim.Positions.Buffer].DeviceAddress()
	if err != nil {
		return rt.Geometry{}, err
	}
	indexAddr, err := buffers[prim.Indices.Buffer].DeviceAddress()
	if err != nil {
		return rt.Geometry{}, err
	}

	stride := prim.Positions.Stride
	if stride == 0 {
		stride = 12 // tightly packed vec3 of float32
	}

	if prim.Indices.Count%3 != 0 {
		return rt.Geometry{}, errors.Mark(
			errors.Newf("scene: index count %d is not a triangle list", prim.Indices.Count),
			gpu.ErrUnsupportedFormat)
	}

	return rt.Geometry{
		VertexAddress:  vertexAddr + uint64(prim.Positions.Offset),
		VertexFormat:   format,
		VertexStride:   stride,
		VertexCount:    prim.Positions.Count,
		IndexAddress:   indexAddr + uint64(prim.Indices.Offset),
		IndexType:      idxType,
		PrimitiveCount: prim.Indices.Count / 3,
	}, nil
}

func vertexFormat(acc Accessor) (core1_0.Format, error) {
	if acc.Element != ElementVec3 || acc.Component != ComponentFloat32 {
		return 0, errors.Mark(
			errors.Newf("scene: positions must be vec3 of float32, got element %d component %d",
				acc.Element, acc.Component),
			gpu.ErrUnsupportedFormat)
	}
	return core1_0.FormatR32G32B32SignedFloat, nil
}

func indexType(acc Accessor) (core1_0.IndexType, error) {
	if acc.Element != ElementScalar {
		return 0, errors.Mark(
			errors.New("scene: indices must be scalar"), gpu.ErrUnsupportedFormat)
	}
	switch acc.Component {
	case ComponentUInt16:
		return core1_0.IndexTypeUInt16, nil
	case ComponentUInt32:
		return core1_0.IndexTypeUInt32, nil
	default:
		return 0, errors.Mark(
			errors.Newf("scene: unsupported index component %d", acc.Component),
			gpu.ErrUnsupportedFormat)
	}
}

const maxDepth = 1024

// placeInstances walks the single scene's hierarchy depth first,
// accumulating world transforms, and emits one instance per mesh-bearing
// node.
func (a *Assembler) placeInstances(doc *Document, blases []*rt.BLAS) ([]rt.Instance, error) {
	var instances []rt.Instance

	var walk func(nodeIdx int, parent mgl32.Mat4, depth int) error
	walk = func(nodeIdx int, parent mgl32.Mat4, depth int) error {
		if depth > maxDepth {
			return errors.Mark(
				errors.New("scene: node hierarchy exceeds maximum depth"),
				gpu.ErrUnsupportedSceneTopology)
		}
		if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
			return errors.Newf("scene: node index %d out of range", nodeIdx)
		}
		node := doc.Nodes[nodeIdx]
		world := parent.Mul4(node.Transform)

		if node.Mesh >= 0 {
			if node.Mesh >= len(blases) {
				return errors.Newf("scene: node %q references missing mesh %d", node.Name, node.Mesh)
			}
			instances = append(instances, rt.Instance{
				Structure: blases[node.Mesh],
				Transform: rt.TransformFromMat4(world),
				Mask:      a.VisibilityMask,
				HitGroup:  a.Policy(nodeIdx, node.Mesh, a.HitVariants),
			})
		}

		for _, child := range node.Children {
			if err := walk(child, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range doc.Scenes[0].Roots {
		if err := walk(root, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	return instances, nil
}

// uploadImages decodes the document's raw image blocks concurrently (pure
// CPU work) and then uploads them on the single device thread.
func (a *Assembler) uploadImages(doc *Document) ([]Texture, error) {
	if len(doc.Images) == 0 {
		return nil, nil
	}

	decoded := make([]*image.RGBA, len(doc.Images))
	var group errgroup.Group
	for i, raw := range doc.Images {
		i, raw := i, raw
		group.Go(func() error {
			img, _, err := image.Decode(bytes.NewReader(raw))
			if err != nil {
				return errors.Mark(
					errors.Wrapf(err, "scene: decoding image %d", i), gpu.ErrUnsupportedFormat)
			}
			rgba := image.NewRGBA(img.Bounds())
			draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
			decoded[i] = rgba
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	textures := make([]Texture, 0, len(decoded))
	for _, rgba := range decoded {
		tex, err := a.dev.UploadTexture(rgba)
		if err != nil {
			for _, t := range textures {
				t.Release()
			}
			return nil, errors.Wrap(err, "scene: uploading texture")
		}
		textures = append(textures, tex)
	}
	return textures, nil
}
