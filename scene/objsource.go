package scene

import (
	"io"
	"math"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v2/common"
)

// OBJSource parses a Wavefront OBJ file into a single-scene document: one
// mesh with one primitive per OBJ object, one node per mesh, identity
// transforms. It exists as the demo collaborator; anything implementing
// Source works in its place.
type OBJSource struct {
	Path string
	// MaterialPath is the .mtl file; empty skips material parsing.
	MaterialPath string
}

func (s *OBJSource) Document() (*Document, error) {
	meshFile, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "scene: opening %s", s.Path)
	}
	defer meshFile.Close()

	var matFile io.ReadCloser
	if s.MaterialPath != "" {
		matFile, err = os.Open(s.MaterialPath)
		if err != nil {
			return nil, errors.Wrapf(err, "scene: opening %s", s.MaterialPath)
		}
		defer matFile.Close()
	}

	decoder, err := obj.DecodeReader(meshFile, matFile)
	if err != nil {
		return nil, errors.Wrapf(err, "scene: decoding %s", s.Path)
	}
	return documentFromOBJ(decoder)
}

// documentFromOBJ packs every object's deduplicated positions into one
// position block and its fan-triangulated indices into one index block,
// recording per-object accessor windows into those two shared blocks.
func documentFromOBJ(decoder *obj.Decoder) (*Document, error) {
	doc := &Document{}

	var positions []byte
	var indices []byte
	vertexBase := 0
	indexBase := 0

	for objIdx, decoded := range decoder.Objects {
		uniqueVertices := make(map[int]uint32)
		vertexCount := 0
		indexCount := 0

		addVertex := func(face obj.Face, faceIndex int) {
			vertInd := face.Vertices[faceIndex]
			index, seen := uniqueVertices[vertInd]
			if !seen {
				index = uint32(vertexCount)
				uniqueVertices[vertInd] = index
				vertexCount++
				for axis := 0; axis < 3; axis++ {
					positions = appendFloat32(positions, decoder.Vertices[vertInd*3+axis])
				}
			}
			var packed [4]byte
			common.ByteOrder.PutUint32(packed[:], index)
			indices = append(indices, packed[:]...)
			indexCount++
		}

		for _, face := range decoded.Faces {
			// Faces may be polygons; fan-triangulate them.
			for i := 2; i < len(face.Vertices); i++ {
				addVertex(face, 0)
				addVertex(face, i-1)
				addVertex(face, i)
			}
		}

		if indexCount == 0 {
			continue
		}

		doc.Meshes = append(doc.Meshes, Mesh{
			Name: decoded.Name,
			Primitives: []Primitive{
				{
					Positions: Accessor{
						Buffer:    0,
						Offset:    vertexBase * 12,
						Count:     vertexCount,
						Component: ComponentFloat32,
						Element:   ElementVec3,
					},
					Indices: Accessor{
						Buffer:    1,
						Offset:    indexBase * 4,
						Count:     indexCount,
						Component: ComponentUInt32,
						Element:   ElementScalar,
					},
					Material: objIdx,
				},
			},
		})
		vertexBase += vertexCount
		indexBase += indexCount
	}

	if len(doc.Meshes) == 0 {
		return nil, errors.New("scene: OBJ file holds no triangles")
	}

	roots := make([]int, 0, len(doc.Meshes))
	for i, mesh := range doc.Meshes {
		doc.Nodes = append(doc.Nodes, Node{
			Name:      mesh.Name,
			Mesh:      i,
			Transform: mgl32.Ident4(),
		})
		roots = append(roots, i)
	}
	doc.Scenes = []TopScene{{Roots: roots}}
	doc.Buffers = [][]byte{positions, indices}

	return doc, nil
}

func appendFloat32(dst []byte, v float32) []byte {
	var packed [4]byte
	common.ByteOrder.PutUint32(packed[:], math.Float32bits(v))
	return append(dst, packed[:]...)
}
