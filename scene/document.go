// Package scene turns an externally parsed scene document into device
// geometry and acceleration structures. Parsing itself lives outside: a
// Source hands over the node graph, raw vertex/index byte blocks and raw
// image bytes, and the assembler does the rest.
package scene

import "github.com/go-gl/mathgl/mgl32"

// ComponentType is the scalar type of an accessor's components.
type ComponentType int

const (
	ComponentFloat32 ComponentType = iota
	ComponentUInt16
	ComponentUInt32
	ComponentInt8
	ComponentUInt8
)

// ElementType is an accessor's per-element dimensionality.
type ElementType int

const (
	ElementScalar ElementType = iota
	ElementVec2
	ElementVec3
	ElementVec4
)

// Accessor describes how to read typed data out of a raw buffer block.
type Accessor struct {
	// Buffer indexes Document.Buffers.
	Buffer int
	// Offset is the byte offset of the first element.
	Offset int
	// Count is the number of elements.
	Count int
	// Stride is the byte distance between elements; zero means tightly
	// packed.
	Stride int

	Component ComponentType
	Element   ElementType
}

// Primitive is one triangle range of a mesh: a vertex position accessor and
// an index accessor, plus a material variant selector.
type Primitive struct {
	Positions Accessor
	Indices   Accessor
	Material  int
}

// Mesh is a named group of primitives. One BLAS is built per mesh with one
// geometry per primitive.
type Mesh struct {
	Name       string
	Primitives []Primitive
}

// Node is one element of the hierarchy. Mesh is -1 for pure grouping nodes.
type Node struct {
	Name      string
	Mesh      int
	Children  []int
	Transform mgl32.Mat4
}

// TopScene is one top-level scene: the root node indices.
type TopScene struct {
	Roots []int
}

// Document is the collaborator's output: the node graph plus the raw byte
// blocks the accessors reference. The assembler accepts only documents with
// exactly one top-level scene.
type Document struct {
	Scenes  []TopScene
	Nodes   []Node
	Meshes  []Mesh
	Buffers [][]byte
	Images  [][]byte
}

// Source yields a parsed scene document. Implementations own the file
// format; this package never sees one.
type Source interface {
	Document() (*Document, error)
}
