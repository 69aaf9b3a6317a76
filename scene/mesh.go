package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrMalformedMesh is wrapped by every error returned from NewPrimitive.
// Hitting it indicates a contract violation inside a format adapter, not a
// problem with the user's model file.
var ErrMalformedMesh = errors.New("malformed mesh")

// NoMaterial marks a primitive that references no material.
const NoMaterial = -1

// Mesh is a drawable unit: an ordered sequence of primitives. Meshes are
// owned by the Scene and shared by reference from any number of nodes.
type Mesh struct {
	// Name is the mesh identifier, empty when the source format does not
	// name meshes.
	Name string

	// Primitives are the indexed triangle lists making up the mesh.
	Primitives []Primitive
}

// Primitive is a single indexed triangle list. All optional vertex
// attributes, when present, run parallel to Positions.
type Primitive struct {
	// Positions are the vertex positions. Required, never empty.
	Positions []mgl32.Vec3

	// Normals are per-vertex normals, nil when the source carries none.
	Normals []mgl32.Vec3

	// UVs are per-vertex texture coordinates, nil when the source carries none.
	UVs []mgl32.Vec2

	// Colors are per-vertex RGBA colors, nil when the source carries none.
	Colors []mgl32.Vec4

	// Indices group positions into triangles. Always a multiple of 3; when
	// the source format has no index buffer this is the identity sequence.
	Indices []uint32

	// MaterialIndex references Scene.Materials, or NoMaterial.
	MaterialIndex int
}

// PrimitiveOption is a functional option for configuring a Primitive via
// NewPrimitive.
type PrimitiveOption func(*Primitive)

// WithNormals is an option builder that sets the per-vertex normals.
//
// Parameters:
//   - normals: one normal per position
//
// Returns:
//   - PrimitiveOption: a function that applies the normals to a primitive
func WithNormals(normals []mgl32.Vec3) PrimitiveOption {
	return func(p *Primitive) {
		p.Normals = normals
	}
}

// WithUVs is an option builder that sets the per-vertex texture coordinates.
//
// Parameters:
//   - uvs: one UV pair per position
//
// Returns:
//   - PrimitiveOption: a function that applies the UVs to a primitive
func WithUVs(uvs []mgl32.Vec2) PrimitiveOption {
	return func(p *Primitive) {
		p.UVs = uvs
	}
}

// WithColors is an option builder that sets the per-vertex RGBA colors.
//
// Parameters:
//   - colors: one color per position
//
// Returns:
//   - PrimitiveOption: a function that applies the colors to a primitive
func WithColors(colors []mgl32.Vec4) PrimitiveOption {
	return func(p *Primitive) {
		p.Colors = colors
	}
}

// WithIndices is an option builder that sets the triangle index buffer.
// When omitted, NewPrimitive synthesizes the identity sequence 0..n-1.
//
// Parameters:
//   - indices: triangle indices, length divisible by 3
//
// Returns:
//   - PrimitiveOption: a function that applies the indices to a primitive
func WithIndices(indices []uint32) PrimitiveOption {
	return func(p *Primitive) {
		p.Indices = indices
	}
}

// WithMaterial is an option builder that sets the material index.
//
// Parameters:
//   - index: index into Scene.Materials
//
// Returns:
//   - PrimitiveOption: a function that applies the material index to a primitive
func WithMaterial(index int) PrimitiveOption {
	return func(p *Primitive) {
		p.MaterialIndex = index
	}
}

// NewPrimitive builds a Primitive and enforces its structural invariants:
// positions must be non-empty, every optional attribute must match the
// position count, the index count must be divisible by 3 and every index
// must address an existing position. Violations return an error wrapping
// ErrMalformedMesh.
//
// Adapters are the only intended callers; a returned error means the adapter
// mapped its parser output incorrectly.
//
// Parameters:
//   - positions: the vertex positions (required, non-empty)
//   - options: a variadic list of PrimitiveOption functions for the optional attributes
//
// Returns:
//   - Primitive: the validated primitive
//   - error: error wrapping ErrMalformedMesh if an invariant is violated
func NewPrimitive(positions []mgl32.Vec3, options ...PrimitiveOption) (Primitive, error) {
	p := Primitive{
		Positions:     positions,
		MaterialIndex: NoMaterial,
	}
	for _, option := range options {
		option(&p)
	}

	if len(p.Positions) == 0 {
		return Primitive{}, fmt.Errorf("%w: primitive has no positions", ErrMalformedMesh)
	}
	if p.Normals != nil && len(p.Normals) != len(p.Positions) {
		return Primitive{}, fmt.Errorf("%w: %d normals for %d positions", ErrMalformedMesh, len(p.Normals), len(p.Positions))
	}
	if p.UVs != nil && len(p.UVs) != len(p.Positions) {
		return Primitive{}, fmt.Errorf("%w: %d uvs for %d positions", ErrMalformedMesh, len(p.UVs), len(p.Positions))
	}
	if p.Colors != nil && len(p.Colors) != len(p.Positions) {
		return Primitive{}, fmt.Errorf("%w: %d colors for %d positions", ErrMalformedMesh, len(p.Colors), len(p.Positions))
	}

	if p.Indices == nil {
		p.Indices = identityIndices(len(p.Positions))
	}
	if len(p.Indices)%3 != 0 {
		return Primitive{}, fmt.Errorf("%w: index count %d is not divisible by 3", ErrMalformedMesh, len(p.Indices))
	}
	for i, idx := range p.Indices {
		if int(idx) >= len(p.Positions) {
			return Primitive{}, fmt.Errorf("%w: index %d at offset %d addresses %d positions", ErrMalformedMesh, idx, i, len(p.Positions))
		}
	}

	if p.MaterialIndex < NoMaterial {
		return Primitive{}, fmt.Errorf("%w: negative material index %d", ErrMalformedMesh, p.MaterialIndex)
	}

	return p, nil
}

// VertexCount returns the number of vertices in the primitive.
//
// Returns:
//   - int: the position count
func (p *Primitive) VertexCount() int {
	return len(p.Positions)
}

// TriangleCount returns the number of triangles in the primitive.
//
// Returns:
//   - int: the triangle count
func (p *Primitive) TriangleCount() int {
	return len(p.Indices) / 3
}

// HasMaterial reports whether the primitive references a material.
//
// Returns:
//   - bool: true if MaterialIndex is not NoMaterial
func (p *Primitive) HasMaterial() bool {
	return p.MaterialIndex != NoMaterial
}

// identityIndices synthesizes the identity index sequence 0..n-1 for
// formats without an index buffer.
func identityIndices(n int) []uint32 {
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return indices
}
