// package scene defines the canonical in-memory model every format adapter
// produces: a forest of transform nodes referencing meshes from a shared
// pool, plus the set of materials those meshes use. The types are pure data;
// invariants are enforced once at construction time by the adapters (see
// NewPrimitive) and can be re-checked wholesale with Validate.
//
// A Scene is an immutable snapshot: each load call allocates an independent
// Scene and nothing in this package mutates one after it is returned, so
// scenes may be shared freely across goroutines.
package scene

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/meshport/common"
)

// ErrMalformedScene is wrapped by every error returned from Validate.
var ErrMalformedScene = errors.New("malformed scene")

// Scene is the root container of the canonical model.
type Scene struct {
	// Nodes are the root nodes of the scene graph, in source order. Flat
	// formats synthesize a single root node.
	Nodes []*Node

	// Meshes is the pool of all meshes in the scene. Nodes reference into
	// this pool; a mesh may be referenced by zero or more nodes and lives as
	// long as the Scene.
	Meshes []*Mesh

	// Materials is the set of materials referenced by the scene's
	// primitives, empty for formats without materials.
	Materials []Material

	// Format is the file format the scene was loaded from.
	Format common.Format
}

// Validate re-checks the structural invariants of the whole scene: the node
// graph must be a forest (acyclic, no shared children), every node mesh
// reference must resolve into the mesh pool, and every primitive must honor
// the invariants enforced by NewPrimitive, including material indices being
// valid for this scene's material set.
//
// Adapters construct scenes exclusively through the checked constructors, so
// a failure here indicates an adapter bug. Tests and defensive callers are
// the intended users.
//
// Returns:
//   - error: error wrapping ErrMalformedScene if an invariant is violated
func (s *Scene) Validate() error {
	pool := make(map[*Mesh]bool, len(s.Meshes))
	for _, mesh := range s.Meshes {
		pool[mesh] = true
	}

	seen := make(map[*Node]bool)
	for _, node := range s.Nodes {
		if err := s.validateNode(node, pool, seen); err != nil {
			return err
		}
	}

	for meshIndex, mesh := range s.Meshes {
		for primIndex, prim := range mesh.Primitives {
			if err := s.validatePrimitive(&prim); err != nil {
				return fmt.Errorf("mesh %d (%q) primitive %d: %w", meshIndex, mesh.Name, primIndex, err)
			}
		}
	}

	return nil
}

// validateNode walks a node subtree checking forest shape and mesh
// resolution.
func (s *Scene) validateNode(node *Node, pool map[*Mesh]bool, seen map[*Node]bool) error {
	if seen[node] {
		return fmt.Errorf("%w: node %q reachable through more than one path", ErrMalformedScene, node.Name)
	}
	seen[node] = true

	for _, mesh := range node.Meshes {
		if !pool[mesh] {
			return fmt.Errorf("%w: node %q references a mesh outside the scene pool", ErrMalformedScene, node.Name)
		}
	}

	for _, child := range node.Children {
		if err := s.validateNode(child, pool, seen); err != nil {
			return err
		}
	}
	return nil
}

// validatePrimitive re-asserts the per-primitive invariants plus the
// scene-level material index range check.
func (s *Scene) validatePrimitive(p *Primitive) error {
	if len(p.Positions) == 0 {
		return fmt.Errorf("%w: empty positions", ErrMalformedScene)
	}
	if p.Normals != nil && len(p.Normals) != len(p.Positions) {
		return fmt.Errorf("%w: normal count mismatch", ErrMalformedScene)
	}
	if p.UVs != nil && len(p.UVs) != len(p.Positions) {
		return fmt.Errorf("%w: uv count mismatch", ErrMalformedScene)
	}
	if p.Colors != nil && len(p.Colors) != len(p.Positions) {
		return fmt.Errorf("%w: color count mismatch", ErrMalformedScene)
	}
	if len(p.Indices)%3 != 0 {
		return fmt.Errorf("%w: index count not divisible by 3", ErrMalformedScene)
	}
	for _, idx := range p.Indices {
		if int(idx) >= len(p.Positions) {
			return fmt.Errorf("%w: index %d out of range", ErrMalformedScene, idx)
		}
	}
	if p.MaterialIndex != NoMaterial && (p.MaterialIndex < 0 || p.MaterialIndex >= len(s.Materials)) {
		return fmt.Errorf("%w: material index %d with %d materials", ErrMalformedScene, p.MaterialIndex, len(s.Materials))
	}
	return nil
}

// VertexCount returns the total vertex count across all meshes in the pool.
//
// Returns:
//   - int: the summed position count
func (s *Scene) VertexCount() int {
	total := 0
	for _, mesh := range s.Meshes {
		for i := range mesh.Primitives {
			total += mesh.Primitives[i].VertexCount()
		}
	}
	return total
}

// TriangleCount returns the total triangle count across all meshes in the
// pool.
//
// Returns:
//   - int: the summed triangle count
func (s *Scene) TriangleCount() int {
	total := 0
	for _, mesh := range s.Meshes {
		for i := range mesh.Primitives {
			total += mesh.Primitives[i].TriangleCount()
		}
	}
	return total
}
