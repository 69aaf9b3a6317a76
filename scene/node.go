package scene

import "github.com/go-gl/mathgl/mgl32"

// Transform is a decomposed local transform (translation, rotation, scale).
// Formats without a scene hierarchy use the identity transform on their
// synthesized root node.
type Transform struct {
	// Translation is the position offset.
	Translation mgl32.Vec3

	// Rotation is the orientation as a unit quaternion.
	Rotation mgl32.Quat

	// Scale is the scale factor along each axis.
	Scale mgl32.Vec3
}

// IdentityTransform returns the identity transform.
//
// Returns:
//   - Transform: zero translation, identity rotation, unit scale
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Mat4 composes the transform into a column-major matrix (T * R * S).
//
// Returns:
//   - mgl32.Mat4: the composed local transform matrix
func (t Transform) Mat4() mgl32.Mat4 {
	trans := mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z())
	rot := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return trans.Mul4(rot).Mul4(scale)
}

// Node is a named element of the scene graph. Children are owned exclusively
// by their parent (the node graph is a forest); meshes are shared references
// into the Scene's mesh pool.
type Node struct {
	// Name is the node identifier, empty when the source format does not
	// name nodes.
	Name string

	// Transform is the node's transform relative to its parent.
	Transform Transform

	// Children are the owned child nodes, in source order.
	Children []*Node

	// Meshes are the meshes rendered at this node, in source order.
	Meshes []*Mesh
}

// NewNode creates a node with the identity transform.
//
// Parameters:
//   - name: the node identifier, may be empty
//
// Returns:
//   - *Node: the new node
func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: IdentityTransform(),
	}
}
