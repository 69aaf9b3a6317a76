package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/meshport/common"
)

var trianglePositions = []mgl32.Vec3{
	{0, 0, 0},
	{1, 0, 0},
	{0, 1, 0},
}

func TestNewPrimitiveDefaults(t *testing.T) {
	prim, err := NewPrimitive(trianglePositions)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0, 1, 2}, prim.Indices)
	assert.Equal(t, NoMaterial, prim.MaterialIndex)
	assert.False(t, prim.HasMaterial())
	assert.Nil(t, prim.Normals)
	assert.Nil(t, prim.UVs)
	assert.Nil(t, prim.Colors)
	assert.Equal(t, 3, prim.VertexCount())
	assert.Equal(t, 1, prim.TriangleCount())
}

func TestNewPrimitiveOptions(t *testing.T) {
	normals := []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	uvs := []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}}
	colors := []mgl32.Vec4{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}}

	prim, err := NewPrimitive(trianglePositions,
		WithNormals(normals),
		WithUVs(uvs),
		WithColors(colors),
		WithIndices([]uint32{2, 1, 0}),
		WithMaterial(0),
	)
	require.NoError(t, err)

	assert.Equal(t, normals, prim.Normals)
	assert.Equal(t, uvs, prim.UVs)
	assert.Equal(t, colors, prim.Colors)
	assert.Equal(t, []uint32{2, 1, 0}, prim.Indices)
	assert.True(t, prim.HasMaterial())
	assert.Equal(t, 0, prim.MaterialIndex)
}

func TestNewPrimitiveRejectsInvalid(t *testing.T) {
	tests := []struct {
		name      string
		positions []mgl32.Vec3
		options   []PrimitiveOption
	}{
		{"no positions", nil, nil},
		{"normal count mismatch", trianglePositions, []PrimitiveOption{WithNormals([]mgl32.Vec3{{0, 0, 1}})}},
		{"uv count mismatch", trianglePositions, []PrimitiveOption{WithUVs([]mgl32.Vec2{{0, 0}})}},
		{"color count mismatch", trianglePositions, []PrimitiveOption{WithColors([]mgl32.Vec4{{1, 1, 1, 1}})}},
		{"index count not divisible by 3", trianglePositions, []PrimitiveOption{WithIndices([]uint32{0, 1})}},
		{"index out of range", trianglePositions, []PrimitiveOption{WithIndices([]uint32{0, 1, 3})}},
		{"negative material index", trianglePositions, []PrimitiveOption{WithMaterial(-2)}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewPrimitive(test.positions, test.options...)
			assert.ErrorIs(t, err, ErrMalformedMesh)
		})
	}
}

func TestTransformMat4(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), IdentityTransform().Mat4())

	transform := IdentityTransform()
	transform.Translation = mgl32.Vec3{1, 2, 3}
	m := transform.Mat4()
	assert.Equal(t, mgl32.Vec4{1, 2, 3, 1}, m.Col(3))
}

func TestNewNode(t *testing.T) {
	node := NewNode("root")
	assert.Equal(t, "root", node.Name)
	assert.Equal(t, IdentityTransform(), node.Transform)
	assert.Empty(t, node.Children)
	assert.Empty(t, node.Meshes)
}

func validScene(t *testing.T) *Scene {
	t.Helper()

	prim, err := NewPrimitive(trianglePositions, WithMaterial(0))
	require.NoError(t, err)

	mesh := &Mesh{Name: "triangle", Primitives: []Primitive{prim}}
	root := NewNode("root")
	root.Meshes = append(root.Meshes, mesh)

	return &Scene{
		Nodes:     []*Node{root},
		Meshes:    []*Mesh{mesh},
		Materials: []Material{{Name: "default"}},
		Format:    common.FormatOBJ,
	}
}

func TestSceneValidate(t *testing.T) {
	assert.NoError(t, validScene(t).Validate())
}

func TestSceneValidateForeignMesh(t *testing.T) {
	s := validScene(t)
	s.Nodes[0].Meshes = append(s.Nodes[0].Meshes, &Mesh{Name: "stray"})

	assert.ErrorIs(t, s.Validate(), ErrMalformedScene)
}

func TestSceneValidateSharedChild(t *testing.T) {
	s := validScene(t)
	shared := NewNode("shared")
	a := NewNode("a")
	b := NewNode("b")
	a.Children = append(a.Children, shared)
	b.Children = append(b.Children, shared)
	s.Nodes = append(s.Nodes, a, b)

	assert.ErrorIs(t, s.Validate(), ErrMalformedScene)
}

func TestSceneValidateMaterialRange(t *testing.T) {
	s := validScene(t)
	s.Materials = nil

	assert.ErrorIs(t, s.Validate(), ErrMalformedScene)
}

func TestSceneCounts(t *testing.T) {
	s := validScene(t)
	assert.Equal(t, 3, s.VertexCount())
	assert.Equal(t, 1, s.TriangleCount())
}
