package loader

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/meshport/common"
)

func TestSTLLoad(t *testing.T) {
	s, err := NewLoader(WithoutCache()).Load(fixture("triangle.stl"))
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, common.FormatSTL, s.Format)
	require.Len(t, s.Nodes, 1)
	require.Len(t, s.Meshes, 1)
	assert.Equal(t, "triangle", s.Nodes[0].Name)
	assert.Equal(t, "triangle", s.Meshes[0].Name)
	assert.Empty(t, s.Materials)
}

func TestSTLVertexExpansion(t *testing.T) {
	s, err := NewLoader(WithoutCache()).Load(fixture("triangle.stl"))
	require.NoError(t, err)

	require.Len(t, s.Meshes[0].Primitives, 1)
	prim := s.Meshes[0].Primitives[0]

	// Two facets, three unshared vertices each.
	assert.Equal(t, 6, prim.VertexCount())
	assert.Equal(t, 2, prim.TriangleCount())
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, prim.Indices)

	assert.Equal(t, mgl32.Vec3{0, 0, 0}, prim.Positions[0])
	assert.Equal(t, mgl32.Vec3{0, 1, 1}, prim.Positions[5])
}

func TestSTLNormals(t *testing.T) {
	s, err := NewLoader(WithoutCache()).Load(fixture("triangle.stl"))
	require.NoError(t, err)

	prim := s.Meshes[0].Primitives[0]
	require.Len(t, prim.Normals, 6)

	// The first facet declares its normal; the second declares a zero
	// normal, which gets recomputed from the winding. Both facets lie in a
	// z plane, so every vertex ends up with +z.
	for i, n := range prim.Normals {
		assert.Equal(t, mgl32.Vec3{0, 0, 1}, n, "normal %d", i)
	}
}
