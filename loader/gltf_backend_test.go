package loader

import (
	"bytes"
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/meshport/common"
	"github.com/Carmen-Shannon/meshport/log"
	"github.com/Carmen-Shannon/meshport/scene"
)

func TestGLTFLoad(t *testing.T) {
	s, err := NewLoader(WithoutCache()).Load(fixture("triangle.gltf"))
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, common.FormatGLTF, s.Format)
	require.Len(t, s.Nodes, 1)
	require.Len(t, s.Meshes, 1)

	node := s.Nodes[0]
	assert.Equal(t, "triangle", node.Name)
	assert.Empty(t, node.Children)
	require.Len(t, node.Meshes, 1)
	assert.Same(t, s.Meshes[0], node.Meshes[0])
}

func TestGLTFTransform(t *testing.T) {
	s, err := NewLoader(WithoutCache()).Load(fixture("triangle.gltf"))
	require.NoError(t, err)

	transform := s.Nodes[0].Transform
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, transform.Translation)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, transform.Scale)
	assert.Equal(t, mgl32.QuatIdent(), transform.Rotation)
}

func TestGLTFPrimitive(t *testing.T) {
	s, err := NewLoader(WithoutCache()).Load(fixture("triangle.gltf"))
	require.NoError(t, err)

	require.Len(t, s.Meshes[0].Primitives, 1)
	prim := s.Meshes[0].Primitives[0]

	assert.Equal(t, []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, prim.Positions)
	assert.Equal(t, []uint32{0, 1, 2}, prim.Indices)
	assert.Nil(t, prim.Normals)
	assert.Nil(t, prim.UVs)
	assert.Nil(t, prim.Colors)
	assert.Equal(t, 0, prim.MaterialIndex)
}

func TestGLTFMaterial(t *testing.T) {
	s, err := NewLoader(WithoutCache()).Load(fixture("triangle.gltf"))
	require.NoError(t, err)

	require.Len(t, s.Materials, 1)
	mat := s.Materials[0]
	assert.Equal(t, "flat red", mat.Name)
	require.NotNil(t, mat.BaseColor)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, *mat.BaseColor)
	assert.Nil(t, mat.Texture)
}

func TestGLTFDanglingMaterialIndex(t *testing.T) {
	var captured bytes.Buffer
	log.SetSink(&captured)
	defer log.SetSink(os.Stdout)

	s, err := NewLoader(WithoutCache()).Load(fixture("bad_material.gltf"))
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	require.Len(t, s.Meshes[0].Primitives, 1)
	prim := s.Meshes[0].Primitives[0]
	assert.Equal(t, scene.NoMaterial, prim.MaterialIndex)
	assert.False(t, prim.HasMaterial())
	assert.Contains(t, captured.String(), "material index 5 out of range")
}

func TestGLTFSkipsNonTriangleTopology(t *testing.T) {
	var captured bytes.Buffer
	log.SetSink(&captured)
	defer log.SetSink(os.Stdout)

	s, err := NewLoader(WithoutCache()).Load(fixture("mixed_topology.gltf"))
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	// The line-mode primitive is dropped; the triangle one survives.
	require.Len(t, s.Meshes, 1)
	require.Len(t, s.Meshes[0].Primitives, 1)
	assert.Equal(t, 0, s.Meshes[0].Primitives[0].MaterialIndex)
	assert.Contains(t, captured.String(), "unsupported topology")
}
