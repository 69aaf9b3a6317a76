package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Carmen-Shannon/meshport/common"
	"github.com/Carmen-Shannon/meshport/log"
	"github.com/Carmen-Shannon/meshport/scene"
)

// identityMatrix is the glTF default node matrix. Nodes carrying it store
// their transform in the separate TRS fields instead.
var identityMatrix = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// gltfBackend adapts glTF 2.0 documents (JSON and GLB). The mapping is
// structure preserving: the node graph, the mesh/primitive split and the
// material set all carry over 1:1. Base-color textures are carried through
// as opaque URIs or buffer-view references; image bytes are never resolved.
type gltfBackend struct {
	logger log.Logger
}

// newGLTFBackend creates the glTF format backend.
//
// Returns:
//   - formatBackend: the glTF backend
func newGLTFBackend() formatBackend {
	return &gltfBackend{logger: log.New("gltf loader")}
}

func (b *gltfBackend) Format() common.Format {
	return common.FormatGLTF
}

func (b *gltfBackend) Load(path string) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, &ParseError{Format: common.FormatGLTF, Path: path, Err: err}
	}

	out := &scene.Scene{Format: common.FormatGLTF}

	for i, docMat := range doc.Materials {
		b.logger.Debugf("loading material %q %d/%d", docMat.Name, i+1, len(doc.Materials))
		out.Materials = append(out.Materials, b.adaptMaterial(doc, path, docMat))
	}

	meshes := make([]*scene.Mesh, len(doc.Meshes))
	for i, docMesh := range doc.Meshes {
		mesh, err := b.adaptMesh(doc, path, docMesh, i)
		if err != nil {
			return nil, err
		}
		meshes[i] = mesh
		out.Meshes = append(out.Meshes, mesh)
	}

	roots, err := b.adaptNodeGraph(doc, path, meshes)
	if err != nil {
		return nil, err
	}
	out.Nodes = roots

	return out, nil
}

// adaptMesh converts one glTF mesh, one canonical primitive per glTF
// primitive. Non-triangle-list topologies are skipped with a warning: a
// partially renderable scene beats a total failure.
func (b *gltfBackend) adaptMesh(doc *gltf.Document, path string, docMesh *gltf.Mesh, meshIndex int) (*scene.Mesh, error) {
	mesh := &scene.Mesh{Name: docMesh.Name}

	for primIndex, docPrim := range docMesh.Primitives {
		if docPrim.Mode != gltf.PrimitiveTriangles {
			b.logger.Warningf("mesh %d (%q) primitive %d: skipping unsupported topology %d (only triangle lists)", meshIndex, docMesh.Name, primIndex, docPrim.Mode)
			continue
		}

		prim, err := b.adaptPrimitive(doc, path, docPrim)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIndex, err)
		}
		mesh.Primitives = append(mesh.Primitives, *prim)
	}

	return mesh, nil
}

// adaptPrimitive reads the primitive's accessors and assembles a canonical
// primitive. A missing POSITION attribute or any accessor length mismatch is
// unrecoverable.
func (b *gltfBackend) adaptPrimitive(doc *gltf.Document, path string, docPrim *gltf.Primitive) (*scene.Primitive, error) {
	posAccessor, ok := docPrim.Attributes[gltf.POSITION]
	if !ok {
		return nil, &MalformedError{Format: common.FormatGLTF, Path: path, Err: fmt.Errorf("primitive has no POSITION attribute")}
	}

	rawPositions, err := modeler.ReadPosition(doc, doc.Accessors[posAccessor], nil)
	if err != nil {
		return nil, &ParseError{Format: common.FormatGLTF, Path: path, Err: err}
	}
	positions := make([]mgl32.Vec3, len(rawPositions))
	for i, p := range rawPositions {
		positions[i] = mgl32.Vec3(p)
	}

	options := []scene.PrimitiveOption{}

	if accessor, ok := docPrim.Attributes[gltf.NORMAL]; ok {
		raw, err := modeler.ReadNormal(doc, doc.Accessors[accessor], nil)
		if err != nil {
			return nil, &ParseError{Format: common.FormatGLTF, Path: path, Err: err}
		}
		normals := make([]mgl32.Vec3, len(raw))
		for i, n := range raw {
			normals[i] = mgl32.Vec3(n)
		}
		options = append(options, scene.WithNormals(normals))
	}

	if accessor, ok := docPrim.Attributes[gltf.TEXCOORD_0]; ok {
		raw, err := modeler.ReadTextureCoord(doc, doc.Accessors[accessor], nil)
		if err != nil {
			return nil, &ParseError{Format: common.FormatGLTF, Path: path, Err: err}
		}
		uvs := make([]mgl32.Vec2, len(raw))
		for i, uv := range raw {
			uvs[i] = mgl32.Vec2(uv)
		}
		options = append(options, scene.WithUVs(uvs))
	}

	if accessor, ok := docPrim.Attributes[gltf.COLOR_0]; ok {
		raw, err := modeler.ReadColor(doc, doc.Accessors[accessor], nil)
		if err != nil {
			return nil, &ParseError{Format: common.FormatGLTF, Path: path, Err: err}
		}
		colors := make([]mgl32.Vec4, len(raw))
		for i, c := range raw {
			colors[i] = mgl32.Vec4{
				float32(c[0]) / 255,
				float32(c[1]) / 255,
				float32(c[2]) / 255,
				float32(c[3]) / 255,
			}
		}
		options = append(options, scene.WithColors(colors))
	}

	if docPrim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*docPrim.Indices], nil)
		if err != nil {
			return nil, &ParseError{Format: common.FormatGLTF, Path: path, Err: err}
		}
		options = append(options, scene.WithIndices(indices))
	}

	if docPrim.Material != nil {
		if *docPrim.Material >= 0 && *docPrim.Material < len(doc.Materials) {
			options = append(options, scene.WithMaterial(*docPrim.Material))
		} else {
			b.logger.Warningf("material index %d out of range (%d materials); rendering without material", *docPrim.Material, len(doc.Materials))
		}
	}

	prim, err := scene.NewPrimitive(positions, options...)
	if err != nil {
		return nil, &MalformedError{Format: common.FormatGLTF, Path: path, Err: err}
	}
	return &prim, nil
}

// adaptMaterial maps a glTF material onto the canonical subset: name,
// base-color factor and base-color texture reference. PBR parameters beyond
// the base color have no canonical equivalent and are dropped; the decision
// is logged once per material at debug level.
func (b *gltfBackend) adaptMaterial(doc *gltf.Document, path string, docMat *gltf.Material) scene.Material {
	mat := scene.Material{Name: docMat.Name}

	pbr := docMat.PBRMetallicRoughness
	if pbr == nil {
		return mat
	}

	baseColor := [4]float32{1, 1, 1, 1}
	if pbr.BaseColorFactor != nil {
		for i, v := range pbr.BaseColorFactor {
			baseColor[i] = float32(v)
		}
	}
	mat.BaseColor = &baseColor

	if pbr.BaseColorTexture != nil {
		mat.Texture = b.adaptTexture(doc, path, pbr.BaseColorTexture.Index)
	}
	if pbr.MetallicFactor != nil || pbr.RoughnessFactor != nil {
		b.logger.Debugf("material %q: dropping metallic/roughness factors (no canonical equivalent)", docMat.Name)
	}

	return mat
}

// adaptTexture resolves a texture index into an unresolved TextureRef.
// Dangling texture or image indices are recoverable: the material simply
// loses its texture.
func (b *gltfBackend) adaptTexture(doc *gltf.Document, path string, textureIndex int) *common.TextureRef {
	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		b.logger.Warningf("texture index %d out of range (%d textures); dropping texture reference", textureIndex, len(doc.Textures))
		return nil
	}
	texture := doc.Textures[textureIndex]

	if texture.Source == nil || *texture.Source < 0 || *texture.Source >= len(doc.Images) {
		b.logger.Warningf("texture %d has no resolvable image source; dropping texture reference", textureIndex)
		return nil
	}
	image := doc.Images[*texture.Source]

	name := texture.Name
	if name == "" {
		name = image.Name
	}

	if image.BufferView != nil {
		return common.NewEmbeddedTexture(name, *image.BufferView, image.MimeType)
	}

	uri := image.URI
	if !strings.Contains(uri, "://") && !strings.HasPrefix(uri, "data:") {
		uri = filepath.Join(filepath.Dir(path), uri)
	}
	return common.NewExternalTexture(name, uri)
}

// adaptNodeGraph converts the document's node graph into canonical root
// nodes. The scene picked by the document (or the first scene, or every
// parentless node when no scene is declared) provides the roots.
func (b *gltfBackend) adaptNodeGraph(doc *gltf.Document, path string, meshes []*scene.Mesh) ([]*scene.Node, error) {
	var rootIndices []int
	switch {
	case doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes):
		rootIndices = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		rootIndices = doc.Scenes[0].Nodes
	default:
		rootIndices = parentlessNodes(doc)
	}

	visiting := make(map[int]bool, len(doc.Nodes))
	roots := make([]*scene.Node, 0, len(rootIndices))
	for _, index := range rootIndices {
		node, err := b.adaptNode(doc, path, meshes, index, visiting)
		if err != nil {
			return nil, err
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// adaptNode recursively converts one glTF node and its subtree. glTF
// requires the node graph to be acyclic; a repeated visit means the file
// violates that and the load fails rather than recurse forever.
func (b *gltfBackend) adaptNode(doc *gltf.Document, path string, meshes []*scene.Mesh, index int, visiting map[int]bool) (*scene.Node, error) {
	if index < 0 || index >= len(doc.Nodes) {
		return nil, &MalformedError{Format: common.FormatGLTF, Path: path, Err: fmt.Errorf("node index %d out of range (%d nodes)", index, len(doc.Nodes))}
	}
	if visiting[index] {
		return nil, &MalformedError{Format: common.FormatGLTF, Path: path, Err: fmt.Errorf("node %d appears more than once in the node graph", index)}
	}
	visiting[index] = true

	docNode := doc.Nodes[index]
	node := scene.NewNode(docNode.Name)
	node.Transform = adaptTransform(docNode)

	if docNode.Mesh != nil {
		meshIndex := *docNode.Mesh
		if meshIndex < 0 || meshIndex >= len(meshes) {
			return nil, &MalformedError{Format: common.FormatGLTF, Path: path, Err: fmt.Errorf("node %d references mesh %d of %d", index, meshIndex, len(meshes))}
		}
		node.Meshes = append(node.Meshes, meshes[meshIndex])
	}

	for _, childIndex := range docNode.Children {
		child, err := b.adaptNode(doc, path, meshes, childIndex, visiting)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

// adaptTransform decomposes a node's transform. glTF stores either a matrix
// or separate TRS fields; a non-identity matrix wins, matching the glTF
// specification.
func adaptTransform(docNode *gltf.Node) scene.Transform {
	if docNode.Matrix != identityMatrix && docNode.Matrix != ([16]float64{}) {
		var m mgl32.Mat4
		for i, v := range docNode.Matrix {
			m[i] = float32(v)
		}
		translation, rotation, scale := common.DecomposeMatrix(m)
		return scene.Transform{Translation: translation, Rotation: rotation, Scale: scale}
	}

	transform := scene.IdentityTransform()
	transform.Translation = mgl32.Vec3{
		float32(docNode.Translation[0]),
		float32(docNode.Translation[1]),
		float32(docNode.Translation[2]),
	}
	if docNode.Rotation != ([4]float64{}) {
		transform.Rotation = mgl32.Quat{
			W: float32(docNode.Rotation[3]),
			V: mgl32.Vec3{
				float32(docNode.Rotation[0]),
				float32(docNode.Rotation[1]),
				float32(docNode.Rotation[2]),
			},
		}.Normalize()
	}
	if docNode.Scale != ([3]float64{}) {
		transform.Scale = mgl32.Vec3{
			float32(docNode.Scale[0]),
			float32(docNode.Scale[1]),
			float32(docNode.Scale[2]),
		}
	}
	return transform
}

// parentlessNodes returns the indices of nodes no other node lists as a
// child, for documents that declare no scenes.
func parentlessNodes(doc *gltf.Document) []int {
	isChild := make([]bool, len(doc.Nodes))
	for _, node := range doc.Nodes {
		for _, child := range node.Children {
			if child >= 0 && child < len(isChild) {
				isChild[child] = true
			}
		}
	}

	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}
