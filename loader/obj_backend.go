package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/udhos/gwob"

	"github.com/Carmen-Shannon/meshport/common"
	"github.com/Carmen-Shannon/meshport/log"
	"github.com/Carmen-Shannon/meshport/scene"
)

// objBackend adapts Wavefront OBJ parser output. OBJ has no hierarchy, so
// every group becomes one mesh with one primitive and all meshes hang off a
// single synthesized root node. Material is assumed constant within a group:
// the parser splits groups on usemtl directives, so the assumption holds by
// construction.
type objBackend struct {
	logger log.Logger
}

// newOBJBackend creates the OBJ format backend.
//
// Returns:
//   - formatBackend: the OBJ backend
func newOBJBackend() formatBackend {
	return &objBackend{logger: log.New("obj loader")}
}

func (b *objBackend) Format() common.Format {
	return common.FormatOBJ
}

func (b *objBackend) Load(path string) (*scene.Scene, error) {
	options := &gwob.ObjParserOptions{
		Logger: func(msg string) { b.logger.Debug(msg) },
	}

	obj, err := gwob.NewObjFromFile(path, options)
	if err != nil {
		return nil, &ParseError{Format: common.FormatOBJ, Path: path, Err: err}
	}

	materials, matNameToIndex := b.loadMaterialLib(path, obj.Mtllib, options)

	out := &scene.Scene{
		Format:    common.FormatOBJ,
		Materials: materials,
	}
	root := scene.NewNode(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	strideFloats := obj.StrideSize / 4
	for _, group := range obj.Groups {
		if group.IndexCount == 0 {
			b.logger.Debugf("dropping group %q as it contains no faces", group.Name)
			continue
		}

		prim, err := b.adaptGroup(obj, group, strideFloats, matNameToIndex)
		if err != nil {
			return nil, &MalformedError{Format: common.FormatOBJ, Path: path, Err: err}
		}

		mesh := &scene.Mesh{
			Name:       group.Name,
			Primitives: []scene.Primitive{*prim},
		}
		out.Meshes = append(out.Meshes, mesh)
		root.Meshes = append(root.Meshes, mesh)
	}

	out.Nodes = []*scene.Node{root}
	return out, nil
}

// adaptGroup compacts the parser's shared interleaved vertex buffer into a
// per-group primitive: only vertices the group's faces reference are copied,
// and the face indices are remapped onto the compacted arrays.
func (b *objBackend) adaptGroup(obj *gwob.Obj, group *gwob.Group, strideFloats int, matNameToIndex map[string]int) (*scene.Primitive, error) {
	posOffset := obj.StrideOffsetPosition / 4
	texOffset := obj.StrideOffsetTexture / 4
	normOffset := obj.StrideOffsetNormal / 4
	vertexCount := len(obj.Coord) / strideFloats

	var positions []mgl32.Vec3
	var normals []mgl32.Vec3
	var uvs []mgl32.Vec2

	remap := make(map[int]uint32, group.IndexCount)
	indices := make([]uint32, 0, group.IndexCount)

	for _, objIndex := range obj.Indices[group.IndexBegin : group.IndexBegin+group.IndexCount] {
		compacted, ok := remap[objIndex]
		if !ok {
			if objIndex < 0 || objIndex >= vertexCount {
				return nil, fmt.Errorf("group %q: face index %d addresses %d vertices", group.Name, objIndex, vertexCount)
			}

			base := objIndex * strideFloats
			positions = append(positions, mgl32.Vec3{
				obj.Coord[base+posOffset],
				obj.Coord[base+posOffset+1],
				obj.Coord[base+posOffset+2],
			})
			if obj.TextCoordFound {
				uvs = append(uvs, mgl32.Vec2{
					obj.Coord[base+texOffset],
					obj.Coord[base+texOffset+1],
				})
			}
			if obj.NormCoordFound {
				normals = append(normals, mgl32.Vec3{
					obj.Coord[base+normOffset],
					obj.Coord[base+normOffset+1],
					obj.Coord[base+normOffset+2],
				})
			}

			compacted = uint32(len(positions) - 1)
			remap[objIndex] = compacted
		}
		indices = append(indices, compacted)
	}

	options := []scene.PrimitiveOption{
		scene.WithIndices(indices),
		scene.WithMaterial(b.resolveMaterial(group, matNameToIndex)),
	}
	if normals != nil {
		options = append(options, scene.WithNormals(normals))
	}
	if uvs != nil {
		options = append(options, scene.WithUVs(uvs))
	}

	prim, err := scene.NewPrimitive(positions, options...)
	if err != nil {
		return nil, err
	}
	return &prim, nil
}

// resolveMaterial resolves a group's usemtl name against the material
// library by exact string match. An unresolved name is a recoverable
// anomaly: the primitive falls back to no material and the load proceeds.
func (b *objBackend) resolveMaterial(group *gwob.Group, matNameToIndex map[string]int) int {
	if group.Usemtl == "" {
		return scene.NoMaterial
	}
	index, ok := matNameToIndex[group.Usemtl]
	if !ok {
		b.logger.Warningf("unresolved material name %q in group %q; rendering without material", group.Usemtl, group.Name)
		return scene.NoMaterial
	}
	return index
}

// loadMaterialLib parses the mtllib referenced by the OBJ file, if any.
// A missing or unreadable library is downgraded to a warning and yields an
// empty material set; only the material names become unresolvable.
func (b *objBackend) loadMaterialLib(path, mtllib string, options *gwob.ObjParserOptions) ([]scene.Material, map[string]int) {
	if mtllib == "" {
		return nil, nil
	}

	modelDir := filepath.Dir(path)
	lib, err := gwob.ReadMaterialLibFromFile(filepath.Join(modelDir, mtllib), options)
	if err != nil {
		b.logger.Warningf("could not load material library %q: %v", mtllib, err)
		return nil, nil
	}

	// Map iteration is unordered; sort names so material indices are stable
	// across loads of the same file.
	names := make([]string, 0, len(lib.Lib))
	for name := range lib.Lib {
		names = append(names, name)
	}
	sort.Strings(names)

	materials := make([]scene.Material, 0, len(names))
	matNameToIndex := make(map[string]int, len(names))
	for _, name := range names {
		objMat := lib.Lib[name]

		mat := scene.Material{
			Name:      name,
			BaseColor: &[4]float32{objMat.Kd[0], objMat.Kd[1], objMat.Kd[2], 1},
		}
		if objMat.MapKd != "" {
			mat.Texture = common.NewExternalTexture(objMat.MapKd, filepath.Join(modelDir, objMat.MapKd))
		}

		b.logger.Debugf("loaded material %q %d/%d", name, len(materials)+1, len(names))
		matNameToIndex[name] = len(materials)
		materials = append(materials, mat)
	}

	return materials, matNameToIndex
}
