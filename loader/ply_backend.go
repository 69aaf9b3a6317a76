package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/meshport/common"
	"github.com/Carmen-Shannon/meshport/log"
	"github.com/Carmen-Shannon/meshport/scene"
)

// uvPropertyU and uvPropertyV list the property names exporters use for
// texture coordinates, in lookup order. There is no agreed convention.
var (
	uvPropertyU = []string{"u", "s", "tx", "texture_u"}
	uvPropertyV = []string{"v", "t", "ty", "texture_v"}
)

// plyBackend adapts PLY point and polygon files. PLY knows no hierarchy and
// no materials, so the output is a single root node with one mesh and one
// primitive. Faces with more than three vertices are fan triangulated from
// the first vertex.
type plyBackend struct {
	logger log.Logger
}

// newPLYBackend creates the PLY format backend.
//
// Returns:
//   - formatBackend: the PLY backend
func newPLYBackend() formatBackend {
	return &plyBackend{logger: log.New("ply loader")}
}

func (b *plyBackend) Format() common.Format {
	return common.FormatPLY
}

func (b *plyBackend) Load(path string) (*scene.Scene, error) {
	parser := newPLYParser()
	if err := parser.Parse(path); err != nil {
		return nil, &ParseError{Format: common.FormatPLY, Path: path, Err: err}
	}

	vertices := parser.Element("vertex")
	if vertices == nil {
		return nil, &MalformedError{Format: common.FormatPLY, Path: path, Err: fmt.Errorf("no vertex element")}
	}

	positions, options, err := b.adaptVertices(path, vertices)
	if err != nil {
		return nil, err
	}

	if faces := parser.Element("face"); faces != nil {
		indices, err := b.adaptFaces(path, faces, len(positions))
		if err != nil {
			return nil, err
		}
		options = append(options, scene.WithIndices(indices))
	} else {
		b.logger.Debugf("%q has no face element; treating vertices as a triangle soup", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := &scene.Scene{Format: common.FormatPLY}
	if len(positions) > 0 {
		prim, err := scene.NewPrimitive(positions, options...)
		if err != nil {
			return nil, &MalformedError{Format: common.FormatPLY, Path: path, Err: err}
		}
		mesh := &scene.Mesh{Name: name, Primitives: []scene.Primitive{prim}}
		out.Meshes = append(out.Meshes, mesh)

		root := scene.NewNode(name)
		root.Meshes = append(root.Meshes, mesh)
		out.Nodes = append(out.Nodes, root)
	} else {
		b.logger.Warningf("%q contains no vertices", path)
	}

	return out, nil
}

// adaptVertices extracts position, normal, UV and color attributes from the
// vertex element. Positions are mandatory; the other attributes are included
// only when the element declares every component.
func (b *plyBackend) adaptVertices(path string, vertices *plyElement) ([]mgl32.Vec3, []scene.PrimitiveOption, error) {
	xs := vertices.propertyIndex("x")
	ys := vertices.propertyIndex("y")
	zs := vertices.propertyIndex("z")
	if xs < 0 || ys < 0 || zs < 0 {
		return nil, nil, &MalformedError{Format: common.FormatPLY, Path: path, Err: fmt.Errorf("vertex element missing x/y/z properties")}
	}

	positions := make([]mgl32.Vec3, len(vertices.rows))
	for i, row := range vertices.rows {
		positions[i] = mgl32.Vec3{
			float32(row[xs].scalar),
			float32(row[ys].scalar),
			float32(row[zs].scalar),
		}
	}

	var options []scene.PrimitiveOption

	nxs := vertices.propertyIndex("nx")
	nys := vertices.propertyIndex("ny")
	nzs := vertices.propertyIndex("nz")
	if nxs >= 0 && nys >= 0 && nzs >= 0 {
		normals := make([]mgl32.Vec3, len(vertices.rows))
		for i, row := range vertices.rows {
			normals[i] = mgl32.Vec3{
				float32(row[nxs].scalar),
				float32(row[nys].scalar),
				float32(row[nzs].scalar),
			}
		}
		options = append(options, scene.WithNormals(normals))
	}

	us := firstPropertyIndex(vertices, uvPropertyU)
	vs := firstPropertyIndex(vertices, uvPropertyV)
	if us >= 0 && vs >= 0 {
		uvs := make([]mgl32.Vec2, len(vertices.rows))
		for i, row := range vertices.rows {
			uvs[i] = mgl32.Vec2{float32(row[us].scalar), float32(row[vs].scalar)}
		}
		options = append(options, scene.WithUVs(uvs))
	}

	reds := vertices.propertyIndex("red")
	greens := vertices.propertyIndex("green")
	blues := vertices.propertyIndex("blue")
	alphas := vertices.propertyIndex("alpha")
	if reds >= 0 && greens >= 0 && blues >= 0 {
		colors := make([]mgl32.Vec4, len(vertices.rows))
		for i, row := range vertices.rows {
			alpha := 255.0
			if alphas >= 0 {
				alpha = row[alphas].scalar
			}
			colors[i] = mgl32.Vec4{
				float32(row[reds].scalar) / 255,
				float32(row[greens].scalar) / 255,
				float32(row[blues].scalar) / 255,
				float32(alpha) / 255,
			}
		}
		options = append(options, scene.WithColors(colors))
	}

	return positions, options, nil
}

// adaptFaces builds a triangle index list from the face element. A quad
// [0 1 2 3] becomes the triangles [0 1 2] and [0 2 3]; larger polygons
// continue the fan. Degenerate faces with fewer than three vertices are
// dropped with a warning.
func (b *plyBackend) adaptFaces(path string, faces *plyElement, vertexCount int) ([]uint32, error) {
	listIndex := faces.propertyIndex("vertex_indices")
	if listIndex < 0 {
		listIndex = faces.propertyIndex("vertex_index")
	}
	if listIndex < 0 || !faces.properties[listIndex].list {
		return nil, &MalformedError{Format: common.FormatPLY, Path: path, Err: fmt.Errorf("face element missing vertex_indices list property")}
	}

	var indices []uint32
	dropped := 0
	for faceIndex, row := range faces.rows {
		face := row[listIndex].list
		if len(face) < 3 {
			dropped++
			continue
		}
		for _, v := range face {
			if v < 0 || int(v) >= vertexCount {
				return nil, &MalformedError{Format: common.FormatPLY, Path: path, Err: fmt.Errorf("face %d references vertex %d of %d", faceIndex, int(v), vertexCount)}
			}
		}
		for i := 1; i+1 < len(face); i++ {
			indices = append(indices, uint32(face[0]), uint32(face[i]), uint32(face[i+1]))
		}
	}
	if dropped > 0 {
		b.logger.Warningf("dropped %d degenerate faces with fewer than 3 vertices in %q", dropped, path)
	}

	return indices, nil
}

// firstPropertyIndex returns the index of the first declared property whose
// name appears in names, or -1.
func firstPropertyIndex(element *plyElement, names []string) int {
	for _, name := range names {
		if i := element.propertyIndex(name); i >= 0 {
			return i
		}
	}
	return -1
}
