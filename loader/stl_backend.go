package loader

import (
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hschendel/stl"

	"github.com/Carmen-Shannon/meshport/common"
	"github.com/Carmen-Shannon/meshport/log"
	"github.com/Carmen-Shannon/meshport/scene"
)

// stlBackend adapts STL solids, ASCII and binary alike. STL has no
// materials, no shared vertices and no hierarchy, so the canonical output is
// a single root node carrying one mesh with one primitive. Every triangle
// contributes three unshared vertices, and the per-triangle facet normal is
// replicated across them.
type stlBackend struct {
	logger log.Logger
}

// newSTLBackend creates the STL format backend.
//
// Returns:
//   - formatBackend: the STL backend
func newSTLBackend() formatBackend {
	return &stlBackend{logger: log.New("stl loader")}
}

func (b *stlBackend) Format() common.Format {
	return common.FormatSTL
}

func (b *stlBackend) Load(path string) (*scene.Scene, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Format: common.FormatSTL, Path: path, Err: err}
	}

	positions := make([]mgl32.Vec3, 0, len(solid.Triangles)*3)
	normals := make([]mgl32.Vec3, 0, len(solid.Triangles)*3)
	recomputed := 0
	for _, triangle := range solid.Triangles {
		a := mgl32.Vec3(triangle.Vertices[0])
		c := mgl32.Vec3(triangle.Vertices[1])
		d := mgl32.Vec3(triangle.Vertices[2])
		positions = append(positions, a, c, d)

		normal := mgl32.Vec3(triangle.Normal)
		if normal == (mgl32.Vec3{}) {
			// Exporters frequently write zero facet normals and leave
			// recomputation to the reader.
			normal = common.TriangleNormal(a, c, d)
			recomputed++
		}
		normals = append(normals, normal, normal, normal)
	}
	if recomputed > 0 {
		b.logger.Debugf("recomputed %d zero facet normals in %q", recomputed, path)
	}

	name := solid.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	out := &scene.Scene{Format: common.FormatSTL}
	if len(positions) > 0 {
		prim, err := scene.NewPrimitive(positions, scene.WithNormals(normals))
		if err != nil {
			return nil, &MalformedError{Format: common.FormatSTL, Path: path, Err: err}
		}
		mesh := &scene.Mesh{Name: name, Primitives: []scene.Primitive{prim}}
		out.Meshes = append(out.Meshes, mesh)

		root := scene.NewNode(name)
		root.Meshes = append(root.Meshes, mesh)
		out.Nodes = append(out.Nodes, root)
	} else {
		b.logger.Warningf("%q contains no triangles", path)
	}

	return out, nil
}
