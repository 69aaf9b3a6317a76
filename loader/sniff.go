package loader

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"

	"github.com/Carmen-Shannon/meshport/common"
)

// Model formats registered with the filetype matcher registry. None of the
// supported formats ship with filetype, so all four carry custom matchers.
var (
	glbType  = filetype.NewType("glb", "model/gltf-binary")
	gltfType = filetype.NewType("gltf", "model/gltf+json")
	stlType  = filetype.NewType("stl", "model/stl")
	plyType  = filetype.NewType("ply", "model/ply")
)

func init() {
	filetype.AddMatcher(glbType, matchGLB)
	filetype.AddMatcher(gltfType, matchGLTF)
	filetype.AddMatcher(plyType, matchPLY)
	filetype.AddMatcher(stlType, matchSTL)
}

// matchGLB matches the binary glTF container magic.
func matchGLB(buf []byte) bool {
	return len(buf) >= 4 && bytes.Equal(buf[:4], []byte("glTF"))
}

// matchGLTF matches JSON glTF by the mandatory top-level asset object.
// This is a heuristic: any JSON document mentioning "asset" in its head
// matches, which is acceptable for the opt-in sniffing fallback.
func matchGLTF(buf []byte) bool {
	trimmed := bytes.TrimLeft(buf, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{' && bytes.Contains(buf, []byte(`"asset"`))
}

// matchPLY matches the PLY header magic line.
func matchPLY(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte("ply\n")) || bytes.HasPrefix(buf, []byte("ply\r\n"))
}

// matchSTL matches ASCII STL by its "solid" keyword and binary STL by a
// plausible triangle count after the 80-byte header.
func matchSTL(buf []byte) bool {
	if bytes.HasPrefix(buf, []byte("solid ")) || bytes.HasPrefix(buf, []byte("solid\n")) {
		return true
	}
	if len(buf) < 84 {
		return false
	}
	count := binary.LittleEndian.Uint32(buf[80:84])
	return count > 0 && count < 50_000_000
}

// sniffFormat identifies a model file by its leading bytes. Returns
// FormatUnknown (with a nil error) when nothing matches.
func sniffFormat(path string) (common.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return common.FormatUnknown, err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return common.FormatUnknown, err
	}

	kind, err := filetype.Match(buf[:n])
	if err != nil || kind == types.Unknown {
		return common.FormatUnknown, err
	}
	return common.FormatFromExtension(kind.Extension), nil
}
