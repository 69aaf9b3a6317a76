// package common contains common types that are used throughout this library. They are not interface-wrapped structs, just plain structs and tags that express
// commonly used data-types.
package common

import "strings"

// Format identifies the 3D model file format a Scene was loaded from.
type Format int

const (
	// FormatUnknown is the zero value; no format could be determined.
	FormatUnknown Format = iota
	// FormatOBJ is the text-based Wavefront OBJ format (.obj).
	FormatOBJ
	// FormatGLTF is glTF 2.0, both JSON (.gltf) and binary (.glb).
	FormatGLTF
	// FormatSTL is the stereolithography format (.stl), binary or ASCII.
	FormatSTL
	// FormatPLY is the polygon file format (.ply), ASCII or binary.
	FormatPLY
)

// String returns the canonical lower-case name of the format.
//
// Returns:
//   - string: "obj", "gltf", "stl", "ply" or "unknown"
func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatGLTF:
		return "gltf"
	case FormatSTL:
		return "stl"
	case FormatPLY:
		return "ply"
	default:
		return "unknown"
	}
}

// FormatFromExtension maps a file extension to a Format.
// The extension may be passed with or without the leading dot and is
// matched case-insensitively.
//
// Parameters:
//   - ext: the file extension (".obj", "glb", ...)
//
// Returns:
//   - Format: the matching format, or FormatUnknown
func FormatFromExtension(ext string) Format {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "obj":
		return FormatOBJ
	case "gltf", "glb":
		return FormatGLTF
	case "stl":
		return FormatSTL
	case "ply":
		return FormatPLY
	default:
		return FormatUnknown
	}
}

// TextureRef is an unresolved reference to texture image data. The library
// never decodes or loads image bytes; it only carries enough information for
// a downstream consumer to do so.
//
// Exactly one of URI or BufferView is meaningful: external textures carry a
// path or URI, embedded textures (GLB) carry the index of the buffer view
// holding the encoded image bytes.
type TextureRef struct {
	// Name is an identifier for this texture, empty when the source format
	// does not name textures.
	Name string

	// URI is the path or URI of an external texture image, resolved relative
	// to the model file's directory. Empty for embedded textures.
	URI string

	// BufferView is the index of the buffer view containing embedded image
	// bytes, or -1 for external textures.
	BufferView int

	// MimeType indicates the image format (e.g. "image/png") when the source
	// format declares one.
	MimeType string
}

// NewExternalTexture creates a TextureRef pointing at an image file on disk
// or at a URI.
//
// Parameters:
//   - name: texture identifier, may be empty
//   - uri: path or URI of the image
//
// Returns:
//   - *TextureRef: the external texture reference
func NewExternalTexture(name, uri string) *TextureRef {
	return &TextureRef{Name: name, URI: uri, BufferView: -1}
}

// NewEmbeddedTexture creates a TextureRef pointing at an embedded buffer view.
//
// Parameters:
//   - name: texture identifier, may be empty
//   - bufferView: index of the buffer view holding the encoded image
//   - mimeType: declared image MIME type, may be empty
//
// Returns:
//   - *TextureRef: the embedded texture reference
func NewEmbeddedTexture(name string, bufferView int, mimeType string) *TextureRef {
	return &TextureRef{Name: name, BufferView: bufferView, MimeType: mimeType}
}

// External reports whether the reference points at an external image.
//
// Returns:
//   - bool: true if URI is set
func (t *TextureRef) External() bool {
	return t.URI != ""
}
