package scene

import "github.com/Carmen-Shannon/meshport/common"

// Material holds the canonical subset of surface parameters every supported
// format can express. Formats without materials (STL, plain PLY) produce a
// Scene with an empty material set.
type Material struct {
	// Name is the material identifier, empty when the source format does not
	// name materials.
	Name string

	// BaseColor is the RGBA base color factor, nil when the source declares
	// none.
	BaseColor *[4]float32

	// Texture is the unresolved base-color texture reference, nil when the
	// material has no texture. Image bytes are never loaded by this library.
	Texture *common.TextureRef
}
