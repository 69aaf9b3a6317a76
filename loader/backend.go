package loader

import (
	"github.com/Carmen-Shannon/meshport/common"
	"github.com/Carmen-Shannon/meshport/scene"
)

// formatBackend defines the generic interface for the per-format adapters.
// Concrete implementations (objBackend, gltfBackend, stlBackend, plyBackend)
// invoke their format's parser and translate its native output into the
// canonical scene model. Backends are stateless aside from their logger and
// safe for concurrent use.
type formatBackend interface {
	// Format returns the format tag this backend handles.
	//
	// Returns:
	//   - common.Format: the handled format
	Format() common.Format

	// Load parses the file at the given path and adapts the parser's native
	// output into a canonical Scene.
	//
	// Parser failures surface as *ParseError; unrecoverable structural
	// anomalies as *MalformedError. Recoverable anomalies (unsupported
	// topology, unresolved material names, fallback triangulation) are
	// logged as warnings and do not fail the load.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *scene.Scene: the adapted scene
	//   - error: error if parsing or adaptation fails
	Load(path string) (*scene.Scene, error)
}
