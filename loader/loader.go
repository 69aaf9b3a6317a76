// package loader is the public entry point of the library: it dispatches a
// model file to the adapter for its format and returns the canonical Scene.
// Format selection uses the file extension (optionally backed by magic-byte
// sniffing) or an explicit format tag; each format can be toggled off at
// construction time.
package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/meshport/common"
	"github.com/Carmen-Shannon/meshport/scene"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	sceneCache   map[string]*scene.Scene
	disableCache bool

	sniffContent bool

	// Formats requested at construction time; the backend registry is built
	// from this set.
	enabledFormats []common.Format
	backends       map[common.Format]formatBackend

	batchPool    worker.DynamicWorkerPool
	batchOnce    sync.Once
	batchWorkers int
}

// Loader defines the public-facing interface for loading and normalizing 3D
// model files. It selects the adapter for a file's format and manages a
// cache of previously loaded scenes. Scenes are immutable snapshots, so a
// Loader is safe for concurrent use.
type Loader interface {
	// Load imports a model file, inferring the format from the file
	// extension (.obj, .gltf/.glb, .stl, .ply). When content sniffing is
	// enabled, files with unrecognized extensions are identified by their
	// magic bytes before giving up.
	//
	// An unrecognized extension fails with ErrUnknownFormat without
	// invoking any parser; a recognized but disabled format fails with
	// ErrUnsupportedFormat without touching the filesystem.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *scene.Scene: the loaded canonical scene
	//   - error: error if loading fails
	Load(path string) (*scene.Scene, error)

	// LoadAs imports a model file using an explicit format tag, bypassing
	// extension inference. The content is not pre-validated against the
	// tag: a mismatched tag fails with a *ParseError once the underlying
	// parser rejects the bytes. A cached scene is reused only when it was
	// loaded as the same format.
	//
	// Parameters:
	//   - path: the file path to the model file
	//   - format: the explicit format tag
	//
	// Returns:
	//   - *scene.Scene: the loaded canonical scene
	//   - error: error if loading fails
	LoadAs(path string, format common.Format) (*scene.Scene, error)

	// LoadAll imports several model files concurrently over the loader's
	// worker pool. Loads share no mutable state, so this is safe for any
	// mix of formats. The result slice is ordered like the input; the
	// first failing load aborts the batch result.
	//
	// Parameters:
	//   - paths: the file paths to load
	//
	// Returns:
	//   - []*scene.Scene: the loaded scenes, in input order
	//   - error: the first load error, if any
	LoadAll(paths ...string) ([]*scene.Scene, error)

	// Get retrieves a cached scene by path. Returns nil if not cached.
	//
	// Parameters:
	//   - path: the cache key to look up
	//
	// Returns:
	//   - *scene.Scene: the cached scene or nil
	Get(path string) *scene.Scene

	// Formats returns the formats this loader has backends for, in a
	// stable order.
	//
	// Returns:
	//   - []common.Format: the enabled formats
	Formats() []common.Format
}

var _ Loader = &loader{}

// allFormats is the default enabled set.
var allFormats = []common.Format{
	common.FormatOBJ,
	common.FormatGLTF,
	common.FormatSTL,
	common.FormatPLY,
}

// NewLoader creates a new Loader with the provided options applied. By
// default all formats are enabled, caching is on and content sniffing is
// off.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		sceneCache:     make(map[string]*scene.Scene),
		enabledFormats: allFormats,
		batchWorkers:   4,
	}

	for _, option := range options {
		option(l)
	}

	l.backends = make(map[common.Format]formatBackend, len(l.enabledFormats))
	for _, format := range l.enabledFormats {
		switch format {
		case common.FormatOBJ:
			l.backends[format] = newOBJBackend()
		case common.FormatGLTF:
			l.backends[format] = newGLTFBackend()
		case common.FormatSTL:
			l.backends[format] = newSTLBackend()
		case common.FormatPLY:
			l.backends[format] = newPLYBackend()
		}
	}

	return l
}

func (l *loader) Load(path string) (*scene.Scene, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	format, err := l.detectFormat(path)
	if err != nil {
		return nil, err
	}

	return l.loadUncached(path, format)
}

func (l *loader) LoadAs(path string, format common.Format) (*scene.Scene, error) {
	if format == common.FormatUnknown {
		return nil, fmt.Errorf("%w: explicit tag is unknown", ErrUnknownFormat)
	}

	// Reuse the cache only when the cached scene was loaded as the same
	// format; a differently tagged request must go through the parser so a
	// mismatched tag still fails.
	if cached := l.Get(path); cached != nil && cached.Format == format {
		return cached, nil
	}

	return l.loadUncached(path, format)
}

func (l *loader) LoadAll(paths ...string) ([]*scene.Scene, error) {
	// The pool spawns worker goroutines, so it is created on first use
	// rather than in NewLoader; loaders that never batch hold no workers.
	// Queue size of 64 accommodates typical batch sizes with headroom.
	l.batchOnce.Do(func() {
		l.batchPool = worker.NewDynamicWorkerPool(l.batchWorkers, 64, 1*time.Second)
	})

	results := make([]*scene.Scene, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		l.batchPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				results[i], errs[i] = l.Load(path)
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (l *loader) Get(path string) *scene.Scene {
	if l.disableCache {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sceneCache[path]
}

func (l *loader) Formats() []common.Format {
	formats := make([]common.Format, 0, len(l.backends))
	for format := range l.backends {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// loadUncached dispatches to the backend for the given format and caches
// the result.
func (l *loader) loadUncached(path string, format common.Format) (*scene.Scene, error) {
	backend, err := l.resolveBackend(format)
	if err != nil {
		return nil, err
	}

	s, err := backend.Load(path)
	if err != nil {
		return nil, err
	}

	if !l.disableCache {
		l.mu.Lock()
		l.sceneCache[path] = s
		l.mu.Unlock()
	}
	return s, nil
}

// detectFormat infers the format from the file extension, falling back to
// content sniffing when enabled. The sniffing fallback opens the file; the
// pure-extension path never touches the filesystem.
func (l *loader) detectFormat(path string) (common.Format, error) {
	if format := common.FormatFromExtension(filepath.Ext(path)); format != common.FormatUnknown {
		return format, nil
	}

	if l.sniffContent {
		if format, err := sniffFormat(path); err == nil && format != common.FormatUnknown {
			return format, nil
		}
	}

	return common.FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// resolveBackend returns the registered backend for a format, failing with
// ErrUnsupportedFormat at the dispatch point when the format was disabled
// at construction time.
func (l *loader) resolveBackend(format common.Format) (formatBackend, error) {
	backend, ok := l.backends[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return backend, nil
}

// The shared default loader backing the package-level entry points.
var (
	defaultLoader     Loader
	defaultLoaderOnce sync.Once
)

// Default returns the shared default Loader (all formats enabled, caching
// on), creating it on first use.
//
// Returns:
//   - Loader: the shared default loader
func Default() Loader {
	defaultLoaderOnce.Do(func() {
		defaultLoader = NewLoader()
	})
	return defaultLoader
}

// Load imports a model file using the default Loader, inferring the format
// from the file extension.
//
// Parameters:
//   - path: the file path to the model file
//
// Returns:
//   - *scene.Scene: the loaded canonical scene
//   - error: error if loading fails
func Load(path string) (*scene.Scene, error) {
	return Default().Load(path)
}

// LoadAs imports a model file using the default Loader and an explicit
// format tag.
//
// Parameters:
//   - path: the file path to the model file
//   - format: the explicit format tag
//
// Returns:
//   - *scene.Scene: the loaded canonical scene
//   - error: error if loading fails
func LoadAs(path string, format common.Format) (*scene.Scene, error) {
	return Default().LoadAs(path, format)
}
