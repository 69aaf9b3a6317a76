package loader

import "github.com/Carmen-Shannon/meshport/common"

// LoaderBuilderOption is a functional option for configuring a Loader via
// NewLoader.
type LoaderBuilderOption func(*loader)

// WithFormats is an option builder that restricts the loader to the given
// formats. Load and LoadAs calls for any other format fail with
// ErrUnsupportedFormat at the dispatch point, before any parser runs.
//
// Parameters:
//   - formats: the formats to enable
//
// Returns:
//   - LoaderBuilderOption: a function that applies the format restriction to a loader
func WithFormats(formats ...common.Format) LoaderBuilderOption {
	return func(l *loader) {
		l.enabledFormats = formats
	}
}

// WithoutCache is an option builder that disables the path-keyed scene
// cache, making every Load call re-parse its file.
//
// Returns:
//   - LoaderBuilderOption: a function that disables caching on a loader
func WithoutCache() LoaderBuilderOption {
	return func(l *loader) {
		l.disableCache = true
	}
}

// WithContentSniffing is an option builder that enables magic-byte content
// sniffing for files whose extension is not recognized. Sniffing reads the
// first bytes of the file; the extension fast path is unaffected.
//
// Returns:
//   - LoaderBuilderOption: a function that enables sniffing on a loader
func WithContentSniffing() LoaderBuilderOption {
	return func(l *loader) {
		l.sniffContent = true
	}
}

// WithBatchWorkers is an option builder that sets the worker count of the
// pool backing LoadAll.
//
// Parameters:
//   - workers: the number of concurrent loads (values < 1 are ignored)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithBatchWorkers(workers int) LoaderBuilderOption {
	return func(l *loader) {
		if workers > 0 {
			l.batchWorkers = workers
		}
	}
}
