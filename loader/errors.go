package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/meshport/common"
)

// Common errors returned by the dispatcher.
var (
	// ErrUnknownFormat is returned by Load when the file extension (and
	// content sniffing, when enabled) does not identify a supported format.
	// No parser is invoked.
	ErrUnknownFormat = errors.New("unknown model format")

	// ErrUnsupportedFormat is returned when the format is recognized but no
	// backend for it is registered on this Loader. The filesystem is never
	// touched.
	ErrUnsupportedFormat = errors.New("unsupported model format")
)

// ParseError reports that the underlying format parser rejected the file.
// The parser's own error is wrapped verbatim and reachable via Unwrap.
type ParseError struct {
	// Format is the format whose parser failed.
	Format common.Format

	// Path is the file that failed to parse.
	Path string

	// Err is the parser's error.
	Err error
}

// Error implements the error interface.
//
// Returns:
//   - string: the formatted error message
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %q: %v", e.Format, e.Path, e.Err)
}

// Unwrap returns the underlying parser error.
//
// Returns:
//   - error: the wrapped error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// MalformedError reports that an adapter detected a structural invariant
// violation it cannot safely repair (e.g. an index buffer referencing
// nonexistent vertices). Unlike recoverable anomalies, which are downgraded
// to warnings, this fails the whole load.
type MalformedError struct {
	// Format is the format whose adapter detected the violation.
	Format common.Format

	// Path is the file being adapted.
	Path string

	// Err describes the violated invariant.
	Err error
}

// Error implements the error interface.
//
// Returns:
//   - string: the formatted error message
func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: malformed model %q: %v", e.Format, e.Path, e.Err)
}

// Unwrap returns the underlying invariant error.
//
// Returns:
//   - error: the wrapped error
func (e *MalformedError) Unwrap() error {
	return e.Err
}
