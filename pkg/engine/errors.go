package engine

import "fmt"

// Engine errors are sum-typed: one struct per failure kind, each
// carrying the offending id or path so the top-level caller can report
// the operation context. Nothing is recovered locally except the
// successor-chase stops documented in normalise.go.

// BuildError reports a builder invocation that failed or did not
// produce a declared output.
type BuildError struct {
	// Builder is the program that was invoked
	Builder string

	// Path is the declared output involved, if any
	Path string

	// Reason describes the failure
	Reason string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	msg := fmt.Sprintf("builder %s: %s", e.Builder, e.Reason)
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// PlatformError reports a derivation whose declared platform does not
// match the engine's.
type PlatformError struct {
	// Want is the platform the derivation requires
	Want string

	// Have is the platform this engine runs on
	Have string
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	return fmt.Sprintf("a %q is required, but this engine is a %q", e.Want, e.Have)
}

// PathExistsError reports a declared output path that already exists
// before the build starts.
type PathExistsError struct {
	Path string
}

// Error implements the error interface.
func (e *PathExistsError) Error() string {
	return fmt.Sprintf("path %s already exists", e.Path)
}

// ObstructedError reports a path occupied by content the engine cannot
// account for: either on disk without a registration, or registered
// under a different id than the slice declares.
type ObstructedError struct {
	Path string
}

// Error implements the error interface.
func (e *ObstructedError) Error() string {
	return fmt.Sprintf("path %s is obstructed", e.Path)
}
