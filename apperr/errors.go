// Package apperr defines the error taxonomy shared by ibkit packages.
//
// Each category has a sentinel (for errors.Is) and a typed error carrying
// the details (for errors.As). Typed errors match their sentinel.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputNotFound       = errors.New("input not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrParse               = errors.New("parse error")
	ErrStructural          = errors.New("structural error")
	ErrExternalTool        = errors.New("external tool error")
)

// InputNotFoundError reports a referenced path that does not exist.
type InputNotFoundError struct {
	Path string
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("%s does not exist", e.Path)
}

func (e *InputNotFoundError) Is(target error) bool { return target == ErrInputNotFound }

// UnsupportedFileTypeError reports a single file whose extension is not accepted.
type UnsupportedFileTypeError struct {
	Path     string
	Accepted []string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("%s is not one of %s", e.Path, strings.Join(e.Accepted, ", "))
}

func (e *UnsupportedFileTypeError) Is(target error) bool { return target == ErrUnsupportedFileType }

// ParseError reports a document that could not be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parsing document: %v", e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// StructuralError reports a document that parsed but lacks a required
// element, e.g. a translation unit without a note.
type StructuralError struct {
	UnitID string
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("translation unit %q: %s", e.UnitID, e.Detail)
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

// ExternalToolError reports a failed xcodebuild/ibtool invocation.
type ExternalToolError struct {
	Tool     string
	ExitCode int
	// Signature holds the stdout lines that classified the run as failed.
	Signature []string
	Err       error
}

func (e *ExternalToolError) Error() string {
	switch {
	case len(e.Signature) > 0:
		return fmt.Sprintf("%s: %s", e.Tool, strings.Join(e.Signature, "; "))
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	default:
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

func (e *ExternalToolError) Is(target error) bool { return target == ErrExternalTool }
