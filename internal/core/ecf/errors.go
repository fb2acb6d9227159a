package ecf

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds carried by BuildError. Match them with errors.Is.
var (
	ErrMissingTypeCode         = errors.New("missing type code")
	ErrUnsupportedDocumentType = errors.New("unsupported document type")
	ErrMissingRequiredField    = errors.New("missing required field")
	ErrMissingRequiredBlock    = errors.New("missing required block")
	ErrInternalBuild           = errors.New("internal build error")
)

// BuildError describes why a document could not be assembled.
type BuildError struct {
	Kind     error
	TypeCode int
	Section  string
	Path     string
	Err      error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString("ecf: ")
	b.WriteString(e.Kind.Error())
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.TypeCode != 0 {
		fmt.Fprintf(&b, " (TipoeCF %d)", e.TypeCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *BuildError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsClientError reports whether err was caused by the caller's input.
// Internal build errors and unknown errors are server faults.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingTypeCode) ||
		errors.Is(err, ErrUnsupportedDocumentType) ||
		errors.Is(err, ErrMissingRequiredField) ||
		errors.Is(err, ErrMissingRequiredBlock)
}

// KindOf returns the short name of the error kind, or "unknown".
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrMissingTypeCode):
		return "MissingTypeCode"
	case errors.Is(err, ErrUnsupportedDocumentType):
		return "UnsupportedDocumentType"
	case errors.Is(err, ErrMissingRequiredField):
		return "MissingRequiredField"
	case errors.Is(err, ErrMissingRequiredBlock):
		return "MissingRequiredBlock"
	case errors.Is(err, ErrInternalBuild):
		return "InternalBuildError"
	default:
		return "unknown"
	}
}
