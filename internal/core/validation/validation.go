package validation

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned by validators that are temporarily refusing work.
var ErrUnavailable = errors.New("validator unavailable")

// Diagnostic is one problem found in a document.
type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// String renders the diagnostic the way it is shown to operators.
func (d Diagnostic) String() string {
	return fmt.Sprintf("Línea %d, Columna %d: %s", d.Line, d.Column, d.Message)
}

// Result is the outcome of validating one document.
type Result struct {
	Valid       bool         `json:"valid"`
	Schema      string       `json:"schema,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Messages returns the diagnostics rendered as strings.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, d.String())
	}
	return out
}

// Validator checks a serialized document against a schema reference.
// The error return is reserved for failures of the validator itself; an
// invalid document is reported through Result.
type Validator interface {
	Validate(ctx context.Context, document []byte, schemaRef string) (Result, error)
}
