package wellformed

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"

	"3tcapital/ms_ecf_core/internal/core/validation"
)

// Validator checks that a document is well-formed XML with a single root
// element. It does not load schemas.
type Validator struct {
	log *slog.Logger
}

// New returns a well-formedness validator.
func New(log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{log: log}
}

// Validate scans the document tokens and reports the first syntax error.
func (v *Validator) Validate(ctx context.Context, document []byte, schemaRef string) (validation.Result, error) {
	result := validation.Result{Valid: true, Schema: schemaRef}

	dec := xml.NewDecoder(bytes.NewReader(document))
	depth, roots := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return validation.Result{}, err
		}

		offset := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Valid = false
			result.Diagnostics = append(result.Diagnostics, diagnosticAt(document, dec.InputOffset(), err))
			break
		}

		switch tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					result.Valid = false
					result.Diagnostics = append(result.Diagnostics, diagnosticAt(document, offset, errors.New("extra content at the end of the document")))
				}
			}
			depth++
		case xml.EndElement:
			depth--
		}
		if !result.Valid {
			break
		}
	}

	if result.Valid && roots == 0 {
		result.Valid = false
		result.Diagnostics = append(result.Diagnostics, validation.Diagnostic{Line: 1, Column: 1, Message: "document is empty"})
	}

	v.log.DebugContext(ctx, "well-formedness check finished",
		slog.String("schema", schemaRef),
		slog.Bool("valid", result.Valid),
		slog.Int("diagnostics", len(result.Diagnostics)),
	)
	return result, nil
}

// diagnosticAt maps a byte offset to a 1-based line and column.
func diagnosticAt(document []byte, offset int64, err error) validation.Diagnostic {
	if offset > int64(len(document)) {
		offset = int64(len(document))
	}
	head := document[:offset]
	line := bytes.Count(head, []byte("\n")) + 1
	column := int(offset) - bytes.LastIndexByte(head, '\n')

	msg := err.Error()
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		msg = syntaxErr.Msg
		line = syntaxErr.Line
	}
	return validation.Diagnostic{Line: line, Column: column, Message: msg}
}
