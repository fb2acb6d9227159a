package testutil

import (
	"context"

	"3tcapital/ms_ecf_core/internal/core/validation"
)

// MockValidator is a mock implementation of validation.Validator for testing.
type MockValidator struct {
	ValidateFunc func(ctx context.Context, document []byte, schemaRef string) (validation.Result, error)
	Calls        []string
}

// Validate calls the mock function if set, otherwise reports the document as valid.
func (m *MockValidator) Validate(ctx context.Context, document []byte, schemaRef string) (validation.Result, error) {
	m.Calls = append(m.Calls, schemaRef)
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, document, schemaRef)
	}
	return validation.Result{Valid: true, Schema: schemaRef}, nil
}
