package testutil

import (
	"context"
	"sync"

	"3tcapital/ms_ecf_core/internal/core/audit"
)

// MockAuditRepository is an in-memory implementation of audit.Repository for testing.
type MockAuditRepository struct {
	mu      sync.Mutex
	Records []audit.GenerationRecord
	SaveErr error
}

// Save stores the record unless SaveErr is set.
func (m *MockAuditRepository) Save(_ context.Context, record audit.GenerationRecord) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, record)
	return nil
}

// FindByCorrelationID returns the stored records with the given correlation ID.
func (m *MockAuditRepository) FindByCorrelationID(_ context.Context, correlationID string) ([]audit.GenerationRecord, error) {
	return m.filter(func(r audit.GenerationRecord) bool { return r.CorrelationID == correlationID }), nil
}

// FindByENCF returns the stored records with the given eNCF.
func (m *MockAuditRepository) FindByENCF(_ context.Context, encf string) ([]audit.GenerationRecord, error) {
	return m.filter(func(r audit.GenerationRecord) bool { return r.ENCF == encf }), nil
}

// Saved returns a copy of all stored records.
func (m *MockAuditRepository) Saved() []audit.GenerationRecord {
	return m.filter(func(audit.GenerationRecord) bool { return true })
}

func (m *MockAuditRepository) filter(keep func(audit.GenerationRecord) bool) []audit.GenerationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.GenerationRecord
	for _, r := range m.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
