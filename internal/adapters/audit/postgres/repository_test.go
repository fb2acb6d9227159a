package postgres

import (
	"context"
	"strings"
	"testing"

	"3tcapital/ms_ecf_core/internal/core/audit"
)

func TestRepository_ImplementsInterface(t *testing.T) {
	var _ audit.Repository = (*Repository)(nil)
}

func TestRepository_Save_RejectsMalformedID(t *testing.T) {
	repo := &Repository{}

	err := repo.Save(context.Background(), audit.GenerationRecord{ID: "not-a-uuid"})
	if err == nil {
		t.Fatal("expected error for malformed id")
	}

	if !strings.HasPrefix(err.Error(), "parse generation id") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSelectColumns_MatchesScanOrder(t *testing.T) {
	columns := []string{
		"id", "correlation_id", "subject", "type_code", "encf", "outcome", "error_kind",
		"field_path", "error_message", "duration_ms", "xml_size", "request_body", "created_at",
	}

	last := -1
	for _, column := range columns {
		idx := strings.Index(selectColumns, column)
		if idx < 0 {
			t.Fatalf("column %q missing from select list", column)
		}
		if idx < last {
			t.Errorf("column %q out of order", column)
		}
		last = idx
	}
}
