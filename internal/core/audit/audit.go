package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Outcome classifies how a generation attempt ended.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeClientError   Outcome = "client_error"
	OutcomeInternalError Outcome = "internal_error"
	OutcomeInvalid       Outcome = "invalid"
)

// GenerationRecord represents an audit record for one e-CF generation attempt.
// It captures what was requested and how the build ended, for support and compliance.
type GenerationRecord struct {
	ID            string          `json:"id"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Subject       string          `json:"subject,omitempty"`
	TypeCode      int             `json:"typeCode,omitempty"`
	ENCF          string          `json:"eNCF,omitempty"`
	Outcome       Outcome         `json:"outcome"`
	ErrorKind     string          `json:"errorKind,omitempty"`
	FieldPath     string          `json:"fieldPath,omitempty"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	DurationMs    int64           `json:"durationMs"`
	XMLSize       int             `json:"xmlSize"`
	RequestBody   json.RawMessage `json:"requestBody,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Repository defines the contract for persisting and retrieving generation records.
type Repository interface {
	// Save persists a generation record to storage.
	Save(ctx context.Context, record GenerationRecord) error

	// FindByCorrelationID retrieves all records associated with a correlation ID.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]GenerationRecord, error)

	// FindByENCF retrieves all generation attempts for one receipt number.
	FindByENCF(ctx context.Context, encf string) ([]GenerationRecord, error)
}
