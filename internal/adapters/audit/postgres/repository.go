package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/ms_ecf_core/internal/core/audit"
)

const selectColumns = `
	SELECT id, correlation_id, subject, type_code, encf, outcome, error_kind,
	       field_path, error_message, duration_ms, xml_size, request_body, created_at
	FROM ecf_generation_log`

// Repository implements the audit.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL audit repository.
func NewRepository(pool *pgxpool.Pool) audit.Repository {
	return &Repository{pool: pool, log: nil}
}

// NewRepositoryWithLogger creates a new PostgreSQL audit repository with logging.
func NewRepositoryWithLogger(pool *pgxpool.Pool, log *slog.Logger) audit.Repository {
	return &Repository{pool: pool, log: log}
}

// Save persists a generation record. A record without ID gets a fresh UUID.
func (r *Repository) Save(ctx context.Context, record audit.GenerationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return fmt.Errorf("parse generation id: %w", err)
	}

	if r.log != nil {
		r.log.Debug("Attempting to save generation record",
			"generation_id", record.ID,
			"correlation_id", record.CorrelationID,
			"type_code", record.TypeCode,
			"outcome", record.Outcome,
		)
	}

	query := `
		INSERT INTO ecf_generation_log (
			id, correlation_id, subject, type_code, encf, outcome, error_kind,
			field_path, error_message, duration_ms, xml_size, request_body
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	// A nil body must reach the driver as SQL NULL, not as an empty JSON value.
	var requestBody any
	if len(record.RequestBody) > 0 {
		requestBody = []byte(record.RequestBody)
	}

	_, err = r.pool.Exec(ctx, query,
		id,
		record.CorrelationID,
		record.Subject,
		record.TypeCode,
		record.ENCF,
		string(record.Outcome),
		record.ErrorKind,
		record.FieldPath,
		record.ErrorMessage,
		record.DurationMs,
		record.XMLSize,
		requestBody,
	)
	if err != nil {
		errMsg := fmt.Errorf("insert generation record: %w", err)
		if r.log != nil {
			r.log.Error("Failed to insert generation record into database",
				"generation_id", record.ID,
				"correlation_id", record.CorrelationID,
				"type_code", record.TypeCode,
				"error", errMsg,
			)
		}
		return errMsg
	}

	if r.log != nil {
		r.log.Debug("Generation record saved", "generation_id", record.ID)
	}
	return nil
}

// FindByCorrelationID retrieves all records with the given correlation ID, newest first.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.GenerationRecord, error) {
	return r.find(ctx, selectColumns+` WHERE correlation_id = $1 ORDER BY created_at DESC`, correlationID)
}

// FindByENCF retrieves all generation attempts for one receipt number, newest first.
func (r *Repository) FindByENCF(ctx context.Context, encf string) ([]audit.GenerationRecord, error) {
	return r.find(ctx, selectColumns+` WHERE encf = $1 ORDER BY created_at DESC`, encf)
}

func (r *Repository) find(ctx context.Context, query string, arg string) ([]audit.GenerationRecord, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query generation records: %w", err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan generation records: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.CollectableRow) (audit.GenerationRecord, error) {
	var (
		rec     audit.GenerationRecord
		id      uuid.UUID
		outcome string
		body    []byte
	)
	err := row.Scan(
		&id,
		&rec.CorrelationID,
		&rec.Subject,
		&rec.TypeCode,
		&rec.ENCF,
		&outcome,
		&rec.ErrorKind,
		&rec.FieldPath,
		&rec.ErrorMessage,
		&rec.DurationMs,
		&rec.XMLSize,
		&body,
		&rec.CreatedAt,
	)
	if err != nil {
		return rec, err
	}
	rec.ID = id.String()
	rec.Outcome = audit.Outcome(outcome)
	rec.RequestBody = body
	return rec, nil
}
