package ecf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"3tcapital/ms_ecf_core/internal/core/audit"
	coreecf "3tcapital/ms_ecf_core/internal/core/ecf"
	"3tcapital/ms_ecf_core/internal/core/validation"
	ctxutil "3tcapital/ms_ecf_core/internal/infrastructure/context"
	"3tcapital/ms_ecf_core/internal/infrastructure/metrics"
	"3tcapital/ms_ecf_core/internal/infrastructure/security"
)

const (
	tracerName             = "3tcapital/ms_ecf_core/application/ecf"
	defaultWorkers         = 4
	defaultAuditMaxPayload = 64 * 1024
)

// ErrValidationUnavailable is returned when validation is requested but no
// validator is configured.
var ErrValidationUnavailable = errors.New("validation is not configured")

// GenerateInput is one generation request.
type GenerateInput struct {
	Request coreecf.Request
	// Validate runs the configured validator on the produced document.
	Validate bool
	// Subject identifies the authenticated caller, when known.
	Subject string
}

// Result describes one generation attempt. GenerationID is always set, also
// when Generate returns an error.
type Result struct {
	GenerationID string
	Document     *coreecf.Document
	Validation   *validation.Result
	Duration     time.Duration
}

// Invalid reports whether validation ran and rejected the document.
func (r *Result) Invalid() bool {
	return r != nil && r.Validation != nil && !r.Validation.Valid
}

// Option configures a Service.
type Option func(*Service)

// WithValidator enables on-demand validation. name labels metrics and logs.
func WithValidator(name string, v validation.Validator) Option {
	return func(s *Service) {
		s.validator = v
		s.validatorName = name
	}
}

// WithAudit persists every attempt to repo. Payloads are capped at maxPayload bytes.
func WithAudit(repo audit.Repository, maxPayload int) Option {
	return func(s *Service) {
		s.auditRepo = repo
		if maxPayload > 0 {
			s.auditMaxPayload = maxPayload
		}
	}
}

// WithMetrics records build outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithWorkers sets the batch worker pool size.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Service orchestrates e-CF generation use cases.
type Service struct {
	generator       *coreecf.Generator
	validator       validation.Validator // Optional: nil when validation is disabled
	validatorName   string
	auditRepo       audit.Repository // Optional: nil if database not configured
	auditMaxPayload int
	metrics         *metrics.Metrics
	tracer          trace.Tracer
	workers         int
	log             *slog.Logger
}

// NewService creates a generation service around generator.
func NewService(generator *coreecf.Generator, log *slog.Logger, opts ...Option) *Service {
	if generator == nil {
		generator = coreecf.NewGenerator(nil, nil)
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		generator:       generator,
		auditMaxPayload: defaultAuditMaxPayload,
		tracer:          otel.Tracer(tracerName),
		workers:         defaultWorkers,
		log:             log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidationEnabled reports whether a validator is configured.
func (s *Service) ValidationEnabled() bool {
	return s.validator != nil
}

// Workers returns the batch worker pool size.
func (s *Service) Workers() int {
	return s.workers
}

// Generate builds one document and optionally validates it. A document that
// fails validation is not an error: the result carries the diagnostics.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*Result, error) {
	result := &Result{GenerationID: uuid.NewString()}

	ctx, span := s.tracer.Start(ctx, "ecf.Generate", trace.WithAttributes(
		attribute.String("ecf.generation_id", result.GenerationID),
	))
	defer span.End()

	start := time.Now()
	doc, err := s.generator.Generate(in.Request)
	result.Duration = time.Since(start)
	result.Document = doc

	typeCode := typeCodeOf(doc, err, in.Request)
	span.SetAttributes(attribute.Int("ecf.type_code", typeCode))

	if err == nil && in.Validate {
		err = s.validate(ctx, result)
	}

	outcome := outcomeOf(result, err)
	s.observe(ctx, in, result, typeCode, outcome, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, coreecf.KindOf(err))
		return result, err
	}
	if result.Invalid() {
		span.SetStatus(codes.Error, "document failed validation")
	}
	return result, nil
}

func (s *Service) validate(ctx context.Context, result *Result) error {
	if s.validator == nil {
		return ErrValidationUnavailable
	}

	ctx, span := s.tracer.Start(ctx, "ecf.Validate", trace.WithAttributes(
		attribute.String("ecf.validator", s.validatorName),
	))
	defer span.End()

	schema := coreecf.SchemaName(result.Document.TypeCode)
	res, err := s.validator.Validate(ctx, result.Document.XML, schema)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validator failed")
		return fmt.Errorf("validate %s: %w", schema, err)
	}

	span.SetAttributes(attribute.Bool("ecf.valid", res.Valid))
	s.metrics.IncrementValidation(s.validatorName, res.Valid)
	result.Validation = &res
	return nil
}

// observe logs, records metrics and persists the audit record of one attempt.
func (s *Service) observe(ctx context.Context, in GenerateInput, result *Result, typeCode int, outcome audit.Outcome, err error) {
	size := 0
	encf := in.Request.ENCF()
	if result.Document != nil {
		size = len(result.Document.XML)
		encf = result.Document.ENCF
	}

	s.metrics.IncrementOutcome(typeCode, string(outcome))
	s.metrics.ObserveBuild(typeCode, result.Duration, size)

	attrs := []any{
		"generation_id", result.GenerationID,
		"type_code", typeCode,
		"encf", encf,
		"duration_ms", float64(result.Duration.Nanoseconds()) / 1e6,
	}
	if correlationID := ctxutil.GetCorrelationID(ctx); correlationID != "" {
		attrs = append(attrs, "correlation_id", correlationID)
	}

	var buildErr *coreecf.BuildError
	switch outcome {
	case audit.OutcomeSuccess:
		s.log.DebugContext(ctx, "e-CF generated", append(attrs, "bytes", size)...)
	case audit.OutcomeInvalid:
		s.log.InfoContext(ctx, "e-CF failed validation", append(attrs, "diagnostics", result.Validation.Messages())...)
	case audit.OutcomeClientError:
		if errors.As(err, &buildErr) {
			attrs = append(attrs, "error_kind", coreecf.KindOf(err), "field", buildErr.Path)
		}
		s.log.InfoContext(ctx, "e-CF request rejected", append(attrs, "error", err.Error())...)
	default:
		if errors.As(err, &buildErr) {
			attrs = append(attrs, "section", buildErr.Section)
		}
		s.log.ErrorContext(ctx, "e-CF generation failed", append(attrs, "error", err.Error())...)
	}

	s.saveAudit(ctx, in, result, typeCode, encf, size, outcome, err)
}

func (s *Service) saveAudit(ctx context.Context, in GenerateInput, result *Result, typeCode int, encf string, size int, outcome audit.Outcome, err error) {
	if s.auditRepo == nil {
		return
	}

	record := audit.GenerationRecord{
		ID:            result.GenerationID,
		CorrelationID: ctxutil.GetCorrelationID(ctx),
		Subject:       in.Subject,
		TypeCode:      typeCode,
		ENCF:          encf,
		Outcome:       outcome,
		DurationMs:    result.Duration.Milliseconds(),
		XMLSize:       size,
		RequestBody:   security.SanitizePayload(map[string]any(in.Request), s.auditMaxPayload),
		CreatedAt:     time.Now().UTC(),
	}
	if err != nil {
		record.ErrorKind = coreecf.KindOf(err)
		record.ErrorMessage = err.Error()
		var buildErr *coreecf.BuildError
		if errors.As(err, &buildErr) {
			record.FieldPath = buildErr.Path
		}
	}
	if result.Invalid() {
		record.ErrorKind = "SchemaValidation"
		if msgs := result.Validation.Messages(); len(msgs) > 0 {
			record.ErrorMessage = msgs[0]
		}
	}

	// Audit writes outlive request cancellation.
	if saveErr := s.auditRepo.Save(context.WithoutCancel(ctx), record); saveErr != nil {
		s.log.WarnContext(ctx, "failed to save generation audit record",
			"generation_id", result.GenerationID,
			"error", saveErr.Error(),
		)
	}
}

func outcomeOf(result *Result, err error) audit.Outcome {
	switch {
	case err == nil && result.Invalid():
		return audit.OutcomeInvalid
	case err == nil:
		return audit.OutcomeSuccess
	case coreecf.IsClientError(err):
		return audit.OutcomeClientError
	default:
		return audit.OutcomeInternalError
	}
}

// typeCodeOf finds the type code from the document, the error or the request,
// in that order. It returns 0 when none carries one.
func typeCodeOf(doc *coreecf.Document, err error, req coreecf.Request) int {
	if doc != nil {
		return doc.TypeCode
	}
	var buildErr *coreecf.BuildError
	if errors.As(err, &buildErr) && buildErr.TypeCode != 0 {
		return buildErr.TypeCode
	}
	code, _ := coreecf.TypeCode(req)
	return code
}
