package ecf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	appecf "3tcapital/ms_ecf_core/internal/application/ecf"
	"3tcapital/ms_ecf_core/internal/core/audit"
	coreecf "3tcapital/ms_ecf_core/internal/core/ecf"
	"3tcapital/ms_ecf_core/internal/core/validation"
	ctxutil "3tcapital/ms_ecf_core/internal/infrastructure/context"
	httperrors "3tcapital/ms_ecf_core/internal/infrastructure/http"
	"3tcapital/ms_ecf_core/internal/infrastructure/http/middleware"
)

// Response headers set on generation endpoints.
const (
	HeaderGenerationID = middleware.GenerationIDHeader
	HeaderType         = "X-ECF-Type"
	HeaderENCF         = "X-ECF-ENCF"
)

// Limits bounds request sizes.
type Limits struct {
	MaxBodyBytes int64
	MaxBatchSize int
}

// Handler bridges HTTP traffic with the e-CF application service.
type Handler struct {
	service   *appecf.Service
	auditRepo audit.Repository // Optional: nil if database not configured
	limits    Limits
	log       *slog.Logger
}

// NewHandler creates a new e-CF HTTP handler.
func NewHandler(service *appecf.Service, auditRepo audit.Repository, limits Limits, log *slog.Logger) *Handler {
	if limits.MaxBodyBytes <= 0 {
		limits.MaxBodyBytes = 5 << 20
	}
	if limits.MaxBatchSize <= 0 {
		limits.MaxBatchSize = 100
	}
	return &Handler{
		service:   service,
		auditRepo: auditRepo,
		limits:    limits,
		log:       log,
	}
}

// ValidationErrorResponse is returned with 422 when a generated document
// does not pass validation.
type ValidationErrorResponse struct {
	Message      string                  `json:"message"`
	Errors       []string                `json:"errors"`
	GenerationID string                  `json:"generationId"`
	Schema       string                  `json:"schema,omitempty"`
	Diagnostics  []validation.Diagnostic `json:"diagnostics"`
}

// BatchItemError describes why one batch entry failed.
type BatchItemError struct {
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// BatchItem is the outcome of one batch entry.
type BatchItem struct {
	Index        int                `json:"index"`
	GenerationID string             `json:"generationId,omitempty"`
	TypeCode     int                `json:"typeCode,omitempty"`
	ENCF         string             `json:"eNCF,omitempty"`
	XML          string             `json:"xml,omitempty"`
	Validation   *validation.Result `json:"validation,omitempty"`
	Error        *BatchItemError    `json:"error,omitempty"`
}

// BatchResponse lists batch outcomes in input order.
type BatchResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []BatchItem `json:"results"`
}

// GenerationsResponse lists audit records.
type GenerationsResponse struct {
	Status  string                   `json:"status"`
	Message string                   `json:"message"`
	Total   int                      `json:"total"`
	Data    []audit.GenerationRecord `json:"data"`
}

// Generate handles POST /api/v1/ecf requests.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	req, err := decodeRequest(r.Header.Get("Content-Type"), body)
	if err != nil {
		h.log.Info("rejected e-CF request body", "correlation_id", ctxutil.GetCorrelationID(r.Context()), "error", err)
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}

	validate, ok := h.validateFlag(w, r)
	if !ok {
		return
	}

	result, err := h.service.Generate(r.Context(), appecf.GenerateInput{
		Request:  req,
		Validate: validate,
		Subject:  middleware.SubjectFromContext(r.Context()),
	})
	if result != nil {
		w.Header().Set(HeaderGenerationID, result.GenerationID)
	}
	if err != nil {
		h.handleError(w, err)
		return
	}

	doc := result.Document
	w.Header().Set(HeaderType, strconv.Itoa(doc.TypeCode))
	if doc.ENCF != "" {
		w.Header().Set(HeaderENCF, doc.ENCF)
	}

	if result.Invalid() {
		httperrors.WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Message:      "Documento Inválido",
			Errors:       result.Validation.Messages(),
			GenerationID: result.GenerationID,
			Schema:       result.Validation.Schema,
			Diagnostics:  result.Validation.Diagnostics,
		}, h.log)
		return
	}

	httperrors.WriteXML(w, http.StatusOK, doc.XML, h.log)
}

// GenerateBatch handles POST /api/v1/ecf/batch requests.
func (h *Handler) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	reqs, err := coreecf.DecodeJSONList(body)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición debe ser un arreglo JSON de documentos"}, h.log)
		return
	}

	if len(reqs) == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El lote no contiene documentos"}, h.log)
		return
	}

	if len(reqs) > h.limits.MaxBatchSize {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación",
			[]string{"El lote excede el máximo de " + strconv.Itoa(h.limits.MaxBatchSize) + " documentos"}, h.log)
		return
	}

	validate, ok := h.validateFlag(w, r)
	if !ok {
		return
	}
	if validate && !h.service.ValidationEnabled() {
		h.handleError(w, appecf.ErrValidationUnavailable)
		return
	}

	subject := middleware.SubjectFromContext(r.Context())
	inputs := make([]appecf.GenerateInput, len(reqs))
	for i, req := range reqs {
		inputs[i] = appecf.GenerateInput{Request: req, Validate: validate, Subject: subject}
	}

	entries, err := h.service.GenerateBatch(r.Context(), inputs)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response := BatchResponse{
		Status:  "200",
		Message: "Exitoso",
		Total:   len(entries),
		Results: make([]BatchItem, 0, len(entries)),
	}
	for _, entry := range entries {
		item := batchItem(entry)
		if item.Error != nil || (item.Validation != nil && !item.Validation.Valid) {
			response.Failed++
		} else {
			response.Succeeded++
		}
		response.Results = append(response.Results, item)
	}
	if response.Failed > 0 {
		response.Message = "Procesado con errores"
	}

	httperrors.WriteJSON(w, http.StatusOK, response, h.log)
}

// Generations handles GET /api/v1/ecf/generaciones requests. Exactly one of
// the correlationId or eNCF query parameters selects the records.
func (h *Handler) Generations(w http.ResponseWriter, r *http.Request) {
	if h.auditRepo == nil {
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio No Disponible", []string{"La auditoría de generación no está configurada"}, h.log)
		return
	}

	query := r.URL.Query()
	correlationID := strings.TrimSpace(query.Get("correlationId"))
	encf := strings.TrimSpace(query.Get("eNCF"))

	var (
		records []audit.GenerationRecord
		err     error
	)
	switch {
	case correlationID != "" && encf != "":
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"Indique correlationId o eNCF, no ambos"}, h.log)
		return
	case correlationID != "":
		records, err = h.auditRepo.FindByCorrelationID(r.Context(), correlationID)
	case encf != "":
		records, err = h.auditRepo.FindByENCF(r.Context(), encf)
	default:
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"correlationId o eNCF es requerido"}, h.log)
		return
	}
	if err != nil {
		h.log.Error("failed to query generation records", "correlation_id", ctxutil.GetCorrelationID(r.Context()), "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
		return
	}

	if records == nil {
		records = []audit.GenerationRecord{}
	}
	httperrors.WriteJSON(w, http.StatusOK, GenerationsResponse{
		Status:  "200",
		Message: "Exitoso",
		Total:   len(records),
		Data:    records,
	}, h.log)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.limits.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httperrors.WriteError(w, http.StatusRequestEntityTooLarge, "Error de Validación",
				[]string{"El cuerpo de la petición excede el tamaño máximo permitido"}, h.log)
			return nil, false
		}
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"No se pudo leer el cuerpo de la petición"}, h.log)
		return nil, false
	}
	if len(body) == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición es requerido"}, h.log)
		return nil, false
	}
	return body, true
}

func (h *Handler) validateFlag(w http.ResponseWriter, r *http.Request) (bool, bool) {
	raw := r.URL.Query().Get("validate")
	if raw == "" {
		return false, true
	}
	validate, err := strconv.ParseBool(raw)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El parámetro validate debe ser true o false"}, h.log)
		return false, false
	}
	return validate, true
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appecf.ErrValidationUnavailable):
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio No Disponible", []string{"La validación de esquema no está configurada"}, h.log)
	case errors.Is(err, validation.ErrUnavailable):
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio No Disponible", []string{"El validador de esquema no está disponible temporalmente"}, h.log)
	case errors.Is(err, context.DeadlineExceeded):
		httperrors.WriteError(w, http.StatusGatewayTimeout, "Tiempo de Espera Agotado", []string{"La generación excedió el tiempo máximo permitido"}, h.log)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		httperrors.WriteBuildError(w, err, h.log)
	}
}

func batchItem(entry appecf.BatchEntry) BatchItem {
	item := BatchItem{Index: entry.Index}
	if entry.Result != nil {
		item.GenerationID = entry.Result.GenerationID
		item.Validation = entry.Result.Validation
		if doc := entry.Result.Document; doc != nil {
			item.TypeCode = doc.TypeCode
			item.ENCF = doc.ENCF
			item.XML = string(doc.XML)
		}
	}
	if entry.Err == nil {
		return item
	}

	item.Error = &BatchItemError{Kind: coreecf.KindOf(entry.Err), Message: entry.Err.Error()}
	var buildErr *coreecf.BuildError
	if errors.As(entry.Err, &buildErr) {
		item.Error.Field = buildErr.Path
		if item.TypeCode == 0 {
			item.TypeCode = buildErr.TypeCode
		}
	}
	switch {
	case errors.Is(entry.Err, appecf.ErrNotProcessed):
		item.Error.Kind = "NotProcessed"
	case !coreecf.IsClientError(entry.Err):
		item.Error.Message = "Ha ocurrido un error interno al generar el documento"
	}
	return item
}

// decodeRequest picks the decoder from the media type; JSON is the default.
func decodeRequest(contentType string, body []byte) (coreecf.Request, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return coreecf.DecodeYAML(body)
	default:
		return coreecf.DecodeJSON(body)
	}
}
