package health

import (
	"net/http"

	apphealth "3tcapital/ms_ecf_core/internal/application/health"
	httperrors "3tcapital/ms_ecf_core/internal/infrastructure/http"
)

// Handler serves the service availability snapshot. A degraded service
// answers 503 so load balancers stop routing to it.
type Handler struct {
	service *apphealth.Service
}

func NewHandler(service *apphealth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())

	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	httperrors.WriteJSON(w, code, status, nil)
}
