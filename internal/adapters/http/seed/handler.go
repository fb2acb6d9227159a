package seed

import (
	"log/slog"
	"net/http"

	appseed "3tcapital/ms_ecf_core/internal/application/seed"
	httperrors "3tcapital/ms_ecf_core/internal/infrastructure/http"
)

// Handler serves authentication seeds.
type Handler struct {
	service *appseed.Service
	log     *slog.Logger
}

func NewHandler(service *appseed.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Issue handles GET and POST /api/v1/auth/semilla requests.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	issued, err := h.service.Issue(r.Context())
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, "Error Interno del Servidor", []string{"No se pudo generar la semilla"}, h.log)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httperrors.WriteXML(w, http.StatusOK, issued.XML, h.log)
}
