package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// DashboardHandlers отдаёт сводку административной панели.
type DashboardHandlers struct {
	reports ReportService
	logger  *log.Entry
}

func (h *DashboardHandlers) Routes(r chi.Router) {
	r.Get("/overview", h.overview)
}

func (h *DashboardHandlers) overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	overview, err := h.reports.Overview(ctx)
	if err != nil {
		writeServiceError(ctx, w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardOverview(overview))
}
