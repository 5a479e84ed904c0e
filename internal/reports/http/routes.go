package reportshttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/amsilks/amsilks-erp/internal/shared"
)

// MountRoutes registers report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermReportsView))
		r.Get("/reports/pl", h.handleProfitAndLoss)
		r.Get("/reports/projects", h.handleProjects)
	})
}
