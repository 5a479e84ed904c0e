package expenseshttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/amsilks/amsilks-erp/internal/shared"
)

// MountRoutes registers expense endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermExpensesEdit))
		r.Post("/expenses", h.handleCreate)
		r.Get("/expenses", h.handleList)
	})
}
