package ledgerhttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/amsilks/amsilks-erp/internal/shared"
)

// MountRoutes registers ledger, supplier and statement endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLedgerEdit))
		r.Post("/ledger/receipts", h.handleReceipt)
		r.Post("/ledger/returns", h.handleReturn)
		r.Post("/ledger/cheques/{id}/status", h.handleChequeStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLedgerEdit, shared.PermStatementsView))
		r.Get("/ledger/receipts/{id}/voucher.pdf", h.handleVoucher)
	})
	r.With(h.rbac.RequireAny(shared.PermSuppliersPurchase)).Post("/suppliers/purchases", h.handlePurchase)
	r.With(h.rbac.RequireAny(shared.PermSuppliersPay)).Post("/suppliers/payments", h.handlePayment)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermStatementsView))
		r.Get("/statements/customer", h.handleCustomerStatement)
		r.Get("/statements/supplier", h.handleSupplierStatement)
	})
}
