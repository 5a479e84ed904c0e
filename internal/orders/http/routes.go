package ordershttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/amsilks/amsilks-erp/internal/shared"
)

// MountRoutes registers order endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	pdfLimiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermOrdersEdit))
		r.Post("/orders/estimate", h.handleEstimate)
		r.Get("/orders/cart", h.handleCart)
		r.Delete("/orders/cart", h.handleClear)
		r.Post("/orders/cart/items", h.handleAddItem)
		r.Post("/orders/cart/direct-items", h.handleAddDirectItem)
		r.Delete("/orders/cart/items/{index}", h.handleRemoveItem)
		r.Put("/orders/cart/customer", h.handleSetCustomer)
		r.Put("/orders/cart/terms", h.handleSetTerms)
		r.Post("/orders/cart/save", h.handleSave)
		r.With(pdfLimiter).Get("/orders/cart/quotation.pdf", h.handleQuotation)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermOrdersEdit, shared.PermStatementsView))
		r.Get("/orders/history", h.handleHistory)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if user := strings.TrimSpace(sess.User()); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
