package ordershttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/fabric"
	"github.com/amsilks/amsilks-erp/internal/orders"
	"github.com/amsilks/amsilks-erp/internal/platform/httpx"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

// OrderService is the cart and order contract used by the handler.
type OrderService interface {
	Estimate(m fabric.Measurement) (fabric.Estimate, error)
	Cart(ctx context.Context, sessionID string) (orders.Order, error)
	AddCalculatedItem(ctx context.Context, sessionID, room string, m fabric.Measurement, p fabric.Pricing) (orders.Order, error)
	AddDirectItem(ctx context.Context, sessionID, description string, quantity int, unitPrice decimal.Decimal) (orders.Order, error)
	RemoveItem(ctx context.Context, sessionID string, index int) (orders.Order, error)
	SetCustomer(ctx context.Context, sessionID string, c orders.Customer) (orders.Order, error)
	SetTerms(ctx context.Context, sessionID string, discount, advance decimal.Decimal, advanceMode string) (orders.Order, error)
	Clear(ctx context.Context, sessionID string) error
	Save(ctx context.Context, sessionID, idempotencyKey string, actor orders.Actor) (orders.Order, error)
	History(ctx context.Context, phone string) (orders.History, error)
}

// QuotationRenderer turns a cart into a quotation PDF.
type QuotationRenderer interface {
	QuotationPDF(ctx context.Context, order orders.Order) ([]byte, error)
}

// Handler serves the order entry endpoints.
type Handler struct {
	logger   *slog.Logger
	service  OrderService
	quotes   QuotationRenderer
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler constructs the order HTTP handler.
func NewHandler(logger *slog.Logger, service OrderService, quotes QuotationRenderer, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	v := httpx.NewValidator()
	_ = v.RegisterValidation("fabricwidth", func(fl validator.FieldLevel) bool {
		return fabric.IsStandardWidth(fl.Field().Float())
	})
	return &Handler{logger: logger, service: service, quotes: quotes, validate: v, rbac: guard}
}

type measurementRequest struct {
	Kind          string  `json:"kind" validate:"required"`
	WidthCm       float64 `json:"width_cm" validate:"gt=0"`
	HeightCm      float64 `json:"height_cm" validate:"gt=0"`
	Quantity      int     `json:"quantity" validate:"gte=1"`
	FullnessRatio float64 `json:"fullness_ratio" validate:"gte=0"`
	FabricWidthM  float64 `json:"fabric_width_m" validate:"omitempty,fabricwidth"`
}

func (m measurementRequest) toMeasurement() (fabric.Measurement, error) {
	kind, err := fabric.ParseKind(m.Kind)
	if err != nil {
		return fabric.Measurement{}, err
	}
	if kind == fabric.KindDirectItem {
		return fabric.Measurement{}, &fabric.ValidationError{Field: "kind", Reason: "direct items are added without measurements"}
	}
	return fabric.Measurement{
		Kind:          kind,
		WidthCm:       m.WidthCm,
		HeightCm:      m.HeightCm,
		Quantity:      m.Quantity,
		FullnessRatio: m.FullnessRatio,
		FabricWidthM:  m.FabricWidthM,
	}, nil
}

type calculatedItemRequest struct {
	Room        string             `json:"room" validate:"max=80"`
	Measurement measurementRequest `json:"measurement"`
	Pricing     struct {
		UnitFabricPrice   decimal.Decimal `json:"unit_fabric_price"`
		StitchingPerPiece decimal.Decimal `json:"stitching_per_piece"`
		FixingPerPiece    decimal.Decimal `json:"fixing_per_piece"`
	} `json:"pricing"`
}

type directItemRequest struct {
	Description string          `json:"description" validate:"required,max=200"`
	Quantity    int             `json:"quantity" validate:"gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type customerRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required,min=6,max=20"`
}

type termsRequest struct {
	Discount    decimal.Decimal `json:"discount"`
	Advance     decimal.Decimal `json:"advance"`
	AdvanceMode string          `json:"advance_mode" validate:"omitempty,oneof=Cash Transfer"`
}

func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req measurementRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := req.toMeasurement()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	est, err := h.service.Estimate(m)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, est)
}

func (h *Handler) handleCart(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Cart(r.Context(), sessionID(r))
	h.respondOrder(w, http.StatusOK, order, err)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req calculatedItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := req.Measurement.toMeasurement()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pricing := fabric.Pricing{
		UnitFabricPrice:   req.Pricing.UnitFabricPrice,
		StitchingPerPiece: req.Pricing.StitchingPerPiece,
		FixingPerPiece:    req.Pricing.FixingPerPiece,
	}
	order, err := h.service.AddCalculatedItem(r.Context(), sessionID(r), req.Room, m, pricing)
	h.respondOrder(w, http.StatusCreated, order, err)
}

func (h *Handler) handleAddDirectItem(w http.ResponseWriter, r *http.Request) {
	var req directItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.service.AddDirectItem(r.Context(), sessionID(r), req.Description, req.Quantity, req.UnitPrice)
	h.respondOrder(w, http.StatusCreated, order, err)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.RespondError(w, shared.NewFieldError("index", "must be an integer"))
		return
	}
	order, err := h.service.RemoveItem(r.Context(), sessionID(r), index)
	h.respondOrder(w, http.StatusOK, order, err)
}

func (h *Handler) handleSetCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.service.SetCustomer(r.Context(), sessionID(r), orders.Customer{Name: req.Name, Phone: req.Phone})
	h.respondOrder(w, http.StatusOK, order, err)
}

func (h *Handler) handleSetTerms(w http.ResponseWriter, r *http.Request) {
	var req termsRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.service.SetTerms(r.Context(), sessionID(r), req.Discount, req.Advance, req.AdvanceMode)
	h.respondOrder(w, http.StatusOK, order, err)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), sessionID(r)); err != nil {
		h.serverError(w, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	userID, name, _ := shared.CurrentUser(r.Context())
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	order, err := h.service.Save(r.Context(), sessionID(r), key, orders.Actor{ID: userID, Name: name})
	if err == nil {
		w.Header().Set("Location", "/orders/history?phone="+order.Customer.Phone)
	}
	h.respondOrder(w, http.StatusCreated, order, err)
}

func (h *Handler) handleQuotation(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Cart(r.Context(), sessionID(r))
	if err != nil {
		h.serverError(w, "load cart", err)
		return
	}
	pdf, err := h.quotes.QuotationPDF(r.Context(), order)
	if err != nil {
		h.logger.Warn("quotation pdf", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	name := "quotation.pdf"
	if order.Customer.Name != "" {
		name = fmt.Sprintf("quotation-%s.pdf", slug(order.Customer.Name))
	}
	httpx.Attachment(w, "application/pdf", name, pdf)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, history)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := httpx.Validate(h.validate, dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) respondOrder(w http.ResponseWriter, status int, order orders.Order, err error) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, status, order)
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func sessionID(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.ID
	}
	return ""
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
