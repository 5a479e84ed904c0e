package ledgerhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/documents"
	"github.com/amsilks/amsilks-erp/internal/ledger"
	"github.com/amsilks/amsilks-erp/internal/platform/httpx"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

const dateLayout = "2006-01-02"

// LedgerService defines the ledger operations used by the handler.
type LedgerService interface {
	RecordReceipt(ctx context.Context, in ledger.ReceiptInput, actor ledger.Actor) (ledger.Entry, error)
	RecordSalesReturn(ctx context.Context, in ledger.ReturnInput, actor ledger.Actor) (ledger.Entry, error)
	RecordPurchase(ctx context.Context, in ledger.SupplierInput, actor ledger.Actor) (ledger.Entry, error)
	RecordSupplierPayment(ctx context.Context, in ledger.SupplierInput, actor ledger.Actor) (ledger.Entry, error)
	UpdateChequeStatus(ctx context.Context, id int64, status ledger.EntryStatus, actor ledger.Actor) (ledger.Entry, error)
	Receipt(ctx context.Context, id int64) (ledger.Entry, error)
	CustomerStatement(ctx context.Context, phone string) (ledger.Statement, error)
	SupplierStatement(ctx context.Context, name string) (ledger.Statement, error)
}

// DocumentRenderer renders ledger documents.
type DocumentRenderer interface {
	VoucherPDF(e ledger.Entry) ([]byte, error)
	StatementPDF(doc documents.StatementDoc) ([]byte, error)
	StatementXLSX(doc documents.StatementDoc) ([]byte, error)
}

// Handler serves receipts, returns, supplier entries and statements.
type Handler struct {
	logger   *slog.Logger
	service  LedgerService
	docs     DocumentRenderer
	validate *validator.Validate
	rbac     rbac.Middleware
	now      func() time.Time
}

// NewHandler constructs the ledger HTTP handler.
func NewHandler(logger *slog.Logger, service LedgerService, docs DocumentRenderer, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		docs:     docs,
		validate: httpx.NewValidator(),
		rbac:     guard,
		now:      time.Now,
	}
}

type receiptRequest struct {
	Date       string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Customer   string          `json:"customer" validate:"required,max=120"`
	Phone      string          `json:"phone" validate:"required,min=6,max=20"`
	Amount     decimal.Decimal `json:"amount"`
	Mode       string          `json:"mode" validate:"required,oneof=Cash Cheque Transfer"`
	ChequeDate string          `json:"cheque_date" validate:"omitempty,datetime=2006-01-02"`
	Reference  string          `json:"reference" validate:"max=60"`
	Note       string          `json:"note" validate:"max=500"`
}

type returnRequest struct {
	Date     string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Customer string          `json:"customer" validate:"required,max=120"`
	Phone    string          `json:"phone" validate:"required,min=6,max=20"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason" validate:"max=500"`
}

type supplierRequest struct {
	Date       string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Supplier   string          `json:"supplier" validate:"required,max=120"`
	Amount     decimal.Decimal `json:"amount"`
	Mode       string          `json:"mode" validate:"omitempty,oneof=Cash Cheque Transfer"`
	ChequeDate string          `json:"cheque_date" validate:"omitempty,datetime=2006-01-02"`
	Reference  string          `json:"reference" validate:"max=60"`
	Note       string          `json:"note" validate:"max=500"`
}

type chequeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Cleared Bounced"`
}

type statementRow struct {
	ledger.StatementRow
	Issue string `json:"issue,omitempty"`
}

type statementResponse struct {
	Kind    ledger.AccountKind `json:"kind"`
	Key     string             `json:"key"`
	Name    string             `json:"name,omitempty"`
	Rows    []statementRow     `json:"rows"`
	Balance decimal.Decimal    `json:"balance"`
	Invalid int                `json:"invalid"`
}

func (h *Handler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !h.decode(w, r, &req) {
		return
	}
	chequeDate := optionalDate(req.ChequeDate)
	entry, err := h.service.RecordReceipt(r.Context(), ledger.ReceiptInput{
		Date:       dateOrZero(req.Date),
		Customer:   req.Customer,
		Phone:      req.Phone,
		Amount:     req.Amount,
		Mode:       ledger.PaymentMode(req.Mode),
		ChequeDate: chequeDate,
		Reference:  req.Reference,
		Note:       req.Note,
	}, actor(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/ledger/receipts/%d/voucher.pdf", entry.ID))
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleVoucher(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.Receipt(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.docs.VoucherPDF(entry)
	if err != nil {
		h.logger.Error("render voucher", slog.Any("error", err), slog.Int64("entry_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.Attachment(w, "application/pdf", entry.Reference+".pdf", pdf)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.service.RecordSalesReturn(r.Context(), ledger.ReturnInput{
		Date:     dateOrZero(req.Date),
		Customer: req.Customer,
		Phone:    req.Phone,
		Amount:   req.Amount,
		Reason:   req.Reason,
	}, actor(r))
	h.respondEntry(w, entry, err)
}

func (h *Handler) handleChequeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req chequeStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.service.UpdateChequeStatus(r.Context(), id, ledger.EntryStatus(req.Status), actor(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.service.RecordPurchase(r.Context(), req.input(), actor(r))
	h.respondEntry(w, entry, err)
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.service.RecordSupplierPayment(r.Context(), req.input(), actor(r))
	h.respondEntry(w, entry, err)
}

func (req supplierRequest) input() ledger.SupplierInput {
	return ledger.SupplierInput{
		Date:       dateOrZero(req.Date),
		Supplier:   req.Supplier,
		Amount:     req.Amount,
		Mode:       ledger.PaymentMode(req.Mode),
		ChequeDate: optionalDate(req.ChequeDate),
		Reference:  req.Reference,
		Note:       req.Note,
	}
}

func (h *Handler) handleCustomerStatement(w http.ResponseWriter, r *http.Request) {
	phone := ledger.NormalizePhone(r.URL.Query().Get("phone"))
	stmt, err := h.service.CustomerStatement(r.Context(), phone)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	name := latestCounterparty(stmt)
	title := phone
	if name != "" {
		title = fmt.Sprintf("%s (%s)", name, phone)
	}
	h.respondStatement(w, r, stmt, phone, name, title)
}

func (h *Handler) handleSupplierStatement(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	stmt, err := h.service.SupplierStatement(r.Context(), name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondStatement(w, r, stmt, name, name, name)
}

func (h *Handler) respondStatement(w http.ResponseWriter, r *http.Request, stmt ledger.Statement, key, name, title string) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	doc := documents.StatementDoc{Title: title, Statement: stmt, AsOf: h.now()}
	filename := fmt.Sprintf("statement-%s-%s", stmt.Kind, fileSafe(key))

	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case "", "json":
		httpx.JSON(w, http.StatusOK, toResponse(stmt, key, name))
		return
	case "pdf":
		body, err = h.docs.StatementPDF(doc)
		contentType = "application/pdf"
	case "xlsx":
		body, err = h.docs.StatementXLSX(doc)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		body, err = documents.StatementCSV(stmt)
		contentType = "text/csv"
	default:
		httpx.RespondError(w, shared.NewFieldError("format", "must be json, pdf, csv or xlsx"))
		return
	}
	if err != nil {
		h.logger.Error("render statement", slog.Any("error", err), slog.String("format", format))
		httpx.RespondError(w, err)
		return
	}
	httpx.Attachment(w, contentType, filename+"."+format, body)
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

func (h *Handler) respondEntry(w http.ResponseWriter, entry ledger.Entry, err error) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func toResponse(stmt ledger.Statement, key, name string) statementResponse {
	rows := make([]statementRow, 0, len(stmt.Rows))
	for _, row := range stmt.Rows {
		rows = append(rows, statementRow{StatementRow: row, Issue: row.Problem()})
	}
	return statementResponse{
		Kind:    stmt.Kind,
		Key:     key,
		Name:    name,
		Rows:    rows,
		Balance: stmt.Balance,
		Invalid: stmt.Invalid,
	}
}

func latestCounterparty(stmt ledger.Statement) string {
	for i := len(stmt.Rows) - 1; i >= 0; i-- {
		if name := strings.TrimSpace(stmt.Rows[i].Entry.Counterparty); name != "" {
			return name
		}
	}
	return ""
}

func actor(r *http.Request) ledger.Actor {
	id, name, _ := shared.CurrentUser(r.Context())
	return ledger.Actor{ID: id, Name: name}
}

// dateOrZero parses a validated date. The service treats zero as today.
func dateOrZero(raw string) time.Time {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func optionalDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ' || r == '_':
			return '-'
		}
		return -1
	}, s)
}
