package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/shared"
)

// ErrInvalidStatus indicates a cheque status transition that is not allowed.
var ErrInvalidStatus = fmt.Errorf("ledger: invalid status transition: %w", shared.ErrConflict)

// RepositoryPort defines data access methods for the ledger.
type RepositoryPort interface {
	Append(ctx context.Context, e Entry) (Entry, error)
	AppendBatch(ctx context.Context, entries []Entry) (int, error)
	Get(ctx context.Context, id int64) (Entry, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
	ListDue(ctx context.Context, from, to time.Time) ([]Entry, error)
	UpdateStatus(ctx context.Context, id int64, status EntryStatus) error
}

// AuditPort records ledger writes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Actor identifies who performed a write.
type Actor struct {
	ID   int64
	Name string
}

// ReceiptInput captures money received from a customer.
type ReceiptInput struct {
	Date       time.Time
	Customer   string
	Phone      string
	Amount     decimal.Decimal
	Mode       PaymentMode
	ChequeDate *time.Time
	Reference  string
	Note       string
}

// ReturnInput captures goods returned by a customer.
type ReturnInput struct {
	Date     time.Time
	Customer string
	Phone    string
	Amount   decimal.Decimal
	Reason   string
}

// SupplierInput captures a purchase from, or payment to, a supplier.
type SupplierInput struct {
	Date       time.Time
	Supplier   string
	Amount     decimal.Decimal
	Mode       PaymentMode
	ChequeDate *time.Time
	Reference  string
	Note       string
}

// Service handles ledger business logic.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
	clock  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		audit:  audit,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// RecordReceipt posts a customer receipt. Cheques stay Pending until cleared.
func (s *Service) RecordReceipt(ctx context.Context, in ReceiptInput, actor Actor) (Entry, error) {
	if err := requireCustomer(in.Customer, in.Phone); err != nil {
		return Entry{}, err
	}
	if err := requirePositive(in.Amount); err != nil {
		return Entry{}, err
	}
	status, err := settlementStatus(in.Mode, in.ChequeDate)
	if err != nil {
		return Entry{}, err
	}
	now := s.clock()
	ref := strings.TrimSpace(in.Reference)
	if ref == "" {
		ref = VoucherNumber(now)
	}
	return s.append(ctx, Entry{
		Account:      AccountCustomer,
		Date:         s.dateOrToday(in.Date),
		Counterparty: strings.TrimSpace(in.Customer),
		Phone:        NormalizePhone(in.Phone),
		Type:         EntryReceipt,
		Amount:       FormatAmount(in.Amount),
		Mode:         in.Mode,
		Reference:    ref,
		ChequeDate:   in.ChequeDate,
		Status:       status,
		Note:         strings.TrimSpace(in.Note),
		RecordedBy:   actor.Name,
	}, actor)
}

// RecordSalesReturn posts a credit note against a customer.
func (s *Service) RecordSalesReturn(ctx context.Context, in ReturnInput, actor Actor) (Entry, error) {
	if err := requireCustomer(in.Customer, in.Phone); err != nil {
		return Entry{}, err
	}
	if err := requirePositive(in.Amount); err != nil {
		return Entry{}, err
	}
	return s.append(ctx, Entry{
		Account:      AccountCustomer,
		Date:         s.dateOrToday(in.Date),
		Counterparty: strings.TrimSpace(in.Customer),
		Phone:        NormalizePhone(in.Phone),
		Type:         EntrySalesReturn,
		Amount:       FormatAmount(in.Amount),
		Mode:         ModeCreditNote,
		Status:       StatusCleared,
		Note:         strings.TrimSpace(in.Reason),
		RecordedBy:   actor.Name,
	}, actor)
}

// RecordPurchase posts goods bought on credit from a supplier.
func (s *Service) RecordPurchase(ctx context.Context, in SupplierInput, actor Actor) (Entry, error) {
	if strings.TrimSpace(in.Supplier) == "" {
		return Entry{}, shared.NewFieldError("supplier", "is required")
	}
	if err := requirePositive(in.Amount); err != nil {
		return Entry{}, err
	}
	return s.append(ctx, Entry{
		Account:      AccountSupplier,
		Date:         s.dateOrToday(in.Date),
		Counterparty: strings.TrimSpace(in.Supplier),
		Type:         EntryPurchase,
		Amount:       FormatAmount(in.Amount),
		Mode:         ModeCredit,
		Reference:    strings.TrimSpace(in.Reference),
		Status:       StatusCleared,
		Note:         strings.TrimSpace(in.Note),
		RecordedBy:   actor.Name,
	}, actor)
}

// RecordSupplierPayment posts money paid to a supplier.
func (s *Service) RecordSupplierPayment(ctx context.Context, in SupplierInput, actor Actor) (Entry, error) {
	if strings.TrimSpace(in.Supplier) == "" {
		return Entry{}, shared.NewFieldError("supplier", "is required")
	}
	if err := requirePositive(in.Amount); err != nil {
		return Entry{}, err
	}
	status, err := settlementStatus(in.Mode, in.ChequeDate)
	if err != nil {
		return Entry{}, err
	}
	return s.append(ctx, Entry{
		Account:      AccountSupplier,
		Date:         s.dateOrToday(in.Date),
		Counterparty: strings.TrimSpace(in.Supplier),
		Type:         EntryPayment,
		Amount:       FormatAmount(in.Amount),
		Mode:         in.Mode,
		Reference:    strings.TrimSpace(in.Reference),
		ChequeDate:   in.ChequeDate,
		Status:       status,
		Note:         strings.TrimSpace(in.Note),
		RecordedBy:   actor.Name,
	}, actor)
}

// UpdateChequeStatus clears or bounces a pending cheque.
func (s *Service) UpdateChequeStatus(ctx context.Context, id int64, status EntryStatus, actor Actor) (Entry, error) {
	if status != StatusCleared && status != StatusBounced {
		return Entry{}, shared.NewFieldError("status", "must be Cleared or Bounced")
	}
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if entry.Mode != ModeCheque || entry.Status != StatusPending {
		return Entry{}, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return Entry{}, err
	}
	entry.Status = status
	s.record(ctx, actor, "ledger:cheque_"+strings.ToLower(string(status)), entry)
	return entry, nil
}

// Receipt loads a receipt entry for voucher printing.
func (s *Service) Receipt(ctx context.Context, id int64) (Entry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if entry.Type != EntryReceipt {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// CustomerStatement builds the running balance for a customer phone number.
// Bounced cheques are left out.
func (s *Service) CustomerStatement(ctx context.Context, phone string) (Statement, error) {
	phone = NormalizePhone(phone)
	if phone == "" {
		return Statement{}, shared.NewFieldError("phone", "is required")
	}
	entries, err := s.repo.List(ctx, ListFilter{Account: AccountCustomer, Phone: phone, ExcludeBounced: true})
	if err != nil {
		return Statement{}, fmt.Errorf("ledger: list customer entries: %w", err)
	}
	return s.build(AccountCustomer, phone, entries), nil
}

// SupplierStatement builds the running balance owed to a supplier.
func (s *Service) SupplierStatement(ctx context.Context, name string) (Statement, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Statement{}, shared.NewFieldError("name", "is required")
	}
	entries, err := s.repo.List(ctx, ListFilter{Account: AccountSupplier, Counterparty: name, ExcludeBounced: true})
	if err != nil {
		return Statement{}, fmt.Errorf("ledger: list supplier entries: %w", err)
	}
	return s.build(AccountSupplier, name, entries), nil
}

// Entries lists all entries of one account kind, for reporting.
func (s *Service) Entries(ctx context.Context, kind AccountKind) ([]Entry, error) {
	return s.repo.List(ctx, ListFilter{Account: kind})
}

// Due returns pending cheques and supplier payments falling due in [from, to].
func (s *Service) Due(ctx context.Context, from, to time.Time) ([]Entry, error) {
	return s.repo.ListDue(ctx, from, to)
}

// Import appends legacy rows verbatim. Amounts are not parsed here; rows
// that cannot be interpreted surface later as statement annotations.
func (s *Service) Import(ctx context.Context, entries []Entry, actor Actor) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	for i := range entries {
		e := &entries[i]
		e.Type = ParseEntryType(string(e.Type))
		if !e.Account.Accepts(e.Type) {
			return 0, shared.NewFieldError("type", fmt.Sprintf("row %d: %q is not a %s entry", i+1, e.Type, e.Account))
		}
		if e.Status == "" {
			e.Status = StatusCleared
		}
		if e.Account == AccountCustomer {
			e.Phone = NormalizePhone(e.Phone)
		}
		if e.RecordedBy == "" {
			e.RecordedBy = actor.Name
		}
	}
	n, err := s.repo.AppendBatch(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("ledger: import: %w", err)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "ledger:import",
			Entity:   "ledger_entries",
			EntityID: strconv.Itoa(n),
			Meta:     map[string]any{"rows": n},
		})
	}
	return n, nil
}

func (s *Service) build(kind AccountKind, key string, entries []Entry) Statement {
	stmt := BuildStatement(kind, entries)
	if stmt.Invalid > 0 {
		s.logger.Warn("statement has malformed rows",
			slog.String("kind", string(kind)),
			slog.String("key", key),
			slog.Int("invalid", stmt.Invalid),
		)
	}
	return stmt
}

func (s *Service) append(ctx context.Context, e Entry, actor Actor) (Entry, error) {
	saved, err := s.repo.Append(ctx, e)
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, actor, "ledger:"+strings.ToLower(strings.ReplaceAll(string(saved.Type), " ", "_")), saved)
	return saved, nil
}

func (s *Service) record(ctx context.Context, actor Actor, action string, e Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "ledger_entry",
		EntityID: strconv.FormatInt(e.ID, 10),
		Meta: map[string]any{
			"account":      e.Account,
			"counterparty": e.Counterparty,
			"amount":       e.Amount,
			"status":       e.Status,
		},
	}); err != nil {
		s.logger.Warn("audit ledger write", slog.Any("error", err), slog.Int64("entry_id", e.ID))
	}
}

func (s *Service) dateOrToday(d time.Time) time.Time {
	if d.IsZero() {
		d = s.clock()
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// VoucherNumber formats the receipt voucher reference for t.
func VoucherNumber(t time.Time) string {
	return "REC-" + strconv.FormatInt(t.Unix(), 10)
}

// NormalizePhone keeps the digits of raw, and a leading "+", so lookups
// match regardless of how the number was typed.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	if strings.HasPrefix(raw, "+") {
		b.WriteByte('+')
	}
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.String() == "+" {
		return ""
	}
	return b.String()
}

func requireCustomer(name, phone string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewFieldError("customer", "is required")
	}
	if NormalizePhone(phone) == "" {
		return shared.NewFieldError("phone", "is required")
	}
	return nil
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewFieldError("amount", "must be greater than zero")
	}
	return nil
}

func settlementStatus(mode PaymentMode, chequeDate *time.Time) (EntryStatus, error) {
	switch mode {
	case ModeCash, ModeTransfer:
		return StatusCleared, nil
	case ModeCheque:
		if chequeDate == nil || chequeDate.IsZero() {
			return "", shared.NewFieldError("cheque_date", "is required for cheques")
		}
		return StatusPending, nil
	case "":
		return "", shared.NewFieldError("mode", "is required")
	}
	return "", shared.NewFieldError("mode", "must be Cash, Cheque or Transfer")
}

