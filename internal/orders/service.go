package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/fabric"
	"github.com/amsilks/amsilks-erp/internal/ledger"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

var (
	// ErrEmptyCart is returned when saving a cart without lines.
	ErrEmptyCart = shared.NewFieldError("lines", "cart has no items")
	// ErrCustomerRequired is returned when saving a cart without a customer.
	ErrCustomerRequired = shared.NewFieldError("customer", "name and phone are required")
	// ErrNotFound indicates an order or line does not exist.
	ErrNotFound = fmt.Errorf("orders: %w", shared.ErrNotFound)
)

// Repository defines persistence for saved orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindByIdempotencyKey(ctx context.Context, key string) (Order, error)
	ListByPhone(ctx context.Context, phone string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}

// TxRepository exposes transactional operations used by Save.
type TxRepository interface {
	InsertOrder(ctx context.Context, order Order, idempotencyKey string) (Order, error)
	AppendLedger(ctx context.Context, entry ledger.Entry) (ledger.Entry, error)
}

// AuditPort records order saves.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Actor identifies who performed a write.
type Actor = ledger.Actor

// History is the CRM view of one phone number.
type History struct {
	Phone        string          `json:"phone"`
	CustomerName string          `json:"customer_name"`
	Orders       []Order         `json:"orders"`
	Lifetime     decimal.Decimal `json:"lifetime_value"`
}

// Service coordinates cart edits and order saving.
type Service struct {
	repo   Repository
	carts  CartStore
	audit  AuditPort
	logger *slog.Logger
	clock  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, carts CartStore, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		carts:  carts,
		audit:  audit,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Estimate runs the estimator without touching any cart. Curtains entered
// without a fullness ratio get fabric.DefaultFullnessRatio.
func (s *Service) Estimate(m fabric.Measurement) (fabric.Estimate, error) {
	return fabric.EstimateRequirement(withDefaults(m))
}

// Cart returns the session's current cart.
func (s *Service) Cart(ctx context.Context, sessionID string) (Order, error) {
	return s.carts.Load(ctx, sessionID)
}

// AddCalculatedItem estimates m, prices it and appends it to the cart.
func (s *Service) AddCalculatedItem(ctx context.Context, sessionID, room string, m fabric.Measurement, p fabric.Pricing) (Order, error) {
	item, err := NewCalculatedItem(room, withDefaults(m), p)
	if err != nil {
		return Order{}, err
	}
	return s.update(ctx, sessionID, func(o *Order) error {
		o.Lines = append(o.Lines, item)
		return nil
	})
}

// AddDirectItem appends a manually priced line to the cart.
func (s *Service) AddDirectItem(ctx context.Context, sessionID, description string, quantity int, unitPrice decimal.Decimal) (Order, error) {
	item, err := NewDirectItem(description, quantity, unitPrice)
	if err != nil {
		return Order{}, err
	}
	return s.update(ctx, sessionID, func(o *Order) error {
		o.Lines = append(o.Lines, item)
		return nil
	})
}

// RemoveItem drops the line at index.
func (s *Service) RemoveItem(ctx context.Context, sessionID string, index int) (Order, error) {
	return s.update(ctx, sessionID, func(o *Order) error {
		if index < 0 || index >= len(o.Lines) {
			return fmt.Errorf("orders: line %d: %w", index, shared.ErrNotFound)
		}
		lines := make([]LineItem, 0, len(o.Lines)-1)
		lines = append(lines, o.Lines[:index]...)
		o.Lines = append(lines, o.Lines[index+1:]...)
		return nil
	})
}

// SetCustomer records who the cart is for.
func (s *Service) SetCustomer(ctx context.Context, sessionID string, c Customer) (Order, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = ledger.NormalizePhone(c.Phone)
	return s.update(ctx, sessionID, func(o *Order) error {
		o.Customer = c
		return nil
	})
}

// SetTerms records discount and advance payment.
func (s *Service) SetTerms(ctx context.Context, sessionID string, discount, advance decimal.Decimal, advanceMode string) (Order, error) {
	if discount.IsNegative() {
		return Order{}, shared.NewFieldError("discount", "cannot be negative")
	}
	if advance.IsNegative() {
		return Order{}, shared.NewFieldError("advance", "cannot be negative")
	}
	mode := ledger.PaymentMode(strings.TrimSpace(advanceMode))
	if mode == "" {
		mode = ledger.ModeCash
	}
	if mode != ledger.ModeCash && mode != ledger.ModeTransfer {
		return Order{}, shared.NewFieldError("advance_mode", "must be Cash or Transfer")
	}
	return s.update(ctx, sessionID, func(o *Order) error {
		o.Discount = discount
		o.Advance = advance
		o.AdvanceMode = string(mode)
		return nil
	})
}

// Clear discards the session's cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.carts.Clear(ctx, sessionID)
}

// Save persists the cart, posts its Invoice (and advance Receipt) to the
// customer ledger in the same transaction and then clears the cart. A
// repeated idempotency key returns the order saved the first time.
func (s *Service) Save(ctx context.Context, sessionID, idempotencyKey string, actor Actor) (Order, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return Order{}, err
		}
	}

	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return Order{}, err
	}
	if err := validateForSave(cart); err != nil {
		return Order{}, err
	}

	now := s.clock()
	cart.Number = orderNumber(now)
	cart.CreatedAt = now
	cart.CreatedBy = actor.Name
	if cart.AdvanceMode == "" {
		cart.AdvanceMode = string(ledger.ModeCash)
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var saved Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.InsertOrder(ctx, cart, idempotencyKey)
		if err != nil {
			return err
		}
		if _, err := tx.AppendLedger(ctx, ledger.Entry{
			Account:      ledger.AccountCustomer,
			Date:         day,
			Counterparty: order.Customer.Name,
			Phone:        order.Customer.Phone,
			Type:         ledger.EntryInvoice,
			Amount:       ledger.FormatAmount(order.NetTotal()),
			Mode:         ledger.ModeCredit,
			Reference:    order.Number,
			Status:       ledger.StatusCleared,
			RecordedBy:   actor.Name,
		}); err != nil {
			return fmt.Errorf("orders: post invoice: %w", err)
		}
		if order.Advance.IsPositive() {
			if _, err := tx.AppendLedger(ctx, ledger.Entry{
				Account:      ledger.AccountCustomer,
				Date:         day,
				Counterparty: order.Customer.Name,
				Phone:        order.Customer.Phone,
				Type:         ledger.EntryReceipt,
				Amount:       ledger.FormatAmount(order.Advance),
				Mode:         ledger.PaymentMode(order.AdvanceMode),
				Reference:    ledger.VoucherNumber(now),
				Status:       ledger.StatusCleared,
				Note:         "Advance for " + order.Number,
				RecordedBy:   actor.Name,
			}); err != nil {
				return fmt.Errorf("orders: post advance: %w", err)
			}
		}
		saved = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("clear cart after save", slog.Any("error", err), slog.String("order", saved.Number))
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "orders:save",
			Entity:   "order",
			EntityID: strconv.FormatInt(saved.ID, 10),
			Meta: map[string]any{
				"number":    saved.Number,
				"phone":     saved.Customer.Phone,
				"net_total": saved.NetTotal().String(),
				"advance":   saved.Advance.String(),
			},
		})
	}
	s.logger.Info("order saved",
		slog.String("number", saved.Number),
		slog.String("net_total", saved.NetTotal().StringFixed(2)),
		slog.Int("lines", len(saved.Lines)),
	)
	return saved, nil
}

// History returns every order for phone, newest first, with the most
// recently used customer name.
func (s *Service) History(ctx context.Context, phone string) (History, error) {
	phone = ledger.NormalizePhone(phone)
	if phone == "" {
		return History{}, shared.NewFieldError("phone", "is required")
	}
	orders, err := s.repo.ListByPhone(ctx, phone)
	if err != nil {
		return History{}, fmt.Errorf("orders: history: %w", err)
	}
	h := History{Phone: phone, Orders: orders, Lifetime: decimal.Zero}
	for _, o := range orders {
		if h.CustomerName == "" && o.Customer.Name != "" {
			h.CustomerName = o.Customer.Name
		}
		h.Lifetime = h.Lifetime.Add(o.NetTotal())
	}
	if h.Orders == nil {
		h.Orders = []Order{}
	}
	return h, nil
}

// All returns every saved order, for reporting.
func (s *Service) All(ctx context.Context) ([]Order, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) update(ctx context.Context, sessionID string, fn func(*Order) error) (Order, error) {
	order, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return Order{}, err
	}
	if err := fn(&order); err != nil {
		return Order{}, err
	}
	if err := s.carts.Store(ctx, sessionID, order); err != nil {
		return Order{}, err
	}
	return order, nil
}

func validateForSave(o Order) error {
	if o.IsEmpty() {
		return ErrEmptyCart
	}
	if o.Customer.Name == "" || o.Customer.Phone == "" {
		return ErrCustomerRequired
	}
	if o.NetTotal().IsNegative() {
		return shared.NewFieldError("discount", "exceeds the order subtotal")
	}
	if o.Advance.GreaterThan(o.NetTotal()) {
		return shared.NewFieldError("advance", "exceeds the net total")
	}
	return nil
}

func withDefaults(m fabric.Measurement) fabric.Measurement {
	if m.Kind.IsCurtain() && m.FullnessRatio == 0 {
		m.FullnessRatio = fabric.DefaultFullnessRatio
	}
	return m
}

func orderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", t.Format("060102"), strings.ToUpper(uuid.NewString()[:6]))
}
