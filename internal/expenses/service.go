package expenses

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

// RepositoryPort persists expenses.
type RepositoryPort interface {
	Insert(ctx context.Context, e Expense) (Expense, error)
	List(ctx context.Context, filter Filter) ([]Expense, error)
}

// AuditPort records expense writes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Actor identifies who recorded the expense.
type Actor struct {
	ID   int64
	Name string
}

// Input is an expense as entered.
type Input struct {
	Date     time.Time
	Category string
	Amount   decimal.Decimal
	Note     string
	Project  string
}

// Service records and lists expenses.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
	clock  func() time.Time
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, clock: func() time.Time { return time.Now().UTC() }}
}

// Record validates and stores an expense. A blank project is General.
func (s *Service) Record(ctx context.Context, in Input, actor Actor) (Expense, error) {
	category, err := ParseCategory(in.Category)
	if err != nil {
		return Expense{}, err
	}
	if !in.Amount.IsPositive() {
		return Expense{}, shared.NewFieldError("amount", "must be greater than zero")
	}
	date := in.Date
	if date.IsZero() {
		date = s.clock()
	}
	project := strings.TrimSpace(in.Project)
	if project == "" || strings.EqualFold(project, GeneralProject) {
		project = GeneralProject
	}
	saved, err := s.repo.Insert(ctx, Expense{
		Date:       time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Category:   category,
		Amount:     in.Amount.Round(2),
		Note:       strings.TrimSpace(in.Note),
		Project:    project,
		RecordedBy: actor.Name,
	})
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: record: %w", err)
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "expenses:record",
			Entity:   "expense",
			EntityID: strconv.FormatInt(saved.ID, 10),
			Meta: map[string]any{
				"category": string(saved.Category),
				"amount":   saved.Amount.String(),
				"project":  saved.Project,
			},
		}); err != nil {
			s.logger.Warn("audit expense", slog.Any("error", err), slog.Int64("expense_id", saved.ID))
		}
	}
	return saved, nil
}

// List returns expenses matching filter in date order.
func (s *Service) List(ctx context.Context, filter Filter) ([]Expense, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, shared.NewFieldError("to", "must not be before from")
	}
	return s.repo.List(ctx, filter)
}
