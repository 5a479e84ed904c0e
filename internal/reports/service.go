package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/amsilks/amsilks-erp/internal/expenses"
	"github.com/amsilks/amsilks-erp/internal/orders"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

// OrderSource lists saved orders.
type OrderSource interface {
	All(ctx context.Context) ([]orders.Order, error)
}

// ExpenseSource lists recorded expenses.
type ExpenseSource interface {
	List(ctx context.Context, filter expenses.Filter) ([]expenses.Expense, error)
}

// Service builds reports.
type Service struct {
	orders   OrderSource
	expenses ExpenseSource
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(orders OrderSource, expenses ExpenseSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orders: orders, expenses: expenses, logger: logger}
}

// ProfitAndLoss sums order net totals against expenses within period.
func (s *Service) ProfitAndLoss(ctx context.Context, period Period) (ProfitAndLoss, error) {
	saved, spent, err := s.load(ctx, period)
	if err != nil {
		return ProfitAndLoss{}, err
	}

	pl := ProfitAndLoss{
		Period:        period,
		Income:        decimal.Zero,
		Expenses:      []CategoryTotal{},
		TotalExpenses: decimal.Zero,
		Withdrawals:   decimal.Zero,
	}
	for _, o := range saved {
		pl.Orders++
		pl.Income = pl.Income.Add(o.NetTotal())
	}

	byCategory := make(map[expenses.Category]decimal.Decimal)
	for _, e := range spent {
		if e.Category.IsWithdrawal() {
			pl.Withdrawals = pl.Withdrawals.Add(e.Amount)
			continue
		}
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
		pl.TotalExpenses = pl.TotalExpenses.Add(e.Amount)
	}
	for _, c := range expenses.Categories {
		if amount, ok := byCategory[c]; ok {
			pl.Expenses = append(pl.Expenses, CategoryTotal{Category: c, Amount: amount})
		}
	}
	pl.NetProfit = pl.Income.Sub(pl.TotalExpenses)
	pl.Retained = pl.NetProfit.Sub(pl.Withdrawals)
	return pl, nil
}

// ProjectProfits groups order income by customer name and sets it against
// the expenses linked to that name. Projects are matched case-insensitively
// and sorted by profit, highest first. General expenses and partner
// withdrawals are not project costs.
func (s *Service) ProjectProfits(ctx context.Context, period Period) ([]ProjectProfit, error) {
	saved, spent, err := s.load(ctx, period)
	if err != nil {
		return nil, err
	}

	projects := make(map[string]*ProjectProfit)
	project := func(name string) *ProjectProfit {
		key := strings.ToLower(strings.TrimSpace(name))
		p, ok := projects[key]
		if !ok {
			p = &ProjectProfit{Project: strings.TrimSpace(name), Income: decimal.Zero, Costs: decimal.Zero}
			projects[key] = p
		}
		return p
	}
	for _, o := range saved {
		if strings.TrimSpace(o.Customer.Name) == "" {
			continue
		}
		p := project(o.Customer.Name)
		p.Orders++
		p.Income = p.Income.Add(o.NetTotal())
	}
	for _, e := range spent {
		if e.Category.IsWithdrawal() || strings.EqualFold(e.Project, expenses.GeneralProject) || strings.TrimSpace(e.Project) == "" {
			continue
		}
		p := project(e.Project)
		p.Costs = p.Costs.Add(e.Amount)
	}

	out := make([]ProjectProfit, 0, len(projects))
	for _, p := range projects {
		p.Profit = p.Income.Sub(p.Costs)
		if p.Income.IsPositive() {
			p.Margin = p.Profit.Div(p.Income).Mul(decimal.NewFromInt(100)).StringFixed(1)
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Profit.Equal(out[j].Profit) {
			return out[i].Profit.GreaterThan(out[j].Profit)
		}
		return out[i].Project < out[j].Project
	})
	return out, nil
}

func (s *Service) load(ctx context.Context, period Period) ([]orders.Order, []expenses.Expense, error) {
	if !period.From.IsZero() && !period.To.IsZero() && period.To.Before(period.From) {
		return nil, nil, shared.NewFieldError("to", "must not be before from")
	}

	var (
		saved []orders.Order
		spent []expenses.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := s.orders.All(gctx)
		if err != nil {
			return fmt.Errorf("reports: load orders: %w", err)
		}
		for _, o := range all {
			if period.Contains(o.CreatedAt) {
				saved = append(saved, o)
			}
		}
		return nil
	})
	g.Go(func() error {
		items, err := s.expenses.List(gctx, expenses.Filter{From: period.From, To: period.To})
		if err != nil {
			return fmt.Errorf("reports: load expenses: %w", err)
		}
		spent = items
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("load report data", slog.Any("error", err))
		return nil, nil, err
	}
	return saved, spent, nil
}
