// Package reports derives the shop profit and loss and per-project
// profitability from saved orders and recorded expenses.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/expenses"
)

// Period bounds a report. Zero ends are open.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls within the period, comparing whole days.
func (p Period) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if !p.From.IsZero() && d.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && d.After(p.To) {
		return false
	}
	return true
}

// CategoryTotal is the sum of one expense category.
type CategoryTotal struct {
	Category expenses.Category `json:"category"`
	Amount   decimal.Decimal   `json:"amount"`
}

// ProfitAndLoss is the shop-level income statement. Partner withdrawals are
// not operating costs; they reduce what is retained, not the profit.
type ProfitAndLoss struct {
	Period        Period          `json:"period"`
	Orders        int             `json:"orders"`
	Income        decimal.Decimal `json:"income"`
	Expenses      []CategoryTotal `json:"expenses"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	Withdrawals   decimal.Decimal `json:"partner_withdrawals"`
	Retained      decimal.Decimal `json:"retained"`
}

// ProjectProfit compares one customer project's order income with the
// expenses linked to it.
type ProjectProfit struct {
	Project string          `json:"project"`
	Orders  int             `json:"orders"`
	Income  decimal.Decimal `json:"income"`
	Costs   decimal.Decimal `json:"costs"`
	Profit  decimal.Decimal `json:"profit"`
	// Margin is profit over income in percent, empty when there is no income.
	Margin string `json:"margin,omitempty"`
}
