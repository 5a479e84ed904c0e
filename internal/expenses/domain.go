// Package expenses records shop expenses and partner withdrawals, optionally
// linked to a customer project for job costing.
package expenses

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/shared"
)

// Category classifies an expense.
type Category string

const (
	CategoryRent              Category = "Rent"
	CategorySalary            Category = "Salary"
	CategoryPurchase          Category = "Purchase"
	CategoryOther             Category = "Other"
	CategoryPartnerWithdrawal Category = "Partner Withdrawal"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{CategoryRent, CategorySalary, CategoryPurchase, CategoryOther, CategoryPartnerWithdrawal}

// GeneralProject is the project label for expenses not tied to a customer.
const GeneralProject = "General"

// ParseCategory accepts any casing and underscores for spaces.
func ParseCategory(raw string) (Category, error) {
	cleaned := strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), " ")
	for _, c := range Categories {
		if strings.EqualFold(cleaned, string(c)) {
			return c, nil
		}
	}
	return "", shared.NewFieldError("category", "must be one of Rent, Salary, Purchase, Other, Partner Withdrawal")
}

// IsWithdrawal reports whether c is money taken out by a partner rather than
// an operating cost.
func (c Category) IsWithdrawal() bool { return c == CategoryPartnerWithdrawal }

// Expense is a single recorded outflow.
type Expense struct {
	ID         int64           `json:"id"`
	Date       time.Time       `json:"date"`
	Category   Category        `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	Project    string          `json:"project"`
	RecordedBy string          `json:"recorded_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	From     time.Time
	To       time.Time
	Category Category
	Project  string
}

// Matches reports whether e passes the filter. Dates are inclusive.
func (f Filter) Matches(e Expense) bool {
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Project != "" && !strings.EqualFold(e.Project, f.Project) {
		return false
	}
	return true
}
