// Package documents renders vouchers, statements and quotations and reads
// legacy ledger spreadsheets.
package documents

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money formats amounts with thousands separators and two decimals.
type Money struct {
	currency string
	printer  *message.Printer
}

// NewMoney returns a formatter that prefixes amounts with currency.
func NewMoney(currency string) Money {
	return Money{
		currency: strings.TrimSpace(currency),
		printer:  message.NewPrinter(language.English),
	}
}

// Amount renders d as "1,250.00".
func (m Money) Amount(d decimal.Decimal) string {
	return m.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// Format renders d as "QAR 1,250.00", or just the amount without a currency.
func (m Money) Format(d decimal.Decimal) string {
	if m.currency == "" {
		return m.Amount(d)
	}
	return m.currency + " " + m.Amount(d)
}
