package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrDataFormat marks stored rows that cannot be interpreted.
var ErrDataFormat = errors.New("ledger: malformed entry")

// DataFormatError describes why a stored row was rejected.
type DataFormatError struct {
	EntryID int64
	Field   string
	Value   string
	Reason  string
}

func (e *DataFormatError) Error() string {
	if e.EntryID > 0 {
		return fmt.Sprintf("entry %d: %s %q: %s", e.EntryID, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets callers match ErrDataFormat with errors.Is.
func (e *DataFormatError) Unwrap() error {
	return ErrDataFormat
}

var spaceCleaner = strings.NewReplacer(" ", "", "\u00a0", "")

// ParseAmount normalises recorded text such as "1,250.50" into a decimal.
// Blank, non-numeric and negative values are rejected, as are commas that
// do not separate groups of three digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	compact := spaceCleaner.Replace(strings.TrimSpace(raw))
	if compact == "" {
		return decimal.Zero, &DataFormatError{Field: "amount", Value: raw, Reason: "missing amount"}
	}
	if !groupedInThousands(compact) {
		return decimal.Zero, &DataFormatError{Field: "amount", Value: raw, Reason: "misplaced thousands separator"}
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(compact, ",", ""))
	if err != nil {
		return decimal.Zero, &DataFormatError{Field: "amount", Value: raw, Reason: "not a number"}
	}
	if amount.IsNegative() {
		return decimal.Zero, &DataFormatError{Field: "amount", Value: raw, Reason: "negative amount"}
	}
	return amount, nil
}

func groupedInThousands(s string) bool {
	whole, fraction, _ := strings.Cut(s, ".")
	if strings.Contains(fraction, ",") {
		return false
	}
	if !strings.Contains(whole, ",") {
		return true
	}
	groups := strings.Split(strings.TrimPrefix(whole, "-"), ",")
	if len(groups[0]) < 1 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// FormatAmount renders a decimal the way entries are stored.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
