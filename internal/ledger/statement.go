package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StatementRow pairs an entry with its debit/credit split and the balance
// after applying it. Err is set when the entry could not be interpreted;
// such rows leave the balance unchanged.
type StatementRow struct {
	Entry   Entry           `json:"entry"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Balance decimal.Decimal `json:"balance"`
	Err     error           `json:"-"`
}

// Problem returns the row error as text for rendering.
func (r StatementRow) Problem() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Statement is a derived view over an account's entries.
type Statement struct {
	Kind    AccountKind     `json:"kind"`
	Rows    []StatementRow  `json:"rows"`
	Balance decimal.Decimal `json:"balance"`
	Invalid int             `json:"invalid"`
}

// BuildStatement applies entries in the given order and annotates rows it
// cannot interpret instead of aborting.
func BuildStatement(kind AccountKind, entries []Entry) Statement {
	stmt := Statement{Kind: kind, Rows: make([]StatementRow, 0, len(entries)), Balance: decimal.Zero}
	for _, entry := range entries {
		debit, credit, delta, err := classify(kind, entry)
		row := StatementRow{Entry: entry, Debit: debit, Credit: credit, Err: err}
		if err != nil {
			stmt.Invalid++
		} else {
			stmt.Balance = stmt.Balance.Add(delta)
		}
		row.Balance = stmt.Balance
		stmt.Rows = append(stmt.Rows, row)
	}
	return stmt
}

// BuildStatementStrict is BuildStatement that fails on the first row it
// cannot interpret.
func BuildStatementStrict(kind AccountKind, entries []Entry) (Statement, error) {
	stmt := BuildStatement(kind, entries)
	for _, row := range stmt.Rows {
		if row.Err != nil {
			return Statement{}, row.Err
		}
	}
	return stmt, nil
}

// classify splits an entry into debit/credit columns and its signed
// contribution to the running balance.
//
// customer: Invoice debits and raises the balance; Receipt and Sales Return
// credit and lower it. supplier: Purchase credits and raises the amount owed;
// Payment debits and lowers it.
func classify(kind AccountKind, entry Entry) (debit, credit, delta decimal.Decimal, err error) {
	debit, credit, delta = decimal.Zero, decimal.Zero, decimal.Zero
	if kind != AccountCustomer && kind != AccountSupplier {
		return debit, credit, delta, &DataFormatError{EntryID: entry.ID, Field: "account", Value: string(kind), Reason: "unknown account kind"}
	}
	entryType := ParseEntryType(string(entry.Type))
	if !kind.Accepts(entryType) {
		return debit, credit, delta, &DataFormatError{
			EntryID: entry.ID,
			Field:   "type",
			Value:   string(entry.Type),
			Reason:  fmt.Sprintf("not valid on a %s ledger", kind),
		}
	}
	amount, err := ParseAmount(entry.Amount)
	if err != nil {
		if dfe, ok := err.(*DataFormatError); ok {
			dfe.EntryID = entry.ID
		}
		return debit, credit, delta, err
	}
	switch entryType {
	case EntryInvoice:
		return amount, decimal.Zero, amount, nil
	case EntryReceipt, EntrySalesReturn:
		return decimal.Zero, amount, amount.Neg(), nil
	case EntryPurchase:
		return decimal.Zero, amount, amount, nil
	default:
		return amount, decimal.Zero, amount.Neg(), nil
	}
}
