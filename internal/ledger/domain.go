// Package ledger records customer and supplier ledger entries and builds
// running-balance statements from them.
package ledger

import (
	"strings"
	"time"
)

// AccountKind selects which sign rules apply to a ledger.
type AccountKind string

const (
	AccountCustomer AccountKind = "customer"
	AccountSupplier AccountKind = "supplier"
)

// EntryType enumerates recorded transaction types.
type EntryType string

const (
	EntryInvoice     EntryType = "Invoice"
	EntryReceipt     EntryType = "Receipt"
	EntrySalesReturn EntryType = "Sales Return"
	EntryPurchase    EntryType = "Purchase"
	EntryPayment     EntryType = "Payment"
)

// ParseEntryType maps stored spellings onto EntryType. Unknown values are
// returned verbatim so the statement builder can flag them.
func ParseEntryType(raw string) EntryType {
	switch strings.ToLower(strings.Join(strings.Fields(raw), " ")) {
	case "invoice":
		return EntryInvoice
	case "receipt":
		return EntryReceipt
	case "sales return", "salesreturn", "sales_return":
		return EntrySalesReturn
	case "purchase":
		return EntryPurchase
	case "payment":
		return EntryPayment
	}
	return EntryType(strings.TrimSpace(raw))
}

// Accepts reports whether entry type t belongs on a ledger of kind k.
func (k AccountKind) Accepts(t EntryType) bool {
	switch k {
	case AccountCustomer:
		return t == EntryInvoice || t == EntryReceipt || t == EntrySalesReturn
	case AccountSupplier:
		return t == EntryPurchase || t == EntryPayment
	}
	return false
}

// PaymentMode is how money changed hands.
type PaymentMode string

const (
	ModeCash       PaymentMode = "Cash"
	ModeCheque     PaymentMode = "Cheque"
	ModeTransfer   PaymentMode = "Transfer"
	ModeCredit     PaymentMode = "Credit"
	ModeCreditNote PaymentMode = "Credit Note"
)

// EntryStatus tracks cheque clearance.
type EntryStatus string

const (
	StatusCleared EntryStatus = "Cleared"
	StatusPending EntryStatus = "Pending"
	StatusBounced EntryStatus = "Bounced"
)

// Entry is one append-only ledger row. Amount is kept as recorded text;
// rows imported from legacy sheets may carry thousands separators.
type Entry struct {
	ID           int64       `json:"id"`
	Account      AccountKind `json:"account"`
	Date         time.Time   `json:"date"`
	Counterparty string      `json:"counterparty"`
	Phone        string      `json:"phone,omitempty"`
	Type         EntryType   `json:"type"`
	Amount       string      `json:"amount"`
	Mode         PaymentMode `json:"mode,omitempty"`
	Reference    string      `json:"reference,omitempty"`
	ChequeDate   *time.Time  `json:"cheque_date,omitempty"`
	Status       EntryStatus `json:"status"`
	Note         string      `json:"note,omitempty"`
	RecordedBy   string      `json:"recorded_by,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// ListFilter narrows the entries returned for a statement.
type ListFilter struct {
	Account        AccountKind
	Phone          string
	Counterparty   string
	ExcludeBounced bool
}
