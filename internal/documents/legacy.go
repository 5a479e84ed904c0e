package documents

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/amsilks/amsilks-erp/internal/ledger"
)

// Tabs of the legacy spreadsheet.
const (
	SheetTransactions = "Transactions"
	SheetSuppliers    = "Suppliers"
)

// ErrUnknownSheet is returned for a tab other than Transactions or Suppliers.
var ErrUnknownSheet = errors.New("documents: unknown legacy sheet")

// LegacyIssue is a spreadsheet row that could not be imported.
type LegacyIssue struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (i LegacyIssue) Error() string {
	return fmt.Sprintf("row %d: %s %q: %s", i.Row, i.Field, i.Value, i.Reason)
}

// LegacyImport is the result of reading one sheet. Amounts and types are
// carried verbatim; the ledger decides whether they are usable.
type LegacyImport struct {
	Account ledger.AccountKind
	Entries []ledger.Entry
	Issues  []LegacyIssue
}

var legacyColumns = map[string]string{
	"date":         "date",
	"customer":     "counterparty",
	"suppliername": "counterparty",
	"supplier":     "counterparty",
	"name":         "counterparty",
	"phone":        "phone",
	"type":         "type",
	"amount":       "amount",
	"mode":         "mode",
	"refno":        "reference",
	"ref":          "reference",
	"reference":    "reference",
	"chequedate":   "cheque_date",
	"status":       "status",
	"note":         "note",
	"user":         "recorded_by",
	"recordedby":   "recorded_by",
}

var legacyDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"01-02-06",
}

// ReadLegacyXLSX reads sheet from an exported workbook.
func ReadLegacyXLSX(r io.Reader, sheet string) (LegacyImport, error) {
	account, err := sheetAccount(sheet)
	if err != nil {
		return LegacyImport{}, err
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return LegacyImport{}, fmt.Errorf("documents: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return LegacyImport{}, fmt.Errorf("documents: read sheet %s: %w", sheet, err)
	}
	return parseLegacy(account, rows)
}

// ReadLegacyCSV reads a single sheet exported as CSV.
func ReadLegacyCSV(r io.Reader, sheet string) (LegacyImport, error) {
	account, err := sheetAccount(sheet)
	if err != nil {
		return LegacyImport{}, err
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return LegacyImport{}, fmt.Errorf("documents: read csv: %w", err)
	}
	return parseLegacy(account, rows)
}

func sheetAccount(sheet string) (ledger.AccountKind, error) {
	switch {
	case strings.EqualFold(sheet, SheetTransactions):
		return ledger.AccountCustomer, nil
	case strings.EqualFold(sheet, SheetSuppliers):
		return ledger.AccountSupplier, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSheet, sheet)
	}
}

func parseLegacy(account ledger.AccountKind, rows [][]string) (LegacyImport, error) {
	out := LegacyImport{Account: account}
	if len(rows) == 0 {
		return out, nil
	}
	index := make(map[string]int)
	for i, title := range rows[0] {
		key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(title)))
		if field, ok := legacyColumns[key]; ok {
			if _, dup := index[field]; !dup {
				index[field] = i
			}
		}
	}
	for _, required := range []string{"date", "counterparty", "type", "amount"} {
		if _, ok := index[required]; !ok {
			return LegacyImport{}, fmt.Errorf("documents: legacy sheet has no %s column", required)
		}
	}

	for n, row := range rows[1:] {
		rowNum := n + 2
		get := func(field string) string {
			i, ok := index[field]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if blankRow(row) {
			continue
		}
		rawDate := get("date")
		date, err := parseLegacyDate(rawDate)
		if err != nil {
			out.Issues = append(out.Issues, LegacyIssue{Row: rowNum, Field: "date", Value: rawDate, Reason: err.Error()})
			continue
		}
		entry := ledger.Entry{
			Account:      account,
			Date:         date,
			Counterparty: get("counterparty"),
			Phone:        get("phone"),
			Type:         ledger.EntryType(get("type")),
			Amount:       rawAmount(row, index["amount"]),
			Mode:         ledger.PaymentMode(get("mode")),
			Reference:    get("reference"),
			Status:       ledger.EntryStatus(get("status")),
			Note:         get("note"),
			RecordedBy:   get("recorded_by"),
		}
		if raw := get("cheque_date"); !isNone(raw) {
			cd, err := parseLegacyDate(raw)
			if err != nil {
				out.Issues = append(out.Issues, LegacyIssue{Row: rowNum, Field: "cheque_date", Value: raw, Reason: err.Error()})
				continue
			}
			entry.ChequeDate = &cd
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func rawAmount(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func parseLegacyDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing date")
	}
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.New("unrecognised date")
}

func isNone(raw string) bool {
	switch strings.ToLower(raw) {
	case "", "none", "nan", "n/a", "-":
		return true
	}
	return false
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
