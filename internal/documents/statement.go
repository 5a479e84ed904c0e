package documents

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/amsilks/amsilks-erp/internal/ledger"
)

// StatementDoc is a statement plus what to print above it.
type StatementDoc struct {
	Title     string
	Statement ledger.Statement
	AsOf      time.Time
}

var statementHeader = []string{"Date", "Type", "Reference", "Mode", "Debit", "Credit", "Balance", "Issue"}

// StatementPDF renders the statement as an A4 table.
func (r *Renderer) StatementPDF(doc StatementDoc) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, false)
	pdf.AddPage()
	r.letterhead(pdf)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, "Statement of Account: "+doc.Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "As of "+r.asOf(doc).Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	widths := []float64{24, 26, 36, 22, 26, 26, 30}
	pdf.SetFont("Arial", "B", 9)
	for i, title := range statementHeader[:len(widths)] {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range doc.Statement.Rows {
		cells := r.statementCells(row)
		for i := range widths {
			align := "L"
			if i >= 4 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, cells[i], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		if row.Err != nil {
			pdf.SetFont("Arial", "I", 8)
			pdf.CellFormat(0, 5, "Not counted: "+row.Problem(), "LRB", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "", 9)
		}
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, "Closing balance: "+r.money.Format(doc.Statement.Balance), "", 1, "R", false, 0, "")
	if doc.Statement.Invalid > 0 {
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d row(s) could not be read and are excluded from the balance.", doc.Statement.Invalid), "", 1, "R", false, 0, "")
	}
	return output(pdf)
}

// StatementXLSX renders the statement as a workbook with one sheet.
func (r *Renderer) StatementXLSX(doc StatementDoc) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := "Statement"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(sheet, "A1", r.business.Name)
	_ = f.SetCellValue(sheet, "A2", "Statement of Account: "+doc.Title)
	_ = f.SetCellValue(sheet, "A3", "As of "+r.asOf(doc).Format("2006-01-02"))
	if err := f.SetSheetRow(sheet, "A5", &statementHeader); err != nil {
		return nil, err
	}

	for i, row := range doc.Statement.Rows {
		values := []any{
			row.Entry.Date.Format("2006-01-02"),
			string(row.Entry.Type),
			row.Entry.Reference,
			string(row.Entry.Mode),
			numberOrBlank(row.Debit),
			numberOrBlank(row.Credit),
			row.Balance.InexactFloat64(),
			row.Problem(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+6)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	total := len(doc.Statement.Rows) + 7
	_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", total), "Closing balance")
	_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", total), doc.Statement.Balance.InexactFloat64())

	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err == nil {
		_ = f.SetCellStyle(sheet, "E6", fmt.Sprintf("G%d", total), style)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("documents: write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// StatementCSV renders the statement rows as CSV with plain decimal amounts.
func StatementCSV(st ledger.Statement) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(statementHeader); err != nil {
		return nil, err
	}
	for _, row := range st.Rows {
		record := []string{
			row.Entry.Date.Format("2006-01-02"),
			string(row.Entry.Type),
			row.Entry.Reference,
			string(row.Entry.Mode),
			fixedOrBlank(row.Debit),
			fixedOrBlank(row.Credit),
			row.Balance.StringFixed(2),
			row.Problem(),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) statementCells(row ledger.StatementRow) []string {
	blank := func(d decimal.Decimal) string {
		if d.IsZero() {
			return ""
		}
		return r.money.Amount(d)
	}
	return []string{
		row.Entry.Date.Format("2006-01-02"),
		string(row.Entry.Type),
		row.Entry.Reference,
		string(row.Entry.Mode),
		blank(row.Debit),
		blank(row.Credit),
		r.money.Amount(row.Balance),
	}
}

func (r *Renderer) asOf(doc StatementDoc) time.Time {
	if doc.AsOf.IsZero() {
		return r.now()
	}
	return doc.AsOf
}

func numberOrBlank(d decimal.Decimal) any {
	if d.IsZero() {
		return ""
	}
	return d.InexactFloat64()
}

func fixedOrBlank(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
