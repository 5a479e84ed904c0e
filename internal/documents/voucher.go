package documents

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/amsilks/amsilks-erp/internal/ledger"
)

// VoucherPDF renders the receipt voucher for a customer Receipt entry.
func (r *Renderer) VoucherPDF(e ledger.Entry) ([]byte, error) {
	if e.Type != ledger.EntryReceipt {
		return nil, fmt.Errorf("documents: entry %d is %s, not a receipt", e.ID, e.Type)
	}
	amount, err := ledger.ParseAmount(e.Amount)
	if err != nil {
		return nil, fmt.Errorf("documents: voucher %d: %w", e.ID, err)
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Receipt "+e.Reference, false)
	pdf.AddPage()
	r.letterhead(pdf)

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "RECEIPT VOUCHER", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Voucher No", e.Reference},
		{"Date", e.Date.Format("2006-01-02")},
		{"Received from", e.Counterparty},
		{"Phone", e.Phone},
		{"Amount", r.money.Format(amount)},
		{"Mode", string(e.Mode)},
	}
	if e.ChequeDate != nil {
		rows = append(rows, [2]string{"Cheque date", e.ChequeDate.Format("2006-01-02")})
	}
	if e.Note != "" {
		rows = append(rows, [2]string{"Note", e.Note})
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, row[1], "1", 1, "L", false, 0, "")
	}

	pdf.Ln(14)
	pdf.CellFormat(60, 6, "Received by: "+e.RecordedBy, "T", 0, "L", false, 0, "")
	return output(pdf)
}

func (r *Renderer) letterhead(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 8, r.business.Name, "", 1, "C", false, 0, "")
	if r.business.Contact != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, r.business.Contact, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("documents: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
