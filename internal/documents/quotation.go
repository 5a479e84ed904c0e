package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/orders"
)

// ErrRendererUnavailable is returned when no HTML to PDF renderer is configured.
var ErrRendererUnavailable = errors.New("documents: pdf renderer not configured")

// HTMLRenderer converts an HTML page to PDF.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

type quotationLine struct {
	No      int
	Label   string
	Layout  string
	Fabric  string
	Total   decimal.Decimal
	Details string
}

type quotationData struct {
	Business   Business
	Number     string
	Date       time.Time
	ValidUntil time.Time
	Customer   orders.Customer
	Lines      []quotationLine
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	NetTotal   decimal.Decimal
	Advance    decimal.Decimal
	BalanceDue decimal.Decimal
}

// QuotationHTML renders the order as a quotation page.
func (r *Renderer) QuotationHTML(order orders.Order) (string, error) {
	if order.IsEmpty() {
		return "", orders.ErrEmptyCart
	}
	now := r.now()
	data := quotationData{
		Business:   r.business,
		Number:     order.Number,
		Date:       now,
		ValidUntil: now.AddDate(0, 0, 14),
		Customer:   order.Customer,
		Subtotal:   order.Subtotal(),
		Discount:   order.Discount,
		NetTotal:   order.NetTotal(),
		Advance:    order.Advance,
		BalanceDue: order.BalanceDue(),
	}
	if data.Number == "" {
		data.Number = "Q-" + now.Format("20060102-1504")
	}
	for i, line := range order.Lines {
		ql := quotationLine{No: i + 1, Label: line.Label(), Total: line.Total()}
		switch v := line.(type) {
		case orders.CalculatedItem:
			ql.Layout = string(v.Layout)
			ql.Fabric = fmt.Sprintf("%.2f", v.FabricMeters*float64(v.Measurement.Quantity))
			if v.PanelCount > 1 {
				ql.Details = fmt.Sprintf("%d panels", v.PanelCount)
			}
		case orders.DirectItem:
			ql.Details = fmt.Sprintf("%d @ %s", v.Quantity, r.money.Amount(v.UnitPrice))
		}
		data.Lines = append(data.Lines, ql)
	}

	var buf bytes.Buffer
	if err := r.quotation.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("documents: render quotation: %w", err)
	}
	return buf.String(), nil
}

// QuotationPDF renders the quotation page and converts it to PDF.
func (r *Renderer) QuotationPDF(ctx context.Context, order orders.Order) ([]byte, error) {
	if r.html == nil {
		return nil, ErrRendererUnavailable
	}
	page, err := r.QuotationHTML(order)
	if err != nil {
		return nil, err
	}
	pdf, err := r.html.RenderHTML(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("documents: quotation pdf: %w", err)
	}
	return pdf, nil
}
