// Package orders manages the per-session order cart and saved orders.
package orders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/fabric"
)

// LineKind tags the LineItem variant.
type LineKind string

const (
	LineCalculated LineKind = "calculated"
	LineDirect     LineKind = "direct"
)

// LineItem is either a CalculatedItem or a DirectItem.
type LineItem interface {
	Kind() LineKind
	Total() decimal.Decimal
	Label() string
}

// CalculatedItem is a curtain or blind priced from its measurement. Derived
// fields are set once by NewCalculatedItem.
type CalculatedItem struct {
	Room                 string              `json:"room,omitempty"`
	Measurement          fabric.Measurement  `json:"measurement"`
	Pricing              fabric.Pricing      `json:"pricing"`
	Layout               fabric.LayoutMethod `json:"layout"`
	FabricMeters         float64             `json:"fabric_meters"`
	SupplierFabricMeters float64             `json:"supplier_fabric_meters"`
	PanelCount           int                 `json:"panel_count"`
	TotalCost            decimal.Decimal     `json:"total_cost"`
}

// NewCalculatedItem runs the estimator and prices the result.
func NewCalculatedItem(room string, m fabric.Measurement, p fabric.Pricing) (CalculatedItem, error) {
	est, err := fabric.EstimateRequirement(m)
	if err != nil {
		return CalculatedItem{}, err
	}
	if p.UnitFabricPrice.IsNegative() || p.StitchingPerPiece.IsNegative() || p.FixingPerPiece.IsNegative() {
		return CalculatedItem{}, &fabric.ValidationError{Field: "pricing", Reason: "prices cannot be negative"}
	}
	return CalculatedItem{
		Room:                 strings.TrimSpace(room),
		Measurement:          m,
		Pricing:              p,
		Layout:               est.Layout,
		FabricMeters:         est.FabricMeters,
		SupplierFabricMeters: est.SupplierFabricMeters,
		PanelCount:           est.PanelCount,
		TotalCost:            fabric.Cost(m.Kind, est, m.Quantity, p),
	}, nil
}

func (CalculatedItem) Kind() LineKind { return LineCalculated }

func (c CalculatedItem) Total() decimal.Decimal { return c.TotalCost }

func (c CalculatedItem) Label() string {
	label := fmt.Sprintf("%s %gx%gcm x%d", humanKind(c.Measurement.Kind), c.Measurement.WidthCm, c.Measurement.HeightCm, c.Measurement.Quantity)
	if c.Room != "" {
		label = c.Room + ": " + label
	}
	return label
}

// DirectItem is a manually priced line that bypasses the estimator.
type DirectItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// NewDirectItem validates and prices a manual line.
func NewDirectItem(description string, quantity int, unitPrice decimal.Decimal) (DirectItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return DirectItem{}, &fabric.ValidationError{Field: "description", Reason: "is required"}
	}
	if quantity < 1 {
		return DirectItem{}, &fabric.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if unitPrice.IsNegative() {
		return DirectItem{}, &fabric.ValidationError{Field: "unit_price", Reason: "cannot be negative"}
	}
	return DirectItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalCost:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

func (DirectItem) Kind() LineKind { return LineDirect }

func (d DirectItem) Total() decimal.Decimal { return d.TotalCost }

func (d DirectItem) Label() string { return fmt.Sprintf("%s x%d", d.Description, d.Quantity) }

// Customer identifies who the order is for. Phone is the CRM key.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Order is a cart while unsaved and an immutable record once saved.
type Order struct {
	ID          int64           `json:"id,omitempty"`
	Number      string          `json:"number,omitempty"`
	Customer    Customer        `json:"customer"`
	Lines       []LineItem      `json:"-"`
	Discount    decimal.Decimal `json:"discount"`
	Advance     decimal.Decimal `json:"advance"`
	AdvanceMode string          `json:"advance_mode,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
}

// Subtotal sums line totals.
func (o Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// NetTotal is the subtotal less the discount.
func (o Order) NetTotal() decimal.Decimal {
	return o.Subtotal().Sub(o.Discount)
}

// BalanceDue is what remains after the advance.
func (o Order) BalanceDue() decimal.Decimal {
	return o.NetTotal().Sub(o.Advance)
}

// IsEmpty reports whether the order has no lines.
func (o Order) IsEmpty() bool {
	return len(o.Lines) == 0
}

// FabricMeters totals customer and supplier fabric over calculated lines,
// multiplied by quantity.
func (o Order) FabricMeters() (customer, supplier float64) {
	for _, line := range o.Lines {
		if c, ok := line.(CalculatedItem); ok {
			q := float64(c.Measurement.Quantity)
			customer += c.FabricMeters * q
			supplier += c.SupplierFabricMeters * q
		}
	}
	return customer, supplier
}

type lineEnvelope struct {
	Kind       LineKind        `json:"kind"`
	Calculated *CalculatedItem `json:"calculated,omitempty"`
	Direct     *DirectItem     `json:"direct,omitempty"`
}

type orderAlias Order

type orderJSON struct {
	orderAlias
	Lines      []lineEnvelope  `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	NetTotal   decimal.Decimal `json:"net_total"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

// MarshalJSON writes lines as tagged envelopes plus derived totals.
func (o Order) MarshalJSON() ([]byte, error) {
	lines, err := encodeLines(o.Lines)
	if err != nil {
		return nil, err
	}
	return json.Marshal(orderJSON{
		orderAlias: orderAlias(o),
		Lines:      lines,
		Subtotal:   o.Subtotal(),
		NetTotal:   o.NetTotal(),
		BalanceDue: o.BalanceDue(),
	})
}

// UnmarshalJSON restores tagged lines. Derived totals are recomputed, not read.
func (o *Order) UnmarshalJSON(data []byte) error {
	var raw orderJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	lines, err := decodeLines(raw.Lines)
	if err != nil {
		return err
	}
	*o = Order(raw.orderAlias)
	o.Lines = lines
	return nil
}

func encodeLines(lines []LineItem) ([]lineEnvelope, error) {
	out := make([]lineEnvelope, 0, len(lines))
	for i, line := range lines {
		switch v := line.(type) {
		case CalculatedItem:
			out = append(out, lineEnvelope{Kind: LineCalculated, Calculated: &v})
		case DirectItem:
			out = append(out, lineEnvelope{Kind: LineDirect, Direct: &v})
		default:
			return nil, fmt.Errorf("orders: line %d: unsupported line type %T", i, line)
		}
	}
	return out, nil
}

func decodeLines(envelopes []lineEnvelope) ([]LineItem, error) {
	lines := make([]LineItem, 0, len(envelopes))
	for i, env := range envelopes {
		switch {
		case env.Kind == LineCalculated && env.Calculated != nil:
			lines = append(lines, *env.Calculated)
		case env.Kind == LineDirect && env.Direct != nil:
			lines = append(lines, *env.Direct)
		default:
			return nil, fmt.Errorf("orders: line %d: unknown kind %q", i, env.Kind)
		}
	}
	return lines, nil
}

func humanKind(k fabric.Kind) string {
	parts := strings.Split(strings.ToLower(string(k)), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
