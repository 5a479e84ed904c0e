package fabric

import (
	"math"

	"github.com/shopspring/decimal"
)

// Pricing holds the per-item prices captured with a measurement.
type Pricing struct {
	UnitFabricPrice   decimal.Decimal `json:"unit_fabric_price"`
	StitchingPerPiece decimal.Decimal `json:"stitching_per_piece"`
	FixingPerPiece    decimal.Decimal `json:"fixing_per_piece"`
}

// Validate rejects measurements the estimator cannot price.
func Validate(m Measurement) error {
	if m.Kind == KindDirectItem {
		return &ValidationError{Field: "kind", Reason: "direct items are priced manually"}
	}
	if !m.Kind.IsCurtain() && !m.Kind.IsBlind() {
		return &ValidationError{Field: "kind", Reason: "unknown item kind"}
	}
	if !positive(m.WidthCm) {
		return &ValidationError{Field: "width_cm", Reason: "must be greater than zero"}
	}
	if !positive(m.HeightCm) {
		return &ValidationError{Field: "height_cm", Reason: "must be greater than zero"}
	}
	if m.Quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if m.Kind.IsCurtain() {
		if !positive(m.FullnessRatio) {
			return &ValidationError{Field: "fullness_ratio", Reason: "must be greater than zero"}
		}
		if !positive(m.FabricWidthM) {
			return &ValidationError{Field: "fabric_width_m", Reason: "must be greater than zero"}
		}
	}
	return nil
}

// EstimateRequirement computes the fabric needed for one piece of m. A drop
// plus hem equal to the roll width still railroads.
func EstimateRequirement(m Measurement) (Estimate, error) {
	if err := Validate(m); err != nil {
		return Estimate{}, err
	}
	hundred := decimal.NewFromInt(100)
	w := decimal.NewFromFloat(m.WidthCm).Div(hundred)
	h := decimal.NewFromFloat(m.HeightCm).Div(hundred)

	if m.Kind.IsBlind() {
		area := w.Mul(h)
		return Estimate{
			Layout:               LayoutAreaCalc,
			FabricMeters:         meters(decimal.Max(area, decimal.NewFromFloat(CustomerMinAreaM2))),
			SupplierFabricMeters: meters(decimal.Max(area, decimal.NewFromFloat(SupplierMinAreaM2))),
		}, nil
	}

	fabricWidth := decimal.NewFromFloat(m.FabricWidthM)
	requiredHeight := h.Add(decimal.NewFromFloat(HemAllowanceM))
	gathered := w.Mul(decimal.NewFromFloat(m.FullnessRatio))
	if fabricWidth.GreaterThan(decimal.NewFromFloat(RailroadMinFabricWidthM)) && requiredHeight.LessThanOrEqual(fabricWidth) {
		return Estimate{
			Layout:               LayoutRailroad,
			FabricMeters:         meters(gathered),
			SupplierFabricMeters: meters(gathered),
			PanelCount:           1,
		}, nil
	}

	panels := gathered.Div(fabricWidth).Ceil().IntPart()
	if panels < 1 {
		panels = 1
	}
	total := meters(decimal.NewFromInt(panels).Mul(requiredHeight))
	return Estimate{
		Layout:               LayoutVerticalPanels,
		FabricMeters:         total,
		SupplierFabricMeters: total,
		PanelCount:           int(panels),
	}, nil
}

// Cost prices quantity pieces of an estimate. Stitching and fixing only
// apply to curtains.
func Cost(kind Kind, est Estimate, quantity int, p Pricing) decimal.Decimal {
	qty := decimal.NewFromInt(int64(quantity))
	total := decimal.NewFromFloat(est.FabricMeters).Round(meterPlaces).Mul(qty).Mul(p.UnitFabricPrice)
	if kind.IsCurtain() {
		total = total.Add(p.StitchingPerPiece.Mul(qty)).Add(p.FixingPerPiece.Mul(qty))
	}
	return total
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// meterPlaces keeps fabric figures to the millimetre (or 0.0001 m²).
const meterPlaces = 4

func meters(d decimal.Decimal) float64 {
	return d.Round(meterPlaces).InexactFloat64()
}
