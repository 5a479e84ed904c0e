// Package fabric estimates fabric requirements for curtains and blinds.
package fabric

import (
	"errors"
	"fmt"
	"strings"
)

// Kind enumerates the item kinds an order line can carry.
type Kind string

const (
	KindCurtain      Kind = "CURTAIN"
	KindSheer        Kind = "SHEER"
	KindBlackout     Kind = "BLACKOUT"
	KindHeavyCurtain Kind = "HEAVY_CURTAIN"
	KindRollerBlind  Kind = "ROLLER_BLIND"
	KindRomanBlind   Kind = "ROMAN_BLIND"
	KindWoodenBlind  Kind = "WOODEN_BLIND"
	KindDirectItem   Kind = "DIRECT_ITEM"
)

// LayoutMethod describes how the fabric is cut for an item.
type LayoutMethod string

const (
	LayoutRailroad       LayoutMethod = "RAILROAD"
	LayoutVerticalPanels LayoutMethod = "VERTICAL_PANELS"
	LayoutAreaCalc       LayoutMethod = "AREA_CALC"
	LayoutDirect         LayoutMethod = "DIRECT"
)

const (
	// DefaultFullnessRatio applies when a curtain is entered without a ratio.
	DefaultFullnessRatio = 3.0
	// HemAllowanceM is added to every curtain drop for hem and heading.
	HemAllowanceM = 0.20
	// RailroadMinFabricWidthM is the roll width a railroad cut must exceed.
	RailroadMinFabricWidthM = 2.0
	// CustomerMinAreaM2 is the billed minimum for blinds.
	CustomerMinAreaM2 = 2.0
	// SupplierMinAreaM2 is the supplier's minimum order for blinds.
	SupplierMinAreaM2 = 1.5
)

// StandardFabricWidths lists the roll widths stocked, in meters.
var StandardFabricWidths = []float64{1.4, 2.8, 3.0, 3.1}

// IsStandardWidth reports whether w is one of StandardFabricWidths.
func IsStandardWidth(w float64) bool {
	for _, std := range StandardFabricWidths {
		if w == std {
			return true
		}
	}
	return false
}

var kindsByName = map[Kind]struct{}{
	KindCurtain: {}, KindSheer: {}, KindBlackout: {}, KindHeavyCurtain: {},
	KindRollerBlind: {}, KindRomanBlind: {}, KindWoodenBlind: {}, KindDirectItem: {},
}

// ParseKind normalises user input such as "Roller Blind" or "roller_blind".
func ParseKind(raw string) (Kind, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	k := Kind(normalized)
	if _, ok := kindsByName[k]; !ok {
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown item kind %q", raw)}
	}
	return k, nil
}

// IsCurtain reports whether the kind belongs to the curtain family.
func (k Kind) IsCurtain() bool {
	switch k {
	case KindCurtain, KindSheer, KindBlackout, KindHeavyCurtain:
		return true
	}
	return false
}

// IsBlind reports whether the kind belongs to the blind family.
func (k Kind) IsBlind() bool {
	switch k {
	case KindRollerBlind, KindRomanBlind, KindWoodenBlind:
		return true
	}
	return false
}

// Measurement carries the raw dimensions captured for one opening.
type Measurement struct {
	Kind          Kind    `json:"kind"`
	WidthCm       float64 `json:"width_cm"`
	HeightCm      float64 `json:"height_cm"`
	Quantity      int     `json:"quantity"`
	FullnessRatio float64 `json:"fullness_ratio,omitempty"`
	FabricWidthM  float64 `json:"fabric_width_m,omitempty"`
}

// Estimate is the derived fabric requirement for a single piece.
//
// FabricMeters is the customer-facing figure. For blinds it is square
// meters floored at CustomerMinAreaM2; SupplierFabricMeters carries the
// supplier-facing floor. For curtains both figures are equal.
type Estimate struct {
	Layout               LayoutMethod `json:"layout"`
	FabricMeters         float64      `json:"fabric_meters"`
	SupplierFabricMeters float64      `json:"supplier_fabric_meters"`
	PanelCount           int          `json:"panel_count,omitempty"`
}

// ErrValidation marks inputs rejected before estimation.
var ErrValidation = errors.New("fabric: validation failed")

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match ErrValidation with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// FieldName returns the JSON name of the rejected field.
func (e *ValidationError) FieldName() string {
	return e.Field
}
