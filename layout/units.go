package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths.
// Layout works in CSS pixels (96 per inch); renderers convert to mm/pt at the boundary.

// Unit represents the original unit of a length value as specified in DSL.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, treated as px
	UnitPX               // CSS pixels
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt, mm and px.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToMm = 25.4 / 96
	MmToPx = 1.0 / PxToMm
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// toMM converts any unit to millimeters; unit-less values count as px.
func (l Length) toMM() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value * PxToMm
	}
}

// To converts this length to target unit.
func (l Length) To(target Unit) float64 {
	if l.Unit == target || (l.Unit == UnitNone && target == UnitPX) {
		return l.Value
	}
	mm := l.toMM()
	switch target {
	case UnitMM:
		return mm
	case UnitCM:
		return mm / 10
	case UnitIN:
		return mm / 25.4
	case UnitPT:
		return mm * MmToPt
	default:
		return mm * MmToPx
	}
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }
func (l Length) ToPX() float64 { return l.To(UnitPX) }

// ParseRawLengthStr parses a DSL length string preserving its unit.
func ParseRawLengthStr(value string) Length {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return Length{Value: 0, Unit: UnitNone}
	}
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{Value: 0, Unit: UnitNone}
	}
	return Length{Value: f, Unit: unit}
}
