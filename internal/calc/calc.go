// Package calc holds the pure arithmetic behind accord and formula sheets:
// totals, blended concentration, IFRA checks and the two scale operations.
//
// Every function takes a complete Snapshot and returns a new value. Nothing in
// this package keeps state between calls, so callers may recompute on every
// keystroke.
package calc

import (
	"fmt"
	"math"
)

// LineKind distinguishes the two ingredient variants.
type LineKind string

const (
	KindMaterial LineKind = "material"
	KindAccord   LineKind = "accord"
)

// Line is a single weighted ingredient in a blend.
type Line struct {
	RefID    string
	Kind     LineKind
	Weight   float64
	Dilution float64
	// IFRALimit is the maximum percentage of the pure material in the total
	// blend weight. Zero means no limit. Ignored for accord lines.
	IFRALimit float64
}

// Diluent is the carrier added on top of the ingredients. It contributes
// weight but no active substance.
type Diluent struct {
	Name   string
	Weight float64
}

// Snapshot is the immutable input of every calculation.
type Snapshot struct {
	Lines   []Line
	Diluent Diluent
}

// Totals are values derived from a Snapshot. They are never stored.
type Totals struct {
	TotalWeight       float64
	IngredientWeight  float64
	ActiveMass        float64
	FinalDilution     float64
	LinePercentages   []float64
	DiluentPercentage float64
}

// RoundWeight rounds a weight to thousandths of a gram.
func RoundWeight(w float64) float64 {
	return math.Round(w*1000) / 1000
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)
	return Snapshot{Lines: lines, Diluent: s.Diluent}
}

// Validate checks the invariants the calculator relies on. It is meant to be
// called where snapshots are built from user input, not inside the operations.
func (s Snapshot) Validate() error {
	for i, l := range s.Lines {
		if !isFinite(l.Weight) || l.Weight < 0 {
			return fmt.Errorf("%w: line %d (%s) has invalid weight %v", ErrInvalidArgument, i+1, l.RefID, l.Weight)
		}
		if !isFinite(l.Dilution) || l.Dilution <= 0 || l.Dilution > 100 {
			return fmt.Errorf("%w: line %d (%s) has dilution %v outside (0, 100]", ErrInvalidArgument, i+1, l.RefID, l.Dilution)
		}
		if !isFinite(l.IFRALimit) || l.IFRALimit < 0 || l.IFRALimit > 100 {
			return fmt.Errorf("%w: line %d (%s) has IFRA limit %v outside [0, 100]", ErrInvalidArgument, i+1, l.RefID, l.IFRALimit)
		}
	}
	if !isFinite(s.Diluent.Weight) || s.Diluent.Weight < 0 {
		return fmt.Errorf("%w: diluent has invalid weight %v", ErrInvalidArgument, s.Diluent.Weight)
	}
	return nil
}

// ComputeTotals derives total weight, final dilution and per-line shares.
// A snapshot with zero total weight yields zeros everywhere.
func ComputeTotals(s Snapshot) Totals {
	t := Totals{LinePercentages: make([]float64, len(s.Lines))}
	for _, l := range s.Lines {
		t.IngredientWeight += l.Weight
		t.ActiveMass += activeMass(l)
	}
	t.TotalWeight = t.IngredientWeight + s.Diluent.Weight
	if t.TotalWeight <= 0 {
		return t
	}

	t.FinalDilution = t.ActiveMass / t.TotalWeight * 100
	for i, l := range s.Lines {
		t.LinePercentages[i] = l.Weight / t.TotalWeight * 100
	}
	t.DiluentPercentage = s.Diluent.Weight / t.TotalWeight * 100
	return t
}

// ScaleToTotalWeight multiplies every ingredient and the diluent by the same
// factor so the blend weighs target grams. Dilutions are untouched, so the
// final concentration is preserved.
func ScaleToTotalWeight(s Snapshot, target float64) (Snapshot, error) {
	if !isFinite(target) || target <= 0 {
		return s, fmt.Errorf("%w: target total weight must be greater than zero", ErrInvalidArgument)
	}
	total := ComputeTotals(s).TotalWeight
	if total <= 0 {
		return s, ErrInvalidScaleOperation
	}

	factor := target / total
	out := s.Clone()
	for i := range out.Lines {
		out.Lines[i].Weight = RoundWeight(out.Lines[i].Weight * factor)
	}
	out.Diluent.Weight = RoundWeight(out.Diluent.Weight * factor)
	return out, nil
}

// ScaleToTargetDilution solves for the diluent weight that brings the blend to
// target percent of active substance. Ingredient weights and dilutions are
// held fixed. When the ingredients alone are already weaker than the target,
// the input is returned unchanged with ErrUnreachableConcentration. A blend
// without active substance cannot be targeted at all.
func ScaleToTargetDilution(s Snapshot, target float64) (Snapshot, error) {
	if !isFinite(target) || target <= 0 || target > 100 {
		return s, fmt.Errorf("%w: %s", ErrInvalidArgument, dilutionRangeMessage)
	}

	t := ComputeTotals(s)
	if t.ActiveMass <= 0 {
		return s, ErrInvalidScaleOperation
	}
	requiredTotal := t.ActiveMass / (target / 100)
	// Rounded before the sign check so float noise at zero headroom is not
	// reported as unreachable.
	requiredDiluent := RoundWeight(requiredTotal - t.IngredientWeight)
	if requiredDiluent < 0 {
		return s, ErrUnreachableConcentration
	}
	if requiredDiluent == 0 {
		requiredDiluent = 0 // drop negative zero
	}

	out := s.Clone()
	out.Diluent.Weight = requiredDiluent
	return out, nil
}

// PureWeight is the weight of active substance a line contributes, rounded
// to thousandths.
func PureWeight(l Line) float64 {
	return RoundWeight(activeMass(l))
}

// PurePercent is the share of the pure ingredient in the total blend weight.
func PurePercent(l Line, t Totals) float64 {
	if t.TotalWeight <= 0 {
		return 0
	}
	return PureWeight(l) * 100 / t.TotalWeight
}

// CheckIFRACompliance reports whether a material line stays within its IFRA
// limit. Lines without a limit and accord lines are always compliant.
func CheckIFRACompliance(l Line, t Totals) bool {
	if l.Kind == KindAccord || l.IFRALimit == 0 {
		return true
	}
	return PurePercent(l, t) <= l.IFRALimit
}

// FormatPercent renders a percentage for display with two decimals.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

// FormatWeight renders a weight in grams with up to three decimals.
func FormatWeight(w float64) string {
	return fmt.Sprintf("%s g", trimZeros(fmt.Sprintf("%.3f", RoundWeight(w))))
}

func trimZeros(s string) string {
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

func activeMass(l Line) float64 {
	return l.Weight * (l.Dilution / 100)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
