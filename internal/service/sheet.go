package service

import (
	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/domain"
)

// LineRef is what a sheet needs to know about a line's referenced material
// or accord.
type LineRef struct {
	Title     string
	Category  domain.Category
	IFRALimit float64
	Missing   bool
}

type SheetRow struct {
	RefID       string
	Kind        domain.LineKind
	Title       string
	Category    domain.Category
	Weight      float64
	Dilution    float64
	Percent     float64
	PurePercent float64
	IFRALimit   float64
	Compliant   bool
	Missing     bool
}

// Sheet is a blend with every derived value filled in. Mutate Snapshot and
// call Recompute to refresh Totals and Rows without touching storage.
type Sheet struct {
	Blend    *domain.Blend
	Snapshot calc.Snapshot
	Totals   calc.Totals
	Rows     []SheetRow
	refs     map[string]LineRef
}

// NewSheet builds a sheet for b. Lines whose reference is absent from refs
// are shown as missing and carry no IFRA limit.
func NewSheet(b *domain.Blend, refs map[string]LineRef) *Sheet {
	limits := make(map[string]float64, len(refs))
	for id, r := range refs {
		limits[id] = r.IFRALimit
	}
	s := &Sheet{Blend: b, Snapshot: b.Snapshot(limits), refs: refs}
	s.Recompute()
	return s
}

func (s *Sheet) Recompute() {
	s.Totals = calc.ComputeTotals(s.Snapshot)
	s.Rows = make([]SheetRow, len(s.Snapshot.Lines))
	for i, l := range s.Snapshot.Lines {
		ref, ok := s.refs[l.RefID]
		if !ok {
			ref = LineRef{Title: "(missing)", Missing: true}
		}
		s.Rows[i] = SheetRow{
			RefID:       l.RefID,
			Kind:        l.Kind,
			Title:       ref.Title,
			Category:    ref.Category,
			Weight:      l.Weight,
			Dilution:    l.Dilution,
			Percent:     s.Totals.LinePercentages[i],
			PurePercent: calc.PurePercent(l, s.Totals),
			IFRALimit:   l.IFRALimit,
			Compliant:   calc.CheckIFRACompliance(l, s.Totals),
			Missing:     ref.Missing,
		}
	}
}

// Compliant reports whether every row is within its IFRA limit.
func (s *Sheet) Compliant() bool {
	for _, r := range s.Rows {
		if !r.Compliant {
			return false
		}
	}
	return true
}

// Ref returns the reference details for refID.
func (s *Sheet) Ref(refID string) (LineRef, bool) {
	r, ok := s.refs[refID]
	return r, ok
}
