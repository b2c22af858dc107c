package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/service"
)

var sheetAlign = []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight}

// FormatSheet renders an accord or formula with every derived column, the
// diluent and a closing "Final" row. Lines over their IFRA limit are red.
func FormatSheet(s *service.Sheet) string {
	b := s.Blend
	var out strings.Builder

	out.WriteString(Header(b.DisplayTitle()) + "\n")
	meta := []string{KindBadge(string(b.Kind)), StatusPill(b.IsArchived(), b.IsPublished)}
	if b.IsBase {
		meta = append(meta, StyleYellow.Render("base"))
	}
	meta = append(meta, TruncID(b.ID))
	out.WriteString(strings.Join(meta, "  ") + "\n\n")

	out.WriteString(SheetTable(s).Render())

	if summary := complianceSummary(s); summary != "" {
		out.WriteString("\n" + summary + "\n")
	}
	if note := strings.TrimSpace(b.Note); note != "" {
		out.WriteString("\n" + Dim(note) + "\n")
	}
	return out.String()
}

// SheetTable builds the ingredient table of a sheet: one row per line, the
// diluent, and a "Final" footer.
func SheetTable(s *service.Sheet) Table {
	t := Table{
		Headers: []string{"INGREDIENT", "KIND", "CATEGORY", "WEIGHT", "DILUTION", "%", "PURE %", "IFRA"},
		Align:   sheetAlign,
	}
	for _, r := range s.Rows {
		title, pure, limit := r.Title, calc.FormatPercent(r.PurePercent), IFRALimit(r.IFRALimit)
		if r.IFRALimit > 0 {
			limit = calc.FormatPercent(r.IFRALimit)
		}
		switch {
		case r.Missing:
			title = Dim(title)
		case !r.Compliant:
			title, pure, limit = StyleAlert.Render(title), StyleRed.Render(pure), StyleRed.Render(limit)
		}
		t.Rows = append(t.Rows, []string{
			title,
			KindBadge(string(r.Kind)),
			CategoryBadge(r.Category),
			calc.FormatWeight(r.Weight),
			calc.FormatPercent(r.Dilution),
			calc.FormatPercent(r.Percent),
			pure,
			limit,
		})
	}

	d := s.Snapshot.Diluent
	t.Rows = append(t.Rows, []string{
		StyleFg.Render(d.Name),
		Dim("diluent"),
		"",
		calc.FormatWeight(d.Weight),
		"",
		calc.FormatPercent(s.Totals.DiluentPercentage),
		"",
		"",
	})

	share := 0.0
	if s.Totals.TotalWeight > 0 {
		share = 100
	}
	t.Footer = [][]string{{
		Bold("Final"),
		"",
		"",
		Bold(calc.FormatWeight(s.Totals.TotalWeight)),
		Bold(calc.FormatPercent(s.Totals.FinalDilution)),
		calc.FormatPercent(share),
		"",
		"",
	}}
	return t
}

func complianceSummary(s *service.Sheet) string {
	over := 0
	limited := 0
	for _, r := range s.Rows {
		if r.IFRALimit > 0 {
			limited++
		}
		if !r.Compliant {
			over++
		}
	}
	switch {
	case over == 1:
		return StyleAlert.Render("✖ 1 ingredient exceeds its IFRA limit")
	case over > 1:
		return StyleAlert.Render(fmt.Sprintf("✖ %d ingredients exceed their IFRA limits", over))
	case limited > 0:
		return StyleGreen.Render("✔ Within IFRA limits")
	default:
		return ""
	}
}
