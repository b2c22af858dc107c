package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/service"
)

// FormatMaterialList renders the material catalog inside a bordered box.
func FormatMaterialList(materials []*domain.Material) string {
	if len(materials) == 0 {
		return Dim("No materials yet. Add one with `sillage material add`.") + "\n"
	}
	rows := make([][]string, 0, len(materials))
	for _, m := range materials {
		title := Bold(m.Title)
		if m.IsArchived() {
			title = Dim(m.Title + " (archived)")
		}
		rows = append(rows, []string{
			TruncID(m.ID),
			title,
			CategoryBadge(m.Category),
			Pyramid(m.Pyramid),
			IFRALimit(m.IFRALimit),
			Dilutions(m.Dilutions),
		})
	}
	table := RenderTable([]string{"ID", "TITLE", "CATEGORY", "PYRAMID", "IFRA", "DILUTIONS"}, rows)
	return RenderBox("Materials", table)
}

// FormatMaterialInspect renders every field of a material.
func FormatMaterialInspect(m *domain.Material) string {
	field := func(label, value string) string {
		return fmt.Sprintf("%s  %s\n", StyleDim.Render(fmt.Sprintf("%-10s", label)), value)
	}
	orDash := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return Dim("--")
		}
		return StyleFg.Render(s)
	}

	var b strings.Builder
	b.WriteString(StyleBold.Render(m.Title) + "\n")
	b.WriteString(StatusPill(m.IsArchived(), m.IsPublished) + "\n\n")
	b.WriteString(field("ID", Dim(m.ID)))
	b.WriteString(field("CAS", orDash(m.CAS)))
	b.WriteString(field("ALT NAME", orDash(m.AltName)))
	b.WriteString(field("CATEGORY", CategoryBadge(m.Category)))
	b.WriteString(field("PYRAMID", Pyramid(m.Pyramid)))
	b.WriteString(field("IFRA", IFRALimit(m.IFRALimit)))
	b.WriteString(field("DILUTIONS", Dilutions(m.Dilutions)))
	obtained := Dim("--")
	if m.DateObtained != nil {
		obtained = StyleFg.Render(m.DateObtained.Format("2006-01-02"))
	}
	b.WriteString(field("OBTAINED", obtained))
	b.WriteString(field("UPDATED", StyleFg.Render(HumanDate(m.UpdatedAt))))
	if d := strings.TrimSpace(m.Description); d != "" {
		b.WriteString("\n" + StyleFg.Render(d) + "\n")
	}
	return RenderBox("", b.String())
}

// FormatBlendList renders accords or formulas with their derived totals.
func FormatBlendList(title string, blends []*domain.Blend) string {
	if len(blends) == 0 {
		return Dim(fmt.Sprintf("No %s found.", strings.ToLower(title))) + "\n"
	}
	rows := make([][]string, 0, len(blends))
	for _, b := range blends {
		t := calc.ComputeTotals(b.Snapshot(nil))
		name := Bold(b.DisplayTitle())
		if b.IsBase {
			name += " " + StyleYellow.Render("base")
		}
		rows = append(rows, []string{
			TruncID(b.ID),
			name,
			fmt.Sprintf("%d", len(b.Lines)),
			calc.FormatWeight(t.TotalWeight),
			calc.FormatPercent(t.FinalDilution),
			StatusPill(b.IsArchived(), b.IsPublished),
		})
	}
	table := Table{
		Headers: []string{"ID", "TITLE", "LINES", "WEIGHT", "CONC.", "STATUS"},
		Align:   []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignLeft},
		Rows:    rows,
	}.Render()
	return RenderBox(title, table)
}

// FormatCategoryList renders categories, built-in first.
func FormatCategoryList(categories []*domain.Category) string {
	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		origin := Dim("built-in")
		if c.IsCustom {
			origin = StyleFg.Render("custom")
		}
		rows = append(rows, []string{CategoryBadge(*c), Dim(c.Color), origin})
	}
	return RenderTable([]string{"CATEGORY", "COLOR", "ORIGIN"}, rows)
}

// FormatImportResult summarizes what an import created.
func FormatImportResult(res *service.ImportResult) string {
	var b strings.Builder
	b.WriteString(StyleGreen.Render("✔ Import complete") + "\n")
	b.WriteString(fmt.Sprintf("  materials: %d created, %d reused\n", res.MaterialsCreated, res.MaterialsReused))
	for _, bl := range res.Blends {
		b.WriteString(fmt.Sprintf("  %s %s %s\n", KindBadge(string(bl.Kind)), Bold(bl.DisplayTitle()), TruncID(bl.ID)))
	}
	return b.String()
}
