package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/service"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one node in a composition tree.
type TreeItem struct {
	Title  string
	Level  int
	IsLast bool
	Alert  bool
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders items as an indented tree with right-aligned details.
// Alert items are drawn in red.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	maxWidth := 0
	// open[l] is true while level l still has siblings to draw.
	open := map[int]bool{}
	for idx, item := range items {
		var prefix string
		if item.Level > 0 {
			for l := 1; l < item.Level; l++ {
				if open[l] {
					prefix += treePipe
				} else {
					prefix += treeBlank
				}
			}
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
			open[item.Level] = !item.IsLast
		}

		title := item.Title
		if item.Alert {
			title = StyleAlert.Render("✖ " + title)
		}
		contents[idx] = prefix + title
		if w := lipgloss.Width(contents[idx]); w > maxWidth {
			maxWidth = w
		}
	}

	var b strings.Builder
	for idx, item := range items {
		if item.Detail == "" {
			b.WriteString(contents[idx] + "\n")
			continue
		}
		pad := maxWidth - lipgloss.Width(contents[idx])
		b.WriteString(contents[idx] + strings.Repeat(" ", pad) + "  " + StyleBlue.Render(item.Detail) + "\n")
	}
	return b.String()
}

// CompositionTree flattens a formula into a tree: its lines, and under each
// accord line the accord's own lines. accords maps accord IDs to their
// sheets; accords absent from the map are shown without children.
func CompositionTree(root *service.Sheet, accords map[string]*service.Sheet) []TreeItem {
	items := []TreeItem{{
		Title:  root.Blend.DisplayTitle(),
		Detail: fmt.Sprintf("%s at %s", calc.FormatWeight(root.Totals.TotalWeight), calc.FormatPercent(root.Totals.FinalDilution)),
	}}
	for i, r := range root.Rows {
		items = append(items, TreeItem{
			Title:  r.Title,
			Level:  1,
			IsLast: i == len(root.Rows)-1 && root.Snapshot.Diluent.Weight == 0,
			Alert:  !r.Compliant,
			Detail: calc.FormatPercent(r.Percent),
		})
		sub, ok := accords[r.RefID]
		if r.Kind != domain.LineAccord || !ok {
			continue
		}
		for j, sr := range sub.Rows {
			// Share of the accord line, expressed against the whole formula.
			share := sr.Percent * r.Percent / 100
			items = append(items, TreeItem{
				Title:  sr.Title,
				Level:  2,
				IsLast: j == len(sub.Rows)-1,
				Detail: calc.FormatPercent(share),
			})
		}
	}
	if d := root.Snapshot.Diluent; d.Weight > 0 {
		items = append(items, TreeItem{
			Title:  d.Name,
			Level:  1,
			IsLast: true,
			Detail: calc.FormatPercent(root.Totals.DiluentPercentage),
		})
	}
	return items
}
