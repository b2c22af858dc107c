package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/service"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderUsage renders how much of a limit is used, like [████░░░░] 45%.
// Green below 80% of the limit, yellow up to the limit, red beyond it.
// The bar saturates at the limit; the percentage does not.
func RenderUsage(used, limit float64, width int) string {
	if width < 2 {
		width = 2
	}
	ratio := 0.0
	if limit > 0 {
		ratio = used / limit
	}
	if ratio < 0 {
		ratio = 0
	}

	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case ratio > 1:
		style = StyleRed
	case ratio >= 0.8:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), ratio*100)
}

// FormatIFRAReport lists every line with an IFRA limit and how much of it
// the blend uses.
func FormatIFRAReport(s *service.Sheet) string {
	t := Table{
		Headers: []string{"MATERIAL", "PURE %", "LIMIT", "USAGE"},
		Align:   []Align{AlignLeft, AlignRight, AlignRight, AlignLeft},
	}
	for _, r := range s.Rows {
		if r.IFRALimit == 0 {
			continue
		}
		title := r.Title
		if !r.Compliant {
			title = StyleAlert.Render(title)
		}
		t.Rows = append(t.Rows, []string{
			title,
			calc.FormatPercent(r.PurePercent),
			calc.FormatPercent(r.IFRALimit),
			RenderUsage(r.PurePercent, r.IFRALimit, 20),
		})
	}
	if len(t.Rows) == 0 {
		return Dim("No ingredient in this blend has an IFRA limit.") + "\n"
	}
	return t.Render()
}
