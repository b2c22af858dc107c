package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table is an aligned text table. Numeric columns are usually right-aligned
// so decimal points line up.
type Table struct {
	Headers []string
	Align   []Align
	Rows    [][]string
	// Footer rows are drawn below a second separator, e.g. totals.
	Footer [][]string
}

const colGap = 2

// RenderTable renders a left-aligned table with a header separator line.
func RenderTable(headers []string, rows [][]string) string {
	return Table{Headers: headers, Rows: rows}.Render()
}

// Render pads every column to its widest visible cell. Widths are measured
// with lipgloss so styled cells align like plain ones.
func (t Table) Render() string {
	cols := len(t.Headers)
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	for _, row := range t.Footer {
		measure(row)
	}

	var b strings.Builder
	header := make([]string, cols)
	for i, h := range t.Headers {
		header[i] = StyleHeader.Render(h)
	}
	t.writeRow(&b, header, widths)
	t.writeSeparator(&b, widths)
	for _, row := range t.Rows {
		t.writeRow(&b, row, widths)
	}
	if len(t.Footer) > 0 {
		t.writeSeparator(&b, widths)
		for _, row := range t.Footer {
			t.writeRow(&b, row, widths)
		}
	}
	return b.String()
}

func (t Table) align(i int) Align {
	if i < len(t.Align) {
		return t.Align[i]
	}
	return AlignLeft
}

func (t Table) writeRow(b *strings.Builder, row []string, widths []int) {
	cols := len(widths)
	var line strings.Builder
	for i := 0; i < cols; i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := widths[i] - lipgloss.Width(cell)
		if pad < 0 {
			pad = 0
		}
		if t.align(i) == AlignRight {
			line.WriteString(strings.Repeat(" ", pad) + cell)
		} else {
			line.WriteString(cell + strings.Repeat(" ", pad))
		}
		if i < cols-1 {
			line.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString(strings.TrimRight(line.String(), " "))
	b.WriteString("\n")
}

func (t Table) writeSeparator(b *strings.Builder, widths []int) {
	for i, w := range widths {
		b.WriteString(StyleDim.Render(strings.Repeat("─", w)))
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")
}
