package formatter

import (
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// HumanDate renders a calendar date relative to now when close, else absolute.
func HumanDate(t time.Time) string {
	return HumanDateFrom(t, time.Now())
}

func HumanDateFrom(t, now time.Time) string {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "Today"
	}
	y3, m3, d3 := now.AddDate(0, 0, -1).Date()
	if y2 == y3 && m2 == m3 && d2 == d3 {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Pyramid joins note levels as "top/heart".
func Pyramid(levels []domain.PyramidLevel) string {
	if len(levels) == 0 {
		return StyleDim.Render("--")
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, "/")
}

// Dilution renders a dilution percentage without trailing zeros, e.g. "12.5%".
func Dilution(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64) + "%"
}

// Dilutions renders the offered stock dilutions, strongest first.
func Dilutions(ds []float64) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = Dilution(d)
	}
	return strings.Join(parts, ", ")
}

// IFRALimit renders a limit, or "--" when none is configured.
func IFRALimit(limit float64) string {
	if limit == 0 {
		return StyleDim.Render("--")
	}
	return Dilution(limit)
}

// StatusPill marks archived and published catalog entries.
func StatusPill(archived, published bool) string {
	switch {
	case archived:
		return StyleDim.Render("✖ Archived")
	case published:
		return StyleGreen.Render("● Published")
	default:
		return StyleFg.Render("○ Private")
	}
}
