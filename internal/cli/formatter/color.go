package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
	StyleAlert  = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
)

// CategoryBadge renders a category name in its own color. Categories with
// an unusable color fall back to the dim style.
func CategoryBadge(c domain.Category) string {
	if strings.TrimSpace(c.Name) == "" {
		return StyleDim.Render("--")
	}
	if !strings.HasPrefix(c.Color, "#") {
		return StyleDim.Render(c.Name)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render(c.Name)
}

// KindBadge labels a blend or line kind.
func KindBadge(kind string) string {
	switch kind {
	case string(domain.BlendAccord):
		return StylePurple.Render("accord")
	case string(domain.BlendFormula):
		return StyleBlue.Render("formula")
	case string(domain.LineMaterial):
		return StyleFg.Render("material")
	default:
		return StyleDim.Render(kind)
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
