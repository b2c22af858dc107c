package formatter

import (
	"strings"
)

type GlossaryEntry struct {
	Term       string
	Definition string
}

const glossaryWidth = 72

// FormatGlossary renders terms in bold with their definitions wrapped and
// indented below.
func FormatGlossary(entries []GlossaryEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(StyleHeader.Render(e.Term) + "\n")
		b.WriteString(StyleFg.Render(indentWrapped(e.Definition, 2, glossaryWidth)) + "\n")
	}
	return b.String()
}

func indentWrapped(text string, indent, width int) string {
	prefix := strings.Repeat(" ", indent)
	lines := strings.Split(wrapText(text, width), "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	return b.String()
}

// wrapText breaks text at word boundaries so no line exceeds width. Words
// longer than width get a line of their own.
func wrapText(text string, width int) string {
	if width <= 0 {
		return strings.TrimSpace(text)
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			if len(current)+1+len(word) <= width {
				current += " " + word
				continue
			}
			out = append(out, current)
			current = word
		}
		out = append(out, current)
	}
	return strings.Join(out, "\n")
}
