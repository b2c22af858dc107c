package cli

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alexanderramin/sillage/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
)

// Prompter asks the user for values on an interactive terminal.
type Prompter interface {
	Input(title, placeholder string, validate func(string) error) (string, error)
	Confirm(title string) (bool, error)
}

type huhPrompter struct{}

func (huhPrompter) Input(title, placeholder string, validate func(string) error) (string, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder(placeholder).
				Value(&value).
				Validate(validate),
		),
	).WithTheme(sillageHuhTheme()).WithShowHelp(false)
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (huhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(sillageHuhTheme()).WithShowHelp(false)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

func sillageHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

var errNeedsValue = errors.New("a value is required when not running on a terminal")

// valueOrPrompt returns args[0] when given, otherwise asks for it on an
// interactive terminal. parse validates both paths.
func valueOrPrompt(app *App, args []string, title, placeholder string, parse func(string) (float64, error)) (float64, error) {
	if len(args) > 0 {
		return parse(args[0])
	}
	if !app.interactive() {
		return 0, errNeedsValue
	}
	raw, err := app.prompter().Input(title, placeholder, func(s string) error {
		_, err := parse(s)
		return err
	})
	if err != nil {
		return 0, err
	}
	return parse(raw)
}

// confirm asks before destructive actions. Non-interactive runs must pass --yes.
func confirm(app *App, yes bool, title string) error {
	if yes {
		return nil
	}
	if !app.interactive() {
		return errors.New("refusing to delete without --yes")
	}
	ok, err := app.prompter().Confirm(title)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("cancelled")
	}
	return nil
}

// parseNumber is ParseFloat restricted to finite values.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

func parseGrams(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "g"))
	v, err := parseNumber(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("enter a weight in grams greater than zero")
	}
	return v, nil
}

func parseWeight(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "g"))
	v, err := parseNumber(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("enter a weight in grams, zero or more")
	}
	return v, nil
}

func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := parseNumber(s)
	if err != nil || v <= 0 || v > 100 {
		return 0, fmt.Errorf("enter a valid dilution percentage between 1 and 100")
	}
	return v, nil
}

// percentValue is a flag holding a percentage, accepting "12.5" or "12.5%".
// Zero is allowed so a limit can be cleared.
type percentValue struct {
	value *float64
}

var _ pflag.Value = (*percentValue)(nil)

func newPercentValue(p *float64) *percentValue {
	return &percentValue{value: p}
}

func (p *percentValue) String() string {
	if p.value == nil {
		return "0"
	}
	return strconv.FormatFloat(*p.value, 'f', -1, 64)
}

func (p *percentValue) Set(s string) error {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := parseNumber(s)
	if err != nil || v < 0 || v > 100 {
		return fmt.Errorf("%q is not a percentage between 0 and 100", s)
	}
	*p.value = v
	return nil
}

func (p *percentValue) Type() string { return "percent" }

// percentListValue collects dilution options such as "100,10,1%".
type percentListValue struct {
	values *[]float64
}

var _ pflag.Value = (*percentListValue)(nil)

func (p *percentListValue) String() string {
	if p.values == nil {
		return ""
	}
	parts := make([]string, len(*p.values))
	for i, v := range *p.values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (p *percentListValue) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		v, err := parsePercent(part)
		if err != nil {
			return err
		}
		*p.values = append(*p.values, v)
	}
	return nil
}

func (p *percentListValue) Type() string { return "percents" }
