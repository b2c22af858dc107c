package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/cli/formatter"
	"github.com/alexanderramin/sillage/internal/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type editorMode int

const (
	modeBrowse editorMode = iota
	modeWeight
	modeScaleWeight
	modeScaleDilution
	modeConfirmQuit
)

type editorKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Edit     key.Binding
	Scale    key.Binding
	Dilute   key.Binding
	Save     key.Binding
	Quit     key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	ShowHelp key.Binding
}

func newEditorKeyMap() editorKeyMap {
	return editorKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Edit:     key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit weight")),
		Scale:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "scale to weight")),
		Dilute:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "scale to dilution")),
		Save:     key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "save")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		ShowHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	}
}

func (k editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Save, k.Quit, k.ShowHelp}
}

func (k editorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Edit},
		{k.Scale, k.Dilute},
		{k.Save, k.Quit, k.ShowHelp},
	}
}

// editorSavedMsg carries the stored sheet after a save.
type editorSavedMsg struct {
	sheet *service.Sheet
	err   error
}

// EditorModel edits one blend's weights in memory. Every keystroke
// recomputes the sheet; nothing is written until the user saves.
type EditorModel struct {
	ctx    context.Context
	blends service.BlendService
	sheet  *service.Sheet

	cursor int
	mode   editorMode
	input  textinput.Model
	// before is restored when an edit is cancelled.
	before calc.Snapshot

	dirty   bool
	status  string
	err     error
	saving  bool
	Quitted bool

	keys editorKeyMap
	help help.Model
}

// NewEditorModel starts an editor on sheet. ctx must carry the owner.
func NewEditorModel(ctx context.Context, blends service.BlendService, sheet *service.Sheet) *EditorModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 12
	ti.Width = 10

	return &EditorModel{
		ctx:    ctx,
		blends: blends,
		sheet:  sheet,
		input:  ti,
		keys:   newEditorKeyMap(),
		help:   help.New(),
	}
}

// Sheet returns the sheet as currently edited, saved or not.
func (m *EditorModel) Sheet() *service.Sheet { return m.sheet }

// Dirty reports whether there are unsaved changes.
func (m *EditorModel) Dirty() bool { return m.dirty }

func (m *EditorModel) Init() tea.Cmd { return nil }

func (m *EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case editorSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sheet = msg.sheet
		m.dirty = false
		m.err = nil
		m.status = "Saved"
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeWeight, modeScaleWeight, modeScaleDilution:
			return m.updateInput(msg)
		case modeConfirmQuit:
			return m.updateConfirmQuit(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	if m.mode != modeBrowse && m.mode != modeConfirmQuit {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *EditorModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.dirty {
			m.mode = modeConfirmQuit
			return m, nil
		}
		m.Quitted = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		// The last position is the diluent.
		if m.cursor < len(m.sheet.Snapshot.Lines) {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Edit):
		return m, m.startInput(modeWeight, calc.FormatWeight(m.weightAtCursor()))
	case key.Matches(msg, m.keys.Scale):
		return m, m.startInput(modeScaleWeight, "")
	case key.Matches(msg, m.keys.Dilute):
		return m, m.startInput(modeScaleDilution, "")
	case key.Matches(msg, m.keys.Save):
		if m.saving {
			return m, nil
		}
		m.saving = true
		return m, m.save()
	case key.Matches(msg, m.keys.ShowHelp):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *EditorModel) updateConfirmQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		m.Quitted = true
		return m, tea.Quit
	case "n", "esc":
		m.mode = modeBrowse
	}
	return m, nil
}

func (m *EditorModel) startInput(mode editorMode, value string) tea.Cmd {
	m.mode = mode
	m.err = nil
	m.before = m.sheet.Snapshot.Clone()
	m.input.SetValue(strings.TrimSuffix(value, " g"))
	m.input.CursorEnd()
	switch mode {
	case modeScaleWeight:
		m.input.Placeholder = calc.FormatWeight(m.sheet.Totals.TotalWeight)
	case modeScaleDilution:
		m.input.Placeholder = calc.FormatPercent(m.sheet.Totals.FinalDilution)
	default:
		m.input.Placeholder = ""
	}
	return m.input.Focus()
}

func (m *EditorModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.sheet.Snapshot = m.before
		m.sheet.Recompute()
		m.endInput()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		return m, m.applyInput()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeWeight {
		m.previewWeight()
	}
	return m, cmd
}

// previewWeight applies the typed weight to the cursor line so totals follow
// each keystroke. Unparseable input leaves the previous value in place.
func (m *EditorModel) previewWeight() {
	w, err := parseWeight(m.input.Value())
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	snap := m.sheet.Snapshot.Clone()
	if m.cursor < len(snap.Lines) {
		snap.Lines[m.cursor].Weight = w
	} else {
		snap.Diluent.Weight = w
	}
	m.sheet.Snapshot = snap
	m.sheet.Recompute()
}

func (m *EditorModel) applyInput() tea.Cmd {
	var (
		next calc.Snapshot
		err  error
	)
	switch m.mode {
	case modeWeight:
		if _, err = parseWeight(m.input.Value()); err != nil {
			m.err = err
			return nil
		}
		next = m.sheet.Snapshot
	case modeScaleWeight:
		var target float64
		if target, err = parseGrams(m.input.Value()); err == nil {
			next, err = calc.ScaleToTotalWeight(m.before, target)
		}
	case modeScaleDilution:
		var target float64
		if target, err = parsePercent(m.input.Value()); err == nil {
			next, err = calc.ScaleToTargetDilution(m.before, target)
		}
	}
	if err != nil {
		m.err = err
		return nil
	}

	m.sheet.Snapshot = next
	m.sheet.Recompute()
	if !snapshotsEqual(m.before, next) {
		m.dirty = true
	}
	m.endInput()
	return nil
}

func (m *EditorModel) endInput() {
	m.mode = modeBrowse
	m.err = nil
	m.input.Blur()
	m.input.SetValue("")
}

func (m *EditorModel) save() tea.Cmd {
	ctx, blends := m.ctx, m.blends
	id := m.sheet.Blend.ID
	snap := m.sheet.Snapshot.Clone()
	return func() tea.Msg {
		sheet, err := blends.SaveSnapshot(ctx, id, snap)
		return editorSavedMsg{sheet: sheet, err: err}
	}
}

func (m *EditorModel) weightAtCursor() float64 {
	if m.cursor < len(m.sheet.Snapshot.Lines) {
		return m.sheet.Snapshot.Lines[m.cursor].Weight
	}
	return m.sheet.Snapshot.Diluent.Weight
}

func (m *EditorModel) View() string {
	if m.Quitted {
		return ""
	}

	var b strings.Builder
	title := m.sheet.Blend.DisplayTitle()
	if m.dirty {
		title += " *"
	}
	b.WriteString(formatter.Header(title) + "\n\n")

	t := formatter.SheetTable(m.sheet)
	for i := range t.Rows {
		marker := "  "
		if i == m.cursor {
			marker = formatter.StyleHeader.Render("▸ ")
			if m.mode == modeWeight {
				t.Rows[i][3] = m.input.View()
			}
		}
		t.Rows[i][0] = marker + t.Rows[i][0]
	}
	if len(t.Footer) > 0 {
		t.Footer[0][0] = "  " + t.Footer[0][0]
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	switch m.mode {
	case modeScaleWeight:
		b.WriteString("Scale to total weight (g): " + m.input.View() + "\n")
	case modeScaleDilution:
		b.WriteString("Target concentration (%): " + m.input.View() + "\n")
	case modeConfirmQuit:
		b.WriteString(formatter.StyleYellow.Render("Discard unsaved changes? (y/n)") + "\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(formatter.StyleRed.Render(errorLine(m.err)) + "\n")
	case m.status != "":
		b.WriteString(formatter.StyleGreen.Render(m.status) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func errorLine(err error) string {
	if errors.Is(err, calc.ErrInvalidScaleOperation) {
		return "Add some weight before scaling"
	}
	return fmt.Sprintf("%v", err)
}

func snapshotsEqual(a, b calc.Snapshot) bool {
	if a.Diluent != b.Diluent || len(a.Lines) != len(b.Lines) {
		return false
	}
	for i := range a.Lines {
		if a.Lines[i] != b.Lines[i] {
			return false
		}
	}
	return true
}
