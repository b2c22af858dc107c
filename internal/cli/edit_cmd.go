package cli

import (
	"context"
	"errors"

	"github.com/alexanderramin/sillage/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newEditCmd(app *App) *cobra.Command {
	var accord bool

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a formula's weights interactively with live totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errors.New("edit needs an interactive terminal; use the weight, scale and dilute commands instead")
			}
			ctx := app.ctx(cmd)
			kind := domain.BlendFormula
			if accord {
				kind = domain.BlendAccord
			}
			id, err := resolveBlendID(ctx, app, kind, args[0])
			if err != nil {
				return err
			}
			sheet, err := app.Blends.Sheet(ctx, id)
			if err != nil {
				return err
			}
			m := NewEditorModel(ctx, app.Blends, sheet)
			if err := app.runEditor(ctx, m); err != nil {
				return err
			}
			if m.Dirty() {
				printf(cmd, "Left %s without saving\n", sheet.Blend.DisplayTitle())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&accord, "accord", false, "ID names an accord rather than a formula")
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		kind := domain.BlendFormula
		if accord {
			kind = domain.BlendAccord
		}
		return completeBlendTitles(app, kind)(cmd, args, toComplete)
	}

	return cmd
}

func (a *App) runEditor(ctx context.Context, m *EditorModel) error {
	if a.RunEditor != nil {
		return a.RunEditor(ctx, m)
	}
	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}
