package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/alexanderramin/sillage/internal/config"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and process settings CLI commands run against.
type App struct {
	Materials  service.MaterialService
	Categories service.CategoryService
	Blends     service.BlendService
	Import     service.ImportService

	// Owner is the catalog the commands act on.
	Owner string

	Config     config.Config
	ConfigPath string

	// IsInteractive reports whether stdin is a terminal. Prompts and the
	// editor are only offered when it returns true.
	IsInteractive func() bool

	// Prompter asks for a single value; replaced in tests.
	Prompter Prompter

	// RunEditor runs the interactive sheet editor; replaced in tests.
	RunEditor func(ctx context.Context, m *EditorModel) error
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) prompter() Prompter {
	if a.Prompter != nil {
		return a.Prompter
	}
	return huhPrompter{}
}

// ctx returns the command context acting on behalf of the configured owner.
func (a *App) ctx(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.Owner == "" {
		return ctx
	}
	return service.WithOwner(ctx, a.Owner)
}

// NewRootCmd creates the top-level "sillage" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "sillage",
		Short:         "Perfumer's workbench: materials, accords and formulas",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Every owner starts with the built-in categories.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Categories == nil || app.Owner == "" {
				return nil
			}
			return app.Categories.EnsureDefaults(app.ctx(cmd))
		},
	}
	root.PersistentFlags().StringVar(&app.Owner, "owner", app.Owner, "Act on this owner's catalog")

	root.AddCommand(
		newMaterialCmd(app),
		newCategoryCmd(app),
		newBlendCmd(app, blendCmdSpec{kind: domain.BlendAccord, plural: "Accords"}),
		newBlendCmd(app, blendCmdSpec{kind: domain.BlendFormula, plural: "Formulas"}),
		newImportCmd(app),
		newEditCmd(app),
		newConfigCmd(app),
		newGlossaryCmd(),
	)

	return root
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func write(cmd *cobra.Command, s string) {
	io.WriteString(cmd.OutOrStdout(), s)
}
