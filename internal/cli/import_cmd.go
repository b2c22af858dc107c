package cli

import (
	"github.com/alexanderramin/sillage/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load materials, accords and formulas from a YAML file",
		Long: `Load materials, accords and formulas from a YAML file.

Materials whose title already exists in your catalog are reused. Blends may
refer to materials and accords by title; accords must be listed before the
formulas that use them. Nothing is written unless the whole file imports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Import.ImportFile(app.ctx(cmd), args[0])
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatImportResult(res))
			return nil
		},
	}
}
