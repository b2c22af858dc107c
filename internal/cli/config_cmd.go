package cli

import (
	"errors"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/alexanderramin/sillage/internal/cli/formatter"
	"github.com/alexanderramin/sillage/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			printf(cmd, "%s\n\n", formatter.Dim("# "+app.ConfigPath))
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(app.Config)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.ConfigPath == "" {
				return errors.New("no config path; set SILLAGE_CONFIG")
			}
			if _, err := os.Stat(app.ConfigPath); err == nil && !force {
				return errors.New(app.ConfigPath + " already exists; use --force to overwrite")
			}
			if err := config.Save(app.ConfigPath, app.Config); err != nil {
				return err
			}
			printf(cmd, "Wrote %s\n", app.ConfigPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}
