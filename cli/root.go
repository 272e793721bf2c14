package cli

import (
	"github.com/lendflow/lendflow/cli/cmd/bootstrap"
	"github.com/lendflow/lendflow/cli/cmd/migrate"
	"github.com/lendflow/lendflow/cli/cmd/start"
	"github.com/lendflow/lendflow/cli/helpers"
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lendflow",
		Short:         "Lendflow loan origination back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == versionCommand {
				return nil
			}
			return helpers.SetupContext(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.String(helpers.FlagConfig, "lendflow.yaml", "Path to the YAML configuration file")
	flags.String(helpers.FlagEnvFile, ".env", "Path to a .env file loaded before configuration")
	flags.String(helpers.FlagLogLevel, "", "Log level (debug, info, warn, error)")
	flags.Bool(helpers.FlagLogJSON, false, "Emit logs as JSON")

	root.AddCommand(
		start.NewStartCommand(),
		migrate.NewMigrateCommand(),
		bootstrap.NewBootstrapCommand(),
		NewVersionCommand(),
	)
	return root
}
