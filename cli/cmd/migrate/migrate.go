package migrate

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lendflow/lendflow/engine/infra/postgres"
	"github.com/lendflow/lendflow/pkg/config"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// NewMigrateCommand groups the schema migration subcommands.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}
	cmd.AddCommand(newUpCommand(), newStatusCommand(), newDownCommand())
	return cmd
}

func dsnFrom(cmd *cobra.Command) (string, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return "", fmt.Errorf("configuration missing from context")
	}
	return postgres.FromAppConfig(&cfg.Database).DSN(), nil
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := dsnFrom(cmd)
			if err != nil {
				return err
			}
			if err := postgres.ApplyMigrationsWithLock(cmd.Context(), dsn); err != nil {
				return err
			}
			logger.FromContext(cmd.Context()).Info("Migrations applied")
			return nil
		},
	}
}

func newDownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := dsnFrom(cmd)
			if err != nil {
				return err
			}
			version, err := postgres.RollbackMigration(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			logger.FromContext(cmd.Context()).Info("Migration rolled back", "version", version)
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := dsnFrom(cmd)
			if err != nil {
				return err
			}
			statuses, err := postgres.Migrations(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderStatus(statuses))
			return err
		},
	}
}

func renderStatus(statuses []postgres.MigrationStatus) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("VERSION", "SOURCE", "STATE", "APPLIED AT").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range statuses {
		state := "pending"
		applied := "-"
		if s.Applied {
			state = "applied"
			applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		t.Row(strconv.FormatInt(s.Version, 10), s.Source, state, applied)
	}
	return t.String()
}
