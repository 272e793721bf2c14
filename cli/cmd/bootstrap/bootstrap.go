package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	authpg "github.com/lendflow/lendflow/engine/auth/infra/postgres"
	authuc "github.com/lendflow/lendflow/engine/auth/uc"
	"github.com/lendflow/lendflow/engine/billing"
	billinguc "github.com/lendflow/lendflow/engine/billing/uc"
	"github.com/lendflow/lendflow/engine/infra/postgres"
	"github.com/lendflow/lendflow/pkg/config"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/spf13/cobra"
)

const closeTimeout = 10 * time.Second

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(14)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// NewBootstrapCommand creates the first organization, its owner and an API
// key, and starts the organization's trial.
func NewBootstrapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first organization and its owner",
		RunE:  runBootstrap,
	}
	cmd.Flags().String("org", "", "Organization name")
	cmd.Flags().String("email", "", "Owner email")
	cmd.Flags().String("name", "", "Owner display name")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return fmt.Errorf("configuration missing from context")
	}
	input := &authuc.BootstrapInput{}
	var err error
	if input.OrgName, err = cmd.Flags().GetString("org"); err != nil {
		return err
	}
	if input.OwnerEmail, err = cmd.Flags().GetString("email"); err != nil {
		return err
	}
	if input.OwnerName, err = cmd.Flags().GetString("name"); err != nil {
		return err
	}
	store, err := postgres.NewStore(ctx, postgres.FromAppConfig(&cfg.Database))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.FromContext(ctx).Warn("Failed to close database pool", "error", err)
		}
	}()
	result, trial, err := Run(ctx, store.Pool(), cfg, input)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result, trial)
}

// Run bootstraps against db. The trial is best effort: a failure is logged
// and the organization is still returned.
func Run(
	ctx context.Context,
	db postgres.DB,
	cfg *config.Config,
	input *authuc.BootstrapInput,
) (*authuc.BootstrapResult, *billing.Subscription, error) {
	auth := authuc.NewFactory(authpg.NewRepository(db), cfg.Auth.APIKeyPrefix, nil)
	result, err := auth.BootstrapOrganization(input).Execute(ctx)
	if err != nil {
		return nil, nil, err
	}
	billingFactory := billinguc.NewFactory(billinguc.Deps{
		Repo: postgres.NewBillingRepo(db),
		Settings: billinguc.Settings{
			TrialDays:   cfg.Billing.TrialDays,
			GracePeriod: cfg.Billing.GracePeriod,
		},
	})
	trial, err := billingFactory.StartTrial(result.Organization.ID).Execute(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to start trial", "org_id", result.Organization.ID, "error", err)
		return result, nil, nil
	}
	return result, trial, nil
}

func printResult(w io.Writer, result *authuc.BootstrapResult, trial *billing.Subscription) error {
	lines := []string{
		labelStyle.Render("Organization") + result.Organization.Name + " (" + result.Organization.ID.String() + ")",
		labelStyle.Render("Owner") + result.Owner.Email + " (" + result.Owner.ID.String() + ")",
		labelStyle.Render("API key") + keyStyle.Render(result.APIKey),
	}
	if trial != nil {
		lines = append(lines, labelStyle.Render("Trial ends")+trial.CurrentPeriodEnd.UTC().Format(time.RFC3339))
	}
	lines = append(lines, warnStyle.Render("Store the API key now. It is not shown again."))
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, lines...))
	return err
}
