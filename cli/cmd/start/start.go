package start

import (
	"context"
	"fmt"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/infra/server"
	"github.com/lendflow/lendflow/pkg/config"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/spf13/cobra"
)

const productionEnvironment = "production"

// NewStartCommand creates the command that runs the HTTP server.
func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"server"},
		Short:   "Start the Lendflow API server",
		RunE:    runStart,
	}
	cmd.Flags().String("host", "", "Host to bind")
	cmd.Flags().Int("port", 0, "Port to listen on")
	cmd.Flags().Bool("auto-migrate", false, "Apply pending migrations before serving")
	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return fmt.Errorf("configuration missing from context")
	}
	if cfg.Runtime.Environment == productionEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}
	logProductionWarnings(ctx, cfg)
	srv, err := server.NewServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run()
}

func logProductionWarnings(ctx context.Context, cfg *config.Config) {
	if cfg.Runtime.Environment != productionEnvironment {
		return
	}
	log := logger.FromContext(ctx)
	if cfg.Database.SSLMode == "disable" {
		log.Warn("Database TLS is disabled in production")
	}
	if cfg.Server.CORSEnabled && slices.Contains(cfg.Server.CORS.AllowedOrigins, "*") {
		log.Warn("CORS allows any origin in production")
	}
	if cfg.Billing.KeyID == "" {
		log.Warn("Payment gateway keys are not set, checkout is disabled")
	}
}
