package helpers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lendflow/lendflow/pkg/config"
	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	FlagConfig   = "config"
	FlagEnvFile  = "env-file"
	FlagLogLevel = "log-level"
	FlagLogJSON  = "log-json"
)

// SetupContext loads the env file, builds the configuration from defaults,
// YAML, environment and changed flags (in that precedence) and attaches the
// manager and a configured logger to the command context.
func SetupContext(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	envFile, err := cmd.Flags().GetString(FlagEnvFile)
	if err != nil {
		return err
	}
	if err := loadEnvFile(envFile); err != nil {
		return err
	}
	configFile, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return err
	}
	manager := config.NewManager(config.NewService())
	cfg, err := manager.Load(ctx,
		config.NewDefaultProvider(),
		config.NewYAMLProvider(configFile),
		config.NewEnvProvider(),
		config.NewCLIProvider(ChangedFlags(cmd.Flags())),
	)
	if err != nil {
		return err
	}
	log := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.Runtime.LogLevel),
		JSON:       cfg.Runtime.LogJSON,
		TimeFormat: "15:04:05",
		Output:     cmd.ErrOrStderr(),
	})
	for _, o := range manager.Service.Overrides() {
		log.Debug("Config override", "key", o.Key, "source", o.Source, "value", o.Value)
	}
	ctx = config.ContextWithManager(ctx, manager)
	ctx = logger.ContextWithLogger(ctx, log)
	cmd.SetContext(ctx)
	return nil
}

func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// ChangedFlags returns the flags the user set explicitly, keyed by name.
func ChangedFlags(flags *pflag.FlagSet) map[string]any {
	out := map[string]any{}
	flags.Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "bool":
			v, err := flags.GetBool(f.Name)
			if err == nil {
				out[f.Name] = v
			}
		case "int":
			v, err := flags.GetInt(f.Name)
			if err == nil {
				out[f.Name] = v
			}
		default:
			out[f.Name] = f.Value.String()
		}
	})
	return out
}
