package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/safar/agromarket/internal/config"
	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/logger"
)

// RootOptions holds global flags and the shared connection factory.
type RootOptions struct {
	Verbose bool

	// open connects to the configured database. Tests replace it.
	open func(ctx context.Context) (*sql.DB, *config.Config, error)
}

func openConfigured(ctx context.Context) (*sql.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

func (o *RootOptions) logger(cmd *cobra.Command) *logrus.Logger {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	return logger.NewWithOutput(config.LogConfig{Level: level, Format: "text"}, cmd.ErrOrStderr())
}

// NewRootCommand creates the marketctl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{open: openConfigured})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "marketctl",
		Short:         "Operate the agromarket database",
		Long:          "Administrative tasks for the agromarket marketplace: schema migrations, admin provisioning and aggregate reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newAdminCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))

	return cmd
}
