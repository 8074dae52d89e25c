package cli

import (
	"context"
	"fmt"

	"github.com/dipesh37/quiz1/internal/config"
	"github.com/dipesh37/quiz1/internal/database"
	"github.com/dipesh37/quiz1/internal/logger"

	"github.com/spf13/cobra"
)

// Connector yields a connected, migrated store.
type Connector func(ctx context.Context) (*database.Store, *config.Config, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string // "json" | "text"
	connect Connector
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	return newRootCommand(connectFromEnv)
}

func newRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:           "submissionsctl",
		Short:         "Operate the quiz submission store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newCountCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))

	return cmd
}

func connectFromEnv(ctx context.Context) (*database.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	store := database.New(cfg, logger.New(cfg.Environment))
	if err := store.Connect(ctx); err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
