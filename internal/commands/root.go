// Package commands builds the gophportal command tree.
package commands

import (
	"fmt"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/dmitrijs2005/gophportal/internal/config"
	"github.com/dmitrijs2005/gophportal/internal/logging"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X ...commands.version=...".
var version = "dev"

// env carries what PersistentPreRunE resolved to the subcommands.
type env struct {
	cfg *config.Config
	log logging.Logger
}

// NewRootCommand returns the gophportal root command with every subcommand
// attached. Configuration is resolved once per invocation: defaults, the
// JSON file from --config, the environment, then explicitly set flags.
func NewRootCommand() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "gophportal",
		Short: "Quota-limited record search portal and payload probe",
		Long: `gophportal serves an interactive search portal over read-only record
databases, charging every search against the user's query quota, and ships a
payload probe that checks a URL parameter for SQL injection, XSS and HTML
injection.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			cfg, err := config.Load(config.ConfigPath(fs))
			if err != nil {
				return err
			}
			if err := config.ApplyFlags(fs, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("%w: %w", common.ErrValidation, err)
			}

			e.cfg, e.log = cfg, log
			return nil
		},
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newPortalCommand(e),
		newProbeCommand(e),
		newMigrateCommand(e),
		newUsersCommand(e),
		newQuotaCommand(e),
	)
	return root
}
