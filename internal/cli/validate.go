package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/go-pranalyzer/internal/logging"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
)

// createValidateCmd creates the validate command
func createValidateCmd(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file and its rule packs",
		Long: `Validate the configuration file for syntax and semantic errors.
When rules_directory is set, every rule pack in it is loaded as well.`,
		Aliases: []string{"check"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFrom(cmd).WithField(logging.StandardFields.Operation, "validate")
			writer := writerFor(cmd)

			if len(args) == 1 {
				flags.ConfigFile = args[0]
				if err := cmd.Flags().Set("config", args[0]); err != nil {
					return err
				}
			}

			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.RulesDirectory != "" {
				reg := rules.NewRegistry(logger)
				n, err := reg.DiscoverDir(cfg.RulesDirectory)
				if err != nil {
					return err
				}
				writer.Infof("Loaded %d pattern rules from %s", n, cfg.RulesDirectory)
			}

			writer.Success("Configuration is valid")
			return nil
		},
	}
}
