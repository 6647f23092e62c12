// Package cli implements the command-line interface for go-pranalyzer.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mrz1836/go-pranalyzer/internal/config"
	"github.com/mrz1836/go-pranalyzer/internal/logging"
	"github.com/mrz1836/go-pranalyzer/internal/output"
)

// loggerContextKey is a type for context keys to avoid collisions
type loggerContextKey struct{}

// Flags contains the global flags of one command tree
type Flags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	EnvDir     string
	Verbose    int
	NoColor    bool
}

// NewRootCmd creates an isolated root command instance.
// Each call owns its flags, so commands can run side by side in tests.
func NewRootCmd() *cobra.Command {
	flags := &Flags{
		ConfigFile: config.DefaultConfigFile,
		LogFormat:  "text",
		EnvDir:     ".",
	}

	cmd := &cobra.Command{
		Use:   "go-pranalyzer",
		Short: "Run static analysis rules against pull requests",
		Long: `go-pranalyzer runs a registry of analysis rules against the changed files
of a pull request and reports their findings.

Rules run in priority order and after the rules they depend on. A failing
rule is reported as an error finding and never stops the rest of the run.`,
		PersistentPreRunE: createSetupLogging(flags),
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.ConfigFile, "config", "c", config.DefaultConfigFile, "Path to configuration file")
	pf.StringVar(&flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.LogFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&flags.EnvDir, "env-dir", ".", "Directory holding .env files")
	pf.CountVarP(&flags.Verbose, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	pf.BoolVar(&flags.NoColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(createAnalyzeCmd(flags))
	cmd.AddCommand(createRulesCmd(flags))
	cmd.AddCommand(createValidateCmd(flags))
	cmd.AddCommand(createHistoryCmd(flags))
	cmd.AddCommand(createVersionCmd())

	return cmd
}

// ExecuteWithContext runs the CLI, canceling ctx on SIGINT or SIGTERM.
func ExecuteWithContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			output.Warn("Interrupt received, canceling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return NewRootCmd().ExecuteContext(ctx)
}

// createSetupLogging creates an isolated logging setup function for the given flags.
// The configured logger is stored in the command context.
func createSetupLogging(flags *Flags) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if flags.NoColor {
			color.NoColor = true
		}

		if err := LoadEnvFiles(flags.EnvDir); err != nil {
			return err
		}

		level := flags.LogLevel
		if level == "" {
			level = os.Getenv(config.EnvLogLevel)
		}

		logger := logrus.New()
		logger.SetOutput(cmd.ErrOrStderr())
		logConfig := &logging.LogConfig{
			LogLevel:      level,
			Verbose:       flags.Verbose,
			LogFormat:     flags.LogFormat,
			CorrelationID: logging.GenerateCorrelationID(),
		}
		if id := os.Getenv(config.EnvCorrelationID); id != "" {
			logConfig = logConfig.WithCorrelationID(id)
		}
		if err := logging.ConfigureLogger(logger, logConfig); err != nil {
			return err
		}

		entry := logging.WithStandardFields(logger, logConfig, logging.ComponentNames.CLI)
		entry.WithFields(logrus.Fields{
			"config":    flags.ConfigFile,
			"log_level": logger.GetLevel().String(),
			"command":   cmd.Name(),
		}).Debug("CLI initialized")

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(context.WithValue(ctx, loggerContextKey{}, entry))
		return nil
	}
}

// loggerFrom returns the logger stored by the setup hook, or the standard logger.
func loggerFrom(cmd *cobra.Command) *logrus.Entry {
	if ctx := cmd.Context(); ctx != nil {
		if entry, ok := ctx.Value(loggerContextKey{}).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// writerFor builds a colored writer over the command's streams.
func writerFor(cmd *cobra.Command) *output.ColoredWriter {
	return output.NewColoredWriter(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// loadConfig reads the configuration file and applies environment overrides.
// A missing default file yields the defaults; a missing explicit file is an error.
func loadConfig(cmd *cobra.Command, flags *Flags) (*config.AnalysisConfig, error) {
	cfg, err := config.Load(flags.ConfigFile)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		loggerFrom(cmd).WithField(logging.StandardFields.FilePath, flags.ConfigFile).
			Debug("No configuration file, using defaults")
		cfg = config.Default()
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, flags.ConfigFile)
	default:
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
