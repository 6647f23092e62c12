package config

import (
	"fmt"
	"os"
	"strconv"

	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

// Environment variables that override file settings
const (
	EnvMaxWorkers = "PRANALYZER_MAX_WORKERS"
	EnvParallel   = "PRANALYZER_PARALLEL"
	EnvRulesDir   = "PRANALYZER_RULES_DIR"
	EnvLogLevel   = "PRANALYZER_LOG_LEVEL"

	// EnvCorrelationID replaces the generated log correlation id, so CI
	// jobs can tie analyzer logs to their own run id.
	EnvCorrelationID = "PRANALYZER_CORRELATION_ID"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from the process environment.
func (c *AnalysisConfig) ApplyEnv() error {
	return c.ApplyEnvFrom(os.LookupEnv)
}

// ApplyEnvFrom overrides settings using lookup. Empty values are ignored.
func (c *AnalysisConfig) ApplyEnvFrom(lookup LookupFunc) error {
	if v, ok := lookup(EnvMaxWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %w", appErrors.ErrInvalidConfig, appErrors.FormatError(EnvMaxWorkers, v, "integer"))
		}
		c.MaxWorkers = n
	}
	if v, ok := lookup(EnvParallel); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %w", appErrors.ErrInvalidConfig, appErrors.FormatError(EnvParallel, v, "boolean"))
		}
		c.ParallelExecution = b
	}
	if v, ok := lookup(EnvRulesDir); ok && v != "" {
		c.RulesDirectory = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}
