// Package config defines the analysis configuration and how it is loaded,
// defaulted, overridden from the environment and validated.
package config

import "time"

// AnalysisConfig controls rule selection and execution for PR analysis.
// Top-level keys that are not recognized are kept in CustomSettings so that
// rules and hooks can read their own settings.
type AnalysisConfig struct {
	Version           string        `yaml:"version"`
	MaxWorkers        int           `yaml:"max_workers"`
	ParallelExecution bool          `yaml:"parallel_execution"`
	IncludeRules      []string      `yaml:"include_rules,omitempty"`
	ExcludeRules      []string      `yaml:"exclude_rules,omitempty"`
	IncludeCategories []string      `yaml:"include_categories,omitempty"`
	ExcludeCategories []string      `yaml:"exclude_categories,omitempty"`
	RulesDirectory    string        `yaml:"rules_directory,omitempty"`
	SnapshotRoot      string        `yaml:"snapshot_root,omitempty"`
	KeepSnapshots     bool          `yaml:"keep_snapshots"`
	RuleTimeout       time.Duration `yaml:"rule_timeout,omitempty"`
	MinSeverity       string        `yaml:"min_severity,omitempty"`
	LogLevel          string        `yaml:"log_level,omitempty"`
	Store             StoreConfig   `yaml:"store"`

	CustomSettings map[string]interface{} `yaml:",inline"`
}

// StoreConfig configures persistence of analysis runs.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Setting returns a custom setting by key.
func (c *AnalysisConfig) Setting(key string) (interface{}, bool) {
	if c == nil || c.CustomSettings == nil {
		return nil, false
	}
	v, ok := c.CustomSettings[key]
	return v, ok
}
