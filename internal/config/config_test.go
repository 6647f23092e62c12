package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

const sampleYAML = `version: "1.2.0"
max_workers: 8
parallel_execution: true
include_categories: [style, complexity]
exclude_rules: [style.line-length]
rules_directory: ./rules
rule_timeout: 30s
min_severity: warning
store:
  enabled: true
line_length_limit: 100
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultVersion, cfg.Version)
	assert.Equal(t, DefaultMaxWorkers, cfg.MaxWorkers)
	assert.False(t, cfg.ParallelExecution)
	assert.False(t, cfg.Store.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "cfg.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.True(t, cfg.ParallelExecution)
	assert.Equal(t, []string{"style", "complexity"}, cfg.IncludeCategories)
	assert.Equal(t, []string{"style.line-length"}, cfg.ExcludeRules)
	assert.Equal(t, "./rules", cfg.RulesDirectory)
	assert.Equal(t, 30*time.Second, cfg.RuleTimeout)
	assert.Equal(t, analysis.SeverityWarning, cfg.MinimumSeverity())
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)

	v, ok := cfg.Setting("line_length_limit")
	require.True(t, ok)
	assert.Equal(t, 100, v)
	_, ok = cfg.Setting("missing")
	assert.False(t, ok)

	require.NoError(t, cfg.Validate())
}

func TestLoadJSON(t *testing.T) {
	cfg, err := Load(writeConfig(t, "cfg.json", `{"max_workers": 2, "include_rules": ["r1"], "store": {"enabled": false}}`))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxWorkers)
	assert.Equal(t, []string{"r1"}, cfg.IncludeRules)
	assert.Equal(t, DefaultVersion, cfg.Version)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file operation failed: open")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Load(writeConfig(t, "bad.yaml", "max_workers: [1, 2"))
		require.ErrorIs(t, err, appErrors.ErrInvalidConfig)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := Load(writeConfig(t, "bad.yaml", "max_workers: lots\n"))
		require.Error(t, err)
	})
}

func TestLoadFromReaderEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxWorkers, cfg.MaxWorkers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AnalysisConfig)
		message string
	}{
		{"bad version", func(c *AnalysisConfig) { c.Version = "one" }, "invalid format: version"},
		{"unsupported version", func(c *AnalysisConfig) { c.Version = "2.0.0" }, "does not satisfy"},
		{"too few workers", func(c *AnalysisConfig) { c.MaxWorkers = -1 }, "max_workers"},
		{"too many workers", func(c *AnalysisConfig) { c.MaxWorkers = MaxWorkersLimit + 1 }, "max_workers"},
		{"negative timeout", func(c *AnalysisConfig) { c.RuleTimeout = -time.Second }, "rule_timeout"},
		{"bad severity", func(c *AnalysisConfig) { c.MinSeverity = "loud" }, "severity"},
		{"overlapping rules", func(c *AnalysisConfig) {
			c.IncludeRules = []string{"a", "b"}
			c.ExcludeRules = []string{"b"}
		}, "also excluded: [b]"},
		{"overlapping categories", func(c *AnalysisConfig) {
			c.IncludeCategories = []string{"style"}
			c.ExcludeCategories = []string{"style"}
		}, "include_categories"},
		{"store without path", func(c *AnalysisConfig) { c.Store = StoreConfig{Enabled: true} }, "store.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, appErrors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.MaxWorkers = 0
	cfg.MinSeverity = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_workers")
	assert.Contains(t, err.Error(), "loud")
}

func TestApplyEnvFrom(t *testing.T) {
	env := map[string]string{
		EnvMaxWorkers: "12",
		EnvParallel:   "true",
		EnvRulesDir:   "/etc/rules",
		EnvLogLevel:   "debug",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnvFrom(lookup))
	assert.Equal(t, 12, cfg.MaxWorkers)
	assert.True(t, cfg.ParallelExecution)
	assert.Equal(t, "/etc/rules", cfg.RulesDirectory)
	assert.Equal(t, "debug", cfg.LogLevel)

	env[EnvMaxWorkers] = "many"
	require.ErrorIs(t, cfg.ApplyEnvFrom(lookup), appErrors.ErrInvalidConfig)

	env[EnvMaxWorkers] = ""
	env[EnvParallel] = "sometimes"
	require.ErrorIs(t, cfg.ApplyEnvFrom(lookup), appErrors.ErrInvalidConfig)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvRulesDir, "/from/env")
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/from/env", cfg.RulesDirectory)
}

func TestIsTransientConfigError(t *testing.T) {
	assert.False(t, isTransientConfigError(nil))
	assert.False(t, isTransientConfigError(os.ErrNotExist))
	assert.False(t, isTransientConfigError(appErrors.ErrInvalidConfig))
	assert.True(t, isTransientConfigError(appErrors.ErrTest))
}
