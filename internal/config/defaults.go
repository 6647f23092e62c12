package config

// Configuration defaults
const (
	DefaultVersion    = "1.0.0"
	DefaultMaxWorkers = 4
	DefaultStorePath  = ".pranalyzer/results.db"
	DefaultConfigFile = ".pranalyzer.yaml"

	// MaxWorkersLimit caps the parallel pool size.
	MaxWorkersLimit = 64

	// SupportedVersions is the semver constraint config files must satisfy.
	SupportedVersions = ">= 1.0.0, < 2.0.0"
)

// Default returns a configuration with every default applied.
func Default() *AnalysisConfig {
	cfg := &AnalysisConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AnalysisConfig) {
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.Store.Enabled && cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
}
