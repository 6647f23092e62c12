package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

const (
	// configLoadMaxRetries is the maximum number of attempts to load the config file
	configLoadMaxRetries = 2
	// configLoadRetryDelay is the delay between retry attempts
	configLoadRetryDelay = 100 * time.Millisecond
)

// Load reads a YAML or JSON configuration file and applies defaults.
// It retries once on transient I/O errors (e.g., file being modified by an
// editor during read). JSON is parsed by the YAML decoder.
func Load(path string) (*AnalysisConfig, error) {
	var lastErr error
	for attempt := 1; attempt <= configLoadMaxRetries; attempt++ {
		cfg, err := loadOnce(path)
		if err == nil {
			return cfg, nil
		}

		lastErr = err
		if !isTransientConfigError(err) {
			return nil, err
		}

		// Don't wait after last attempt
		if attempt < configLoadMaxRetries {
			time.Sleep(configLoadRetryDelay)
		}
	}

	return nil, lastErr
}

func loadOnce(path string) (*AnalysisConfig, error) {
	file, err := os.Open(path) //#nosec G304 -- Path is user-provided config file
	if err != nil {
		return nil, appErrors.FileOpenError(path, err)
	}
	defer func() { _ = file.Close() }()

	cfg, err := LoadFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// isTransientConfigError reports whether an error is worth retrying.
// Missing files, permission problems and malformed documents are not.
func isTransientConfigError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, appErrors.ErrInvalidConfig) {
		return false
	}
	var typeErr *yaml.TypeError
	return !errors.As(err, &typeErr)
}

// LoadFromReader parses configuration from an io.Reader. An empty document
// yields the defaults.
func LoadFromReader(reader io.Reader) (*AnalysisConfig, error) {
	cfg := &AnalysisConfig{}

	if err := yaml.NewDecoder(reader).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", appErrors.ErrInvalidConfig, appErrors.DecodeError("yaml", "config", err))
	}

	applyDefaults(cfg)
	return cfg, nil
}
