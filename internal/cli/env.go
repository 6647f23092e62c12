package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment files read at startup, in order. Both are optional.
const (
	envBaseFile   = ".env"
	envCustomFile = ".env.local"
)

// LoadEnvFiles loads dir/.env and then dir/.env.local. Values from .env never
// replace variables already set in the process; .env.local overrides both.
func LoadEnvFiles(dir string) error {
	baseFile := filepath.Join(dir, envBaseFile)
	customFile := filepath.Join(dir, envCustomFile)

	if _, err := os.Stat(baseFile); err == nil {
		if err := godotenv.Load(baseFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", baseFile, err)
		}
	}

	if _, err := os.Stat(customFile); err == nil {
		if err := godotenv.Overload(customFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", customFile, err)
		}
	}

	return nil
}
