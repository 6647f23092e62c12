package cli

import "errors"

// Common CLI errors
var (
	// ErrConfigFileNotFound indicates an explicitly requested configuration file is missing
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrFindingsAtThreshold indicates findings at or above the --fail-on severity
	ErrFindingsAtThreshold = errors.New("findings at or above the failure threshold")

	// ErrInvalidPRFile indicates a pull request file that failed validation
	ErrInvalidPRFile = errors.New("invalid pull request file")

	// ErrConflictingSelectors indicates --rule and --category were both given
	ErrConflictingSelectors = errors.New("--rule and --category are mutually exclusive")
)
