package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
	"github.com/mrz1836/go-pranalyzer/internal/validation"
)

// loadPRFile reads pull request data from a YAML or JSON file.
func loadPRFile(path string) (analysis.PRData, error) {
	file, err := os.Open(path) //#nosec G304 -- Path is a user-provided input file
	if err != nil {
		return analysis.PRData{}, appErrors.FileOpenError(path, err)
	}
	defer func() { _ = file.Close() }()

	var pr analysis.PRData
	if err := yaml.NewDecoder(file).Decode(&pr); err != nil && !errors.Is(err, io.EOF) {
		return analysis.PRData{}, appErrors.DecodeError("yaml", path, err)
	}
	if err := validation.ValidatePR(pr); err != nil {
		return analysis.PRData{}, fmt.Errorf("%w: %s: %w", ErrInvalidPRFile, path, err)
	}
	return pr, nil
}

// dirSnapshots serves existing base and head checkouts instead of
// materializing them.
type dirSnapshots struct {
	base string
	head string
}

// Prepare implements analyzer.SnapshotProvider.
func (d dirSnapshots) Prepare(_ context.Context, _ analysis.PRData, _ string) (string, string, error) {
	return d.base, d.head, nil
}
