// Package validation checks pull request input before it reaches the analyzer.
package validation

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/errors"
)

// Validation patterns compiled once for efficiency
var (
	// repoNamePattern validates repository names in org/repo format
	repoNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][\w.-]*/[a-zA-Z0-9][\w.-]*$`)

	// branchNamePattern validates branch names with allowed characters
	branchNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][\w./\-]*$`)
)

// ValidateRepoName validates repository name format.
// Expects org/repo format and ensures no path traversal attempts.
func ValidateRepoName(name string) error {
	if name == "" {
		return errors.EmptyFieldError("repository name")
	}

	if !repoNamePattern.MatchString(name) {
		return errors.FormatError("repository name", name, "org/repo")
	}

	if strings.Contains(name, "..") {
		return errors.PathTraversalError(name)
	}

	return nil
}

// ValidateBranchName validates branch name format.
func ValidateBranchName(name string) error {
	if name == "" {
		return errors.EmptyFieldError("branch name")
	}

	if !branchNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return errors.InvalidFieldError("branch name", name)
	}

	return nil
}

// ValidateFilePath validates that a changed file path is relative and stays
// inside the repository.
func ValidateFilePath(path, fieldName string) error {
	if path == "" {
		return errors.RequiredFieldError(fieldName + " path")
	}

	cleanPath := filepath.ToSlash(filepath.Clean(path))

	if filepath.IsAbs(cleanPath) || strings.HasPrefix(cleanPath, "/") {
		return errors.ValidationError(fieldName+" path", "must be relative, not absolute")
	}

	if cleanPath == ".." || strings.HasPrefix(cleanPath, "../") {
		return errors.PathTraversalError(path)
	}

	return nil
}

// ValidateNonEmpty validates that a string field is not empty or whitespace-only.
func ValidateNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.EmptyFieldError(field)
	}
	return nil
}

// Result collects validation errors.
type Result struct {
	Valid  bool
	Errors []error
}

// NewValidationResult creates a new validation result initialized as valid.
func NewValidationResult() *Result {
	return &Result{
		Valid:  true,
		Errors: make([]error, 0),
	}
}

// AddError adds an error to the validation result.
func (vr *Result) AddError(err error) {
	if err != nil {
		vr.Valid = false
		vr.Errors = append(vr.Errors, err)
	}
}

// AllErrors returns all validation errors joined into one, or nil.
func (vr *Result) AllErrors() error {
	switch len(vr.Errors) {
	case 0:
		return nil
	case 1:
		return vr.Errors[0]
	default:
		return stderrors.Join(vr.Errors...)
	}
}

// ValidatePR checks the identity and file list of a pull request. Repository
// and branches are optional; when present they must be well formed.
func ValidatePR(pr analysis.PRData) error {
	result := NewValidationResult()

	result.AddError(ValidateNonEmpty("id", pr.ID))
	if pr.Repo != "" {
		result.AddError(ValidateRepoName(pr.Repo))
	}
	if pr.BaseBranch != "" {
		result.AddError(ValidateBranchName(pr.BaseBranch))
	}
	if pr.HeadBranch != "" {
		result.AddError(ValidateBranchName(pr.HeadBranch))
	}

	for i, fc := range pr.Files {
		field := fmt.Sprintf("files[%d]", i)
		result.AddError(ValidateFilePath(fc.Filename, field))
		if !fc.Status.Valid() {
			result.AddError(errors.InvalidFieldError(field+".status", string(fc.Status)))
		}
	}

	return result.AllErrors()
}
