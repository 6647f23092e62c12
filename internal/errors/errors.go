// Package errors defines common error types and utilities used throughout the application
package errors

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Registry errors
	ErrDuplicateRule    = errors.New("rule id already registered with a different type")
	ErrRuleNotFound     = errors.New("rule not found")
	ErrInvalidRule      = errors.New("invalid rule definition")
	ErrRuleConstruction = errors.New("rule construction failed")

	// Execution errors
	ErrRuleExecution = errors.New("rule execution failed")
	ErrRulePanicked  = errors.New("rule panicked")
	ErrRuleTimeout   = errors.New("rule exceeded its deadline")

	// Context errors
	ErrInvalidState    = errors.New("invalid analysis state")
	ErrSnapshotMissing = errors.New("snapshot path does not exist")
	ErrSnapshotNotSet  = errors.New("snapshot path not set")

	// Config and input errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrPathTraversal = errors.New("path traversal detected")

	// Test errors (only used in tests)
	ErrTest = errors.New("test error")
)

// Error templates for static error definitions (satisfies err113 linter)
var (
	errInvalidFieldTemplate     = errors.New("invalid field")
	errValidationFailedTemplate = errors.New("validation failed")
	errEmptyFieldTemplate       = errors.New("field cannot be empty")
	errRequiredFieldTemplate    = errors.New("field is required")
	errInvalidFormatTemplate    = errors.New("invalid format")
)

// WrapWithContext wraps an error with operation context using consistent formatting.
func WrapWithContext(err error, operation string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// InvalidFieldError creates a standardized invalid field error.
func InvalidFieldError(field, value string) error {
	return fmt.Errorf("%w: %s: %s", errInvalidFieldTemplate, field, value)
}

// ValidationError creates a standardized validation error.
func ValidationError(item, reason string) error {
	return fmt.Errorf("%w for %s: %s", errValidationFailedTemplate, item, reason)
}

// EmptyFieldError creates a standardized empty field validation error.
func EmptyFieldError(field string) error {
	return fmt.Errorf("%w: %s", errEmptyFieldTemplate, field)
}

// RequiredFieldError creates a standardized required field error.
func RequiredFieldError(field string) error {
	return fmt.Errorf("%w: %s", errRequiredFieldTemplate, field)
}

// FormatError creates a standardized format validation error.
func FormatError(field, value, expectedFormat string) error {
	return fmt.Errorf("%w: %s '%s': expected %s", errInvalidFormatTemplate, field, value, expectedFormat)
}

// DuplicateRuleError reports a rule id claimed by two different rule types.
func DuplicateRuleError(ruleID, existing, incoming string) error {
	return fmt.Errorf("%w: %q (registered: %s, new: %s)", ErrDuplicateRule, ruleID, existing, incoming)
}

// RuleConstructionError wraps a failure to build a rule instance.
func RuleConstructionError(ruleID string, err error) error {
	if ruleID == "" {
		return fmt.Errorf("%w: %w", ErrRuleConstruction, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrRuleConstruction, ruleID, err)
}

// RuleExecutionError wraps an error returned (or a panic raised) by a rule's Analyze call.
func RuleExecutionError(ruleID string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRuleExecution, ruleID, err)
}

// InvalidStateError reports a state machine transition that is not allowed.
func InvalidStateError(operation, current string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, operation, current)
}

// RuleNotFoundError reports a lookup for an unregistered rule id.
func RuleNotFoundError(ruleID string) error {
	return fmt.Errorf("%w: %s", ErrRuleNotFound, ruleID)
}

// PathTraversalError reports a path that escapes its root.
func PathTraversalError(path string) error {
	return fmt.Errorf("%w: %s", ErrPathTraversal, path)
}
