// Package errors - file operation error utilities
package errors

import (
	"errors"
	"fmt"
)

// Error templates for file operations
var (
	errFileOperationTemplate      = errors.New("file operation failed")
	errDirectoryOperationTemplate = errors.New("directory operation failed")
	errDecodeOperationTemplate    = errors.New("decode operation failed")
)

// FileOperationError creates a standardized file operation error.
//
// Example usage:
//
//	return FileOperationError("read", "/path/to/file.txt", err)
//	// Returns: "file operation failed: read '/path/to/file.txt': <original error>"
func FileOperationError(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s '%s': %w", errFileOperationTemplate, operation, path, err)
}

// DirectoryOperationError creates a standardized directory operation error.
func DirectoryOperationError(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s '%s': %w", errDirectoryOperationTemplate, operation, path, err)
}

// FileReadError is a convenience function for file read operations.
func FileReadError(path string, err error) error {
	return FileOperationError("read", path, err)
}

// FileOpenError is a convenience function for file open operations.
func FileOpenError(path string, err error) error {
	return FileOperationError("open", path, err)
}

// DirectoryCreateError is a convenience function for directory creation.
func DirectoryCreateError(path string, err error) error {
	return DirectoryOperationError("create", path, err)
}

// DirectoryReadError is a convenience function for directory listing errors.
func DirectoryReadError(path string, err error) error {
	return DirectoryOperationError("read", path, err)
}

// DecodeError creates a standardized YAML/JSON decoding error.
//
// Example usage:
//
//	return DecodeError("yaml", "rules/style.yaml", err)
//	// Returns: "decode operation failed: yaml 'rules/style.yaml': <original error>"
func DecodeError(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s '%s': %w", errDecodeOperationTemplate, format, source, err)
}
