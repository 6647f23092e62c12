// Package logging provides logging configuration types and utilities.
//
// This package defines the logging configuration used by the CLI and the
// analysis components. It is a leaf dependency so that every package can
// share the same field names without import cycles.
package logging

import (
	"crypto/rand"
	"encoding/hex"
)

// LogConfig holds all logging and CLI output configuration.
type LogConfig struct {
	LogLevel      string
	Verbose       int    // -v, -vv support
	LogFormat     string // "text" or "json"
	CorrelationID string // Unique ID for correlating the log lines of one analysis run
	JSONOutput    bool
}

// GenerateCorrelationID creates a unique correlation ID for request tracing.
func GenerateCorrelationID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "fallback-id"
	}
	return hex.EncodeToString(bytes)
}

// WithCorrelationID returns a copy of the config carrying the given correlation ID.
func (lc *LogConfig) WithCorrelationID(correlationID string) *LogConfig {
	if lc == nil {
		return &LogConfig{CorrelationID: correlationID}
	}

	newConfig := *lc
	newConfig.CorrelationID = correlationID
	return &newConfig
}
