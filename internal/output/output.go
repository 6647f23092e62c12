// Package output provides colored terminal output for findings and CLI messages.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
)

// Writer defines the interface for output operations
type Writer interface {
	Success(msg string)
	Successf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	Plain(msg string)
	Plainf(format string, args ...interface{})
	Finding(r analysis.Result)
}

// ColoredWriter implements Writer with colored output
type ColoredWriter struct {
	successColor *color.Color
	infoColor    *color.Color
	warnColor    *color.Color
	errorColor   *color.Color
	severity     map[analysis.Severity]*color.Color
	stdout       io.Writer
	stderr       io.Writer
	mu           sync.Mutex
}

// NewColoredWriter creates a new ColoredWriter instance
func NewColoredWriter(stdout, stderr io.Writer) *ColoredWriter {
	return &ColoredWriter{
		successColor: color.New(color.FgGreen, color.Bold),
		infoColor:    color.New(color.FgCyan),
		warnColor:    color.New(color.FgYellow),
		errorColor:   color.New(color.FgRed, color.Bold),
		severity: map[analysis.Severity]*color.Color{
			analysis.SeverityInfo:     color.New(color.FgCyan),
			analysis.SeverityWarning:  color.New(color.FgYellow),
			analysis.SeverityError:    color.New(color.FgRed),
			analysis.SeverityCritical: color.New(color.FgHiRed, color.Bold),
		},
		stdout: stdout,
		stderr: stderr,
	}
}

// Success prints a success message in green
func (w *ColoredWriter) Success(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = w.successColor.Fprintln(w.stdout, msg)
}

// Successf prints a formatted success message
func (w *ColoredWriter) Successf(format string, args ...interface{}) {
	w.Success(fmt.Sprintf(format, args...))
}

// Info prints an info message in cyan
func (w *ColoredWriter) Info(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = w.infoColor.Fprintln(w.stdout, msg)
}

// Infof prints a formatted info message
func (w *ColoredWriter) Infof(format string, args ...interface{}) {
	w.Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning message in yellow
func (w *ColoredWriter) Warn(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = w.warnColor.Fprintln(w.stderr, msg)
}

// Warnf prints a formatted warning message
func (w *ColoredWriter) Warnf(format string, args ...interface{}) {
	w.Warn(fmt.Sprintf(format, args...))
}

// Error prints an error message in red
func (w *ColoredWriter) Error(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = w.errorColor.Fprintln(w.stderr, msg)
}

// Errorf prints a formatted error message
func (w *ColoredWriter) Errorf(format string, args ...interface{}) {
	w.Error(fmt.Sprintf(format, args...))
}

// Plain prints a message without color
func (w *ColoredWriter) Plain(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintln(w.stdout, msg)
}

// Plainf prints a formatted message without color
func (w *ColoredWriter) Plainf(format string, args ...interface{}) {
	w.Plain(fmt.Sprintf(format, args...))
}

// Finding prints one result as "LEVEL  location  [rule] message" with the
// level colored by severity.
func (w *ColoredWriter) Finding(r analysis.Result) {
	label := fmt.Sprintf("%-8s", r.Severity.String())
	location := r.Location()
	if location == "" {
		location = "-"
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.severity[r.Severity]
	if !ok {
		c = w.infoColor
	}
	_, _ = c.Fprint(w.stdout, label)
	_, _ = fmt.Fprintf(w.stdout, " %s [%s] %s\n", location, r.RuleID, r.Message)
}

// Findings prints results in order.
func Findings(w Writer, results []analysis.Result) {
	for _, r := range results {
		w.Finding(r)
	}
}

// Summary prints per-severity counts and the run status. Counts are printed
// from most to least severe and zero counts are skipped.
func Summary(w Writer, actx *analysis.Context, results []analysis.Result) {
	counts := make(map[analysis.Severity]int)
	for _, r := range results {
		counts[r.Severity]++
	}

	progress := actx.Progress()
	w.Plainf("PR %s: %d rules run, %d failed, %d findings (%s in %s)",
		actx.PRID(), progress.CompletedRules, len(actx.FailedRules()),
		len(results), progress.Status, actx.Duration().Round(time.Millisecond))

	for _, sev := range []analysis.Severity{
		analysis.SeverityCritical, analysis.SeverityError, analysis.SeverityWarning, analysis.SeverityInfo,
	} {
		if counts[sev] == 0 {
			continue
		}
		w.Plainf("  %-8s %d", sev.String(), counts[sev])
	}

	if len(results) == 0 {
		w.Success("No findings")
	}
}

//nolint:gochecknoglobals // Output package requires package-level state for consistent formatting
var (
	defaultMu     sync.Mutex
	defaultWriter = NewColoredWriter(os.Stdout, os.Stderr)
)

// Init enables colored output for the package-level writer.
func Init() {
	color.NoColor = false
}

// Default returns the package-level writer.
func Default() *ColoredWriter {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultWriter
}

// Error prints an error message with the package-level writer.
func Error(msg string) {
	Default().Error(msg)
}

// Warn prints a warning with the package-level writer.
func Warn(msg string) {
	Default().Warn(msg)
}
