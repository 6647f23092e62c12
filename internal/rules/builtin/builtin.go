// Package builtin provides the rules that ship with the analyzer. They read
// only patch text, never source files.
package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
	"github.com/mrz1836/go-pranalyzer/internal/rules"
)

// Rule ids
const (
	LineLengthID         = "style.line-length"
	TrailingWhitespaceID = "style.trailing-whitespace"
	LargeChangeID        = "complexity.large-change"
	RepeatedLinesID      = "duplication.repeated-lines"
)

// Defaults
const (
	DefaultMaxLineLength    = 120
	DefaultMaxAddedLines    = 400
	DefaultMinRepeatedLines = 3
	minRepeatedLineLength   = 12
)

// Factories returns the factories of every built-in rule.
func Factories() []rules.Factory {
	return []rules.Factory{
		func() (rules.Rule, error) { return NewLineLength(DefaultMaxLineLength), nil },
		func() (rules.Rule, error) { return &TrailingWhitespace{}, nil },
		func() (rules.Rule, error) { return NewLargeChange(DefaultMaxAddedLines), nil },
		func() (rules.Rule, error) { return NewRepeatedLines(DefaultMinRepeatedLines), nil },
	}
}

// Register adds the built-in rules to a registry.
func Register(reg *rules.Registry) error {
	_, err := reg.Discover(Factories()...)
	return err
}

// LineLength flags added lines longer than a limit.
type LineLength struct {
	Max int
}

// NewLineLength creates the rule with the given limit.
func NewLineLength(limit int) *LineLength {
	return &LineLength{Max: limit}
}

// Metadata implements rules.Rule.
func (r *LineLength) Metadata() rules.Metadata {
	return rules.Metadata{
		ID:          LineLengthID,
		Name:        "Line length",
		Description: fmt.Sprintf("Added lines should not exceed %d characters", r.Max),
		Category:    "style",
		Severity:    analysis.SeverityInfo,
		Priority:    20,
		Version:     "1.0.0",
	}
}

// ShouldRun implements rules.Applicable.
func (r *LineLength) ShouldRun(actx *analysis.Context) bool {
	return len(actx.CodeFiles()) > 0
}

// Analyze implements rules.Rule.
func (r *LineLength) Analyze(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error) {
	return eachAddedLine(ctx, actx, func(fc analysis.FileChange, line rules.PatchLine) *analysis.Result {
		width := len([]rune(line.Text))
		if width <= r.Max {
			return nil
		}
		return &analysis.Result{
			RuleID:   LineLengthID,
			Severity: analysis.SeverityInfo,
			Message:  fmt.Sprintf("Line is %d characters long (limit %d)", width, r.Max),
			FilePath: fc.Filename,
			Line:     line.Number,
			Column:   r.Max + 1,
			Metadata: map[string]interface{}{"length": width, "limit": r.Max},
		}
	})
}

// TrailingWhitespace flags added lines ending in spaces or tabs.
type TrailingWhitespace struct{}

// Metadata implements rules.Rule.
func (r *TrailingWhitespace) Metadata() rules.Metadata {
	return rules.Metadata{
		ID:       TrailingWhitespaceID,
		Name:     "Trailing whitespace",
		Category: "style",
		Severity: analysis.SeverityInfo,
		Priority: 20,
		Version:  "1.0.0",
	}
}

// Analyze implements rules.Rule.
func (r *TrailingWhitespace) Analyze(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error) {
	return eachAddedLine(ctx, actx, func(fc analysis.FileChange, line rules.PatchLine) *analysis.Result {
		trimmed := strings.TrimRight(line.Text, " \t")
		if trimmed == line.Text {
			return nil
		}
		return &analysis.Result{
			RuleID:   TrailingWhitespaceID,
			Severity: analysis.SeverityInfo,
			Message:  "Line has trailing whitespace",
			FilePath: fc.Filename,
			Line:     line.Number,
			Column:   len(trimmed) + 1,
		}
	})
}

// LargeChange flags files with more added lines than a reviewer can follow.
type LargeChange struct {
	MaxAdded int
}

// NewLargeChange creates the rule with the given limit.
func NewLargeChange(limit int) *LargeChange {
	return &LargeChange{MaxAdded: limit}
}

// Metadata implements rules.Rule.
func (r *LargeChange) Metadata() rules.Metadata {
	return rules.Metadata{
		ID:          LargeChangeID,
		Name:        "Large change",
		Description: "Files with very large additions are hard to review",
		Category:    "complexity",
		Severity:    analysis.SeverityWarning,
		Priority:    50,
		Version:     "1.0.0",
	}
}

// Analyze implements rules.Rule.
func (r *LargeChange) Analyze(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error) {
	var results []analysis.Result
	for _, fc := range actx.FileChanges() {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		added := len(rules.AddedLines(fc.Patch))
		if added <= r.MaxAdded {
			continue
		}
		results = append(results, analysis.Result{
			RuleID:   LargeChangeID,
			Severity: analysis.SeverityWarning,
			Message:  fmt.Sprintf("File adds %d lines (limit %d); consider splitting the change", added, r.MaxAdded),
			FilePath: fc.Filename,
			Metadata: map[string]interface{}{"added_lines": added, "limit": r.MaxAdded},
		})
	}
	return results, nil
}

// RepeatedLines flags runs of identical added lines within a file. It runs
// after trailing whitespace so that findings do not overlap on the same lines.
type RepeatedLines struct {
	MinRun int
}

// NewRepeatedLines creates the rule reporting runs of at least minRun lines.
func NewRepeatedLines(minRun int) *RepeatedLines {
	return &RepeatedLines{MinRun: minRun}
}

// Metadata implements rules.Rule.
func (r *RepeatedLines) Metadata() rules.Metadata {
	return rules.Metadata{
		ID:           RepeatedLinesID,
		Name:         "Repeated lines",
		Category:     "duplication",
		Severity:     analysis.SeverityWarning,
		Priority:     10,
		Dependencies: []string{TrailingWhitespaceID},
		Version:      "1.0.0",
	}
}

// Analyze implements rules.Rule.
func (r *RepeatedLines) Analyze(ctx context.Context, actx *analysis.Context) ([]analysis.Result, error) {
	var results []analysis.Result
	for _, fc := range actx.CodeFiles() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		lines := rules.AddedLines(fc.Patch)
		for i := 0; i < len(lines); {
			text := strings.TrimSpace(lines[i].Text)
			j := i + 1
			for j < len(lines) && lines[j].Number == lines[j-1].Number+1 && strings.TrimSpace(lines[j].Text) == text {
				j++
			}
			if run := j - i; run >= r.MinRun && len(text) >= minRepeatedLineLength {
				results = append(results, analysis.Result{
					RuleID:   RepeatedLinesID,
					Severity: analysis.SeverityWarning,
					Message:  fmt.Sprintf("Line repeated %d times in a row", run),
					FilePath: fc.Filename,
					Line:     lines[i].Number,
					Metadata: map[string]interface{}{"repeats": run},
				})
			}
			i = j
		}
	}
	return results, nil
}

func eachAddedLine(ctx context.Context, actx *analysis.Context, check func(analysis.FileChange, rules.PatchLine) *analysis.Result) ([]analysis.Result, error) {
	var results []analysis.Result
	for _, fc := range actx.CodeFiles() {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if fc.Status == analysis.FileRemoved {
			continue
		}
		for _, line := range rules.AddedLines(fc.Patch) {
			if r := check(fc, line); r != nil {
				results = append(results, *r)
			}
		}
	}
	return results, nil
}
