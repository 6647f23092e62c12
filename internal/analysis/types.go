// Package analysis holds the records shared by rules, the engine and reporters:
// file changes, findings and the per-PR analysis context.
package analysis

import (
	"fmt"
	"path/filepath"
	"strings"

	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

// Severity is the ordinal classification of a finding.
type Severity int

// Severity levels, ordered info < warning < error < critical.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

//nolint:gochecknoglobals // lookup table
var severityNames = [...]string{"info", "warning", "error", "critical"}

// String returns the lowercase severity name.
func (s Severity) String() string {
	if s < SeverityInfo || s > SeverityCritical {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity converts a severity name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i, n := range severityNames {
		if n == normalized {
			return Severity(i), nil
		}
	}
	return SeverityInfo, appErrors.InvalidFieldError("severity", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FileStatus describes how a pull request touched a file.
type FileStatus string

// File statuses
const (
	FileAdded    FileStatus = "added"
	FileModified FileStatus = "modified"
	FileRemoved  FileStatus = "removed"
)

// Valid reports whether the status is one of the known values.
func (s FileStatus) Valid() bool {
	switch s {
	case FileAdded, FileModified, FileRemoved:
		return true
	default:
		return false
	}
}

// FileChange describes one file touched by the pull request.
// ChangedLines is only ever populated when Patch is present.
type FileChange struct {
	Filename     string     `json:"filename" yaml:"filename"`
	Status       FileStatus `json:"status" yaml:"status"`
	Patch        string     `json:"patch,omitempty" yaml:"patch,omitempty"`
	ChangedLines []int      `json:"changed_lines,omitempty" yaml:"changed_lines,omitempty"`
}

// NewFileChange builds a FileChange, dropping changed lines when there is no patch.
func NewFileChange(filename string, status FileStatus, patch string, changedLines []int) FileChange {
	fc := FileChange{
		Filename: filename,
		Status:   status,
		Patch:    patch,
	}
	if patch != "" && len(changedLines) > 0 {
		fc.ChangedLines = append([]int(nil), changedLines...)
	}
	return fc
}

//nolint:gochecknoglobals // lookup table
var codeExtensions = map[string]struct{}{
	".go": {}, ".py": {}, ".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {},
	".java": {}, ".kt": {}, ".rb": {}, ".rs": {}, ".c": {}, ".h": {},
	".cc": {}, ".cpp": {}, ".hpp": {}, ".cs": {}, ".php": {}, ".swift": {},
	".scala": {}, ".sh": {},
}

// IsCodeFile reports whether the file looks like source code, by extension.
func (fc FileChange) IsCodeFile() bool {
	_, ok := codeExtensions[strings.ToLower(filepath.Ext(fc.Filename))]
	return ok
}

// Result is one finding produced by a rule. Zero FilePath, Line and Column
// mean the location is unknown.
type Result struct {
	RuleID   string                 `json:"rule_id"`
	Severity Severity               `json:"severity"`
	Message  string                 `json:"message"`
	FilePath string                 `json:"file_path,omitempty"`
	Line     int                    `json:"line_number,omitempty"`
	Column   int                    `json:"column,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Location renders file:line:column, omitting unknown parts.
func (r Result) Location() string {
	if r.FilePath == "" {
		return ""
	}
	switch {
	case r.Line > 0 && r.Column > 0:
		return fmt.Sprintf("%s:%d:%d", r.FilePath, r.Line, r.Column)
	case r.Line > 0:
		return fmt.Sprintf("%s:%d", r.FilePath, r.Line)
	default:
		return r.FilePath
	}
}

// PRData is the pull request identity and file list supplied by the host.
type PRData struct {
	ID         string                 `json:"id" yaml:"id"`
	Repo       string                 `json:"repo" yaml:"repo"`
	Title      string                 `json:"title,omitempty" yaml:"title,omitempty"`
	Author     string                 `json:"author,omitempty" yaml:"author,omitempty"`
	BaseBranch string                 `json:"base_branch,omitempty" yaml:"base_branch,omitempty"`
	HeadBranch string                 `json:"head_branch,omitempty" yaml:"head_branch,omitempty"`
	Files      []FileChange           `json:"files,omitempty" yaml:"files,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Status is the lifecycle state of an analysis run.
type Status string

// Run statuses
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further progress can be recorded.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress is a point-in-time snapshot of a run.
type Progress struct {
	TotalRules     int     `json:"total_rules"`
	CompletedRules int     `json:"completed_rules"`
	CurrentRule    string  `json:"current_rule,omitempty"`
	Status         Status  `json:"status"`
	Percentage     float64 `json:"percentage"`
}
