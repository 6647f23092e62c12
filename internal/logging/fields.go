package logging

// StandardFields defines the field names used for structured logging
// across all components.
//
//nolint:gochecknoglobals // Intentional global constants for standardized field names
var StandardFields = struct {
	// Pull request identity
	PRID     string
	RepoName string

	// Rule identity
	RuleID    string
	RuleIDs   string
	Category  string
	Priority  string
	RuleCount string

	// Timing
	DurationMs string
	StartTime  string
	EndTime    string
	Timestamp  string

	// Operation context
	Component     string
	Operation     string
	CorrelationID string
	Hook          string

	// Execution
	Parallel    string
	MaxWorkers  string
	ResultCount string
	FailedCount string
	FilePath    string

	// Errors
	Error     string
	ErrorType string

	// Status and progress
	Status   string
	Progress string
}{
	PRID:     "pr_id",
	RepoName: "repo_name",

	RuleID:    "rule_id",
	RuleIDs:   "rule_ids",
	Category:  "category",
	Priority:  "priority",
	RuleCount: "rule_count",

	DurationMs: "duration_ms",
	StartTime:  "start_time",
	EndTime:    "end_time",
	Timestamp:  "@timestamp",

	Component:     "component",
	Operation:     "operation",
	CorrelationID: "correlation_id",
	Hook:          "hook",

	Parallel:    "parallel",
	MaxWorkers:  "max_workers",
	ResultCount: "result_count",
	FailedCount: "failed_count",
	FilePath:    "file_path",

	Error:     "error",
	ErrorType: "error_type",

	Status:   "status",
	Progress: "progress",
}

// ComponentNames defines standardized component names
//
//nolint:gochecknoglobals // Intentional global constants for standardized component names
var ComponentNames = struct {
	Context  string
	Registry string
	Engine   string
	Analyzer string
	Config   string
	Store    string
	CLI      string
}{
	Context:  "analysis-context",
	Registry: "rule-registry",
	Engine:   "rule-engine",
	Analyzer: "pr-analyzer",
	Config:   "config",
	Store:    "result-store",
	CLI:      "cli",
}
